package main

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/planktosim/planktosim/internal/observability"
	"github.com/planktosim/planktosim/internal/plankton"
)

func main() {
	cfg := loadServerConfig()
	logger := NewLogger(cfg.LogLevel)

	collector, err := observability.NewSimCollector(nil)
	if err != nil {
		logger.Fatalf("Failed to build metrics collector: %v", err)
	}

	srv := NewServer(logger, collector)
	if cfg.SnapshotDir != "" {
		srv.SetSnapshotDir(cfg.SnapshotDir)
	}
	if cfg.SnapshotEverySteps > 0 {
		srv.SetSnapshotEverySteps(cfg.SnapshotEverySteps)
	}

	// Optionally create a simulation at startup from a config file
	if cfg.ConfigFile != "" {
		if err := createInitialSimulation(srv, cfg.ConfigFile, plankton.SimulationID(cfg.DefaultSimID)); err != nil {
			logger.Fatalf("Failed to create initial simulation: %v", err)
		}
		logger.Infof("Initial simulation created: sim_id=%s config=%s", cfg.DefaultSimID, cfg.ConfigFile)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.HandleFunc("/sims", srv.handleListSims)
	mux.HandleFunc("/sim/", srv.handleSim)
	mux.Handle("/metrics", collector.Handler())

	logger.Infof("planktosim-server listening on %s", cfg.Addr)
	logger.Fatalf("%v", http.ListenAndServe(cfg.Addr, mux))
}

// createInitialSimulation loads a simulation config JSON over the
// defaults and registers it with the server.
func createInitialSimulation(srv *Server, configFile string, simID plankton.SimulationID) error {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return err
	}

	simCfg := plankton.DefaultConfig()
	if err := json.Unmarshal(data, &simCfg); err != nil {
		return err
	}

	_, err = srv.createSimulation(simID, simCfg)
	return err
}
