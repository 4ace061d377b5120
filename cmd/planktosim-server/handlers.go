package main

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/planktosim/planktosim/internal/plankton"
)

// extractSimID extracts the simulation ID from a path like "/sim/{simID}/..."
// Returns the simulation ID and the remaining path, or empty string if not found
func extractSimID(path string) (plankton.SimulationID, string) {
	if !strings.HasPrefix(path, "/sim/") {
		return "", ""
	}

	rest := path[len("/sim/"):]

	idx := strings.Index(rest, "/")
	if idx == -1 {
		// No more path segments, the whole thing is the sim ID
		return plankton.SimulationID(rest), ""
	}

	return plankton.SimulationID(rest[:idx]), rest[idx:]
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// GET /sims
// Lists the IDs of all registered simulations
func (s *Server) handleListSims(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.logger, s.manager.List())
}

// handleSim routes everything under /sim/{simID}
func (s *Server) handleSim(w http.ResponseWriter, r *http.Request) {
	simID, rest := extractSimID(r.URL.Path)
	if simID == "" {
		http.Error(w, "simulation ID is required in path: /sim/{simID}", http.StatusBadRequest)
		return
	}

	switch rest {
	case "":
		switch r.Method {
		case http.MethodPost:
			s.handleCreateSim(w, r, simID)
		case http.MethodDelete:
			s.handleDeleteSim(w, r, simID)
		case http.MethodGet:
			s.handleSimInfo(w, r, simID)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	case "/step":
		s.handleStep(w, r, simID)
	case "/run":
		s.handleRun(w, r, simID)
	case "/stop":
		s.handleStop(w, r, simID)
	case "/agents":
		s.handleAgents(w, r, simID)
	case "/snapshot":
		s.handleSnapshot(w, r, simID)
	case "/counts":
		s.handleCounts(w, r, simID)
	case "/ws":
		s.handleWebSocket(w, r, simID)
	default:
		http.NotFound(w, r)
	}
}

// POST /sim/{simID}
// Body: SimConfig JSON (optional; an empty body uses the defaults)
func (s *Server) handleCreateSim(w http.ResponseWriter, r *http.Request, simID plankton.SimulationID) {
	defer r.Body.Close()

	cfg := plankton.DefaultConfig()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "reading body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &cfg); err != nil {
			http.Error(w, "invalid config json: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	if _, err := s.createSimulation(simID, cfg); err != nil {
		http.Error(w, "cannot create simulation: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Infof("Simulation created: sim_id=%s phyto=%d zoo=%d", simID, cfg.PopulationPhyto, cfg.PopulationZoo)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("simulation created"))
}

// DELETE /sim/{simID}
func (s *Server) handleDeleteSim(w http.ResponseWriter, r *http.Request, simID plankton.SimulationID) {
	if err := s.deleteSimulation(simID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.logger.Infof("Simulation deleted: sim_id=%s", simID)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("simulation deleted"))
}

type simInfoResponse struct {
	ID     plankton.SimulationID    `json:"id"`
	Step   int                      `json:"step"`
	Counts map[plankton.Species]int `json:"counts"`
}

// GET /sim/{simID}
func (s *Server) handleSimInfo(w http.ResponseWriter, r *http.Request, simID plankton.SimulationID) {
	sim, exists := s.manager.Get(simID)
	if !exists {
		http.Error(w, "simulation not found", http.StatusNotFound)
		return
	}

	writeJSON(w, s.logger, simInfoResponse{
		ID:     simID,
		Step:   sim.StepIndex(),
		Counts: sim.CountBySpecies(),
	})
}

// POST /sim/{simID}/step?n=1
// Advances the simulation by n steps (default 1)
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request, simID plankton.SimulationID) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sim, exists := s.manager.Get(simID)
	if !exists {
		http.Error(w, "simulation not found", http.StatusNotFound)
		return
	}

	n := 1
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "n must be a positive integer", http.StatusBadRequest)
			return
		}
		n = parsed
	}

	for i := 0; i < n; i++ {
		start := time.Now()
		sim.Step()
		if s.collector != nil {
			s.collector.StepDurations.WithLabelValues(string(simID)).Observe(time.Since(start).Seconds())
		}
	}

	writeJSON(w, s.logger, simInfoResponse{
		ID:     simID,
		Step:   sim.StepIndex(),
		Counts: sim.CountBySpecies(),
	})
}

type runRequest struct {
	IntervalMS int `json:"interval_ms"`
}

// POST /sim/{simID}/run
// Body: { "interval_ms": 100 }
// Starts stepping the simulation in the background
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request, simID plankton.SimulationID) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	sim, exists := s.manager.Get(simID)
	if !exists {
		http.Error(w, "simulation not found", http.StatusNotFound)
		return
	}

	req := runRequest{IntervalMS: 100}
	body, err := io.ReadAll(r.Body)
	if err == nil && len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	if req.IntervalMS < 1 {
		http.Error(w, "interval_ms must be a positive integer", http.StatusBadRequest)
		return
	}

	sim.Run(time.Duration(req.IntervalMS) * time.Millisecond)
	s.logger.Infof("Simulation running: sim_id=%s interval_ms=%d", simID, req.IntervalMS)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("running"))
}

// POST /sim/{simID}/stop
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request, simID plankton.SimulationID) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sim, exists := s.manager.Get(simID)
	if !exists {
		http.Error(w, "simulation not found", http.StatusNotFound)
		return
	}

	sim.Stop()
	s.logger.Infof("Simulation stopped: sim_id=%s", simID)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("stopped"))
}

// GET /sim/{simID}/agents
// Returns the current agent records
func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request, simID plankton.SimulationID) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sim, exists := s.manager.Get(simID)
	if !exists {
		http.Error(w, "simulation not found", http.StatusNotFound)
		return
	}

	writeJSON(w, s.logger, sim.Snapshot().Agents)
}

// GET /sim/{simID}/snapshot — returns the current snapshot
// POST /sim/{simID}/snapshot — saves it to the snapshot directory
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request, simID plankton.SimulationID) {
	sim, exists := s.manager.Get(simID)
	if !exists {
		http.Error(w, "simulation not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, s.logger, sim.Snapshot())
	case http.MethodPost:
		if s.snapshotDir == "" {
			http.Error(w, "no snapshot directory configured", http.StatusBadRequest)
			return
		}
		path, err := plankton.WriteSnapshotFile(s.snapshotDir, sim.Snapshot())
		if err != nil {
			s.logger.Errorf("Failed to save snapshot: sim_id=%s error=%v", simID, err)
			http.Error(w, "cannot save snapshot: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, s.logger, map[string]string{"path": path})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// GET /sim/{simID}/counts
// Returns the live population per species
func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request, simID plankton.SimulationID) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sim, exists := s.manager.Get(simID)
	if !exists {
		http.Error(w, "simulation not found", http.StatusNotFound)
		return
	}

	writeJSON(w, s.logger, sim.CountBySpecies())
}

// GET /sim/{simID}/ws
// Upgrades to a WebSocket that receives one snapshot per step
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request, simID plankton.SimulationID) {
	stream, ok := s.stream(simID)
	if !ok {
		http.Error(w, "simulation not found", http.StatusNotFound)
		return
	}

	upgrader := stream.Upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("WebSocket upgrade failed: sim_id=%s error=%v", simID, err)
		return
	}

	stream.RegisterClient(conn)
	s.logger.Debugf("WebSocket client connected: sim_id=%s remote=%s", simID, conn.RemoteAddr())

	// Drain (and discard) client messages so close frames are processed;
	// unregister when the client goes away.
	go func() {
		defer stream.UnregisterClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func writeJSON(w http.ResponseWriter, logger *Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("Failed to encode response: %v", err)
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
	}
}
