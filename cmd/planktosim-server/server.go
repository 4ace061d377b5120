package main

import (
	"context"
	"sync"

	"github.com/planktosim/planktosim/internal/observability"
	"github.com/planktosim/planktosim/internal/plankton"
	"github.com/planktosim/planktosim/internal/plankton/recorders"
)

// planktonLoggerAdapter adapts the server's Logger to the plankton.Logger interface
type planktonLoggerAdapter struct {
	logger *Logger
}

func (a *planktonLoggerAdapter) Debugf(format string, v ...any) {
	a.logger.Debugf(format, v...)
}

func (a *planktonLoggerAdapter) Infof(format string, v ...any) {
	a.logger.Infof(format, v...)
}

func (a *planktonLoggerAdapter) Warnf(format string, v ...any) {
	a.logger.Warnf(format, v...)
}

func (a *planktonLoggerAdapter) Errorf(format string, v ...any) {
	a.logger.Errorf(format, v...)
}

// Server represents the HTTP server for the plankton simulator
type Server struct {
	manager   *plankton.SimulationManager
	collector *observability.SimCollector
	logger    *Logger

	mu      sync.Mutex
	streams map[plankton.SimulationID]*recorders.WebSocketRecorder

	snapshotDir        string
	snapshotEverySteps int
}

// NewServer creates a new server instance
func NewServer(logger *Logger, collector *observability.SimCollector) *Server {
	planktonLogger := &planktonLoggerAdapter{logger: logger}
	return &Server{
		manager:   plankton.NewSimulationManagerWithLogger(planktonLogger),
		collector: collector,
		logger:    logger,
		streams:   make(map[plankton.SimulationID]*recorders.WebSocketRecorder),
	}
}

// SetSnapshotDir sets the snapshot directory for new simulations
func (s *Server) SetSnapshotDir(dir string) {
	s.snapshotDir = dir
}

// SetSnapshotEverySteps sets the snapshot frequency for new simulations
func (s *Server) SetSnapshotEverySteps(steps int) {
	s.snapshotEverySteps = steps
}

// createSimulation registers a simulation and wires its step stream:
// live websocket broadcast, Prometheus gauges and periodic snapshots.
func (s *Server) createSimulation(id plankton.SimulationID, cfg plankton.SimConfig) (*plankton.Simulation, error) {
	sim, err := s.manager.Create(id, cfg)
	if err != nil {
		return nil, err
	}

	if s.snapshotDir != "" {
		sim.SetSnapshotDir(s.snapshotDir)
	}
	if s.snapshotEverySteps > 0 {
		sim.SetSnapshotEveryNSteps(s.snapshotEverySteps)
	}

	stream := recorders.NewWebSocketRecorder(string(id) + "-stream")
	s.mu.Lock()
	s.streams[id] = stream
	s.mu.Unlock()

	sim.AddStepListener(func(snap plankton.Snapshot) {
		if s.collector != nil {
			s.collector.StepsTotal.WithLabelValues(string(id)).Inc()
			counts := make(map[plankton.Species]int)
			for _, rec := range snap.Agents {
				counts[rec.Species]++
			}
			s.collector.SetPopulation(string(id), string(plankton.SpeciesPhyto), counts[plankton.SpeciesPhyto])
			s.collector.SetPopulation(string(id), string(plankton.SpeciesZoo), counts[plankton.SpeciesZoo])
		}
		if err := stream.Record(context.Background(), snap); err != nil {
			s.logger.Warnf("websocket stream dropped snapshot: sim_id=%s step=%d error=%v", id, snap.Step, err)
		}
	})

	return sim, nil
}

// deleteSimulation removes a simulation and tears down its stream.
func (s *Server) deleteSimulation(id plankton.SimulationID) error {
	if err := s.manager.Delete(id); err != nil {
		return err
	}

	s.mu.Lock()
	stream, ok := s.streams[id]
	delete(s.streams, id)
	s.mu.Unlock()
	if ok {
		stream.Close()
	}

	if s.collector != nil {
		s.collector.DeleteSimulation(string(id))
	}
	return nil
}

// stream returns the websocket broadcast recorder for a simulation.
func (s *Server) stream(id plankton.SimulationID) (*recorders.WebSocketRecorder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stream, ok := s.streams[id]
	return stream, ok
}
