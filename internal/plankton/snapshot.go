package plankton

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// AgentRecord is the externally visible state of one agent at a step
// boundary. Energy is present only for zooplankton.
type AgentRecord struct {
	ID      AgentID `json:"id"`
	Species Species `json:"species"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Energy  *int    `json:"energy,omitempty"`
}

// Snapshot is a point-in-time capture of a simulation: the step index
// and every live agent, ordered by ascending id. It is the only thing
// the engine hands to the outside world.
type Snapshot struct {
	SimulationID SimulationID  `json:"simulation_id,omitempty"`
	Step         int           `json:"step"`
	Agents       []AgentRecord `json:"agents"`
}

// Recorder is the collaborator that receives snapshots in step order.
// Serialization and rendering live behind this interface, never in the
// engine.
type Recorder interface {
	// ID returns a unique identifier for this recorder.
	ID() string

	// Type returns the kind of recorder (e.g. "csv", "websocket", "webhook").
	Type() string

	// Record delivers one snapshot. The context can carry cancellation
	// and timeout.
	Record(ctx context.Context, snap Snapshot) error

	// Close releases any resources held by the recorder.
	Close() error
}

// ValidateSnapshot checks a snapshot for internal consistency:
//   - ids are unique
//   - species tags are known
//   - energy is present iff the agent is zooplankton
//   - positions lie inside [0,width) x [0,height) when an extent is given
//
// Pass non-positive width/height to skip the bounds check.
func ValidateSnapshot(snap Snapshot, width, height float64) error {
	seen := make(map[AgentID]struct{})

	for i, rec := range snap.Agents {
		if _, dup := seen[rec.ID]; dup {
			return fmt.Errorf("duplicate agent id: %d", rec.ID)
		}
		seen[rec.ID] = struct{}{}

		switch rec.Species {
		case SpeciesPhyto:
			if rec.Energy != nil {
				return fmt.Errorf("agent %d: phytoplankton must not carry energy", rec.ID)
			}
		case SpeciesZoo:
			if rec.Energy == nil {
				return fmt.Errorf("agent %d: zooplankton must carry energy", rec.ID)
			}
		default:
			return fmt.Errorf("agent at index %d has unknown species: %q", i, rec.Species)
		}

		if width > 0 && height > 0 {
			if rec.X < 0 || rec.X >= width || rec.Y < 0 || rec.Y >= height {
				return fmt.Errorf("agent %d position (%g, %g) outside domain", rec.ID, rec.X, rec.Y)
			}
		}
	}

	return nil
}

// EncodeSnapshotJSON encodes a snapshot to JSON format.
func EncodeSnapshotJSON(snap Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshotJSON decodes a snapshot from JSON format.
func DecodeSnapshotJSON(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap, nil
}

// WriteSnapshotFile persists a snapshot as JSON under dir, named after
// the simulation id and step.
func WriteSnapshotFile(dir string, snap Snapshot) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating snapshot dir: %w", err)
	}
	name := fmt.Sprintf("%s-step-%06d.json", snap.SimulationID, snap.Step)
	if snap.SimulationID == "" {
		name = fmt.Sprintf("step-%06d.json", snap.Step)
	}
	path := filepath.Join(dir, name)

	data, err := EncodeSnapshotJSON(snap)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	return path, nil
}
