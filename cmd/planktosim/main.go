package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"slices"

	"github.com/planktosim/planktosim/internal/plankton"
	"github.com/planktosim/planktosim/internal/plankton/recorders"
)

func main() {
	var (
		configFile = flag.String("config", "", "path to simulation config JSON file (optional; defaults apply)")
		steps      = flag.Int("steps", 0, "number of steps to run (overrides config when > 0)")
		seed       = flag.Int64("seed", 0, "random seed (overrides config when non-zero; 0 keeps the config value)")
		csvPath    = flag.String("csv", "", "path to CSV output file (optional)")
		simID      = flag.String("sim-id", "simulation", "simulation ID used in snapshots")
	)
	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}
	if *steps > 0 {
		cfg.Steps = *steps
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	sim, err := plankton.NewSimulation(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating simulation: %v\n", err)
		os.Exit(1)
	}
	sim.SetID(plankton.SimulationID(*simID))

	var recs []plankton.Recorder
	if *csvPath != "" {
		csvRec, err := recorders.NewCSVRecorder("csv", *csvPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error creating csv recorder: %v\n", err)
			os.Exit(1)
		}
		defer csvRec.Close()
		recs = append(recs, csvRec)
	}

	if err := sim.RunSteps(context.Background(), cfg.Steps, recs...); err != nil {
		fmt.Fprintf(os.Stderr, "error running simulation: %v\n", err)
		os.Exit(1)
	}

	printSummary(sim, cfg.Steps)
}

// loadConfig reads a config JSON file over the defaults, so absent
// fields keep their default values. An empty path returns the defaults.
func loadConfig(path string) (plankton.SimConfig, error) {
	cfg := plankton.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return plankton.SimConfig{}, fmt.Errorf("reading config file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return plankton.SimConfig{}, fmt.Errorf("parsing config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return plankton.SimConfig{}, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func printSummary(sim *plankton.Simulation, steps int) {
	counts := sim.CountBySpecies()

	fmt.Printf("Simulation finished (steps=%d, survivors=%d)\n", steps, sim.Count())
	fmt.Println("Species counts:")

	speciesList := make([]plankton.Species, 0, len(counts))
	for species := range counts {
		speciesList = append(speciesList, species)
	}
	slices.Sort(speciesList)

	for _, species := range speciesList {
		fmt.Printf("  %s: %d\n", species, counts[species])
	}
}
