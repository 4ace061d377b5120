// Demo client: creates a predator-prey simulation on a locally running
// planktosim-server, steps it in batches and prints the population
// trajectory. Start the server first:
//
//	go run ./cmd/planktosim-server
//	go run ./cmd/demo
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/planktosim/planktosim/internal/plankton"
	"github.com/planktosim/planktosim/pkg/client"
)

func main() {
	var (
		serverURL = flag.String("server", "http://localhost:8080", "planktosim-server base URL")
		simID     = flag.String("sim-id", "demo", "simulation ID to create")
		steps     = flag.Int("steps", 200, "total steps to run")
		batch     = flag.Int("batch", 20, "steps per request")
	)
	flag.Parse()

	ctx := context.Background()
	c := client.New(*serverURL)

	if err := c.Health(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "server not reachable at %s: %v\n", *serverURL, err)
		os.Exit(1)
	}

	cfg := client.NewConfig().
		Populations(200, 20).
		Domain(70, 70).
		Seed(42).
		Build()

	if err := c.CreateSimulation(ctx, *simID, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "cannot create simulation: %v\n", err)
		os.Exit(1)
	}
	defer c.DeleteSimulation(ctx, *simID)

	fmt.Printf("%6s %8s %8s\n", "step", "phyto", "zoo")
	for done := 0; done < *steps; done += *batch {
		n := *batch
		if remaining := *steps - done; remaining < n {
			n = remaining
		}

		info, err := c.Step(ctx, *simID, n)
		if err != nil {
			fmt.Fprintf(os.Stderr, "step failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%6d %8d %8d\n", info.Step,
			info.Counts[plankton.SpeciesPhyto], info.Counts[plankton.SpeciesZoo])
	}

	snap, err := c.Snapshot(ctx, *simID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "snapshot failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("final population: %d agents at step %d\n", len(snap.Agents), snap.Step)
}
