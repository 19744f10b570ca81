// Command texture reduces crystal-plasticity snapshots to per-grain
// orientation trajectories and related summaries.
package main

import (
	"log"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
