// Command flashgategen writes deterministic sample DataFlash logs
// (well-formed and deliberately corrupted) so flashgatectl and
// flashgated can be exercised without a real vehicle log.
package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"flashgate/internal/samples"
)

func main() {
	outDir := flag.String("out", ".", "output directory for generated sample files")
	flag.Parse()

	if err := samples.WriteFiles(*outDir); err != nil {
		log.Fatalf("generate samples: %v", err)
	}

	fmt.Printf("wrote %s, %s, %s, %s\n",
		filepath.Join(*outDir, samples.WellFormedLogFileName),
		filepath.Join(*outDir, samples.GarbageResyncLogFileName),
		filepath.Join(*outDir, samples.DuplicateFMTLogFileName),
		filepath.Join(*outDir, samples.NaNFloatLogFileName))
}
