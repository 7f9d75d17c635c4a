package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/vmheap/heap"
	"github.com/joshuapare/vmheap/pkg/vmheap"
)

var (
	benchCount   int
	benchSize    uint32
	benchKind    string
	benchCollect int
)

func init() {
	cmd := newBenchCmd()
	cmd.Flags().IntVarP(&benchCount, "count", "n", 10000, "Number of allocations")
	cmd.Flags().Uint32VarP(&benchSize, "size", "s", 32, "Size of each allocation in bytes")
	cmd.Flags().StringVarP(&benchKind, "kind", "k", "ordinary", "Allocation kind: ordinary, atomic or uncollectable")
	cmd.Flags().IntVar(&benchCollect, "collect-every", 0, "Force a collection every N allocations (managed only)")
	rootCmd.AddCommand(cmd)
}

func newBenchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bench",
		Short: "Run an allocation benchmark against the configured backend",
		Long: `The bench command allocates --count objects of --size bytes through the
host ABI and reports throughput and the backend statistics afterwards.
Allocation failures are counted rather than aborting the run.

Example:
  heapctl bench --backend bump -n 100000 -s 16
  heapctl bench --backend managed --collect-every 1000 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench()
		},
	}
}

// BenchResult is the JSON shape of a bench run.
type BenchResult struct {
	Count     int        `json:"count"`
	Size      uint32     `json:"size"`
	Kind      string     `json:"kind"`
	Failed    int        `json:"failed"`
	ElapsedNs int64      `json:"elapsed_ns"`
	NsPerOp   float64    `json:"ns_per_op"`
	Stats     heap.Stats `json:"stats"`
}

func parseKind(s string) (heap.Kind, error) {
	for k := heap.Ordinary; k.Valid(); k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown kind %q (want ordinary, atomic or uncollectable)", s)
}

func runBench() error {
	if benchCount <= 0 {
		return fmt.Errorf("--count must be positive, got %d", benchCount)
	}
	kind, err := parseKind(benchKind)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.OOMPolicy = heap.OOMReturnNull

	ctx, err := vmheap.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to start heap: %w", err)
	}

	alloc := ctx.GCMalloc
	switch kind {
	case heap.Atomic:
		alloc = ctx.GCMallocAtomic
	case heap.Uncollectable:
		alloc = ctx.GCMallocUncollectable
	}
	collect := benchCollect > 0 && cfg.Backend == heap.BackendManaged

	printVerbose("Allocating %d x %d bytes (%s) on %s\n", benchCount, benchSize, kind, cfg.Backend)

	failed := 0
	start := time.Now()
	for i := 1; i <= benchCount; i++ {
		if alloc(benchSize) == heap.Null {
			failed++
		}
		if collect && i%benchCollect == 0 {
			ctx.ForceCollection()
		}
	}
	elapsed := time.Since(start)

	res := BenchResult{
		Count:     benchCount,
		Size:      benchSize,
		Kind:      kind.String(),
		Failed:    failed,
		ElapsedNs: elapsed.Nanoseconds(),
		NsPerOp:   float64(elapsed.Nanoseconds()) / float64(benchCount),
		Stats:     ctx.Stats(),
	}

	if jsonOut {
		return printJSON(res)
	}

	printInfo("\nBenchmark: %d x %d bytes (%s)\n", res.Count, res.Size, res.Kind)
	printInfo("  Elapsed:        %s (%.1f ns/op)\n", elapsed, res.NsPerOp)
	printInfo("  Failed:         %d\n", res.Failed)
	printStats(res.Stats)
	return nil
}
