package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/vmheap/heap"
	"github.com/joshuapare/vmheap/internal/logger"
)

var (
	// Global flags
	verbose     bool
	quiet       bool
	jsonOut     bool
	configPath  string
	backendName string
	maxHeap     uint64
	logDir      string
)

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Exercise and inspect the VM heap backends",
	Long: `heapctl drives the VM heap outside of a VM. It prints the effective
configuration, runs allocation benchmarks against any backend, and simulates
object graphs with finalizers and disappearing links on the managed backend.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogging()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML heap config file")
	rootCmd.PersistentFlags().StringVarP(&backendName, "backend", "b", "", "Backend: managed, bump or arena")
	rootCmd.PersistentFlags().Uint64Var(&maxHeap, "max-heap", 0, "Maximum heap size in bytes")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Write debug logs to dated files in this directory")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initLogging() error {
	if !verbose && logDir == "" {
		return logger.Init(logger.Options{})
	}
	opts := logger.Options{
		Enabled: true,
		LogDir:  logDir,
		Level:   slog.LevelDebug,
	}
	if logDir == "" {
		opts.Output = os.Stderr
	}
	return logger.Init(opts)
}

// loadConfig resolves the heap config: file (or defaults), then VMHEAP_*
// environment overrides, then command-line flags.
func loadConfig() (heap.Config, error) {
	var cfg heap.Config
	if configPath != "" {
		loaded, err := heap.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	} else if err := heap.ApplyEnv(&cfg); err != nil {
		return cfg, err
	}

	if backendName != "" {
		b, err := heap.ParseBackend(backendName)
		if err != nil {
			return cfg, err
		}
		cfg.Backend = b
	}
	if maxHeap != 0 && maxHeap != cfg.MaxHeapBytes {
		old := cfg.MaxHeapBytes
		cfg.MaxHeapBytes = maxHeap
		// Derived fields still at their old defaults follow the new size.
		if cfg.RegionBytes == old {
			cfg.RegionBytes = 0
		}
		if cfg.GCTriggerBytes == old/4 {
			cfg.GCTriggerBytes = 0
		}
		if uint64(cfg.ChunkSizeBytes) > maxHeap {
			cfg.ChunkSizeBytes = 0
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// printStats prints backend statistics as aligned key/value lines.
func printStats(st heap.Stats) {
	printInfo("  Backend:        %s\n", st.Backend)
	printInfo("  Max heap:       %d bytes\n", st.MaxHeapBytes)
	printInfo("  Reserved:       %d bytes\n", st.ReservedBytes)
	printInfo("  Used:           %d bytes\n", st.UsedBytes)
	printInfo("  Free:           %d bytes\n", st.FreeBytes())
	printInfo("  Allocations:    %d\n", st.Allocations)
	if st.Backend == heap.BackendManaged {
		printInfo("  Live objects:   %d\n", st.LiveObjects)
		printInfo("  Collections:    %d (%d increments)\n", st.Collections, st.Increments)
		printInfo("  Finalizers run: %d (%d pending, %d registered)\n",
			st.FinalizersRun, st.PendingFinalizers, st.Finalizers)
		printInfo("  Links cleared:  %d (%d registered)\n", st.LinksCleared, st.Links)
	} else {
		printInfo("  Chunks:         %d\n", st.Chunks)
	}
}
