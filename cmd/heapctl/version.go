package main

import (
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/joshuapare/vmheap/heap"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const heapModule = "github.com/joshuapare/vmheap"

// VersionInfo is the JSON shape of the version command.
type VersionInfo struct {
	Version        string `json:"version"`
	Commit         string `json:"commit"`
	Date           string `json:"date"`
	HeapModule     string `json:"heap_module"`
	GoVersion      string `json:"go_version"`
	DefaultBackend string `json:"default_backend"`
	DefaultMaxHeap uint64 `json:"default_max_heap"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVersion()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// heapModuleVersion reports the vmheap module version linked into the binary.
func heapModuleVersion(info *debug.BuildInfo) string {
	if info == nil {
		return "unknown"
	}
	if info.Main.Path == heapModule {
		return info.Main.Version
	}
	for _, dep := range info.Deps {
		if dep.Path != heapModule {
			continue
		}
		if dep.Replace != nil {
			return dep.Version + " => " + dep.Replace.Path
		}
		return dep.Version
	}
	return "unknown"
}

func runVersion() error {
	info, _ := debug.ReadBuildInfo()
	defaults := heap.DefaultConfig()
	v := VersionInfo{
		Version:        version,
		Commit:         commit,
		Date:           date,
		HeapModule:     heapModuleVersion(info),
		GoVersion:      runtime.Version(),
		DefaultBackend: defaults.Backend.String(),
		DefaultMaxHeap: defaults.MaxHeapBytes,
	}
	if jsonOut {
		return printJSON(v)
	}
	printInfo("heapctl %s\n", v.Version)
	printInfo("  commit:  %s\n", v.Commit)
	printInfo("  built:   %s\n", v.Date)
	printInfo("  vmheap:  %s\n", v.HeapModule)
	printInfo("  go:      %s\n", v.GoVersion)
	printInfo("  default: %s backend, %d byte heap\n", v.DefaultBackend, v.DefaultMaxHeap)
	return nil
}
