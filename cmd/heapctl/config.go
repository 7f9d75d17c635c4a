package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newConfigCmd())
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective heap configuration",
		Long: `The config command resolves the heap configuration the same way every
other command does (config file, then VMHEAP_* environment variables, then
flags), applies defaults and prints the result as YAML.

Example:
  heapctl config
  heapctl config --backend arena --max-heap 16777216
  VMHEAP_INCREMENTAL=true heapctl config --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig()
		},
	}
}

func runConfig() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(cfg)
	}
	out, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	_, err = os.Stdout.Write(out)
	return err
}
