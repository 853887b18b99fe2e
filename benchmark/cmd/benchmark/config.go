package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/spf13/cobra"

	"github.com/nvr-ai/go-mlbench/benchmark"
)

func newCmdConfig(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage benchmark configuration files.",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write the default configuration to a YAML or JSON file.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "benchmark.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := writeDefaultConfig(path, force); err != nil {
				return err
			}
			fmt.Fprintf(out, "Wrote default configuration to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file.")

	cmd.AddCommand(initCmd)
	return cmd
}

// writeDefaultConfig saves DefaultConfig to path, refusing to replace an
// existing file unless force is set.
func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.Errorf("%s already exists, use --force to overwrite", path)
	}
	return benchmark.DefaultConfig().SaveConfig(path)
}
