package main

import (
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nvr-ai/go-mlbench/benchmark"
	"github.com/nvr-ai/go-mlbench/benchmark/engines"
)

// SuiteFlags select a scenario file and the run-wide settings applied around
// it.
type SuiteFlags struct {
	*RunFlags
	ScenariosPath string
}

func newCmdSuite(out io.Writer) *cobra.Command {
	flags := &SuiteFlags{RunFlags: NewRunFlags()}
	cmd := &cobra.Command{
		Use:   "suite",
		Short: "Run every scenario in a YAML or JSON scenario set.",
		Example: `
		# Save the predefined sets, then run one
		benchmark suite --scenarios quantization_scenarios.yaml -o ./results`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := flags.ToOptions(cmd, out)
			if err != nil {
				return err
			}
			return o.Run(cmd.Context())
		},
	}
	flags.AddFlags(cmd)
	cmd.Flags().StringVarP(&flags.ScenariosPath, "scenarios", "s", "",
		"Scenario set file written by SaveScenarioSet.")
	_ = cmd.MarkFlagRequired("scenarios")
	return cmd
}

// ToOptions loads the scenario set. The run-wide config still comes from
// --config and the logging and metrics flags.
func (flags *SuiteFlags) ToOptions(cmd *cobra.Command, out io.Writer) (*RunOptions, error) {
	cfg, err := flags.ToConfig(cmd)
	if err != nil {
		return nil, err
	}
	set, err := benchmark.LoadScenarioSet(flags.ScenariosPath)
	if err != nil {
		return nil, err
	}
	if len(set.Scenarios) == 0 {
		return nil, errors.Errorf("scenario set %q is empty", set.Name)
	}
	return &RunOptions{
		Config:    cfg,
		Scenarios: set.Scenarios,
		OutputDir: flags.OutputDir,
		Out:       out,
		Engines:   engines.New,
	}, nil
}
