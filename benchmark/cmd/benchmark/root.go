package main

import (
	"io"

	"github.com/spf13/cobra"
)

var (
	rootLong = `
		Benchmark inference latency of the bundled model catalog.

		Each run warms the engine up, then times every inference and prints a
		CSV_DATA status row every report_every samples and a BENCHMARK summary
		every summary_every samples. Status rows carry the latency, the running
		min, max and average, and the standard deviation over a sliding window.`

	rootExample = `
		# Run the float sine model on the synthetic engine until interrupted
		benchmark

		# Run 1000 int8 CNN inferences through onnxruntime without pacing
		benchmark run --model cnn_int8 --engine onnx --model-dir ./models -n 1000 --delay 0

		# Start from a config file and expose Prometheus metrics
		benchmark run --config bench.yaml --metrics-addr :9090

		# Run a scenario set and save the results
		benchmark suite --scenarios quantization.yaml --output ./results`
)

// newRootCmd builds the command tree. Running the root command without a
// subcommand behaves like "run".
func newRootCmd(out io.Writer) *cobra.Command {
	flags := NewRunFlags()
	cmd := &cobra.Command{
		Use:           "benchmark",
		Short:         "Measure and report inference latency statistics.",
		Long:          rootLong,
		Example:       rootExample,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := flags.ToOptions(cmd, out)
			if err != nil {
				return err
			}
			return o.Run(cmd.Context())
		},
	}
	cmd.SetOut(out)
	flags.AddFlags(cmd)

	cmd.AddCommand(
		newCmdRun(out),
		newCmdSuite(out),
		newCmdModels(out),
		newCmdConfig(out),
	)
	return cmd
}
