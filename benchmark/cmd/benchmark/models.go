package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nvr-ai/go-mlbench/models"
	"github.com/nvr-ai/go-mlbench/profiler"
)

func newCmdModels(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the benchmarkable models.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeModels(out)
		},
	}
}

func writeModels(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tQUANT\tINPUT\tOUTPUT\tTENSORS\tOPS")
	for _, kind := range models.Kinds() {
		spec, err := models.Lookup(kind)
		if err != nil {
			return err
		}
		tensorBytes := uint64((spec.InputSize() + spec.OutputSize()) * spec.Quantization.ElementBytes())
		fmt.Fprintf(tw, "%s\t%s\t%v\t%v\t%s\t%s\n",
			spec.Name,
			spec.Quantization,
			spec.InputShape,
			spec.OutputShape,
			profiler.FormatBytes(tensorBytes),
			strings.Join(spec.Ops, ","))
	}
	return tw.Flush()
}
