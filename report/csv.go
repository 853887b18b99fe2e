package report

import (
	"bufio"
	"fmt"
	"io"
)

// CSVSink writes the line-oriented text report. Status rows are CSV_DATA
// lines; summaries are untagged blocks that CSV tooling skips.
type CSVSink struct {
	w      *bufio.Writer
	header bool
}

// NewCSVSink creates a sink writing to w. Every record is flushed as soon as
// it is written so that a serial console or pipe sees complete lines.
func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: bufio.NewWriter(w)}
}

// Header writes the CSV_HEADER line. A stream carries one header however
// many runs share the sink.
func (s *CSVSink) Header() error {
	if s.header {
		return nil
	}
	s.header = true
	fmt.Fprintln(s.w, FormatHeader())
	return s.w.Flush()
}

// Status writes one CSV_DATA line.
func (s *CSVSink) Status(r Row) error {
	fmt.Fprintln(s.w, FormatRow(r))
	return s.w.Flush()
}

// Summary writes the BENCHMARK block.
func (s *CSVSink) Summary(sum Summary) error {
	fmt.Fprintf(s.w, "BENCHMARK: %s (%s)\n", sum.Model, sum.Quantization)
	fmt.Fprintf(s.w, "  Samples: %d\n", sum.Count)
	fmt.Fprintf(s.w, "  Average latency: %d us\n", sum.AvgUS)
	fmt.Fprintf(s.w, "  Min latency: %d us\n", sum.MinUS)
	fmt.Fprintf(s.w, "  Max latency: %d us\n", sum.MaxUS)
	fmt.Fprintf(s.w, "  Std deviation: %.2f us over %d samples\n", sum.StdDevUS, sum.WindowLen)
	fmt.Fprintf(s.w, "  Memory usage: %d bytes\n", sum.ArenaBytes)
	fmt.Fprintf(s.w, "  Free heap: %d bytes (min %d)\n", sum.FreeHeap, sum.MinFreeHeap)
	fmt.Fprintln(s.w, "  ---")
	return s.w.Flush()
}
