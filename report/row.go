// Package report - Benchmark report records and the sinks that publish them.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	// HeaderTag prefixes the single header line of a CSV stream.
	HeaderTag = "CSV_HEADER"
	// DataTag prefixes every periodic status line.
	DataTag = "CSV_DATA"
)

// Fields lists the CSV columns in emission order.
var Fields = []string{
	"iteration",
	"model_name",
	"quantization",
	"latency_us",
	"min_us",
	"max_us",
	"avg_us",
	"stddev_us",
	"arena_bytes",
	"free_heap",
}

// ErrMalformedRow is returned by ParseRow for lines that are not CSV_DATA
// records with exactly one value per field.
var ErrMalformedRow = errors.New("malformed CSV_DATA line")

// Row is one periodic status report.
type Row struct {
	Iteration    int64   `json:"iteration"`
	Model        string  `json:"model_name"`
	Quantization string  `json:"quantization"`
	LatencyUS    int64   `json:"latency_us"`
	MinUS        int64   `json:"min_us"`
	MaxUS        int64   `json:"max_us"`
	AvgUS        int64   `json:"avg_us"`
	StdDevUS     float64 `json:"stddev_us"`
	ArenaBytes   uint64  `json:"arena_bytes"`
	FreeHeap     uint64  `json:"free_heap"`
}

// Summary is the full-window report emitted every SummaryEvery samples.
type Summary struct {
	Model        string  `json:"model_name"`
	Quantization string  `json:"quantization"`
	Count        int64   `json:"count"`
	AvgUS        int64   `json:"avg_us"`
	MinUS        int64   `json:"min_us"`
	MaxUS        int64   `json:"max_us"`
	StdDevUS     float64 `json:"stddev_us"`
	WindowLen    int     `json:"window_len"`
	ArenaBytes   uint64  `json:"arena_bytes"`
	FreeHeap     uint64  `json:"free_heap"`
	MinFreeHeap  uint64  `json:"min_free_heap"`
}

// FormatHeader returns the header line without a trailing newline.
func FormatHeader() string {
	return HeaderTag + "," + strings.Join(Fields, ",")
}

// FormatRow renders r as a CSV_DATA line without a trailing newline. The
// average is an integer and the standard deviation carries two decimals.
func FormatRow(r Row) string {
	return fmt.Sprintf("%s,%d,%s,%s,%d,%d,%d,%d,%.2f,%d,%d",
		DataTag,
		r.Iteration,
		r.Model,
		r.Quantization,
		r.LatencyUS,
		r.MinUS,
		r.MaxUS,
		r.AvgUS,
		r.StdDevUS,
		r.ArenaBytes,
		r.FreeHeap,
	)
}

// ParseRow parses a CSV_DATA line produced by FormatRow.
//
// Arguments:
//   - line: The line, with or without a trailing newline.
//
// Returns:
//   - Row: The decoded row.
//   - error: ErrMalformedRow wrapped with the offending detail.
func ParseRow(line string) (Row, error) {
	parts := strings.Split(strings.TrimRight(line, "\r\n"), ",")
	if len(parts) == 0 || parts[0] != DataTag {
		return Row{}, errors.Wrap(ErrMalformedRow, "missing "+DataTag+" tag")
	}
	values := parts[1:]
	if len(values) != len(Fields) {
		return Row{}, errors.Wrapf(ErrMalformedRow, "want %d fields, got %d", len(Fields), len(values))
	}

	p := fieldParser{values: values}
	r := Row{
		Iteration:    p.int(0),
		Model:        values[1],
		Quantization: values[2],
		LatencyUS:    p.int(3),
		MinUS:        p.int(4),
		MaxUS:        p.int(5),
		AvgUS:        p.int(6),
		StdDevUS:     p.float(7),
		ArenaBytes:   p.uint(8),
		FreeHeap:     p.uint(9),
	}
	if p.err != nil {
		return Row{}, p.err
	}
	return r, nil
}

// fieldParser keeps the first conversion error.
type fieldParser struct {
	values []string
	err    error
}

func (p *fieldParser) fail(i int, err error) {
	if p.err == nil {
		p.err = errors.Wrapf(ErrMalformedRow, "%s: %v", Fields[i], err)
	}
}

func (p *fieldParser) int(i int) int64 {
	v, err := strconv.ParseInt(p.values[i], 10, 64)
	if err != nil {
		p.fail(i, err)
	}
	return v
}

func (p *fieldParser) uint(i int) uint64 {
	v, err := strconv.ParseUint(p.values[i], 10, 64)
	if err != nil {
		p.fail(i, err)
	}
	return v
}

func (p *fieldParser) float(i int) float64 {
	v, err := strconv.ParseFloat(p.values[i], 64)
	if err != nil {
		p.fail(i, err)
	}
	return v
}
