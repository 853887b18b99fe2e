package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	headers   int
	rows      []Row
	summaries []Summary
	err       error
}

func (s *recordingSink) Header() error { s.headers++; return s.err }
func (s *recordingSink) Status(r Row) error {
	s.rows = append(s.rows, r)
	return s.err
}
func (s *recordingSink) Summary(sum Summary) error {
	s.summaries = append(s.summaries, sum)
	return s.err
}

func TestCSVSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewCSVSink(&buf)

	require.NoError(t, s.Header())
	require.NoError(t, s.Header())
	require.NoError(t, s.Status(sampleRow()))
	require.NoError(t, s.Summary(Summary{
		Model:        "sine_float32",
		Quantization: "float32",
		Count:        100,
		AvgUS:        140,
		MinUS:        100,
		MaxUS:        200,
		StdDevUS:     40.5,
		WindowLen:    100,
		ArenaBytes:   2048,
		FreeHeap:     1000,
		MinFreeHeap:  900,
	}))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Equal(t, FormatHeader(), lines[0])
	assert.Equal(t, FormatRow(sampleRow()), lines[1])
	assert.Equal(t, "BENCHMARK: sine_float32 (float32)", lines[2])
	assert.Contains(t, buf.String(), "  Average latency: 140 us\n")
	assert.Contains(t, buf.String(), "  Memory usage: 2048 bytes\n")
	assert.Equal(t, "  ---", lines[len(lines)-1])

	var data int
	for _, l := range lines {
		if strings.HasPrefix(l, "CSV_") {
			data++
		}
	}
	assert.Equal(t, 2, data, "summary block must not carry CSV tags")
}

func TestMulti(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{err: errors.New("disk full")}
	c := &recordingSink{}
	m := Multi(a, b, c)

	assert.Error(t, m.Header())
	assert.Error(t, m.Status(sampleRow()))
	assert.Error(t, m.Summary(Summary{}))

	for _, s := range []*recordingSink{a, b, c} {
		assert.Equal(t, 1, s.headers)
		assert.Len(t, s.rows, 1)
		assert.Len(t, s.summaries, 1)
	}

	assert.NoError(t, Multi(a, c).Status(sampleRow()))
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard.Header())
	assert.NoError(t, Discard.Status(Row{}))
	assert.NoError(t, Discard.Summary(Summary{}))
}
