package report

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/pkg/errors"
)

const (
	// LatencyMeasurement holds one point per status row.
	LatencyMeasurement = "inference_latency"
	// SummaryMeasurement holds one point per summary.
	SummaryMeasurement = "inference_summary"
)

// InfluxConfig locates the InfluxDB bucket reports are written to.
type InfluxConfig struct {
	URL    string `json:"url" yaml:"url" validate:"required,url"`
	Token  string `json:"token" yaml:"token"`
	Org    string `json:"org" yaml:"org" validate:"required"`
	Bucket string `json:"bucket" yaml:"bucket" validate:"required"`
}

// InfluxSink writes reports as time-series points through a blocking write
// API, tagged with the run id so concurrent runs can be told apart.
type InfluxSink struct {
	client  influxdb2.Client
	writer  api.WriteAPIBlocking
	runID   string
	timeout time.Duration
	now     func() time.Time
}

// NewInfluxSink connects to the server in cfg.
func NewInfluxSink(cfg InfluxConfig, runID string) *InfluxSink {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	s := NewInfluxSinkWithWriter(client.WriteAPIBlocking(cfg.Org, cfg.Bucket), runID)
	s.client = client
	return s
}

// NewInfluxSinkWithWriter wraps an existing write API.
func NewInfluxSinkWithWriter(writer api.WriteAPIBlocking, runID string) *InfluxSink {
	return &InfluxSink{
		writer:  writer,
		runID:   runID,
		timeout: 5 * time.Second,
		now:     time.Now,
	}
}

// Header is a no-op.
func (s *InfluxSink) Header() error {
	return nil
}

// Status writes one latency point.
func (s *InfluxSink) Status(r Row) error {
	p := influxdb2.NewPoint(LatencyMeasurement,
		s.tags(r.Model, r.Quantization),
		map[string]interface{}{
			"iteration":   r.Iteration,
			"latency_us":  r.LatencyUS,
			"min_us":      r.MinUS,
			"max_us":      r.MaxUS,
			"avg_us":      r.AvgUS,
			"stddev_us":   r.StdDevUS,
			"arena_bytes": r.ArenaBytes,
			"free_heap":   r.FreeHeap,
		},
		s.now())

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return errors.Wrap(s.writer.WritePoint(ctx, p), "write latency point")
}

// Summary writes one summary point.
func (s *InfluxSink) Summary(sum Summary) error {
	p := influxdb2.NewPoint(SummaryMeasurement,
		s.tags(sum.Model, sum.Quantization),
		map[string]interface{}{
			"count":         sum.Count,
			"avg_us":        sum.AvgUS,
			"min_us":        sum.MinUS,
			"max_us":        sum.MaxUS,
			"stddev_us":     sum.StdDevUS,
			"window_len":    sum.WindowLen,
			"arena_bytes":   sum.ArenaBytes,
			"free_heap":     sum.FreeHeap,
			"min_free_heap": sum.MinFreeHeap,
		},
		s.now())

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return errors.Wrap(s.writer.WritePoint(ctx, p), "write summary point")
}

// Close flushes pending writes and releases the client if the sink owns it.
func (s *InfluxSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	err := s.writer.Flush(ctx)
	if s.client != nil {
		s.client.Close()
	}
	return errors.Wrap(err, "flush influx writer")
}

func (s *InfluxSink) tags(model, quantization string) map[string]string {
	return map[string]string{
		"model":        model,
		"quantization": quantization,
		"run_id":       s.runID,
	}
}
