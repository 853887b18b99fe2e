package report

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "mlbench"

var modelLabels = []string{"model", "quantization"}

// PrometheusSink mirrors every report into gauges so a scraper can follow a
// long-running benchmark.
type PrometheusSink struct {
	registry *prometheus.Registry

	Latency     *prometheus.GaugeVec
	Min         *prometheus.GaugeVec
	Max         *prometheus.GaugeVec
	Avg         *prometheus.GaugeVec
	StdDev      *prometheus.GaugeVec
	ArenaBytes  *prometheus.GaugeVec
	FreeHeap    *prometheus.GaugeVec
	MinFreeHeap *prometheus.GaugeVec
	Samples     *prometheus.GaugeVec
	Reports     *prometheus.CounterVec
	Summaries   *prometheus.CounterVec
}

// NewPrometheusSink registers the benchmark metrics on reg. A nil reg gets a
// fresh registry.
func NewPrometheusSink(reg *prometheus.Registry) *PrometheusSink {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	gauge := func(name, help string) *prometheus.GaugeVec {
		return f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      name,
			Help:      help,
		}, modelLabels)
	}
	counter := func(name, help string) *prometheus.CounterVec {
		return f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      name,
			Help:      help,
		}, modelLabels)
	}

	return &PrometheusSink{
		registry:    reg,
		Latency:     gauge("latency_microseconds", "Latency of the inference at the last status report"),
		Min:         gauge("latency_min_microseconds", "Minimum latency since warm-up"),
		Max:         gauge("latency_max_microseconds", "Maximum latency since warm-up"),
		Avg:         gauge("latency_avg_microseconds", "Average latency since warm-up"),
		StdDev:      gauge("latency_stddev_microseconds", "Standard deviation over the sample window"),
		ArenaBytes:  gauge("arena_bytes", "Bytes reserved by the engine for tensors"),
		FreeHeap:    gauge("free_heap_bytes", "Free heap at the last report"),
		MinFreeHeap: gauge("min_free_heap_bytes", "Lowest free heap observed"),
		Samples:     gauge("samples", "Samples recorded since warm-up"),
		Reports:     counter("status_reports_total", "Status reports emitted"),
		Summaries:   counter("summary_reports_total", "Summary reports emitted"),
	}
}

// Registry returns the registry the metrics live on.
func (s *PrometheusSink) Registry() *prometheus.Registry {
	return s.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (s *PrometheusSink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// Header is a no-op.
func (s *PrometheusSink) Header() error {
	return nil
}

// Status updates the per-model gauges.
func (s *PrometheusSink) Status(r Row) error {
	labels := prometheus.Labels{"model": r.Model, "quantization": r.Quantization}
	s.Latency.With(labels).Set(float64(r.LatencyUS))
	s.Min.With(labels).Set(float64(r.MinUS))
	s.Max.With(labels).Set(float64(r.MaxUS))
	s.Avg.With(labels).Set(float64(r.AvgUS))
	s.StdDev.With(labels).Set(r.StdDevUS)
	s.ArenaBytes.With(labels).Set(float64(r.ArenaBytes))
	s.FreeHeap.With(labels).Set(float64(r.FreeHeap))
	s.Samples.With(labels).Set(float64(r.Iteration))
	s.Reports.With(labels).Inc()
	return nil
}

// Summary records the window statistics and the heap low-water mark.
func (s *PrometheusSink) Summary(sum Summary) error {
	labels := prometheus.Labels{"model": sum.Model, "quantization": sum.Quantization}
	s.StdDev.With(labels).Set(sum.StdDevUS)
	s.MinFreeHeap.With(labels).Set(float64(sum.MinFreeHeap))
	s.Summaries.With(labels).Inc()
	return nil
}
