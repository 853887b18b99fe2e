package benchmark

import (
	"log/slog"

	"github.com/nvr-ai/go-mlbench/logging"
	"github.com/nvr-ai/go-mlbench/models"
	"github.com/nvr-ai/go-mlbench/profiler"
	"github.com/nvr-ai/go-mlbench/report"
)

const (
	// DefaultWarmupInferences is the number of samples discarded before
	// measurement starts.
	DefaultWarmupInferences = 10
	// DefaultReportEvery is the status row cadence.
	DefaultReportEvery = 10
	// DefaultSummaryEvery is the summary cadence.
	DefaultSummaryEvery = 100
)

// Phase is the controller state.
type Phase int

const (
	// PhaseWarmingUp records samples but emits nothing.
	PhaseWarmingUp Phase = iota
	// PhaseMeasuring emits status rows and summaries. It is terminal.
	PhaseMeasuring
)

func (p Phase) String() string {
	switch p {
	case PhaseWarmingUp:
		return "warming_up"
	case PhaseMeasuring:
		return "measuring"
	default:
		return "unknown"
	}
}

// ControllerArgs configures a Controller.
type ControllerArgs struct {
	// Model labels every report.
	Model models.Spec
	// Sink receives the header, status rows and summaries. Nil discards.
	Sink report.Sink
	// Memory supplies heap and arena figures. Nil reports zeros.
	Memory profiler.MemoryProbe
	// Logger receives one structured line per status row. Nil uses the
	// default logger.
	Logger *slog.Logger
	// WarmupInferences is the sample count at which the aggregates are reset
	// and measuring begins. Zero or less starts directly in PhaseMeasuring.
	WarmupInferences int
	// ReportEvery defaults to DefaultReportEvery when not positive.
	ReportEvery int
	// SummaryEvery defaults to DefaultSummaryEvery when not positive.
	SummaryEvery int
	// WindowSize defaults to DefaultWindowSize when not positive.
	WindowSize int
}

// Controller drives the warm-up transition and the reporting cadence over a
// Tracker. It owns the tracker and is meant to be fed from a single loop.
type Controller struct {
	model   models.Spec
	sink    report.Sink
	memory  profiler.MemoryProbe
	logger  *slog.Logger
	tracker *Tracker

	phase        Phase
	warmup       int64
	reportEvery  int64
	summaryEvery int64

	started    bool
	reports    int64
	summaries  int64
	sinkErrors int64
}

// NewController creates a controller in PhaseWarmingUp, or PhaseMeasuring
// when no warm-up is configured.
func NewController(args ControllerArgs) *Controller {
	c := &Controller{
		model:        args.Model,
		sink:         args.Sink,
		memory:       args.Memory,
		logger:       logging.OrDefault(args.Logger),
		tracker:      NewTracker(args.WindowSize),
		warmup:       int64(args.WarmupInferences),
		reportEvery:  int64(args.ReportEvery),
		summaryEvery: int64(args.SummaryEvery),
	}
	if c.sink == nil {
		c.sink = report.Discard
	}
	if c.memory == nil {
		c.memory = noMemory{}
	}
	if c.reportEvery <= 0 {
		c.reportEvery = DefaultReportEvery
	}
	if c.summaryEvery <= 0 {
		c.summaryEvery = DefaultSummaryEvery
	}
	if c.warmup <= 0 {
		c.phase = PhaseMeasuring
	}
	return c
}

// Start emits the header line. Later calls do nothing.
func (c *Controller) Start() {
	if c.started {
		return
	}
	c.started = true
	c.sinkResult("header", c.sink.Header())
}

// RecordSample feeds one successful inference latency. It may reset the
// aggregates once at the end of warm-up, and may emit a status row, a
// summary, or both. Only a negative latency is returned as an error; sink
// failures are logged and the loop keeps going.
func (c *Controller) RecordSample(us int64) error {
	c.Start()

	if err := c.tracker.RecordSample(us); err != nil {
		return err
	}

	if c.phase == PhaseWarmingUp {
		if c.tracker.Count() == c.warmup {
			c.tracker.Reset()
			c.phase = PhaseMeasuring
			c.logger.Info("warm-up complete",
				"model", c.model.Name,
				"warmup_inferences", c.warmup)
		}
		return nil
	}

	n := c.tracker.Count()
	if n%c.reportEvery == 0 {
		c.emitStatus(us)
	}
	if n%c.summaryEvery == 0 {
		c.emitSummary()
	}
	return nil
}

func (c *Controller) emitStatus(us int64) {
	row := report.Row{
		Iteration:    c.tracker.Count(),
		Model:        c.model.Name,
		Quantization: string(c.model.Quantization),
		LatencyUS:    us,
		MinUS:        c.tracker.Min(),
		MaxUS:        c.tracker.Max(),
		AvgUS:        c.tracker.AverageMicros(),
		StdDevUS:     c.tracker.StdDev(),
		ArenaBytes:   c.memory.ArenaUsedBytes(),
		FreeHeap:     c.memory.FreeHeapBytes(),
	}
	c.reports++
	c.sinkResult("status", c.sink.Status(row))

	c.logger.Info("inference status",
		"model", row.Model,
		"count", row.Iteration,
		"latency_us", row.LatencyUS,
		"avg_us", row.AvgUS,
		"min_us", row.MinUS,
		"max_us", row.MaxUS,
		"stddev_us", row.StdDevUS)
}

func (c *Controller) emitSummary() {
	sum := report.Summary{
		Model:        c.model.Name,
		Quantization: string(c.model.Quantization),
		Count:        c.tracker.Count(),
		AvgUS:        c.tracker.AverageMicros(),
		MinUS:        c.tracker.Min(),
		MaxUS:        c.tracker.Max(),
		StdDevUS:     c.tracker.StdDev(),
		WindowLen:    c.tracker.Window().Len(),
		ArenaBytes:   c.memory.ArenaUsedBytes(),
		FreeHeap:     c.memory.FreeHeapBytes(),
		MinFreeHeap:  c.memory.MinimumFreeHeapEverBytes(),
	}
	c.summaries++
	c.sinkResult("summary", c.sink.Summary(sum))
}

func (c *Controller) sinkResult(record string, err error) {
	if err == nil {
		return
	}
	c.sinkErrors++
	c.logger.Warn("report sink failed", "record", record, "error", err)
}

// Phase returns the current state.
func (c *Controller) Phase() Phase { return c.phase }

// Tracker exposes the statistics.
func (c *Controller) Tracker() *Tracker { return c.tracker }

// Model returns the model the reports are labelled with.
func (c *Controller) Model() models.Spec { return c.model }

// Reports returns the number of status rows emitted.
func (c *Controller) Reports() int64 { return c.reports }

// Summaries returns the number of summaries emitted.
func (c *Controller) Summaries() int64 { return c.summaries }

// SinkErrors returns the number of records the sink failed to publish.
func (c *Controller) SinkErrors() int64 { return c.sinkErrors }

type noMemory struct{}

func (noMemory) FreeHeapBytes() uint64            { return 0 }
func (noMemory) MinimumFreeHeapEverBytes() uint64 { return 0 }
func (noMemory) ArenaUsedBytes() uint64           { return 0 }
