package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nvr-ai/go-mlbench/benchmark"
	"github.com/nvr-ai/go-mlbench/benchmark/engines"
	"github.com/nvr-ai/go-mlbench/inference"
	"github.com/nvr-ai/go-mlbench/inference/providers"
	"github.com/nvr-ai/go-mlbench/logging"
	"github.com/nvr-ai/go-mlbench/models"
	"github.com/nvr-ai/go-mlbench/pacing"
	"github.com/nvr-ai/go-mlbench/profiler"
	"github.com/nvr-ai/go-mlbench/report"
)

// RunFlags are converted to a benchmark.Config on top of the defaults or a
// config file. Only flags the user set override the file.
type RunFlags struct {
	ConfigPath string
	OutputDir  string

	Model           string
	Engine          string
	ModelDir        string
	ONNXLibraryPath string
	Provider        string
	Threads         int
	Workload        int

	Iterations   int
	Warmup       int
	ReportEvery  int
	SummaryEvery int
	WindowSize   int
	Delay        time.Duration
	Pacing       string

	MetricsAddr string
	LogLevel    string
	JSONLogs    bool
}

// NewRunFlags returns flags seeded with DefaultConfig so help text shows the
// real defaults.
func NewRunFlags() *RunFlags {
	d := benchmark.DefaultConfig()
	return &RunFlags{
		Model:        string(d.Model),
		Engine:       string(d.Engine),
		ModelDir:     d.ModelDir,
		Warmup:       d.WarmupInferences,
		ReportEvery:  d.ReportEvery,
		SummaryEvery: d.SummaryEvery,
		WindowSize:   d.WindowSize,
		Delay:        d.Delay,
		Pacing:       string(d.Pacing),
		LogLevel:     d.Log.Level,
	}
}

// AddFlags registers flags for a cli
func (flags *RunFlags) AddFlags(cmd *cobra.Command) {
	f := cmd.Flags()

	f.StringVarP(&flags.ConfigPath, "config", "c", flags.ConfigPath,
		"YAML or JSON config file. Flags given explicitly override it.")
	f.StringVarP(&flags.OutputDir, "output", "o", flags.OutputDir,
		"Directory to write results.json into. Empty skips saving.")

	// Model selection
	f.StringVarP(&flags.Model, "model", "m", flags.Model,
		"Catalog model to benchmark (see \"benchmark models\").")
	f.StringVarP(&flags.Engine, "engine", "e", flags.Engine,
		"Inference engine: synthetic, onnx or graph.")
	f.StringVar(&flags.ModelDir, "model-dir", flags.ModelDir,
		"Directory holding <model>.onnx files for the onnx engine.")
	f.StringVar(&flags.ONNXLibraryPath, "onnx-lib", flags.ONNXLibraryPath,
		"Path to the onnxruntime shared library.")
	f.StringVar(&flags.Provider, "provider", flags.Provider,
		"onnxruntime execution provider: cpu, cuda, coreml or openvino.")
	f.IntVar(&flags.Threads, "threads", flags.Threads,
		"onnxruntime intra-op threads. Zero keeps the runtime default.")
	f.IntVar(&flags.Workload, "workload", flags.Workload,
		"Busy loop length of the synthetic engine.")

	// Measurement
	f.IntVarP(&flags.Iterations, "iterations", "n", flags.Iterations,
		"Number of inferences to run. Zero runs until interrupted.")
	f.IntVar(&flags.Warmup, "warmup", flags.Warmup,
		"Inferences to discard before measuring.")
	f.IntVar(&flags.ReportEvery, "report-every", flags.ReportEvery,
		"Emit a status row every N measured samples.")
	f.IntVar(&flags.SummaryEvery, "summary-every", flags.SummaryEvery,
		"Emit a summary every N measured samples.")
	f.IntVar(&flags.WindowSize, "window", flags.WindowSize,
		"Samples in the standard deviation window.")
	f.DurationVar(&flags.Delay, "delay", flags.Delay,
		"Pause between inferences (e.g. 100ms, 0).")
	f.StringVar(&flags.Pacing, "pacing", flags.Pacing,
		"Pacing mode: delay sleeps after each sample, rate keeps a fixed cadence.")

	// Output
	f.StringVar(&flags.MetricsAddr, "metrics-addr", flags.MetricsAddr,
		"Serve Prometheus metrics on this address (e.g. :9090).")
	f.StringVar(&flags.LogLevel, "log-level", flags.LogLevel,
		"Log level: debug, info, warn or error.")
	f.BoolVar(&flags.JSONLogs, "log-json", flags.JSONLogs,
		"If true, write logs as JSON.")
}

// ToConfig loads the config file, if any, and applies the flags the user
// changed.
func (flags *RunFlags) ToConfig(cmd *cobra.Command) (*benchmark.Config, error) {
	cfg := benchmark.DefaultConfig()
	if flags.ConfigPath != "" {
		loaded, err := benchmark.LoadConfig(flags.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if changed("model") {
		cfg.Model = models.Kind(flags.Model)
	}
	if changed("engine") {
		cfg.Engine = inference.EngineType(flags.Engine)
	}
	if changed("model-dir") {
		cfg.ModelDir = flags.ModelDir
	}
	if changed("onnx-lib") {
		cfg.ONNXLibraryPath = flags.ONNXLibraryPath
	}
	if changed("provider") {
		p, err := providers.ParseProvider(flags.Provider)
		if err != nil {
			return nil, errors.Wrap(benchmark.ErrInvalidConfig, err.Error())
		}
		cfg.Provider.Provider = p
	}
	if changed("threads") {
		cfg.Provider.IntraOpThreads = flags.Threads
	}
	if changed("workload") {
		cfg.Workload = flags.Workload
	}
	if changed("iterations") {
		cfg.Iterations = flags.Iterations
	}
	if changed("warmup") {
		cfg.WarmupInferences = flags.Warmup
	}
	if changed("report-every") {
		cfg.ReportEvery = flags.ReportEvery
	}
	if changed("summary-every") {
		cfg.SummaryEvery = flags.SummaryEvery
	}
	if changed("window") {
		cfg.WindowSize = flags.WindowSize
	}
	if changed("delay") {
		cfg.Delay = flags.Delay
	}
	if changed("pacing") {
		cfg.Pacing = pacing.Mode(flags.Pacing)
	}
	if changed("metrics-addr") {
		cfg.MetricsAddr = flags.MetricsAddr
	}
	if changed("log-level") {
		cfg.Log.Level = flags.LogLevel
	}
	if changed("log-json") {
		cfg.Log.JSON = flags.JSONLogs
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToOptions resolves the flags into a single-scenario run.
func (flags *RunFlags) ToOptions(cmd *cobra.Command, out io.Writer) (*RunOptions, error) {
	cfg, err := flags.ToConfig(cmd)
	if err != nil {
		return nil, err
	}
	return &RunOptions{
		Config:    cfg,
		Scenarios: []benchmark.Config{*cfg},
		OutputDir: flags.OutputDir,
		Out:       out,
		Engines:   engines.New,
	}, nil
}

func newCmdRun(out io.Writer) *cobra.Command {
	flags := NewRunFlags()
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Benchmark a single model (the default command).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := flags.ToOptions(cmd, out)
			if err != nil {
				return err
			}
			return o.Run(cmd.Context())
		},
	}
	flags.AddFlags(cmd)
	return cmd
}

// RunOptions is a resolved invocation: the run-wide config (logging,
// metrics, influx) and the scenarios to execute with it.
type RunOptions struct {
	Config    *benchmark.Config
	Scenarios []benchmark.Config
	OutputDir string
	Out       io.Writer
	Engines   benchmark.EngineFactory
}

// Run executes the scenarios until they finish or SIGINT/SIGTERM arrives.
func (o *RunOptions) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logCfg := o.Config.Log
	if logCfg.Output == nil {
		logCfg.Output = os.Stderr
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return err
	}

	runID := uuid.NewString()

	if err := profiler.WriteSystemInfo(o.Out, profiler.NewRuntimeProbe(nil)); err != nil {
		return err
	}

	sinks := []report.Sink{report.NewCSVSink(o.Out)}

	if o.Config.MetricsAddr != "" {
		prom := report.NewPrometheusSink(nil)
		sinks = append(sinks, prom)
		shutdown := serveMetrics(o.Config.MetricsAddr, prom.Handler(), logger)
		defer shutdown()
	}

	if o.Config.Influx != nil {
		influx := report.NewInfluxSink(*o.Config.Influx, runID)
		sinks = append(sinks, influx)
		defer func() {
			if err := influx.Close(); err != nil {
				logger.Warn("influx close failed", "error", err)
			}
		}()
	}

	defer func() {
		if err := engines.CleanupEnvironment(); err != nil {
			logger.Warn("onnxruntime cleanup failed", "error", err)
		}
	}()

	suite := benchmark.NewSuite(benchmark.NewSuiteArgs{
		Engines:    o.Engines,
		Sink:       report.Multi(sinks...),
		Logger:     logger,
		RunID:      runID,
		OutputPath: o.OutputDir,
	})
	for _, sc := range o.Scenarios {
		suite.AddScenario(sc)
	}

	start := time.Now()
	results, runErr := suite.RunAll(ctx)
	logger.Info("suite finished",
		"run_id", runID,
		"scenarios", len(results),
		"duration", time.Since(start).Round(time.Millisecond))

	for _, r := range results {
		logger.Info("scenario result",
			"scenario", r.Scenario,
			"samples", r.Samples,
			"failures", r.Failures,
			"inferences_per_second", fmt.Sprintf("%.2f", r.InferencesPerSecond()),
			"avg_us", fmt.Sprintf("%.2f", r.Lifetime.Mean),
			"stddev_us", fmt.Sprintf("%.2f", r.WindowStdDev))
	}

	if o.OutputDir != "" {
		path, err := suite.SaveResults("results.json")
		if err != nil {
			return err
		}
		logger.Info("results saved", "path", path)
	}
	return runErr
}

// serveMetrics starts a /metrics listener and returns a function that shuts
// it down.
func serveMetrics(addr string, handler http.Handler, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
