package benchmark

import "time"

// Result summarizes a finished run.
type Result struct {
	RunID        string        `json:"run_id"        yaml:"run_id"`
	Scenario     string        `json:"scenario"      yaml:"scenario"`
	Model        string        `json:"model"         yaml:"model"`
	Quantization string        `json:"quantization"  yaml:"quantization"`
	Started      time.Time     `json:"started"       yaml:"started"`
	Duration     time.Duration `json:"duration"      yaml:"duration"`

	// Inferences counts every Invoke attempt, warm-up included.
	Inferences int64 `json:"inferences" yaml:"inferences"`
	// Samples counts attempts whose latency reached the controller.
	Samples int64 `json:"samples" yaml:"samples"`
	// Failures counts attempts that were not recorded.
	Failures int64 `json:"failures" yaml:"failures"`

	Reports   int64 `json:"reports"   yaml:"reports"`
	Summaries int64 `json:"summaries" yaml:"summaries"`

	Phase        string   `json:"phase"          yaml:"phase"`
	Lifetime     Lifetime `json:"lifetime"       yaml:"lifetime"`
	WindowLen    int      `json:"window_len"     yaml:"window_len"`
	WindowStdDev float64  `json:"window_stddev"  yaml:"window_stddev"`
}

// InferencesPerSecond returns the attempt rate over the run duration.
func (r *Result) InferencesPerSecond() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Inferences) / r.Duration.Seconds()
}

// ErrorRate returns the share of attempts that failed.
func (r *Result) ErrorRate() float64 {
	if r.Inferences == 0 {
		return 0
	}
	return float64(r.Failures) / float64(r.Inferences)
}
