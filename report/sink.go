package report

import "errors"

// Sink receives the records produced by the benchmark controller.
type Sink interface {
	// Header is called once before the first status row.
	Header() error
	// Status publishes one periodic report.
	Status(r Row) error
	// Summary publishes one full-window report.
	Summary(s Summary) error
}

// Multi fans every record out to all sinks. Every sink is called even when
// an earlier one fails; the errors are combined.
func Multi(sinks ...Sink) Sink {
	return multiSink(sinks)
}

type multiSink []Sink

func (m multiSink) Header() error {
	errs := make([]error, 0, len(m))
	for _, s := range m {
		errs = append(errs, s.Header())
	}
	return errors.Join(errs...)
}

func (m multiSink) Status(r Row) error {
	errs := make([]error, 0, len(m))
	for _, s := range m {
		errs = append(errs, s.Status(r))
	}
	return errors.Join(errs...)
}

func (m multiSink) Summary(sum Summary) error {
	errs := make([]error, 0, len(m))
	for _, s := range m {
		errs = append(errs, s.Summary(sum))
	}
	return errors.Join(errs...)
}

// Discard is a sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Header() error         { return nil }
func (discard) Status(Row) error      { return nil }
func (discard) Summary(Summary) error { return nil }
