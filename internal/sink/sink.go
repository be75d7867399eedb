package sink

import (
	"context"
	"errors"

	"nmea-drift/internal/correlation"
)

// Session frames one processed log.
type Session struct {
	Source string
	Title  string
}

// Sink consumes the metrics of one session. Start is called once before the first
// Write and Stop once after the last.
type Sink interface {
	Start(ctx context.Context, session Session) error
	Write(ctx context.Context, metric correlation.Metric) error
	Stop(ctx context.Context) error
}

// Fanout delivers every call to all wrapped sinks. A failing sink does not keep
// the others from receiving the call.
type Fanout struct {
	sinks []Sink
}

// NewFanout wraps sinks.
func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

// Len reports the number of wrapped sinks.
func (f *Fanout) Len() int {
	return len(f.sinks)
}

func (f *Fanout) Start(ctx context.Context, session Session) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Start(ctx, session); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) Write(ctx context.Context, metric correlation.Metric) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Write(ctx, metric); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) Stop(ctx context.Context) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops everything.
type Discard struct{}

func (Discard) Start(context.Context, Session) error           { return nil }
func (Discard) Write(context.Context, correlation.Metric) error { return nil }
func (Discard) Stop(context.Context) error                      { return nil }

var (
	_ Sink = (*Fanout)(nil)
	_ Sink = Discard{}
)
