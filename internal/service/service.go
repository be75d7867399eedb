package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"nmea-drift/internal/correlation"
	"nmea-drift/internal/logline"
	"nmea-drift/internal/sentence"
	"nmea-drift/internal/sink"
)

const defaultMaxLineBytes = 64 * 1024

// Options configure a Service.
type Options struct {
	Correlation correlation.Options
	// MaxLineBytes is the longest line the scanner accepts.
	MaxLineBytes int
	// Title is handed to the sinks with every session.
	Title string
}

// Stats summarise one processed stream.
type Stats struct {
	Source    string
	Lines     int
	Sentences int
	Sessions  int
	// Skipped counts lines that could not be tokenized, checksum failures included.
	Skipped        int
	ChecksumErrors int
	Unsupported    int
	FieldIssues    int
	Emitted        int
	Discarded      int
	NonMonotonic   int
	SinkErrors     int
}

// FailurePct is the share of skipped lines, in percent.
func (s Stats) FailurePct() decimal.Decimal {
	if s.Lines == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(s.Skipped)).
		Div(decimal.NewFromInt(int64(s.Lines))).
		Mul(decimal.NewFromInt(100))
}

// Service turns a recorded NMEA log into correlation metrics delivered to a sink.
type Service struct {
	opts   Options
	sink   sink.Sink
	logger zerolog.Logger
}

// New constructs the stream driver.
func New(opts Options, out sink.Sink, logger zerolog.Logger) *Service {
	if opts.MaxLineBytes <= 0 {
		opts.MaxLineBytes = defaultMaxLineBytes
	}
	if opts.Title == "" {
		opts.Title = "delta heading"
	}
	if out == nil {
		out = sink.Discard{}
	}
	return &Service{
		opts:   opts,
		sink:   out,
		logger: logger.With().Str("component", "service").Logger(),
	}
}

// Process reads r line by line until EOF. Malformed input is counted and logged,
// never returned; only cancellation, read failures and sink start/stop failures are.
// A slot still open at EOF is dropped.
func (s *Service) Process(ctx context.Context, r io.Reader, source string) (Stats, error) {
	logger := s.logger.With().Str("source", source).Logger()
	run := &run{
		sink:     s.sink,
		logger:   logger,
		window:   correlation.New(s.opts.Correlation, logger),
		timeline: newTimeline(),
		stats:    Stats{Source: source},
	}

	if err := s.sink.Start(ctx, sink.Session{Source: source, Title: s.opts.Title}); err != nil {
		return run.stats, fmt.Errorf("start sink: %w", err)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(4096, s.opts.MaxLineBytes)), s.opts.MaxLineBytes)

	var procErr error
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			procErr = err
			break
		}
		run.handle(ctx, scanner.Text())
	}
	if procErr == nil {
		if err := scanner.Err(); err != nil {
			procErr = fmt.Errorf("read %s at line %d: %w", source, run.stats.Lines+1, err)
		}
	}

	counters := run.window.Counters()
	run.stats.Emitted = counters.Emitted
	run.stats.Discarded = counters.Discarded
	run.stats.NonMonotonic = counters.Rejected

	// Stop with a fresh context so the sinks can flush after a cancellation.
	if err := s.sink.Stop(context.WithoutCancel(ctx)); err != nil {
		procErr = errors.Join(procErr, fmt.Errorf("stop sink: %w", err))
	}

	st := run.stats
	logger.Info().
		Int("lines", st.Lines).
		Int("sentences", st.Sentences).
		Int("sessions", st.Sessions).
		Int("skipped", st.Skipped).
		Int("unsupported", st.Unsupported).
		Int("field_issues", st.FieldIssues).
		Int("emitted", st.Emitted).
		Int("discarded", st.Discarded).
		Int("non_monotonic", st.NonMonotonic).
		Str("failure_pct", st.FailurePct().StringFixed(2)).
		Msg("log processed")

	return st, procErr
}

// run holds the state of one Process call.
type run struct {
	sink     sink.Sink
	logger   zerolog.Logger
	window   *correlation.Window
	timeline *timeline
	stats    Stats
}

func (r *run) handle(ctx context.Context, raw string) {
	r.stats.Lines++

	line, err := logline.Parse(raw)
	if err != nil {
		r.stats.Skipped++
		if errors.Is(err, logline.ErrChecksum) {
			r.stats.ChecksumErrors++
		}
		r.logger.Debug().Err(err).Int("line", r.stats.Lines).Msg("line skipped")
		return
	}

	switch line.Kind {
	case logline.KindSession:
		r.stats.Sessions++
		r.window.Reset()
		r.timeline.begin(line.Session)
		r.logger.Info().Time("session", line.Session).Int("line", r.stats.Lines).Msg("recording session started")
	case logline.KindSentence:
		r.stats.Sentences++
		at := r.timeline.resolve(line.Clock)
		r.correlate(ctx, at, line)
	}
}

func (r *run) correlate(ctx context.Context, at time.Time, line logline.Line) {
	var (
		metric  correlation.Metric
		emitted bool
	)

	category, ok := sentence.CategoryOf(line.Sentence.Type)
	if !ok {
		r.stats.Unsupported++
		r.logger.Debug().Str("type", line.Sentence.Type).Int("line", r.stats.Lines).Msg("sentence type not correlated")
		metric, emitted = r.window.Advance(at)
	} else {
		rec, issues := sentence.Decode(at, line.Sentence.Talker, category, line.Sentence.Fields)
		r.report(issues)
		metric, emitted = r.window.Observe(rec)
	}

	if !emitted {
		return
	}
	if err := r.sink.Write(ctx, metric); err != nil {
		r.stats.SinkErrors++
		r.logger.Warn().Err(err).Time("at", metric.At).Msg("failed to deliver metric")
	}
}

func (r *run) report(issues []sentence.FieldError) {
	for _, issue := range issues {
		r.stats.FieldIssues++
		ev := r.logger.Debug()
		if issue.Reason == sentence.ReasonOutOfRange {
			ev = r.logger.Warn()
		}
		ev.Str("category", issue.Category.String()).
			Str("field", issue.Field).
			Str("value", issue.Value).
			Str("reason", string(issue.Reason)).
			Int("line", r.stats.Lines).
			Msg("field not decoded")
	}
}
