package alerting

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"nmea-drift/internal/correlation"
	"nmea-drift/internal/sink"
)

// Thresholds select which metrics raise a notification. A zero threshold disables
// that check.
type Thresholds struct {
	DeltaHeadingDeg   float64
	RotationDegPerSec float64
	// Cooldown is measured in log time between two notifications of the same kind.
	Cooldown time.Duration
}

// Monitor is a sink that notifies when a metric crosses a threshold.
type Monitor struct {
	thresholds Thresholds
	notifier   Notifier
	logger     zerolog.Logger

	source string
	last   map[Kind]time.Time
	sent   int
}

// NewMonitor watches metrics against thresholds.
func NewMonitor(thresholds Thresholds, notifier Notifier, logger zerolog.Logger) *Monitor {
	return &Monitor{
		thresholds: thresholds,
		notifier:   notifier,
		logger:     logger.With().Str("component", "alert_monitor").Logger(),
		last:       make(map[Kind]time.Time),
	}
}

// Sent reports how many notifications were delivered in the current session.
func (m *Monitor) Sent() int {
	return m.sent
}

func (m *Monitor) Start(_ context.Context, session sink.Session) error {
	m.source = session.Source
	m.sent = 0
	clear(m.last)
	return nil
}

func (m *Monitor) Write(ctx context.Context, metric correlation.Metric) error {
	if err := m.check(ctx, metric, KindDeltaHeading, metric.DeltaHeading, m.thresholds.DeltaHeadingDeg); err != nil {
		return err
	}
	return m.check(ctx, metric, KindRotation, metric.RotationSpeed, m.thresholds.RotationDegPerSec)
}

func (m *Monitor) Stop(_ context.Context) error {
	m.logger.Info().Str("source", m.source).Int("alerts", m.sent).Msg("alert monitor finished")
	return nil
}

func (m *Monitor) check(ctx context.Context, metric correlation.Metric, kind Kind, value *float64, threshold float64) error {
	if value == nil || threshold <= 0 || math.Abs(*value) <= threshold {
		return nil
	}
	if last, ok := m.last[kind]; ok && metric.At.Sub(last) < m.thresholds.Cooldown {
		m.logger.Debug().Time("at", metric.At).Str("kind", string(kind)).Msg("alert suppressed by cooldown")
		return nil
	}

	note := Notification{
		At:             metric.At,
		Source:         m.source,
		Kind:           kind,
		Value:          decimal.NewFromFloat(*value),
		Threshold:      decimal.NewFromFloat(threshold),
		BottomHeading:  optionalDecimal(metric.BottomHeading),
		CompassHeading: optionalDecimal(metric.CompassHeading),
	}
	if err := m.notifier.Notify(ctx, note); err != nil {
		m.logger.Error().Err(err).Time("at", metric.At).Str("kind", string(kind)).Msg("failed to send alert")
		return err
	}
	m.last[kind] = metric.At
	m.sent++
	return nil
}

func optionalDecimal(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	return &d
}

var _ sink.Sink = (*Monitor)(nil)
