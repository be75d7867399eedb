package app

import (
	"context"
	"errors"
	"time"

	"nmea-drift/internal/correlation"
	"nmea-drift/internal/sink"
)

// SimulateAlert pushes one synthetic metric through the alert monitor so the
// configured notification channels can be checked end to end.
func (a *App) SimulateAlert(ctx context.Context, deltaHeading, rotation float64) (int, error) {
	if !a.Config.Alerting.Enabled {
		return 0, errors.New("alerting is not enabled")
	}

	monitor := a.newMonitor()
	metric := correlation.Metric{
		At:            time.Now().UTC(),
		DeltaHeading:  &deltaHeading,
		RotationSpeed: &rotation,
	}

	if err := monitor.Start(ctx, sink.Session{Source: "simulation"}); err != nil {
		return 0, err
	}
	if err := monitor.Write(ctx, metric); err != nil {
		return monitor.Sent(), err
	}
	if err := monitor.Stop(ctx); err != nil {
		return monitor.Sent(), err
	}
	if monitor.Sent() == 0 {
		a.Logger.Warn().Msg("simulated values are below the configured thresholds; nothing sent")
	}
	return monitor.Sent(), nil
}
