package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"nmea-drift/internal/service"
	"nmea-drift/internal/sink"
)

// Parse correlates a log and exports the metrics to the selected outputs.
func (a *App) Parse(ctx context.Context, opts ParseOptions) (service.Stats, error) {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	sinks, err := a.buildSinks(opts)
	if err != nil {
		return service.Stats{}, err
	}
	if len(sinks) == 0 {
		return service.Stats{}, errors.New("at least one of --csv, --png, --scatter or --nats must be provided, or alerting enabled")
	}

	file, err := openInput(opts.Input)
	if err != nil {
		return service.Stats{}, err
	}
	defer file.Close()

	queue := a.newQueue(sink.NewFanout(sinks...))
	svc := a.newService(queue)

	a.Logger.Info().Str("input", opts.Input).Int("sinks", len(sinks)).Msg("start parsing")
	stats, err := svc.Process(ctx, file, opts.Input)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			a.Logger.Warn().Msg("parsing interrupted")
		}
		return stats, err
	}

	a.Logger.Info().
		Str("input", opts.Input).
		Int("metrics", stats.Emitted).
		Str("failure_pct", stats.FailurePct().StringFixed(2)).
		Msg("end of parsing")
	return stats, nil
}

func (a *App) buildSinks(opts ParseOptions) ([]sink.Sink, error) {
	var sinks []sink.Sink

	if opts.CSVPath != "" {
		delimiter, err := a.Config.Export.Delimiter()
		if err != nil {
			return nil, err
		}
		csvSink, err := sink.NewCSV(sink.CSVOptions{
			Path:          opts.CSVPath,
			Delimiter:     delimiter,
			DecimalComma:  a.Config.Export.DecimalComma,
			DecimalPlaces: a.Config.Export.DecimalPlaces,
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, csvSink)
	}

	if opts.PNGPath != "" || opts.ScatterPath != "" {
		chartSink, err := sink.NewChart(sink.ChartOptions{
			TimeSeriesPath: opts.PNGPath,
			ScatterPath:    opts.ScatterPath,
			Width:          a.Config.Export.ChartWidth,
			Height:         a.Config.Export.ChartHeight,
			MaxPoints:      opts.MaxPoints,
			DeltaLimit:     a.Config.Export.ScatterDeltaLimit,
		}, a.Logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, chartSink)
	}

	if opts.NATS || a.Config.NATS.Enabled {
		natsSink, err := sink.DialNATS(sink.NATSOptions{
			URL:        a.Config.NATS.URL,
			Subject:    a.Config.NATS.Subject,
			ClientName: a.Config.NATS.ClientName,
		}, a.Logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, natsSink)
	}

	if a.Config.Alerting.Enabled {
		sinks = append(sinks, a.newMonitor())
	}

	return sinks, nil
}
