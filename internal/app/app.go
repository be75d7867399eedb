package app

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"nmea-drift/internal/alerting"
	"nmea-drift/internal/config"
	"nmea-drift/internal/correlation"
	"nmea-drift/internal/service"
	"nmea-drift/internal/sink"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	// Out receives reports meant for the user, such as the show table.
	Out io.Writer
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{
		Config: cfg,
		Logger: logger.With().Str("component", "app").Logger(),
		Out:    os.Stdout,
	}
}

// ParseOptions select the outputs of the parse command.
type ParseOptions struct {
	Input       string
	CSVPath     string
	PNGPath     string
	ScatterPath string
	NATS        bool
	MaxPoints   int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Input string
	Limit int
}

// SplitOptions configure the split command.
type SplitOptions struct {
	Input  string
	OutDir string
}

// BatchOptions configure processing of a directory of logs.
type BatchOptions struct {
	Dir     string
	Pattern string
	OutDir  string
	PNG     bool
}

func (a *App) correlationOptions() correlation.Options {
	c := a.Config.Correlation
	return correlation.Options{
		TimeSlot:            c.TimeSlot,
		MinSpeedKnots:       c.MinSpeedKnots,
		IntegrationDuration: c.IntegrationDuration,
		MinHistorySamples:   c.MinHistorySamples,
	}
}

func (a *App) newService(out sink.Sink) *service.Service {
	return service.New(service.Options{
		Correlation:  a.correlationOptions(),
		MaxLineBytes: a.Config.Input.MaxLineBytes,
	}, out, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	notifiers := alerting.Multi{alerting.NewLogNotifier(a.Logger)}
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		notifiers = append(notifiers, alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, cfg.RequestTimeout, a.Logger))
	}
	return notifiers
}

func (a *App) newMonitor() *alerting.Monitor {
	return alerting.NewMonitor(alerting.Thresholds{
		DeltaHeadingDeg:   a.Config.Alerting.DeltaHeadingDeg,
		RotationDegPerSec: a.Config.Alerting.RotationDegPerSec,
		Cooldown:          a.Config.Alerting.Cooldown,
	}, a.newNotifier(), a.Logger)
}

func (a *App) newQueue(inner sink.Sink) *sink.Queue {
	return sink.NewQueue(inner, sink.QueueOptions{
		Size:         a.Config.Queue.Size,
		DrainTimeout: a.Config.Queue.DrainTimeout,
	}, a.Logger)
}

func openInput(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("--input is required")
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return file, nil
}
