package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"nmea-drift/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Logging     logging.Config    `mapstructure:"logging"`
	Correlation CorrelationConfig `mapstructure:"correlation"`
	Input       InputConfig       `mapstructure:"input"`
	Export      ExportConfig      `mapstructure:"export"`
	Queue       QueueConfig       `mapstructure:"queue"`
	NATS        NATSConfig        `mapstructure:"nats"`
	Alerting    AlertingConfig    `mapstructure:"alerting"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// CorrelationConfig tunes slot closure and metric gating.
type CorrelationConfig struct {
	TimeSlot            time.Duration `mapstructure:"time_slot"`
	MinSpeedKnots       float64       `mapstructure:"min_speed_knots"`
	IntegrationDuration time.Duration `mapstructure:"integration_duration"`
	MinHistorySamples   int           `mapstructure:"min_history_samples"`
}

// InputConfig bounds what the reader accepts.
type InputConfig struct {
	MaxLineBytes int `mapstructure:"max_line_bytes"`
}

// ExportConfig sets file export behaviour.
type ExportConfig struct {
	MaxDataPoints     int     `mapstructure:"max_data_points"`
	CSVDelimiter      string  `mapstructure:"csv_delimiter"`
	DecimalComma      bool    `mapstructure:"decimal_comma"`
	DecimalPlaces     int32   `mapstructure:"decimal_places"`
	ChartWidth        int     `mapstructure:"chart_width"`
	ChartHeight       int     `mapstructure:"chart_height"`
	ScatterDeltaLimit float64 `mapstructure:"scatter_delta_limit"`
}

// QueueConfig sizes the hand-off between the reader and the sinks.
type QueueConfig struct {
	Size         int           `mapstructure:"size"`
	DrainTimeout time.Duration `mapstructure:"drain_timeout"`
}

// NATSConfig describes the optional metric publisher.
type NATSConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	URL        string `mapstructure:"url"`
	Subject    string `mapstructure:"subject"`
	ClientName string `mapstructure:"client_name"`
}

// AlertingConfig defines discrepancy thresholds and routing.
type AlertingConfig struct {
	Enabled           bool           `mapstructure:"enabled"`
	DeltaHeadingDeg   float64        `mapstructure:"delta_heading_deg"`
	RotationDegPerSec float64        `mapstructure:"rotation_deg_per_sec"`
	Cooldown          time.Duration  `mapstructure:"cooldown"`
	Telegram          TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig holds the Telegram bot parameters.
type TelegramConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	APIBase        string        `mapstructure:"api_base"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NMEADRIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "nmeadrift")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("correlation.time_slot", "2s")
	v.SetDefault("correlation.min_speed_knots", 5.0)
	v.SetDefault("correlation.integration_duration", "5s")
	v.SetDefault("correlation.min_history_samples", 2)

	v.SetDefault("input.max_line_bytes", 64*1024)

	v.SetDefault("export.max_data_points", 100000)
	v.SetDefault("export.csv_delimiter", ",")
	v.SetDefault("export.decimal_comma", false)
	v.SetDefault("export.decimal_places", 3)
	v.SetDefault("export.chart_width", 1280)
	v.SetDefault("export.chart_height", 720)
	v.SetDefault("export.scatter_delta_limit", 40.0)

	v.SetDefault("queue.size", 256)
	v.SetDefault("queue.drain_timeout", "30s")

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.subject", "nmeadrift.metrics")
	v.SetDefault("nats.client_name", "nmeadrift")

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.delta_heading_deg", 15.0)
	v.SetDefault("alerting.rotation_deg_per_sec", 0.0)
	v.SetDefault("alerting.cooldown", "1m")
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")
	v.SetDefault("alerting.telegram.request_timeout", "10s")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Correlation.TimeSlot <= 0 {
		return fmt.Errorf("correlation.time_slot must be greater than zero")
	}
	if c.Correlation.MinSpeedKnots < 0 {
		return fmt.Errorf("correlation.min_speed_knots cannot be negative")
	}
	if c.Correlation.IntegrationDuration <= 0 {
		return fmt.Errorf("correlation.integration_duration must be greater than zero")
	}
	if c.Correlation.MinHistorySamples < 2 {
		return fmt.Errorf("correlation.min_history_samples must be at least 2")
	}
	if c.Input.MaxLineBytes < 128 {
		return fmt.Errorf("input.max_line_bytes must be at least 128")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if _, err := c.Export.Delimiter(); err != nil {
		return err
	}
	if c.Export.DecimalComma && c.Export.CSVDelimiter == "," {
		return fmt.Errorf("export.decimal_comma needs export.csv_delimiter other than ','")
	}
	if c.Export.DecimalPlaces < 0 || c.Export.DecimalPlaces > 9 {
		return fmt.Errorf("export.decimal_places must be between 0 and 9")
	}
	if c.Export.ChartWidth <= 0 || c.Export.ChartHeight <= 0 {
		return fmt.Errorf("export.chart_width and export.chart_height must be greater than zero")
	}
	if c.Export.ScatterDeltaLimit <= 0 {
		return fmt.Errorf("export.scatter_delta_limit must be greater than zero")
	}
	if c.Queue.Size <= 0 {
		return fmt.Errorf("queue.size must be greater than zero")
	}
	if c.Queue.DrainTimeout <= 0 {
		return fmt.Errorf("queue.drain_timeout must be greater than zero")
	}
	if c.NATS.Enabled {
		if c.NATS.URL == "" {
			return fmt.Errorf("nats.url must be set when nats is enabled")
		}
		if c.NATS.Subject == "" {
			return fmt.Errorf("nats.subject must be set when nats is enabled")
		}
	}
	if c.Alerting.DeltaHeadingDeg < 0 || c.Alerting.RotationDegPerSec < 0 {
		return fmt.Errorf("alerting thresholds cannot be negative")
	}
	if c.Alerting.Cooldown < 0 {
		return fmt.Errorf("alerting.cooldown cannot be negative")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required")
		}
	}
	return nil
}

// Delimiter returns the CSV field separator as a rune.
func (e ExportConfig) Delimiter() (rune, error) {
	if utf8.RuneCountInString(e.CSVDelimiter) != 1 {
		return 0, fmt.Errorf("export.csv_delimiter must be a single character, got %q", e.CSVDelimiter)
	}
	r, _ := utf8.DecodeRuneInString(e.CSVDelimiter)
	if r == '\r' || r == '\n' || r == '"' || r == utf8.RuneError {
		return 0, fmt.Errorf("export.csv_delimiter %q is not allowed", e.CSVDelimiter)
	}
	return r, nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
