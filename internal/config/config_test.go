package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: test\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Name != "test" {
		t.Fatalf("app.name = %q", cfg.App.Name)
	}
	if cfg.Correlation.TimeSlot != 2*time.Second || cfg.Correlation.IntegrationDuration != 5*time.Second {
		t.Fatalf("unexpected correlation defaults %+v", cfg.Correlation)
	}
	if cfg.Correlation.MinSpeedKnots != 5 || cfg.Correlation.MinHistorySamples != 2 {
		t.Fatalf("unexpected correlation defaults %+v", cfg.Correlation)
	}
	if cfg.Export.ScatterDeltaLimit != 40 || cfg.Export.MaxDataPoints != 100000 {
		t.Fatalf("unexpected export defaults %+v", cfg.Export)
	}
	if cfg.Queue.Size != 256 || cfg.NATS.Enabled {
		t.Fatalf("unexpected defaults %+v %+v", cfg.Queue, cfg.NATS)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := writeConfig(t, strings.Join([]string{
		"correlation:",
		"  time_slot: 1500ms",
		"  min_speed_knots: 3.5",
		"export:",
		"  csv_delimiter: ';'",
		"  decimal_comma: true",
		"alerting:",
		"  enabled: true",
		"  cooldown: 2m",
	}, "\n"))

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Correlation.TimeSlot != 1500*time.Millisecond || cfg.Correlation.MinSpeedKnots != 3.5 {
		t.Fatalf("unexpected correlation %+v", cfg.Correlation)
	}
	if r, err := cfg.Export.Delimiter(); err != nil || r != ';' {
		t.Fatalf("delimiter = %q, %v", r, err)
	}
	if !cfg.Alerting.Enabled || cfg.Alerting.Cooldown != 2*time.Minute {
		t.Fatalf("unexpected alerting %+v", cfg.Alerting)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("NMEADRIFT_CORRELATION_TIME_SLOT", "3s")
	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Correlation.TimeSlot != 3*time.Second {
		t.Fatalf("time_slot = %s", cfg.Correlation.TimeSlot)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"zero slot":            "correlation:\n  time_slot: 0s\n",
		"short history":        "correlation:\n  min_history_samples: 1\n",
		"decimal comma clash":  "export:\n  decimal_comma: true\n",
		"long delimiter":       "export:\n  csv_delimiter: ';;'\n",
		"telegram no token":    "alerting:\n  telegram:\n    enabled: true\n    chat_id: x\n",
		"nats without subject": "nats:\n  enabled: true\n  subject: ''\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("an explicit config path that does not exist must fail")
	}
}

func TestResolveMaxPoints(t *testing.T) {
	cfg := &Config{Export: ExportConfig{MaxDataPoints: 500}}
	if got := cfg.ResolveMaxPoints(0); got != 500 {
		t.Fatalf("got %d", got)
	}
	if got := cfg.ResolveMaxPoints(20); got != 20 {
		t.Fatalf("got %d", got)
	}
}
