package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Kind names the discrepancy that triggered a notification.
type Kind string

const (
	KindDeltaHeading Kind = "delta_heading"
	KindRotation     Kind = "rotation_speed"
)

// Unit returns the display unit of the kind.
func (k Kind) Unit() string {
	if k == KindRotation {
		return "deg/s"
	}
	return "deg"
}

// Notification describes one threshold crossing.
type Notification struct {
	At        time.Time
	Source    string
	Kind      Kind
	Value     decimal.Decimal
	Threshold decimal.Decimal
	// BottomHeading and CompassHeading give the context of the slot, when known.
	BottomHeading  *decimal.Decimal
	CompassHeading *decimal.Decimal
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// LogNotifier writes notifications to the log.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier logs through logger.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "alert_log").Logger()}
}

// Notify logs the notification at warn level.
func (n *LogNotifier) Notify(_ context.Context, note Notification) error {
	n.logger.Warn().
		Time("at", note.At).
		Str("source", note.Source).
		Str("kind", string(note.Kind)).
		Str("value", note.Value.StringFixed(2)).
		Str("threshold", note.Threshold.StringFixed(2)).
		Msg("discrepancy above threshold")
	return nil
}

// TelegramNotifier sends notifications through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier builds a notifier posting to chatID.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify calls sendMessage with the rendered text.
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(note),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram status %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil && !result.OK {
		return fmt.Errorf("telegram returned ok=false")
	}

	n.logger.Info().Time("at", note.At).
		Str("kind", string(note.Kind)).
		Msg("alert sent (telegram)")
	return nil
}

// Multi fans a notification out to several notifiers and reports the first error.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, note Notification) error {
	var first error
	for _, n := range m {
		if err := n.Notify(ctx, note); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func renderMessage(note Notification) string {
	builder := strings.Builder{}
	builder.WriteString("[NMEA drift alert]\n")
	if note.Source != "" {
		builder.WriteString(fmt.Sprintf("Log: %s\n", note.Source))
	}
	builder.WriteString(fmt.Sprintf("Time: %s\n", note.At.Format("2006-01-02 15:04:05.000")))
	builder.WriteString(fmt.Sprintf("%s: %s %s (threshold %s)\n",
		note.Kind, note.Value.StringFixed(2), note.Kind.Unit(), note.Threshold.StringFixed(2)))
	if note.BottomHeading != nil {
		builder.WriteString(fmt.Sprintf("Bottom heading: %s deg\n", note.BottomHeading.StringFixed(1)))
	}
	if note.CompassHeading != nil {
		builder.WriteString(fmt.Sprintf("Compass heading: %s deg\n", note.CompassHeading.StringFixed(1)))
	}
	return builder.String()
}

var (
	_ Notifier = (*TelegramNotifier)(nil)
	_ Notifier = (*LogNotifier)(nil)
	_ Notifier = Multi(nil)
)
