package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"nmea-drift/internal/correlation"
)

// Publisher is the part of *nats.Conn the NATS sink needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSOptions describe the connection and subject.
type NATSOptions struct {
	URL        string
	Subject    string
	ClientName string
}

type controlMessage struct {
	Type   string `json:"type"`
	Source string `json:"source,omitempty"`
	Title  string `json:"title,omitempty"`
	Count  int    `json:"count,omitempty"`
}

// NATS publishes each metric as JSON to Subject and the session framing to
// Subject + ".control".
type NATS struct {
	pub     Publisher
	subject string
	logger  zerolog.Logger
	close   func() error
	session Session
	count   int
}

// NewNATS publishes through pub.
func NewNATS(pub Publisher, subject string, logger zerolog.Logger) *NATS {
	return &NATS{
		pub:     pub,
		subject: subject,
		logger:  logger.With().Str("component", "nats_sink").Logger(),
	}
}

// DialNATS connects to the server and returns a sink that drains the connection
// on Stop.
func DialNATS(opts NATSOptions, logger zerolog.Logger) (*NATS, error) {
	if opts.Subject == "" {
		return nil, fmt.Errorf("nats sink: subject is required")
	}
	log := logger.With().Str("component", "nats_sink").Logger()

	conn, err := nats.Connect(opts.URL,
		nats.Name(opts.ClientName),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Debug().Msg("nats connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", opts.URL, err)
	}
	log.Info().Str("url", opts.URL).Str("subject", opts.Subject).Msg("nats connected")

	s := NewNATS(conn, opts.Subject, logger)
	s.close = conn.Drain
	return s, nil
}

func (n *NATS) Start(_ context.Context, session Session) error {
	n.session = session
	n.count = 0
	return n.publishControl(controlMessage{Type: "start", Source: session.Source, Title: session.Title})
}

func (n *NATS) Write(_ context.Context, m correlation.Metric) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode metric: %w", err)
	}
	if err := n.pub.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", n.subject, err)
	}
	n.count++
	return nil
}

func (n *NATS) Stop(_ context.Context) error {
	err := n.publishControl(controlMessage{Type: "stop", Source: n.session.Source, Count: n.count})
	if n.close != nil {
		if cerr := n.close(); cerr != nil && err == nil {
			err = fmt.Errorf("drain nats: %w", cerr)
		}
		n.close = nil
	}
	n.logger.Debug().Int("published", n.count).Msg("nats session closed")
	return err
}

func (n *NATS) publishControl(msg controlMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode control message: %w", err)
	}
	subject := n.subject + ".control"
	if err := n.pub.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

var _ Sink = (*NATS)(nil)
