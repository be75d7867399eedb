package sink

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"nmea-drift/internal/correlation"
)

const (
	defaultQueueSize    = 256
	defaultDrainTimeout = 5 * time.Second
)

// ErrQueueClosed is returned when sending to a queue whose consumer has stopped.
var ErrQueueClosed = errors.New("sink: queue closed")

type frameKind int

const (
	frameStart frameKind = iota
	frameMetric
	frameStop
)

type frame struct {
	kind    frameKind
	session Session
	metric  correlation.Metric
}

// Queue hands metrics to an inner sink running on its own goroutine through a
// bounded channel. Start and Stop travel through the same channel as framing
// messages, so the consumer sees start, metrics, stop in order. Write blocks when
// the channel is full.
type Queue struct {
	inner        Sink
	ch           chan frame
	done         chan struct{}
	drainTimeout time.Duration
	logger       zerolog.Logger

	stopOnce sync.Once
	stopErr  error

	// written by the consumer, read after done is closed
	errs          []error
	writeFailures int
}

// QueueOptions tune a Queue.
type QueueOptions struct {
	Size         int
	DrainTimeout time.Duration
}

// NewQueue starts the consumer goroutine feeding inner.
func NewQueue(inner Sink, opts QueueOptions, logger zerolog.Logger) *Queue {
	if opts.Size <= 0 {
		opts.Size = defaultQueueSize
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = defaultDrainTimeout
	}
	q := &Queue{
		inner:        inner,
		ch:           make(chan frame, opts.Size),
		done:         make(chan struct{}),
		drainTimeout: opts.DrainTimeout,
		logger:       logger.With().Str("component", "sink_queue").Logger(),
	}
	go q.consume()
	return q
}

// Start enqueues the start frame.
func (q *Queue) Start(ctx context.Context, session Session) error {
	return q.send(ctx, frame{kind: frameStart, session: session})
}

// Write enqueues a metric, waiting for room in the channel.
func (q *Queue) Write(ctx context.Context, metric correlation.Metric) error {
	return q.send(ctx, frame{kind: frameMetric, metric: metric})
}

// Stop enqueues the stop frame and waits for the consumer to finish. Errors
// returned by the inner Start and Stop are reported here.
func (q *Queue) Stop(ctx context.Context) error {
	q.stopOnce.Do(func() {
		if err := q.send(ctx, frame{kind: frameStop}); err != nil && !errors.Is(err, ErrQueueClosed) {
			q.stopErr = err
			return
		}

		timer := time.NewTimer(q.drainTimeout)
		defer timer.Stop()
		select {
		case <-q.done:
		case <-timer.C:
			q.stopErr = fmt.Errorf("sink queue: drain timed out after %s", q.drainTimeout)
			return
		case <-ctx.Done():
			q.stopErr = ctx.Err()
			return
		}

		if q.writeFailures > 0 {
			q.logger.Warn().Int("failures", q.writeFailures).Msg("metrics rejected by sink")
		}
		q.stopErr = errors.Join(q.errs...)
	})
	return q.stopErr
}

func (q *Queue) send(ctx context.Context, f frame) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	select {
	case q.ch <- f:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) consume() {
	defer close(q.done)
	ctx := context.Background()

	for f := range q.ch {
		switch f.kind {
		case frameStart:
			q.logger.Debug().Str("source", f.session.Source).Msg("session start")
			if err := q.inner.Start(ctx, f.session); err != nil {
				q.errs = append(q.errs, fmt.Errorf("start sink: %w", err))
			}
		case frameMetric:
			if err := q.inner.Write(ctx, f.metric); err != nil {
				q.writeFailures++
				q.logger.Warn().Err(err).Time("at", f.metric.At).Msg("sink write failed")
			}
		case frameStop:
			q.logger.Debug().Msg("session stop")
			if err := q.inner.Stop(ctx); err != nil {
				q.errs = append(q.errs, fmt.Errorf("stop sink: %w", err))
			}
			return
		}
	}
}

var _ Sink = (*Queue)(nil)
