// Package eventpublisher delivers domain events emitted by the ledger and
// escrow cores to downstream consumers.
package eventpublisher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/escrowledger/internal/domain"
	"github.com/iho/escrowledger/internal/infrastructure/metrics"
)

// Sink receives a single delivered event.
type Sink interface {
	Deliver(ctx context.Context, event domain.Event) error
}

// LogSink writes events to the structured log. The default delivery target
// when no external broker is configured.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("component", "event_sink").Logger()}
}

// Deliver logs the event.
func (s *LogSink) Deliver(_ context.Context, event domain.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.Type).
		Str("reference", event.Reference).
		Time("occurred_at", event.OccurredAt).
		RawJSON("payload", payload).
		Msg("event published")

	return nil
}

// MemorySink retains delivered events in order. Used in tests.
type MemorySink struct {
	mu     sync.Mutex
	events []domain.Event
}

// NewMemorySink creates a MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Deliver appends the event.
func (s *MemorySink) Deliver(_ context.Context, event domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of everything delivered so far.
func (s *MemorySink) Events() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Config for Publisher.
type Config struct {
	Sink       Sink
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
	BufferSize int // Queued events before Publish drops; defaults to 256
}

// Publisher implements usecase.EventSink. Publish enqueues without
// blocking the posting path; a background worker delivers to the sink.
type Publisher struct {
	sink    Sink
	logger  zerolog.Logger
	metrics *metrics.Metrics
	queue   chan domain.Event
	done    chan struct{}
}

// NewPublisher creates a Publisher. Call Start to begin delivery.
func NewPublisher(cfg Config) *Publisher {
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 256
	}

	return &Publisher{
		sink:    cfg.Sink,
		logger:  cfg.Logger.With().Str("component", "event_publisher").Logger(),
		metrics: cfg.Metrics,
		queue:   make(chan domain.Event, cfg.BufferSize),
		done:    make(chan struct{}),
	}
}

// Publish enqueues an event for delivery. A full queue is an error rather
// than a stall: the posting path must never block on event delivery.
func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	select {
	case p.queue <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("event queue full, dropping %s for %s", event.Type, event.Reference)
	}
}

// Start runs the delivery worker until the context is cancelled, then
// drains whatever is still queued before returning.
func (p *Publisher) Start(ctx context.Context) error {
	p.logger.Info().Int("buffer", cap(p.queue)).Msg("event publisher started")
	defer close(p.done)

	for {
		select {
		case <-ctx.Done():
			p.drain()
			p.logger.Info().Msg("event publisher shutting down")
			return ctx.Err()
		case event := <-p.queue:
			p.deliver(event)
		}
	}
}

// Done is closed once Start has returned.
func (p *Publisher) Done() <-chan struct{} {
	return p.done
}

func (p *Publisher) drain() {
	for {
		select {
		case event := <-p.queue:
			p.deliver(event)
		default:
			return
		}
	}
}

func (p *Publisher) deliver(event domain.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.sink.Deliver(ctx, event); err != nil {
		p.logger.Error().
			Err(err).
			Str("event_id", event.ID).
			Str("event_type", event.Type).
			Msg("failed to deliver event")
		if p.metrics != nil {
			p.metrics.EventErrors.Inc()
		}
		return
	}

	if p.metrics != nil {
		p.metrics.EventsPublished.WithLabelValues(event.Type).Inc()
	}
}
