package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/paklog/workload-planning-service/pkg/kafka"
	"github.com/paklog/workload-planning-service/pkg/logging"
	"github.com/paklog/workload-planning-service/pkg/metrics"
)

var (
	ErrPublisherRunning = errors.New("outbox publisher already running")
	ErrPublisherStopped = errors.New("outbox publisher not running")
)

type PublisherConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

func DefaultPublisherConfig() *PublisherConfig {
	return &PublisherConfig{PollInterval: time.Second, BatchSize: 100}
}

// PublisherStats counts relay outcomes since the publisher was created.
type PublisherStats struct {
	Published int64
	Failed    int64
}

// Publisher polls the outbox and relays pending events to Kafka. Each event
// is marked published after a successful send, so a crash between the send
// and the mark produces a duplicate rather than a loss.
type Publisher struct {
	repo     Repository
	producer kafka.EventPublisher
	logger   *logging.Logger
	metrics  *metrics.Metrics
	config   PublisherConfig

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	published atomic.Int64
	failed    atomic.Int64
}

func NewPublisher(repo Repository, producer kafka.EventPublisher, logger *logging.Logger, m *metrics.Metrics, config *PublisherConfig) *Publisher {
	if config == nil {
		config = DefaultPublisherConfig()
	}
	return &Publisher{
		repo:     repo,
		producer: producer,
		logger:   logger.WithComponent("outbox-publisher"),
		metrics:  m,
		config:   *config,
	}
}

// Start launches the relay loop. It runs until Stop is called or ctx ends.
func (p *Publisher) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return ErrPublisherRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	p.logger.Info("Starting outbox publisher", "interval", p.config.PollInterval, "batchSize", p.config.BatchSize)
	go p.loop(loopCtx, p.done)
	return nil
}

// Stop ends the relay loop and waits for the batch in flight.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return ErrPublisherStopped
	}
	cancel()
	<-done

	stats := p.Stats()
	p.logger.Info("Outbox publisher stopped", "published", stats.Published, "failed", stats.Failed)
	return nil
}

func (p *Publisher) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Publisher) Stats() PublisherStats {
	return PublisherStats{Published: p.published.Load(), Failed: p.failed.Load()}
}

func (p *Publisher) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProcessOnce(ctx)
		}
	}
}

// ProcessOnce relays one batch and returns how many events went out.
func (p *Publisher) ProcessOnce(ctx context.Context) int {
	if n, err := p.repo.CountPending(ctx); err == nil {
		p.metrics.SetOutboxPending(int(n))
	}

	batch, err := p.repo.FindUnpublished(ctx, p.config.BatchSize)
	if err != nil {
		p.logger.WithError(err).Error("Failed to load pending outbox events")
		return 0
	}

	sent := 0
	for _, event := range batch {
		log := p.logger.With("eventId", event.ID, "eventType", event.EventType, "aggregateId", event.AggregateID)

		if err := p.relay(ctx, event); err != nil {
			p.failed.Add(1)
			p.metrics.RecordOutboxRelay(false)
			log.Error("Failed to relay outbox event", "error", err.Error(), "attempt", event.RetryCount+1)
			if err := p.repo.IncrementRetry(ctx, event.ID, err.Error()); err != nil {
				log.Error("Failed to record relay attempt", "error", err.Error())
			}
			continue
		}

		sent++
		p.published.Add(1)
		p.metrics.RecordOutboxRelay(true)
		if err := p.repo.MarkPublished(ctx, event.ID); err != nil {
			log.Error("Failed to mark outbox event published", "error", err.Error())
		}
	}
	return sent
}

func (p *Publisher) relay(ctx context.Context, event *OutboxEvent) error {
	ce, err := event.ToCloudEvent()
	if err != nil {
		return err
	}
	if err := p.producer.PublishEvent(ctx, event.Topic, ce); err != nil {
		return fmt.Errorf("publish to %s: %w", event.Topic, err)
	}
	p.logger.Debug("Relayed outbox event", "eventId", event.ID, "topic", event.Topic)
	return nil
}
