// Package kafka publishes planning CloudEvents to Kafka through
// segmentio/kafka-go, layered as writer, instrumentation and circuit breaker.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/paklog/workload-planning-service/pkg/cloudevents"
)

// EventPublisher is implemented by every producer layer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event *cloudevents.WMSCloudEvent) error
	Close() error
}

// MessageWriter is the subset of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer keeps one synchronous writer per topic, created on first use.
type Producer struct {
	config  *Config
	dial    func(topic string) MessageWriter
	mu      sync.Mutex
	writers map[string]MessageWriter
}

func NewProducer(config *Config) *Producer {
	p := &Producer{config: config, writers: map[string]MessageWriter{}}
	p.dial = p.newKafkaWriter
	return p
}

// NewProducerWithWriter sends every topic through w.
func NewProducerWithWriter(config *Config, w MessageWriter) *Producer {
	p := NewProducer(config)
	p.dial = func(string) MessageWriter { return w }
	return p
}

func (p *Producer) newKafkaWriter(topic string) MessageWriter {
	return &kafka.Writer{
		Addr:         kafka.TCP(p.config.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    p.config.BatchSize,
		BatchTimeout: p.config.BatchTimeout,
		WriteTimeout: p.config.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(p.config.RequiredAcks),
		Transport:    &kafka.Transport{ClientID: p.config.ClientID},
	}
}

func (p *Producer) writer(topic string) MessageWriter {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, ok := p.writers[topic]
	if !ok {
		w = p.dial(topic)
		p.writers[topic] = w
	}
	return w
}

// PublishEvent writes event to topic and waits for the configured acks.
func (p *Producer) PublishEvent(ctx context.Context, topic string, event *cloudevents.WMSCloudEvent) error {
	msg, err := encodeMessage(event)
	if err != nil {
		return err
	}
	if err := p.writer(topic).WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish event to topic %s: %w", topic, err)
	}
	return nil
}

// Close closes every writer and reports all close failures.
func (p *Producer) Close() error {
	p.mu.Lock()
	writers := p.writers
	p.writers = map[string]MessageWriter{}
	p.mu.Unlock()

	var errs []error
	for topic, w := range writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close writer for %s: %w", topic, err))
		}
	}
	return errors.Join(errs...)
}
