// Package events publishes alert trigger events to a Kafka topic for
// downstream consumers. Publishing is best-effort: a failed publish is
// logged and counted but never affects the checker run.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/slatedeck/slatedeck/internal/metrics"
)

// ErrPublisherClosed is returned when Publish is called after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// TriggerEvent mirrors one fired alert trigger onto the event stream.
type TriggerEvent struct {
	AlertID        string    `json:"alert_id"`
	AlertName      string    `json:"alert_name"`
	ThresholdValue float64   `json:"threshold_value"`
	ActualValue    float64   `json:"actual_value"`
	WebhookStatus  *int      `json:"webhook_status"`
	TriggeredAt    time.Time `json:"triggered_at"`
}

// messageWriter is the subset of kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes trigger events to a Kafka topic, partitioned by alert.
type Publisher struct {
	writer messageWriter
	closed atomic.Bool
}

// Config holds event stream settings.
type Config struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// NewPublisher creates a Kafka-backed trigger event publisher.
func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("topic is required")
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // Partition by alert ID
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Publisher{writer: writer}, nil
}

// Publish sends one trigger event. Events for the same alert land on the
// same partition, preserving per-alert ordering.
func (p *Publisher) Publish(ctx context.Context, ev TriggerEvent) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}

	data, err := json.Marshal(ev)
	if err != nil {
		metrics.EventPublishFailures.Inc()
		return fmt.Errorf("marshal trigger event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.AlertID),
		Value: data,
		Time:  ev.TriggeredAt,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.EventPublishFailures.Inc()
		return fmt.Errorf("publish trigger event: %w", err)
	}

	metrics.EventsPublished.Inc()
	return nil
}

// Close closes the underlying writer.
func (p *Publisher) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.writer.Close()
}
