// Package kafka publishes turn events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/papercomputeco/switchboard/pkg/eventstream"
)

// DefaultTopic is used when Config.Topic is empty.
const DefaultTopic = "switchboard.turns"

const defaultWriteTimeout = 10 * time.Second

// ErrNoBrokers is returned by NewPublisher when no broker address is given.
var ErrNoBrokers = errors.New("kafka brokers are required")

// Config configures a Kafka Publisher.
type Config struct {
	Brokers []string
	Topic   string

	// WriteTimeout defaults to 10s.
	WriteTimeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes TurnHandledEvents as JSON messages keyed by thread ID,
// so all events for one thread land on the same partition.
type Publisher struct {
	writer messageWriter
}

var _ eventstream.Publisher = (*Publisher)(nil)

// NewPublisher creates a new Kafka publisher.
func NewPublisher(c Config) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if c.Topic == "" {
		c.Topic = DefaultTopic
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = defaultWriteTimeout
	}

	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(c.Brokers...),
			Topic:                  c.Topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			WriteTimeout:           c.WriteTimeout,
			AllowAutoTopicCreation: true,
		},
	}, nil
}

// PublishTurn encodes and writes event.
func (p *Publisher) PublishTurn(ctx context.Context, event *eventstream.TurnHandledEvent) error {
	if event == nil {
		return eventstream.ErrNilTurnEvent
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding turn event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.RequestMeta.ThreadID),
		Value: value,
		Time:  event.EmittedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing turn event: %w", err)
	}
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
