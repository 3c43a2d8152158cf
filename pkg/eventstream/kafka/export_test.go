package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
)

type MessageWriter = messageWriter

// NewPublisherWithWriter builds a Publisher around w for tests.
func NewPublisherWithWriter(w MessageWriter) *Publisher {
	return &Publisher{writer: w}
}

// RecordingWriter records written messages.
type RecordingWriter struct {
	Messages []kafka.Message
	Err      error
	Closed   bool
}

func (w *RecordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.Err != nil {
		return w.Err
	}
	w.Messages = append(w.Messages, msgs...)
	return nil
}

func (w *RecordingWriter) Close() error {
	w.Closed = true
	return nil
}
