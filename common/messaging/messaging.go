// Package messaging provides abstractions for publishing events to a message
// broker without coupling services to a specific broker implementation.
package messaging

import (
	"context"
	"sync"
	"time"
)

// Message represents a message sent to a message broker.
type Message struct {
	// Subject is the topic the message is published to.
	Subject string

	// Data is the raw message payload.
	Data []byte

	// Metadata contains optional key-value pairs sent as message headers.
	Metadata map[string]string

	// Timestamp is when the message was published.
	Timestamp time.Time
}

// Publisher publishes messages to subjects.
type Publisher interface {
	// PublishMsg sends a Message including its headers.
	PublishMsg(ctx context.Context, msg *Message) error

	// Close releases any resources held by the publisher.
	Close() error
}

// RecordingPublisher keeps every published message in memory. It backs
// local runs without a broker and tests that inspect published events.
type RecordingPublisher struct {
	mu       sync.Mutex
	messages []Message
	closed   bool
}

// NewRecordingPublisher returns an empty RecordingPublisher.
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

// PublishMsg records msg.
func (p *RecordingPublisher) PublishMsg(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	m := *msg
	m.Data = append([]byte(nil), msg.Data...)
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	p.messages = append(p.messages, m)
	return nil
}

// Messages returns a copy of the recorded messages in publish order.
func (p *RecordingPublisher) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Message, len(p.messages))
	copy(out, p.messages)
	return out
}

// Close marks the publisher closed. Later publishes fail with ErrClosed.
func (p *RecordingPublisher) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}
