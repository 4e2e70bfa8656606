package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/osadchyi/contacts-api/pkg/logger"
)

// EventBus decouples request handling from best-effort side work such as
// mail dispatch. A publish failure is the publisher's problem to log; it is
// never surfaced to the request that triggered it.
type EventBus interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
}

// Subjects.
const (
	UserRegistered         = "user.registered"
	PasswordResetRequested = "user.password_reset.requested"
)

type UserRegisteredEvent struct {
	UserID      int64  `json:"user_id"`
	Email       string `json:"email"`
	VerifyToken string `json:"verify_token"`
	VerifyURL   string `json:"verify_url"`
}

type PasswordResetRequestedEvent struct {
	UserID     int64  `json:"user_id"`
	Email      string `json:"email"`
	ResetToken string `json:"reset_token"`
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject)

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// LocalBus is an in-process fallback used when NATS is unreachable at
// startup. Handlers run on detached goroutines so a slow consumer cannot
// block the publishing request.
type LocalBus struct {
	mu       sync.RWMutex
	handlers map[string][]func(msg *Message)
}

func NewLocalBus() *LocalBus {
	return &LocalBus{handlers: make(map[string][]func(msg *Message))}
}

func (b *LocalBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	b.mu.RLock()
	handlers := b.handlers[subject]
	b.mu.RUnlock()

	msg := &Message{Subject: subject, Data: payload, Timestamp: time.Now()}
	for _, h := range handlers {
		go h(msg)
	}
	return nil
}

func (b *LocalBus) QueueSubscribe(subject, _ string, handler func(msg *Message)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[subject] = append(b.handlers[subject], handler)
	return nil
}

func (b *LocalBus) Close() error { return nil }
