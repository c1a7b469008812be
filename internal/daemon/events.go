package daemon

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Event is published after a refresh or re-archive completes.
type Event struct {
	Type      string    `json:"type"` // "refresh" | "archive"
	RunID     string    `json:"run_id,omitempty"`
	Archive   string    `json:"archive,omitempty"`
	Hash      string    `json:"hash,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher emits daemon events on a NATS subject. It is optional: a nil
// publisher drops events silently.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// NewPublisher connects to NATS and returns a publisher for the subject.
func NewPublisher(natsURL, subject string) (*Publisher, error) {
	conn, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("NATS publisher initialized", "url", natsURL, "subject", subject)
	return &Publisher{conn: conn, subject: subject}, nil
}

// Publish emits one event. Publish failures are logged, not fatal: events
// are advisory and must never break a build.
func (p *Publisher) Publish(event Event) {
	if p == nil {
		return
	}
	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		slog.Warn("Failed to encode daemon event", "type", event.Type, "error", err)
		return
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		slog.Warn("Failed to publish daemon event", "type", event.Type, "error", err)
	}
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
