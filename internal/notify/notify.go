// Package notify publishes build and verification events to NATS so
// downstream dashboards learn about outcomes without polling the history
// database. Publication is best effort and entirely optional.
package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"gitlab.com/fpgadoc/fpgadoc/internal/logfields"
)

// BuildEvent is the wire representation of one finished documentation build.
type BuildEvent struct {
	BuildID         string    `json:"build_id"`
	Outcome         string    `json:"outcome"`
	DurationMS      int64     `json:"duration_ms"`
	CoveragePercent int       `json:"coverage_percent"`
	Timestamp       time.Time `json:"timestamp"`
}

// VerifyEvent is the wire representation of one project verification.
type VerifyEvent struct {
	Project    string    `json:"project"`
	Outcome    string    `json:"outcome"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher sends events on a NATS subject.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// Connect dials the NATS server. An empty URL disables publication and
// returns a nil Publisher, on which all methods are no-ops.
func Connect(url, subject string) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}
	conn, err := nats.Connect(url,
		nats.Name("fpgadoc"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	slog.Info("Connected to NATS", logfields.URL(url), logfields.Name(subject))
	return &Publisher{conn: conn, subject: subject}, nil
}

// PublishBuild sends one build event.
func (p *Publisher) PublishBuild(event BuildEvent) error {
	if p == nil {
		return nil
	}
	event.Timestamp = time.Now()
	return p.publish(p.subject+".build", event)
}

// PublishVerify sends one verification event.
func (p *Publisher) PublishVerify(event VerifyEvent) error {
	if p == nil {
		return nil
	}
	event.Timestamp = time.Now()
	return p.publish(p.subject+".verify", event)
}

func (p *Publisher) publish(subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	slog.Debug("Published event", logfields.Name(subject))
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
