// Package events publishes integration events for downstream consumers
// (order fulfilment, notifications). Publishing is best-effort: reconcile
// and checkout flows never fail because the broker is down.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"checkout-payments/config"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Envelope is the wire shape of every published event.
type Envelope struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NATSPublisher implements ports.EventPublisher on a core NATS
// connection.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	log    zerolog.Logger
}

// NewNATSPublisher connects to the broker and returns a publisher.
func NewNATSPublisher(cfg config.NATSConfig, log zerolog.Logger) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("checkout-payments"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	log.Info().Str("url", conn.ConnectedUrl()).Msg("NATS connection established")

	return &NATSPublisher{
		conn:   conn,
		prefix: cfg.SubjectPrefix,
		log:    log,
	}, nil
}

// Publish sends the payload wrapped in an envelope to the event's
// subject.
func (p *NATSPublisher) Publish(_ context.Context, eventType string, data interface{}) error {
	env := newEnvelope(eventType, data)

	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	subject := subjectFor(p.prefix, eventType)
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publishing event: %w", err)
	}

	p.log.Debug().
		Str("event_id", env.ID).
		Str("subject", subject).
		Msg("event published")

	return nil
}

// Close drains buffered messages and closes the connection.
func (p *NATSPublisher) Close() {
	_ = p.conn.Drain()
}

func newEnvelope(eventType string, data interface{}) Envelope {
	return Envelope{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

func subjectFor(prefix, eventType string) string {
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}
