package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/andrescamacho/mediator-go/internal/application/common"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
	"github.com/andrescamacho/mediator-go/internal/infrastructure/config"
)

// natsConn is the subset of *nats.Conn used for publishing
type natsConn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSEventPublisher forwards domain events to NATS.
// Each event goes to <prefix>.<event type> wrapped in an Envelope.
type NATSEventPublisher struct {
	conn          natsConn
	subjectPrefix string
}

// NewNATSEventPublisher creates a publisher over conn
func NewNATSEventPublisher(conn natsConn, subjectPrefix string) *NATSEventPublisher {
	if subjectPrefix == "" {
		subjectPrefix = "mediator.events"
	}
	return &NATSEventPublisher{
		conn:          conn,
		subjectPrefix: strings.TrimSuffix(subjectPrefix, "."),
	}
}

// Connect dials the NATS server described by cfg
func Connect(cfg config.NATSConfig) (*nats.Conn, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("mediator"),
		nats.Timeout(cfg.ConnectTimeout),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", cfg.URL, err)
	}
	return conn, nil
}

func (p *NATSEventPublisher) PublishEvent(ctx context.Context, event shared.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(NewEnvelope(event))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.conn.Publish(p.Subject(event), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subject is the NATS subject an event is published on
func (p *NATSEventPublisher) Subject(event shared.Event) string {
	return fmt.Sprintf("%s.%s", p.subjectPrefix, event.EventType())
}

// Close flushes pending messages and closes the connection
func (p *NATSEventPublisher) Close() error {
	return p.conn.Drain()
}

// Envelope wraps an event with metadata for transport
type Envelope struct {
	EventID     string      `json:"event_id"`
	EventType   string      `json:"event_type"`
	AggregateID string      `json:"aggregate_id"`
	OccurredAt  int64       `json:"occurred_at"`
	Payload     interface{} `json:"payload"`
}

func NewEnvelope(event shared.Event) Envelope {
	return Envelope{
		EventID:     event.EventID(),
		EventType:   event.EventType(),
		AggregateID: event.AggregateID(),
		OccurredAt:  event.OccurredAt().UnixMilli(),
		Payload:     event,
	}
}

var _ common.EventPublisher = (*NATSEventPublisher)(nil)
