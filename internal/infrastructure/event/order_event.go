// Package event announces submitted orders on a message broker.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
)

// OrderSubmittedType names the event on the wire
const OrderSubmittedType = "order.submitted"

// Envelope wraps an event payload with identity and timing
type Envelope struct {
	EventID    uuid.UUID       `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// NewOrderSubmittedEnvelope builds the envelope for an accepted order
func NewOrderSubmittedEnvelope(record order.Record, now time.Time) (Envelope, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal order record: %w", err)
	}
	return Envelope{
		EventID:    uuid.New(),
		EventType:  OrderSubmittedType,
		OccurredAt: now.UTC(),
		Payload:    payload,
	}, nil
}

// DecodeOrder returns the order record carried by an order.submitted envelope
func (e Envelope) DecodeOrder() (order.Record, error) {
	if e.EventType != OrderSubmittedType {
		return order.Record{}, fmt.Errorf("unexpected event type: %s", e.EventType)
	}
	var record order.Record
	if err := json.Unmarshal(e.Payload, &record); err != nil {
		return order.Record{}, fmt.Errorf("failed to unmarshal order record: %w", err)
	}
	return record, nil
}
