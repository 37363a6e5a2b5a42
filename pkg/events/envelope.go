package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Envelope is the wire form of a DomainEvent.
type Envelope struct {
	OccurredAt    time.Time       `json:"occurred_at"`
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	Payload       json.RawMessage `json:"payload"`
	EventID       uuid.UUID       `json:"event_id"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
}

// Seal wraps evt in an Envelope and encodes it. An empty payload is written
// as JSON null.
func Seal(evt DomainEvent) ([]byte, error) {
	payload := json.RawMessage(evt.Payload())
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	data, err := json.Marshal(Envelope{
		EventID:       evt.EventID(),
		EventType:     evt.EventType(),
		AggregateID:   evt.AggregateID(),
		AggregateType: evt.AggregateType(),
		OccurredAt:    evt.OccurredAt(),
		Payload:       payload,
	})
	if err != nil {
		return nil, fmt.Errorf("seal event %s: %w", evt.EventType(), err)
	}
	return data, nil
}

// Open decodes an envelope written by Seal.
func Open(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("open event envelope: %w", err)
	}
	if env.EventID == uuid.Nil || env.EventType == "" {
		return Envelope{}, errors.New("open event envelope: missing event_id or event_type")
	}
	return env, nil
}
