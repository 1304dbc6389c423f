package outbox

import (
	"encoding/json"
	"time"
)

// Event is the envelope written to the outbox table. The Kafka topic is the
// event type.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	AggregateBusinessHours = "business_hours"

	EventHoursUpdated = "business.hours.updated.v1"
	EventHoursDeleted = "business.hours.deleted.v1"
	EventHoursOpened  = "business.hours.opened.v1"
	EventHoursClosed  = "business.hours.closed.v1"
)

// TransitionPayload is published when a business opens or closes.
type TransitionPayload struct {
	BusinessID   string     `json:"business_id"`
	Open         bool       `json:"open"`
	At           time.Time  `json:"at"`
	Timezone     string     `json:"timezone"`
	NextChangeAt *time.Time `json:"next_change_at,omitempty"`
	SpecVersion  int64      `json:"spec_version"`
}

// UpdatePayload is published when a business changes its hours.
type UpdatePayload struct {
	BusinessID      string   `json:"business_id"`
	Spec            string   `json:"spec"`
	Timezone        string   `json:"timezone"`
	Version         int64    `json:"version"`
	OpeningTriggers []string `json:"opening_triggers"`
	ClosingTriggers []string `json:"closing_triggers"`
}

func NewEvent(eventType, businessID string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: AggregateBusinessHours,
		AggregateID:   businessID,
		EventType:     eventType,
		Payload:       raw,
	}, nil
}
