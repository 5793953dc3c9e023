package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

type EventType string

const (
	EventTransactionFunded    EventType = "transaction_funded"
	EventTransactionAccepted  EventType = "transaction_accepted"
	EventWorkSubmitted        EventType = "work_submitted"
	EventMilestoneApproved    EventType = "milestone_approved"
	EventRevisionRequested    EventType = "revision_requested"
	EventTransactionCompleted EventType = "transaction_completed"
	EventMilestoneDisputed    EventType = "milestone_disputed"
)

// EventPayload carries full entity snapshots so listeners need no extra lookup.
type EventPayload struct {
	Transaction *EscrowTransaction `json:"transaction,omitempty"`
	Milestone   *Milestone         `json:"milestone,omitempty"`
	Buyer       *User              `json:"buyer,omitempty"`
	Seller      *User              `json:"seller,omitempty"`
}

// Value implements the driver.Valuer interface
func (p EventPayload) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements the sql.Scanner interface
func (p *EventPayload) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		return nil
	default:
		return errors.New("unsupported event payload type")
	}
	return json.Unmarshal(data, p)
}

// OutboxEvent is a domain event appended inside the atomic unit that produced
// it and delivered after commit by the dispatcher.
type OutboxEvent struct {
	ID           uint         `gorm:"primarykey" json:"id"`
	EventID      string       `gorm:"size:36;uniqueIndex;not null" json:"event_id"`
	Type         EventType    `gorm:"size:40;not null" json:"type"`
	Payload      EventPayload `gorm:"type:jsonb;not null" json:"payload"`
	Attempts     int          `gorm:"not null;default:0" json:"attempts"`
	LastError    string       `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	DispatchedAt *time.Time   `gorm:"index" json:"dispatched_at,omitempty"`
}

func (OutboxEvent) TableName() string {
	return "outbox_events"
}
