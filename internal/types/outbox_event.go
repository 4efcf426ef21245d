package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	OutboxStatusPending    = "pending"
	OutboxStatusDispatched = "dispatched"
)

// OutboxEvent is a domain event persisted in the same transaction as the
// entity snapshot that produced it. The dispatcher drains pending rows
// at-least-once, in version order per aggregate.
type OutboxEvent struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EventID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"event_id"`
	EventType     string         `gorm:"not null;index" json:"event_type"`
	AggregateID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_outbox_agg_version,priority:1" json:"aggregate_id"`
	AggregateType string         `gorm:"not null;index" json:"aggregate_type"`
	Version       int            `gorm:"not null;index:idx_outbox_agg_version,priority:2" json:"version"`
	OccurredOn    time.Time      `gorm:"not null" json:"occurred_on"`
	Payload       datatypes.JSON `gorm:"type:jsonb;not null" json:"payload"`

	Status        string     `gorm:"not null;default:'pending';index" json:"status"`
	Attempts      int        `gorm:"not null;default:0" json:"attempts"`
	NextAttemptAt time.Time  `gorm:"not null;index" json:"next_attempt_at"`
	LastError     string     `gorm:"type:text" json:"last_error,omitempty"`
	DispatchedAt  *time.Time `json:"dispatched_at,omitempty"`
	CreatedAt     time.Time  `gorm:"not null;default:now()" json:"created_at"`
}

func (OutboxEvent) TableName() string { return "outbox_event" }
