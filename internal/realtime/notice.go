package realtime

import (
	"time"

	"github.com/google/uuid"
)

// EventNotice is the lightweight fan-out message published after a write
// commits. The dispatcher uses it as a wake-up signal; read-side callers
// can use it to refresh without polling.
type EventNotice struct {
	EventID       uuid.UUID `json:"event_id"`
	EventType     string    `json:"event_type"`
	AggregateID   uuid.UUID `json:"aggregate_id"`
	AggregateType string    `json:"aggregate_type"`
	Version       int       `json:"version"`
	OccurredOn    time.Time `json:"occurred_on"`
}
