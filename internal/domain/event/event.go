package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is an immutable fact recorded by an aggregate mutation. Version is
// monotonic per aggregate and starts at 1 with the created event. Payload
// is a typed struct owned by the aggregate's package; it is serialized to
// JSON only at the outbox boundary.
type Event struct {
	EventID       uuid.UUID
	EventType     string
	AggregateID   uuid.UUID
	AggregateType string
	Version       int
	OccurredOn    time.Time
	Payload       any
}

// New stamps a fresh event envelope. OccurredOn is normalized to UTC.
func New(eventType, aggregateType string, aggregateID uuid.UUID, version int, occurredOn time.Time, payload any) Event {
	return Event{
		EventID:       uuid.New(),
		EventType:     eventType,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		Version:       version,
		OccurredOn:    occurredOn.UTC(),
		Payload:       payload,
	}
}

// Recorder buffers uncommitted events for an aggregate. Embed it in an
// aggregate struct; the use case drains it into the outbox after the
// snapshot persists and then clears it so a reused instance cannot
// re-dispatch.
type Recorder struct {
	pending []Event
}

// Record appends one event to the buffer.
func (r *Recorder) Record(e Event) {
	r.pending = append(r.pending, e)
}

// Uncommitted returns the buffered events in record order.
func (r *Recorder) Uncommitted() []Event {
	return r.pending
}

// ClearUncommitted empties the buffer.
func (r *Recorder) ClearUncommitted() {
	r.pending = nil
}
