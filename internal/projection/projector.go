package projection

import (
	"context"
	"errors"

	"github.com/brynevale/admincore-backend/internal/types"
)

// ErrGap signals the event cannot be applied yet because one or more
// earlier versions of the same aggregate have not arrived. The dispatcher
// holds the aggregate's remaining events and retries later.
var ErrGap = errors.New("projection: version gap")

// Result reports what a projector did with one event.
type Result int

const (
	ResultApplied Result = iota
	// ResultDuplicate means the event version was already applied.
	// Replays land here, which makes redelivery safe.
	ResultDuplicate
	// ResultUnknown means the event type is not part of the projector's
	// closed set. It is logged and dropped without failing the batch.
	ResultUnknown
)

// Projector updates one read-side view from write-side events. Apply
// must be idempotent: redelivering an already-applied event returns
// ResultDuplicate without changing state.
type Projector interface {
	Name() string
	Handles(aggregateType string) bool
	Apply(ctx context.Context, evt *types.OutboxEvent) (Result, error)
}
