package directory

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/brynevale/admincore-backend/internal/domain/aggregates"
	"github.com/brynevale/admincore-backend/internal/domain/lifecycle"
)

// statusChange validates a requested transition against the lifecycle
// table. changed=false with nil error is the same-status no-op.
func statusChange(op string, current string, to lifecycle.Status) (changed bool, err error) {
	cur := lifecycle.Status(current)
	if !lifecycle.Known(to) {
		return false, aggregates.NewError(aggregates.CodeBusinessRule, op,
			fmt.Sprintf("unknown status %q", to), nil)
	}
	if to == cur {
		return false, nil
	}
	if !lifecycle.CanTransition(cur, to) {
		return false, aggregates.NewError(aggregates.CodeBusinessRule, op,
			fmt.Sprintf("invalid state transition %s -> %s", cur, to), nil)
	}
	return true, nil
}

func uuidSetEqual(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[uuid.UUID]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		seen[id]--
		if seen[id] < 0 {
			return false
		}
	}
	return true
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func uuidPtrString(p *uuid.UUID) any {
	if p == nil {
		return nil
	}
	return p.String()
}
