package services

import (
	"context"

	domainagg "github.com/brynevale/admincore-backend/internal/domain/aggregates"
	"github.com/brynevale/admincore-backend/internal/domain/event"
	"github.com/brynevale/admincore-backend/internal/domain/scope"
	"github.com/brynevale/admincore-backend/internal/platform/logger"
	"github.com/brynevale/admincore-backend/internal/realtime"
	"github.com/brynevale/admincore-backend/internal/realtime/bus"
)

// publishAndClear runs after the write transaction commits: it fans the
// committed events out as wake-up notices and then empties the buffer so
// a reused aggregate instance cannot re-publish. Publishing is best
// effort; the outbox guarantees delivery, the bus only lowers latency.
func publishAndClear(ctx context.Context, b bus.Bus, log *logger.Logger, rec *event.Recorder) {
	if b != nil {
		for _, e := range rec.Uncommitted() {
			notice := realtime.EventNotice{
				EventID:       e.EventID,
				EventType:     e.EventType,
				AggregateID:   e.AggregateID,
				AggregateType: e.AggregateType,
				Version:       e.Version,
				OccurredOn:    e.OccurredOn,
			}
			if err := b.Publish(ctx, notice); err != nil {
				log.Warn("event notice publish failed", "event_type", e.EventType, "error", err)
			}
		}
	}
	rec.ClearUncommitted()
}

// requireAccess converts an isolation failure into a not-found error, so
// callers cannot distinguish "exists but hidden" from "does not exist".
func requireAccess(op string, accessor scope.Accessor, target scope.Scope) error {
	if scope.CanAccess(accessor, target) {
		return nil
	}
	return domainagg.NewError(domainagg.CodeNotFound, op, "not found", nil)
}
