package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brynevale/admincore-backend/internal/domain/event"
	"github.com/brynevale/admincore-backend/internal/observability"
	"github.com/brynevale/admincore-backend/internal/pkg/dbctx"
	"github.com/brynevale/admincore-backend/internal/platform/logger"
	"github.com/brynevale/admincore-backend/internal/types"
)

type OutboxRepo interface {
	// Append persists uncommitted events inside the caller's transaction.
	// Payloads are serialized to JSON here, at the write boundary.
	Append(dbc dbctx.Context, events []event.Event) error
	// DuePending returns pending rows whose next attempt is due, ordered
	// by aggregate id then version so per-aggregate delivery stays in
	// event order.
	DuePending(dbc dbctx.Context, now time.Time, limit int) ([]*types.OutboxEvent, error)
	MarkDispatched(dbc dbctx.Context, ids []uuid.UUID, at time.Time) error
	MarkFailed(dbc dbctx.Context, id uuid.UUID, attempts int, nextAttemptAt time.Time, lastError string) error
	CountPending(dbc dbctx.Context) (int64, error)
}

type outboxRepo struct {
	db      *gorm.DB
	log     *logger.Logger
	metrics *observability.Metrics
}

func NewOutboxRepo(db *gorm.DB, baseLog *logger.Logger, metrics *observability.Metrics) OutboxRepo {
	return &outboxRepo{db: db, log: baseLog.With("repo", "OutboxRepo"), metrics: metrics}
}

func (r *outboxRepo) Append(dbc dbctx.Context, events []event.Event) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]*types.OutboxEvent, 0, len(events))
	for _, e := range events {
		payload, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload for %s: %w", e.EventType, err)
		}
		rows = append(rows, &types.OutboxEvent{
			ID:            uuid.New(),
			EventID:       e.EventID,
			EventType:     e.EventType,
			AggregateID:   e.AggregateID,
			AggregateType: e.AggregateType,
			Version:       e.Version,
			OccurredOn:    e.OccurredOn,
			Payload:       payload,
			Status:        types.OutboxStatusPending,
			NextAttemptAt: e.OccurredOn,
		})
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return err
	}
	r.metrics.IncOutboxAppended(len(rows))
	return nil
}

func (r *outboxRepo) DuePending(dbc dbctx.Context, now time.Time, limit int) ([]*types.OutboxEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []*types.OutboxEvent
	if err := dbc.DB(r.db).
		Where("status = ? AND next_attempt_at <= ?", types.OutboxStatusPending, now).
		Order("aggregate_id, version").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *outboxRepo) MarkDispatched(dbc dbctx.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.OutboxEvent{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"status":        types.OutboxStatusDispatched,
			"dispatched_at": at,
			"last_error":    "",
		}).Error
}

func (r *outboxRepo) MarkFailed(dbc dbctx.Context, id uuid.UUID, attempts int, nextAttemptAt time.Time, lastError string) error {
	return dbc.DB(r.db).Model(&types.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":        attempts,
			"next_attempt_at": nextAttemptAt,
			"last_error":      lastError,
		}).Error
}

func (r *outboxRepo) CountPending(dbc dbctx.Context) (int64, error) {
	var count int64
	if err := dbc.DB(r.db).Model(&types.OutboxEvent{}).
		Where("status = ?", types.OutboxStatusPending).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
