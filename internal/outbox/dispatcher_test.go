package outbox

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/brynevale/admincore-backend/internal/domain/event"
	"github.com/brynevale/admincore-backend/internal/pkg/dbctx"
	"github.com/brynevale/admincore-backend/internal/platform/logger"
	"github.com/brynevale/admincore-backend/internal/projection"
	"github.com/brynevale/admincore-backend/internal/types"
)

// stubOutbox holds a canned batch and records state transitions.
type stubOutbox struct {
	mu         sync.Mutex
	due        []*types.OutboxEvent
	dispatched []uuid.UUID
	failed     map[uuid.UUID]failedMark
}

type failedMark struct {
	attempts int
	next     time.Time
	lastErr  string
}

func newStubOutbox(due ...*types.OutboxEvent) *stubOutbox {
	return &stubOutbox{due: due, failed: map[uuid.UUID]failedMark{}}
}

func (s *stubOutbox) Append(dbc dbctx.Context, events []event.Event) error { return nil }

func (s *stubOutbox) DuePending(dbc dbctx.Context, now time.Time, limit int) ([]*types.OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.OutboxEvent, len(s.due))
	copy(out, s.due)
	return out, nil
}

func (s *stubOutbox) MarkDispatched(dbc dbctx.Context, ids []uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatched = append(s.dispatched, ids...)
	return nil
}

func (s *stubOutbox) MarkFailed(dbc dbctx.Context, id uuid.UUID, attempts int, nextAttemptAt time.Time, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[id] = failedMark{attempts: attempts, next: nextAttemptAt, lastErr: lastError}
	return nil
}

func (s *stubOutbox) CountPending(dbc dbctx.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.due)), nil
}

// recordingProjector applies everything and remembers the delivery order.
// failOn makes one event id fail every attempt.
type recordingProjector struct {
	mu      sync.Mutex
	applied []uuid.UUID
	failOn  uuid.UUID
}

func (p *recordingProjector) Name() string { return "recording" }

func (p *recordingProjector) Handles(aggregateType string) bool { return true }

func (p *recordingProjector) Apply(ctx context.Context, evt *types.OutboxEvent) (projection.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if evt.EventID == p.failOn {
		return projection.ResultApplied, fmt.Errorf("induced failure")
	}
	p.applied = append(p.applied, evt.EventID)
	return projection.ResultApplied, nil
}

func pendingEvt(aggregateID uuid.UUID, version int) *types.OutboxEvent {
	return &types.OutboxEvent{
		ID:            uuid.New(),
		EventID:       uuid.New(),
		EventType:     "tenant.updated",
		AggregateID:   aggregateID,
		AggregateType: "tenant",
		Version:       version,
		OccurredOn:    time.Now().UTC(),
		Payload:       []byte(`{}`),
		Status:        types.OutboxStatusPending,
	}
}

func newTestDispatcher(t *testing.T, store *stubOutbox, p projection.Projector, cfg Config) *Dispatcher {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return NewDispatcher(store, []projection.Projector{p}, nil, nil, log, nil, cfg)
}

func TestGroupByAggregatePreservesOrder(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	rows := []*types.OutboxEvent{
		pendingEvt(a, 1), pendingEvt(a, 2), pendingEvt(b, 1), pendingEvt(a, 3), pendingEvt(b, 2),
	}
	groups := groupByAggregate(rows)
	if len(groups) != 2 {
		t.Fatalf("groups: want=2 got=%d", len(groups))
	}
	for _, group := range groups {
		for i, evt := range group {
			if evt.AggregateID != group[0].AggregateID {
				t.Fatalf("group mixes aggregates: %v", group)
			}
			if evt.Version != i+1 {
				t.Fatalf("group out of order: version=%d at index=%d", evt.Version, i)
			}
		}
	}
}

func TestDrainDispatchesBatch(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	store := newStubOutbox(pendingEvt(a, 1), pendingEvt(a, 2), pendingEvt(b, 1))
	proj := &recordingProjector{}
	d := newTestDispatcher(t, store, proj, Config{})

	if err := d.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(store.dispatched) != 3 {
		t.Fatalf("dispatched: want=3 got=%d", len(store.dispatched))
	}
	if len(proj.applied) != 3 {
		t.Fatalf("applied: want=3 got=%d", len(proj.applied))
	}
}

func TestDrainFailureHoldsLaterVersions(t *testing.T) {
	a := uuid.New()
	first := pendingEvt(a, 1)
	second := pendingEvt(a, 2)
	store := newStubOutbox(first, second)
	proj := &recordingProjector{failOn: first.EventID}
	d := newTestDispatcher(t, store, proj, Config{})

	if err := d.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(store.dispatched) != 0 {
		t.Fatalf("nothing should dispatch after a group failure, got %d", len(store.dispatched))
	}
	mark, ok := store.failed[first.ID]
	if !ok {
		t.Fatal("failed event not rescheduled")
	}
	if mark.attempts != 1 || mark.lastErr == "" {
		t.Fatalf("failure mark: %+v", mark)
	}
	if _, ok := store.failed[second.ID]; ok {
		t.Fatal("later version must be held, not marked failed")
	}
	if len(proj.applied) != 0 {
		t.Fatalf("later version leaked past a failed earlier one: %v", proj.applied)
	}
}

func TestDrainIndependentAggregatesProgress(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	broken := pendingEvt(a, 1)
	healthy := pendingEvt(b, 1)
	store := newStubOutbox(broken, healthy)
	proj := &recordingProjector{failOn: broken.EventID}
	d := newTestDispatcher(t, store, proj, Config{})

	if err := d.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(store.dispatched) != 1 || store.dispatched[0] != healthy.ID {
		t.Fatalf("healthy aggregate must still dispatch: %v", store.dispatched)
	}
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	d := newTestDispatcher(t, newStubOutbox(), &recordingProjector{}, Config{
		BaseBackoff: time.Second,
		MaxBackoff:  10 * time.Second,
	})
	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second},
		{20, 10 * time.Second},
	}
	for _, tc := range cases {
		if got := d.backoff(tc.attempts); got != tc.want {
			t.Errorf("backoff(%d): want=%s got=%s", tc.attempts, tc.want, got)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.PollInterval <= 0 || cfg.BatchSize <= 0 || cfg.WorkerLimit <= 0 {
		t.Fatalf("defaults not filled: %+v", cfg)
	}
	if cfg.BaseBackoff <= 0 || cfg.MaxBackoff < cfg.BaseBackoff {
		t.Fatalf("backoff defaults: %+v", cfg)
	}

	keep := Config{PollInterval: time.Minute, BatchSize: 5, WorkerLimit: 1, BaseBackoff: time.Millisecond, MaxBackoff: time.Second}
	if got := keep.withDefaults(); got != keep {
		t.Fatalf("explicit config overwritten: %+v", got)
	}
}

func TestDrainEmptyBatchIsQuiet(t *testing.T) {
	store := newStubOutbox()
	proj := &recordingProjector{}
	d := newTestDispatcher(t, store, proj, Config{})
	if err := d.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(proj.applied) != 0 || len(store.dispatched) != 0 {
		t.Fatal("empty batch must not deliver anything")
	}
}
