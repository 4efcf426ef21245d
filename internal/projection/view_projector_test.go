package projection

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brynevale/admincore-backend/internal/data/readmodel"
	"github.com/brynevale/admincore-backend/internal/domain/directory"
	"github.com/brynevale/admincore-backend/internal/domain/event"
	"github.com/brynevale/admincore-backend/internal/domain/lifecycle"
	"github.com/brynevale/admincore-backend/internal/domain/notification"
	"github.com/brynevale/admincore-backend/internal/domain/scope"
	"github.com/brynevale/admincore-backend/internal/pkg/dbctx"
	"github.com/brynevale/admincore-backend/internal/platform/logger"
	"github.com/brynevale/admincore-backend/internal/types"
)

// memViewStore is an in-memory ViewRepo with CAS on last_applied_version.
type memViewStore struct {
	docs map[uuid.UUID]*types.ViewDocument
	// forceStale makes the next UpdateApplied lose the CAS race.
	forceStale bool
}

func newMemViewStore() *memViewStore {
	return &memViewStore{docs: map[uuid.UUID]*types.ViewDocument{}}
}

func (s *memViewStore) Get(dbc dbctx.Context, id uuid.UUID) (*types.ViewDocument, error) {
	doc, ok := s.docs[id]
	if !ok || doc.DeletedAt != nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *doc
	return &cp, nil
}

func (s *memViewStore) GetByNaturalKey(dbc dbctx.Context, aggregateType string, tenantID uuid.UUID, naturalKey string) (*types.ViewDocument, error) {
	for _, doc := range s.docs {
		if doc.AggregateType == aggregateType && doc.TenantID == tenantID && doc.NaturalKey == naturalKey && doc.DeletedAt == nil {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memViewStore) List(dbc dbctx.Context, q readmodel.ListQuery) ([]*types.ViewDocument, error) {
	return nil, nil
}

func (s *memViewStore) Count(dbc dbctx.Context, q readmodel.ListQuery) (int64, error) {
	return 0, nil
}

func (s *memViewStore) GetAny(dbc dbctx.Context, id uuid.UUID) (*types.ViewDocument, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *doc
	return &cp, nil
}

func (s *memViewStore) Insert(dbc dbctx.Context, doc *types.ViewDocument) error {
	if _, ok := s.docs[doc.AggregateID]; ok {
		return gorm.ErrDuplicatedKey
	}
	cp := *doc
	s.docs[doc.AggregateID] = &cp
	return nil
}

func (s *memViewStore) UpdateApplied(dbc dbctx.Context, doc *types.ViewDocument, prevApplied int) (bool, error) {
	if s.forceStale {
		s.forceStale = false
		return false, nil
	}
	stored, ok := s.docs[doc.AggregateID]
	if !ok || stored.LastAppliedVersion != prevApplied {
		return false, nil
	}
	cp := *doc
	s.docs[doc.AggregateID] = &cp
	return true, nil
}

func newTestProjector(t *testing.T) (Projector, *memViewStore) {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	store := newMemViewStore()
	return NewDirectoryProjector(store, log, nil), store
}

func outboxEvt(t *testing.T, eventType, aggregateType string, aggregateID uuid.UUID, version int, payload any) *types.OutboxEvent {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &types.OutboxEvent{
		ID:            uuid.New(),
		EventID:       uuid.New(),
		EventType:     eventType,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		Version:       version,
		OccurredOn:    time.Now().UTC(),
		Payload:       raw,
		Status:        types.OutboxStatusPending,
	}
}

func createdEvt(t *testing.T, aggregateID, tenantID uuid.UUID) *types.OutboxEvent {
	return outboxEvt(t, directory.EventTenantCreated, directory.AggregateTenant, aggregateID, 1, event.CreatedPayload{
		Actor:          uuid.New(),
		TenantID:       tenantID,
		IsolationLevel: string(scope.IsolationTenant),
		PrivacyLevel:   string(scope.PrivacyShared),
		Status:         string(lifecycle.StatusInitializing),
		Name:           "Acme Corp",
		Code:           "ACME",
		NaturalKey:     "ACME",
		Fields:         map[string]any{"description": "widgets"},
	})
}

func TestProjectorHandledSets(t *testing.T) {
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	dir := NewDirectoryProjector(newMemViewStore(), log, nil)
	tpl := NewTemplateProjector(newMemViewStore(), log, nil)

	if !dir.Handles(directory.AggregateDepartment) || dir.Handles(notification.AggregateTemplate) {
		t.Fatal("directory projector handled set is wrong")
	}
	if !tpl.Handles(notification.AggregateTemplate) || tpl.Handles(directory.AggregateTenant) {
		t.Fatal("template projector handled set is wrong")
	}
}

func TestProjectorApplyCreated(t *testing.T) {
	p, store := newTestProjector(t)
	aggID, tenantID := uuid.New(), uuid.New()

	res, err := p.Apply(context.Background(), createdEvt(t, aggID, tenantID))
	if err != nil || res != ResultApplied {
		t.Fatalf("apply created: res=%v err=%v", res, err)
	}
	doc := store.docs[aggID]
	if doc == nil {
		t.Fatal("document not inserted")
	}
	if doc.TenantID != tenantID || doc.NaturalKey != "ACME" || doc.LastAppliedVersion != 1 {
		t.Fatalf("document: %+v", doc)
	}
	if doc.Doc["description"] != "widgets" {
		t.Fatalf("extra fields not projected: %v", doc.Doc)
	}

	// Redelivery of the same created event is a duplicate, not an error.
	res, err = p.Apply(context.Background(), createdEvt(t, aggID, tenantID))
	if err != nil || res != ResultDuplicate {
		t.Fatalf("redelivered created: res=%v err=%v", res, err)
	}
}

func TestProjectorApplyUpdateAndStatus(t *testing.T) {
	p, store := newTestProjector(t)
	aggID, tenantID := uuid.New(), uuid.New()
	if _, err := p.Apply(context.Background(), createdEvt(t, aggID, tenantID)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	upd := outboxEvt(t, directory.EventTenantUpdated, directory.AggregateTenant, aggID, 2, event.UpdatedPayload{
		Actor: uuid.New(),
		ChangedFields: map[string]event.FieldChange{
			"name": {Old: "Acme Corp", New: "Acme Holdings"},
		},
	})
	if res, err := p.Apply(context.Background(), upd); err != nil || res != ResultApplied {
		t.Fatalf("apply updated: res=%v err=%v", res, err)
	}
	doc := store.docs[aggID]
	if doc.Name != "Acme Holdings" || doc.Doc["name"] != "Acme Holdings" || doc.LastAppliedVersion != 2 {
		t.Fatalf("update not projected: %+v", doc)
	}

	st := outboxEvt(t, directory.EventTenantStatusChanged, directory.AggregateTenant, aggID, 3, event.StatusChangedPayload{
		Actor:          uuid.New(),
		PreviousStatus: string(lifecycle.StatusInitializing),
		NewStatus:      string(lifecycle.StatusActive),
	})
	if res, err := p.Apply(context.Background(), st); err != nil || res != ResultApplied {
		t.Fatalf("apply status: res=%v err=%v", res, err)
	}
	if got := store.docs[aggID].Status; got != string(lifecycle.StatusActive) {
		t.Fatalf("status: want=%s got=%s", lifecycle.StatusActive, got)
	}
}

func TestProjectorDuplicateAndGap(t *testing.T) {
	p, store := newTestProjector(t)
	aggID, tenantID := uuid.New(), uuid.New()
	if _, err := p.Apply(context.Background(), createdEvt(t, aggID, tenantID)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	dup := outboxEvt(t, directory.EventTenantUpdated, directory.AggregateTenant, aggID, 1, event.UpdatedPayload{
		ChangedFields: map[string]event.FieldChange{"name": {Old: "a", New: "b"}},
	})
	if res, err := p.Apply(context.Background(), dup); err != nil || res != ResultDuplicate {
		t.Fatalf("stale version: res=%v err=%v", res, err)
	}
	if store.docs[aggID].Name != "Acme Corp" {
		t.Fatal("stale event must not mutate the document")
	}

	gap := outboxEvt(t, directory.EventTenantUpdated, directory.AggregateTenant, aggID, 3, event.UpdatedPayload{
		ChangedFields: map[string]event.FieldChange{"name": {Old: "a", New: "b"}},
	})
	if _, err := p.Apply(context.Background(), gap); !errors.Is(err, ErrGap) {
		t.Fatalf("skipped version must hold: err=%v", err)
	}

	// Mutation before the created event arrived is also a gap.
	orphan := outboxEvt(t, directory.EventTenantStatusChanged, directory.AggregateTenant, uuid.New(), 2, event.StatusChangedPayload{
		NewStatus: string(lifecycle.StatusActive),
	})
	if _, err := p.Apply(context.Background(), orphan); !errors.Is(err, ErrGap) {
		t.Fatalf("mutation without created must hold: err=%v", err)
	}
}

func TestProjectorDeletedTombstones(t *testing.T) {
	p, store := newTestProjector(t)
	aggID, tenantID := uuid.New(), uuid.New()
	if _, err := p.Apply(context.Background(), createdEvt(t, aggID, tenantID)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	del := outboxEvt(t, directory.EventTenantDeleted, directory.AggregateTenant, aggID, 2, event.DeletedPayload{Actor: uuid.New()})
	if res, err := p.Apply(context.Background(), del); err != nil || res != ResultApplied {
		t.Fatalf("apply deleted: res=%v err=%v", res, err)
	}
	doc := store.docs[aggID]
	if doc.DeletedAt == nil || doc.Status != string(lifecycle.StatusDeleted) {
		t.Fatalf("tombstone missing: %+v", doc)
	}
	if _, err := store.Get(dbctx.New(context.Background()), aggID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatal("tombstoned document must be invisible to readers")
	}

	// The deleted event may be redelivered.
	if res, err := p.Apply(context.Background(), del); err != nil || res != ResultDuplicate {
		t.Fatalf("redelivered deleted: res=%v err=%v", res, err)
	}
}

func TestProjectorUnknownEventTypeDropped(t *testing.T) {
	p, _ := newTestProjector(t)
	evt := outboxEvt(t, directory.AggregateTenant+".archived", directory.AggregateTenant, uuid.New(), 2, map[string]any{})
	if res, err := p.Apply(context.Background(), evt); err != nil || res != ResultUnknown {
		t.Fatalf("unknown type: res=%v err=%v", res, err)
	}

	foreign := outboxEvt(t, "template.created", notification.AggregateTemplate, uuid.New(), 1, event.CreatedPayload{})
	if res, err := p.Apply(context.Background(), foreign); err != nil || res != ResultUnknown {
		t.Fatalf("unhandled aggregate: res=%v err=%v", res, err)
	}
}

func TestProjectorLostRaceReadsAsDuplicate(t *testing.T) {
	p, store := newTestProjector(t)
	aggID, tenantID := uuid.New(), uuid.New()
	if _, err := p.Apply(context.Background(), createdEvt(t, aggID, tenantID)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	store.forceStale = true
	upd := outboxEvt(t, directory.EventTenantUpdated, directory.AggregateTenant, aggID, 2, event.UpdatedPayload{
		ChangedFields: map[string]event.FieldChange{"name": {Old: "a", New: "b"}},
	})
	if res, err := p.Apply(context.Background(), upd); err != nil || res != ResultDuplicate {
		t.Fatalf("lost race: res=%v err=%v", res, err)
	}
}
