package directory

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/brynevale/admincore-backend/internal/domain/event"
	"github.com/brynevale/admincore-backend/internal/domain/lifecycle"
	"github.com/brynevale/admincore-backend/internal/domain/scope"
)

func newTestTenant(t *testing.T) *Tenant {
	t.Helper()
	return NewTenant(NewTenantInput{
		Name:         "Acme Industries",
		Code:         "ACME",
		Description:  "primary tenant",
		ContactEmail: "ops@acme.test",
		Actor:        uuid.New(),
		Now:          time.Now(),
	})
}

func TestNewTenantRecordsCreatedEvent(t *testing.T) {
	agg := newTestTenant(t)

	if agg.T.ID != agg.T.TenantID {
		t.Fatalf("tenant must be its own tenant scope: id=%s tenant_id=%s", agg.T.ID, agg.T.TenantID)
	}
	if agg.T.Status != string(lifecycle.StatusInitializing) {
		t.Fatalf("status: want=%s got=%s", lifecycle.StatusInitializing, agg.T.Status)
	}
	if agg.T.Version != 1 {
		t.Fatalf("version: want=1 got=%d", agg.T.Version)
	}
	if agg.T.IsolationLevel != string(scope.IsolationTenant) {
		t.Fatalf("isolation: want=%s got=%s", scope.IsolationTenant, agg.T.IsolationLevel)
	}

	events := agg.Uncommitted()
	if len(events) != 1 {
		t.Fatalf("events: want=1 got=%d", len(events))
	}
	evt := events[0]
	if evt.EventType != EventTenantCreated {
		t.Fatalf("event type: want=%s got=%s", EventTenantCreated, evt.EventType)
	}
	if evt.Version != 1 || evt.AggregateID != agg.T.ID {
		t.Fatalf("event envelope mismatch: version=%d aggregate_id=%s", evt.Version, evt.AggregateID)
	}
	payload, ok := evt.Payload.(event.CreatedPayload)
	if !ok {
		t.Fatalf("payload: want CreatedPayload got=%T", evt.Payload)
	}
	if payload.NaturalKey != "ACME" {
		t.Fatalf("natural key: want=ACME got=%s", payload.NaturalKey)
	}
}

func TestTenantUpdateInfoDiffsFields(t *testing.T) {
	agg := newTestTenant(t)
	agg.ClearUncommitted()
	actor := uuid.New()

	newName := "Acme Holdings"
	sameDesc := agg.T.Description
	if !agg.UpdateInfo(TenantInfoUpdate{Name: &newName, Description: &sameDesc}, actor, time.Now()) {
		t.Fatalf("changed name must report a change")
	}
	if agg.T.Version != 2 {
		t.Fatalf("version: want=2 got=%d", agg.T.Version)
	}

	events := agg.Uncommitted()
	if len(events) != 1 {
		t.Fatalf("events: want=1 got=%d", len(events))
	}
	payload, ok := events[0].Payload.(event.UpdatedPayload)
	if !ok {
		t.Fatalf("payload: want UpdatedPayload got=%T", events[0].Payload)
	}
	if len(payload.ChangedFields) != 1 {
		t.Fatalf("changed fields: want only name, got=%v", payload.ChangedFields)
	}
	change, ok := payload.ChangedFields["name"]
	if !ok {
		t.Fatalf("name change missing: %v", payload.ChangedFields)
	}
	if change.Old != "Acme Industries" || change.New != "Acme Holdings" {
		t.Fatalf("name change: old=%v new=%v", change.Old, change.New)
	}
}

func TestTenantUpdateInfoNoOp(t *testing.T) {
	agg := newTestTenant(t)
	agg.ClearUncommitted()

	sameName := agg.T.Name
	updatedAt := agg.T.UpdatedAt
	if agg.UpdateInfo(TenantInfoUpdate{Name: &sameName}, uuid.New(), time.Now()) {
		t.Fatalf("identical values must be a no-op")
	}
	if agg.T.Version != 1 {
		t.Fatalf("no-op must not bump version, got=%d", agg.T.Version)
	}
	if !agg.T.UpdatedAt.Equal(updatedAt) {
		t.Fatalf("no-op must not touch updated_at")
	}
	if len(agg.Uncommitted()) != 0 {
		t.Fatalf("no-op must record no events, got=%d", len(agg.Uncommitted()))
	}
}

func TestTenantChangeStatus(t *testing.T) {
	agg := newTestTenant(t)
	agg.ClearUncommitted()
	actor := uuid.New()

	if err := agg.ChangeStatus(lifecycle.StatusActive, actor, time.Now()); err != nil {
		t.Fatalf("INITIALIZING -> ACTIVE: %v", err)
	}
	if agg.T.Version != 2 || agg.T.Status != string(lifecycle.StatusActive) {
		t.Fatalf("after transition: version=%d status=%s", agg.T.Version, agg.T.Status)
	}
	payload, ok := agg.Uncommitted()[0].Payload.(event.StatusChangedPayload)
	if !ok {
		t.Fatalf("payload: want StatusChangedPayload got=%T", agg.Uncommitted()[0].Payload)
	}
	if payload.PreviousStatus != string(lifecycle.StatusInitializing) || payload.NewStatus != string(lifecycle.StatusActive) {
		t.Fatalf("payload: prev=%s new=%s", payload.PreviousStatus, payload.NewStatus)
	}

	// Same-status request: success, no event, no version bump.
	agg.ClearUncommitted()
	if err := agg.ChangeStatus(lifecycle.StatusActive, actor, time.Now()); err != nil {
		t.Fatalf("same-status must be a silent no-op: %v", err)
	}
	if agg.T.Version != 2 || len(agg.Uncommitted()) != 0 {
		t.Fatalf("same-status no-op leaked: version=%d events=%d", agg.T.Version, len(agg.Uncommitted()))
	}

	// Illegal transition.
	if err := agg.ChangeStatus(lifecycle.StatusInitializing, actor, time.Now()); err == nil {
		t.Fatalf("ACTIVE -> INITIALIZING must be rejected")
	}

	// Unknown status.
	if err := agg.ChangeStatus(lifecycle.Status("ARCHIVED"), actor, time.Now()); err == nil {
		t.Fatalf("unknown status must be rejected")
	}
}

func TestTenantDeleteIsTerminalAndIdempotent(t *testing.T) {
	agg := newTestTenant(t)
	agg.ClearUncommitted()
	actor := uuid.New()

	if !agg.Delete(actor, time.Now()) {
		t.Fatalf("first delete must apply")
	}
	if agg.T.Status != string(lifecycle.StatusDeleted) || agg.T.Version != 2 {
		t.Fatalf("after delete: status=%s version=%d", agg.T.Status, agg.T.Version)
	}
	if agg.Uncommitted()[0].EventType != EventTenantDeleted {
		t.Fatalf("event type: want=%s got=%s", EventTenantDeleted, agg.Uncommitted()[0].EventType)
	}

	agg.ClearUncommitted()
	if agg.Delete(actor, time.Now()) {
		t.Fatalf("second delete must be a no-op")
	}
	if agg.T.Version != 2 || len(agg.Uncommitted()) != 0 {
		t.Fatalf("idempotent delete leaked: version=%d events=%d", agg.T.Version, len(agg.Uncommitted()))
	}

	if err := agg.ChangeStatus(lifecycle.StatusActive, actor, time.Now()); err == nil {
		t.Fatalf("DELETED is terminal; no transition may leave it")
	}
}
