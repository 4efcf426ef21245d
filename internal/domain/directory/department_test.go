package directory

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/brynevale/admincore-backend/internal/domain/event"
	"github.com/brynevale/admincore-backend/internal/domain/scope"
)

func newTestDepartment(t *testing.T) *Department {
	t.Helper()
	return NewDepartment(NewDepartmentInput{
		TenantID:       uuid.New(),
		OrganizationID: uuid.New(),
		Name:           "Payroll",
		Code:           "PAYROLL",
		Actor:          uuid.New(),
		Now:            time.Now(),
	})
}

func TestNewDepartmentScopesItself(t *testing.T) {
	agg := newTestDepartment(t)

	if agg.D.IsolationLevel != string(scope.IsolationDepartment) {
		t.Fatalf("isolation: want=%s got=%s", scope.IsolationDepartment, agg.D.IsolationLevel)
	}
	if len(agg.D.DepartmentIDs) != 1 || agg.D.DepartmentIDs[0] != agg.D.ID {
		t.Fatalf("department must carry its own id as scoping dimension, got=%v", agg.D.DepartmentIDs)
	}
	if len(agg.Uncommitted()) != 1 || agg.Uncommitted()[0].EventType != EventDepartmentCreated {
		t.Fatalf("creation must record exactly one created event")
	}
}

func TestDepartmentAssignParent(t *testing.T) {
	agg := newTestDepartment(t)
	agg.ClearUncommitted()
	actor := uuid.New()
	parent := uuid.New()

	if !agg.AssignParent(&parent, actor, time.Now()) {
		t.Fatalf("new parent must apply")
	}
	if agg.D.ParentDepartmentID == nil || *agg.D.ParentDepartmentID != parent {
		t.Fatalf("parent not set: %v", agg.D.ParentDepartmentID)
	}
	payload, ok := agg.Uncommitted()[0].Payload.(event.UpdatedPayload)
	if !ok {
		t.Fatalf("payload: want UpdatedPayload got=%T", agg.Uncommitted()[0].Payload)
	}
	if _, ok := payload.ChangedFields["parent_department_id"]; !ok {
		t.Fatalf("parent change missing from payload: %v", payload.ChangedFields)
	}

	// Same parent again: no-op.
	agg.ClearUncommitted()
	if agg.AssignParent(&parent, actor, time.Now()) {
		t.Fatalf("same parent must be a no-op")
	}
	if len(agg.Uncommitted()) != 0 {
		t.Fatalf("no-op must record no events")
	}

	// Clearing the parent is a change.
	if !agg.AssignParent(nil, actor, time.Now()) {
		t.Fatalf("clearing the parent must apply")
	}
	if agg.D.ParentDepartmentID != nil {
		t.Fatalf("parent not cleared")
	}
}

func TestDepartmentAssignToOrganization(t *testing.T) {
	agg := newTestDepartment(t)
	agg.ClearUncommitted()
	actor := uuid.New()
	orgID := uuid.New()
	deptIDs := []uuid.UUID{agg.D.ID}

	if !agg.AssignToOrganization(orgID, deptIDs, actor, time.Now()) {
		t.Fatalf("assignment must apply")
	}
	if agg.D.IsolationLevel != string(scope.IsolationOrganization) {
		t.Fatalf("isolation after assignment: want=%s got=%s", scope.IsolationOrganization, agg.D.IsolationLevel)
	}
	evt := agg.Uncommitted()[0]
	if evt.EventType != EventDepartmentOrganizationAssigned {
		t.Fatalf("event type: want=%s got=%s", EventDepartmentOrganizationAssigned, evt.EventType)
	}
	payload, ok := evt.Payload.(event.OrganizationAssignedPayload)
	if !ok {
		t.Fatalf("payload: want OrganizationAssignedPayload got=%T", evt.Payload)
	}
	if payload.OrganizationID != orgID {
		t.Fatalf("payload org: want=%s got=%s", orgID, payload.OrganizationID)
	}

	// Identical assignment: no-op, order of department ids ignored.
	agg.ClearUncommitted()
	if agg.AssignToOrganization(orgID, []uuid.UUID{agg.D.ID}, actor, time.Now()) {
		t.Fatalf("identical assignment must be a no-op")
	}
}
