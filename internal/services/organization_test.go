package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	aggtestutil "github.com/brynevale/admincore-backend/internal/data/aggregates/testutil"
	domainagg "github.com/brynevale/admincore-backend/internal/domain/aggregates"
	"github.com/brynevale/admincore-backend/internal/domain/lifecycle"
	"github.com/brynevale/admincore-backend/internal/domain/scope"
	"github.com/brynevale/admincore-backend/internal/realtime/bus"
	"github.com/brynevale/admincore-backend/internal/types"
)

func orgRow(tenantID uuid.UUID, code string) *types.Organization {
	id := uuid.New()
	now := time.Now().UTC()
	return &types.Organization{
		ID:             id,
		TenantID:       tenantID,
		IsolationLevel: string(scope.IsolationOrganization),
		PrivacyLevel:   string(scope.PrivacyShared),
		Name:           "Org " + code,
		Code:           code,
		Status:         string(lifecycle.StatusActive),
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func newOrganizationFixture(t *testing.T) (OrganizationService, *fakeOrganizationRepo, *fakeDepartmentRepo, *fakeOutbox) {
	t.Helper()
	depts := newFakeDepartmentRepo()
	orgs := newFakeOrganizationRepo(depts)
	outbox := &fakeOutbox{}
	hooks := &aggtestutil.HooksRecorder{}
	svc := NewOrganizationService(newTestDeps(t, hooks), orgs, nil, nil, outbox, bus.NewLocalBus())
	return svc, orgs, depts, outbox
}

func TestOrganizationDeleteBlockedByDepartments(t *testing.T) {
	svc, orgs, depts, _ := newOrganizationFixture(t)
	tenantID := uuid.New()

	org := orgRow(tenantID, "ENG")
	orgs.put(org)
	dept := deptRow(tenantID, org.ID, "OPS", nil)
	depts.put(dept)

	if err := svc.Delete(context.Background(), platformAccessor(), org.ID); !domainagg.IsCode(err, domainagg.CodeBusinessRule) {
		t.Fatalf("delete with departments: want business_rule, got=%v", err)
	}

	// Tombstoning the department frees the organization.
	dept.Status = string(lifecycle.StatusDeleted)
	depts.put(dept)
	if err := svc.Delete(context.Background(), platformAccessor(), org.ID); err != nil {
		t.Fatalf("delete freed org: %v", err)
	}

	row, err := orgs.GetByID(dbcTODO(), org.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if row.Status != string(lifecycle.StatusDeleted) {
		t.Fatalf("status after delete: %s", row.Status)
	}
}
