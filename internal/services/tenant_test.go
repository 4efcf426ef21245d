package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	aggtestutil "github.com/brynevale/admincore-backend/internal/data/aggregates/testutil"
	domainagg "github.com/brynevale/admincore-backend/internal/domain/aggregates"
	"github.com/brynevale/admincore-backend/internal/domain/directory"
	"github.com/brynevale/admincore-backend/internal/domain/lifecycle"
	"github.com/brynevale/admincore-backend/internal/domain/scope"
	"github.com/brynevale/admincore-backend/internal/realtime/bus"
	"github.com/brynevale/admincore-backend/internal/types"
)

func platformAccessor() scope.Accessor {
	return scope.Accessor{UserID: uuid.New(), Isolation: scope.IsolationPlatform}
}

func newTenantFixture(t *testing.T) (TenantService, *fakeTenantRepo, *fakeOutbox, *aggtestutil.HooksRecorder) {
	t.Helper()
	repo := newFakeTenantRepo()
	outbox := &fakeOutbox{}
	hooks := &aggtestutil.HooksRecorder{}
	svc := NewTenantService(newTestDeps(t, hooks), repo, outbox, bus.NewLocalBus())
	return svc, repo, outbox, hooks
}

func TestTenantCreateCollectsAllViolations(t *testing.T) {
	svc, _, outbox, _ := newTenantFixture(t)

	_, err := svc.Create(context.Background(), platformAccessor(), CreateTenantInput{
		Name:         "",
		Code:         "bad code",
		ContactEmail: "not-an-email",
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("want validation error, got=%v", err)
	}
	violations := domainagg.ViolationsOf(err)
	if len(violations) != 3 {
		t.Fatalf("violations: want=3 got=%d (%v)", len(violations), violations)
	}
	if len(outbox.events()) != 0 {
		t.Fatalf("validation failure must not reach the outbox")
	}
}

func TestTenantCreateRequiresPlatformAccessor(t *testing.T) {
	svc, _, _, _ := newTenantFixture(t)

	accessor := scope.Accessor{UserID: uuid.New(), TenantID: uuid.New(), Isolation: scope.IsolationTenant}
	_, err := svc.Create(context.Background(), accessor, CreateTenantInput{
		Name: "Acme",
		Code: "ACME",
	})
	if !domainagg.IsCode(err, domainagg.CodeBusinessRule) {
		t.Fatalf("want business_rule, got=%v", err)
	}
}

func TestTenantCreateAppendsOutboxAndClearsBuffer(t *testing.T) {
	svc, repo, outbox, hooks := newTenantFixture(t)

	created, err := svc.Create(context.Background(), platformAccessor(), CreateTenantInput{
		Name:         "Acme Industries",
		Code:         "ACME",
		ContactEmail: "ops@acme.test",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != string(lifecycle.StatusInitializing) || created.Version != 1 {
		t.Fatalf("created row: status=%s version=%d", created.Status, created.Version)
	}
	if _, err := repo.GetByID(dbcTODO(), created.ID); err != nil {
		t.Fatalf("row not persisted: %v", err)
	}

	events := outbox.events()
	if len(events) != 1 || events[0].EventType != directory.EventTenantCreated {
		t.Fatalf("outbox: %v", events)
	}
	if hooks.Operations[0].Name != "tenant.create" || hooks.Operations[0].Status != "success" {
		t.Fatalf("hooks: %+v", hooks.Operations)
	}

	// Duplicate code blocked by uniqueness rule.
	_, err = svc.Create(context.Background(), platformAccessor(), CreateTenantInput{
		Name: "Other",
		Code: "ACME",
	})
	if !domainagg.IsCode(err, domainagg.CodeBusinessRule) {
		t.Fatalf("duplicate code: want business_rule, got=%v", err)
	}
}

func TestTenantUpdateInfoNoOpSkipsPersistAndOutbox(t *testing.T) {
	svc, repo, outbox, _ := newTenantFixture(t)
	created, err := svc.Create(context.Background(), platformAccessor(), CreateTenantInput{
		Name: "Acme", Code: "ACME",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	before := len(outbox.events())
	updatesBefore := repo.updates

	same := created.Name
	got, err := svc.UpdateInfo(context.Background(), platformAccessor(), created.ID, directory.TenantInfoUpdate{Name: &same})
	if err != nil {
		t.Fatalf("no-op update: %v", err)
	}
	if got.Version != created.Version {
		t.Fatalf("no-op must not bump version: %d", got.Version)
	}
	if len(outbox.events()) != before {
		t.Fatalf("no-op must not append to the outbox")
	}
	if repo.updates != updatesBefore {
		t.Fatalf("no-op must not write the snapshot")
	}
}

func TestTenantUpdateInfoCASConflict(t *testing.T) {
	svc, repo, _, hooks := newTenantFixture(t)
	created, err := svc.Create(context.Background(), platformAccessor(), CreateTenantInput{
		Name: "Acme", Code: "ACME",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	repo.casFail = true
	newName := "Acme Holdings"
	_, err = svc.UpdateInfo(context.Background(), platformAccessor(), created.ID, directory.TenantInfoUpdate{Name: &newName})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("want conflict, got=%v", err)
	}
	if len(hooks.Conflicts) != 1 || hooks.Conflicts[0] != "tenant.update_info" {
		t.Fatalf("conflict hook: %v", hooks.Conflicts)
	}
}

func TestTenantChangeStatusSameStatusIsNoOp(t *testing.T) {
	svc, _, outbox, _ := newTenantFixture(t)
	created, err := svc.Create(context.Background(), platformAccessor(), CreateTenantInput{
		Name: "Acme", Code: "ACME",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	before := len(outbox.events())

	got, err := svc.ChangeStatus(context.Background(), platformAccessor(), created.ID, lifecycle.StatusInitializing)
	if err != nil {
		t.Fatalf("same-status: %v", err)
	}
	if got.Version != created.Version || len(outbox.events()) != before {
		t.Fatalf("same-status must be a no-op: version=%d", got.Version)
	}
}

func TestTenantAccessDenialReadsAsNotFound(t *testing.T) {
	svc, _, _, _ := newTenantFixture(t)
	created, err := svc.Create(context.Background(), platformAccessor(), CreateTenantInput{
		Name: "Acme", Code: "ACME",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	outsider := scope.Accessor{UserID: uuid.New(), TenantID: uuid.New(), Isolation: scope.IsolationTenant}
	_, err = svc.ChangeStatus(context.Background(), outsider, created.ID, lifecycle.StatusActive)
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("hidden entity must read as not_found, got=%v", err)
	}
}

func TestTenantDeleteBlockedByLiveChildren(t *testing.T) {
	svc, repo, _, _ := newTenantFixture(t)
	created, err := svc.Create(context.Background(), platformAccessor(), CreateTenantInput{
		Name: "Acme", Code: "ACME",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	org := orgRow(created.ID, "ENG")
	repo.putOrg(org)
	if err := svc.Delete(context.Background(), platformAccessor(), created.ID); !domainagg.IsCode(err, domainagg.CodeBusinessRule) {
		t.Fatalf("delete with organizations: want business_rule, got=%v", err)
	}

	org.Status = string(lifecycle.StatusDeleted)
	repo.putOrg(org)
	user := &types.AdminUser{
		ID:             uuid.New(),
		TenantID:       created.ID,
		IsolationLevel: string(scope.IsolationTenant),
		PrivacyLevel:   string(scope.PrivacyShared),
		Email:          "ops@acme.test",
		Username:       "ops",
		DisplayName:    "Ops",
		Status:         string(lifecycle.StatusActive),
		Version:        1,
	}
	repo.putUser(user)
	if err := svc.Delete(context.Background(), platformAccessor(), created.ID); !domainagg.IsCode(err, domainagg.CodeBusinessRule) {
		t.Fatalf("delete with admin users: want business_rule, got=%v", err)
	}

	// Tombstoned children no longer pin the tenant.
	user.Status = string(lifecycle.StatusDeleted)
	repo.putUser(user)
	if err := svc.Delete(context.Background(), platformAccessor(), created.ID); err != nil {
		t.Fatalf("delete freed tenant: %v", err)
	}
}

func TestTenantDeleteIsIdempotent(t *testing.T) {
	svc, repo, outbox, _ := newTenantFixture(t)
	created, err := svc.Create(context.Background(), platformAccessor(), CreateTenantInput{
		Name: "Acme", Code: "ACME",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), platformAccessor(), created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	row, err := repo.GetByID(dbcTODO(), created.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if row.Status != string(lifecycle.StatusDeleted) {
		t.Fatalf("status after delete: %s", row.Status)
	}
	before := len(outbox.events())

	if err := svc.Delete(context.Background(), platformAccessor(), created.ID); err != nil {
		t.Fatalf("second delete must succeed silently: %v", err)
	}
	if len(outbox.events()) != before {
		t.Fatalf("second delete must not append events")
	}
	if _, err := svc.UpdateInfo(context.Background(), platformAccessor(), created.ID, directory.TenantInfoUpdate{Name: strPtr("Renamed")}); !domainagg.IsCode(err, domainagg.CodeBusinessRule) {
		t.Fatalf("deleted tenant must reject updates, got=%v", err)
	}
}
