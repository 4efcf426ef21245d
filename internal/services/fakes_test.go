package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brynevale/admincore-backend/internal/data/aggregates"
	aggtestutil "github.com/brynevale/admincore-backend/internal/data/aggregates/testutil"
	"github.com/brynevale/admincore-backend/internal/domain/event"
	"github.com/brynevale/admincore-backend/internal/domain/lifecycle"
	"github.com/brynevale/admincore-backend/internal/pkg/dbctx"
	"github.com/brynevale/admincore-backend/internal/platform/logger"
	"github.com/brynevale/admincore-backend/internal/types"
)

func dbcTODO() dbctx.Context {
	return dbctx.Context{Ctx: context.Background()}
}

func strPtr(s string) *string { return &s }

func newTestDeps(t *testing.T, hooks aggregates.Hooks) aggregates.BaseDeps {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return aggregates.BaseDeps{
		Log:    log,
		Runner: &aggtestutil.InjectedTxRunner{},
		Hooks:  hooks,
	}
}

// fakeOutbox records appended events in order.
type fakeOutbox struct {
	mu       sync.Mutex
	appended []event.Event
}

func (f *fakeOutbox) Append(dbc dbctx.Context, events []event.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, events...)
	return nil
}

func (f *fakeOutbox) DuePending(dbc dbctx.Context, now time.Time, limit int) ([]*types.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutbox) MarkDispatched(dbc dbctx.Context, ids []uuid.UUID, at time.Time) error {
	return nil
}

func (f *fakeOutbox) MarkFailed(dbc dbctx.Context, id uuid.UUID, attempts int, nextAttemptAt time.Time, lastError string) error {
	return nil
}

func (f *fakeOutbox) CountPending(dbc dbctx.Context) (int64, error) { return 0, nil }

func (f *fakeOutbox) events() []event.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]event.Event, len(f.appended))
	copy(out, f.appended)
	return out
}

// fakeTenantRepo is an in-memory TenantRepo with injectable CAS failure.
// Child organizations and admin users are held alongside the tenant rows
// so the containment checks can see them.
type fakeTenantRepo struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]*types.Tenant
	orgs    map[uuid.UUID]*types.Organization
	users   map[uuid.UUID]*types.AdminUser
	casFail bool
	updates int
}

func newFakeTenantRepo() *fakeTenantRepo {
	return &fakeTenantRepo{
		rows:  map[uuid.UUID]*types.Tenant{},
		orgs:  map[uuid.UUID]*types.Organization{},
		users: map[uuid.UUID]*types.AdminUser{},
	}
}

func (f *fakeTenantRepo) putOrg(o *types.Organization) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *o
	f.orgs[o.ID] = &cp
}

func (f *fakeTenantRepo) putUser(u *types.AdminUser) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.ID] = &cp
}

func (f *fakeTenantRepo) Create(dbc dbctx.Context, t *types.Tenant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	f.rows[t.ID] = &cp
	return nil
}

func (f *fakeTenantRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *row
	return &cp, nil
}

func (f *fakeTenantRepo) NameExists(dbc dbctx.Context, name string, excludeID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, row := range f.rows {
		if row.Name == name && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTenantRepo) CodeExists(dbc dbctx.Context, code string, excludeID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, row := range f.rows {
		if row.Code == code && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTenantRepo) HasOrganizations(dbc dbctx.Context, tenantID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orgs {
		if o.TenantID == tenantID && lifecycle.Status(o.Status) != lifecycle.StatusDeleted {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTenantRepo) HasAdminUsers(dbc dbctx.Context, tenantID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.TenantID == tenantID && lifecycle.Status(u.Status) != lifecycle.StatusDeleted {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTenantRepo) UpdateByVersion(dbc dbctx.Context, t *types.Tenant, expectedVersion int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.casFail {
		return false, nil
	}
	row, ok := f.rows[t.ID]
	if !ok || row.Version != expectedVersion {
		return false, nil
	}
	cp := *t
	f.rows[t.ID] = &cp
	return true, nil
}

// fakeOrganizationRepo is an in-memory OrganizationRepo. It shares a
// fakeDepartmentRepo so HasDepartments sees the same rows the
// department service mutates.
type fakeOrganizationRepo struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]*types.Organization
	depts *fakeDepartmentRepo
}

func newFakeOrganizationRepo(depts *fakeDepartmentRepo) *fakeOrganizationRepo {
	return &fakeOrganizationRepo{rows: map[uuid.UUID]*types.Organization{}, depts: depts}
}

func (f *fakeOrganizationRepo) put(o *types.Organization) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *o
	f.rows[o.ID] = &cp
}

func (f *fakeOrganizationRepo) Create(dbc dbctx.Context, o *types.Organization) error {
	f.put(o)
	return nil
}

func (f *fakeOrganizationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *row
	return &cp, nil
}

func (f *fakeOrganizationRepo) CodeExists(dbc dbctx.Context, tenantID uuid.UUID, code string, excludeID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, row := range f.rows {
		if row.TenantID == tenantID && row.Code == code && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeOrganizationRepo) HasDepartments(dbc dbctx.Context, organizationID uuid.UUID) (bool, error) {
	f.depts.mu.Lock()
	defer f.depts.mu.Unlock()
	for _, row := range f.depts.rows {
		if row.OrganizationID != nil && *row.OrganizationID == organizationID &&
			lifecycle.Status(row.Status) != lifecycle.StatusDeleted {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeOrganizationRepo) UpdateByVersion(dbc dbctx.Context, o *types.Organization, expectedVersion int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[o.ID]
	if !ok || row.Version != expectedVersion {
		return false, nil
	}
	cp := *o
	f.rows[o.ID] = &cp
	return true, nil
}

// fakeDepartmentRepo is an in-memory DepartmentRepo.
type fakeDepartmentRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*types.Department
}

func newFakeDepartmentRepo() *fakeDepartmentRepo {
	return &fakeDepartmentRepo{rows: map[uuid.UUID]*types.Department{}}
}

func (f *fakeDepartmentRepo) put(d *types.Department) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *d
	f.rows[d.ID] = &cp
}

func (f *fakeDepartmentRepo) Create(dbc dbctx.Context, d *types.Department) error {
	f.put(d)
	return nil
}

func (f *fakeDepartmentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Department, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *row
	return &cp, nil
}

func (f *fakeDepartmentRepo) CodeExists(dbc dbctx.Context, tenantID uuid.UUID, code string, excludeID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, row := range f.rows {
		if row.TenantID == tenantID && row.Code == code && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDepartmentRepo) HasChildren(dbc dbctx.Context, parentID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.ParentDepartmentID != nil && *row.ParentDepartmentID == parentID &&
			lifecycle.Status(row.Status) != lifecycle.StatusDeleted {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDepartmentRepo) UpdateByVersion(dbc dbctx.Context, d *types.Department, expectedVersion int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[d.ID]
	if !ok || row.Version != expectedVersion {
		return false, nil
	}
	cp := *d
	f.rows[d.ID] = &cp
	return true, nil
}
