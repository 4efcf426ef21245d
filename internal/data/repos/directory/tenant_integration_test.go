package directory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brynevale/admincore-backend/internal/data/repos/directory"
	"github.com/brynevale/admincore-backend/internal/data/repos/testutil"
	"github.com/brynevale/admincore-backend/internal/domain/lifecycle"
	"github.com/brynevale/admincore-backend/internal/domain/scope"
	"github.com/brynevale/admincore-backend/internal/pkg/dbctx"
	"github.com/brynevale/admincore-backend/internal/types"
)

func seedTenant(code string) *types.Tenant {
	id := uuid.New()
	now := time.Now().UTC()
	return &types.Tenant{
		ID:             id,
		TenantID:       id,
		IsolationLevel: string(scope.IsolationTenant),
		PrivacyLevel:   string(scope.PrivacyShared),
		Name:           "Tenant " + code,
		Code:           code,
		Status:         string(lifecycle.StatusInitializing),
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestTenantRepoRoundTrip(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := directory.NewTenantRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	row := seedTenant("ACME_IT")
	if err := repo.Create(dbc, row); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByID(dbc, row.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Code != row.Code || got.Version != 1 {
		t.Fatalf("row: %+v", got)
	}

	if _, err := repo.GetByID(dbc, uuid.New()); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("missing id: want record-not-found, got %v", err)
	}
}

func TestTenantRepoExistenceChecks(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := directory.NewTenantRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	row := seedTenant("ACME_IT")
	if err := repo.Create(dbc, row); err != nil {
		t.Fatalf("create: %v", err)
	}

	exists, err := repo.CodeExists(dbc, "ACME_IT", uuid.Nil)
	if err != nil || !exists {
		t.Fatalf("code exists: %v %v", exists, err)
	}
	// The row itself is excluded when checking for rename collisions.
	exists, err = repo.CodeExists(dbc, "ACME_IT", row.ID)
	if err != nil || exists {
		t.Fatalf("code exists excluding self: %v %v", exists, err)
	}
	exists, err = repo.NameExists(dbc, row.Name, uuid.Nil)
	if err != nil || !exists {
		t.Fatalf("name exists: %v %v", exists, err)
	}
}

func TestTenantRepoChildExistenceIgnoresDeleted(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := directory.NewTenantRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	row := seedTenant("ACME_IT")
	if err := repo.Create(dbc, row); err != nil {
		t.Fatalf("create: %v", err)
	}

	has, err := repo.HasOrganizations(dbc, row.ID)
	if err != nil || has {
		t.Fatalf("empty tenant: has=%v err=%v", has, err)
	}
	has, err = repo.HasAdminUsers(dbc, row.ID)
	if err != nil || has {
		t.Fatalf("empty tenant users: has=%v err=%v", has, err)
	}

	now := time.Now().UTC()
	org := &types.Organization{
		ID:             uuid.New(),
		TenantID:       row.ID,
		IsolationLevel: string(scope.IsolationOrganization),
		PrivacyLevel:   string(scope.PrivacyShared),
		Name:           "Engineering",
		Code:           "ENG",
		Status:         string(lifecycle.StatusDeleted),
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := tx.Create(org).Error; err != nil {
		t.Fatalf("seed org: %v", err)
	}
	// Tombstoned rows must not pin the tenant.
	has, err = repo.HasOrganizations(dbc, row.ID)
	if err != nil || has {
		t.Fatalf("deleted org counted: has=%v err=%v", has, err)
	}

	if err := tx.Model(org).Update("status", string(lifecycle.StatusActive)).Error; err != nil {
		t.Fatalf("revive org: %v", err)
	}
	has, err = repo.HasOrganizations(dbc, row.ID)
	if err != nil || !has {
		t.Fatalf("live org not counted: has=%v err=%v", has, err)
	}

	user := &types.AdminUser{
		ID:             uuid.New(),
		TenantID:       row.ID,
		IsolationLevel: string(scope.IsolationTenant),
		PrivacyLevel:   string(scope.PrivacyShared),
		Email:          "ops@acme.test",
		Username:       "ops",
		DisplayName:    "Ops",
		Status:         string(lifecycle.StatusActive),
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := tx.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	has, err = repo.HasAdminUsers(dbc, row.ID)
	if err != nil || !has {
		t.Fatalf("live user not counted: has=%v err=%v", has, err)
	}
}

func TestTenantRepoVersionedUpdate(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := directory.NewTenantRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	row := seedTenant("ACME_IT")
	if err := repo.Create(dbc, row); err != nil {
		t.Fatalf("create: %v", err)
	}

	row.Name = "Acme Holdings"
	row.Version = 2
	row.UpdatedAt = time.Now().UTC()
	ok, err := repo.UpdateByVersion(dbc, row, 1)
	if err != nil || !ok {
		t.Fatalf("update v1: ok=%v err=%v", ok, err)
	}

	// A writer still holding version 1 must lose.
	stale := *row
	stale.Name = "Stale Write"
	stale.Version = 2
	ok, err = repo.UpdateByVersion(dbc, &stale, 1)
	if err != nil {
		t.Fatalf("stale update: %v", err)
	}
	if ok {
		t.Fatal("stale expected version must not match")
	}

	got, err := repo.GetByID(dbc, row.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Acme Holdings" || got.Version != 2 {
		t.Fatalf("row after conflict: %+v", got)
	}
}
