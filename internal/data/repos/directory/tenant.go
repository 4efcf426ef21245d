package directory

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brynevale/admincore-backend/internal/data/aggregates"
	"github.com/brynevale/admincore-backend/internal/domain/lifecycle"
	"github.com/brynevale/admincore-backend/internal/pkg/dbctx"
	"github.com/brynevale/admincore-backend/internal/platform/logger"
	"github.com/brynevale/admincore-backend/internal/types"
)

type TenantRepo interface {
	Create(dbc dbctx.Context, t *types.Tenant) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Tenant, error)
	NameExists(dbc dbctx.Context, name string, excludeID uuid.UUID) (bool, error)
	CodeExists(dbc dbctx.Context, code string, excludeID uuid.UUID) (bool, error)
	HasOrganizations(dbc dbctx.Context, tenantID uuid.UUID) (bool, error)
	HasAdminUsers(dbc dbctx.Context, tenantID uuid.UUID) (bool, error)
	UpdateByVersion(dbc dbctx.Context, t *types.Tenant, expectedVersion int) (bool, error)
}

type tenantRepo struct {
	db    *gorm.DB
	log   *logger.Logger
	guard aggregates.CASGuard
}

func NewTenantRepo(db *gorm.DB, baseLog *logger.Logger) TenantRepo {
	return &tenantRepo{db: db, log: baseLog.With("repo", "TenantRepo"), guard: aggregates.NewCASGuard(db)}
}

func (r *tenantRepo) Create(dbc dbctx.Context, t *types.Tenant) error {
	return dbc.DB(r.db).Create(t).Error
}

func (r *tenantRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Tenant, error) {
	var out types.Tenant
	if err := dbc.DB(r.db).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *tenantRepo) NameExists(dbc dbctx.Context, name string, excludeID uuid.UUID) (bool, error) {
	var count int64
	q := dbc.DB(r.db).Model(&types.Tenant{}).Where("name = ?", name)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *tenantRepo) CodeExists(dbc dbctx.Context, code string, excludeID uuid.UUID) (bool, error) {
	var count int64
	q := dbc.DB(r.db).Model(&types.Tenant{}).Where("code = ?", code)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *tenantRepo) HasOrganizations(dbc dbctx.Context, tenantID uuid.UUID) (bool, error) {
	var count int64
	if err := dbc.DB(r.db).Model(&types.Organization{}).
		Where("tenant_id = ? AND status <> ?", tenantID, string(lifecycle.StatusDeleted)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *tenantRepo) HasAdminUsers(dbc dbctx.Context, tenantID uuid.UUID) (bool, error) {
	var count int64
	if err := dbc.DB(r.db).Model(&types.AdminUser{}).
		Where("tenant_id = ? AND status <> ?", tenantID, string(lifecycle.StatusDeleted)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *tenantRepo) UpdateByVersion(dbc dbctx.Context, t *types.Tenant, expectedVersion int) (bool, error) {
	return r.guard.UpdateByVersion(dbc, types.Tenant{}.TableName(), t.ID, expectedVersion, map[string]any{
		"name":          t.Name,
		"description":   t.Description,
		"contact_email": t.ContactEmail,
		"status":        t.Status,
		"version":       t.Version,
		"updated_by":    t.UpdatedBy,
		"updated_at":    t.UpdatedAt,
	})
}
