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

type OrganizationRepo interface {
	Create(dbc dbctx.Context, o *types.Organization) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Organization, error)
	CodeExists(dbc dbctx.Context, tenantID uuid.UUID, code string, excludeID uuid.UUID) (bool, error)
	HasDepartments(dbc dbctx.Context, organizationID uuid.UUID) (bool, error)
	UpdateByVersion(dbc dbctx.Context, o *types.Organization, expectedVersion int) (bool, error)
}

type organizationRepo struct {
	db    *gorm.DB
	log   *logger.Logger
	guard aggregates.CASGuard
}

func NewOrganizationRepo(db *gorm.DB, baseLog *logger.Logger) OrganizationRepo {
	return &organizationRepo{db: db, log: baseLog.With("repo", "OrganizationRepo"), guard: aggregates.NewCASGuard(db)}
}

func (r *organizationRepo) Create(dbc dbctx.Context, o *types.Organization) error {
	return dbc.DB(r.db).Create(o).Error
}

func (r *organizationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Organization, error) {
	var out types.Organization
	if err := dbc.DB(r.db).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *organizationRepo) CodeExists(dbc dbctx.Context, tenantID uuid.UUID, code string, excludeID uuid.UUID) (bool, error) {
	var count int64
	q := dbc.DB(r.db).Model(&types.Organization{}).
		Where("tenant_id = ? AND code = ?", tenantID, code)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *organizationRepo) HasDepartments(dbc dbctx.Context, organizationID uuid.UUID) (bool, error) {
	var count int64
	if err := dbc.DB(r.db).Model(&types.Department{}).
		Where("organization_id = ? AND status <> ?", organizationID, string(lifecycle.StatusDeleted)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *organizationRepo) UpdateByVersion(dbc dbctx.Context, o *types.Organization, expectedVersion int) (bool, error) {
	return r.guard.UpdateByVersion(dbc, types.Organization{}.TableName(), o.ID, expectedVersion, map[string]any{
		"name":            o.Name,
		"description":     o.Description,
		"manager_user_id": o.ManagerUserID,
		"status":          o.Status,
		"version":         o.Version,
		"updated_by":      o.UpdatedBy,
		"updated_at":      o.UpdatedAt,
	})
}
