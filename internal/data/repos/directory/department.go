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

type DepartmentRepo interface {
	Create(dbc dbctx.Context, d *types.Department) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Department, error)
	CodeExists(dbc dbctx.Context, tenantID uuid.UUID, code string, excludeID uuid.UUID) (bool, error)
	HasChildren(dbc dbctx.Context, parentID uuid.UUID) (bool, error)
	UpdateByVersion(dbc dbctx.Context, d *types.Department, expectedVersion int) (bool, error)
}

type departmentRepo struct {
	db    *gorm.DB
	log   *logger.Logger
	guard aggregates.CASGuard
}

func NewDepartmentRepo(db *gorm.DB, baseLog *logger.Logger) DepartmentRepo {
	return &departmentRepo{db: db, log: baseLog.With("repo", "DepartmentRepo"), guard: aggregates.NewCASGuard(db)}
}

func (r *departmentRepo) Create(dbc dbctx.Context, d *types.Department) error {
	return dbc.DB(r.db).Create(d).Error
}

func (r *departmentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Department, error) {
	var out types.Department
	if err := dbc.DB(r.db).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *departmentRepo) CodeExists(dbc dbctx.Context, tenantID uuid.UUID, code string, excludeID uuid.UUID) (bool, error) {
	var count int64
	q := dbc.DB(r.db).Model(&types.Department{}).
		Where("tenant_id = ? AND code = ?", tenantID, code)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *departmentRepo) HasChildren(dbc dbctx.Context, parentID uuid.UUID) (bool, error) {
	var count int64
	if err := dbc.DB(r.db).Model(&types.Department{}).
		Where("parent_department_id = ? AND status <> ?", parentID, string(lifecycle.StatusDeleted)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *departmentRepo) UpdateByVersion(dbc dbctx.Context, d *types.Department, expectedVersion int) (bool, error) {
	return r.guard.UpdateByVersion(dbc, types.Department{}.TableName(), d.ID, expectedVersion, map[string]any{
		"name":                 d.Name,
		"description":          d.Description,
		"parent_department_id": d.ParentDepartmentID,
		"manager_user_id":      d.ManagerUserID,
		"organization_id":      d.OrganizationID,
		"department_ids":       d.DepartmentIDs,
		"isolation_level":      d.IsolationLevel,
		"status":               d.Status,
		"version":              d.Version,
		"updated_by":           d.UpdatedBy,
		"updated_at":           d.UpdatedAt,
	})
}
