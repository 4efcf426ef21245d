package directory

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brynevale/admincore-backend/internal/data/aggregates"
	"github.com/brynevale/admincore-backend/internal/pkg/dbctx"
	"github.com/brynevale/admincore-backend/internal/platform/logger"
	"github.com/brynevale/admincore-backend/internal/types"
)

type AdminUserRepo interface {
	Create(dbc dbctx.Context, u *types.AdminUser) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.AdminUser, error)
	EmailExists(dbc dbctx.Context, tenantID uuid.UUID, email string, excludeID uuid.UUID) (bool, error)
	UsernameExists(dbc dbctx.Context, tenantID uuid.UUID, username string, excludeID uuid.UUID) (bool, error)
	UpdateByVersion(dbc dbctx.Context, u *types.AdminUser, expectedVersion int) (bool, error)
}

type adminUserRepo struct {
	db    *gorm.DB
	log   *logger.Logger
	guard aggregates.CASGuard
}

func NewAdminUserRepo(db *gorm.DB, baseLog *logger.Logger) AdminUserRepo {
	return &adminUserRepo{db: db, log: baseLog.With("repo", "AdminUserRepo"), guard: aggregates.NewCASGuard(db)}
}

func (r *adminUserRepo) Create(dbc dbctx.Context, u *types.AdminUser) error {
	return dbc.DB(r.db).Create(u).Error
}

func (r *adminUserRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.AdminUser, error) {
	var out types.AdminUser
	if err := dbc.DB(r.db).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *adminUserRepo) EmailExists(dbc dbctx.Context, tenantID uuid.UUID, email string, excludeID uuid.UUID) (bool, error) {
	var count int64
	q := dbc.DB(r.db).Model(&types.AdminUser{}).
		Where("tenant_id = ? AND email = ?", tenantID, email)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *adminUserRepo) UsernameExists(dbc dbctx.Context, tenantID uuid.UUID, username string, excludeID uuid.UUID) (bool, error) {
	var count int64
	q := dbc.DB(r.db).Model(&types.AdminUser{}).
		Where("tenant_id = ? AND username = ?", tenantID, username)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *adminUserRepo) UpdateByVersion(dbc dbctx.Context, u *types.AdminUser, expectedVersion int) (bool, error) {
	return r.guard.UpdateByVersion(dbc, types.AdminUser{}.TableName(), u.ID, expectedVersion, map[string]any{
		"email":           u.Email,
		"username":        u.Username,
		"display_name":    u.DisplayName,
		"title":           u.Title,
		"organization_id": u.OrganizationID,
		"department_ids":  u.DepartmentIDs,
		"isolation_level": u.IsolationLevel,
		"status":          u.Status,
		"version":         u.Version,
		"updated_by":      u.UpdatedBy,
		"updated_at":      u.UpdatedAt,
	})
}
