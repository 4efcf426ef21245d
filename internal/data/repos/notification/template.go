package notification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brynevale/admincore-backend/internal/data/aggregates"
	"github.com/brynevale/admincore-backend/internal/pkg/dbctx"
	"github.com/brynevale/admincore-backend/internal/platform/logger"
	"github.com/brynevale/admincore-backend/internal/types"
)

type TemplateRepo interface {
	Create(dbc dbctx.Context, t *types.NotificationTemplate) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.NotificationTemplate, error)
	CodeExists(dbc dbctx.Context, tenantID uuid.UUID, code string, excludeID uuid.UUID) (bool, error)
	UpdateByVersion(dbc dbctx.Context, t *types.NotificationTemplate, expectedVersion int) (bool, error)
}

type templateRepo struct {
	db    *gorm.DB
	log   *logger.Logger
	guard aggregates.CASGuard
}

func NewTemplateRepo(db *gorm.DB, baseLog *logger.Logger) TemplateRepo {
	return &templateRepo{db: db, log: baseLog.With("repo", "TemplateRepo"), guard: aggregates.NewCASGuard(db)}
}

func (r *templateRepo) Create(dbc dbctx.Context, t *types.NotificationTemplate) error {
	return dbc.DB(r.db).Create(t).Error
}

func (r *templateRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.NotificationTemplate, error) {
	var out types.NotificationTemplate
	if err := dbc.DB(r.db).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *templateRepo) CodeExists(dbc dbctx.Context, tenantID uuid.UUID, code string, excludeID uuid.UUID) (bool, error) {
	var count int64
	q := dbc.DB(r.db).Model(&types.NotificationTemplate{}).
		Where("tenant_id = ? AND code = ?", tenantID, code)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *templateRepo) UpdateByVersion(dbc dbctx.Context, t *types.NotificationTemplate, expectedVersion int) (bool, error) {
	return r.guard.UpdateByVersion(dbc, types.NotificationTemplate{}.TableName(), t.ID, expectedVersion, map[string]any{
		"name":       t.Name,
		"subject":    t.Subject,
		"body":       t.Body,
		"locale":     t.Locale,
		"status":     t.Status,
		"version":    t.Version,
		"updated_by": t.UpdatedBy,
		"updated_at": t.UpdatedAt,
	})
}
