package readmodel

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brynevale/admincore-backend/internal/pkg/dbctx"
	"github.com/brynevale/admincore-backend/internal/platform/logger"
	"github.com/brynevale/admincore-backend/internal/types"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListQuery filters the view collection. Page is 1-based; Size is clamped
// to [1, MaxPageSize] with DefaultPageSize for the zero value.
type ListQuery struct {
	AggregateType  string
	TenantID       uuid.UUID
	OrganizationID *uuid.UUID
	Status         string
	Search         string
	Page           int
	Size           int
}

func (q ListQuery) normalized() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Size <= 0 {
		q.Size = DefaultPageSize
	}
	if q.Size > MaxPageSize {
		q.Size = MaxPageSize
	}
	return q
}

// ViewRepo is the query-side store. Readers never see tombstoned
// documents; only the projectors touch the write methods.
type ViewRepo interface {
	Get(dbc dbctx.Context, aggregateID uuid.UUID) (*types.ViewDocument, error)
	GetByNaturalKey(dbc dbctx.Context, aggregateType string, tenantID uuid.UUID, naturalKey string) (*types.ViewDocument, error)
	List(dbc dbctx.Context, q ListQuery) ([]*types.ViewDocument, error)
	Count(dbc dbctx.Context, q ListQuery) (int64, error)

	// GetAny also returns tombstoned documents, for projector replay.
	GetAny(dbc dbctx.Context, aggregateID uuid.UUID) (*types.ViewDocument, error)
	Insert(dbc dbctx.Context, doc *types.ViewDocument) error
	// UpdateApplied persists the document only when the stored
	// last_applied_version still equals prevApplied, so two projector
	// instances cannot apply the same event twice.
	UpdateApplied(dbc dbctx.Context, doc *types.ViewDocument, prevApplied int) (bool, error)
}

type viewRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewViewRepo(db *gorm.DB, baseLog *logger.Logger) ViewRepo {
	return &viewRepo{db: db, log: baseLog.With("repo", "ViewRepo")}
}

func (r *viewRepo) Get(dbc dbctx.Context, aggregateID uuid.UUID) (*types.ViewDocument, error) {
	var out types.ViewDocument
	if err := dbc.DB(r.db).
		Where("aggregate_id = ? AND deleted_at IS NULL", aggregateID).
		First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *viewRepo) GetByNaturalKey(dbc dbctx.Context, aggregateType string, tenantID uuid.UUID, naturalKey string) (*types.ViewDocument, error) {
	var out types.ViewDocument
	if err := dbc.DB(r.db).
		Where("aggregate_type = ? AND tenant_id = ? AND natural_key = ? AND deleted_at IS NULL",
			aggregateType, tenantID, naturalKey).
		First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *viewRepo) List(dbc dbctx.Context, q ListQuery) ([]*types.ViewDocument, error) {
	q = q.normalized()
	var rows []*types.ViewDocument
	if err := r.filtered(dbc, q).
		Order("created_at DESC").
		Offset((q.Page - 1) * q.Size).
		Limit(q.Size).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *viewRepo) Count(dbc dbctx.Context, q ListQuery) (int64, error) {
	var count int64
	if err := r.filtered(dbc, q.normalized()).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *viewRepo) filtered(dbc dbctx.Context, q ListQuery) *gorm.DB {
	db := dbc.DB(r.db).Model(&types.ViewDocument{}).
		Where("deleted_at IS NULL")
	if q.AggregateType != "" {
		db = db.Where("aggregate_type = ?", q.AggregateType)
	}
	if q.TenantID != uuid.Nil {
		db = db.Where("tenant_id = ?", q.TenantID)
	}
	if q.OrganizationID != nil {
		db = db.Where("organization_id = ?", *q.OrganizationID)
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.Search != "" {
		db = db.Where("name ILIKE ?", "%"+q.Search+"%")
	}
	return db
}

func (r *viewRepo) GetAny(dbc dbctx.Context, aggregateID uuid.UUID) (*types.ViewDocument, error) {
	var out types.ViewDocument
	if err := dbc.DB(r.db).
		Where("aggregate_id = ?", aggregateID).
		First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *viewRepo) Insert(dbc dbctx.Context, doc *types.ViewDocument) error {
	return dbc.DB(r.db).Create(doc).Error
}

func (r *viewRepo) UpdateApplied(dbc dbctx.Context, doc *types.ViewDocument, prevApplied int) (bool, error) {
	res := dbc.DB(r.db).Model(&types.ViewDocument{}).
		Where("aggregate_id = ? AND last_applied_version = ?", doc.AggregateID, prevApplied).
		Updates(map[string]any{
			"tenant_id":            doc.TenantID,
			"organization_id":      doc.OrganizationID,
			"department_ids":       doc.DepartmentIDs,
			"owner_user_id":        doc.OwnerUserID,
			"isolation_level":      doc.IsolationLevel,
			"privacy_level":        doc.PrivacyLevel,
			"status":               doc.Status,
			"name":                 doc.Name,
			"code":                 doc.Code,
			"natural_key":          doc.NaturalKey,
			"last_applied_version": doc.LastAppliedVersion,
			"doc":                  doc.Doc,
			"updated_at":           doc.UpdatedAt,
			"deleted_at":           doc.DeletedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
