package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brynevale/admincore-backend/internal/data/aggregates"
	"github.com/brynevale/admincore-backend/internal/data/readmodel"
	"github.com/brynevale/admincore-backend/internal/domain/scope"
	"github.com/brynevale/admincore-backend/internal/pkg/dbctx"
	"github.com/brynevale/admincore-backend/internal/platform/logger"
	"github.com/brynevale/admincore-backend/internal/types"
)

// ViewPage is one page of view documents plus the unpaged total.
type ViewPage struct {
	Items []*types.ViewDocument `json:"items"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Size  int                   `json:"size"`
}

type ListViewsInput struct {
	AggregateType  string
	TenantID       uuid.UUID
	OrganizationID *uuid.UUID
	Status         string
	Search         string
	Page           int
	Size           int
}

// QueryService reads the projected views. It never touches the write
// store; results trail writes by the projection lag.
type QueryService interface {
	Get(ctx context.Context, accessor scope.Accessor, aggregateID uuid.UUID) (*types.ViewDocument, error)
	GetByNaturalKey(ctx context.Context, accessor scope.Accessor, aggregateType, naturalKey string) (*types.ViewDocument, error)
	List(ctx context.Context, accessor scope.Accessor, in ListViewsInput) (*ViewPage, error)
}

type queryService struct {
	db    *gorm.DB
	log   *logger.Logger
	views readmodel.ViewRepo
}

func NewQueryService(db *gorm.DB, baseLog *logger.Logger, views readmodel.ViewRepo) QueryService {
	return &queryService{
		db:    db,
		log:   baseLog.With("service", "QueryService"),
		views: views,
	}
}

func (s *queryService) Get(ctx context.Context, accessor scope.Accessor, aggregateID uuid.UUID) (*types.ViewDocument, error) {
	const op = "view.get"

	v := &violations{}
	v.requireUUID("aggregate_id", aggregateID)
	if err := v.err(op); err != nil {
		return nil, err
	}

	doc, err := s.views.Get(dbctx.New(ctx), aggregateID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if err := requireAccess(op, accessor, doc.Scope()); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *queryService) GetByNaturalKey(ctx context.Context, accessor scope.Accessor, aggregateType, naturalKey string) (*types.ViewDocument, error) {
	const op = "view.get_by_natural_key"

	v := &violations{}
	v.requireText("aggregate_type", aggregateType, 64)
	v.requireText("natural_key", naturalKey, 256)
	if err := v.err(op); err != nil {
		return nil, err
	}

	doc, err := s.views.GetByNaturalKey(dbctx.New(ctx), aggregateType, accessor.TenantID, naturalKey)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if err := requireAccess(op, accessor, doc.Scope()); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *queryService) List(ctx context.Context, accessor scope.Accessor, in ListViewsInput) (*ViewPage, error) {
	const op = "view.list"

	// Non-platform accessors only ever see their own tenant, whatever
	// tenant filter they asked for.
	tenantID := in.TenantID
	if accessor.Isolation != scope.IsolationPlatform {
		tenantID = accessor.TenantID
	}

	q := readmodel.ListQuery{
		AggregateType:  in.AggregateType,
		TenantID:       tenantID,
		OrganizationID: in.OrganizationID,
		Status:         in.Status,
		Search:         in.Search,
		Page:           in.Page,
		Size:           in.Size,
	}
	dbc := dbctx.New(ctx)
	rows, err := s.views.List(dbc, q)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	total, err := s.views.Count(dbc, q)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}

	// Row-level isolation: a page may shrink when dimension or privacy
	// checks hide entries inside the tenant.
	visible := make([]*types.ViewDocument, 0, len(rows))
	for _, row := range rows {
		if scope.CanAccess(accessor, row.Scope()) {
			visible = append(visible, row)
		}
	}

	norm := q
	if norm.Page < 1 {
		norm.Page = 1
	}
	size := norm.Size
	if size <= 0 {
		size = readmodel.DefaultPageSize
	}
	if size > readmodel.MaxPageSize {
		size = readmodel.MaxPageSize
	}
	return &ViewPage{
		Items: visible,
		Total: total,
		Page:  norm.Page,
		Size:  size,
	}, nil
}
