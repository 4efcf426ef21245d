package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brynevale/admincore-backend/internal/data/readmodel"
	domainagg "github.com/brynevale/admincore-backend/internal/domain/aggregates"
	"github.com/brynevale/admincore-backend/internal/domain/directory"
	"github.com/brynevale/admincore-backend/internal/domain/lifecycle"
	"github.com/brynevale/admincore-backend/internal/domain/scope"
	"github.com/brynevale/admincore-backend/internal/pkg/dbctx"
	"github.com/brynevale/admincore-backend/internal/platform/logger"
	"github.com/brynevale/admincore-backend/internal/types"
)

// fakeViewRepo serves canned documents and records the queries it saw.
type fakeViewRepo struct {
	docs      map[uuid.UUID]*types.ViewDocument
	lastQuery readmodel.ListQuery
}

func newFakeViewRepo() *fakeViewRepo {
	return &fakeViewRepo{docs: map[uuid.UUID]*types.ViewDocument{}}
}

func (f *fakeViewRepo) Get(dbc dbctx.Context, aggregateID uuid.UUID) (*types.ViewDocument, error) {
	doc, ok := f.docs[aggregateID]
	if !ok || doc.DeletedAt != nil {
		return nil, gorm.ErrRecordNotFound
	}
	return doc, nil
}

func (f *fakeViewRepo) GetByNaturalKey(dbc dbctx.Context, aggregateType string, tenantID uuid.UUID, naturalKey string) (*types.ViewDocument, error) {
	for _, doc := range f.docs {
		if doc.AggregateType == aggregateType && doc.TenantID == tenantID && doc.NaturalKey == naturalKey && doc.DeletedAt == nil {
			return doc, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeViewRepo) List(dbc dbctx.Context, q readmodel.ListQuery) ([]*types.ViewDocument, error) {
	f.lastQuery = q
	out := make([]*types.ViewDocument, 0, len(f.docs))
	for _, doc := range f.docs {
		if doc.DeletedAt != nil {
			continue
		}
		if q.TenantID != uuid.Nil && doc.TenantID != q.TenantID {
			continue
		}
		if q.AggregateType != "" && doc.AggregateType != q.AggregateType {
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}

func (f *fakeViewRepo) Count(dbc dbctx.Context, q readmodel.ListQuery) (int64, error) {
	rows, _ := f.List(dbc, q)
	return int64(len(rows)), nil
}

func (f *fakeViewRepo) GetAny(dbc dbctx.Context, aggregateID uuid.UUID) (*types.ViewDocument, error) {
	doc, ok := f.docs[aggregateID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return doc, nil
}

func (f *fakeViewRepo) Insert(dbc dbctx.Context, doc *types.ViewDocument) error {
	f.docs[doc.AggregateID] = doc
	return nil
}

func (f *fakeViewRepo) UpdateApplied(dbc dbctx.Context, doc *types.ViewDocument, prevApplied int) (bool, error) {
	stored, ok := f.docs[doc.AggregateID]
	if !ok || stored.LastAppliedVersion != prevApplied {
		return false, nil
	}
	f.docs[doc.AggregateID] = doc
	return true, nil
}

func viewDoc(tenantID uuid.UUID, aggregateType, naturalKey string) *types.ViewDocument {
	return &types.ViewDocument{
		AggregateID:        uuid.New(),
		AggregateType:      aggregateType,
		TenantID:           tenantID,
		IsolationLevel:     string(scope.IsolationTenant),
		PrivacyLevel:       string(scope.PrivacyShared),
		Status:             string(lifecycle.StatusActive),
		NaturalKey:         naturalKey,
		LastAppliedVersion: 1,
		CreatedAt:          time.Now().UTC(),
		UpdatedAt:          time.Now().UTC(),
	}
}

func newQueryFixture(t *testing.T) (QueryService, *fakeViewRepo) {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	views := newFakeViewRepo()
	return NewQueryService(nil, log, views), views
}

func TestQueryListForcesOwnTenant(t *testing.T) {
	svc, views := newQueryFixture(t)
	tenantA := uuid.New()
	tenantB := uuid.New()
	views.docs[uuid.New()] = viewDoc(tenantA, directory.AggregateTenant, "ACME")
	views.docs[uuid.New()] = viewDoc(tenantB, directory.AggregateTenant, "OTHER")

	accessor := scope.Accessor{UserID: uuid.New(), TenantID: tenantA, Isolation: scope.IsolationTenant}
	page, err := svc.List(context.Background(), accessor, ListViewsInput{TenantID: tenantB})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if views.lastQuery.TenantID != tenantA {
		t.Fatalf("non-platform list must be forced to own tenant, queried=%s", views.lastQuery.TenantID)
	}
	if len(page.Items) != 1 || page.Items[0].TenantID != tenantA {
		t.Fatalf("items: %v", page.Items)
	}
}

func TestQueryListRowLevelFilter(t *testing.T) {
	svc, views := newQueryFixture(t)
	tenantID := uuid.New()
	owner := uuid.New()

	visible := viewDoc(tenantID, directory.AggregateAdminUser, "visible")
	views.docs[visible.AggregateID] = visible

	hidden := viewDoc(tenantID, directory.AggregateAdminUser, "hidden")
	hidden.PrivacyLevel = string(scope.PrivacyConfidential)
	hidden.OwnerUserID = &owner
	views.docs[hidden.AggregateID] = hidden

	accessor := scope.Accessor{UserID: uuid.New(), TenantID: tenantID, Isolation: scope.IsolationTenant}
	page, err := svc.List(context.Background(), accessor, ListViewsInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].AggregateID != visible.AggregateID {
		t.Fatalf("confidential document leaked: %v", page.Items)
	}
}

func TestQueryGetHiddenReadsAsNotFound(t *testing.T) {
	svc, views := newQueryFixture(t)
	tenantID := uuid.New()
	doc := viewDoc(tenantID, directory.AggregateTenant, "ACME")
	views.docs[doc.AggregateID] = doc

	outsider := scope.Accessor{UserID: uuid.New(), TenantID: uuid.New(), Isolation: scope.IsolationTenant}
	_, err := svc.Get(context.Background(), outsider, doc.AggregateID)
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("hidden view must read as not_found, got=%v", err)
	}

	member := scope.Accessor{UserID: uuid.New(), TenantID: tenantID, Isolation: scope.IsolationTenant}
	got, err := svc.Get(context.Background(), member, doc.AggregateID)
	if err != nil || got.AggregateID != doc.AggregateID {
		t.Fatalf("member get: %v %v", got, err)
	}
}

func TestQueryGetByNaturalKeyUsesAccessorTenant(t *testing.T) {
	svc, views := newQueryFixture(t)
	tenantID := uuid.New()
	doc := viewDoc(tenantID, directory.AggregateTenant, "ACME")
	views.docs[doc.AggregateID] = doc

	member := scope.Accessor{UserID: uuid.New(), TenantID: tenantID, Isolation: scope.IsolationTenant}
	got, err := svc.GetByNaturalKey(context.Background(), member, directory.AggregateTenant, "ACME")
	if err != nil || got.AggregateID != doc.AggregateID {
		t.Fatalf("get by key: %v %v", got, err)
	}

	outsider := scope.Accessor{UserID: uuid.New(), TenantID: uuid.New(), Isolation: scope.IsolationTenant}
	if _, err := svc.GetByNaturalKey(context.Background(), outsider, directory.AggregateTenant, "ACME"); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("foreign tenant lookup must be not_found, got=%v", err)
	}
}
