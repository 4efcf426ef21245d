package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brynevale/admincore-backend/internal/data/aggregates"
	"github.com/brynevale/admincore-backend/internal/data/repos"
	domainagg "github.com/brynevale/admincore-backend/internal/domain/aggregates"
	"github.com/brynevale/admincore-backend/internal/domain/directory"
	"github.com/brynevale/admincore-backend/internal/domain/lifecycle"
	"github.com/brynevale/admincore-backend/internal/domain/scope"
	"github.com/brynevale/admincore-backend/internal/pkg/dbctx"
	"github.com/brynevale/admincore-backend/internal/platform/logger"
	"github.com/brynevale/admincore-backend/internal/realtime/bus"
	"github.com/brynevale/admincore-backend/internal/types"
)

type CreateTenantInput struct {
	Name         string
	Code         string
	Description  string
	ContactEmail string
}

type TenantService interface {
	Create(ctx context.Context, accessor scope.Accessor, in CreateTenantInput) (*types.Tenant, error)
	UpdateInfo(ctx context.Context, accessor scope.Accessor, id uuid.UUID, in directory.TenantInfoUpdate) (*types.Tenant, error)
	ChangeStatus(ctx context.Context, accessor scope.Accessor, id uuid.UUID, to lifecycle.Status) (*types.Tenant, error)
	Delete(ctx context.Context, accessor scope.Accessor, id uuid.UUID) error
}

type tenantService struct {
	db      *gorm.DB
	log     *logger.Logger
	deps    aggregates.BaseDeps
	tenants repos.TenantRepo
	outbox  repos.OutboxRepo
	bus     bus.Bus
}

func NewTenantService(deps aggregates.BaseDeps, tenants repos.TenantRepo, outboxRepo repos.OutboxRepo, eventBus bus.Bus) TenantService {
	deps = deps.WithDefaults()
	return &tenantService{
		db:      deps.DB,
		log:     deps.Log.With("service", "TenantService"),
		deps:    deps,
		tenants: tenants,
		outbox:  outboxRepo,
		bus:     eventBus,
	}
}

func (s *tenantService) Create(ctx context.Context, accessor scope.Accessor, in CreateTenantInput) (*types.Tenant, error) {
	const op = "tenant.create"

	v := &violations{}
	v.requireText("name", in.Name, 120)
	v.requireCode("code", in.Code)
	v.optionalText("description", in.Description, 2000)
	v.optionalEmail("contact_email", in.ContactEmail)
	if err := v.err(op); err != nil {
		return nil, err
	}
	if accessor.Isolation != scope.IsolationPlatform {
		return nil, domainagg.NewError(domainagg.CodeBusinessRule, op, "only platform operators can create tenants", nil)
	}

	var agg *directory.Tenant
	err := aggregates.ExecuteWrite(ctx, s.deps, op, func(dbc dbctx.Context) error {
		if exists, err := s.tenants.NameExists(dbc, in.Name, uuid.Nil); err != nil {
			return err
		} else if exists {
			return aggregates.BusinessRuleError("tenant name already in use")
		}
		if exists, err := s.tenants.CodeExists(dbc, in.Code, uuid.Nil); err != nil {
			return err
		} else if exists {
			return aggregates.BusinessRuleError("tenant code already in use")
		}

		agg = directory.NewTenant(directory.NewTenantInput{
			Name:         in.Name,
			Code:         in.Code,
			Description:  in.Description,
			ContactEmail: in.ContactEmail,
			Actor:        accessor.UserID,
			Now:          time.Now().UTC(),
		})
		if err := s.tenants.Create(dbc, agg.T); err != nil {
			return err
		}
		return s.outbox.Append(dbc, agg.Uncommitted())
	})
	if err != nil {
		return nil, err
	}
	publishAndClear(ctx, s.bus, s.log, &agg.Recorder)
	return agg.T, nil
}

func (s *tenantService) UpdateInfo(ctx context.Context, accessor scope.Accessor, id uuid.UUID, in directory.TenantInfoUpdate) (*types.Tenant, error) {
	const op = "tenant.update_info"

	v := &violations{}
	v.requireUUID("id", id)
	if in.Name != nil {
		v.requireText("name", *in.Name, 120)
	}
	if in.Description != nil {
		v.optionalText("description", *in.Description, 2000)
	}
	if in.ContactEmail != nil {
		v.optionalEmail("contact_email", *in.ContactEmail)
	}
	if err := v.err(op); err != nil {
		return nil, err
	}

	var agg *directory.Tenant
	err := aggregates.ExecuteWrite(ctx, s.deps, op, func(dbc dbctx.Context) error {
		row, err := s.tenants.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if err := requireAccess(op, accessor, row.Scope()); err != nil {
			return err
		}
		if lifecycle.Terminal(lifecycle.Status(row.Status)) {
			return aggregates.BusinessRuleError("tenant is deleted")
		}
		if in.Name != nil && *in.Name != row.Name {
			if exists, err := s.tenants.NameExists(dbc, *in.Name, id); err != nil {
				return err
			} else if exists {
				return aggregates.BusinessRuleError("tenant name already in use")
			}
		}

		loaded := row.Version
		agg = directory.LoadTenant(row)
		if !agg.UpdateInfo(in, accessor.UserID, time.Now().UTC()) {
			return nil
		}
		ok, err := s.tenants.UpdateByVersion(dbc, agg.T, loaded)
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(ok, "tenant was modified concurrently"); err != nil {
			return err
		}
		return s.outbox.Append(dbc, agg.Uncommitted())
	})
	if err != nil {
		return nil, err
	}
	publishAndClear(ctx, s.bus, s.log, &agg.Recorder)
	return agg.T, nil
}

func (s *tenantService) ChangeStatus(ctx context.Context, accessor scope.Accessor, id uuid.UUID, to lifecycle.Status) (*types.Tenant, error) {
	const op = "tenant.change_status"

	v := &violations{}
	v.requireUUID("id", id)
	if err := v.err(op); err != nil {
		return nil, err
	}

	var agg *directory.Tenant
	err := aggregates.ExecuteWrite(ctx, s.deps, op, func(dbc dbctx.Context) error {
		row, err := s.tenants.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if err := requireAccess(op, accessor, row.Scope()); err != nil {
			return err
		}

		loaded := row.Version
		agg = directory.LoadTenant(row)
		if err := agg.ChangeStatus(to, accessor.UserID, time.Now().UTC()); err != nil {
			return err
		}
		if len(agg.Uncommitted()) == 0 {
			// Same-status request is a no-op.
			return nil
		}
		ok, err := s.tenants.UpdateByVersion(dbc, agg.T, loaded)
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(ok, "tenant was modified concurrently"); err != nil {
			return err
		}
		return s.outbox.Append(dbc, agg.Uncommitted())
	})
	if err != nil {
		return nil, err
	}
	publishAndClear(ctx, s.bus, s.log, &agg.Recorder)
	return agg.T, nil
}

func (s *tenantService) Delete(ctx context.Context, accessor scope.Accessor, id uuid.UUID) error {
	const op = "tenant.delete"

	v := &violations{}
	v.requireUUID("id", id)
	if err := v.err(op); err != nil {
		return err
	}

	var agg *directory.Tenant
	err := aggregates.ExecuteWrite(ctx, s.deps, op, func(dbc dbctx.Context) error {
		row, err := s.tenants.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if err := requireAccess(op, accessor, row.Scope()); err != nil {
			return err
		}
		if busy, err := s.tenants.HasOrganizations(dbc, id); err != nil {
			return err
		} else if busy {
			return aggregates.BusinessRuleError("tenant still has organizations")
		}
		if busy, err := s.tenants.HasAdminUsers(dbc, id); err != nil {
			return err
		} else if busy {
			return aggregates.BusinessRuleError("tenant still has admin users")
		}

		loaded := row.Version
		agg = directory.LoadTenant(row)
		if !agg.Delete(accessor.UserID, time.Now().UTC()) {
			// Already deleted; terminal state is idempotent.
			return nil
		}
		ok, err := s.tenants.UpdateByVersion(dbc, agg.T, loaded)
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(ok, "tenant was modified concurrently"); err != nil {
			return err
		}
		return s.outbox.Append(dbc, agg.Uncommitted())
	})
	if err != nil {
		return err
	}
	publishAndClear(ctx, s.bus, s.log, &agg.Recorder)
	return nil
}
