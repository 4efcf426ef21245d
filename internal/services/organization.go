package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brynevale/admincore-backend/internal/data/aggregates"
	"github.com/brynevale/admincore-backend/internal/data/repos"
	"github.com/brynevale/admincore-backend/internal/domain/directory"
	"github.com/brynevale/admincore-backend/internal/domain/lifecycle"
	"github.com/brynevale/admincore-backend/internal/domain/scope"
	"github.com/brynevale/admincore-backend/internal/pkg/dbctx"
	"github.com/brynevale/admincore-backend/internal/platform/logger"
	"github.com/brynevale/admincore-backend/internal/realtime/bus"
	"github.com/brynevale/admincore-backend/internal/types"
)

type CreateOrganizationInput struct {
	TenantID      uuid.UUID
	Name          string
	Code          string
	Description   string
	ManagerUserID *uuid.UUID
	Privacy       scope.PrivacyLevel
}

type OrganizationService interface {
	Create(ctx context.Context, accessor scope.Accessor, in CreateOrganizationInput) (*types.Organization, error)
	UpdateInfo(ctx context.Context, accessor scope.Accessor, id uuid.UUID, in directory.OrganizationInfoUpdate) (*types.Organization, error)
	ChangeStatus(ctx context.Context, accessor scope.Accessor, id uuid.UUID, to lifecycle.Status) (*types.Organization, error)
	Delete(ctx context.Context, accessor scope.Accessor, id uuid.UUID) error
}

type organizationService struct {
	db      *gorm.DB
	log     *logger.Logger
	deps    aggregates.BaseDeps
	orgs    repos.OrganizationRepo
	tenants repos.TenantRepo
	users   repos.AdminUserRepo
	outbox  repos.OutboxRepo
	bus     bus.Bus
}

func NewOrganizationService(deps aggregates.BaseDeps, orgs repos.OrganizationRepo, tenants repos.TenantRepo, users repos.AdminUserRepo, outboxRepo repos.OutboxRepo, eventBus bus.Bus) OrganizationService {
	deps = deps.WithDefaults()
	return &organizationService{
		db:      deps.DB,
		log:     deps.Log.With("service", "OrganizationService"),
		deps:    deps,
		orgs:    orgs,
		tenants: tenants,
		users:   users,
		outbox:  outboxRepo,
		bus:     eventBus,
	}
}

func (s *organizationService) Create(ctx context.Context, accessor scope.Accessor, in CreateOrganizationInput) (*types.Organization, error) {
	const op = "organization.create"

	v := &violations{}
	v.requireUUID("tenant_id", in.TenantID)
	v.requireText("name", in.Name, 120)
	v.requireCode("code", in.Code)
	v.optionalText("description", in.Description, 2000)
	if err := v.err(op); err != nil {
		return nil, err
	}

	var agg *directory.Organization
	err := aggregates.ExecuteWrite(ctx, s.deps, op, func(dbc dbctx.Context) error {
		tenant, err := s.tenants.GetByID(dbc, in.TenantID)
		if err != nil {
			return err
		}
		if err := requireAccess(op, accessor, tenant.Scope()); err != nil {
			return err
		}
		if lifecycle.Terminal(lifecycle.Status(tenant.Status)) {
			return aggregates.BusinessRuleError("tenant is deleted")
		}
		if exists, err := s.orgs.CodeExists(dbc, in.TenantID, in.Code, uuid.Nil); err != nil {
			return err
		} else if exists {
			return aggregates.BusinessRuleError("organization code already in use for tenant")
		}
		if in.ManagerUserID != nil {
			manager, err := s.users.GetByID(dbc, *in.ManagerUserID)
			if err != nil {
				return err
			}
			if manager.TenantID != in.TenantID {
				return aggregates.BusinessRuleError("manager belongs to a different tenant")
			}
		}

		agg = directory.NewOrganization(directory.NewOrganizationInput{
			TenantID:      in.TenantID,
			Name:          in.Name,
			Code:          in.Code,
			Description:   in.Description,
			ManagerUserID: in.ManagerUserID,
			Privacy:       in.Privacy,
			Actor:         accessor.UserID,
			Now:           time.Now().UTC(),
		})
		if err := s.orgs.Create(dbc, agg.O); err != nil {
			return err
		}
		return s.outbox.Append(dbc, agg.Uncommitted())
	})
	if err != nil {
		return nil, err
	}
	publishAndClear(ctx, s.bus, s.log, &agg.Recorder)
	return agg.O, nil
}

func (s *organizationService) UpdateInfo(ctx context.Context, accessor scope.Accessor, id uuid.UUID, in directory.OrganizationInfoUpdate) (*types.Organization, error) {
	const op = "organization.update_info"

	v := &violations{}
	v.requireUUID("id", id)
	if in.Name != nil {
		v.requireText("name", *in.Name, 120)
	}
	if in.Description != nil {
		v.optionalText("description", *in.Description, 2000)
	}
	if err := v.err(op); err != nil {
		return nil, err
	}

	var agg *directory.Organization
	err := aggregates.ExecuteWrite(ctx, s.deps, op, func(dbc dbctx.Context) error {
		row, err := s.orgs.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if err := requireAccess(op, accessor, row.Scope()); err != nil {
			return err
		}
		if lifecycle.Terminal(lifecycle.Status(row.Status)) {
			return aggregates.BusinessRuleError("organization is deleted")
		}
		if in.ManagerUserID != nil {
			manager, err := s.users.GetByID(dbc, *in.ManagerUserID)
			if err != nil {
				return err
			}
			if manager.TenantID != row.TenantID {
				return aggregates.BusinessRuleError("manager belongs to a different tenant")
			}
		}

		loaded := row.Version
		agg = directory.LoadOrganization(row)
		if !agg.UpdateInfo(in, accessor.UserID, time.Now().UTC()) {
			return nil
		}
		ok, err := s.orgs.UpdateByVersion(dbc, agg.O, loaded)
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(ok, "organization was modified concurrently"); err != nil {
			return err
		}
		return s.outbox.Append(dbc, agg.Uncommitted())
	})
	if err != nil {
		return nil, err
	}
	publishAndClear(ctx, s.bus, s.log, &agg.Recorder)
	return agg.O, nil
}

func (s *organizationService) ChangeStatus(ctx context.Context, accessor scope.Accessor, id uuid.UUID, to lifecycle.Status) (*types.Organization, error) {
	const op = "organization.change_status"

	v := &violations{}
	v.requireUUID("id", id)
	if err := v.err(op); err != nil {
		return nil, err
	}

	var agg *directory.Organization
	err := aggregates.ExecuteWrite(ctx, s.deps, op, func(dbc dbctx.Context) error {
		row, err := s.orgs.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if err := requireAccess(op, accessor, row.Scope()); err != nil {
			return err
		}

		loaded := row.Version
		agg = directory.LoadOrganization(row)
		if err := agg.ChangeStatus(to, accessor.UserID, time.Now().UTC()); err != nil {
			return err
		}
		if len(agg.Uncommitted()) == 0 {
			return nil
		}
		ok, err := s.orgs.UpdateByVersion(dbc, agg.O, loaded)
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(ok, "organization was modified concurrently"); err != nil {
			return err
		}
		return s.outbox.Append(dbc, agg.Uncommitted())
	})
	if err != nil {
		return nil, err
	}
	publishAndClear(ctx, s.bus, s.log, &agg.Recorder)
	return agg.O, nil
}

func (s *organizationService) Delete(ctx context.Context, accessor scope.Accessor, id uuid.UUID) error {
	const op = "organization.delete"

	v := &violations{}
	v.requireUUID("id", id)
	if err := v.err(op); err != nil {
		return err
	}

	var agg *directory.Organization
	err := aggregates.ExecuteWrite(ctx, s.deps, op, func(dbc dbctx.Context) error {
		row, err := s.orgs.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if err := requireAccess(op, accessor, row.Scope()); err != nil {
			return err
		}
		if busy, err := s.orgs.HasDepartments(dbc, id); err != nil {
			return err
		} else if busy {
			return aggregates.BusinessRuleError("organization still has departments")
		}

		loaded := row.Version
		agg = directory.LoadOrganization(row)
		if !agg.Delete(accessor.UserID, time.Now().UTC()) {
			return nil
		}
		ok, err := s.orgs.UpdateByVersion(dbc, agg.O, loaded)
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(ok, "organization was modified concurrently"); err != nil {
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
