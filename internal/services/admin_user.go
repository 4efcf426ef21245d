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

type CreateAdminUserInput struct {
	TenantID       uuid.UUID
	OrganizationID *uuid.UUID
	DepartmentIDs  []uuid.UUID
	Email          string
	Username       string
	DisplayName    string
	Title          string
	Privacy        scope.PrivacyLevel
}

type AdminUserService interface {
	Create(ctx context.Context, accessor scope.Accessor, in CreateAdminUserInput) (*types.AdminUser, error)
	UpdateInfo(ctx context.Context, accessor scope.Accessor, id uuid.UUID, in directory.AdminUserInfoUpdate) (*types.AdminUser, error)
	AssignToOrganization(ctx context.Context, accessor scope.Accessor, id, organizationID uuid.UUID, departmentIDs []uuid.UUID) (*types.AdminUser, error)
	ChangeStatus(ctx context.Context, accessor scope.Accessor, id uuid.UUID, to lifecycle.Status) (*types.AdminUser, error)
	Delete(ctx context.Context, accessor scope.Accessor, id uuid.UUID) error
}

type adminUserService struct {
	db      *gorm.DB
	log     *logger.Logger
	deps    aggregates.BaseDeps
	users   repos.AdminUserRepo
	orgs    repos.OrganizationRepo
	depts   repos.DepartmentRepo
	tenants repos.TenantRepo
	outbox  repos.OutboxRepo
	bus     bus.Bus
}

func NewAdminUserService(deps aggregates.BaseDeps, users repos.AdminUserRepo, orgs repos.OrganizationRepo, depts repos.DepartmentRepo, tenants repos.TenantRepo, outboxRepo repos.OutboxRepo, eventBus bus.Bus) AdminUserService {
	deps = deps.WithDefaults()
	return &adminUserService{
		db:      deps.DB,
		log:     deps.Log.With("service", "AdminUserService"),
		deps:    deps,
		users:   users,
		orgs:    orgs,
		depts:   depts,
		tenants: tenants,
		outbox:  outboxRepo,
		bus:     eventBus,
	}
}

func (s *adminUserService) Create(ctx context.Context, accessor scope.Accessor, in CreateAdminUserInput) (*types.AdminUser, error) {
	const op = "admin_user.create"

	v := &violations{}
	v.requireUUID("tenant_id", in.TenantID)
	v.requireEmail("email", in.Email)
	v.requireUsername("username", in.Username)
	v.requireText("display_name", in.DisplayName, 120)
	v.optionalText("title", in.Title, 120)
	if err := v.err(op); err != nil {
		return nil, err
	}

	var agg *directory.AdminUser
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
		if exists, err := s.users.EmailExists(dbc, in.TenantID, in.Email, uuid.Nil); err != nil {
			return err
		} else if exists {
			return aggregates.BusinessRuleError("email already in use for tenant")
		}
		if exists, err := s.users.UsernameExists(dbc, in.TenantID, in.Username, uuid.Nil); err != nil {
			return err
		} else if exists {
			return aggregates.BusinessRuleError("username already in use for tenant")
		}
		if err := s.checkAssignment(dbc, in.TenantID, in.OrganizationID, in.DepartmentIDs); err != nil {
			return err
		}

		agg = directory.NewAdminUser(directory.NewAdminUserInput{
			TenantID:       in.TenantID,
			OrganizationID: in.OrganizationID,
			DepartmentIDs:  in.DepartmentIDs,
			Email:          in.Email,
			Username:       in.Username,
			DisplayName:    in.DisplayName,
			Title:          in.Title,
			Privacy:        in.Privacy,
			Actor:          accessor.UserID,
			Now:            time.Now().UTC(),
		})
		if err := s.users.Create(dbc, agg.U); err != nil {
			return err
		}
		return s.outbox.Append(dbc, agg.Uncommitted())
	})
	if err != nil {
		return nil, err
	}
	publishAndClear(ctx, s.bus, s.log, &agg.Recorder)
	return agg.U, nil
}

// checkAssignment verifies every organization/department reference lives
// in the given tenant and is not deleted.
func (s *adminUserService) checkAssignment(dbc dbctx.Context, tenantID uuid.UUID, organizationID *uuid.UUID, departmentIDs []uuid.UUID) error {
	if organizationID != nil {
		org, err := s.orgs.GetByID(dbc, *organizationID)
		if err != nil {
			return err
		}
		if org.TenantID != tenantID {
			return aggregates.BusinessRuleError("organization belongs to a different tenant")
		}
		if lifecycle.Terminal(lifecycle.Status(org.Status)) {
			return aggregates.BusinessRuleError("organization is deleted")
		}
	}
	for _, deptID := range departmentIDs {
		dept, err := s.depts.GetByID(dbc, deptID)
		if err != nil {
			return err
		}
		if dept.TenantID != tenantID {
			return aggregates.BusinessRuleError("department belongs to a different tenant")
		}
		if organizationID != nil && (dept.OrganizationID == nil || *dept.OrganizationID != *organizationID) {
			return aggregates.BusinessRuleError("department belongs to a different organization")
		}
		if lifecycle.Terminal(lifecycle.Status(dept.Status)) {
			return aggregates.BusinessRuleError("department is deleted")
		}
	}
	return nil
}

func (s *adminUserService) UpdateInfo(ctx context.Context, accessor scope.Accessor, id uuid.UUID, in directory.AdminUserInfoUpdate) (*types.AdminUser, error) {
	const op = "admin_user.update_info"

	v := &violations{}
	v.requireUUID("id", id)
	if in.Email != nil {
		v.requireEmail("email", *in.Email)
	}
	if in.Username != nil {
		v.requireUsername("username", *in.Username)
	}
	if in.DisplayName != nil {
		v.requireText("display_name", *in.DisplayName, 120)
	}
	if in.Title != nil {
		v.optionalText("title", *in.Title, 120)
	}
	if err := v.err(op); err != nil {
		return nil, err
	}

	var agg *directory.AdminUser
	err := aggregates.ExecuteWrite(ctx, s.deps, op, func(dbc dbctx.Context) error {
		row, err := s.users.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if err := requireAccess(op, accessor, row.Scope()); err != nil {
			return err
		}
		if lifecycle.Terminal(lifecycle.Status(row.Status)) {
			return aggregates.BusinessRuleError("admin user is deleted")
		}
		if in.Email != nil && *in.Email != row.Email {
			if exists, err := s.users.EmailExists(dbc, row.TenantID, *in.Email, id); err != nil {
				return err
			} else if exists {
				return aggregates.BusinessRuleError("email already in use for tenant")
			}
		}
		if in.Username != nil && *in.Username != row.Username {
			if exists, err := s.users.UsernameExists(dbc, row.TenantID, *in.Username, id); err != nil {
				return err
			} else if exists {
				return aggregates.BusinessRuleError("username already in use for tenant")
			}
		}

		loaded := row.Version
		agg = directory.LoadAdminUser(row)
		if !agg.UpdateInfo(in, accessor.UserID, time.Now().UTC()) {
			return nil
		}
		ok, err := s.users.UpdateByVersion(dbc, agg.U, loaded)
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(ok, "admin user was modified concurrently"); err != nil {
			return err
		}
		return s.outbox.Append(dbc, agg.Uncommitted())
	})
	if err != nil {
		return nil, err
	}
	publishAndClear(ctx, s.bus, s.log, &agg.Recorder)
	return agg.U, nil
}

func (s *adminUserService) AssignToOrganization(ctx context.Context, accessor scope.Accessor, id, organizationID uuid.UUID, departmentIDs []uuid.UUID) (*types.AdminUser, error) {
	const op = "admin_user.assign_to_organization"

	v := &violations{}
	v.requireUUID("id", id)
	v.requireUUID("organization_id", organizationID)
	if err := v.err(op); err != nil {
		return nil, err
	}

	var agg *directory.AdminUser
	err := aggregates.ExecuteWrite(ctx, s.deps, op, func(dbc dbctx.Context) error {
		row, err := s.users.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if err := requireAccess(op, accessor, row.Scope()); err != nil {
			return err
		}
		if lifecycle.Terminal(lifecycle.Status(row.Status)) {
			return aggregates.BusinessRuleError("admin user is deleted")
		}
		orgID := organizationID
		if err := s.checkAssignment(dbc, row.TenantID, &orgID, departmentIDs); err != nil {
			return err
		}

		loaded := row.Version
		agg = directory.LoadAdminUser(row)
		if !agg.AssignToOrganization(organizationID, departmentIDs, accessor.UserID, time.Now().UTC()) {
			return nil
		}
		ok, err := s.users.UpdateByVersion(dbc, agg.U, loaded)
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(ok, "admin user was modified concurrently"); err != nil {
			return err
		}
		return s.outbox.Append(dbc, agg.Uncommitted())
	})
	if err != nil {
		return nil, err
	}
	publishAndClear(ctx, s.bus, s.log, &agg.Recorder)
	return agg.U, nil
}

func (s *adminUserService) ChangeStatus(ctx context.Context, accessor scope.Accessor, id uuid.UUID, to lifecycle.Status) (*types.AdminUser, error) {
	const op = "admin_user.change_status"

	v := &violations{}
	v.requireUUID("id", id)
	if err := v.err(op); err != nil {
		return nil, err
	}

	var agg *directory.AdminUser
	err := aggregates.ExecuteWrite(ctx, s.deps, op, func(dbc dbctx.Context) error {
		row, err := s.users.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if err := requireAccess(op, accessor, row.Scope()); err != nil {
			return err
		}

		loaded := row.Version
		agg = directory.LoadAdminUser(row)
		if err := agg.ChangeStatus(to, accessor.UserID, time.Now().UTC()); err != nil {
			return err
		}
		if len(agg.Uncommitted()) == 0 {
			return nil
		}
		ok, err := s.users.UpdateByVersion(dbc, agg.U, loaded)
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(ok, "admin user was modified concurrently"); err != nil {
			return err
		}
		return s.outbox.Append(dbc, agg.Uncommitted())
	})
	if err != nil {
		return nil, err
	}
	publishAndClear(ctx, s.bus, s.log, &agg.Recorder)
	return agg.U, nil
}

func (s *adminUserService) Delete(ctx context.Context, accessor scope.Accessor, id uuid.UUID) error {
	const op = "admin_user.delete"

	v := &violations{}
	v.requireUUID("id", id)
	if err := v.err(op); err != nil {
		return err
	}

	var agg *directory.AdminUser
	err := aggregates.ExecuteWrite(ctx, s.deps, op, func(dbc dbctx.Context) error {
		row, err := s.users.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if err := requireAccess(op, accessor, row.Scope()); err != nil {
			return err
		}

		loaded := row.Version
		agg = directory.LoadAdminUser(row)
		if !agg.Delete(accessor.UserID, time.Now().UTC()) {
			return nil
		}
		ok, err := s.users.UpdateByVersion(dbc, agg.U, loaded)
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(ok, "admin user was modified concurrently"); err != nil {
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
