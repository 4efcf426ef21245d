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

type CreateDepartmentInput struct {
	TenantID           uuid.UUID
	OrganizationID     uuid.UUID
	Name               string
	Code               string
	Description        string
	ParentDepartmentID *uuid.UUID
	ManagerUserID      *uuid.UUID
	Privacy            scope.PrivacyLevel
}

type DepartmentService interface {
	Create(ctx context.Context, accessor scope.Accessor, in CreateDepartmentInput) (*types.Department, error)
	UpdateInfo(ctx context.Context, accessor scope.Accessor, id uuid.UUID, in directory.DepartmentInfoUpdate) (*types.Department, error)
	AssignParent(ctx context.Context, accessor scope.Accessor, id uuid.UUID, parentID *uuid.UUID) (*types.Department, error)
	AssignToOrganization(ctx context.Context, accessor scope.Accessor, id, organizationID uuid.UUID) (*types.Department, error)
	ChangeStatus(ctx context.Context, accessor scope.Accessor, id uuid.UUID, to lifecycle.Status) (*types.Department, error)
	Delete(ctx context.Context, accessor scope.Accessor, id uuid.UUID) error
}

type departmentService struct {
	db      *gorm.DB
	log     *logger.Logger
	deps    aggregates.BaseDeps
	depts   repos.DepartmentRepo
	orgs    repos.OrganizationRepo
	tenants repos.TenantRepo
	outbox  repos.OutboxRepo
	bus     bus.Bus
}

func NewDepartmentService(deps aggregates.BaseDeps, depts repos.DepartmentRepo, orgs repos.OrganizationRepo, tenants repos.TenantRepo, outboxRepo repos.OutboxRepo, eventBus bus.Bus) DepartmentService {
	deps = deps.WithDefaults()
	return &departmentService{
		db:      deps.DB,
		log:     deps.Log.With("service", "DepartmentService"),
		deps:    deps,
		depts:   depts,
		orgs:    orgs,
		tenants: tenants,
		outbox:  outboxRepo,
		bus:     eventBus,
	}
}

func (s *departmentService) Create(ctx context.Context, accessor scope.Accessor, in CreateDepartmentInput) (*types.Department, error) {
	const op = "department.create"

	v := &violations{}
	v.requireUUID("tenant_id", in.TenantID)
	v.requireUUID("organization_id", in.OrganizationID)
	v.requireText("name", in.Name, 120)
	v.requireCode("code", in.Code)
	v.optionalText("description", in.Description, 2000)
	if err := v.err(op); err != nil {
		return nil, err
	}

	var agg *directory.Department
	err := aggregates.ExecuteWrite(ctx, s.deps, op, func(dbc dbctx.Context) error {
		org, err := s.orgs.GetByID(dbc, in.OrganizationID)
		if err != nil {
			return err
		}
		if org.TenantID != in.TenantID {
			return aggregates.BusinessRuleError("organization belongs to a different tenant")
		}
		if err := requireAccess(op, accessor, org.Scope()); err != nil {
			return err
		}
		if lifecycle.Terminal(lifecycle.Status(org.Status)) {
			return aggregates.BusinessRuleError("organization is deleted")
		}
		if exists, err := s.depts.CodeExists(dbc, in.TenantID, in.Code, uuid.Nil); err != nil {
			return err
		} else if exists {
			return aggregates.BusinessRuleError("department code already in use for tenant")
		}
		if in.ParentDepartmentID != nil {
			parent, err := s.depts.GetByID(dbc, *in.ParentDepartmentID)
			if err != nil {
				return err
			}
			if parent.TenantID != in.TenantID {
				return aggregates.BusinessRuleError("parent department belongs to a different tenant")
			}
			if parent.OrganizationID == nil || *parent.OrganizationID != in.OrganizationID {
				return aggregates.BusinessRuleError("parent department belongs to a different organization")
			}
			if lifecycle.Terminal(lifecycle.Status(parent.Status)) {
				return aggregates.BusinessRuleError("parent department is deleted")
			}
		}

		agg = directory.NewDepartment(directory.NewDepartmentInput{
			TenantID:           in.TenantID,
			OrganizationID:     in.OrganizationID,
			Name:               in.Name,
			Code:               in.Code,
			Description:        in.Description,
			ParentDepartmentID: in.ParentDepartmentID,
			ManagerUserID:      in.ManagerUserID,
			Privacy:            in.Privacy,
			Actor:              accessor.UserID,
			Now:                time.Now().UTC(),
		})
		if err := s.depts.Create(dbc, agg.D); err != nil {
			return err
		}
		return s.outbox.Append(dbc, agg.Uncommitted())
	})
	if err != nil {
		return nil, err
	}
	publishAndClear(ctx, s.bus, s.log, &agg.Recorder)
	return agg.D, nil
}

func (s *departmentService) UpdateInfo(ctx context.Context, accessor scope.Accessor, id uuid.UUID, in directory.DepartmentInfoUpdate) (*types.Department, error) {
	const op = "department.update_info"

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

	var agg *directory.Department
	err := aggregates.ExecuteWrite(ctx, s.deps, op, func(dbc dbctx.Context) error {
		row, err := s.depts.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if err := requireAccess(op, accessor, row.Scope()); err != nil {
			return err
		}
		if lifecycle.Terminal(lifecycle.Status(row.Status)) {
			return aggregates.BusinessRuleError("department is deleted")
		}

		loaded := row.Version
		agg = directory.LoadDepartment(row)
		if !agg.UpdateInfo(in, accessor.UserID, time.Now().UTC()) {
			return nil
		}
		ok, err := s.depts.UpdateByVersion(dbc, agg.D, loaded)
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(ok, "department was modified concurrently"); err != nil {
			return err
		}
		return s.outbox.Append(dbc, agg.Uncommitted())
	})
	if err != nil {
		return nil, err
	}
	publishAndClear(ctx, s.bus, s.log, &agg.Recorder)
	return agg.D, nil
}

// AssignParent re-parents a department. A nil parentID detaches it. The
// new parent must live in the same tenant and organization, must not be
// the department itself, and must not be one of its descendants: the
// full ancestor chain of the candidate parent is walked before the
// aggregate mutates.
func (s *departmentService) AssignParent(ctx context.Context, accessor scope.Accessor, id uuid.UUID, parentID *uuid.UUID) (*types.Department, error) {
	const op = "department.assign_parent"

	v := &violations{}
	v.requireUUID("id", id)
	if err := v.err(op); err != nil {
		return nil, err
	}
	if parentID != nil && *parentID == id {
		return nil, aggregates.MapError(op, aggregates.BusinessRuleError("department cannot be its own parent"))
	}

	var agg *directory.Department
	err := aggregates.ExecuteWrite(ctx, s.deps, op, func(dbc dbctx.Context) error {
		row, err := s.depts.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if err := requireAccess(op, accessor, row.Scope()); err != nil {
			return err
		}
		if lifecycle.Terminal(lifecycle.Status(row.Status)) {
			return aggregates.BusinessRuleError("department is deleted")
		}
		if parentID != nil {
			parent, err := s.depts.GetByID(dbc, *parentID)
			if err != nil {
				return err
			}
			if parent.TenantID != row.TenantID {
				return aggregates.BusinessRuleError("parent department belongs to a different tenant")
			}
			if !uuidPtrMatch(parent.OrganizationID, row.OrganizationID) {
				return aggregates.BusinessRuleError("parent department belongs to a different organization")
			}
			if lifecycle.Terminal(lifecycle.Status(parent.Status)) {
				return aggregates.BusinessRuleError("parent department is deleted")
			}
			if err := s.ensureNoCycle(dbc, id, parent); err != nil {
				return err
			}
		}

		loaded := row.Version
		agg = directory.LoadDepartment(row)
		if !agg.AssignParent(parentID, accessor.UserID, time.Now().UTC()) {
			return nil
		}
		ok, err := s.depts.UpdateByVersion(dbc, agg.D, loaded)
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(ok, "department was modified concurrently"); err != nil {
			return err
		}
		return s.outbox.Append(dbc, agg.Uncommitted())
	})
	if err != nil {
		return nil, err
	}
	publishAndClear(ctx, s.bus, s.log, &agg.Recorder)
	return agg.D, nil
}

// ensureNoCycle walks the candidate parent's ancestor chain to the root.
// Finding the department being re-parented anywhere on that chain means
// the assignment would close a loop. The visited set guards against a
// pre-existing corrupt cycle turning the walk into an infinite loop.
func (s *departmentService) ensureNoCycle(dbc dbctx.Context, id uuid.UUID, parent *types.Department) error {
	visited := map[uuid.UUID]bool{id: true}
	current := parent
	for current != nil {
		if current.ID == id {
			return aggregates.BusinessRuleError("parent assignment would create a cycle")
		}
		if visited[current.ID] {
			return aggregates.BusinessRuleError("department hierarchy already contains a cycle")
		}
		visited[current.ID] = true
		if current.ParentDepartmentID == nil {
			return nil
		}
		next, err := s.depts.GetByID(dbc, *current.ParentDepartmentID)
		if err != nil {
			return err
		}
		current = next
	}
	return nil
}

func (s *departmentService) AssignToOrganization(ctx context.Context, accessor scope.Accessor, id, organizationID uuid.UUID) (*types.Department, error) {
	const op = "department.assign_to_organization"

	v := &violations{}
	v.requireUUID("id", id)
	v.requireUUID("organization_id", organizationID)
	if err := v.err(op); err != nil {
		return nil, err
	}

	var agg *directory.Department
	err := aggregates.ExecuteWrite(ctx, s.deps, op, func(dbc dbctx.Context) error {
		row, err := s.depts.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if err := requireAccess(op, accessor, row.Scope()); err != nil {
			return err
		}
		if lifecycle.Terminal(lifecycle.Status(row.Status)) {
			return aggregates.BusinessRuleError("department is deleted")
		}
		org, err := s.orgs.GetByID(dbc, organizationID)
		if err != nil {
			return err
		}
		if org.TenantID != row.TenantID {
			return aggregates.BusinessRuleError("organization belongs to a different tenant")
		}
		if lifecycle.Terminal(lifecycle.Status(org.Status)) {
			return aggregates.BusinessRuleError("organization is deleted")
		}
		if row.ParentDepartmentID != nil {
			return aggregates.BusinessRuleError("detach department from its parent before moving organizations")
		}

		loaded := row.Version
		agg = directory.LoadDepartment(row)
		if !agg.AssignToOrganization(organizationID, []uuid.UUID{id}, accessor.UserID, time.Now().UTC()) {
			return nil
		}
		ok, err := s.depts.UpdateByVersion(dbc, agg.D, loaded)
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(ok, "department was modified concurrently"); err != nil {
			return err
		}
		return s.outbox.Append(dbc, agg.Uncommitted())
	})
	if err != nil {
		return nil, err
	}
	publishAndClear(ctx, s.bus, s.log, &agg.Recorder)
	return agg.D, nil
}

func (s *departmentService) ChangeStatus(ctx context.Context, accessor scope.Accessor, id uuid.UUID, to lifecycle.Status) (*types.Department, error) {
	const op = "department.change_status"

	v := &violations{}
	v.requireUUID("id", id)
	if err := v.err(op); err != nil {
		return nil, err
	}

	var agg *directory.Department
	err := aggregates.ExecuteWrite(ctx, s.deps, op, func(dbc dbctx.Context) error {
		row, err := s.depts.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if err := requireAccess(op, accessor, row.Scope()); err != nil {
			return err
		}

		loaded := row.Version
		agg = directory.LoadDepartment(row)
		if err := agg.ChangeStatus(to, accessor.UserID, time.Now().UTC()); err != nil {
			return err
		}
		if len(agg.Uncommitted()) == 0 {
			return nil
		}
		ok, err := s.depts.UpdateByVersion(dbc, agg.D, loaded)
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(ok, "department was modified concurrently"); err != nil {
			return err
		}
		return s.outbox.Append(dbc, agg.Uncommitted())
	})
	if err != nil {
		return nil, err
	}
	publishAndClear(ctx, s.bus, s.log, &agg.Recorder)
	return agg.D, nil
}

func (s *departmentService) Delete(ctx context.Context, accessor scope.Accessor, id uuid.UUID) error {
	const op = "department.delete"

	v := &violations{}
	v.requireUUID("id", id)
	if err := v.err(op); err != nil {
		return err
	}

	var agg *directory.Department
	err := aggregates.ExecuteWrite(ctx, s.deps, op, func(dbc dbctx.Context) error {
		row, err := s.depts.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if err := requireAccess(op, accessor, row.Scope()); err != nil {
			return err
		}
		if hasChildren, err := s.depts.HasChildren(dbc, id); err != nil {
			return err
		} else if hasChildren {
			return aggregates.BusinessRuleError("department still has child departments")
		}

		loaded := row.Version
		agg = directory.LoadDepartment(row)
		if !agg.Delete(accessor.UserID, time.Now().UTC()) {
			return nil
		}
		ok, err := s.depts.UpdateByVersion(dbc, agg.D, loaded)
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(ok, "department was modified concurrently"); err != nil {
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

func uuidPtrMatch(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
