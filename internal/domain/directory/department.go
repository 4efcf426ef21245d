package directory

import (
	"time"

	"github.com/google/uuid"

	"github.com/brynevale/admincore-backend/internal/domain/event"
	"github.com/brynevale/admincore-backend/internal/domain/lifecycle"
	"github.com/brynevale/admincore-backend/internal/domain/scope"
	"github.com/brynevale/admincore-backend/internal/types"
)

// Department wraps a department snapshot with its uncommitted events.
// Reference checks (parent existence, cycle detection) need repo access
// and live in the use case; the aggregate only applies validated state.
type Department struct {
	event.Recorder
	D *types.Department
}

func LoadDepartment(d *types.Department) *Department {
	return &Department{D: d}
}

type NewDepartmentInput struct {
	TenantID           uuid.UUID
	OrganizationID     uuid.UUID
	Name               string
	Code               string
	Description        string
	ParentDepartmentID *uuid.UUID
	ManagerUserID      *uuid.UUID
	Privacy            scope.PrivacyLevel
	Actor              uuid.UUID
	Now                time.Time
}

// NewDepartment fixes isolation at DEPARTMENT; the department's own id
// fills the department scoping dimension.
func NewDepartment(in NewDepartmentInput) *Department {
	id := uuid.New()
	now := in.Now.UTC()
	privacy := in.Privacy
	if privacy == "" {
		privacy = scope.PrivacyShared
	}
	orgID := in.OrganizationID
	d := &types.Department{
		ID:                 id,
		TenantID:           in.TenantID,
		OrganizationID:     &orgID,
		DepartmentIDs:      []uuid.UUID{id},
		IsolationLevel:     string(scope.IsolationDepartment),
		PrivacyLevel:       string(privacy),
		Name:               in.Name,
		Code:               in.Code,
		Description:        in.Description,
		ParentDepartmentID: in.ParentDepartmentID,
		ManagerUserID:      in.ManagerUserID,
		Status:             string(lifecycle.StatusInitializing),
		Version:            1,
		CreatedBy:          in.Actor,
		UpdatedBy:          in.Actor,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	agg := &Department{D: d}
	agg.Record(event.New(EventDepartmentCreated, AggregateDepartment, id, 1, now, event.CreatedPayload{
		Actor:          in.Actor,
		TenantID:       d.TenantID,
		OrganizationID: d.OrganizationID,
		DepartmentIDs:  d.DepartmentIDs,
		IsolationLevel: d.IsolationLevel,
		PrivacyLevel:   d.PrivacyLevel,
		Status:         d.Status,
		Name:           d.Name,
		Code:           d.Code,
		NaturalKey:     d.Code,
		Fields: map[string]any{
			"description":          d.Description,
			"parent_department_id": uuidPtrString(d.ParentDepartmentID),
			"manager_user_id":      uuidPtrString(d.ManagerUserID),
		},
	}))
	return agg
}

type DepartmentInfoUpdate struct {
	Name          *string
	Description   *string
	ManagerUserID *uuid.UUID
	ClearManager  bool
}

func (a *Department) UpdateInfo(in DepartmentInfoUpdate, actor uuid.UUID, now time.Time) bool {
	changes := map[string]event.FieldChange{}
	if in.Name != nil && *in.Name != a.D.Name {
		changes["name"] = event.FieldChange{Old: a.D.Name, New: *in.Name}
		a.D.Name = *in.Name
	}
	if in.Description != nil && *in.Description != a.D.Description {
		changes["description"] = event.FieldChange{Old: a.D.Description, New: *in.Description}
		a.D.Description = *in.Description
	}
	switch {
	case in.ClearManager:
		if a.D.ManagerUserID != nil {
			changes["manager_user_id"] = event.FieldChange{Old: uuidPtrString(a.D.ManagerUserID), New: nil}
			a.D.ManagerUserID = nil
		}
	case in.ManagerUserID != nil:
		if !uuidPtrEqual(in.ManagerUserID, a.D.ManagerUserID) {
			changes["manager_user_id"] = event.FieldChange{Old: uuidPtrString(a.D.ManagerUserID), New: in.ManagerUserID.String()}
			a.D.ManagerUserID = in.ManagerUserID
		}
	}
	if len(changes) == 0 {
		return false
	}
	a.bump(actor, now)
	a.Record(event.New(EventDepartmentUpdated, AggregateDepartment, a.D.ID, a.D.Version, now, event.UpdatedPayload{
		Actor:         actor,
		ChangedFields: changes,
	}))
	return true
}

// AssignParent replaces the parent link. The caller has already verified
// existence, tenant/organization match and acyclicity. nil clears the
// parent. Same parent is a silent no-op.
func (a *Department) AssignParent(parent *uuid.UUID, actor uuid.UUID, now time.Time) bool {
	if uuidPtrEqual(parent, a.D.ParentDepartmentID) {
		return false
	}
	change := event.FieldChange{Old: uuidPtrString(a.D.ParentDepartmentID), New: uuidPtrString(parent)}
	a.D.ParentDepartmentID = parent
	a.bump(actor, now)
	a.Record(event.New(EventDepartmentUpdated, AggregateDepartment, a.D.ID, a.D.Version, now, event.UpdatedPayload{
		Actor:         actor,
		ChangedFields: map[string]event.FieldChange{"parent_department_id": change},
	}))
	return true
}

// AssignToOrganization atomically replaces the organization scope and
// raises the isolation level to ORGANIZATION. This is the only sanctioned
// way to change the isolation level after creation.
func (a *Department) AssignToOrganization(orgID uuid.UUID, deptIDs []uuid.UUID, actor uuid.UUID, now time.Time) bool {
	if a.D.OrganizationID != nil && *a.D.OrganizationID == orgID &&
		uuidSetEqual(a.D.DepartmentIDs, deptIDs) &&
		a.D.IsolationLevel == string(scope.IsolationOrganization) {
		return false
	}
	a.D.OrganizationID = &orgID
	a.D.DepartmentIDs = deptIDs
	a.D.IsolationLevel = string(scope.IsolationOrganization)
	a.bump(actor, now)
	a.Record(event.New(EventDepartmentOrganizationAssigned, AggregateDepartment, a.D.ID, a.D.Version, now, event.OrganizationAssignedPayload{
		Actor:          actor,
		OrganizationID: orgID,
		DepartmentIDs:  deptIDs,
		IsolationLevel: a.D.IsolationLevel,
	}))
	return true
}

func (a *Department) ChangeStatus(to lifecycle.Status, actor uuid.UUID, now time.Time) error {
	const op = "Directory.Department.ChangeStatus"
	changed, err := statusChange(op, a.D.Status, to)
	if err != nil || !changed {
		return err
	}
	prev := a.D.Status
	a.D.Status = string(to)
	a.bump(actor, now)
	a.Record(event.New(EventDepartmentStatusChanged, AggregateDepartment, a.D.ID, a.D.Version, now, event.StatusChangedPayload{
		Actor:          actor,
		PreviousStatus: prev,
		NewStatus:      string(to),
	}))
	return nil
}

func (a *Department) Delete(actor uuid.UUID, now time.Time) bool {
	if !lifecycle.Deletable(lifecycle.Status(a.D.Status)) {
		return false
	}
	a.D.Status = string(lifecycle.StatusDeleted)
	a.bump(actor, now)
	a.Record(event.New(EventDepartmentDeleted, AggregateDepartment, a.D.ID, a.D.Version, now, event.DeletedPayload{
		Actor: actor,
	}))
	return true
}

func (a *Department) bump(actor uuid.UUID, now time.Time) {
	a.D.Version++
	a.D.UpdatedBy = actor
	a.D.UpdatedAt = now.UTC()
}
