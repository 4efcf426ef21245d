package directory

import (
	"time"

	"github.com/google/uuid"

	"github.com/brynevale/admincore-backend/internal/domain/event"
	"github.com/brynevale/admincore-backend/internal/domain/lifecycle"
	"github.com/brynevale/admincore-backend/internal/domain/scope"
	"github.com/brynevale/admincore-backend/internal/types"
)

// AdminUser wraps an admin account snapshot with its uncommitted events.
type AdminUser struct {
	event.Recorder
	U *types.AdminUser
}

func LoadAdminUser(u *types.AdminUser) *AdminUser {
	return &AdminUser{U: u}
}

type NewAdminUserInput struct {
	TenantID       uuid.UUID
	OrganizationID *uuid.UUID
	DepartmentIDs  []uuid.UUID
	Email          string
	Username       string
	DisplayName    string
	Title          string
	Privacy        scope.PrivacyLevel
	Actor          uuid.UUID
	Now            time.Time
}

// NewAdminUser fixes isolation at USER; the account owns itself.
func NewAdminUser(in NewAdminUserInput) *AdminUser {
	id := uuid.New()
	now := in.Now.UTC()
	privacy := in.Privacy
	if privacy == "" {
		privacy = scope.PrivacyShared
	}
	u := &types.AdminUser{
		ID:             id,
		TenantID:       in.TenantID,
		OrganizationID: in.OrganizationID,
		DepartmentIDs:  in.DepartmentIDs,
		OwnerUserID:    &id,
		IsolationLevel: string(scope.IsolationUser),
		PrivacyLevel:   string(privacy),
		Email:          in.Email,
		Username:       in.Username,
		DisplayName:    in.DisplayName,
		Title:          in.Title,
		Status:         string(lifecycle.StatusInitializing),
		Version:        1,
		CreatedBy:      in.Actor,
		UpdatedBy:      in.Actor,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	agg := &AdminUser{U: u}
	agg.Record(event.New(EventAdminUserCreated, AggregateAdminUser, id, 1, now, event.CreatedPayload{
		Actor:          in.Actor,
		TenantID:       u.TenantID,
		OrganizationID: u.OrganizationID,
		DepartmentIDs:  u.DepartmentIDs,
		OwnerUserID:    u.OwnerUserID,
		IsolationLevel: u.IsolationLevel,
		PrivacyLevel:   u.PrivacyLevel,
		Status:         u.Status,
		Name:           u.DisplayName,
		Code:           u.Username,
		NaturalKey:     u.Email,
		Fields: map[string]any{
			"email":    u.Email,
			"username": u.Username,
			"title":    u.Title,
		},
	}))
	return agg
}

type AdminUserInfoUpdate struct {
	Email       *string
	Username    *string
	DisplayName *string
	Title       *string
}

func (a *AdminUser) UpdateInfo(in AdminUserInfoUpdate, actor uuid.UUID, now time.Time) bool {
	changes := map[string]event.FieldChange{}
	if in.Email != nil && *in.Email != a.U.Email {
		changes["email"] = event.FieldChange{Old: a.U.Email, New: *in.Email}
		a.U.Email = *in.Email
	}
	if in.Username != nil && *in.Username != a.U.Username {
		changes["username"] = event.FieldChange{Old: a.U.Username, New: *in.Username}
		a.U.Username = *in.Username
	}
	if in.DisplayName != nil && *in.DisplayName != a.U.DisplayName {
		changes["display_name"] = event.FieldChange{Old: a.U.DisplayName, New: *in.DisplayName}
		a.U.DisplayName = *in.DisplayName
	}
	if in.Title != nil && *in.Title != a.U.Title {
		changes["title"] = event.FieldChange{Old: a.U.Title, New: *in.Title}
		a.U.Title = *in.Title
	}
	if len(changes) == 0 {
		return false
	}
	a.bump(actor, now)
	a.Record(event.New(EventAdminUserUpdated, AggregateAdminUser, a.U.ID, a.U.Version, now, event.UpdatedPayload{
		Actor:         actor,
		ChangedFields: changes,
	}))
	return true
}

// AssignToOrganization re-scopes the account into an organization and its
// departments, raising isolation to ORGANIZATION.
func (a *AdminUser) AssignToOrganization(orgID uuid.UUID, deptIDs []uuid.UUID, actor uuid.UUID, now time.Time) bool {
	if a.U.OrganizationID != nil && *a.U.OrganizationID == orgID &&
		uuidSetEqual(a.U.DepartmentIDs, deptIDs) &&
		a.U.IsolationLevel == string(scope.IsolationOrganization) {
		return false
	}
	a.U.OrganizationID = &orgID
	a.U.DepartmentIDs = deptIDs
	a.U.IsolationLevel = string(scope.IsolationOrganization)
	a.bump(actor, now)
	a.Record(event.New(EventAdminUserOrganizationAssigned, AggregateAdminUser, a.U.ID, a.U.Version, now, event.OrganizationAssignedPayload{
		Actor:          actor,
		OrganizationID: orgID,
		DepartmentIDs:  deptIDs,
		IsolationLevel: a.U.IsolationLevel,
	}))
	return true
}

func (a *AdminUser) ChangeStatus(to lifecycle.Status, actor uuid.UUID, now time.Time) error {
	const op = "Directory.AdminUser.ChangeStatus"
	changed, err := statusChange(op, a.U.Status, to)
	if err != nil || !changed {
		return err
	}
	prev := a.U.Status
	a.U.Status = string(to)
	a.bump(actor, now)
	a.Record(event.New(EventAdminUserStatusChanged, AggregateAdminUser, a.U.ID, a.U.Version, now, event.StatusChangedPayload{
		Actor:          actor,
		PreviousStatus: prev,
		NewStatus:      string(to),
	}))
	return nil
}

func (a *AdminUser) Delete(actor uuid.UUID, now time.Time) bool {
	if !lifecycle.Deletable(lifecycle.Status(a.U.Status)) {
		return false
	}
	a.U.Status = string(lifecycle.StatusDeleted)
	a.bump(actor, now)
	a.Record(event.New(EventAdminUserDeleted, AggregateAdminUser, a.U.ID, a.U.Version, now, event.DeletedPayload{
		Actor: actor,
	}))
	return true
}

func (a *AdminUser) bump(actor uuid.UUID, now time.Time) {
	a.U.Version++
	a.U.UpdatedBy = actor
	a.U.UpdatedAt = now.UTC()
}
