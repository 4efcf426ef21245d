package directory

import (
	"time"

	"github.com/google/uuid"

	"github.com/brynevale/admincore-backend/internal/domain/event"
	"github.com/brynevale/admincore-backend/internal/domain/lifecycle"
	"github.com/brynevale/admincore-backend/internal/domain/scope"
	"github.com/brynevale/admincore-backend/internal/types"
)

// Organization wraps an organization snapshot with its uncommitted events.
type Organization struct {
	event.Recorder
	O *types.Organization
}

func LoadOrganization(o *types.Organization) *Organization {
	return &Organization{O: o}
}

type NewOrganizationInput struct {
	TenantID      uuid.UUID
	Name          string
	Code          string
	Description   string
	ManagerUserID *uuid.UUID
	Privacy       scope.PrivacyLevel
	Actor         uuid.UUID
	Now           time.Time
}

// NewOrganization fixes isolation at ORGANIZATION; the organization's own
// id fills the organization scoping dimension.
func NewOrganization(in NewOrganizationInput) *Organization {
	id := uuid.New()
	now := in.Now.UTC()
	privacy := in.Privacy
	if privacy == "" {
		privacy = scope.PrivacyShared
	}
	o := &types.Organization{
		ID:             id,
		TenantID:       in.TenantID,
		OrganizationID: &id,
		IsolationLevel: string(scope.IsolationOrganization),
		PrivacyLevel:   string(privacy),
		Name:           in.Name,
		Code:           in.Code,
		Description:    in.Description,
		ManagerUserID:  in.ManagerUserID,
		Status:         string(lifecycle.StatusInitializing),
		Version:        1,
		CreatedBy:      in.Actor,
		UpdatedBy:      in.Actor,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	agg := &Organization{O: o}
	agg.Record(event.New(EventOrganizationCreated, AggregateOrganization, id, 1, now, event.CreatedPayload{
		Actor:          in.Actor,
		TenantID:       o.TenantID,
		OrganizationID: o.OrganizationID,
		IsolationLevel: o.IsolationLevel,
		PrivacyLevel:   o.PrivacyLevel,
		Status:         o.Status,
		Name:           o.Name,
		Code:           o.Code,
		NaturalKey:     o.Code,
		Fields: map[string]any{
			"description":     o.Description,
			"manager_user_id": uuidPtrString(o.ManagerUserID),
		},
	}))
	return agg
}

type OrganizationInfoUpdate struct {
	Name          *string
	Description   *string
	ManagerUserID *uuid.UUID
	ClearManager  bool
}

func (a *Organization) UpdateInfo(in OrganizationInfoUpdate, actor uuid.UUID, now time.Time) bool {
	changes := map[string]event.FieldChange{}
	if in.Name != nil && *in.Name != a.O.Name {
		changes["name"] = event.FieldChange{Old: a.O.Name, New: *in.Name}
		a.O.Name = *in.Name
	}
	if in.Description != nil && *in.Description != a.O.Description {
		changes["description"] = event.FieldChange{Old: a.O.Description, New: *in.Description}
		a.O.Description = *in.Description
	}
	switch {
	case in.ClearManager:
		if a.O.ManagerUserID != nil {
			changes["manager_user_id"] = event.FieldChange{Old: uuidPtrString(a.O.ManagerUserID), New: nil}
			a.O.ManagerUserID = nil
		}
	case in.ManagerUserID != nil:
		if !uuidPtrEqual(in.ManagerUserID, a.O.ManagerUserID) {
			changes["manager_user_id"] = event.FieldChange{Old: uuidPtrString(a.O.ManagerUserID), New: in.ManagerUserID.String()}
			a.O.ManagerUserID = in.ManagerUserID
		}
	}
	if len(changes) == 0 {
		return false
	}
	a.bump(actor, now)
	a.Record(event.New(EventOrganizationUpdated, AggregateOrganization, a.O.ID, a.O.Version, now, event.UpdatedPayload{
		Actor:         actor,
		ChangedFields: changes,
	}))
	return true
}

func (a *Organization) ChangeStatus(to lifecycle.Status, actor uuid.UUID, now time.Time) error {
	const op = "Directory.Organization.ChangeStatus"
	changed, err := statusChange(op, a.O.Status, to)
	if err != nil || !changed {
		return err
	}
	prev := a.O.Status
	a.O.Status = string(to)
	a.bump(actor, now)
	a.Record(event.New(EventOrganizationStatusChanged, AggregateOrganization, a.O.ID, a.O.Version, now, event.StatusChangedPayload{
		Actor:          actor,
		PreviousStatus: prev,
		NewStatus:      string(to),
	}))
	return nil
}

func (a *Organization) Delete(actor uuid.UUID, now time.Time) bool {
	if !lifecycle.Deletable(lifecycle.Status(a.O.Status)) {
		return false
	}
	a.O.Status = string(lifecycle.StatusDeleted)
	a.bump(actor, now)
	a.Record(event.New(EventOrganizationDeleted, AggregateOrganization, a.O.ID, a.O.Version, now, event.DeletedPayload{
		Actor: actor,
	}))
	return true
}

func (a *Organization) bump(actor uuid.UUID, now time.Time) {
	a.O.Version++
	a.O.UpdatedBy = actor
	a.O.UpdatedAt = now.UTC()
}
