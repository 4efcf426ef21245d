package directory

import (
	"time"

	"github.com/google/uuid"

	"github.com/brynevale/admincore-backend/internal/domain/event"
	"github.com/brynevale/admincore-backend/internal/domain/lifecycle"
	"github.com/brynevale/admincore-backend/internal/domain/scope"
	"github.com/brynevale/admincore-backend/internal/types"
)

// Tenant wraps a tenant snapshot with its uncommitted events. All legal
// mutations go through the methods below; each successful mutation bumps
// the version by one and records exactly one event.
type Tenant struct {
	event.Recorder
	T *types.Tenant
}

// LoadTenant wraps an existing snapshot for mutation.
func LoadTenant(t *types.Tenant) *Tenant {
	return &Tenant{T: t}
}

type NewTenantInput struct {
	Name         string
	Code         string
	Description  string
	ContactEmail string
	Actor        uuid.UUID
	Now          time.Time
}

// NewTenant fixes the isolation level (TENANT) and initial status
// (INITIALIZING) once, at creation. TenantID is the tenant's own id.
func NewTenant(in NewTenantInput) *Tenant {
	id := uuid.New()
	now := in.Now.UTC()
	t := &types.Tenant{
		ID:             id,
		TenantID:       id,
		IsolationLevel: string(scope.IsolationTenant),
		PrivacyLevel:   string(scope.PrivacyShared),
		Name:           in.Name,
		Code:           in.Code,
		Description:    in.Description,
		ContactEmail:   in.ContactEmail,
		Status:         string(lifecycle.StatusInitializing),
		Version:        1,
		CreatedBy:      in.Actor,
		UpdatedBy:      in.Actor,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	agg := &Tenant{T: t}
	agg.Record(event.New(EventTenantCreated, AggregateTenant, id, 1, now, event.CreatedPayload{
		Actor:          in.Actor,
		TenantID:       id,
		IsolationLevel: t.IsolationLevel,
		PrivacyLevel:   t.PrivacyLevel,
		Status:         t.Status,
		Name:           t.Name,
		Code:           t.Code,
		NaturalKey:     t.Code,
		Fields: map[string]any{
			"description":   t.Description,
			"contact_email": t.ContactEmail,
		},
	}))
	return agg
}

type TenantInfoUpdate struct {
	Name         *string
	Description  *string
	ContactEmail *string
}

// UpdateInfo diffs the supplied fields against current state. Identical
// values are a silent no-op: no event, no timestamp change.
func (a *Tenant) UpdateInfo(in TenantInfoUpdate, actor uuid.UUID, now time.Time) bool {
	changes := map[string]event.FieldChange{}
	if in.Name != nil && *in.Name != a.T.Name {
		changes["name"] = event.FieldChange{Old: a.T.Name, New: *in.Name}
		a.T.Name = *in.Name
	}
	if in.Description != nil && *in.Description != a.T.Description {
		changes["description"] = event.FieldChange{Old: a.T.Description, New: *in.Description}
		a.T.Description = *in.Description
	}
	if in.ContactEmail != nil && *in.ContactEmail != a.T.ContactEmail {
		changes["contact_email"] = event.FieldChange{Old: a.T.ContactEmail, New: *in.ContactEmail}
		a.T.ContactEmail = *in.ContactEmail
	}
	if len(changes) == 0 {
		return false
	}
	a.bump(actor, now)
	a.Record(event.New(EventTenantUpdated, AggregateTenant, a.T.ID, a.T.Version, now, event.UpdatedPayload{
		Actor:         actor,
		ChangedFields: changes,
	}))
	return true
}

// ChangeStatus applies the lifecycle transition table. Requesting the
// current status succeeds with zero events.
func (a *Tenant) ChangeStatus(to lifecycle.Status, actor uuid.UUID, now time.Time) error {
	const op = "Directory.Tenant.ChangeStatus"
	changed, err := statusChange(op, a.T.Status, to)
	if err != nil || !changed {
		return err
	}
	prev := a.T.Status
	a.T.Status = string(to)
	a.bump(actor, now)
	a.Record(event.New(EventTenantStatusChanged, AggregateTenant, a.T.ID, a.T.Version, now, event.StatusChangedPayload{
		Actor:          actor,
		PreviousStatus: prev,
		NewStatus:      string(to),
	}))
	return nil
}

// Delete marks the tenant DELETED, a terminal state. Deleting an already
// deleted tenant is a no-op.
func (a *Tenant) Delete(actor uuid.UUID, now time.Time) bool {
	if !lifecycle.Deletable(lifecycle.Status(a.T.Status)) {
		return false
	}
	a.T.Status = string(lifecycle.StatusDeleted)
	a.bump(actor, now)
	a.Record(event.New(EventTenantDeleted, AggregateTenant, a.T.ID, a.T.Version, now, event.DeletedPayload{
		Actor: actor,
	}))
	return true
}

func (a *Tenant) bump(actor uuid.UUID, now time.Time) {
	a.T.Version++
	a.T.UpdatedBy = actor
	a.T.UpdatedAt = now.UTC()
}
