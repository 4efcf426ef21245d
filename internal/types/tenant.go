package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/brynevale/admincore-backend/internal/domain/scope"
)

// Tenant is the root of the isolation hierarchy. TenantID equals ID so the
// scoping columns stay uniform across every entity kind.
type Tenant struct {
	ID             uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID       uuid.UUID                      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	OrganizationID *uuid.UUID                     `gorm:"type:uuid" json:"organization_id,omitempty"`
	DepartmentIDs  datatypes.JSONSlice[uuid.UUID] `gorm:"type:jsonb" json:"department_ids,omitempty"`
	OwnerUserID    *uuid.UUID                     `gorm:"type:uuid" json:"owner_user_id,omitempty"`
	IsolationLevel string                         `gorm:"not null" json:"isolation_level"`
	PrivacyLevel   string                         `gorm:"not null" json:"privacy_level"`

	Name         string `gorm:"not null;uniqueIndex:ux_tenant_name" json:"name"`
	Code         string `gorm:"not null;uniqueIndex:ux_tenant_code" json:"code"`
	Description  string `gorm:"type:text" json:"description,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`

	Status  string `gorm:"not null;index" json:"status"`
	Version int    `gorm:"not null;default:1" json:"version"`

	CreatedBy uuid.UUID `gorm:"type:uuid" json:"created_by"`
	UpdatedBy uuid.UUID `gorm:"type:uuid" json:"updated_by"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Tenant) TableName() string { return "tenant" }

func (t *Tenant) Scope() scope.Scope {
	return scope.Scope{
		TenantID:       t.TenantID,
		OrganizationID: t.OrganizationID,
		DepartmentIDs:  t.DepartmentIDs,
		OwnerUserID:    t.OwnerUserID,
		Isolation:      scope.IsolationLevel(t.IsolationLevel),
		Privacy:        scope.PrivacyLevel(t.PrivacyLevel),
	}
}
