package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/brynevale/admincore-backend/internal/domain/scope"
)

// Organization groups departments and users inside one tenant.
type Organization struct {
	ID             uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID       uuid.UUID                      `gorm:"type:uuid;not null;index;uniqueIndex:ux_org_tenant_code" json:"tenant_id"`
	OrganizationID *uuid.UUID                     `gorm:"type:uuid" json:"organization_id,omitempty"`
	DepartmentIDs  datatypes.JSONSlice[uuid.UUID] `gorm:"type:jsonb" json:"department_ids,omitempty"`
	OwnerUserID    *uuid.UUID                     `gorm:"type:uuid" json:"owner_user_id,omitempty"`
	IsolationLevel string                         `gorm:"not null" json:"isolation_level"`
	PrivacyLevel   string                         `gorm:"not null" json:"privacy_level"`

	Name          string     `gorm:"not null;index" json:"name"`
	Code          string     `gorm:"not null;uniqueIndex:ux_org_tenant_code" json:"code"`
	Description   string     `gorm:"type:text" json:"description,omitempty"`
	ManagerUserID *uuid.UUID `gorm:"type:uuid" json:"manager_user_id,omitempty"`

	Status  string `gorm:"not null;index" json:"status"`
	Version int    `gorm:"not null;default:1" json:"version"`

	CreatedBy uuid.UUID `gorm:"type:uuid" json:"created_by"`
	UpdatedBy uuid.UUID `gorm:"type:uuid" json:"updated_by"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Organization) TableName() string { return "organization" }

func (o *Organization) Scope() scope.Scope {
	return scope.Scope{
		TenantID:       o.TenantID,
		OrganizationID: o.OrganizationID,
		DepartmentIDs:  o.DepartmentIDs,
		OwnerUserID:    o.OwnerUserID,
		Isolation:      scope.IsolationLevel(o.IsolationLevel),
		Privacy:        scope.PrivacyLevel(o.PrivacyLevel),
	}
}
