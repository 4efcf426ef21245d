package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/brynevale/admincore-backend/internal/domain/scope"
)

// AdminUser is an administrative account inside one tenant. Credentials
// live with the external auth collaborator; only directory fields are
// managed here.
type AdminUser struct {
	ID             uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID       uuid.UUID                      `gorm:"type:uuid;not null;index;uniqueIndex:ux_user_tenant_email;uniqueIndex:ux_user_tenant_username" json:"tenant_id"`
	OrganizationID *uuid.UUID                     `gorm:"type:uuid;index" json:"organization_id,omitempty"`
	DepartmentIDs  datatypes.JSONSlice[uuid.UUID] `gorm:"type:jsonb" json:"department_ids,omitempty"`
	OwnerUserID    *uuid.UUID                     `gorm:"type:uuid" json:"owner_user_id,omitempty"`
	IsolationLevel string                         `gorm:"not null" json:"isolation_level"`
	PrivacyLevel   string                         `gorm:"not null" json:"privacy_level"`

	Email       string `gorm:"not null;uniqueIndex:ux_user_tenant_email" json:"email"`
	Username    string `gorm:"not null;uniqueIndex:ux_user_tenant_username" json:"username"`
	DisplayName string `gorm:"not null" json:"display_name"`
	Title       string `json:"title,omitempty"`

	Status  string `gorm:"not null;index" json:"status"`
	Version int    `gorm:"not null;default:1" json:"version"`

	CreatedBy uuid.UUID `gorm:"type:uuid" json:"created_by"`
	UpdatedBy uuid.UUID `gorm:"type:uuid" json:"updated_by"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (AdminUser) TableName() string { return "admin_user" }

func (u *AdminUser) Scope() scope.Scope {
	return scope.Scope{
		TenantID:       u.TenantID,
		OrganizationID: u.OrganizationID,
		DepartmentIDs:  u.DepartmentIDs,
		OwnerUserID:    u.OwnerUserID,
		Isolation:      scope.IsolationLevel(u.IsolationLevel),
		Privacy:        scope.PrivacyLevel(u.PrivacyLevel),
	}
}
