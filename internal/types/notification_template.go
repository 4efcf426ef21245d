package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/brynevale/admincore-backend/internal/domain/scope"
)

// NotificationTemplate is a tenant-owned message template. System
// templates are platform-scoped and readable by every tenant.
type NotificationTemplate struct {
	ID             uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID       uuid.UUID                      `gorm:"type:uuid;not null;index;uniqueIndex:ux_tmpl_tenant_code" json:"tenant_id"`
	OrganizationID *uuid.UUID                     `gorm:"type:uuid" json:"organization_id,omitempty"`
	DepartmentIDs  datatypes.JSONSlice[uuid.UUID] `gorm:"type:jsonb" json:"department_ids,omitempty"`
	OwnerUserID    *uuid.UUID                     `gorm:"type:uuid" json:"owner_user_id,omitempty"`
	IsolationLevel string                         `gorm:"not null" json:"isolation_level"`
	PrivacyLevel   string                         `gorm:"not null" json:"privacy_level"`

	Code     string `gorm:"not null;uniqueIndex:ux_tmpl_tenant_code" json:"code"`
	Name     string `gorm:"not null" json:"name"`
	Channel  string `gorm:"not null;index" json:"channel"`
	Subject  string `json:"subject,omitempty"`
	Body     string `gorm:"type:text;not null" json:"body"`
	Locale   string `gorm:"not null;default:'en'" json:"locale"`
	IsSystem bool   `gorm:"not null;default:false" json:"is_system"`

	Status  string `gorm:"not null;index" json:"status"`
	Version int    `gorm:"not null;default:1" json:"version"`

	CreatedBy uuid.UUID `gorm:"type:uuid" json:"created_by"`
	UpdatedBy uuid.UUID `gorm:"type:uuid" json:"updated_by"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (NotificationTemplate) TableName() string { return "notification_template" }

func (t *NotificationTemplate) Scope() scope.Scope {
	return scope.Scope{
		TenantID:       t.TenantID,
		OrganizationID: t.OrganizationID,
		DepartmentIDs:  t.DepartmentIDs,
		OwnerUserID:    t.OwnerUserID,
		Isolation:      scope.IsolationLevel(t.IsolationLevel),
		Privacy:        scope.PrivacyLevel(t.PrivacyLevel),
	}
}
