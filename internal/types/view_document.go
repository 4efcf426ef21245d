package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/brynevale/admincore-backend/internal/domain/scope"
)

// ViewDocument is the denormalized query-side document, keyed by aggregate
// id and owned exclusively by the projectors. Doc carries the full
// projected business fields; the flat columns exist for filtering.
type ViewDocument struct {
	AggregateID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"aggregate_id"`
	AggregateType string    `gorm:"not null;index:idx_view_tenant_type,priority:2" json:"aggregate_type"`

	TenantID       uuid.UUID                       `gorm:"type:uuid;not null;index:idx_view_tenant_type,priority:1" json:"tenant_id"`
	OrganizationID *uuid.UUID                      `gorm:"type:uuid;index" json:"organization_id,omitempty"`
	DepartmentIDs  datatypes.JSONSlice[uuid.UUID]  `gorm:"type:jsonb" json:"department_ids,omitempty"`
	OwnerUserID    *uuid.UUID                      `gorm:"type:uuid" json:"owner_user_id,omitempty"`
	IsolationLevel string                          `json:"isolation_level"`
	PrivacyLevel   string                          `json:"privacy_level"`

	Status     string `gorm:"index" json:"status"`
	Name       string `gorm:"index" json:"name"`
	Code       string `json:"code"`
	NaturalKey string `gorm:"index" json:"natural_key"`

	LastAppliedVersion int                `gorm:"not null" json:"last_applied_version"`
	Doc                datatypes.JSONMap  `gorm:"type:jsonb" json:"doc"`

	CreatedAt time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

func (ViewDocument) TableName() string { return "view_document" }

func (v *ViewDocument) Scope() scope.Scope {
	return scope.Scope{
		TenantID:       v.TenantID,
		OrganizationID: v.OrganizationID,
		DepartmentIDs:  v.DepartmentIDs,
		OwnerUserID:    v.OwnerUserID,
		Isolation:      scope.IsolationLevel(v.IsolationLevel),
		Privacy:        scope.PrivacyLevel(v.PrivacyLevel),
	}
}
