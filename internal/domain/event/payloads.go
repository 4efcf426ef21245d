package event

import (
	"strings"

	"github.com/google/uuid"
)

// Event type suffixes shared by every aggregate kind. The full event type
// is "<aggregateType><suffix>", e.g. "department.status_changed".
const (
	SuffixCreated              = ".created"
	SuffixUpdated              = ".updated"
	SuffixStatusChanged        = ".status_changed"
	SuffixOrganizationAssigned = ".organization_assigned"
	SuffixDeleted              = ".deleted"
)

// Suffix extracts the kind suffix of an event type, dot included.
// Returns "" for event types with no dot.
func Suffix(eventType string) string {
	i := strings.IndexByte(eventType, '.')
	if i < 0 {
		return ""
	}
	return eventType[i:]
}

// FieldChange records one applied delta inside an updated event.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// CreatedPayload carries the full initial state of an aggregate, plus its
// scope, denormalized so a projector never re-queries the write side.
type CreatedPayload struct {
	Actor          uuid.UUID      `json:"actor"`
	TenantID       uuid.UUID      `json:"tenant_id"`
	OrganizationID *uuid.UUID     `json:"organization_id,omitempty"`
	DepartmentIDs  []uuid.UUID    `json:"department_ids,omitempty"`
	OwnerUserID    *uuid.UUID     `json:"owner_user_id,omitempty"`
	IsolationLevel string         `json:"isolation_level"`
	PrivacyLevel   string         `json:"privacy_level"`
	Status         string         `json:"status"`
	Name           string         `json:"name"`
	Code           string         `json:"code"`
	NaturalKey     string         `json:"natural_key"`
	Fields         map[string]any `json:"fields,omitempty"`
}

// UpdatedPayload carries exactly the state delta the mutation applied.
type UpdatedPayload struct {
	Actor         uuid.UUID              `json:"actor"`
	ChangedFields map[string]FieldChange `json:"changed_fields"`
}

type StatusChangedPayload struct {
	Actor          uuid.UUID `json:"actor"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
}

// OrganizationAssignedPayload records a re-scope: the only sanctioned
// post-creation isolation change.
type OrganizationAssignedPayload struct {
	Actor          uuid.UUID   `json:"actor"`
	OrganizationID uuid.UUID   `json:"organization_id"`
	DepartmentIDs  []uuid.UUID `json:"department_ids,omitempty"`
	IsolationLevel string      `json:"isolation_level"`
}

type DeletedPayload struct {
	Actor uuid.UUID `json:"actor"`
}
