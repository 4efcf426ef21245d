package scope

import (
	"github.com/google/uuid"
)

// IsolationLevel is the tenancy tier an entity belongs to. PLATFORM is the
// broadest tier; each following level narrows visibility.
type IsolationLevel string

const (
	IsolationPlatform     IsolationLevel = "PLATFORM"
	IsolationTenant       IsolationLevel = "TENANT"
	IsolationOrganization IsolationLevel = "ORGANIZATION"
	IsolationDepartment   IsolationLevel = "DEPARTMENT"
	IsolationUser         IsolationLevel = "USER"
)

var isolationRanks = map[IsolationLevel]int{
	IsolationPlatform:     0,
	IsolationTenant:       1,
	IsolationOrganization: 2,
	IsolationDepartment:   3,
	IsolationUser:         4,
}

// Rank orders isolation levels broadest-first. Unknown levels rank below
// USER so they never widen access.
func (l IsolationLevel) Rank() int {
	if r, ok := isolationRanks[l]; ok {
		return r
	}
	return isolationRanks[IsolationUser] + 1
}

func (l IsolationLevel) Known() bool {
	_, ok := isolationRanks[l]
	return ok
}

// PrivacyLevel is an orthogonal visibility classification layered on top
// of isolation scope.
type PrivacyLevel string

const (
	PrivacyProtected    PrivacyLevel = "PROTECTED"
	PrivacyShared       PrivacyLevel = "SHARED"
	PrivacyConfidential PrivacyLevel = "CONFIDENTIAL"
)

// Scope is the ownership footprint of a scoped entity.
type Scope struct {
	TenantID       uuid.UUID
	OrganizationID *uuid.UUID
	DepartmentIDs  []uuid.UUID
	OwnerUserID    *uuid.UUID
	Isolation      IsolationLevel
	Privacy        PrivacyLevel
}

// Accessor is the acting principal's scope, supplied by the auth layer.
type Accessor struct {
	UserID         uuid.UUID
	TenantID       uuid.UUID
	OrganizationID *uuid.UUID
	DepartmentIDs  []uuid.UUID
	Isolation      IsolationLevel
}

// CanAccess grants iff the accessor sits at the same tenant (PLATFORM
// principals bypass the tenant check), at a level at least as broad as the
// target's, and every scoping dimension between the two levels either
// leaves the accessor unrestricted or matches the target. The privacy
// level is then applied as an orthogonal filter.
func CanAccess(a Accessor, target Scope) bool {
	if a.Isolation != IsolationPlatform && a.TenantID != target.TenantID {
		return false
	}
	if a.Isolation.Rank() > target.Isolation.Rank() {
		return false
	}
	if !dimensionsContain(a, target) {
		return false
	}
	return privacyAllows(a, target)
}

// dimensionsContain checks the organization and department dimensions that
// lie at or below the accessor's level and at or above the target's. An
// unset accessor dimension means "unrestricted below this point".
func dimensionsContain(a Accessor, target Scope) bool {
	if dimensionApplies(a.Isolation, target.Isolation, IsolationOrganization) {
		if a.OrganizationID != nil {
			if target.OrganizationID == nil || *a.OrganizationID != *target.OrganizationID {
				return false
			}
		}
	}
	if dimensionApplies(a.Isolation, target.Isolation, IsolationDepartment) {
		if len(a.DepartmentIDs) > 0 && !intersects(a.DepartmentIDs, target.DepartmentIDs) {
			return false
		}
	}
	return true
}

func dimensionApplies(accessor, target, dim IsolationLevel) bool {
	return accessor.Rank() <= dim.Rank() && dim.Rank() <= target.Rank()
}

func privacyAllows(a Accessor, target Scope) bool {
	switch target.Privacy {
	case PrivacyProtected:
		// Exact department membership required.
		return intersects(a.DepartmentIDs, target.DepartmentIDs)
	case PrivacyConfidential:
		return target.OwnerUserID != nil && a.UserID == *target.OwnerUserID
	case PrivacyShared, "":
		// Any accessor that already passed the isolation checks.
		return true
	default:
		return false
	}
}

func intersects(a, b []uuid.UUID) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
