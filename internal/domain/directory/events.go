package directory

import "github.com/brynevale/admincore-backend/internal/domain/event"

// Aggregate type identifiers for the directory kinds.
const (
	AggregateTenant       = "tenant"
	AggregateOrganization = "organization"
	AggregateDepartment   = "department"
	AggregateAdminUser    = "admin_user"
)

// Closed event-type sets, one per aggregate kind.
const (
	EventTenantCreated       = AggregateTenant + event.SuffixCreated
	EventTenantUpdated       = AggregateTenant + event.SuffixUpdated
	EventTenantStatusChanged = AggregateTenant + event.SuffixStatusChanged
	EventTenantDeleted       = AggregateTenant + event.SuffixDeleted

	EventOrganizationCreated       = AggregateOrganization + event.SuffixCreated
	EventOrganizationUpdated       = AggregateOrganization + event.SuffixUpdated
	EventOrganizationStatusChanged = AggregateOrganization + event.SuffixStatusChanged
	EventOrganizationDeleted       = AggregateOrganization + event.SuffixDeleted

	EventDepartmentCreated              = AggregateDepartment + event.SuffixCreated
	EventDepartmentUpdated              = AggregateDepartment + event.SuffixUpdated
	EventDepartmentStatusChanged        = AggregateDepartment + event.SuffixStatusChanged
	EventDepartmentOrganizationAssigned = AggregateDepartment + event.SuffixOrganizationAssigned
	EventDepartmentDeleted              = AggregateDepartment + event.SuffixDeleted

	EventAdminUserCreated              = AggregateAdminUser + event.SuffixCreated
	EventAdminUserUpdated              = AggregateAdminUser + event.SuffixUpdated
	EventAdminUserStatusChanged        = AggregateAdminUser + event.SuffixStatusChanged
	EventAdminUserOrganizationAssigned = AggregateAdminUser + event.SuffixOrganizationAssigned
	EventAdminUserDeleted              = AggregateAdminUser + event.SuffixDeleted
)
