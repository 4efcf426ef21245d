package lifecycle

// Status is the shared lifecycle state every administered entity moves
// through. DELETED is terminal.
type Status string

const (
	StatusInitializing Status = "INITIALIZING"
	StatusActive       Status = "ACTIVE"
	StatusSuspended    Status = "SUSPENDED"
	StatusMaintenance  Status = "MAINTENANCE"
	StatusInactive     Status = "INACTIVE"
	StatusDeleted      Status = "DELETED"
)

// transitions is the single source of truth for legal status changes.
var transitions = map[Status][]Status{
	StatusInitializing: {StatusActive, StatusInactive},
	StatusActive:       {StatusSuspended, StatusMaintenance, StatusInactive},
	StatusMaintenance:  {StatusActive, StatusSuspended, StatusInactive},
	StatusSuspended:    {StatusActive, StatusMaintenance, StatusInactive},
	StatusInactive:     {StatusActive},
	StatusDeleted:      nil,
}

// Known reports whether s is a member of the lifecycle enum.
func Known(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether s admits no further transitions.
func Terminal(s Status) bool {
	return s == StatusDeleted
}

// CanTransition reports whether from -> to is in the transition table.
// A same-status request is not a transition; callers treat it as a no-op
// before consulting this table.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Deletable reports whether an entity in the given status may be soft
// deleted. Any non-terminal status may move to DELETED.
func Deletable(s Status) bool {
	return Known(s) && !Terminal(s)
}
