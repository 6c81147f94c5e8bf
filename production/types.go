package production

// Order statuses
const (
	StatusPending    = "Pending"
	StatusInProgress = "InProgress"
	StatusCompleted  = "Completed"
	StatusCancelled  = "Cancelled"
)

// Shifts
const (
	ShiftMorning   = "Morning"
	ShiftAfternoon = "Afternoon"
	ShiftNight     = "Night"
)

// validTransitions defines which status transitions are allowed.
var validTransitions = map[string][]string{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// IsValidTransition checks if a status transition is allowed.
func IsValidTransition(from, to string) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true if the status is a terminal state.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusCancelled
}
