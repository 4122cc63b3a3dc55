package documents

// Document lifecycle states. Completed and failed are terminal.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is permitted from s.
func IsTerminal(s string) bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether the state machine allows from -> to.
// Status only moves forward: pending -> processing -> completed, and any
// non-terminal state may move to failed. A terminal state never changes.
func CanTransition(from, to string) bool {
	if IsTerminal(from) {
		return false
	}
	switch to {
	case StatusProcessing:
		return from == StatusPending
	case StatusCompleted:
		return from == StatusProcessing
	case StatusFailed:
		return true
	}
	return false
}
