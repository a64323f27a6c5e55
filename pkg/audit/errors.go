package audit

import "fmt"

// InvalidTransitionError indicates a requested status change is outside the
// lifecycle table. The finding is left unchanged.
type InvalidTransitionError struct {
	// FindingID identifies the finding.
	FindingID string

	// From is the finding's current status.
	From Status

	// To is the requested status.
	To Status
}

// Error implements the error interface.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("finding %s: invalid transition %s -> %s", e.FindingID, e.From, e.To)
}

// NotFoundError indicates no finding exists with the given id.
type NotFoundError struct {
	// FindingID is the id that was looked up.
	FindingID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("finding %s not found", e.FindingID)
}
