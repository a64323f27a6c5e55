package audit

// Status is a finding's position in the handling lifecycle.
type Status string

const (
	// StatusPending is the initial state: recorded, not yet picked up.
	StatusPending Status = "PENDING"

	// StatusInProgress means a handler is working the finding.
	StatusInProgress Status = "IN_PROGRESS"

	// StatusPendingReview means handling is done and awaits a reviewer.
	StatusPendingReview Status = "PENDING_REVIEW"

	// StatusResolved means the reviewer accepted the handling.
	StatusResolved Status = "RESOLVED"

	// StatusClosed means a resolved finding has been archived.
	StatusClosed Status = "CLOSED"

	// StatusRejected means the reviewer sent the finding back for rework.
	StatusRejected Status = "REJECTED"

	// StatusCancelled means the finding was withdrawn before resolution.
	StatusCancelled Status = "CANCELLED"

	// StatusExpired means the handling deadline passed before closure. It
	// is a terminal failure state, distinct from successful closure.
	StatusExpired Status = "EXPIRED"
)

// transitions is the lifecycle table. Any transition not listed is invalid.
// EXPIRED is reached only through deadline sweeps, never by request.
var transitions = map[Status][]Status{
	StatusPending:       {StatusInProgress, StatusCancelled},
	StatusInProgress:    {StatusPendingReview, StatusCancelled},
	StatusPendingReview: {StatusResolved, StatusRejected},
	StatusRejected:      {StatusInProgress, StatusCancelled},
	StatusResolved:      {StatusClosed},
}

// Valid reports whether the status is one of the defined values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusPendingReview, StatusResolved,
		StatusClosed, StatusRejected, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle table allows moving from s
// to target.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the states reachable from s by request.
func (s Status) AllowedTransitions() []Status {
	return append([]Status(nil), transitions[s]...)
}

// IsFinal reports whether the finding completed its lifecycle successfully
// or was withdrawn: RESOLVED, CLOSED, or CANCELLED.
func (s Status) IsFinal() bool {
	return s == StatusResolved || s == StatusClosed || s == StatusCancelled
}

// IsModifiable reports whether the finding still accepts handling. False
// once final or expired.
func (s Status) IsModifiable() bool {
	return !s.IsFinal() && s != StatusExpired
}

// NeedsAction reports whether the finding is waiting on a handler: PENDING,
// IN_PROGRESS, or REJECTED.
func (s Status) NeedsAction() bool {
	return s == StatusPending || s == StatusInProgress || s == StatusRejected
}

// String returns the canonical upper-case name of the status.
func (s Status) String() string {
	return string(s)
}
