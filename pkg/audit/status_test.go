package audit

import "testing"

func TestStatus_TransitionTable(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusResolved, false},
		{StatusPending, StatusPendingReview, false},
		{StatusInProgress, StatusPendingReview, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusInProgress, StatusResolved, false},
		{StatusPendingReview, StatusResolved, true},
		{StatusPendingReview, StatusRejected, true},
		{StatusPendingReview, StatusCancelled, false},
		{StatusRejected, StatusInProgress, true},
		{StatusRejected, StatusCancelled, true},
		{StatusRejected, StatusResolved, false},
		{StatusResolved, StatusClosed, true},
		{StatusResolved, StatusPending, false},
		{StatusClosed, StatusPending, false},
		{StatusCancelled, StatusInProgress, false},
		{StatusExpired, StatusInProgress, false},
	}

	for _, tt := range tests {
		name := string(tt.from) + "->" + string(tt.to)
		t.Run(name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
				t.Errorf("CanTransitionTo = %v, want %v", got, tt.allowed)
			}
		})
	}
}

func TestStatus_Predicates(t *testing.T) {
	tests := []struct {
		status      Status
		final       bool
		modifiable  bool
		needsAction bool
	}{
		{StatusPending, false, true, true},
		{StatusInProgress, false, true, true},
		{StatusPendingReview, false, true, false},
		{StatusResolved, true, false, false},
		{StatusClosed, true, false, false},
		{StatusRejected, false, true, true},
		{StatusCancelled, true, false, false},
		{StatusExpired, false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsFinal(); got != tt.final {
				t.Errorf("IsFinal() = %v, want %v", got, tt.final)
			}
			if got := tt.status.IsModifiable(); got != tt.modifiable {
				t.Errorf("IsModifiable() = %v, want %v", got, tt.modifiable)
			}
			if got := tt.status.NeedsAction(); got != tt.needsAction {
				t.Errorf("NeedsAction() = %v, want %v", got, tt.needsAction)
			}
		})
	}
}
