package evidence

import "fmt"

// IntegrityViolation reports a mismatch between a stored hash and the value
// recomputed from the chain's evidence. Index is the position of the first
// inconsistent item; an Index of -1 means the final chain hash itself
// disagrees with the stored value.
type IntegrityViolation struct {
	FindingID string
	Index     int
	Expected  string
	Actual    string
}

func (e *IntegrityViolation) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("evidence chain for finding %s: chain hash mismatch (stored %s, recomputed %s)",
			e.FindingID, e.Expected, e.Actual)
	}
	return fmt.Sprintf("evidence chain for finding %s: hash mismatch at index %d (stored %s, recomputed %s)",
		e.FindingID, e.Index, e.Expected, e.Actual)
}

// ChainNotFoundError indicates no evidence chain exists for the finding.
type ChainNotFoundError struct {
	FindingID string
}

func (e *ChainNotFoundError) Error() string {
	return fmt.Sprintf("no evidence chain for finding %s", e.FindingID)
}
