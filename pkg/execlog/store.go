package execlog

import "context"

// Store persists execution log entries. Implementations must be safe for
// concurrent use.
type Store interface {
	// Append records entries from one execution call.
	Append(ctx context.Context, entries ...Entry) error

	// Query returns entries matching the filter, most recent first.
	Query(ctx context.Context, filter Filter) ([]Entry, error)

	// Stats aggregates execution history for one rule code.
	Stats(ctx context.Context, ruleCode string) (*Stats, error)

	// Close releases the store's resources.
	Close() error
}
