package ports

import "context"

// EventLedger records provider event ids that have been applied so that
// redelivered notifications never run business logic twice.
type EventLedger interface {
	// Reserve inserts the event id and reports whether it was newly inserted.
	// A false result means the event was already processed.
	Reserve(ctx context.Context, eventID string) (bool, error)
	// Seen reports whether the event id is present without inserting it.
	Seen(ctx context.Context, eventID string) (bool, error)
}
