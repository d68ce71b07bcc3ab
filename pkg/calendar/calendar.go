package calendar

import (
	"context"
	"time"
)

// Calendar is the capability interface the reconciliation engine consumes.
// Implementations own event identity and their own authentication.
type Calendar interface {
	// ListUpcoming returns the events visible on the calendar starting at
	// the given time.
	ListUpcoming(ctx context.Context, calendarID string, from time.Time) ([]Event, error)
	// AddEvent creates the event and returns the provider-assigned id.
	AddEvent(ctx context.Context, calendarID string, event Event) (string, error)
	ModifyEvent(ctx context.Context, calendarID string, eventID string, event Event) error
	DeleteEvent(ctx context.Context, calendarID string, eventID string) error
}
