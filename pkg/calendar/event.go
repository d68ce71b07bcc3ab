package calendar

import "time"

// Event is a projected calendar event. Only these fields are guaranteed to
// round-trip through a provider; nothing else may be read back.
type Event struct {
	UID         string
	Summary     string
	Description string
	StartTime   time.Time
	EndTime     time.Time
}
