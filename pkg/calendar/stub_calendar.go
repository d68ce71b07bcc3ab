package calendar

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
)

// StubCalendar is an in-memory Calendar for tests. It records every write so
// tests can assert on the exact operations issued.
type StubCalendar struct {
	data map[string]Event

	Added    []Event
	Modified []Event
	Deleted  []string

	AddErr    error
	ModifyErr error
	DeleteErr error
}

func NewStubCalendar() *StubCalendar {
	return &StubCalendar{data: map[string]Event{}}
}

func (c *StubCalendar) ListUpcoming(_ context.Context, _ string, from time.Time) ([]Event, error) {
	var events []Event
	for _, event := range c.data {
		if !event.EndTime.Before(from) {
			events = append(events, event)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})
	return events, nil
}

func (c *StubCalendar) AddEvent(_ context.Context, _ string, event Event) (string, error) {
	if c.AddErr != nil {
		return "", c.AddErr
	}
	event.UID = uuid.NewString()
	c.data[event.UID] = event
	c.Added = append(c.Added, event)
	return event.UID, nil
}

func (c *StubCalendar) ModifyEvent(_ context.Context, _ string, eventID string, event Event) error {
	if c.ModifyErr != nil {
		return c.ModifyErr
	}
	if _, ok := c.data[eventID]; !ok {
		return errors.New("event with given UID not found")
	}
	event.UID = eventID
	c.data[eventID] = event
	c.Modified = append(c.Modified, event)
	return nil
}

func (c *StubCalendar) DeleteEvent(_ context.Context, _ string, eventID string) error {
	if c.DeleteErr != nil {
		return c.DeleteErr
	}
	if _, ok := c.data[eventID]; !ok {
		return errors.New("event with given UID not found")
	}
	delete(c.data, eventID)
	c.Deleted = append(c.Deleted, eventID)
	return nil
}

// Seed places an event directly on the calendar without recording it as an
// Added operation.
func (c *StubCalendar) Seed(event Event) Event {
	if event.UID == "" {
		event.UID = uuid.NewString()
	}
	c.data[event.UID] = event
	return event
}

func (c *StubCalendar) Cleanup() {
	c.data = map[string]Event{}
	c.Added = nil
	c.Modified = nil
	c.Deleted = nil
}
