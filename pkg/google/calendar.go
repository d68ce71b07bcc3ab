package google

import (
	"context"
	"fmt"
	"time"

	"github.com/aringo/synacksync/pkg/calendar"
	log "github.com/sirupsen/logrus"
	gcal "google.golang.org/api/calendar/v3"
)

// Calendar projects events onto Google Calendar. It implements
// calendar.Calendar.
type Calendar struct {
	service  *gcal.Service
	timezone string
}

func NewCalendar(service *gcal.Service, timezone string) *Calendar {
	if timezone == "" {
		timezone = time.Now().Location().String()
	}
	return &Calendar{service: service, timezone: timezone}
}

func (c *Calendar) ListUpcoming(ctx context.Context, calendarID string, from time.Time) ([]calendar.Event, error) {
	googleEvents, err := c.service.Events.List(calendarID).
		TimeMin(from.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		err := fmt.Errorf("unable to retrieve events from Google Calendar: %w", err)
		log.Error(err)
		return nil, err
	}

	events := make([]calendar.Event, 0, len(googleEvents.Items))
	for _, item := range googleEvents.Items {
		if item.Start == nil || item.Start.DateTime == "" {
			// All-day events carry a date only; they never originate here.
			log.Debugf("ignoring all-day event %q on calendar %s", item.Summary, calendarID)
			continue
		}
		startTime, _ := time.Parse(time.RFC3339, item.Start.DateTime)
		var endTime time.Time
		if item.End != nil {
			endTime, _ = time.Parse(time.RFC3339, item.End.DateTime)
		}
		events = append(events, calendar.Event{
			UID:         item.Id,
			Summary:     item.Summary,
			Description: item.Description,
			StartTime:   startTime,
			EndTime:     endTime,
		})
	}
	return events, nil
}

func (c *Calendar) AddEvent(ctx context.Context, calendarID string, event calendar.Event) (string, error) {
	log.Debugf("adding event %q to calendar %s", event.Summary, calendarID)
	result, err := c.service.Events.Insert(calendarID, c.toGoogleEvent(event)).Context(ctx).Do()
	if err != nil {
		err := fmt.Errorf("unable to insert event in Google Calendar: %w", err)
		log.Error(err)
		return "", err
	}
	return result.Id, nil
}

// ModifyEvent fetches the stored event first and overwrites only the fields
// owned by the projection, so provider-side attributes survive the update.
func (c *Calendar) ModifyEvent(ctx context.Context, calendarID string, eventID string, event calendar.Event) error {
	existing, err := c.service.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		err := fmt.Errorf("unable to load event %s from Google Calendar: %w", eventID, err)
		log.Error(err)
		return err
	}

	existing.Summary = event.Summary
	existing.Description = event.Description
	existing.Start = &gcal.EventDateTime{DateTime: event.StartTime.Format(time.RFC3339), TimeZone: c.timezone}
	existing.End = &gcal.EventDateTime{DateTime: event.EndTime.Format(time.RFC3339), TimeZone: c.timezone}

	if _, err := c.service.Events.Update(calendarID, eventID, existing).Context(ctx).Do(); err != nil {
		err := fmt.Errorf("unable to update event %s in Google Calendar: %w", eventID, err)
		log.Error(err)
		return err
	}
	return nil
}

func (c *Calendar) DeleteEvent(ctx context.Context, calendarID string, eventID string) error {
	if err := c.service.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		err := fmt.Errorf("unable to delete event %s from Google Calendar: %w", eventID, err)
		log.Error(err)
		return err
	}
	return nil
}

func (c *Calendar) toGoogleEvent(event calendar.Event) *gcal.Event {
	return &gcal.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Start:       &gcal.EventDateTime{DateTime: event.StartTime.Format(time.RFC3339), TimeZone: c.timezone},
		End:         &gcal.EventDateTime{DateTime: event.EndTime.Format(time.RFC3339), TimeZone: c.timezone},
	}
}
