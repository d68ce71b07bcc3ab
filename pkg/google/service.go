package google

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	gcal "google.golang.org/api/calendar/v3"
)

type CalendarItem struct {
	ID      string
	Summary string
}

// Service provides the calendar administration operations used by first-run
// setup: creating the projection calendars and sharing them with users.
type Service struct {
	service *gcal.Service
}

func NewService(service *gcal.Service) *Service {
	return &Service{service: service}
}

func (s *Service) ListCalendars(ctx context.Context) ([]CalendarItem, error) {
	calendars, err := s.service.CalendarList.List().Context(ctx).Do()
	if err != nil {
		err := fmt.Errorf("unable to retrieve calendars from Google Calendar: %w", err)
		log.Error(err)
		return nil, err
	}
	items := make([]CalendarItem, 0, len(calendars.Items))
	for _, cal := range calendars.Items {
		items = append(items, CalendarItem{ID: cal.Id, Summary: cal.Summary})
	}
	return items, nil
}

func (s *Service) CreateCalendar(ctx context.Context, name, timezone string) (string, error) {
	created, err := s.service.Calendars.Insert(&gcal.Calendar{Summary: name, TimeZone: timezone}).Context(ctx).Do()
	if err != nil {
		err := fmt.Errorf("unable to create calendar %q: %w", name, err)
		log.Error(err)
		return "", err
	}
	log.Infof("created calendar %q (%s)", name, created.Id)
	return created.Id, nil
}

func (s *Service) ShareCalendar(ctx context.Context, calendarID, email string) error {
	rule := &gcal.AclRule{
		Scope: &gcal.AclRuleScope{Type: "user", Value: email},
		Role:  "writer",
	}
	if _, err := s.service.Acl.Insert(calendarID, rule).Context(ctx).Do(); err != nil {
		err := fmt.Errorf("unable to share calendar %s with %s: %w", calendarID, email, err)
		log.Error(err)
		return err
	}
	log.Infof("shared calendar %s with %s", calendarID, email)
	return nil
}
