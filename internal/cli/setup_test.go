package cli

import (
	"context"
	"testing"

	"github.com/aringo/synacksync/internal/config"
	"github.com/aringo/synacksync/pkg/google"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCalendarAdmin struct {
	existing []google.CalendarItem

	created []string
	shared  map[string][]string

	listErr error
}

func newStubCalendarAdmin(existing ...google.CalendarItem) *stubCalendarAdmin {
	return &stubCalendarAdmin{existing: existing, shared: map[string][]string{}}
}

func (s *stubCalendarAdmin) ListCalendars(_ context.Context) ([]google.CalendarItem, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.existing, nil
}

func (s *stubCalendarAdmin) CreateCalendar(_ context.Context, name, _ string) (string, error) {
	s.created = append(s.created, name)
	return "created-" + name, nil
}

func (s *stubCalendarAdmin) ShareCalendar(_ context.Context, calendarID, email string) error {
	s.shared[calendarID] = append(s.shared[calendarID], email)
	return nil
}

func TestEnsureCalendars(t *testing.T) {
	ctx := context.Background()

	t.Run("should create and share the calendars that do not exist yet", func(t *testing.T) {
		admin := newStubCalendarAdmin()
		cfg := config.Application{Timezone: "UTC"}

		err := ensureCalendars(ctx, admin, &cfg, "Missions", "Upcoming", "Patches", []string{"me@example.com"})

		require.NoError(t, err)
		assert.Equal(t, []string{"Missions", "Upcoming", "Patches"}, admin.created)
		assert.Equal(t, "created-Missions", cfg.Calendars.Mission)
		assert.Equal(t, "created-Upcoming", cfg.Calendars.Upcoming)
		assert.Equal(t, "created-Patches", cfg.Calendars.Patch)
		assert.Equal(t, []string{"me@example.com"}, admin.shared["created-Missions"])
	})

	t.Run("should reuse an accessible calendar with a matching name", func(t *testing.T) {
		admin := newStubCalendarAdmin(
			google.CalendarItem{ID: "cal-m", Summary: "Missions"},
			google.CalendarItem{ID: "cal-p", Summary: "Patches"},
		)
		cfg := config.Application{Timezone: "UTC"}

		err := ensureCalendars(ctx, admin, &cfg, "Missions", "Upcoming", "Patches", nil)

		require.NoError(t, err)
		assert.Equal(t, "cal-m", cfg.Calendars.Mission)
		assert.Equal(t, "cal-p", cfg.Calendars.Patch)
		assert.Equal(t, []string{"Upcoming"}, admin.created)
		assert.Empty(t, admin.shared["cal-m"])
	})

	t.Run("should keep an id that is already configured", func(t *testing.T) {
		admin := newStubCalendarAdmin(google.CalendarItem{ID: "cal-other", Summary: "Missions"})
		cfg := config.Application{Timezone: "UTC"}
		cfg.Calendars.Mission = "cal-configured"

		err := ensureCalendars(ctx, admin, &cfg, "Missions", "Upcoming", "Patches", nil)

		require.NoError(t, err)
		assert.Equal(t, "cal-configured", cfg.Calendars.Mission)
		assert.NotContains(t, admin.created, "Missions")
	})

	t.Run("should fail when the calendar list cannot be read", func(t *testing.T) {
		admin := newStubCalendarAdmin()
		admin.listErr = assert.AnError
		cfg := config.Application{Timezone: "UTC"}

		err := ensureCalendars(ctx, admin, &cfg, "Missions", "Upcoming", "Patches", nil)

		require.Error(t, err)
		assert.Empty(t, admin.created)
	})
}
