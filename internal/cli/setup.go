package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/aringo/synacksync/internal/config"
	"github.com/aringo/synacksync/pkg/google"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// calendarAdmin is the slice of pkg/google.Service that setup needs.
type calendarAdmin interface {
	ListCalendars(ctx context.Context) ([]google.CalendarItem, error)
	CreateCalendar(ctx context.Context, name, timezone string) (string, error)
	ShareCalendar(ctx context.Context, calendarID, email string) error
}

// ensureCalendars fills in the three calendar ids, in order of preference:
// an id already present in the configuration, an accessible calendar whose
// summary matches the requested name, or a freshly created calendar. Only
// freshly created calendars are shared.
func ensureCalendars(ctx context.Context, admin calendarAdmin, cfg *config.Application, missionName, upcomingName, patchName string, shareWith []string) error {
	existing, err := admin.ListCalendars(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]string, len(existing))
	for _, item := range existing {
		if _, ok := byName[item.Summary]; !ok {
			byName[item.Summary] = item.ID
		}
	}

	calendars := []struct {
		name string
		id   *string
	}{
		{missionName, &cfg.Calendars.Mission},
		{upcomingName, &cfg.Calendars.Upcoming},
		{patchName, &cfg.Calendars.Patch},
	}
	for _, cal := range calendars {
		if *cal.id != "" {
			log.Infof("calendar %q already configured (%s), keeping it", cal.name, *cal.id)
			continue
		}
		if id, ok := byName[cal.name]; ok {
			log.Infof("reusing existing calendar %q (%s)", cal.name, id)
			*cal.id = id
			continue
		}
		id, err := admin.CreateCalendar(ctx, cal.name, cfg.Timezone)
		if err != nil {
			return err
		}
		*cal.id = id
		for _, email := range shareWith {
			if err := admin.ShareCalendar(ctx, id, email); err != nil {
				return err
			}
		}
	}
	return nil
}

func newSetupCmd() *cobra.Command {
	var (
		serviceAccountFile string
		baseURL            string
		tokenPath          string
		databasePath       string
		timezone           string
		missionName        string
		upcomingName       string
		patchName          string
		shareWith          []string
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the projection calendars and write the configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			cfg.ServiceAccountFile = serviceAccountFile
			if baseURL != "" {
				cfg.BaseURL = baseURL
			}
			if tokenPath != "" {
				cfg.TokenPath = tokenPath
			}
			if databasePath != "" {
				cfg.DatabasePath = databasePath
			}
			if timezone != "" {
				if _, err := time.LoadLocation(timezone); err != nil {
					return fmt.Errorf("invalid timezone %q: %w", timezone, err)
				}
				cfg.Timezone = timezone
			}
			if cfg.Timezone == "" {
				cfg.Timezone = time.Now().Location().String()
			}

			gcalService, err := google.NewCalendarService(ctx, cfg.ServiceAccountFile)
			if err != nil {
				return err
			}
			service := google.NewService(gcalService)
			if err := ensureCalendars(ctx, service, &cfg, missionName, upcomingName, patchName, shareWith); err != nil {
				return err
			}

			if err := config.Save(cfg, cfgPath); err != nil {
				return err
			}
			log.Infof("configuration written to %s", cfgPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&serviceAccountFile, "service-account", "", "path to the Google service account JSON file")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Synack platform base URL")
	cmd.Flags().StringVar(&tokenPath, "token-path", "", "path to the file holding the authorization token")
	cmd.Flags().StringVar(&databasePath, "database", "", "path to the SQLite cache database")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone for calendar events (defaults to the system timezone)")
	cmd.Flags().StringVar(&missionName, "mission-calendar", "Synack Missions", "name for the missions calendar")
	cmd.Flags().StringVar(&upcomingName, "upcoming-calendar", "Synack Upcoming", "name for the upcoming targets calendar")
	cmd.Flags().StringVar(&patchName, "patch-calendar", "Synack Patches", "name for the patch verifications calendar")
	cmd.Flags().StringSliceVar(&shareWith, "share", nil, "email addresses to share newly created calendars with")
	_ = cmd.MarkFlagRequired("service-account")

	return cmd
}
