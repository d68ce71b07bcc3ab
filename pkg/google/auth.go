package google

import (
	"context"
	"fmt"
	"os"

	goauth "golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// NewCalendarService authenticates with the Calendar API using a service
// account key file and returns a ready client.
func NewCalendarService(ctx context.Context, serviceAccountFile string) (*gcal.Service, error) {
	data, err := os.ReadFile(serviceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("could not read service account file %s: %w", serviceAccountFile, err)
	}
	conf, err := goauth.JWTConfigFromJSON(data, gcal.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("could not parse service account credentials: %w", err)
	}
	service, err := gcal.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar client: %w", err)
	}
	return service, nil
}
