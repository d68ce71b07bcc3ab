package cli

import (
	"github.com/aringo/synacksync/internal/config"
	"github.com/aringo/synacksync/internal/database"
	"github.com/aringo/synacksync/internal/utils"
	"github.com/aringo/synacksync/pkg/google"
	"github.com/aringo/synacksync/pkg/sync"
	"github.com/aringo/synacksync/pkg/synack"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one reconciliation pass against the configured calendars",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if err := cfg.ValidateForSync(); err != nil {
				return err
			}

			db, err := database.Open(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Migrate(db); err != nil {
				return err
			}

			service, err := google.NewCalendarService(ctx, cfg.ServiceAccountFile)
			if err != nil {
				return err
			}

			clock := utils.SystemClock{}
			orchestrator := sync.NewOrchestrator(
				synack.NewClient(cfg.BaseURL, cfg.TokenPath),
				synack.NewRepository(db, clock),
				google.NewCalendar(service, cfg.Timezone),
				[]sync.Binding{
					{Kind: sync.KindTask, CalendarID: cfg.Calendars.Mission},
					{Kind: sync.KindTarget, CalendarID: cfg.Calendars.Upcoming},
					{Kind: sync.KindPatchVerification, CalendarID: cfg.Calendars.Patch},
				},
				clock,
				cfg.Sync.FetchRetries,
			)

			report, err := orchestrator.Run(ctx)
			if err != nil {
				return err
			}
			if n := report.ItemErrors(); n > 0 {
				log.Warnf("sync finished with %d item-level failures; they will be retried on the next run", n)
			}
			return nil
		},
	}
}
