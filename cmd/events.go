package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var dayFlag string

// eventsCmd lists the journal of one day.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List journaled station events of one day",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		day := time.Now().UTC()
		if dayFlag != "" {
			parsed, err := time.Parse(time.DateOnly, dayFlag)
			if err != nil {
				return fmt.Errorf("invalid --day %q: %w", dayFlag, err)
			}
			day = parsed
		}

		st, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		if st.client == nil {
			st.logger.Warn("Journal is disabled (STORAGE_ENABLED=false)")
		}

		events, err := st.journal.List(ctx, day)
		if err != nil {
			return fmt.Errorf("failed to list events: %w", err)
		}
		st.logger.Info("Journal read", zap.String("day", day.Format(time.DateOnly)), zap.Int("events", len(events)))
		return printJSON(events)
	},
}

func init() {
	eventsCmd.Flags().StringVar(&dayFlag, "day", "", "Day to list (YYYY-MM-DD, UTC). Defaults to today")
	RootCmd.AddCommand(eventsCmd)
}
