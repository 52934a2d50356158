package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var activeFlag bool

// historyCmd prints the rental view of one account.
var historyCmd = &cobra.Command{
	Use:   "history [account]",
	Short: "Show held, overdue and recent units of an account",
	Long: `Prints the rental view of an account as JSON.
With --active, lists every outstanding rental instead.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if activeFlag {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		st, err := bootstrap(ctx)
		if err != nil {
			return err
		}

		if activeFlag {
			rentals, err := st.ledger.AllActiveRentals(ctx)
			if err != nil {
				return fmt.Errorf("failed to list rentals: %w", err)
			}
			st.logger.Info("Active rentals", zap.Int("count", len(rentals)))
			return printJSON(rentals)
		}

		view, err := st.ledger.HistoryFor(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(view)
	},
}

func init() {
	historyCmd.Flags().BoolVar(&activeFlag, "active", false, "List all outstanding rentals")
	RootCmd.AddCommand(historyCmd)
}
