package cmd

import (
	"context"

	"umbrella-station/feature/integrity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fixFlag bool

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Cross-check the ledger, the snapshot and the journal bucket",
	Long: `Reports rented units that are still docked, withdrawn units nobody rents,
rentals outside the slot range, missing ledger columns and a missing journal bucket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		st, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		logg := st.logger

		svc := integrity.NewService(st.ledger, st.db, st.client, st.cfg.Storage, st.cfg.Rental.Policy(), logg)
		report := svc.Run(ctx)

		if s := report.Storage; fixFlag && s != nil && s.Enabled && !s.Exists {
			logg.Info("Creating journal bucket...")
			if err := svc.FixStorage(ctx); err != nil {
				return err
			}
			report = svc.Run(ctx)
		}

		if c := report.Consistency; c != nil && !c.Consistent {
			logg.Warn("Ledger and snapshot disagree",
				zap.Ints("rented_but_docked", c.RentedButDocked),
				zap.Ints("withdrawn_unrented", c.WithdrawnUnrented),
				zap.Ints("out_of_range", c.OutOfRange),
			)
		}
		if s := report.Schema; s != nil && !s.Matched {
			for table, t := range s.Tables {
				if t.Status != "ok" {
					logg.Warn("Missing Columns", zap.String("table", table), zap.Strings("columns", t.MissingColumns))
				}
			}
		}
		for check, e := range report.Errors {
			logg.Error("Check failed", zap.String("check", check), zap.String("error", e))
		}

		if report.Healthy {
			logg.Info("Station is consistent.")
		}
		return printJSON(report)
	},
}

func init() {
	integrityCmd.Flags().BoolVar(&fixFlag, "fix", false, "Create the journal bucket when missing")
	RootCmd.AddCommand(integrityCmd)
}
