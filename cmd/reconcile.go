package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"umbrella-station/core/reconcile"
	"umbrella-station/feature/rental/coordinator"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the reconcile command
	reconcileTag    string
	reconcileStatus string
	dryRunReconcile bool
	yesConfirm      bool
)

// reconcileCmd feeds one identity scan and one occupancy payload through the
// coordinator.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile one occupancy payload against the ledger",
	Long: `Feeds an RFID scan and an occupancy payload through the coordinator,
exactly as if the station had published them, and prints the resulting plan.

Examples:
  # Report only
  reconcile --tag "0x23 0x24 0x24 0xC6" --status "1,1,0" --dry-run

  # Apply with interactive confirmation
  reconcile --tag "0x23 0x24 0x24 0xC6" --status "1,1,0"

  # Apply without a pending identity (snapshot tracking only)
  reconcile --status "1,1,1" --yes`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileTag, "tag", "", "RFID tag to scan before the occupancy payload")
	reconcileCmd.Flags().StringVar(&reconcileStatus, "status", "", "Comma separated occupancy payload (e.g. 1,0,1)")
	reconcileCmd.Flags().BoolVar(&dryRunReconcile, "dry-run", false, "Print the plan without touching the ledger")
	reconcileCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm ledger mutations (non-interactive)")
	_ = reconcileCmd.MarkFlagRequired("status")

	RootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	st, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	l := st.logger

	opts := coordinator.Options{
		Encoding:             st.cfg.Rental.Encoding(),
		Policy:               st.cfg.Rental.Policy(),
		TrackUnauthenticated: st.cfg.Rental.TrackUnauthenticated,
	}
	// No hardware channel: the CLI never drives the actuator.
	coord := coordinator.New(st.resolver, st.ledger, nil, st.journal, opts, l)

	account := ""
	if reconcileTag != "" {
		account, err = st.resolver.Resolve([]byte(reconcileTag))
		if err != nil {
			return fmt.Errorf("tag %q: %w", reconcileTag, err)
		}
	}

	// Step 1: Plan (always runs)
	plan, err := coord.Preview(ctx, account, []byte(reconcileStatus))
	if err != nil {
		return fmt.Errorf("failed to plan reconciliation: %w", err)
	}
	if err := printJSON(plan); err != nil {
		return err
	}
	printReconcileReport(l, plan)

	if dryRunReconcile {
		l.Info("Dry-run mode: No changes were made.")
		return nil
	}
	if len(plan.Transitions) == 0 {
		l.Info("No transitions detected.")
		return nil
	}
	if !confirmAction() {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	// Step 2: Apply through the same path the broker messages take
	if reconcileTag != "" {
		if _, err := coord.HandleIdentity(ctx, []byte(reconcileTag)); err != nil {
			return err
		}
	}
	result, err := coord.HandleOccupancy(ctx, []byte(reconcileStatus))
	if err != nil {
		return fmt.Errorf("failed to apply plan: %w", err)
	}

	failed := reconcile.Failed(result.Outcomes)
	for _, o := range failed {
		l.Warn("Action failed", zap.String("type", string(o.Action.Type)), zap.Int("unit", o.Action.Unit), zap.String("error", o.Error))
	}
	l.Info("Reconciliation applied",
		zap.Bool("authenticated", result.Authenticated),
		zap.Bool("snapshot_updated", result.SnapshotUpdated),
		zap.Int("applied", len(result.Outcomes)-len(failed)),
		zap.Int("failed", len(failed)),
	)
	return nil
}

// printReconcileReport logs the plan summary.
func printReconcileReport(l *zap.Logger, plan *reconcile.Plan) {
	s := plan.Summary
	l.Info("Reconciliation report",
		zap.String("account", plan.Account),
		zap.Int("transitions", len(plan.Transitions)),
		zap.Int("borrows", s.Borrows),
		zap.Int("returns", s.Returns),
		zap.Int("unreadable", s.Unreadable),
	)
	if plan.Account == "" && len(plan.Actions) > 0 {
		l.Warn("No identity given; actions will not reach the ledger")
	}
}

// confirmAction prompts the user for confirmation or uses --yes flag.
func confirmAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to apply these changes: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
