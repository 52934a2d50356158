package cmd

import (
	"fmt"
	"os"

	"umbrella-station/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "umbrella-station",
	Short: "Umbrella Station Service",
	Long: `Umbrella Station reconciles the sensors of a shared umbrella stand
with a rental ledger. It reads RFID scans and slot occupancy from an MQTT or
AMQP broker and records borrows and returns.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format with ISO8601 timestamps for CLI users
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
