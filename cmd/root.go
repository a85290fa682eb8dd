package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"ledgersync/logx"
)

var rootCmd = &cobra.Command{
	Use:   "ledgersync",
	Short: "Ledger synchronizer node CLI",
	Long:  "Command line interface for running a node that replays the transaction feed into a local ledger and certifies its state digest against a quorum of peers.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logx.Error("CMD", "Command execution failed:", err)
		os.Exit(1)
	}
}
