package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "dbtool",
		Short:         "Database and operator utilities for peopleops",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to the yaml config (defaults to CONFIG_PATH or config/local.yaml)")

	root.AddCommand(migrateCmd(&configPath))
	root.AddCommand(backupCmd(&configPath))
	root.AddCommand(tokenCmd(&configPath))
	return root
}
