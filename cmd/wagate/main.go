package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "wagate",
		Short:         "Multi-tenant WhatsApp pairing and broadcast gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.toml (defaults to $CONFIG_PATH or ./config.toml)")

	root.AddCommand(
		newServeCommand(&configPath),
		newMigrateCommand(&configPath),
		newTokenCommand(&configPath),
		newVersionCommand(),
	)
	return root
}
