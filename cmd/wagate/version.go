package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memohai/wagate/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wagate %s\n", version.GetInfo())
		},
	}
}
