package main

import (
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/memohai/wagate/cmd/wagate/modules"
	"github.com/memohai/wagate/db"
	dbpkg "github.com/memohai/wagate/internal/db"
	"github.com/memohai/wagate/internal/logger"
)

func newMigrateCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|version|force N]",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.RangeArgs(0, 2),
		ValidArgs: []string{"up", "down", "version", "force"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := modules.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			logger.Init(cfg.Log.Level, cfg.Log.Format)

			migrations, err := fs.Sub(db.MigrationsFS, "migrations")
			if err != nil {
				return fmt.Errorf("migrations fs: %w", err)
			}
			command := "up"
			var rest []string
			if len(args) > 0 {
				command, rest = args[0], args[1:]
			}
			return dbpkg.RunMigrate(logger.L, cfg.Postgres, migrations, command, rest)
		},
	}
}
