// Package modules groups the fx providers of the wagate server.
package modules

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"

	"github.com/memohai/wagate/internal/boot"
	"github.com/memohai/wagate/internal/config"
	"github.com/memohai/wagate/internal/db"
	dbsqlc "github.com/memohai/wagate/internal/db/sqlc"
	"github.com/memohai/wagate/internal/logger"
)

// ConfigPath is the TOML file the server loads. Empty falls back to
// CONFIG_PATH and then config.DefaultConfigPath.
type ConfigPath string

var InfraModule = fx.Module(
	"infra",
	fx.Provide(
		provideConfig,
		provideLogger,
		provideDBConn,
		provideDBQueries,
		boot.ProvideRuntimeConfig,
	),
)

// LoadConfig resolves path like the server does.
func LoadConfig(path string) (config.Config, error) {
	if strings.TrimSpace(path) == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideConfig(path ConfigPath) (config.Config, error) {
	return LoadConfig(string(path))
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, err := db.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			conn.Close()
			return nil
		},
	})
	return conn, nil
}

func provideDBQueries(conn *pgxpool.Pool) *dbsqlc.Queries {
	return dbsqlc.New(conn)
}
