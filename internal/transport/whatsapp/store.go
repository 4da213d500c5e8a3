// Package whatsapp implements transport.ChatTransport on top of whatsmeow.
package whatsapp

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"
	_ "modernc.org/sqlite"

	"github.com/memohai/wagate/internal/config"
	"github.com/memohai/wagate/internal/db"
	"github.com/memohai/wagate/internal/transport"
)

// Store owns the whatsmeow device container shared by all tenant clients and
// acts as their transport.Factory.
type Store struct {
	container *sqlstore.Container
	sqlDB     *sql.DB
	logger    *slog.Logger
}

// OpenStore opens the device store described by cfg. With the postgres
// dialect and no explicit DSN the application database is reused.
func OpenStore(ctx context.Context, log *slog.Logger, cfg config.WhatsAppConfig, pg config.PostgresConfig) (*Store, error) {
	dialect, driver, dsn, err := resolveStore(cfg, pg)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		if err := ensureSQLiteDir(dsn); err != nil {
			return nil, err
		}
	}
	if name := strings.TrimSpace(cfg.OSName); name != "" {
		store.DeviceProps.Os = proto.String(name)
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open device store: %w", err)
	}
	logger := log.With(slog.String("component", "whatsapp"))
	container := sqlstore.NewWithDB(sqlDB, dialect, newWALogger(logger.With(slog.String("module", "store"))))
	if err := container.Upgrade(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("upgrade device store: %w", err)
	}
	return &Store{container: container, sqlDB: sqlDB, logger: logger}, nil
}

// New implements transport.Factory. credentials is the device JID stored
// after a previous pairing; a missing or unknown device starts a fresh pairing.
func (s *Store) New(ctx context.Context, tenantID string, credentials []byte) (transport.ChatTransport, error) {
	device, err := s.device(ctx, credentials)
	if err != nil {
		return nil, err
	}
	log := s.logger.With(slog.String("tenant_id", tenantID))
	cli := whatsmeow.NewClient(device, newWALogger(log.With(slog.String("module", "client"))))
	return newClient(tenantID, cli, log), nil
}

func (s *Store) device(ctx context.Context, credentials []byte) (*store.Device, error) {
	raw := strings.TrimSpace(string(credentials))
	if raw == "" {
		return s.container.NewDevice(), nil
	}
	jid, err := types.ParseJID(raw)
	if err != nil {
		s.logger.Warn("stored credentials are not a device id, pairing again", slog.Any("error", err))
		return s.container.NewDevice(), nil
	}
	device, err := s.container.GetDevice(ctx, jid)
	if err != nil {
		return nil, fmt.Errorf("load device %s: %w", jid, err)
	}
	if device == nil {
		s.logger.Warn("device no longer in store, pairing again", slog.String("jid", jid.String()))
		return s.container.NewDevice(), nil
	}
	return device, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.sqlDB.Close()
}

func resolveStore(cfg config.WhatsAppConfig, pg config.PostgresConfig) (dialect, driver, dsn string, err error) {
	dsn = strings.TrimSpace(cfg.StoreDSN)
	switch strings.ToLower(strings.TrimSpace(cfg.StoreDialect)) {
	case "", "sqlite", "sqlite3":
		if dsn == "" {
			dsn = config.DefaultStoreDSN
		}
		return "sqlite", "sqlite", dsn, nil
	case "postgres", "pgx":
		if dsn == "" {
			dsn = db.DSN(pg)
		}
		return "postgres", "pgx", dsn, nil
	default:
		return "", "", "", fmt.Errorf("unsupported whatsapp store dialect %q", cfg.StoreDialect)
	}
}

func ensureSQLiteDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create device store dir: %w", err)
	}
	return nil
}
