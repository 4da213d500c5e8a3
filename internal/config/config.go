// Package config loads and exposes application configuration (TOML).
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath      = "config.toml"
	DefaultHTTPAddr        = ":8080"
	DefaultJWTExpiresIn    = "24h"
	DefaultPGHost          = "127.0.0.1"
	DefaultPGPort          = 5432
	DefaultPGUser          = "postgres"
	DefaultPGDatabase      = "wagate"
	DefaultPGSSLMode       = "disable"
	DefaultStoreDialect    = "sqlite"
	DefaultStoreDSN        = "file:data/whatsmeow.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	DefaultRegion          = "IN"
	DefaultOSName          = "wagate"
	DefaultPairingTimeout  = "30s"
	DefaultMediaDataRoot   = "whatsapp"
	DefaultMediaMaxBytes   = 64 << 20
	DefaultMessageLogLimit = 100
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log       LogConfig       `toml:"log"`
	Server    ServerConfig    `toml:"server"`
	Auth      AuthConfig      `toml:"auth"`
	Postgres  PostgresConfig  `toml:"postgres"`
	WhatsApp  WhatsAppConfig  `toml:"whatsapp"`
	Pairing   PairingConfig   `toml:"pairing"`
	Broadcast BroadcastConfig `toml:"broadcast"`
	Media     MediaConfig     `toml:"media"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP server listen address.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// AuthConfig holds JWT secret and token expiry (e.g. 24h).
type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// WhatsAppConfig configures the whatsmeow device store and recipient parsing.
// StoreDialect is "sqlite" or "postgres"; an empty StoreDSN with the postgres
// dialect reuses the Postgres section.
type WhatsAppConfig struct {
	StoreDialect  string `toml:"store_dialect"`
	StoreDSN      string `toml:"store_dsn"`
	DefaultRegion string `toml:"default_region"`
	OSName        string `toml:"os_name"`
}

// PairingConfig holds the pairing wait window (e.g. 30s).
type PairingConfig struct {
	Timeout string `toml:"timeout"`
}

// TimeoutDuration parses Timeout, falling back to the default window.
func (c PairingConfig) TimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(c.Timeout); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(DefaultPairingTimeout)
	return d
}

// BroadcastConfig bounds broadcast fan-out. Zero values disable the bound.
type BroadcastConfig struct {
	MaxConcurrency int  `toml:"max_concurrency"`
	RatePerSec     int  `toml:"rate_per_sec"`
	LogFailures    bool `toml:"log_failures"`
}

// MediaConfig holds where uploaded media is staged and the upload size limit.
type MediaConfig struct {
	DataRoot string `toml:"data_root"`
	MaxBytes int64  `toml:"max_bytes"`
}

// Load reads and parses the TOML config file at path and applies default values for missing fields.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Auth: AuthConfig{
			JWTExpiresIn: DefaultJWTExpiresIn,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		WhatsApp: WhatsAppConfig{
			StoreDialect:  DefaultStoreDialect,
			StoreDSN:      DefaultStoreDSN,
			DefaultRegion: DefaultRegion,
			OSName:        DefaultOSName,
		},
		Pairing: PairingConfig{
			Timeout: DefaultPairingTimeout,
		},
		Media: MediaConfig{
			DataRoot: DefaultMediaDataRoot,
			MaxBytes: DefaultMediaMaxBytes,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
