// Package boot provides runtime configuration derived from the TOML config.
package boot

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/memohai/wagate/internal/config"
)

// RuntimeConfig holds parsed runtime settings (JWT, server address, pairing window).
// Values may be overridden by environment variables (HTTP_ADDR, JWT_SECRET).
type RuntimeConfig struct {
	JwtSecret      string
	JwtExpiresIn   time.Duration
	ServerAddr     string
	PairingTimeout time.Duration
	DefaultRegion  string
}

// ProvideRuntimeConfig builds RuntimeConfig from the given config and applies env overrides.
func ProvideRuntimeConfig(cfg config.Config) (*RuntimeConfig, error) {
	secret := cfg.Auth.JWTSecret
	if value := os.Getenv("JWT_SECRET"); value != "" {
		secret = value
	}
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}

	jwtExpiresIn, err := time.ParseDuration(cfg.Auth.JWTExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("invalid jwt expires in: %w", err)
	}

	region := strings.ToUpper(strings.TrimSpace(cfg.WhatsApp.DefaultRegion))
	if region == "" {
		region = config.DefaultRegion
	}

	ret := &RuntimeConfig{
		JwtSecret:      secret,
		JwtExpiresIn:   jwtExpiresIn,
		ServerAddr:     cfg.Server.Addr,
		PairingTimeout: cfg.Pairing.TimeoutDuration(),
		DefaultRegion:  region,
	}

	if value := os.Getenv("HTTP_ADDR"); value != "" {
		ret.ServerAddr = value
	}
	return ret, nil
}
