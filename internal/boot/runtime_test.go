package boot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/wagate/internal/config"
)

func TestProvideRuntimeConfigRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	cfg, err := config.Load("")
	require.NoError(t, err)

	_, err = ProvideRuntimeConfig(cfg)
	assert.Error(t, err)
}

func TestProvideRuntimeConfigEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("HTTP_ADDR", ":7000")
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.WhatsApp.DefaultRegion = " ke "

	rc, err := ProvideRuntimeConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "from-env", rc.JwtSecret)
	assert.Equal(t, ":7000", rc.ServerAddr)
	assert.Equal(t, 24*time.Hour, rc.JwtExpiresIn)
	assert.Equal(t, 30*time.Second, rc.PairingTimeout)
	assert.Equal(t, "KE", rc.DefaultRegion)
}

func TestProvideRuntimeConfigInvalidExpiry(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("HTTP_ADDR", "")
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Auth.JWTSecret = "secret"
	cfg.Auth.JWTExpiresIn = "soon"

	_, err = ProvideRuntimeConfig(cfg)
	assert.Error(t, err)
}
