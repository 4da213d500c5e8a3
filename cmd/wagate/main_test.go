package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "wagate "))
}

func TestTokenCommandIssuesVerifiableJWT(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[auth]\njwt_secret = \"cli-secret\"\njwt_expires_in = \"1h\"\n"), 0o600))

	var out, errOut bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"--config", path, "token", "--user", "tenant-1", "--company", "co-1"})
	require.NoError(t, root.Execute())

	parsed, err := jwt.Parse(strings.TrimSpace(out.String()), func(*jwt.Token) (any, error) { return []byte("cli-secret"), nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "tenant-1", claims["user_id"])
	assert.Equal(t, "co-1", claims["company_id"])
	assert.Contains(t, errOut.String(), "expires at")
}

func TestTokenCommandRequiresUser(t *testing.T) {
	t.Parallel()

	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"token"})
	require.Error(t, root.Execute())
}

func TestMigrateRejectsUnknownCommand(t *testing.T) {
	t.Parallel()

	root := newRootCommand()
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.toml"), "migrate", "sideways"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown migrate command")
}
