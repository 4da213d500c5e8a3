package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRoundTrip(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	p := NewLocal(root)
	ctx := context.Background()

	require.NoError(t, p.Put(ctx, "tenant-1/1700000000000.png", strings.NewReader("png-bytes")))
	rc, err := p.Open(ctx, "tenant-1/1700000000000.png")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, filepath.ToSlash(filepath.Join(root, "tenant-1", "1700000000000.png")), p.AccessPath("tenant-1/1700000000000.png"))

	require.NoError(t, p.Delete(ctx, "tenant-1/1700000000000.png"))
	require.NoError(t, p.Delete(ctx, "tenant-1/1700000000000.png"))
	_, err = p.Open(ctx, "tenant-1/1700000000000.png")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLocalKeysStayUnderRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	p := NewLocal(root)
	require.NoError(t, p.Put(context.Background(), "../../escape.txt", strings.NewReader("x")))
	_, err := os.Stat(filepath.Join(root, "escape.txt"))
	assert.NoError(t, err, "traversal is clamped to the root")

	assert.ErrorIs(t, p.Put(context.Background(), "/", strings.NewReader("x")), ErrInvalidKey)
	assert.Equal(t, "", p.AccessPath(""))
}
