package media

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/wagate/internal/storage"
)

func newTestService(t *testing.T, maxBytes int64) (*Service, *storage.Local) {
	t.Helper()
	provider := storage.NewLocal(t.TempDir())
	svc := NewService(nil, provider, maxBytes)
	svc.now = func() time.Time { return time.UnixMilli(1700000000123) }
	return svc, provider
}

func TestStageAndLoadRoundTrip(t *testing.T) {
	t.Parallel()
	svc, provider := newTestService(t, 0)
	ctx := context.Background()

	asset, err := svc.Stage(ctx, StageInput{
		TenantID: "tenant-1",
		Filename: "poster.PNG",
		Mime:     "",
		Reader:   strings.NewReader("fake-png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "tenant-1/1700000000123.png", asset.StorageKey)
	assert.Equal(t, "image/png", asset.Mime)
	assert.Equal(t, "poster.PNG", asset.Filename)
	assert.Equal(t, int64(8), asset.SizeBytes)
	assert.Len(t, asset.ContentHash, 64)
	assert.Equal(t, provider.AccessPath(asset.StorageKey), svc.AccessPath(asset))

	m, err := svc.Load(ctx, asset)
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-png"), m.Data)
	assert.Equal(t, "image/png", m.MimeType)
	assert.Equal(t, "poster.PNG", m.Filename)
}

func TestStageDerivesExtensionFromMime(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, 0)

	asset, err := svc.Stage(context.Background(), StageInput{
		TenantID: "../tenant",
		Filename: "",
		Mime:     "audio/ogg; codecs=opus",
		Reader:   strings.NewReader("ogg"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(asset.StorageKey, "1700000000123.ogg"), asset.StorageKey)
	assert.False(t, strings.Contains(asset.StorageKey, ".."), "tenant segment is sanitized")
	assert.True(t, strings.HasSuffix(asset.Filename, ".ogg"))
}

func TestStageLimits(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, 4)
	ctx := context.Background()

	_, err := svc.Stage(ctx, StageInput{TenantID: "t", Filename: "a.txt", Reader: strings.NewReader("12345")})
	assert.ErrorIs(t, err, ErrAssetTooLarge)

	_, err = svc.Stage(ctx, StageInput{TenantID: "t", Filename: "a.txt", Reader: strings.NewReader("")})
	assert.ErrorIs(t, err, ErrEmptyAsset)

	_, err = svc.Stage(ctx, StageInput{TenantID: " ", Reader: strings.NewReader("x")})
	assert.Error(t, err)

	_, err = NewService(nil, nil, 0).Stage(ctx, StageInput{TenantID: "t", Reader: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestLoadMissingAsset(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, 0)

	_, err := svc.Load(context.Background(), Asset{StorageKey: "t/none.png"})
	assert.Error(t, err)
}

func TestMediaTypeLookups(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mime string
		ext  string
	}{
		{"image/jpg", ".jpg"},
		{"IMAGE/JPEG", ".jpg"},
		{"audio/mp3", ".mp3"},
		{"application/pdf", ".pdf"},
		{"application/x-unknown", ".bin"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ext, extensionFromMime(tt.mime), tt.mime)
	}
	assert.Equal(t, "audio/ogg", mimeFromExtension(".OPUS"))
	assert.Equal(t, "application/octet-stream", mimeFromExtension(".exe"))
}

func TestDiscardRemovesStagedAsset(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, 0)
	ctx := context.Background()

	asset, err := svc.Stage(ctx, StageInput{TenantID: "tenant-1", Filename: "a.pdf", Reader: strings.NewReader("pdf")})
	require.NoError(t, err)
	require.NoError(t, svc.Discard(ctx, asset))
	require.NoError(t, svc.Discard(ctx, asset), "discarding twice is fine")

	_, err = svc.Load(ctx, asset)
	assert.Error(t, err)
	assert.ErrorIs(t, NewService(nil, nil, 0).Discard(ctx, asset), ErrProviderUnavailable)
}
