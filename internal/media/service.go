// Package media stages uploaded broadcast attachments and loads them back for sending.
package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/memohai/wagate/internal/storage"
	"github.com/memohai/wagate/internal/transport"
)

// Service stages uploads under <tenant>/<unix millis><ext>.
type Service struct {
	provider storage.Provider
	maxBytes int64
	now      func() time.Time
	logger   *slog.Logger
}

// NewService creates a media service. maxBytes <= 0 uses MaxAssetBytes.
func NewService(log *slog.Logger, provider storage.Provider, maxBytes int64) *Service {
	if log == nil {
		log = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = MaxAssetBytes
	}
	return &Service{
		provider: provider,
		maxBytes: maxBytes,
		now:      time.Now,
		logger:   log.With(slog.String("service", "media")),
	}
}

// MaxBytes returns the upload limit.
func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// Stage spools the upload, enforces the size limit and stores it.
func (s *Service) Stage(ctx context.Context, input StageInput) (Asset, error) {
	if s.provider == nil {
		return Asset{}, ErrProviderUnavailable
	}
	tenantID := sanitizeSegment(input.TenantID)
	if tenantID == "" {
		return Asset{}, fmt.Errorf("tenant id is required")
	}
	if input.Reader == nil {
		return Asset{}, fmt.Errorf("reader is required")
	}

	contentHash, sizeBytes, tempPath, err := spoolAndHashWithLimit(input.Reader, s.maxBytes)
	if err != nil {
		return Asset{}, fmt.Errorf("read input: %w", err)
	}
	defer func() {
		_ = os.Remove(tempPath)
	}()

	filename := path.Base(strings.ReplaceAll(strings.TrimSpace(input.Filename), "\\", "/"))
	if filename == "." || filename == "/" {
		filename = ""
	}
	mime := strings.TrimSpace(input.Mime)
	ext := strings.ToLower(path.Ext(filename))
	if mime == "" || mime == "application/octet-stream" {
		if guessed := mimeFromExtension(ext); guessed != "application/octet-stream" {
			mime = guessed
		}
	}
	mime = coalesce(mime, "application/octet-stream")
	if ext == "" {
		ext = extensionFromMime(mime)
	}
	if filename == "" {
		filename = contentHash[:12] + ext
	}
	storageKey := path.Join(tenantID, strconv.FormatInt(s.now().UnixMilli(), 10)+ext)

	tempFile, err := os.Open(tempPath)
	if err != nil {
		return Asset{}, fmt.Errorf("open temp file: %w", err)
	}
	defer func() {
		_ = tempFile.Close()
	}()
	if err := s.provider.Put(ctx, storageKey, tempFile); err != nil {
		return Asset{}, fmt.Errorf("store media: %w", err)
	}
	s.logger.Debug("media staged", slog.String("tenant_id", tenantID), slog.String("key", storageKey), slog.Int64("size", sizeBytes))

	return Asset{
		TenantID:    tenantID,
		Filename:    filename,
		Mime:        mime,
		SizeBytes:   sizeBytes,
		ContentHash: contentHash,
		StorageKey:  storageKey,
	}, nil
}

// Load reads a staged asset back as a transport payload.
func (s *Service) Load(ctx context.Context, asset Asset) (transport.Media, error) {
	if s.provider == nil {
		return transport.Media{}, ErrProviderUnavailable
	}
	rc, err := s.provider.Open(ctx, asset.StorageKey)
	if err != nil {
		return transport.Media{}, fmt.Errorf("open storage: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, s.maxBytes+1))
	if err != nil {
		return transport.Media{}, fmt.Errorf("read media: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return transport.Media{}, fmt.Errorf("%w: max %d bytes", ErrAssetTooLarge, s.maxBytes)
	}
	if len(data) == 0 {
		return transport.Media{}, ErrEmptyAsset
	}
	return transport.Media{Data: data, MimeType: asset.Mime, Filename: asset.Filename}, nil
}

// AccessPath returns the reference recorded in the message log for asset.
func (s *Service) AccessPath(asset Asset) string {
	if s.provider == nil {
		return ""
	}
	return s.provider.AccessPath(asset.StorageKey)
}

// Discard deletes a staged asset. A missing object is not an error.
func (s *Service) Discard(ctx context.Context, asset Asset) error {
	if s.provider == nil {
		return ErrProviderUnavailable
	}
	if err := s.provider.Delete(ctx, asset.StorageKey); err != nil {
		return fmt.Errorf("delete %s: %w", asset.StorageKey, err)
	}
	return nil
}

func sanitizeSegment(v string) string {
	v = strings.TrimSpace(v)
	v = strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(v)
	return v
}

// mediaTypes lists the formats WhatsApp accepts per media kind. The first
// extension of a mime wins when deriving an extension.
var mediaTypes = []struct {
	ext  string
	mime string
}{
	{".jpg", "image/jpeg"},
	{".jpeg", "image/jpeg"},
	{".png", "image/png"},
	{".webp", "image/webp"},
	{".mp4", "video/mp4"},
	{".3gp", "video/3gpp"},
	{".ogg", "audio/ogg"},
	{".opus", "audio/ogg"},
	{".mp3", "audio/mpeg"},
	{".m4a", "audio/mp4"},
	{".aac", "audio/aac"},
	{".amr", "audio/amr"},
	{".pdf", "application/pdf"},
	{".doc", "application/msword"},
	{".docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	{".xls", "application/vnd.ms-excel"},
	{".xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	{".ppt", "application/vnd.ms-powerpoint"},
	{".pptx", "application/vnd.openxmlformats-officedocument.presentationml.presentation"},
	{".zip", "application/zip"},
	{".csv", "text/csv"},
	{".txt", "text/plain"},
}

func mimeFromExtension(ext string) string {
	ext = strings.ToLower(ext)
	for _, t := range mediaTypes {
		if t.ext == ext {
			return t.mime
		}
	}
	return "application/octet-stream"
}

func extensionFromMime(mime string) string {
	base, _, _ := strings.Cut(strings.ToLower(mime), ";")
	base = strings.TrimSpace(base)
	switch base {
	case "image/jpg":
		base = "image/jpeg"
	case "audio/mp3":
		base = "audio/mpeg"
	}
	for _, t := range mediaTypes {
		if t.mime == base {
			return t.ext
		}
	}
	return ".bin"
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func spoolAndHashWithLimit(reader io.Reader, maxBytes int64) (string, int64, string, error) {
	if maxBytes <= 0 {
		return "", 0, "", fmt.Errorf("max bytes must be greater than 0")
	}
	tempFile, err := os.CreateTemp("", "wagate-media-*")
	if err != nil {
		return "", 0, "", fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	keepFile := false
	defer func() {
		_ = tempFile.Close()
		if !keepFile {
			_ = os.Remove(tempPath)
		}
	}()

	hasher := sha256.New()
	limited := &io.LimitedReader{R: reader, N: maxBytes + 1}
	written, err := io.Copy(io.MultiWriter(tempFile, hasher), limited)
	if err != nil {
		return "", 0, "", fmt.Errorf("copy to temp file: %w", err)
	}
	if written > maxBytes {
		return "", 0, "", fmt.Errorf("%w: max %d bytes", ErrAssetTooLarge, maxBytes)
	}
	if written == 0 {
		return "", 0, "", ErrEmptyAsset
	}
	keepFile = true
	return hex.EncodeToString(hasher.Sum(nil)), written, tempPath, nil
}
