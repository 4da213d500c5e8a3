package media

import (
	"errors"
	"io"
)

var (
	// ErrProviderUnavailable indicates no storage provider is configured.
	ErrProviderUnavailable = errors.New("media storage provider not configured")
	// ErrAssetTooLarge indicates an upload exceeded the configured limit.
	ErrAssetTooLarge = errors.New("media asset too large")
	// ErrEmptyAsset indicates an upload with no bytes.
	ErrEmptyAsset = errors.New("media asset is empty")
)

// MaxAssetBytes is the default upload limit.
const MaxAssetBytes int64 = 64 << 20

// Asset is an uploaded file staged for broadcast.
type Asset struct {
	TenantID    string `json:"tenant_id"`
	Filename    string `json:"filename"`
	Mime        string `json:"mime"`
	SizeBytes   int64  `json:"size_bytes"`
	ContentHash string `json:"content_hash"`
	StorageKey  string `json:"storage_key"`
}

// StageInput carries one upload.
type StageInput struct {
	TenantID string
	Filename string
	Mime     string
	// Reader provides the raw bytes; caller is responsible for closing.
	Reader io.Reader
}
