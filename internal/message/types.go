package message

import (
	"context"
	"errors"
	"time"
)

// ErrRecipientNotFound means the recipient row no longer exists, typically
// because the user was deleted while a broadcast was in flight.
var ErrRecipientNotFound = errors.New("recipient not found")

// MediaKind is the media_type column value.
type MediaKind string

const (
	MediaNone     MediaKind = "none"
	MediaImage    MediaKind = "image"
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
	MediaAudio    MediaKind = "audio"
)

// Status is the delivery status recorded for an entry.
type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// DefaultListLimit caps ListByCompany.
const DefaultListLimit = 100

// Sender is the recipient joined onto a listed entry.
type Sender struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
}

// Entry is one append-only message log row. Ownership columns stay off the
// wire; the caller already knows its tenant and company.
type Entry struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"-"`
	TenantID    string    `json:"-"`
	RecipientID string    `json:"-"`
	Content     string    `json:"content"`
	MediaKind   MediaKind `json:"mediaType"`
	MediaRef    string    `json:"mediaURL"`
	Status      Status    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Sender      *Sender   `json:"sender"`
}

// Log appends entries; the broadcast dispatcher depends only on this.
type Log interface {
	Append(ctx context.Context, entry Entry) (Entry, error)
}

// Service is the full message log contract.
type Service interface {
	Log
	ListByCompany(ctx context.Context, companyID string, limit int) ([]Entry, error)
}
