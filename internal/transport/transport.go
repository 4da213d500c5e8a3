// Package transport defines the chat transport capability a tenant session drives.
//
// A ChatTransport is owned by exactly one session. Lifecycle notifications are
// delivered as discrete Event values on the channel returned by Events; the
// channel is closed once the transport is destroyed or its connection ends.
package transport

import (
	"context"
	"errors"
	"fmt"
)

// EventKind enumerates lifecycle notifications.
type EventKind string

const (
	EventPairingCode   EventKind = "pairing_code"
	EventAuthenticated EventKind = "authenticated"
	EventAuthFailed    EventKind = "auth_failed"
)

// Event is one lifecycle notification. Code is set for EventPairingCode, Err
// optionally for EventAuthFailed.
type Event struct {
	Kind EventKind
	Code string
	Err  error
}

// MediaKind selects how a media payload is delivered.
type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
	MediaAudio    MediaKind = "audio"
)

// Media is a loaded attachment.
type Media struct {
	Data     []byte
	MimeType string
	Filename string
}

// Payload is one outgoing message. A payload without Media is sent as text.
type Payload struct {
	Text      string
	Kind      MediaKind
	Media     *Media
	VoiceNote bool
}

// Validate checks that a media payload carries both a kind and content.
func (p Payload) Validate() error {
	if p.Media == nil {
		if p.Kind != "" {
			return fmt.Errorf("%w: %s payload without media", ErrInvalidPayload, p.Kind)
		}
		return nil
	}
	switch p.Kind {
	case MediaImage, MediaVideo, MediaDocument, MediaAudio:
	default:
		return fmt.Errorf("%w: unknown media kind %q", ErrInvalidPayload, p.Kind)
	}
	if len(p.Media.Data) == 0 {
		return fmt.Errorf("%w: empty media", ErrInvalidPayload)
	}
	return nil
}

var (
	// ErrInvalidPayload is returned by Send for malformed payloads.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrNotConnected is returned by Send before authentication or after Destroy.
	ErrNotConnected = errors.New("transport not connected")
)

// ChatTransport is the capability a session uses to talk to the chat network.
type ChatTransport interface {
	// Initialize starts the connection. It may block until the first
	// handshake completes; pairing progress is reported through Events.
	Initialize(ctx context.Context) error
	Events() <-chan Event
	// Send delivers payload to target, the canonical recipient number.
	Send(ctx context.Context, target string, payload Payload) error
	// Credentials returns the blob that lets a later transport resume
	// without pairing. Only meaningful after EventAuthenticated.
	Credentials() ([]byte, error)
	Destroy(ctx context.Context) error
}

// LogoutCapable transports can unlink the device on disconnect.
type LogoutCapable interface {
	Logout(ctx context.Context) error
}

// Factory creates a fresh transport for tenantID. Non-empty credentials
// request a resume of an earlier pairing.
type Factory interface {
	New(ctx context.Context, tenantID string, credentials []byte) (ChatTransport, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context, tenantID string, credentials []byte) (ChatTransport, error)

// New implements Factory.
func (f FactoryFunc) New(ctx context.Context, tenantID string, credentials []byte) (ChatTransport, error) {
	return f(ctx, tenantID, credentials)
}
