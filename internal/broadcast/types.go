package broadcast

import (
	"errors"
	"fmt"
	"strings"

	"github.com/memohai/wagate/internal/message"
	"github.com/memohai/wagate/internal/transport"
)

var (
	ErrNoRecipients       = errors.New("no users found to send messages to")
	ErrMissingMedia       = errors.New("media file is required for this message type")
	ErrInvalidMessageKind = errors.New("invalid message type")
)

// MessageKind is the broadcast message type.
type MessageKind string

const (
	KindText     MessageKind = "text"
	KindImage    MessageKind = "image"
	KindVideo    MessageKind = "video"
	KindDocument MessageKind = "document"
	KindAudio    MessageKind = "audio"
)

// ParseMessageKind validates a client-supplied message type.
func ParseMessageKind(raw string) (MessageKind, error) {
	k := MessageKind(strings.ToLower(strings.TrimSpace(raw)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMessageKind, raw)
	}
	return k, nil
}

// Valid reports whether k is a known kind.
func (k MessageKind) Valid() bool {
	switch k {
	case KindText, KindImage, KindVideo, KindDocument, KindAudio:
		return true
	}
	return false
}

func (k MessageKind) mediaKind() message.MediaKind {
	if k == KindText {
		return message.MediaNone
	}
	return message.MediaKind(k)
}

// Media is a loaded attachment plus the reference recorded in the log.
type Media struct {
	transport.Media
	Ref string
}

// Request is one broadcast.
type Request struct {
	TenantID  string
	CompanyID string
	Kind      MessageKind
	Content   string
	Media     *Media
}

// Payload returns what the transport should send for r.
func (r Request) Payload() transport.Payload {
	if r.Kind == KindText || r.Media == nil {
		return transport.Payload{Text: r.Content}
	}
	m := r.Media.Media
	return transport.Payload{
		Text:      r.Content,
		Kind:      transport.MediaKind(r.Kind),
		Media:     &m,
		VoiceNote: r.Kind == KindAudio,
	}
}

// Outcome statuses.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Outcome is the per-recipient result.
type Outcome struct {
	RecipientID string `json:"-"`
	PhoneNumber string `json:"phoneNumber"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
}

// Summary counts outcomes.
type Summary struct {
	Total  int `json:"total"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Summarize derives a Summary from outcomes.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		if o.Status == StatusSent {
			s.Sent++
		} else {
			s.Failed++
		}
	}
	return s
}
