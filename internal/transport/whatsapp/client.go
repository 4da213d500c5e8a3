package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"

	"github.com/memohai/wagate/internal/transport"
)

const eventBuffer = 16

var (
	errPairingExpired = errors.New("pairing window expired without a scan")
	errLoggedOut      = errors.New("device logged out")
)

// Client adapts one whatsmeow client to transport.ChatTransport.
type Client struct {
	tenantID string
	cli      *whatsmeow.Client
	logger   *slog.Logger

	// pairing outlives the request that started it; Destroy cancels it.
	pairingCtx    context.Context
	cancelPairing context.CancelFunc

	events    chan transport.Event
	done      chan struct{}
	doneOnce  sync.Once
	mu        sync.Mutex
	closed    bool
	authed    bool
	handlerID uint32
}

func newClient(tenantID string, cli *whatsmeow.Client, log *slog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		tenantID:      tenantID,
		cli:           cli,
		logger:        log,
		pairingCtx:    ctx,
		cancelPairing: cancel,
		events:        make(chan transport.Event, eventBuffer),
		done:          make(chan struct{}),
	}
	c.handlerID = cli.AddEventHandler(c.handleEvent)
	return c
}

// Initialize connects the client. A device without a stored identity gets a
// QR channel whose codes are emitted as EventPairingCode.
func (c *Client) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.cli.Store.ID == nil {
		qrCh, err := c.cli.GetQRChannel(c.pairingCtx)
		if err != nil {
			return fmt.Errorf("qr channel: %w", err)
		}
		go c.forwardQR(qrCh)
	}
	if err := c.cli.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

func (c *Client) forwardQR(qrCh <-chan whatsmeow.QRChannelItem) {
	for item := range qrCh {
		switch item.Event {
		case whatsmeow.QRChannelEventCode:
			c.emit(transport.Event{Kind: transport.EventPairingCode, Code: item.Code})
		case whatsmeow.QRChannelSuccess.Event:
			c.logger.Info("pairing scan accepted")
		case whatsmeow.QRChannelTimeout.Event:
			c.emit(transport.Event{Kind: transport.EventAuthFailed, Err: errPairingExpired})
		case whatsmeow.QRChannelEventError:
			c.emit(transport.Event{Kind: transport.EventAuthFailed, Err: item.Error})
		default:
			c.emit(transport.Event{Kind: transport.EventAuthFailed, Err: fmt.Errorf("pairing failed: %s", item.Event)})
		}
	}
}

func (c *Client) handleEvent(evt interface{}) {
	switch e := evt.(type) {
	case *events.Connected:
		c.mu.Lock()
		first := !c.authed
		c.authed = true
		c.mu.Unlock()
		if first {
			c.emit(transport.Event{Kind: transport.EventAuthenticated})
		}
	case *events.PairSuccess:
		c.logger.Info("device paired", slog.String("jid", e.ID.String()), slog.String("platform", e.Platform))
	case *events.LoggedOut:
		c.emit(transport.Event{Kind: transport.EventAuthFailed, Err: fmt.Errorf("%w: %s", errLoggedOut, e.Reason.String())})
	case *events.ConnectFailure:
		if e.Reason.IsLoggedOut() {
			c.emit(transport.Event{Kind: transport.EventAuthFailed, Err: fmt.Errorf("%w: %s", errLoggedOut, e.Reason.String())})
		}
	case *events.TemporaryBan:
		c.emit(transport.Event{Kind: transport.EventAuthFailed, Err: fmt.Errorf("temporary ban: %s", e.String())})
	case *events.StreamReplaced:
		c.logger.Warn("stream replaced by another connection")
		c.close()
	}
}

func (c *Client) emit(ev transport.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// Events implements transport.ChatTransport.
func (c *Client) Events() <-chan transport.Event {
	return c.events
}

// Send implements transport.ChatTransport.
func (c *Client) Send(ctx context.Context, target string, payload transport.Payload) error {
	if err := payload.Validate(); err != nil {
		return err
	}
	if c.cli.Store.ID == nil || !c.cli.IsLoggedIn() {
		return transport.ErrNotConnected
	}
	msg, err := buildMessage(ctx, c.cli, payload)
	if err != nil {
		return err
	}
	if _, err := c.cli.SendMessage(ctx, TargetJID(target), msg); err != nil {
		return fmt.Errorf("send to %s: %w", target, err)
	}
	return nil
}

// Credentials returns the paired device JID.
func (c *Client) Credentials() ([]byte, error) {
	if c.cli.Store.ID == nil {
		return nil, errors.New("device not paired")
	}
	return []byte(c.cli.Store.ID.String()), nil
}

// Logout unlinks the device from the phone.
func (c *Client) Logout(ctx context.Context) error {
	if c.cli.Store.ID == nil {
		return nil
	}
	return c.cli.Logout(ctx)
}

// Destroy implements transport.ChatTransport.
// Close comes first: whatsmeow holds its handler lock while a handler runs,
// so RemoveEventHandler would wait forever on an emit stuck on a full buffer.
func (c *Client) Destroy(context.Context) error {
	c.close()
	c.cancelPairing()
	c.cli.RemoveEventHandler(c.handlerID)
	c.cli.Disconnect()
	return nil
}

func (c *Client) close() {
	c.doneOnce.Do(func() { close(c.done) })
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.events)
}

// TargetJID maps a canonical phone number to a user JID.
func TargetJID(number string) types.JID {
	return types.NewJID(number, types.DefaultUserServer)
}

type uploader interface {
	Upload(ctx context.Context, plaintext []byte, appInfo whatsmeow.MediaType) (whatsmeow.UploadResponse, error)
}

func buildMessage(ctx context.Context, up uploader, p transport.Payload) (*waE2E.Message, error) {
	if p.Media == nil {
		return &waE2E.Message{Conversation: proto.String(p.Text)}, nil
	}
	var mediaType whatsmeow.MediaType
	switch p.Kind {
	case transport.MediaImage:
		mediaType = whatsmeow.MediaImage
	case transport.MediaVideo:
		mediaType = whatsmeow.MediaVideo
	case transport.MediaAudio:
		mediaType = whatsmeow.MediaAudio
	default:
		mediaType = whatsmeow.MediaDocument
	}
	res, err := up.Upload(ctx, p.Media.Data, mediaType)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", p.Kind, err)
	}
	caption := optionalString(p.Text)
	mime := proto.String(p.Media.MimeType)

	switch p.Kind {
	case transport.MediaImage:
		return &waE2E.Message{ImageMessage: &waE2E.ImageMessage{
			Caption:       caption,
			Mimetype:      mime,
			URL:           proto.String(res.URL),
			DirectPath:    proto.String(res.DirectPath),
			MediaKey:      res.MediaKey,
			FileEncSHA256: res.FileEncSHA256,
			FileSHA256:    res.FileSHA256,
			FileLength:    proto.Uint64(res.FileLength),
		}}, nil
	case transport.MediaVideo:
		return &waE2E.Message{VideoMessage: &waE2E.VideoMessage{
			Caption:       caption,
			Mimetype:      mime,
			URL:           proto.String(res.URL),
			DirectPath:    proto.String(res.DirectPath),
			MediaKey:      res.MediaKey,
			FileEncSHA256: res.FileEncSHA256,
			FileSHA256:    res.FileSHA256,
			FileLength:    proto.Uint64(res.FileLength),
		}}, nil
	case transport.MediaAudio:
		return &waE2E.Message{AudioMessage: &waE2E.AudioMessage{
			Mimetype:      mime,
			URL:           proto.String(res.URL),
			DirectPath:    proto.String(res.DirectPath),
			MediaKey:      res.MediaKey,
			FileEncSHA256: res.FileEncSHA256,
			FileSHA256:    res.FileSHA256,
			FileLength:    proto.Uint64(res.FileLength),
			PTT:           proto.Bool(p.VoiceNote),
		}}, nil
	default:
		return &waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{
			Caption:       caption,
			Title:         proto.String(p.Media.Filename),
			FileName:      proto.String(p.Media.Filename),
			Mimetype:      mime,
			URL:           proto.String(res.URL),
			DirectPath:    proto.String(res.DirectPath),
			MediaKey:      res.MediaKey,
			FileEncSHA256: res.FileEncSHA256,
			FileSHA256:    res.FileSHA256,
			FileLength:    proto.Uint64(res.FileLength),
		}}, nil
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return proto.String(s)
}
