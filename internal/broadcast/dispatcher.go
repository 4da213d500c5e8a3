// Package broadcast fans one message out to every recipient of a company.
package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/memohai/wagate/internal/contacts"
	"github.com/memohai/wagate/internal/message"
	"github.com/memohai/wagate/internal/phone"
	"github.com/memohai/wagate/internal/session"
	"github.com/memohai/wagate/internal/transport"
)

// Session is the part of a live session the dispatcher reads.
type Session interface {
	IsReady() bool
	Transport() transport.ChatTransport
}

// Options tune fan-out. Zero values leave width and pace unbounded.
type Options struct {
	MaxConcurrency int
	RatePerSec     int
	LogFailures    bool
	DefaultRegion  string
}

// Dispatcher sends a Request to each recipient independently.
type Dispatcher struct {
	msgLog     message.Log
	normalizer phone.Normalizer
	opts       Options
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewDispatcher creates a dispatcher recording outcomes in msgLog (may be nil).
func NewDispatcher(log *slog.Logger, msgLog message.Log, opts Options) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	d := &Dispatcher{
		msgLog:     msgLog,
		normalizer: phone.NewNormalizer(opts.DefaultRegion),
		opts:       opts,
		logger:     log.With(slog.String("service", "broadcast")),
	}
	if opts.RatePerSec > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), opts.RatePerSec)
	}
	return d
}

// Broadcast validates preconditions, then sends to every recipient
// concurrently. The returned outcomes match recipients in length and order;
// per-recipient failures never surface as the returned error.
func (d *Dispatcher) Broadcast(ctx context.Context, sess Session, req Request, recipients []contacts.Recipient) ([]Outcome, error) {
	if sess == nil || !sess.IsReady() {
		return nil, session.ErrSessionNotReady
	}
	t := sess.Transport()
	if t == nil {
		return nil, session.ErrSessionNotReady
	}
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMessageKind, req.Kind)
	}
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}
	if req.Kind != KindText && (req.Media == nil || len(req.Media.Data) == 0) {
		return nil, ErrMissingMedia
	}

	log := d.logger.With(slog.String("tenant_id", req.TenantID), slog.String("kind", string(req.Kind)))
	log.Info("broadcast started", slog.Int("recipients", len(recipients)))
	started := time.Now()

	payload := req.Payload()
	outcomes := make([]Outcome, len(recipients))
	var g errgroup.Group
	if d.opts.MaxConcurrency > 0 {
		g.SetLimit(d.opts.MaxConcurrency)
	}
	for i, r := range recipients {
		g.Go(func() error {
			outcomes[i] = d.sendOne(ctx, log, t, req, payload, r)
			return nil
		})
	}
	_ = g.Wait()

	sum := Summarize(outcomes)
	log.Info("broadcast finished",
		slog.Int("sent", sum.Sent),
		slog.Int("failed", sum.Failed),
		slog.Duration("took", time.Since(started)),
	)
	return outcomes, nil
}

func (d *Dispatcher) sendOne(ctx context.Context, log *slog.Logger, t transport.ChatTransport, req Request, payload transport.Payload, r contacts.Recipient) Outcome {
	out := Outcome{RecipientID: r.ID, PhoneNumber: r.PhoneNumber}

	target, err := d.normalizer.Normalize(r.PhoneNumber)
	if err != nil {
		log.Warn("phone number not normalized, sending as is", slog.String("recipient_id", r.ID), slog.Any("error", err))
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return d.fail(ctx, log, req, r, out, fmt.Errorf("rate limit: %w", err))
		}
	}
	if err := t.Send(ctx, target, payload); err != nil {
		return d.fail(ctx, log, req, r, out, err)
	}

	if d.msgLog != nil {
		if _, err := d.msgLog.Append(ctx, d.entry(req, r, message.StatusSent)); err != nil {
			log.Error("store message failed", slog.String("recipient_id", r.ID), slog.Any("error", err))
			out.Status = StatusFailed
			out.Error = fmt.Sprintf("store message: %v", err)
			return out
		}
	}
	out.Status = StatusSent
	return out
}

func (d *Dispatcher) fail(ctx context.Context, log *slog.Logger, req Request, r contacts.Recipient, out Outcome, cause error) Outcome {
	log.Warn("send failed", slog.String("recipient_id", r.ID), slog.Any("error", cause))
	out.Status = StatusFailed
	out.Error = cause.Error()
	if d.opts.LogFailures && d.msgLog != nil {
		if _, err := d.msgLog.Append(ctx, d.entry(req, r, message.StatusFailed)); err != nil {
			log.Error("store failed message", slog.String("recipient_id", r.ID), slog.Any("error", err))
		}
	}
	return out
}

func (d *Dispatcher) entry(req Request, r contacts.Recipient, status message.Status) message.Entry {
	e := message.Entry{
		CompanyID:   req.CompanyID,
		TenantID:    req.TenantID,
		RecipientID: r.ID,
		Content:     req.Content,
		MediaKind:   req.Kind.mediaKind(),
		Status:      status,
		Timestamp:   time.Now().UTC(),
	}
	if req.Media != nil {
		e.MediaRef = req.Media.Ref
	}
	return e
}
