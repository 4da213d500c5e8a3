package handlers

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/memohai/wagate/internal/auth"
	"github.com/memohai/wagate/internal/broadcast"
	"github.com/memohai/wagate/internal/contacts"
	"github.com/memohai/wagate/internal/logger"
	"github.com/memohai/wagate/internal/media"
	messagepkg "github.com/memohai/wagate/internal/message"
	"github.com/memohai/wagate/internal/session"
	"github.com/memohai/wagate/internal/session/event"
)

const (
	sseHeartbeat = 20 * time.Second
	// multipartSlack covers form fields and part headers on top of the file.
	multipartSlack = 1 << 20
)

// RecipientLister lists a company's broadcast recipients.
type RecipientLister interface {
	ListByCompany(ctx context.Context, companyID string) ([]contacts.Recipient, error)
}

// WhatsAppHandler serves tenant-scoped pairing, status and broadcast endpoints.
type WhatsAppHandler struct {
	sessions   *session.Manager
	dispatcher *broadcast.Dispatcher
	recipients RecipientLister
	messages   messagepkg.Service
	media      *media.Service
	events     event.Subscriber
}

// NewWhatsAppHandler creates a WhatsAppHandler. events may be nil, which
// disables the event stream. Log lines go to the request-scoped logger.
func NewWhatsAppHandler(sessions *session.Manager, dispatcher *broadcast.Dispatcher, recipients RecipientLister, messages messagepkg.Service, mediaService *media.Service, events event.Subscriber) *WhatsAppHandler {
	return &WhatsAppHandler{
		sessions:   sessions,
		dispatcher: dispatcher,
		recipients: recipients,
		messages:   messages,
		media:      mediaService,
		events:     events,
	}
}

func (h *WhatsAppHandler) log(c echo.Context, tenantID string) *slog.Logger {
	return logger.WithTenant(logger.FromContext(c.Request().Context()), tenantID).
		With(slog.String("handler", "whatsapp"))
}

// Register mounts the /whatsapp routes.
func (h *WhatsAppHandler) Register(e *echo.Echo) {
	g := e.Group("/whatsapp")
	g.GET("/qrcode", h.QRCode)
	g.GET("/status", h.Status)
	g.POST("/send", h.Send, h.sendMiddleware()...)
	g.GET("/messages", h.ListMessages)
	g.POST("/disconnect", h.Disconnect)
	g.GET("/events", h.StreamEvents)
}

// sendMiddleware caps the /send body at the media size limit.
func (h *WhatsAppHandler) sendMiddleware() []echo.MiddlewareFunc {
	if h.media == nil || h.media.MaxBytes() <= 0 {
		return nil
	}
	kib := (h.media.MaxBytes() + multipartSlack + 1023) / 1024
	return []echo.MiddlewareFunc{middleware.BodyLimit(fmt.Sprintf("%dK", kib))}
}

// QRCode godoc
// @Summary Start or join pairing and return the QR code
// @Tags whatsapp
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 408 {object} WhatsAppErrorResponse
// @Failure 500 {object} WhatsAppErrorResponse
// @Router /whatsapp/qrcode [get]
func (h *WhatsAppHandler) QRCode(c echo.Context) error {
	tenantID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	res, err := h.sessions.RequestPairing(c.Request().Context(), tenantID)
	if err != nil {
		return h.pairingError(c, tenantID, err)
	}
	if res.Kind == session.PairingConnected {
		return c.JSON(http.StatusOK, MessageResponse{Message: "WhatsApp is already connected"})
	}
	return c.JSON(http.StatusOK, map[string]string{"qrImageUrl": res.QRImageURL})
}

func (h *WhatsAppHandler) pairingError(c echo.Context, tenantID string, err error) error {
	h.log(c, tenantID).Warn("pairing failed", slog.Any("error", err))
	switch {
	case errors.Is(err, session.ErrPairingTimeout):
		return c.JSON(http.StatusRequestTimeout, WhatsAppErrorResponse{Error: "Timeout while waiting for QR code"})
	case errors.Is(err, session.ErrPairingArtifact):
		return c.JSON(http.StatusInternalServerError, WhatsAppErrorResponse{Error: "Failed to generate QR code"})
	case errors.Is(err, session.ErrTransportInit), errors.Is(err, session.ErrAuthentication):
		return c.JSON(http.StatusInternalServerError, WhatsAppErrorResponse{Error: "Failed to initialize WhatsApp client", Details: err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusRequestTimeout, WhatsAppErrorResponse{Error: "Timeout while waiting for QR code"})
	default:
		return c.JSON(http.StatusInternalServerError, WhatsAppErrorResponse{Error: "Internal server error", Details: err.Error()})
	}
}

// Status godoc
// @Summary Report the tenant's WhatsApp connection status
// @Tags whatsapp
// @Produce json
// @Success 200 {object} session.StatusReport
// @Failure 500 {object} WhatsAppErrorResponse
// @Router /whatsapp/status [get]
func (h *WhatsAppHandler) Status(c echo.Context) error {
	tenantID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	report, err := h.sessions.Status(c.Request().Context(), tenantID)
	if err != nil {
		h.log(c, tenantID).Error("status query failed", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, WhatsAppErrorResponse{Error: "Internal server error", Details: err.Error()})
	}
	return c.JSON(http.StatusOK, report)
}

// SendResponse is the body returned by /whatsapp/send.
type SendResponse struct {
	Results []broadcast.Outcome `json:"results"`
	Summary broadcast.Summary   `json:"summary"`
}

// Send godoc
// @Summary Broadcast a message to every user of the caller's company
// @Tags whatsapp
// @Accept multipart/form-data
// @Produce json
// @Param messageType formData string true "text, image, video, document or audio"
// @Param content formData string false "Text or caption"
// @Param file formData file false "Media file"
// @Success 200 {object} SendResponse
// @Failure 400 {object} WhatsAppErrorResponse
// @Failure 500 {object} WhatsAppErrorResponse
// @Router /whatsapp/send [post]
func (h *WhatsAppHandler) Send(c echo.Context) error {
	tenantID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	companyID, err := auth.CompanyIDFromContext(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	sess, err := h.sessions.ReadySession(tenantID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, WhatsAppErrorResponse{Error: "WhatsApp is not initialized or not ready"})
	}
	users, err := h.recipients.ListByCompany(ctx, companyID)
	if err != nil {
		h.log(c, tenantID).Error("list recipients failed", slog.String("company_id", companyID), slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, WhatsAppErrorResponse{Error: "Internal server error", Details: err.Error()})
	}

	req := broadcast.Request{
		TenantID:  tenantID,
		CompanyID: companyID,
		Kind:      broadcast.MessageKind(strings.ToLower(strings.TrimSpace(c.FormValue("messageType")))),
		Content:   c.FormValue("content"),
	}
	var staged *media.Asset
	if req.Kind.Valid() && req.Kind != broadcast.KindText && len(users) > 0 {
		m, asset, err := h.loadMedia(c, tenantID)
		if err != nil {
			h.log(c, tenantID).Warn("load media failed", slog.Any("error", err))
			return c.JSON(http.StatusBadRequest, WhatsAppErrorResponse{Error: "Failed to load media", Details: err.Error()})
		}
		req.Media, staged = m, asset
	}

	outcomes, err := h.dispatcher.Broadcast(ctx, sess, req, users)
	if err != nil {
		h.discardMedia(c, tenantID, staged)
		return c.JSON(broadcastStatus(err), WhatsAppErrorResponse{Error: broadcastMessage(err)})
	}
	return c.JSON(http.StatusOK, SendResponse{Results: outcomes, Summary: broadcast.Summarize(outcomes)})
}

// loadMedia stages the optional multipart file and reads it back. A missing
// file yields nil so the dispatcher reports it.
func (h *WhatsAppHandler) loadMedia(c echo.Context, tenantID string) (*broadcast.Media, *media.Asset, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if h.media == nil {
		return nil, nil, media.ErrProviderUnavailable
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	ctx := c.Request().Context()
	asset, err := h.media.Stage(ctx, media.StageInput{
		TenantID: tenantID,
		Filename: fh.Filename,
		Mime:     fh.Header.Get(echo.HeaderContentType),
		Reader:   f,
	})
	if err != nil {
		return nil, nil, err
	}
	loaded, err := h.media.Load(ctx, asset)
	if err != nil {
		h.discardMedia(c, tenantID, &asset)
		return nil, nil, err
	}
	return &broadcast.Media{Media: loaded, Ref: h.media.AccessPath(asset)}, &asset, nil
}

// discardMedia removes a staged file that no message log entry refers to.
func (h *WhatsAppHandler) discardMedia(c echo.Context, tenantID string, asset *media.Asset) {
	if asset == nil || h.media == nil {
		return
	}
	if err := h.media.Discard(c.Request().Context(), *asset); err != nil {
		h.log(c, tenantID).Warn("discard staged media failed", slog.Any("error", err))
	}
}

func broadcastStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotReady),
		errors.Is(err, broadcast.ErrInvalidMessageKind),
		errors.Is(err, broadcast.ErrNoRecipients),
		errors.Is(err, broadcast.ErrMissingMedia):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func broadcastMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrSessionNotReady):
		return "WhatsApp is not initialized or not ready"
	case errors.Is(err, broadcast.ErrInvalidMessageKind):
		return "Invalid message type"
	case errors.Is(err, broadcast.ErrNoRecipients):
		return "No users found to send messages to"
	case errors.Is(err, broadcast.ErrMissingMedia):
		return "Media file is required for this message type"
	default:
		return "Internal server error"
	}
}

// ListMessagesResponse is the body returned by /whatsapp/messages.
type ListMessagesResponse struct {
	Success bool               `json:"success"`
	Data    []messagepkg.Entry `json:"data"`
}

// ListMessages godoc
// @Summary List the company's message log (oldest first, at most 100)
// @Tags whatsapp
// @Produce json
// @Success 200 {object} ListMessagesResponse
// @Failure 500 {object} WhatsAppErrorResponse
// @Router /whatsapp/messages [get]
func (h *WhatsAppHandler) ListMessages(c echo.Context) error {
	tenantID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	companyID, err := auth.CompanyIDFromContext(c)
	if err != nil {
		return err
	}
	items, err := h.messages.ListByCompany(c.Request().Context(), companyID, messagepkg.DefaultListLimit)
	if err != nil {
		h.log(c, tenantID).Error("list messages failed", slog.String("company_id", companyID), slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Failed to fetch previous messages",
			"details": err.Error(),
		})
	}
	if items == nil {
		items = []messagepkg.Entry{}
	}
	return c.JSON(http.StatusOK, ListMessagesResponse{Success: true, Data: items})
}

// Disconnect godoc
// @Summary Log out and tear down the tenant's WhatsApp session
// @Tags whatsapp
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 400 {object} MessageResponse
// @Failure 500 {object} WhatsAppErrorResponse
// @Router /whatsapp/disconnect [post]
func (h *WhatsAppHandler) Disconnect(c echo.Context) error {
	tenantID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	if err := h.sessions.Disconnect(c.Request().Context(), tenantID); err != nil {
		if errors.Is(err, session.ErrNoActiveSession) {
			return c.JSON(http.StatusBadRequest, MessageResponse{Message: "No active WhatsApp connection"})
		}
		h.log(c, tenantID).Error("disconnect failed", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, WhatsAppErrorResponse{Error: "Failed to disconnect WhatsApp", Details: err.Error()})
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "WhatsApp disconnected successfully"})
}

// StreamEvents godoc
// @Summary Stream the tenant's session lifecycle events (SSE)
// @Tags whatsapp
// @Produce text/event-stream
// @Success 200 {string} string
// @Failure 500 {object} ErrorResponse
// @Router /whatsapp/events [get]
func (h *WhatsAppHandler) StreamEvents(c echo.Context) error {
	tenantID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	if h.events == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "session events not configured")
	}

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming not supported")
	}
	stream, cancel := h.events.Subscribe(tenantID, 32)
	defer cancel()

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().WriteHeader(http.StatusOK)
	flusher.Flush()
	writer := bufio.NewWriter(c.Response().Writer)

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case <-heartbeat.C:
			if err := writeSSEJSON(writer, flusher, map[string]any{"type": "ping"}); err != nil {
				return nil
			}
		case ev, ok := <-stream:
			if !ok {
				return nil
			}
			if ev.TenantID != tenantID {
				continue
			}
			if err := writeSSEJSON(writer, flusher, ev); err != nil {
				return nil
			}
		}
	}
}
