package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/memohai/wagate/internal/session"
	"github.com/memohai/wagate/internal/version"
)

// PingHandler serves /ping and HEAD /health for liveness.
type PingHandler struct {
	sessions *session.Manager
	logger   *slog.Logger
}

// NewPingHandler creates a ping handler. sessions may be nil.
func NewPingHandler(log *slog.Logger, sessions *session.Manager) *PingHandler {
	return &PingHandler{
		sessions: sessions,
		logger:   log.With(slog.String("handler", "ping")),
	}
}

// Register mounts GET /ping and HEAD /health on the Echo instance.
func (h *PingHandler) Register(e *echo.Echo) {
	e.GET("/ping", h.Ping)
	e.HEAD("/health", h.PingHead)
}

// Ping returns 200 JSON with the build version and live session count.
func (h *PingHandler) Ping(c echo.Context) error {
	body := map[string]any{
		"status":  "ok",
		"version": version.GetInfo(),
	}
	if h.sessions != nil {
		body["sessions"] = h.sessions.Registry().Len()
	}
	return c.JSON(http.StatusOK, body)
}

// PingHead returns 200 No Content for health checks.
func (h *PingHandler) PingHead(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}
