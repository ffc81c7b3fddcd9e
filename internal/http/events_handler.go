package http

import (
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ai-spm/internal/notify"
	"ai-spm/internal/service"
)

// EventsHandler emite cambios de sesion y avisos como server-sent events.
type EventsHandler struct {
	logger   *zap.Logger
	sessions *service.SessionManager
	hub      *notify.Hub
}

func NewEventsHandler(logger *zap.Logger, sessions *service.SessionManager, hub *notify.Hub) *EventsHandler {
	return &EventsHandler{
		logger:   logger,
		sessions: sessions,
		hub:      hub,
	}
}

// Stream maneja GET /session/events.
func (h *EventsHandler) Stream(c *gin.Context) {
	snapshots, unsubscribe := h.sessions.Subscribe()
	defer unsubscribe()
	notifications, stop := h.hub.Subscribe()
	defer stop()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	done := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-done:
			return false
		case snap, ok := <-snapshots:
			if !ok {
				return false
			}
			c.SSEvent("session", snap)
		case n, ok := <-notifications:
			if !ok {
				return false
			}
			c.SSEvent("notification", n)
		}
		return true
	})
	h.logger.Debug("session event stream closed", zap.String("client_ip", c.ClientIP()))
}
