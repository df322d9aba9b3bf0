package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cuongbtq/gigflow-be/internal/notify"
)

const defaultKeepalive = 25 * time.Second

// NotificationHandler serves live notification channels
type NotificationHandler struct {
	logger     *slog.Logger
	registry   *notify.Registry
	bufferSize int
	keepalive  time.Duration
}

// NewNotificationHandler creates a new NotificationHandler instance
func NewNotificationHandler(deps *Dependencies) *NotificationHandler {
	keepalive := deps.Keepalive
	if keepalive <= 0 {
		keepalive = defaultKeepalive
	}
	return &NotificationHandler{
		logger:     deps.Logger,
		registry:   deps.Bus.Registry(),
		bufferSize: deps.BufferSize,
		keepalive:  keepalive,
	}
}

// Stream handles GET /api/v1/notifications/stream
// The connection joins the caller's channel set until the client goes away
func (h *NotificationHandler) Stream(c *gin.Context) {
	caller, _ := CallerFrom(c)

	ch := notify.NewStreamChannel(h.bufferSize)
	defer ch.Close()
	h.registry.Register(caller.ID, ch)
	defer h.registry.Unregister(ch)

	logger := h.logger.With(
		slog.String("channel_id", ch.ID()),
		slog.String("identity", caller.ID),
	)
	logger.Info("Notification channel opened",
		slog.Int("live_channels", h.registry.Count()),
	)

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	if err := notify.WriteJoined(c.Writer, ch.ID(), caller.ID); err != nil {
		logger.Warn("Failed to write joined frame", slog.Any("error", err))
		return
	}
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Notification channel closed")
			return

		case event, ok := <-ch.Events():
			if !ok {
				return
			}
			if err := notify.WriteEvent(c.Writer, uuid.NewString(), event); err != nil {
				logger.Warn("Failed to write notification", slog.Any("error", err))
				return
			}
			c.Writer.Flush()

		case now := <-ticker.C:
			if err := notify.WritePing(c.Writer, now); err != nil {
				logger.Debug("Keepalive failed", slog.Any("error", err))
				return
			}
			c.Writer.Flush()
		}
	}
}
