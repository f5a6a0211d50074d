package handler

import (
	"io"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"riseup/internal/service"
)

// StreamHandler serves the donation status event stream.
type StreamHandler struct {
	streamer *service.StatusStreamer
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(streamer *service.StatusStreamer) *StreamHandler {
	return &StreamHandler{streamer: streamer}
}

// StreamStatus handles GET /v1/donations/:id/stream
//
// The response is a server-sent event stream with named events "status",
// "heartbeat", "error" and "end". The optional timeout query parameter is
// in seconds and gets clamped to the configured bounds.
func (h *StreamHandler) StreamStatus(c *gin.Context) {
	donationID := c.Param("id")

	var requested time.Duration
	if raw := c.Query("timeout"); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil {
			requested = time.Duration(seconds) * time.Second
		}
	}
	timeout := h.streamer.ClampTimeout(requested)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	// Client disconnect cancels the request context, which stops the
	// streaming goroutine.
	events := h.streamer.Stream(c.Request.Context(), donationID, timeout)

	c.Stream(func(w io.Writer) bool {
		event, ok := <-events
		if !ok {
			return false
		}
		c.SSEvent(event.Name, event.Data)
		return true
	})
}
