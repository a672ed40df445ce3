package sse

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dalessandro07/bancopoly/internal/model"
)

const (
	// Buffer size for client send channel
	clientBufferSize = 256
	// Keepalive interval to prevent connection timeout
	keepaliveInterval = 30 * time.Second
)

// Client represents a single SSE connection
type Client struct {
	userID      model.UserID
	send        chan []byte
	connectedAt time.Time
}

// NewClient creates a new SSE client
func NewClient(userID model.UserID) *Client {
	return &Client{
		userID:      userID,
		send:        make(chan []byte, clientBufferSize),
		connectedAt: time.Now(),
	}
}

// ServeSSE handles the SSE connection for a client
// This should be called from an HTTP handler
func (c *Client) ServeSSE(w http.ResponseWriter, r *http.Request, hub *Hub) {
	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	hub.Register(c)
	defer hub.Unregister(c)

	// Send initial connection event
	fmt.Fprintf(w, "event: connected\ndata: {\"board_id\": %q}\n\n", hub.boardID)
	flusher.Flush()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return

		case message, ok := <-c.send:
			if !ok {
				return
			}
			if _, err := w.Write(message); err != nil {
				slog.Warn("sse write failed",
					slog.String("user_id", string(c.userID)),
					slog.String("error", err.Error()))
				return
			}
			flusher.Flush()

		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
