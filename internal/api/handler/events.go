package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dalessandro07/bancopoly/internal/api/middleware"
	"github.com/dalessandro07/bancopoly/internal/ledger"
	"github.com/dalessandro07/bancopoly/internal/model"
	"github.com/dalessandro07/bancopoly/internal/web/sse"
)

// EventsHandler streams board events over SSE
type EventsHandler struct {
	engine *ledger.Engine
	bridge *sse.Bridge
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(engine *ledger.Engine, bridge *sse.Bridge) *EventsHandler {
	return &EventsHandler{
		engine: engine,
		bridge: bridge,
	}
}

// Stream handles GET /boards/{id}/events
// The connection stays open until the client disconnects
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	boardID := model.BoardID(mux.Vars(r)["id"])

	// The board must exist before a stream is opened for it
	if _, err := h.engine.GetSnapshot(r.Context(), user, boardID); err != nil {
		WriteError(w, err)
		return
	}

	hub, err := h.bridge.Attach(boardID)
	if err != nil {
		WriteError(w, NewInternalError())
		return
	}
	defer h.bridge.Detach(boardID)

	client := sse.NewClient(user.ID)
	client.ServeSSE(w, r, hub)
}
