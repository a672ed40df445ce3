package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dalessandro07/bancopoly/internal/api/middleware"
	"github.com/dalessandro07/bancopoly/internal/api/request"
	"github.com/dalessandro07/bancopoly/internal/api/response"
	"github.com/dalessandro07/bancopoly/internal/ledger"
	"github.com/dalessandro07/bancopoly/internal/model"
)

// BoardHandler handles board-related endpoints
type BoardHandler struct {
	engine *ledger.Engine
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(engine *ledger.Engine) *BoardHandler {
	return &BoardHandler{
		engine: engine,
	}
}

// Create handles POST /api/v1/boards
func (h *BoardHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	var req request.CreateBoardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	board, player, err := h.engine.CreateBoard(r.Context(), user, req.Name)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.CreateBoardResponse{
		Board:  response.BoardFromModel(board),
		Player: response.PlayerFromModel(player),
	})
}

// List handles GET /api/v1/boards
// Returns the boards the caller participates in
func (h *BoardHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	boards, err := h.engine.ListBoards(r.Context(), user)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.BoardListFromModel(boards))
}

// Get handles GET /api/v1/boards/{id}
// Returns the board with its players and recent transactions
func (h *BoardHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	boardID := model.BoardID(mux.Vars(r)["id"])

	snapshot, err := h.engine.GetSnapshot(r.Context(), user, boardID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SnapshotFromModel(snapshot))
}

// Join handles POST /api/v1/boards/{id}/join
func (h *BoardHandler) Join(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	boardID := model.BoardID(mux.Vars(r)["id"])

	var req request.JoinBoardRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, NewInvalidRequestError("invalid request body"))
			return
		}
	}

	player, err := h.engine.Join(r.Context(), user, boardID, req.DisplayName)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.PlayerFromModel(player))
}

// Leave handles POST /api/v1/boards/{id}/leave
func (h *BoardHandler) Leave(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	boardID := model.BoardID(mux.Vars(r)["id"])

	if err := h.engine.Leave(r.Context(), user, boardID); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Close handles POST /api/v1/boards/{id}/close
func (h *BoardHandler) Close(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	boardID := model.BoardID(mux.Vars(r)["id"])

	board, err := h.engine.CloseBoard(r.Context(), user, boardID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.BoardFromModel(board))
}

// Delete handles DELETE /api/v1/boards/{id}
func (h *BoardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	boardID := model.BoardID(mux.Vars(r)["id"])

	if err := h.engine.DeleteBoard(r.Context(), user, boardID); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// RemovePlayer handles DELETE /api/v1/boards/{id}/players/{player_id}
func (h *BoardHandler) RemovePlayer(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	vars := mux.Vars(r)
	boardID := model.BoardID(vars["id"])
	playerID := model.PlayerID(vars["player_id"])

	if err := h.engine.RemovePlayer(r.Context(), user, boardID, playerID); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
