package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/dalessandro07/bancopoly/internal/api/middleware"
	"github.com/dalessandro07/bancopoly/internal/api/request"
	"github.com/dalessandro07/bancopoly/internal/api/response"
	"github.com/dalessandro07/bancopoly/internal/ledger"
	"github.com/dalessandro07/bancopoly/internal/model"
)

// TransferHandler handles money movement endpoints
type TransferHandler struct {
	engine *ledger.Engine
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(engine *ledger.Engine) *TransferHandler {
	return &TransferHandler{
		engine: engine,
	}
}

// Create handles POST /api/v1/boards/{id}/transfers
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	boardID := model.BoardID(mux.Vars(r)["id"])

	var req request.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.FromPlayerID == "" {
		WriteError(w, NewInvalidRequestError("from_player_id is required"))
		return
	}
	if req.ToPlayerID == "" {
		WriteError(w, NewInvalidRequestError("to_player_id is required"))
		return
	}

	txn, err := h.engine.Transfer(r.Context(), user, ledger.TransferRequest{
		BoardID:        boardID,
		FromPlayerID:   model.PlayerID(req.FromPlayerID),
		ToPlayerID:     model.PlayerID(req.ToPlayerID),
		Amount:         req.Amount,
		Description:    req.Description,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.TransactionFromModel(txn))
}

// List handles GET /api/v1/boards/{id}/transactions
// Accepts an optional ?limit= query parameter
func (h *TransferHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	boardID := model.BoardID(mux.Vars(r)["id"])

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			WriteError(w, NewInvalidRequestError("limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	txns, err := h.engine.ListTransactions(r.Context(), user, boardID, limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TransactionListFromModel(txns))
}
