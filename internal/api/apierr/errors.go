package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalessandro07/bancopoly/internal/model"
	"github.com/dalessandro07/bancopoly/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeUnauthenticated     = "UNAUTHENTICATED"
	CodeForbidden           = "FORBIDDEN"
	CodeBoardNotFound       = "BOARD_NOT_FOUND"
	CodePlayerNotFound      = "PLAYER_NOT_FOUND"
	CodeTransactionNotFound = "TRANSACTION_NOT_FOUND"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeSelfTransfer        = "SELF_TRANSFER"
	CodeEmptyName           = "EMPTY_NAME"
	CodeInsufficientFunds   = "INSUFFICIENT_FUNDS"
	CodeBoardEnded          = "BOARD_ENDED"
	CodeAlreadyJoined       = "ALREADY_JOINED"
	CodeSystemPlayer        = "SYSTEM_PLAYER"
	CodeUsernameExists      = "USERNAME_EXISTS"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrUnauthenticated):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthenticated, "Authentication required"}}
	case errors.Is(err, model.ErrUnauthorized):
		return &httpError{http.StatusForbidden, APIError{CodeForbidden, err.Error()}}
	case errors.Is(err, model.ErrBoardNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeBoardNotFound, "Board not found"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrWrongBoard):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player is not on this board"}}
	case errors.Is(err, model.ErrTransactionNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeTransactionNotFound, "Transaction not found"}}
	case errors.Is(err, model.ErrInvalidAmount):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidAmount, "Amount must be a positive integer"}}
	case errors.Is(err, model.ErrSelfTransfer):
		return &httpError{http.StatusBadRequest, APIError{CodeSelfTransfer, "Sender and receiver must differ"}}
	case errors.Is(err, model.ErrEmptyName):
		return &httpError{http.StatusBadRequest, APIError{CodeEmptyName, "A name is required"}}
	case errors.Is(err, model.ErrInsufficientFunds):
		return &httpError{http.StatusUnprocessableEntity, APIError{CodeInsufficientFunds, "Insufficient funds"}}
	case errors.Is(err, model.ErrBoardEnded):
		return &httpError{http.StatusConflict, APIError{CodeBoardEnded, "Board has already ended"}}
	case errors.Is(err, model.ErrAlreadyJoined):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyJoined, "Already playing on this board"}}
	case errors.Is(err, model.ErrSystemPlayer):
		return &httpError{http.StatusConflict, APIError{CodeSystemPlayer, "System accounts cannot be removed"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthenticated, "Invalid or expired session"}}
	case errors.Is(err, auth.ErrUsernameExists):
		return &httpError{http.StatusConflict, APIError{CodeUsernameExists, "Username already exists"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthenticatedError creates an unauthenticated error
func NewUnauthenticatedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthenticated, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
