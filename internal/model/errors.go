package model

import "errors"

// Common errors used across the application
var (
	// Identity errors
	ErrUnauthenticated = errors.New("not authenticated")
	ErrUnauthorized    = errors.New("not authorized")

	// Board errors
	ErrBoardNotFound = errors.New("board not found")
	ErrBoardEnded    = errors.New("board has already ended")

	// Player errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrWrongBoard     = errors.New("player does not belong to this board")
	ErrAlreadyJoined  = errors.New("user already has a player on this board")
	ErrSystemPlayer   = errors.New("system players cannot be removed")

	// Transaction errors
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrTransactionExists   = errors.New("transaction already applied for this key")

	// Transfer errors
	ErrInvalidAmount     = errors.New("amount must be a positive integer")
	ErrSelfTransfer      = errors.New("cannot transfer to the same player")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// Input errors
	ErrEmptyName = errors.New("name must not be empty")
)
