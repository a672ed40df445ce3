package request

// CreateGuestRequest is the request body for creating a guest user
type CreateGuestRequest struct {
	DisplayName string `json:"display_name"`
}

// RegisterRequest is the request body for registering a user
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateBoardRequest is the request body for creating a board
type CreateBoardRequest struct {
	Name string `json:"name"`
}

// JoinBoardRequest is the request body for joining a board
type JoinBoardRequest struct {
	DisplayName string `json:"display_name,omitempty"`
}

// TransferRequest is the request body for moving money between players
type TransferRequest struct {
	FromPlayerID   string `json:"from_player_id"`
	ToPlayerID     string `json:"to_player_id"`
	Amount         int64  `json:"amount"`
	Description    string `json:"description,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}
