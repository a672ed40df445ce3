package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dalessandro07/bancopoly/internal/model"
	"github.com/dalessandro07/bancopoly/internal/storage"
)

// Storage is an in-memory implementation of the store interface. A single
// mutex serializes mutations, which gives ApplyTransfer its atomicity.
type Storage struct {
	mu sync.RWMutex

	boards       map[model.BoardID]*model.Board
	players      map[model.PlayerID]*model.Player
	boardPlayers map[model.BoardID]map[model.PlayerID]struct{}
	userIndex    map[model.BoardID]map[model.UserID]model.PlayerID
	transactions map[model.BoardID][]*model.Transaction
	idemIndex    map[model.BoardID]map[string]*model.Transaction
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		boards:       make(map[model.BoardID]*model.Board),
		players:      make(map[model.PlayerID]*model.Player),
		boardPlayers: make(map[model.BoardID]map[model.PlayerID]struct{}),
		userIndex:    make(map[model.BoardID]map[model.UserID]model.PlayerID),
		transactions: make(map[model.BoardID][]*model.Transaction),
		idemIndex:    make(map[model.BoardID]map[string]*model.Transaction),
	}
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// Board operations

func (s *Storage) CreateBoard(ctx context.Context, board *model.Board, players []*model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := *board
	s.boards[board.ID] = &b
	s.boardPlayers[board.ID] = make(map[model.PlayerID]struct{})
	s.userIndex[board.ID] = make(map[model.UserID]model.PlayerID)
	for _, p := range players {
		s.savePlayerLocked(p)
	}
	return nil
}

func (s *Storage) GetBoard(ctx context.Context, id model.BoardID) (*model.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	board, ok := s.boards[id]
	if !ok {
		return nil, model.ErrBoardNotFound
	}
	b := *board
	return &b, nil
}

func (s *Storage) BoardExists(ctx context.Context, id model.BoardID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.boards[id]
	return ok, nil
}

func (s *Storage) EndBoard(ctx context.Context, id model.BoardID) (*model.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	board, ok := s.boards[id]
	if !ok {
		return nil, model.ErrBoardNotFound
	}
	if board.IsEnded {
		return nil, model.ErrBoardEnded
	}
	board.IsEnded = true
	b := *board
	return &b, nil
}

func (s *Storage) DeleteBoard(ctx context.Context, id model.BoardID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.boards[id]; !ok {
		return model.ErrBoardNotFound
	}
	for playerID := range s.boardPlayers[id] {
		delete(s.players, playerID)
	}
	delete(s.boardPlayers, id)
	delete(s.userIndex, id)
	delete(s.transactions, id)
	delete(s.idemIndex, id)
	delete(s.boards, id)
	return nil
}

func (s *Storage) ListBoardsForUser(ctx context.Context, userID model.UserID) ([]*model.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var boards []*model.Board
	for boardID, users := range s.userIndex {
		if _, ok := users[userID]; !ok {
			continue
		}
		if board, ok := s.boards[boardID]; ok {
			b := *board
			boards = append(boards, &b)
		}
	}
	sort.Slice(boards, func(i, j int) bool {
		if boards[i].CreatedAt.Equal(boards[j].CreatedAt) {
			return boards[i].ID < boards[j].ID
		}
		return boards[i].CreatedAt.Before(boards[j].CreatedAt)
	})
	return boards, nil
}

// Player operations

func (s *Storage) CreatePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if player.UserID != nil {
		if _, ok := s.userIndex[player.BoardID][*player.UserID]; ok {
			return model.ErrAlreadyJoined
		}
	}
	s.savePlayerLocked(player)
	return nil
}

func (s *Storage) savePlayerLocked(player *model.Player) {
	p := *player
	s.players[p.ID] = &p
	if s.boardPlayers[p.BoardID] == nil {
		s.boardPlayers[p.BoardID] = make(map[model.PlayerID]struct{})
	}
	s.boardPlayers[p.BoardID][p.ID] = struct{}{}
	if p.UserID != nil {
		if s.userIndex[p.BoardID] == nil {
			s.userIndex[p.BoardID] = make(map[model.UserID]model.PlayerID)
		}
		s.userIndex[p.BoardID][*p.UserID] = p.ID
	}
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *player
	return &p, nil
}

func (s *Storage) GetPlayerByUser(ctx context.Context, boardID model.BoardID, userID model.UserID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	playerID, ok := s.userIndex[boardID][userID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	player, ok := s.players[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *player
	return &p, nil
}

func (s *Storage) ListPlayers(ctx context.Context, boardID model.BoardID) ([]*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.boards[boardID]; !ok {
		return nil, model.ErrBoardNotFound
	}

	players := make([]*model.Player, 0, len(s.boardPlayers[boardID]))
	for playerID := range s.boardPlayers[boardID] {
		if player, ok := s.players[playerID]; ok {
			p := *player
			players = append(players, &p)
		}
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].CreatedAt.Equal(players[j].CreatedAt) {
			return players[i].ID < players[j].ID
		}
		return players[i].CreatedAt.Before(players[j].CreatedAt)
	})
	return players, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, ok := s.players[id]
	if !ok {
		return model.ErrPlayerNotFound
	}
	delete(s.players, id)
	delete(s.boardPlayers[player.BoardID], id)
	if player.UserID != nil {
		delete(s.userIndex[player.BoardID], *player.UserID)
	}
	return nil
}

// Transaction operations

func (s *Storage) ApplyTransfer(ctx context.Context, fromID, toID model.PlayerID, amount int64, enforceFunds bool, txn *model.Transaction) (*model.Player, *model.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if txn.IdempotencyKey != "" {
		if _, ok := s.idemIndex[txn.BoardID][txn.IdempotencyKey]; ok {
			return nil, nil, model.ErrTransactionExists
		}
	}

	from, ok := s.players[fromID]
	if !ok {
		return nil, nil, model.ErrPlayerNotFound
	}
	to, ok := s.players[toID]
	if !ok {
		return nil, nil, model.ErrPlayerNotFound
	}
	if enforceFunds && from.Balance < amount {
		return nil, nil, model.ErrInsufficientFunds
	}

	from.Balance -= amount
	to.Balance += amount
	from.UpdatedAt = txn.CreatedAt
	to.UpdatedAt = txn.CreatedAt

	t := *txn
	s.transactions[t.BoardID] = append(s.transactions[t.BoardID], &t)
	if t.IdempotencyKey != "" {
		if s.idemIndex[t.BoardID] == nil {
			s.idemIndex[t.BoardID] = make(map[string]*model.Transaction)
		}
		s.idemIndex[t.BoardID][t.IdempotencyKey] = &t
	}

	fromCopy := *from
	toCopy := *to
	return &fromCopy, &toCopy, nil
}

func (s *Storage) ListTransactions(ctx context.Context, boardID model.BoardID, limit int) ([]*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.transactions[boardID]
	count := len(stored)
	if limit > 0 && limit < count {
		count = limit
	}

	// Stored oldest-first; returned newest-first.
	result := make([]*model.Transaction, 0, count)
	for i := len(stored) - 1; i >= 0 && len(result) < count; i-- {
		t := *stored[i]
		result = append(result, &t)
	}
	return result, nil
}

func (s *Storage) GetTransactionByKey(ctx context.Context, boardID model.BoardID, key string) (*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txn, ok := s.idemIndex[boardID][key]
	if !ok {
		return nil, model.ErrTransactionNotFound
	}
	t := *txn
	return &t, nil
}
