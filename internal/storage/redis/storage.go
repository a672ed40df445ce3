package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dalessandro07/bancopoly/internal/model"
	"github.com/dalessandro07/bancopoly/internal/storage"
)

// Storage is a Redis-backed implementation of the store interface.
// ApplyTransfer relies on WATCH/MULTI optimistic transactions for the
// balance read-modify-write; there are no in-process locks.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.TransferRetries <= 0 {
		cfg.TransferRetries = DefaultConfig().TransferRetries
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// Board operations

func (s *Storage) CreateBoard(ctx context.Context, board *model.Board, players []*model.Player) error {
	boardData, err := json.Marshal(board)
	if err != nil {
		return err
	}

	// MULTI/EXEC applies the board plus its initial players as one unit
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, boardKey(board.ID), boardData, 0)
	for _, p := range players {
		data, err := json.Marshal(p)
		if err != nil {
			return err
		}
		pipe.Set(ctx, playerKey(p.ID), data, 0)
		pipe.SAdd(ctx, playersForBoardIndexKey(board.ID), playerKey(p.ID))
		if p.UserID != nil {
			pipe.Set(ctx, userIndexKey(board.ID, *p.UserID), string(p.ID), 0)
			pipe.SAdd(ctx, boardsForUserIndexKey(*p.UserID), string(board.ID))
		}
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetBoard(ctx context.Context, id model.BoardID) (*model.Board, error) {
	data, err := s.client.Get(ctx, boardKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrBoardNotFound
		}
		return nil, err
	}

	var board model.Board
	if err := json.Unmarshal(data, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

func (s *Storage) BoardExists(ctx context.Context, id model.BoardID) (bool, error) {
	exists, err := s.client.Exists(ctx, boardKey(id)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (s *Storage) EndBoard(ctx context.Context, id model.BoardID) (*model.Board, error) {
	var ended *model.Board

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, boardKey(id)).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrBoardNotFound
			}
			return err
		}

		var board model.Board
		if err := json.Unmarshal(data, &board); err != nil {
			return err
		}
		if board.IsEnded {
			return model.ErrBoardEnded
		}
		board.IsEnded = true

		updated, err := json.Marshal(&board)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, boardKey(id), updated, 0)
			return nil
		})
		if err != nil {
			return err
		}
		ended = &board
		return nil
	}

	if err := s.watchWithRetry(ctx, txf, boardKey(id)); err != nil {
		return nil, err
	}
	return ended, nil
}

func (s *Storage) DeleteBoard(ctx context.Context, id model.BoardID) error {
	exists, err := s.BoardExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrBoardNotFound
	}

	indexKey := playersForBoardIndexKey(id)
	playerKeys, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return err
	}

	// Resolve user index keys before deleting the players
	var userKeys []string
	var userIDs []model.UserID
	if len(playerKeys) > 0 {
		values, err := s.client.MGet(ctx, playerKeys...).Result()
		if err != nil {
			return err
		}
		for _, val := range values {
			if val == nil {
				continue
			}
			var p model.Player
			if err := json.Unmarshal([]byte(val.(string)), &p); err != nil {
				continue
			}
			if p.UserID != nil {
				userKeys = append(userKeys, userIndexKey(id, *p.UserID))
				userIDs = append(userIDs, *p.UserID)
			}
		}
	}

	// Idempotency index entries share a per-board prefix
	var idemKeys []string
	iter := s.client.Scan(ctx, 0, idempotencyKey(id, "*"), 0).Iterator()
	for iter.Next(ctx) {
		idemKeys = append(idemKeys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	for _, key := range playerKeys {
		pipe.Del(ctx, key)
	}
	for _, key := range userKeys {
		pipe.Del(ctx, key)
	}
	for _, userID := range userIDs {
		pipe.SRem(ctx, boardsForUserIndexKey(userID), string(id))
	}
	for _, key := range idemKeys {
		pipe.Del(ctx, key)
	}
	pipe.Del(ctx, indexKey)
	pipe.Del(ctx, transactionsKey(id))
	pipe.Del(ctx, boardKey(id))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListBoardsForUser(ctx context.Context, userID model.UserID) ([]*model.Board, error) {
	boardIDs, err := s.client.SMembers(ctx, boardsForUserIndexKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(boardIDs) == 0 {
		return []*model.Board{}, nil
	}

	keys := make([]string, len(boardIDs))
	for i, id := range boardIDs {
		keys[i] = boardKey(model.BoardID(id))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	boards := make([]*model.Board, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue // index may briefly outlive a deleted board
		}
		var board model.Board
		if err := json.Unmarshal([]byte(val.(string)), &board); err != nil {
			continue
		}
		boards = append(boards, &board)
	}
	sortBoards(boards)
	return boards, nil
}

// Player operations

func (s *Storage) CreatePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	insert := func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, playerKey(player.ID), data, 0)
		pipe.SAdd(ctx, playersForBoardIndexKey(player.BoardID), playerKey(player.ID))
		if player.UserID != nil {
			pipe.Set(ctx, userIndexKey(player.BoardID, *player.UserID), string(player.ID), 0)
			pipe.SAdd(ctx, boardsForUserIndexKey(*player.UserID), string(player.BoardID))
		}
		return nil
	}

	if player.UserID == nil {
		pipe := s.client.TxPipeline()
		_ = insert(pipe)
		_, err = pipe.Exec(ctx)
		return err
	}

	// WATCH the (board, user) index so two concurrent joins by the same
	// user insert at most one player
	idxKey := userIndexKey(player.BoardID, *player.UserID)
	txf := func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, idxKey).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return model.ErrAlreadyJoined
		}
		_, err = tx.TxPipelined(ctx, insert)
		return err
	}
	return s.watchWithRetry(ctx, txf, idxKey)
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return s.getPlayer(ctx, s.client, id)
}

type redisGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *Storage) getPlayer(ctx context.Context, c redisGetter, id model.PlayerID) (*model.Player, error) {
	data, err := c.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) GetPlayerByUser(ctx context.Context, boardID model.BoardID, userID model.UserID) (*model.Player, error) {
	playerID, err := s.client.Get(ctx, userIndexKey(boardID, userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}
	return s.GetPlayer(ctx, model.PlayerID(playerID))
}

func (s *Storage) ListPlayers(ctx context.Context, boardID model.BoardID) ([]*model.Player, error) {
	exists, err := s.BoardExists(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrBoardNotFound
	}

	playerKeys, err := s.client.SMembers(ctx, playersForBoardIndexKey(boardID)).Result()
	if err != nil {
		return nil, err
	}
	if len(playerKeys) == 0 {
		return []*model.Player{}, nil
	}

	values, err := s.client.MGet(ctx, playerKeys...).Result()
	if err != nil {
		return nil, err
	}

	players := make([]*model.Player, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue // index may briefly outlive a deleted player
		}
		var player model.Player
		if err := json.Unmarshal([]byte(val.(string)), &player); err != nil {
			continue
		}
		players = append(players, &player)
	}
	sortPlayers(players)
	return players, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	player, err := s.GetPlayer(ctx, id)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, playerKey(id))
	pipe.SRem(ctx, playersForBoardIndexKey(player.BoardID), playerKey(id))
	if player.UserID != nil {
		pipe.Del(ctx, userIndexKey(player.BoardID, *player.UserID))
		pipe.SRem(ctx, boardsForUserIndexKey(*player.UserID), string(player.BoardID))
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Transaction operations

func (s *Storage) ApplyTransfer(ctx context.Context, fromID, toID model.PlayerID, amount int64, enforceFunds bool, txn *model.Transaction) (*model.Player, *model.Player, error) {
	var fromOut, toOut *model.Player

	txf := func(tx *redis.Tx) error {
		if txn.IdempotencyKey != "" {
			exists, err := tx.Exists(ctx, idempotencyKey(txn.BoardID, txn.IdempotencyKey)).Result()
			if err != nil {
				return err
			}
			if exists > 0 {
				return model.ErrTransactionExists
			}
		}

		from, err := s.getPlayer(ctx, tx, fromID)
		if err != nil {
			return err
		}
		to, err := s.getPlayer(ctx, tx, toID)
		if err != nil {
			return err
		}
		if enforceFunds && from.Balance < amount {
			return model.ErrInsufficientFunds
		}

		from.Balance -= amount
		to.Balance += amount
		from.UpdatedAt = txn.CreatedAt
		to.UpdatedAt = txn.CreatedAt

		fromData, err := json.Marshal(from)
		if err != nil {
			return err
		}
		toData, err := json.Marshal(to)
		if err != nil {
			return err
		}
		txnData, err := json.Marshal(txn)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, playerKey(fromID), fromData, 0)
			pipe.Set(ctx, playerKey(toID), toData, 0)
			pipe.LPush(ctx, transactionsKey(txn.BoardID), txnData)
			if txn.IdempotencyKey != "" {
				pipe.Set(ctx, idempotencyKey(txn.BoardID, txn.IdempotencyKey), txnData, 0)
			}
			return nil
		})
		if err != nil {
			return err
		}
		fromOut, toOut = from, to
		return nil
	}

	watched := []string{playerKey(fromID), playerKey(toID)}
	if txn.IdempotencyKey != "" {
		watched = append(watched, idempotencyKey(txn.BoardID, txn.IdempotencyKey))
	}
	if err := s.watchWithRetry(ctx, txf, watched...); err != nil {
		return nil, nil, err
	}
	return fromOut, toOut, nil
}

func (s *Storage) ListTransactions(ctx context.Context, boardID model.BoardID, limit int) ([]*model.Transaction, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	values, err := s.client.LRange(ctx, transactionsKey(boardID), 0, stop).Result()
	if err != nil {
		return nil, err
	}

	txns := make([]*model.Transaction, 0, len(values))
	for _, val := range values {
		var txn model.Transaction
		if err := json.Unmarshal([]byte(val), &txn); err != nil {
			continue
		}
		txns = append(txns, &txn)
	}
	return txns, nil
}

func (s *Storage) GetTransactionByKey(ctx context.Context, boardID model.BoardID, key string) (*model.Transaction, error) {
	data, err := s.client.Get(ctx, idempotencyKey(boardID, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrTransactionNotFound
		}
		return nil, err
	}

	var txn model.Transaction
	if err := json.Unmarshal(data, &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

// sortBoards orders boards by creation time, oldest first, with the id as
// a tiebreak so listings are stable.
func sortBoards(boards []*model.Board) {
	sort.Slice(boards, func(i, j int) bool {
		if boards[i].CreatedAt.Equal(boards[j].CreatedAt) {
			return boards[i].ID < boards[j].ID
		}
		return boards[i].CreatedAt.Before(boards[j].CreatedAt)
	})
}

// sortPlayers orders players by creation time, oldest first, with the id
// as a tiebreak so listings are stable.
func sortPlayers(players []*model.Player) {
	sort.Slice(players, func(i, j int) bool {
		if players[i].CreatedAt.Equal(players[j].CreatedAt) {
			return players[i].ID < players[j].ID
		}
		return players[i].CreatedAt.Before(players[j].CreatedAt)
	})
}

// watchWithRetry runs txf under WATCH on the given keys, retrying a bounded
// number of times when a concurrent write invalidates the transaction.
func (s *Storage) watchWithRetry(ctx context.Context, txf func(tx *redis.Tx) error, keys ...string) error {
	retries := s.cfg.TransferRetries
	if retries <= 0 {
		retries = DefaultConfig().TransferRetries
	}

	for i := 0; i < retries; i++ {
		err := s.client.Watch(ctx, txf, keys...)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("transaction contention on %v: %w", keys, redis.TxFailedErr)
}
