package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/dalessandro07/bancopoly/internal/model"
)

type StorageSuite struct {
	suite.Suite
	ctx     context.Context
	storage *Storage
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.ctx = context.Background()
	s.storage = New()
}

func (s *StorageSuite) baseTime() time.Time {
	return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *StorageSuite) makeBoard(id model.BoardID) *model.Board {
	return &model.Board{
		ID:        id,
		Name:      "Friday Night",
		CreatorID: "user-1",
		CreatedAt: s.baseTime(),
		UpdatedAt: s.baseTime(),
	}
}

func (s *StorageSuite) makePlayer(id model.PlayerID, boardID model.BoardID, userID model.UserID, balance int64) *model.Player {
	uid := userID
	return &model.Player{
		ID:        id,
		BoardID:   boardID,
		UserID:    &uid,
		Name:      string(id),
		Balance:   balance,
		CreatedAt: s.baseTime(),
		UpdatedAt: s.baseTime(),
	}
}

func (s *StorageSuite) makeSystemPlayer(id model.PlayerID, boardID model.BoardID, kind model.SystemPlayerType, balance int64) *model.Player {
	name := model.BankName
	if kind == model.SystemPlayerFreeParking {
		name = model.FreeParkingName
	}
	return &model.Player{
		ID:               id,
		BoardID:          boardID,
		Name:             name,
		Balance:          balance,
		IsSystemPlayer:   true,
		SystemPlayerType: kind,
		CreatedAt:        s.baseTime(),
		UpdatedAt:        s.baseTime(),
	}
}

func (s *StorageSuite) seedBoard(boardID model.BoardID) (*model.Player, *model.Player) {
	board := s.makeBoard(boardID)
	bank := s.makeSystemPlayer("p-bank", boardID, model.SystemPlayerBank, model.BankBalance)
	alice := s.makePlayer("p-alice", boardID, "user-alice", model.StartingBalance)
	s.Require().NoError(s.storage.CreateBoard(s.ctx, board, []*model.Player{bank, alice}))
	return bank, alice
}

// Board tests

func (s *StorageSuite) TestCreateAndGetBoard() {
	board := s.makeBoard("ABCDEF")
	bank := s.makeSystemPlayer("p-bank", "ABCDEF", model.SystemPlayerBank, model.BankBalance)
	alice := s.makePlayer("p-alice", "ABCDEF", "user-alice", model.StartingBalance)

	err := s.storage.CreateBoard(s.ctx, board, []*model.Player{bank, alice})
	s.Require().NoError(err)

	got, err := s.storage.GetBoard(s.ctx, "ABCDEF")
	s.Require().NoError(err)
	s.Equal(board.Name, got.Name)
	s.Equal(board.CreatorID, got.CreatorID)

	players, err := s.storage.ListPlayers(s.ctx, "ABCDEF")
	s.Require().NoError(err)
	s.Len(players, 2)
}

func (s *StorageSuite) TestGetBoardNotFound() {
	_, err := s.storage.GetBoard(s.ctx, "MISSING")
	s.ErrorIs(err, model.ErrBoardNotFound)
}

func (s *StorageSuite) TestBoardExists() {
	s.seedBoard("ABCDEF")

	exists, err := s.storage.BoardExists(s.ctx, "ABCDEF")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.storage.BoardExists(s.ctx, "MISSING")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *StorageSuite) TestGetBoardReturnsCopy() {
	s.seedBoard("ABCDEF")

	got, err := s.storage.GetBoard(s.ctx, "ABCDEF")
	s.Require().NoError(err)
	got.Name = "mutated"

	again, err := s.storage.GetBoard(s.ctx, "ABCDEF")
	s.Require().NoError(err)
	s.Equal("Friday Night", again.Name)
}

func (s *StorageSuite) TestEndBoard() {
	s.seedBoard("ABCDEF")

	ended, err := s.storage.EndBoard(s.ctx, "ABCDEF")
	s.Require().NoError(err)
	s.True(ended.IsEnded)

	got, err := s.storage.GetBoard(s.ctx, "ABCDEF")
	s.Require().NoError(err)
	s.True(got.IsEnded)
}

func (s *StorageSuite) TestEndBoardAlreadyEnded() {
	s.seedBoard("ABCDEF")

	_, err := s.storage.EndBoard(s.ctx, "ABCDEF")
	s.Require().NoError(err)

	_, err = s.storage.EndBoard(s.ctx, "ABCDEF")
	s.ErrorIs(err, model.ErrBoardEnded)
}

func (s *StorageSuite) TestEndBoardNotFound() {
	_, err := s.storage.EndBoard(s.ctx, "MISSING")
	s.ErrorIs(err, model.ErrBoardNotFound)
}

func (s *StorageSuite) TestDeleteBoardCascades() {
	bank, alice := s.seedBoard("ABCDEF")

	txn := &model.Transaction{
		ID:           "txn-1",
		BoardID:      "ABCDEF",
		FromPlayerID: &bank.ID,
		ToPlayerID:   &alice.ID,
		Amount:       100,
		Type:         model.TransactionBankGive,
		CreatedAt:    s.baseTime(),
	}
	_, _, err := s.storage.ApplyTransfer(s.ctx, bank.ID, alice.ID, 100, false, txn)
	s.Require().NoError(err)

	s.Require().NoError(s.storage.DeleteBoard(s.ctx, "ABCDEF"))

	_, err = s.storage.GetBoard(s.ctx, "ABCDEF")
	s.ErrorIs(err, model.ErrBoardNotFound)
	_, err = s.storage.GetPlayer(s.ctx, alice.ID)
	s.ErrorIs(err, model.ErrPlayerNotFound)
	_, err = s.storage.GetPlayerByUser(s.ctx, "ABCDEF", "user-alice")
	s.ErrorIs(err, model.ErrPlayerNotFound)

	txns, err := s.storage.ListTransactions(s.ctx, "ABCDEF", 0)
	s.Require().NoError(err)
	s.Empty(txns)
}

func (s *StorageSuite) TestDeleteBoardNotFound() {
	err := s.storage.DeleteBoard(s.ctx, "MISSING")
	s.ErrorIs(err, model.ErrBoardNotFound)
}

// Player tests

func (s *StorageSuite) TestCreateAndGetPlayer() {
	s.seedBoard("ABCDEF")
	bob := s.makePlayer("p-bob", "ABCDEF", "user-bob", model.StartingBalance)

	s.Require().NoError(s.storage.CreatePlayer(s.ctx, bob))

	got, err := s.storage.GetPlayer(s.ctx, "p-bob")
	s.Require().NoError(err)
	s.Equal(bob.Name, got.Name)
	s.Equal(model.StartingBalance, got.Balance)
}

func (s *StorageSuite) TestCreatePlayerDuplicateUser() {
	s.seedBoard("ABCDEF")

	again := s.makePlayer("p-alice-2", "ABCDEF", "user-alice", model.StartingBalance)
	err := s.storage.CreatePlayer(s.ctx, again)
	s.ErrorIs(err, model.ErrAlreadyJoined)

	// The losing insert left nothing behind
	_, err = s.storage.GetPlayer(s.ctx, "p-alice-2")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestCreatePlayerConcurrentSameUser() {
	s.seedBoard("ABCDEF")

	const workers = 10
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := s.makePlayer(model.PlayerID(fmt.Sprintf("p-bob-%d", i)), "ABCDEF", "user-bob", model.StartingBalance)
			results <- s.storage.CreatePlayer(s.ctx, p)
		}(i)
	}
	wg.Wait()
	close(results)

	var created int
	for err := range results {
		if err == nil {
			created++
		} else {
			s.ErrorIs(err, model.ErrAlreadyJoined)
		}
	}
	s.Equal(1, created)

	_, err := s.storage.GetPlayerByUser(s.ctx, "ABCDEF", "user-bob")
	s.Require().NoError(err)
}

func (s *StorageSuite) TestGetPlayerNotFound() {
	_, err := s.storage.GetPlayer(s.ctx, "missing")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestGetPlayerByUser() {
	_, alice := s.seedBoard("ABCDEF")

	got, err := s.storage.GetPlayerByUser(s.ctx, "ABCDEF", "user-alice")
	s.Require().NoError(err)
	s.Equal(alice.ID, got.ID)
}

func (s *StorageSuite) TestGetPlayerByUserWrongBoard() {
	s.seedBoard("ABCDEF")
	s.seedBoard2("GHIJKL")

	_, err := s.storage.GetPlayerByUser(s.ctx, "GHIJKL", "user-alice")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// seedBoard2 creates a second board with no shared users.
func (s *StorageSuite) seedBoard2(boardID model.BoardID) {
	board := s.makeBoard(boardID)
	bank := s.makeSystemPlayer(model.PlayerID("p-bank-"+string(boardID)), boardID, model.SystemPlayerBank, model.BankBalance)
	s.Require().NoError(s.storage.CreateBoard(s.ctx, board, []*model.Player{bank}))
}

func (s *StorageSuite) TestListPlayersSortedByCreation() {
	s.seedBoard("ABCDEF")

	bob := s.makePlayer("p-bob", "ABCDEF", "user-bob", model.StartingBalance)
	bob.CreatedAt = s.baseTime().Add(time.Minute)
	s.Require().NoError(s.storage.CreatePlayer(s.ctx, bob))

	carol := s.makePlayer("p-carol", "ABCDEF", "user-carol", model.StartingBalance)
	carol.CreatedAt = s.baseTime().Add(2 * time.Minute)
	s.Require().NoError(s.storage.CreatePlayer(s.ctx, carol))

	players, err := s.storage.ListPlayers(s.ctx, "ABCDEF")
	s.Require().NoError(err)
	s.Require().Len(players, 4)
	s.Equal(model.PlayerID("p-bob"), players[2].ID)
	s.Equal(model.PlayerID("p-carol"), players[3].ID)
}

func (s *StorageSuite) TestListPlayersBoardNotFound() {
	_, err := s.storage.ListPlayers(s.ctx, "MISSING")
	s.ErrorIs(err, model.ErrBoardNotFound)
}

func (s *StorageSuite) TestDeletePlayer() {
	_, alice := s.seedBoard("ABCDEF")

	s.Require().NoError(s.storage.DeletePlayer(s.ctx, alice.ID))

	_, err := s.storage.GetPlayer(s.ctx, alice.ID)
	s.ErrorIs(err, model.ErrPlayerNotFound)
	_, err = s.storage.GetPlayerByUser(s.ctx, "ABCDEF", "user-alice")
	s.ErrorIs(err, model.ErrPlayerNotFound)

	players, err := s.storage.ListPlayers(s.ctx, "ABCDEF")
	s.Require().NoError(err)
	s.Len(players, 1)
}

func (s *StorageSuite) TestDeletePlayerNotFound() {
	err := s.storage.DeletePlayer(s.ctx, "missing")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Transfer tests

func (s *StorageSuite) TestApplyTransfer() {
	s.seedBoard("ABCDEF")
	bob := s.makePlayer("p-bob", "ABCDEF", "user-bob", model.StartingBalance)
	s.Require().NoError(s.storage.CreatePlayer(s.ctx, bob))

	txnTime := s.baseTime().Add(time.Hour)
	fromID, toID := model.PlayerID("p-alice"), model.PlayerID("p-bob")
	txn := &model.Transaction{
		ID:           "txn-1",
		BoardID:      "ABCDEF",
		FromPlayerID: &fromID,
		ToPlayerID:   &toID,
		Amount:       200,
		Type:         model.TransactionTransfer,
		Description:  "rent",
		CreatedAt:    txnTime,
	}

	from, to, err := s.storage.ApplyTransfer(s.ctx, fromID, toID, 200, true, txn)
	s.Require().NoError(err)
	s.Equal(int64(1300), from.Balance)
	s.Equal(int64(1700), to.Balance)
	s.Equal(txnTime, from.UpdatedAt)
	s.Equal(txnTime, to.UpdatedAt)

	txns, err := s.storage.ListTransactions(s.ctx, "ABCDEF", 0)
	s.Require().NoError(err)
	s.Require().Len(txns, 1)
	s.Equal(model.TransactionID("txn-1"), txns[0].ID)
	s.Equal("rent", txns[0].Description)
}

func (s *StorageSuite) TestApplyTransferInsufficientFunds() {
	s.seedBoard("ABCDEF")
	bob := s.makePlayer("p-bob", "ABCDEF", "user-bob", model.StartingBalance)
	s.Require().NoError(s.storage.CreatePlayer(s.ctx, bob))

	fromID, toID := model.PlayerID("p-alice"), model.PlayerID("p-bob")
	txn := &model.Transaction{
		ID:           "txn-1",
		BoardID:      "ABCDEF",
		FromPlayerID: &fromID,
		ToPlayerID:   &toID,
		Amount:       5000,
		Type:         model.TransactionTransfer,
		CreatedAt:    s.baseTime(),
	}

	_, _, err := s.storage.ApplyTransfer(s.ctx, fromID, toID, 5000, true, txn)
	s.ErrorIs(err, model.ErrInsufficientFunds)

	// No partial write: balances unchanged, no transaction recorded.
	alice, err := s.storage.GetPlayer(s.ctx, fromID)
	s.Require().NoError(err)
	s.Equal(model.StartingBalance, alice.Balance)

	txns, err := s.storage.ListTransactions(s.ctx, "ABCDEF", 0)
	s.Require().NoError(err)
	s.Empty(txns)
}

func (s *StorageSuite) TestApplyTransferUnenforcedAllowsNegative() {
	bank, alice := s.seedBoard("ABCDEF")

	txn := &model.Transaction{
		ID:           "txn-1",
		BoardID:      "ABCDEF",
		FromPlayerID: &alice.ID,
		ToPlayerID:   &bank.ID,
		Amount:       2000,
		Type:         model.TransactionBankTake,
		CreatedAt:    s.baseTime(),
	}

	from, _, err := s.storage.ApplyTransfer(s.ctx, alice.ID, bank.ID, 2000, false, txn)
	s.Require().NoError(err)
	s.Equal(int64(-500), from.Balance)
}

func (s *StorageSuite) TestApplyTransferPlayerNotFound() {
	_, alice := s.seedBoard("ABCDEF")

	missing := model.PlayerID("missing")
	txn := &model.Transaction{
		ID:           "txn-1",
		BoardID:      "ABCDEF",
		FromPlayerID: &alice.ID,
		ToPlayerID:   &missing,
		Amount:       100,
		Type:         model.TransactionTransfer,
		CreatedAt:    s.baseTime(),
	}

	_, _, err := s.storage.ApplyTransfer(s.ctx, alice.ID, missing, 100, true, txn)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestApplyTransferDuplicateKeyAppliesOnce() {
	bank, alice := s.seedBoard("ABCDEF")

	txn := &model.Transaction{
		ID:             "txn-1",
		BoardID:        "ABCDEF",
		FromPlayerID:   &bank.ID,
		ToPlayerID:     &alice.ID,
		Amount:         100,
		Type:           model.TransactionBankGive,
		IdempotencyKey: "client-key-1",
		CreatedAt:      s.baseTime(),
	}
	_, _, err := s.storage.ApplyTransfer(s.ctx, bank.ID, alice.ID, 100, false, txn)
	s.Require().NoError(err)

	retry := *txn
	retry.ID = "txn-2"
	_, _, err = s.storage.ApplyTransfer(s.ctx, bank.ID, alice.ID, 100, false, &retry)
	s.ErrorIs(err, model.ErrTransactionExists)

	// The retry wrote nothing
	got, err := s.storage.GetPlayer(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Equal(model.StartingBalance+100, got.Balance)

	txns, err := s.storage.ListTransactions(s.ctx, "ABCDEF", 0)
	s.Require().NoError(err)
	s.Len(txns, 1)
}

func (s *StorageSuite) TestApplyTransferConcurrent() {
	_, alice := s.seedBoard("ABCDEF")
	bob := s.makePlayer("p-bob", "ABCDEF", "user-bob", model.StartingBalance)
	s.Require().NoError(s.storage.CreatePlayer(s.ctx, bob))

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			txn := &model.Transaction{
				ID:           model.TransactionID(fmt.Sprintf("txn-%d", i)),
				BoardID:      "ABCDEF",
				FromPlayerID: &alice.ID,
				ToPlayerID:   &bob.ID,
				Amount:       10,
				Type:         model.TransactionTransfer,
				CreatedAt:    s.baseTime(),
			}
			_, _, err := s.storage.ApplyTransfer(s.ctx, alice.ID, bob.ID, 10, true, txn)
			s.NoError(err)
		}(i)
	}
	wg.Wait()

	gotAlice, err := s.storage.GetPlayer(s.ctx, alice.ID)
	s.Require().NoError(err)
	gotBob, err := s.storage.GetPlayer(s.ctx, bob.ID)
	s.Require().NoError(err)

	// Money is conserved between the two parties.
	s.Equal(int64(1500-workers*10), gotAlice.Balance)
	s.Equal(int64(1500+workers*10), gotBob.Balance)
	s.Equal(2*model.StartingBalance, gotAlice.Balance+gotBob.Balance)

	txns, err := s.storage.ListTransactions(s.ctx, "ABCDEF", 0)
	s.Require().NoError(err)
	s.Len(txns, workers)
}

// Board listing tests

func (s *StorageSuite) TestListBoardsForUser() {
	s.seedBoard("ABCDEF")

	second := s.makeBoard("GHIJKL")
	second.CreatedAt = s.baseTime().Add(time.Hour)
	alicePlayer := s.makePlayer("p-alice-2", "GHIJKL", "user-alice", model.StartingBalance)
	s.Require().NoError(s.storage.CreateBoard(s.ctx, second, []*model.Player{alicePlayer}))

	third := s.makeBoard("MNPQRS")
	bobPlayer := s.makePlayer("p-bob", "MNPQRS", "user-bob", model.StartingBalance)
	s.Require().NoError(s.storage.CreateBoard(s.ctx, third, []*model.Player{bobPlayer}))

	boards, err := s.storage.ListBoardsForUser(s.ctx, "user-alice")
	s.Require().NoError(err)
	s.Require().Len(boards, 2)
	s.Equal(model.BoardID("ABCDEF"), boards[0].ID)
	s.Equal(model.BoardID("GHIJKL"), boards[1].ID)
}

func (s *StorageSuite) TestListBoardsForUserAfterLeaveAndDelete() {
	_, alice := s.seedBoard("ABCDEF")

	second := s.makeBoard("GHIJKL")
	alicePlayer := s.makePlayer("p-alice-2", "GHIJKL", "user-alice", model.StartingBalance)
	s.Require().NoError(s.storage.CreateBoard(s.ctx, second, []*model.Player{alicePlayer}))

	s.Require().NoError(s.storage.DeletePlayer(s.ctx, alice.ID))

	boards, err := s.storage.ListBoardsForUser(s.ctx, "user-alice")
	s.Require().NoError(err)
	s.Require().Len(boards, 1)
	s.Equal(model.BoardID("GHIJKL"), boards[0].ID)

	s.Require().NoError(s.storage.DeleteBoard(s.ctx, "GHIJKL"))

	boards, err = s.storage.ListBoardsForUser(s.ctx, "user-alice")
	s.Require().NoError(err)
	s.Empty(boards)
}

func (s *StorageSuite) TestListBoardsForUserUnknownUser() {
	s.seedBoard("ABCDEF")

	boards, err := s.storage.ListBoardsForUser(s.ctx, "user-nobody")
	s.Require().NoError(err)
	s.Empty(boards)
}

// Transaction listing tests

func (s *StorageSuite) applyNumberedTransfers(from, to model.PlayerID, n int) {
	for i := 1; i <= n; i++ {
		txn := &model.Transaction{
			ID:           model.TransactionID(fmt.Sprintf("txn-%d", i)),
			BoardID:      "ABCDEF",
			FromPlayerID: &from,
			ToPlayerID:   &to,
			Amount:       int64(i),
			Type:         model.TransactionTransfer,
			CreatedAt:    s.baseTime().Add(time.Duration(i) * time.Minute),
		}
		_, _, err := s.storage.ApplyTransfer(s.ctx, from, to, int64(i), false, txn)
		s.Require().NoError(err)
	}
}

func (s *StorageSuite) TestListTransactionsNewestFirst() {
	bank, alice := s.seedBoard("ABCDEF")
	s.applyNumberedTransfers(bank.ID, alice.ID, 3)

	txns, err := s.storage.ListTransactions(s.ctx, "ABCDEF", 0)
	s.Require().NoError(err)
	s.Require().Len(txns, 3)
	s.Equal(model.TransactionID("txn-3"), txns[0].ID)
	s.Equal(model.TransactionID("txn-2"), txns[1].ID)
	s.Equal(model.TransactionID("txn-1"), txns[2].ID)
}

func (s *StorageSuite) TestListTransactionsLimit() {
	bank, alice := s.seedBoard("ABCDEF")
	s.applyNumberedTransfers(bank.ID, alice.ID, 5)

	txns, err := s.storage.ListTransactions(s.ctx, "ABCDEF", 2)
	s.Require().NoError(err)
	s.Require().Len(txns, 2)
	s.Equal(model.TransactionID("txn-5"), txns[0].ID)
	s.Equal(model.TransactionID("txn-4"), txns[1].ID)
}

func (s *StorageSuite) TestListTransactionsEmptyBoard() {
	s.seedBoard("ABCDEF")

	txns, err := s.storage.ListTransactions(s.ctx, "ABCDEF", 0)
	s.Require().NoError(err)
	s.Empty(txns)
}

func (s *StorageSuite) TestGetTransactionByKey() {
	bank, alice := s.seedBoard("ABCDEF")

	txn := &model.Transaction{
		ID:             "txn-1",
		BoardID:        "ABCDEF",
		FromPlayerID:   &bank.ID,
		ToPlayerID:     &alice.ID,
		Amount:         100,
		Type:           model.TransactionBankGive,
		IdempotencyKey: "client-key-1",
		CreatedAt:      s.baseTime(),
	}
	_, _, err := s.storage.ApplyTransfer(s.ctx, bank.ID, alice.ID, 100, false, txn)
	s.Require().NoError(err)

	got, err := s.storage.GetTransactionByKey(s.ctx, "ABCDEF", "client-key-1")
	s.Require().NoError(err)
	s.Equal(model.TransactionID("txn-1"), got.ID)

	_, err = s.storage.GetTransactionByKey(s.ctx, "ABCDEF", "other-key")
	s.ErrorIs(err, model.ErrTransactionNotFound)
}
