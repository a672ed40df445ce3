package reconcile

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/dalessandro07/bancopoly/internal/events"
	"github.com/dalessandro07/bancopoly/internal/model"
)

type ReconcilerSuite struct {
	suite.Suite

	board   *model.Board
	bank    *model.Player
	parking *model.Player
	self    *model.Player
	other   *model.Player
	third   *model.Player
}

func TestReconcilerSuite(t *testing.T) {
	suite.Run(t, new(ReconcilerSuite))
}

func (s *ReconcilerSuite) SetupTest() {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.board = &model.Board{
		ID:        "ABCDEF",
		Name:      "Friday Night",
		CreatorID: "user-self",
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.bank = &model.Player{
		ID:               "p-bank",
		BoardID:          "ABCDEF",
		Name:             model.BankName,
		Balance:          model.BankBalance,
		IsSystemPlayer:   true,
		SystemPlayerType: model.SystemPlayerBank,
	}
	s.parking = &model.Player{
		ID:               "p-parking",
		BoardID:          "ABCDEF",
		Name:             model.FreeParkingName,
		IsSystemPlayer:   true,
		SystemPlayerType: model.SystemPlayerFreeParking,
	}
	selfUser := model.UserID("user-self")
	s.self = &model.Player{ID: "p-self", BoardID: "ABCDEF", UserID: &selfUser, Name: "Alice", Balance: 1500}
	otherUser := model.UserID("user-other")
	s.other = &model.Player{ID: "p-other", BoardID: "ABCDEF", UserID: &otherUser, Name: "Bob", Balance: 1500}
	thirdUser := model.UserID("user-third")
	s.third = &model.Player{ID: "p-third", BoardID: "ABCDEF", UserID: &thirdUser, Name: "Carol", Balance: 1500}
}

func (s *ReconcilerSuite) newReconciler() *Reconciler {
	players := []*model.Player{s.bank, s.parking, s.self, s.other, s.third}
	return New(s.self.ID, s.board, players, nil)
}

func (s *ReconcilerSuite) txn(id model.TransactionID, from, to model.PlayerID, amount int64) *model.Transaction {
	f, t := from, to
	return &model.Transaction{
		ID:           id,
		BoardID:      "ABCDEF",
		FromPlayerID: &f,
		ToPlayerID:   &t,
		Amount:       amount,
		Type:         model.TransactionTransfer,
		CreatedAt:    time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC),
	}
}

// Transaction classification

func (s *ReconcilerSuite) TestClassifySender() {
	r := s.newReconciler()

	res, err := r.Apply(model.NewTransactionInserted(s.txn("t1", s.self.ID, s.other.ID, 100)))
	s.Require().NoError(err)
	s.Equal(ClassSender, res.Classification)
	s.Len(r.Transactions(), 1)
}

func (s *ReconcilerSuite) TestClassifyReceiver() {
	r := s.newReconciler()

	res, err := r.Apply(model.NewTransactionInserted(s.txn("t1", s.other.ID, s.self.ID, 100)))
	s.Require().NoError(err)
	s.Equal(ClassReceiver, res.Classification)
}

func (s *ReconcilerSuite) TestClassifyBystanderOnSystemFlow() {
	r := s.newReconciler()

	// Bank pays Bob: public, visible to everyone
	res, err := r.Apply(model.NewTransactionInserted(s.txn("t1", s.bank.ID, s.other.ID, 100)))
	s.Require().NoError(err)
	s.Equal(ClassBystander, res.Classification)
	s.Len(r.Transactions(), 1)

	// Bob pays into free parking
	res, err = r.Apply(model.NewTransactionInserted(s.txn("t2", s.other.ID, s.parking.ID, 50)))
	s.Require().NoError(err)
	s.Equal(ClassBystander, res.Classification)
}

func (s *ReconcilerSuite) TestClassifyHiddenOnPrivateFlow() {
	r := s.newReconciler()

	// Bob pays Carol: not the observer's business
	res, err := r.Apply(model.NewTransactionInserted(s.txn("t1", s.other.ID, s.third.ID, 100)))
	s.Require().NoError(err)
	s.Equal(ClassHidden, res.Classification)

	// Hidden transactions are not added to the visible history
	s.Empty(r.Transactions())
}

func (s *ReconcilerSuite) TestSpectatorSeesSystemFlowsOnly() {
	players := []*model.Player{s.bank, s.parking, s.self, s.other}
	r := New("", s.board, players, nil)

	res, err := r.Apply(model.NewTransactionInserted(s.txn("t1", s.bank.ID, s.self.ID, 100)))
	s.Require().NoError(err)
	s.Equal(ClassBystander, res.Classification)

	res, err = r.Apply(model.NewTransactionInserted(s.txn("t2", s.self.ID, s.other.ID, 100)))
	s.Require().NoError(err)
	s.Equal(ClassHidden, res.Classification)
}

// Deduplication

func (s *ReconcilerSuite) TestDuplicateDeliveryDropped() {
	r := s.newReconciler()
	ev := model.NewTransactionInserted(s.txn("t1", s.self.ID, s.other.ID, 100))

	res, err := r.Apply(ev)
	s.Require().NoError(err)
	s.Equal(ClassSender, res.Classification)

	res, err = r.Apply(ev)
	s.Require().NoError(err)
	s.Equal(ClassDuplicate, res.Classification)
	s.Len(r.Transactions(), 1)
}

func (s *ReconcilerSuite) TestSnapshotTransactionsCountAsSeen() {
	seeded := s.txn("t1", s.self.ID, s.other.ID, 100)
	players := []*model.Player{s.bank, s.self, s.other}
	r := New(s.self.ID, s.board, players, []*model.Transaction{seeded})

	res, err := r.Apply(model.NewTransactionInserted(seeded))
	s.Require().NoError(err)
	s.Equal(ClassDuplicate, res.Classification)
	s.Len(r.Transactions(), 1)
}

func (s *ReconcilerSuite) TestSeenSetEvictionReadmitsOldIDs() {
	r := s.newReconciler()

	first := s.txn("t-first", s.self.ID, s.other.ID, 1)
	_, err := r.Apply(model.NewTransactionInserted(first))
	s.Require().NoError(err)

	// Push the first id out of the bounded dedup window
	for i := 0; i < seenCapacity; i++ {
		id := model.TransactionID(fmt.Sprintf("t-fill-%d", i))
		_, err := r.Apply(model.NewTransactionInserted(s.txn(id, s.self.ID, s.other.ID, 1)))
		s.Require().NoError(err)
	}

	res, err := r.Apply(model.NewTransactionInserted(first))
	s.Require().NoError(err)
	s.Equal(ClassSender, res.Classification)
}

// Player events

func (s *ReconcilerSuite) TestPlayerInserted() {
	r := s.newReconciler()
	daveUser := model.UserID("user-dave")
	dave := &model.Player{ID: "p-dave", BoardID: "ABCDEF", UserID: &daveUser, Name: "Dave", Balance: 1500}

	res, err := r.Apply(model.NewPlayerInserted(dave))
	s.Require().NoError(err)
	s.Equal(NoticeNone, res.Notice)

	got, ok := r.Player("p-dave")
	s.Require().True(ok)
	s.Equal("Dave", got.Name)
	s.Len(r.Players(), 6)
}

func (s *ReconcilerSuite) TestPlayerInsertedAlreadyKnown() {
	r := s.newReconciler()

	// Replay of a player the snapshot already contained
	_, err := r.Apply(model.NewPlayerInserted(s.other))
	s.Require().NoError(err)
	s.Len(r.Players(), 5)
}

func (s *ReconcilerSuite) TestPlayerUpdated() {
	r := s.newReconciler()

	updated := *s.other
	updated.Balance = 1700
	_, err := r.Apply(model.NewPlayerUpdated(&updated))
	s.Require().NoError(err)

	got, ok := r.Player(s.other.ID)
	s.Require().True(ok)
	s.Equal(int64(1700), got.Balance)
}

func (s *ReconcilerSuite) TestPresentationSurvivesPlayerUpdate() {
	r := s.newReconciler()
	r.SetPresentation(s.other.ID, Presentation{ProfileName: "bob88", AvatarURL: "https://example.com/bob.png"})

	updated := *s.other
	updated.Balance = 1700
	_, err := r.Apply(model.NewPlayerUpdated(&updated))
	s.Require().NoError(err)

	p, ok := r.Presentation(s.other.ID)
	s.Require().True(ok)
	s.Equal("bob88", p.ProfileName)
	s.Equal("https://example.com/bob.png", p.AvatarURL)
}

func (s *ReconcilerSuite) TestPlayerDeleted() {
	r := s.newReconciler()

	res, err := r.Apply(model.NewPlayerDeleted("ABCDEF", s.other.ID))
	s.Require().NoError(err)
	s.Equal(NoticeNone, res.Notice)

	_, ok := r.Player(s.other.ID)
	s.False(ok)
	s.Len(r.Players(), 4)
}

func (s *ReconcilerSuite) TestSelfDeletedRaisesNotice() {
	r := s.newReconciler()

	res, err := r.Apply(model.NewPlayerDeleted("ABCDEF", s.self.ID))
	s.Require().NoError(err)
	s.Equal(NoticeRemoved, res.Notice)
}

func (s *ReconcilerSuite) TestSpectatorNeverGetsRemovedNotice() {
	players := []*model.Player{s.bank, s.self}
	r := New("", s.board, players, nil)

	res, err := r.Apply(model.NewPlayerDeleted("ABCDEF", s.self.ID))
	s.Require().NoError(err)
	s.Equal(NoticeNone, res.Notice)
}

// Board events

func (s *ReconcilerSuite) TestBoardEnded() {
	r := s.newReconciler()
	s.False(r.ReadOnly())

	res, err := r.Apply(model.NewBoardUpdated("ABCDEF", true))
	s.Require().NoError(err)
	s.Equal(NoticeBoardEnded, res.Notice)
	s.True(r.ReadOnly())
	s.True(r.Board().IsEnded)
}

func (s *ReconcilerSuite) TestSnapshotOfEndedBoardIsReadOnly() {
	ended := *s.board
	ended.IsEnded = true
	r := New(s.self.ID, &ended, []*model.Player{s.bank, s.self}, nil)

	s.True(r.ReadOnly())
}

func (s *ReconcilerSuite) TestBoardDeleted() {
	r := s.newReconciler()

	res, err := r.Apply(model.NewBoardDeleted("ABCDEF"))
	s.Require().NoError(err)
	s.Equal(NoticeBoardDeleted, res.Notice)
}

// Malformed input

func (s *ReconcilerSuite) TestUnknownEventKind() {
	r := s.newReconciler()

	_, err := r.Apply(model.Event{Kind: "board.exploded", BoardID: "ABCDEF"})
	s.ErrorIs(err, events.ErrUnknownEventKind)
}

func (s *ReconcilerSuite) TestEventWithoutPayload() {
	r := s.newReconciler()

	_, err := r.Apply(model.Event{Kind: model.EventTransactionInserted, BoardID: "ABCDEF"})
	s.Error(err)

	_, err = r.Apply(model.Event{Kind: model.EventPlayerUpdated, BoardID: "ABCDEF"})
	s.Error(err)
}

// History ordering

func (s *ReconcilerSuite) TestTransactionsNewestFirst() {
	r := s.newReconciler()

	for i := 1; i <= 3; i++ {
		id := model.TransactionID(fmt.Sprintf("t%d", i))
		_, err := r.Apply(model.NewTransactionInserted(s.txn(id, s.self.ID, s.other.ID, int64(i))))
		s.Require().NoError(err)
	}

	txns := r.Transactions()
	s.Require().Len(txns, 3)
	s.Equal(model.TransactionID("t3"), txns[0].ID)
	s.Equal(model.TransactionID("t1"), txns[2].ID)
}
