package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/dalessandro07/bancopoly/internal/dependencies/mocks"
	"github.com/dalessandro07/bancopoly/internal/model"
)

type AuthServiceSuite struct {
	suite.Suite
	ctx     context.Context
	clock   *mocks.MockClock
	service *Service
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.clock, Config{SessionDuration: time.Hour})
}

// Guests

func (s *AuthServiceSuite) TestCreateGuest() {
	session, err := s.service.CreateGuest(s.ctx, "Guesty")
	s.Require().NoError(err)

	s.NotEmpty(session.Token)
	s.Equal("Guesty", session.User.DisplayName)
	s.True(session.User.IsGuest)
	s.Equal(s.clock.Now(), session.CreatedAt)
	s.Equal(s.clock.Now().Add(time.Hour), session.ExpiresAt)
}

func (s *AuthServiceSuite) TestCreateGuestEmptyName() {
	_, err := s.service.CreateGuest(s.ctx, "")
	s.ErrorIs(err, model.ErrEmptyName)
}

// Registration and login

func (s *AuthServiceSuite) TestRegister() {
	session, err := s.service.Register(s.ctx, "alice", "hunter2", "Alice")
	s.Require().NoError(err)

	s.NotEmpty(session.Token)
	s.Equal("Alice", session.User.DisplayName)
	s.False(session.User.IsGuest)
}

func (s *AuthServiceSuite) TestRegisterDefaultsDisplayNameToUsername() {
	session, err := s.service.Register(s.ctx, "alice", "hunter2", "")
	s.Require().NoError(err)
	s.Equal("alice", session.User.DisplayName)
}

func (s *AuthServiceSuite) TestRegisterDuplicateUsername() {
	_, err := s.service.Register(s.ctx, "alice", "hunter2", "Alice")
	s.Require().NoError(err)

	_, err = s.service.Register(s.ctx, "alice", "other", "Other")
	s.ErrorIs(err, ErrUsernameExists)
}

func (s *AuthServiceSuite) TestLogin() {
	registered, err := s.service.Register(s.ctx, "alice", "hunter2", "Alice")
	s.Require().NoError(err)

	session, err := s.service.Login(s.ctx, "alice", "hunter2")
	s.Require().NoError(err)
	s.Equal(registered.UserID, session.UserID)
	s.NotEqual(registered.Token, session.Token)
}

func (s *AuthServiceSuite) TestLoginWrongPassword() {
	_, err := s.service.Register(s.ctx, "alice", "hunter2", "Alice")
	s.Require().NoError(err)

	_, err = s.service.Login(s.ctx, "alice", "wrong")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *AuthServiceSuite) TestLoginUnknownUsername() {
	_, err := s.service.Login(s.ctx, "nobody", "hunter2")
	s.ErrorIs(err, ErrInvalidCredentials)
}

// Sessions

func (s *AuthServiceSuite) TestValidateSession() {
	session, err := s.service.CreateGuest(s.ctx, "Guesty")
	s.Require().NoError(err)

	got, err := s.service.ValidateSession(session.Token)
	s.Require().NoError(err)
	s.Equal(session.UserID, got.UserID)
}

func (s *AuthServiceSuite) TestValidateSessionUnknownToken() {
	_, err := s.service.ValidateSession("sess_bogus")
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *AuthServiceSuite) TestValidateSessionExpired() {
	session, err := s.service.CreateGuest(s.ctx, "Guesty")
	s.Require().NoError(err)

	s.clock.Advance(time.Hour + time.Second)

	_, err = s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *AuthServiceSuite) TestInvalidateSession() {
	session, err := s.service.CreateGuest(s.ctx, "Guesty")
	s.Require().NoError(err)

	s.service.InvalidateSession(session.Token)

	_, err = s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *AuthServiceSuite) TestGetUser() {
	session, err := s.service.CreateGuest(s.ctx, "Guesty")
	s.Require().NoError(err)

	user, err := s.service.GetUser(session.Token)
	s.Require().NoError(err)
	s.Equal(session.UserID, user.ID)
	s.Equal("Guesty", user.DisplayName)
}

func (s *AuthServiceSuite) TestCleanExpiredSessions() {
	expired, err := s.service.CreateGuest(s.ctx, "Old")
	s.Require().NoError(err)

	s.clock.Advance(2 * time.Hour)
	fresh, err := s.service.CreateGuest(s.ctx, "New")
	s.Require().NoError(err)

	s.service.CleanExpiredSessions()

	_, err = s.service.ValidateSession(expired.Token)
	s.ErrorIs(err, ErrInvalidSession)
	_, err = s.service.ValidateSession(fresh.Token)
	s.NoError(err)
}
