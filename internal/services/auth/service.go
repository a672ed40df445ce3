// Package auth is the identity/session provider. The ledger treats its
// output as already authenticated and performs no credential checks of
// its own; the only role distinction it supplies downstream is the guest
// flag, which authz uses for the hosting policy.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dalessandro07/bancopoly/internal/dependencies/clock"
	"github.com/dalessandro07/bancopoly/internal/model"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrUsernameExists     = errors.New("username already exists")
)

// Session represents an authenticated session
type Session struct {
	Token     string
	UserID    model.UserID
	User      model.User
	CreatedAt time.Time
	ExpiresAt time.Time
}

// credentials holds a registered user's login data, kept apart from the
// User value handed to the rest of the system.
type credentials struct {
	UserID       model.UserID
	Username     string
	PasswordHash string // bcrypt hash
}

// Service handles authentication and session management
type Service struct {
	clock clock.Clock

	mu            sync.RWMutex
	users         map[model.UserID]*model.User
	creds         map[model.UserID]*credentials
	usernameIndex map[string]model.UserID
	sessions      map[string]*Session

	sessionDuration time.Duration
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
	}
}

// New creates a new auth service
func New(clock clock.Clock, cfg Config) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		clock:           clock,
		users:           make(map[model.UserID]*model.User),
		creds:           make(map[model.UserID]*credentials),
		usernameIndex:   make(map[string]model.UserID),
		sessions:        make(map[string]*Session),
		sessionDuration: cfg.SessionDuration,
	}
}

// CreateGuest creates an anonymous user and session. Guests can join and
// play boards but cannot create them.
func (s *Service) CreateGuest(ctx context.Context, displayName string) (*Session, error) {
	if displayName == "" {
		return nil, model.ErrEmptyName
	}

	user := &model.User{
		ID:          model.UserID(s.generateID("u_")),
		DisplayName: displayName,
		IsGuest:     true,
		CreatedAt:   s.clock.Now(),
	}

	s.mu.Lock()
	s.users[user.ID] = user
	s.mu.Unlock()

	return s.createSession(user)
}

// Register creates a registered user account and session
func (s *Service) Register(ctx context.Context, username, password, displayName string) (*Session, error) {
	if displayName == "" {
		displayName = username
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:          model.UserID(s.generateID("u_")),
		DisplayName: displayName,
		IsGuest:     false,
		CreatedAt:   s.clock.Now(),
	}

	s.mu.Lock()
	if _, exists := s.usernameIndex[username]; exists {
		s.mu.Unlock()
		return nil, ErrUsernameExists
	}
	s.users[user.ID] = user
	s.creds[user.ID] = &credentials{
		UserID:       user.ID,
		Username:     username,
		PasswordHash: string(hash),
	}
	s.usernameIndex[username] = user.ID
	s.mu.Unlock()

	return s.createSession(user)
}

// Login authenticates a registered user and creates a session
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	s.mu.RLock()
	userID, ok := s.usernameIndex[username]
	var creds *credentials
	var user *model.User
	if ok {
		creds = s.creds[userID]
		user = s.users[userID]
	}
	s.mu.RUnlock()

	if creds == nil || user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.createSession(user)
}

// ValidateSession checks if a session token is valid and returns the session
func (s *Service) ValidateSession(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if s.clock.Now().After(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, ErrInvalidSession
	}

	return session, nil
}

// InvalidateSession removes a session
func (s *Service) InvalidateSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// GetUser returns the user for a session token
func (s *Service) GetUser(token string) (*model.User, error) {
	session, err := s.ValidateSession(token)
	if err != nil {
		return nil, err
	}
	return &session.User, nil
}

// CleanExpiredSessions removes expired sessions (call periodically)
func (s *Service) CleanExpiredSessions() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}

// createSession creates a new session for a user
func (s *Service) createSession(user *model.User) (*Session, error) {
	token := s.generateID("sess_")
	now := s.clock.Now()

	session := &Session{
		Token:     token,
		UserID:    user.ID,
		User:      *user,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[token] = session
	s.mu.Unlock()

	return session, nil
}

// generateID generates a random ID with a prefix
func (s *Service) generateID(prefix string) string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return prefix + base64.RawURLEncoding.EncodeToString(b)
}
