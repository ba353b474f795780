package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"marketplace-client/internal/domain"
	"marketplace-client/pkg/logger"
)

// SessionService keeps the API client's bearer token and the token store
// in step.
type SessionService struct {
	api   domain.AuthAPI
	store domain.TokenStore
	log   logger.Logger

	mu   sync.RWMutex
	user *domain.User
}

func NewSessionService(api domain.AuthAPI, store domain.TokenStore, log logger.Logger) *SessionService {
	return &SessionService{api: api, store: store, log: log}
}

// Restore loads the stored token and checks it against /auth/me. A token
// the server refuses is cleared; a transport failure keeps it for the next
// attempt.
func (s *SessionService) Restore(ctx context.Context) (*domain.User, error) {
	token, err := s.store.LoadToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	if token == "" {
		return nil, domain.ErrAuthenticationRequired
	}

	s.api.SetToken(token)
	user, err := s.api.Me(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrAuthenticationRequired) {
			s.log.Info("Stored session rejected, clearing token")
			s.api.SetToken("")
			if clearErr := s.store.ClearToken(ctx); clearErr != nil {
				s.log.Warn("Failed to clear stored token", "error", clearErr)
			}
		}
		return nil, err
	}

	s.setUser(user)
	s.log.Info("Session restored", "username", user.Username, "role", user.Role)
	return user, nil
}

func (s *SessionService) Login(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, domain.NewValidationError("email and password are required")
	}
	token, err := s.api.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, token)
}

func (s *SessionService) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	if reg.Username == "" || reg.Email == "" || reg.Password == "" {
		return nil, domain.NewValidationError("username, email and password are required")
	}
	token, err := s.api.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, token)
}

func (s *SessionService) establish(ctx context.Context, token *domain.AuthToken) (*domain.User, error) {
	if token.AccessToken == "" {
		return nil, &domain.APIError{Op: "login", Kind: domain.ErrTransportUnavailable, Detail: "response carried no access token"}
	}
	s.api.SetToken(token.AccessToken)
	if err := s.store.SaveToken(ctx, token.AccessToken); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}

	user := token.User
	s.setUser(&user)
	s.log.Info("Logged in", "username", user.Username, "role", user.Role)
	return &user, nil
}

// Logout forgets the token locally; the API has no server-side logout.
func (s *SessionService) Logout(ctx context.Context) error {
	s.api.SetToken("")
	s.setUser(nil)
	if err := s.store.ClearToken(ctx); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// CurrentUser returns nil when nobody is logged in.
func (s *SessionService) CurrentUser() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *SessionService) setUser(user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}
