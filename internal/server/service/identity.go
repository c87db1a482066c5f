package service

import (
	"errors"
	"fmt"

	"chess/internal/server/core"
	"chess/internal/server/storage"

	"github.com/google/uuid"
)

// AuthResult is the successful outcome of register or login.
type AuthResult struct {
	Username  string `json:"username"`
	AuthToken string `json:"authToken"`
}

// Register creates a new account and logs it in. Every field is required.
func (s *Service) Register(username, password, email string) (AuthResult, error) {
	if username == "" || password == "" || email == "" {
		return AuthResult{}, fmt.Errorf("username, password, and email are required: %w", core.ErrBadRequest)
	}

	if err := s.store.InsertUser(username, password, email); err != nil {
		return AuthResult{}, err
	}
	return s.issueToken(username)
}

// Login verifies credentials and issues a fresh token. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(username, password string) (AuthResult, error) {
	if username == "" || password == "" {
		return AuthResult{}, fmt.Errorf("username and password are required: %w", core.ErrBadRequest)
	}

	ok, err := s.store.VerifyPassword(username, password)
	if errors.Is(err, core.ErrEntryNotFound) {
		return AuthResult{}, fmt.Errorf("unknown user or wrong password: %w", core.ErrUnauthorized)
	}
	if err != nil {
		return AuthResult{}, err
	}
	if !ok {
		return AuthResult{}, fmt.Errorf("unknown user or wrong password: %w", core.ErrUnauthorized)
	}
	return s.issueToken(username)
}

// Logout invalidates the token. An unknown token is unauthorized, not a
// silent success.
func (s *Service) Logout(token string) error {
	err := s.store.RemoveToken(token)
	if errors.Is(err, core.ErrEntryNotFound) {
		return fmt.Errorf("unknown token: %w", core.ErrUnauthorized)
	}
	return err
}

// Verify resolves a token to its username. It never fails: an unknown or
// logged-out token simply reports ok=false.
func (s *Service) Verify(token string) (username string, ok bool) {
	if token == "" {
		return "", false
	}
	user, err := s.store.GetUserFromToken(token)
	if err != nil {
		return "", false
	}
	return user.Username, true
}

// issueToken mints an opaque UUID token. Tokens are independent across
// sessions: two concurrent logins hold two tokens, each valid until its own
// logout.
func (s *Service) issueToken(username string) (AuthResult, error) {
	token := uuid.NewString()
	if err := s.store.InsertToken(storage.TokenRecord{Token: token, Username: username}); err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Username: username, AuthToken: token}, nil
}
