// Package service implements the control-plane business logic: identity
// (registration, login, tokens) and game lifecycle (create, list, join).
// The Store is the single source of truth; the service holds no state of
// its own.
package service

import (
	"errors"

	"chess/internal/server/storage"
)

// Service coordinates identity and game operations over the Store.
type Service struct {
	store storage.Store
}

func New(store storage.Store) *Service {
	return &Service{store: store}
}

// Store exposes the underlying store for components that share it, such as
// the live-game coordinator.
func (s *Service) Store() storage.Store {
	return s.store
}

// ClearAll truncates every partition of the store. Backs DELETE /db.
func (s *Service) ClearAll() error {
	return errors.Join(
		s.store.ClearTokens(),
		s.store.ClearUsers(),
		s.store.ClearGames(),
	)
}
