package storage

import (
	"fmt"
	"sync"

	"chess/internal/chess"
	"chess/internal/server/core"

	"github.com/lixenwraith/auth"
)

// Memory is a mutex-guarded in-memory Store. It backs tests and
// persistence-free deployments and honors the same contract as SQLite.
type Memory struct {
	mu         sync.RWMutex
	users      map[string]UserRecord
	tokens     map[string]TokenRecord
	games      map[int]GameRecord
	nextGameID int
}

func NewMemory() *Memory {
	return &Memory{
		users:      make(map[string]UserRecord),
		tokens:     make(map[string]TokenRecord),
		games:      make(map[int]GameRecord),
		nextGameID: 1,
	}
}

func (m *Memory) Close() error {
	return nil
}

func (m *Memory) ClearUsers() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = make(map[string]UserRecord)
	// Tokens reference users; dropping the users drops their tokens too so
	// no token ever points at a missing user.
	m.tokens = make(map[string]TokenRecord)
	return nil
}

func (m *Memory) ClearTokens() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = make(map[string]TokenRecord)
	return nil
}

func (m *Memory) ClearGames() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games = make(map[int]GameRecord)
	m.nextGameID = 1
	return nil
}

func (m *Memory) InsertUser(username, password, email string) error {
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[username]; ok {
		return fmt.Errorf("user %q: %w", username, core.ErrEntryExists)
	}
	m.users[username] = UserRecord{
		Username:     username,
		PasswordHash: passwordHash,
		Email:        email,
	}
	return nil
}

func (m *Memory) GetUser(username string) (UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[username]
	if !ok {
		return UserRecord{}, fmt.Errorf("user %q: %w", username, core.ErrEntryNotFound)
	}
	return user, nil
}

func (m *Memory) VerifyPassword(username, password string) (bool, error) {
	user, err := m.GetUser(username)
	if err != nil {
		return false, err
	}
	if err := auth.VerifyPassword(password, user.PasswordHash); err != nil {
		return false, nil
	}
	return true, nil
}

func (m *Memory) InsertToken(rec TokenRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[rec.Token]; ok {
		return fmt.Errorf("token: %w", core.ErrEntryExists)
	}
	m.tokens[rec.Token] = rec
	return nil
}

func (m *Memory) GetToken(token string) (TokenRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.tokens[token]
	if !ok {
		return TokenRecord{}, fmt.Errorf("token: %w", core.ErrEntryNotFound)
	}
	return rec, nil
}

func (m *Memory) RemoveToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[token]; !ok {
		return fmt.Errorf("token: %w", core.ErrEntryNotFound)
	}
	delete(m.tokens, token)
	return nil
}

func (m *Memory) GetUserFromToken(token string) (UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.tokens[token]
	if !ok {
		return UserRecord{}, fmt.Errorf("token: %w", core.ErrEntryNotFound)
	}
	user, ok := m.users[rec.Username]
	if !ok {
		return UserRecord{}, fmt.Errorf("user %q: %w", rec.Username, core.ErrEntryNotFound)
	}
	return user, nil
}

func (m *Memory) ListGames() ([]GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	games := make([]GameRecord, 0, len(m.games))
	for _, rec := range m.games {
		games = append(games, cloneGame(rec))
	}
	return games, nil
}

func (m *Memory) GetGame(gameID int) (GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.games[gameID]
	if !ok {
		return GameRecord{}, fmt.Errorf("game %d: %w", gameID, core.ErrEntryNotFound)
	}
	return cloneGame(rec), nil
}

func (m *Memory) CreateGame(name string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.games {
		if rec.GameName == name {
			return 0, fmt.Errorf("game %q: %w", name, core.ErrEntryExists)
		}
	}

	id := m.nextGameID
	m.nextGameID++
	m.games[id] = GameRecord{
		GameID:   id,
		GameName: name,
		Game:     chess.NewGame(),
	}
	return id, nil
}

func (m *Memory) UpdateGame(gameID int, rec GameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[gameID]; !ok {
		return fmt.Errorf("game %d: %w", gameID, core.ErrEntryNotFound)
	}
	rec.GameID = gameID
	m.games[gameID] = cloneGame(rec)
	return nil
}

// cloneGame copies a record so callers never share board state or seat
// pointers with the store.
func cloneGame(rec GameRecord) GameRecord {
	out := rec
	if rec.WhiteUsername != nil {
		white := *rec.WhiteUsername
		out.WhiteUsername = &white
	}
	if rec.BlackUsername != nil {
		black := *rec.BlackUsername
		out.BlackUsername = &black
	}
	if rec.Game != nil {
		out.Game = rec.Game.Clone()
	}
	return out
}
