// Package storage defines the durable repository of users, auth tokens, and
// games, with a SQLite implementation for production and an in-memory
// implementation for tests and persistence-free deployments.
package storage

import "chess/internal/chess"

// UserRecord is a registered account. PasswordHash never leaves the store:
// callers compare credentials through VerifyPassword.
type UserRecord struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Email        string `json:"email"`
}

// TokenRecord ties an opaque auth token to a username. Its existence is the
// proof of authentication.
type TokenRecord struct {
	Token    string `json:"authToken"`
	Username string `json:"username"`
}

// GameRecord is the full persisted state of one game. Seats are nil until a
// player joins and return to nil when they leave.
type GameRecord struct {
	GameID        int         `json:"gameID"`
	GameName      string      `json:"gameName"`
	WhiteUsername *string     `json:"whiteUsername"`
	BlackUsername *string     `json:"blackUsername"`
	Game          *chess.Game `json:"game"`
}

// SeatOf returns the color whose seat the given user occupies.
func (r GameRecord) SeatOf(username string) (chess.Color, bool) {
	if r.WhiteUsername != nil && *r.WhiteUsername == username {
		return chess.ColorWhite, true
	}
	if r.BlackUsername != nil && *r.BlackUsername == username {
		return chess.ColorBlack, true
	}
	return 0, false
}

// Store is the data-access contract the services depend on. Lookup misses
// fail with core.ErrEntryNotFound and uniqueness violations with
// core.ErrEntryExists; implementations persist only password hashes.
type Store interface {
	ClearUsers() error
	ClearTokens() error
	ClearGames() error

	// InsertUser hashes password before persisting it.
	InsertUser(username, password, email string) error
	GetUser(username string) (UserRecord, error)
	// VerifyPassword compares plaintext against the stored hash with a
	// constant-time verifier. An unknown username fails with
	// core.ErrEntryNotFound.
	VerifyPassword(username, password string) (bool, error)

	InsertToken(rec TokenRecord) error
	GetToken(token string) (TokenRecord, error)
	// RemoveToken reports a miss rather than silently succeeding, so that
	// logout of an unknown token surfaces as unauthorized.
	RemoveToken(token string) error
	// GetUserFromToken joins the token to its user record.
	GetUserFromToken(token string) (UserRecord, error)

	ListGames() ([]GameRecord, error)
	GetGame(gameID int) (GameRecord, error)
	// CreateGame allocates a fresh id for a new game in the initial
	// position. The name must be unique.
	CreateGame(name string) (int, error)
	// UpdateGame replaces the full record for an existing id.
	UpdateGame(gameID int, rec GameRecord) error

	Close() error
}
