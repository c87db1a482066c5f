package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"chess/internal/chess"
	"chess/internal/server/core"

	"github.com/lixenwraith/auth"
	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the durable Store implementation. All writes are synchronous
// transactions: the coordinator broadcasts board state immediately after
// UpdateGame, so the write must be visible before the call returns.
type SQLite struct {
	db   *sql.DB
	path string
}

// NewSQLite opens (or creates) the database file.
func NewSQLite(dataSourceName string, devMode bool) (*SQLite, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode in development for better concurrency
	if devMode {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &SQLite{db: db, path: dataSourceName}, nil
}

// InitDB creates the database schema.
func (s *SQLite) InitDB() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return tx.Commit()
}

// DeleteDB removes the database file.
func (s *SQLite) DeleteDB() error {
	if err := s.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete database file: %w", err)
	}

	return nil
}

func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLite) ClearUsers() error {
	_, err := s.db.Exec(`DELETE FROM users`)
	return err
}

func (s *SQLite) ClearTokens() error {
	_, err := s.db.Exec(`DELETE FROM auth_tokens`)
	return err
}

func (s *SQLite) ClearGames() error {
	_, err := s.db.Exec(`DELETE FROM games`)
	return err
}

// InsertUser creates a user with transaction isolation to prevent duplicate
// registrations racing each other. Only the password hash is stored.
func (s *SQLite) InsertUser(username, password, email string) error {
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM users WHERE username = ?`, username).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("user %q: %w", username, core.ErrEntryExists)
	}

	if _, err := tx.Exec(
		`INSERT INTO users (username, password_hash, email) VALUES (?, ?, ?)`,
		username, passwordHash, email,
	); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLite) GetUser(username string) (UserRecord, error) {
	var user UserRecord
	err := s.db.QueryRow(
		`SELECT username, password_hash, email FROM users WHERE username = ?`,
		username,
	).Scan(&user.Username, &user.PasswordHash, &user.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return UserRecord{}, fmt.Errorf("user %q: %w", username, core.ErrEntryNotFound)
	}
	if err != nil {
		return UserRecord{}, err
	}
	return user, nil
}

// ListUsers returns every account, for the admin CLI.
func (s *SQLite) ListUsers() ([]UserRecord, error) {
	rows, err := s.db.Query(`SELECT username, password_hash, email FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []UserRecord
	for rows.Next() {
		var user UserRecord
		if err := rows.Scan(&user.Username, &user.PasswordHash, &user.Email); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *SQLite) VerifyPassword(username, password string) (bool, error) {
	user, err := s.GetUser(username)
	if err != nil {
		return false, err
	}
	if err := auth.VerifyPassword(password, user.PasswordHash); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *SQLite) InsertToken(rec TokenRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO auth_tokens (token, username) VALUES (?, ?)`,
		rec.Token, rec.Username,
	)
	if err != nil {
		return fmt.Errorf("token insert: %w", err)
	}
	return nil
}

func (s *SQLite) GetToken(token string) (TokenRecord, error) {
	var rec TokenRecord
	err := s.db.QueryRow(
		`SELECT token, username FROM auth_tokens WHERE token = ?`,
		token,
	).Scan(&rec.Token, &rec.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return TokenRecord{}, fmt.Errorf("token: %w", core.ErrEntryNotFound)
	}
	if err != nil {
		return TokenRecord{}, err
	}
	return rec, nil
}

func (s *SQLite) RemoveToken(token string) error {
	result, err := s.db.Exec(`DELETE FROM auth_tokens WHERE token = ?`, token)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("token: %w", core.ErrEntryNotFound)
	}
	return nil
}

func (s *SQLite) GetUserFromToken(token string) (UserRecord, error) {
	var user UserRecord
	err := s.db.QueryRow(
		`SELECT u.username, u.password_hash, u.email
		FROM auth_tokens t JOIN users u ON u.username = t.username
		WHERE t.token = ?`,
		token,
	).Scan(&user.Username, &user.PasswordHash, &user.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return UserRecord{}, fmt.Errorf("token: %w", core.ErrEntryNotFound)
	}
	if err != nil {
		return UserRecord{}, err
	}
	return user, nil
}

func (s *SQLite) ListGames() ([]GameRecord, error) {
	rows, err := s.db.Query(
		`SELECT game_id, game_name, white_username, black_username, game FROM games`,
	)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var games []GameRecord
	for rows.Next() {
		rec, err := scanGame(rows.Scan)
		if err != nil {
			return nil, err
		}
		games = append(games, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return games, nil
}

func (s *SQLite) GetGame(gameID int) (GameRecord, error) {
	row := s.db.QueryRow(
		`SELECT game_id, game_name, white_username, black_username, game FROM games WHERE game_id = ?`,
		gameID,
	)
	rec, err := scanGame(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return GameRecord{}, fmt.Errorf("game %d: %w", gameID, core.ErrEntryNotFound)
	}
	return rec, err
}

func (s *SQLite) CreateGame(name string) (int, error) {
	gameJSON, err := json.Marshal(chess.NewGame())
	if err != nil {
		return 0, fmt.Errorf("failed to encode game: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM games WHERE game_name = ?`, name).Scan(&count); err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, fmt.Errorf("game %q: %w", name, core.ErrEntryExists)
	}

	result, err := tx.Exec(
		`INSERT INTO games (game_name, white_username, black_username, game) VALUES (?, NULL, NULL, ?)`,
		name, string(gameJSON),
	)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(id), nil
}

func (s *SQLite) UpdateGame(gameID int, rec GameRecord) error {
	gameJSON, err := json.Marshal(rec.Game)
	if err != nil {
		return fmt.Errorf("failed to encode game: %w", err)
	}

	result, err := s.db.Exec(
		`UPDATE games SET game_name = ?, white_username = ?, black_username = ?, game = ? WHERE game_id = ?`,
		rec.GameName, rec.WhiteUsername, rec.BlackUsername, string(gameJSON), gameID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("game %d: %w", gameID, core.ErrEntryNotFound)
	}
	return nil
}

// scanGame decodes one games row; the board state lives in a JSON TEXT
// column and nullable seats map to nil pointers.
func scanGame(scan func(...any) error) (GameRecord, error) {
	var (
		rec          GameRecord
		white, black sql.NullString
		gameJSON     string
	)
	if err := scan(&rec.GameID, &rec.GameName, &white, &black, &gameJSON); err != nil {
		return GameRecord{}, err
	}
	if white.Valid {
		rec.WhiteUsername = &white.String
	}
	if black.Valid {
		rec.BlackUsername = &black.String
	}

	game := &chess.Game{}
	if err := json.Unmarshal([]byte(gameJSON), game); err != nil {
		return GameRecord{}, fmt.Errorf("failed to decode game %d: %w", rec.GameID, err)
	}
	rec.Game = game
	return rec, nil
}
