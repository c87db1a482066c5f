package storage

// Schema defines the SQLite database structure. Deleting a user cascades to
// their tokens so a token never references a missing user.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	username TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	email TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS auth_tokens (
	token TEXT PRIMARY KEY,
	username TEXT NOT NULL,
	FOREIGN KEY (username) REFERENCES users(username) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_auth_tokens_username ON auth_tokens(username);

CREATE TABLE IF NOT EXISTS games (
	game_id INTEGER PRIMARY KEY AUTOINCREMENT,
	game_name TEXT NOT NULL UNIQUE,
	white_username TEXT,
	black_username TEXT,
	game TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_games_game_name ON games(game_name);
`
