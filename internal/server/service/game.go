package service

import (
	"fmt"

	"chess/internal/chess"
	"chess/internal/server/core"
	"chess/internal/server/storage"
)

// GameSummary is the listing view of a game: membership without board
// state.
type GameSummary struct {
	GameID        int     `json:"gameID"`
	GameName      string  `json:"gameName"`
	WhiteUsername *string `json:"whiteUsername"`
	BlackUsername *string `json:"blackUsername"`
}

// CreateGame starts a new game with the given unique name and returns its
// id.
func (s *Service) CreateGame(name string) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("game name is required: %w", core.ErrBadRequest)
	}
	return s.store.CreateGame(name)
}

// ListGames returns summaries of every game. Ordering is unspecified;
// clients sort for display.
func (s *Service) ListGames() ([]GameSummary, error) {
	records, err := s.store.ListGames()
	if err != nil {
		return nil, err
	}

	summaries := make([]GameSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, GameSummary{
			GameID:        rec.GameID,
			GameName:      rec.GameName,
			WhiteUsername: rec.WhiteUsername,
			BlackUsername: rec.BlackUsername,
		})
	}
	return summaries, nil
}

// JoinGame claims the given color's seat for username. Rejoining a seat the
// user already holds is a no-op; a seat held by anyone else fails with
// core.ErrAlreadyTaken.
func (s *Service) JoinGame(username string, color chess.Color, gameID int) error {
	rec, err := s.store.GetGame(gameID)
	if err != nil {
		return err
	}

	seat := &rec.WhiteUsername
	if color == chess.ColorBlack {
		seat = &rec.BlackUsername
	}

	if *seat != nil {
		if **seat == username {
			return nil
		}
		return fmt.Errorf("the %s seat: %w", color, core.ErrAlreadyTaken)
	}

	*seat = &username
	return s.store.UpdateGame(gameID, rec)
}

// GetGame returns the full record for one game.
func (s *Service) GetGame(gameID int) (storage.GameRecord, error) {
	return s.store.GetGame(gameID)
}
