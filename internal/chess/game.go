package chess

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidMove is the sentinel wrapped by every move rejection so callers
// can match the whole failure class with errors.Is.
var ErrInvalidMove = errors.New("invalid move")

func invalidMove(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidMove, fmt.Sprintf(format, args...))
}

// WinState tracks how (or whether) a game has concluded. It only moves away
// from WinInProgress, never back.
type WinState int

const (
	WinInProgress WinState = iota
	WinWhiteBeatBlack
	WinBlackBeatWhite
	WinStalemate
	WinWhiteResigned
	WinBlackResigned
)

var winStateNames = map[WinState]string{
	WinInProgress:     "IN_PROGRESS",
	WinWhiteBeatBlack: "WHITE_BEAT_BLACK",
	WinBlackBeatWhite: "BLACK_BEAT_WHITE",
	WinStalemate:      "STALEMATE",
	WinWhiteResigned:  "WHITE_RESIGNED",
	WinBlackResigned:  "BLACK_RESIGNED",
}

func (w WinState) String() string {
	return winStateNames[w]
}

func (w WinState) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.String())
}

func (w *WinState) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for state, name := range winStateNames {
		if name == s {
			*w = state
			return nil
		}
	}
	return fmt.Errorf("invalid win state %q", s)
}

// Game is the authoritative rules facade: it owns a board, the side to
// move, and the win state, and is the only mutator of all three.
type Game struct {
	board    Board
	turn     Color
	winState WinState
}

// NewGame starts a game from the standard initial position, white to move.
func NewGame() *Game {
	return &Game{
		board: NewBoard(),
		turn:  ColorWhite,
	}
}

// Clone returns an independent copy of the game. The board is a value
// array, so this is a flat copy.
func (g *Game) Clone() *Game {
	clone := *g
	return &clone
}

func (g *Game) Turn() Color {
	return g.turn
}

// SetTurn overrides the side to move. Intended for setting up positions.
func (g *Game) SetTurn(color Color) {
	g.turn = color
}

func (g *Game) WinState() WinState {
	return g.winState
}

// Board returns a snapshot of the current board.
func (g *Game) Board() Board {
	return g.board
}

// SetBoard replaces the current board. Intended for setting up positions.
func (g *Game) SetBoard(b Board) {
	g.board = b
}

func (g *Game) PieceAt(pos Position) Piece {
	return g.board.PieceAt(pos)
}

// ValidMoves returns every legal move for the piece at pos, accounting for
// self-check. ok is false when no piece occupies pos, which is distinct
// from a piece with no legal moves.
func (g *Game) ValidMoves(pos Position) (moves []Move, ok bool) {
	piece := g.board.PieceAt(pos)
	if piece.IsEmpty() {
		return nil, false
	}

	var legal []Move
	for _, move := range pieceMoves(g.board, pos, piece) {
		trial := g.board
		trial.apply(move)
		if !boardInCheck(trial, piece.Color) {
			legal = append(legal, move)
		}
	}
	return legal, true
}

// MakeMove applies move if it is legal for the side to move. On any
// rejection the game is left exactly as it was and the returned error wraps
// ErrInvalidMove. On success the turn flips and the win state is
// recomputed.
func (g *Game) MakeMove(move Move) error {
	if g.winState != WinInProgress {
		return invalidMove("game has ended and no moves can be made")
	}
	if !move.Start.InBounds() {
		return invalidMove("start position %s is out of bounds", move.Start)
	}
	if !move.End.InBounds() {
		return invalidMove("end position %s is out of bounds", move.End)
	}

	piece := g.board.PieceAt(move.Start)
	if piece.IsEmpty() {
		return invalidMove("no piece located at start position %s", move.Start)
	}
	if piece.Color != g.turn {
		return invalidMove("attempted to move a %s piece on %s's turn", piece.Color, g.turn)
	}

	moves, _ := g.ValidMoves(move.Start)
	if !containsMove(moves, move) {
		return invalidMove("%s is not a legal move for %s", move, piece)
	}

	g.board.apply(move)
	g.turn = g.turn.Opponent()

	if g.IsInCheckmate(g.turn) {
		if g.turn == ColorBlack {
			g.winState = WinWhiteBeatBlack
		} else {
			g.winState = WinBlackBeatWhite
		}
	} else if g.IsInStalemate(g.turn) {
		g.winState = WinStalemate
	}
	return nil
}

// Resign concludes the game in favor of the given color's opponent. A game
// that already ended cannot be resigned again.
func (g *Game) Resign(color Color) error {
	if g.winState != WinInProgress {
		return errors.New("cannot resign because game has ended")
	}
	if color == ColorWhite {
		g.winState = WinWhiteResigned
	} else {
		g.winState = WinBlackResigned
	}
	return nil
}

// IsInCheck reports whether the given color's king is attacked by any
// opposing piece on the current board.
func (g *Game) IsInCheck(color Color) bool {
	return boardInCheck(g.board, color)
}

// IsInCheckmate reports whether the given color is in check with no legal
// move to escape.
func (g *Game) IsInCheckmate(color Color) bool {
	return g.IsInCheck(color) && !g.hasLegalMove(color)
}

// IsInStalemate reports whether the given color has no legal move while not
// in check.
func (g *Game) IsInStalemate(color Color) bool {
	return !g.IsInCheck(color) && !g.hasLegalMove(color)
}

func (g *Game) hasLegalMove(color Color) bool {
	for _, pos := range g.board.occupiedPositions(color) {
		if moves, _ := g.ValidMoves(pos); len(moves) > 0 {
			return true
		}
	}
	return false
}

func boardInCheck(b Board, color Color) bool {
	kingPos, found := b.findKing(color)
	if !found {
		return false
	}
	for _, pos := range b.occupiedPositions(color.Opponent()) {
		for _, move := range pieceMoves(b, pos, b.PieceAt(pos)) {
			if move.End == kingPos {
				return true
			}
		}
	}
	return false
}

func containsMove(moves []Move, move Move) bool {
	for _, m := range moves {
		if m == move {
			return true
		}
	}
	return false
}

type gameJSON struct {
	Board    [8][8]*Piece `json:"board"`
	Turn     Color        `json:"turn"`
	WinState WinState     `json:"winState"`
}

// MarshalJSON encodes the game as rows 1..8 of cells, each cell either a
// piece object or null. This is both the wire shape of LOAD_GAME frames and
// the persisted form in the store.
func (g *Game) MarshalJSON() ([]byte, error) {
	var out gameJSON
	out.Turn = g.turn
	out.WinState = g.winState
	for row := 1; row <= 8; row++ {
		for col := 1; col <= 8; col++ {
			piece := g.board.PieceAt(Position{row, col})
			if !piece.IsEmpty() {
				p := piece
				out.Board[row-1][col-1] = &p
			}
		}
	}
	return json.Marshal(out)
}

func (g *Game) UnmarshalJSON(data []byte) error {
	var in gameJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	g.turn = in.Turn
	g.winState = in.WinState
	g.board = Board{}
	for row := 1; row <= 8; row++ {
		for col := 1; col <= 8; col++ {
			if p := in.Board[row-1][col-1]; p != nil {
				g.board.SetPiece(Position{row, col}, *p)
			}
		}
	}
	return nil
}
