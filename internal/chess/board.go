package chess

import "fmt"

// Position is a board square, 1-indexed: row 1 is white's back rank,
// column 1 is the queenside rook file.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Position) InBounds() bool {
	return p.Row >= 1 && p.Row <= 8 && p.Col >= 1 && p.Col <= 8
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Move describes moving a piece from Start to End. Promotion is set only
// when a pawn reaches the far rank.
type Move struct {
	Start     Position  `json:"start"`
	End       Position  `json:"end"`
	Promotion PieceKind `json:"promotionPiece,omitempty"`
}

func (m Move) String() string {
	if m.Promotion != KindNone {
		return fmt.Sprintf("%s->%s=%s", m.Start, m.End, m.Promotion)
	}
	return fmt.Sprintf("%s->%s", m.Start, m.End)
}

// Board is an 8x8 grid of pieces. It is a value type: assignment clones it,
// which is how trial moves are simulated without journaling.
type Board struct {
	squares [8][8]Piece
}

// NewBoard returns a board with the standard chess starting position.
func NewBoard() Board {
	var b Board

	backRank := [8]PieceKind{
		KindRook, KindKnight, KindBishop, KindQueen,
		KindKing, KindBishop, KindKnight, KindRook,
	}
	for col := 1; col <= 8; col++ {
		b.SetPiece(Position{1, col}, Piece{ColorWhite, backRank[col-1]})
		b.SetPiece(Position{2, col}, Piece{ColorWhite, KindPawn})
		b.SetPiece(Position{7, col}, Piece{ColorBlack, KindPawn})
		b.SetPiece(Position{8, col}, Piece{ColorBlack, backRank[col-1]})
	}
	return b
}

// PieceAt returns the piece at pos, or an empty piece when the square is
// empty or pos is off the board.
func (b Board) PieceAt(pos Position) Piece {
	if !pos.InBounds() {
		return Piece{}
	}
	return b.squares[pos.Row-1][pos.Col-1]
}

func (b *Board) SetPiece(pos Position, piece Piece) {
	if !pos.InBounds() {
		return
	}
	b.squares[pos.Row-1][pos.Col-1] = piece
}

func (b *Board) RemovePiece(pos Position) {
	b.SetPiece(pos, Piece{})
}

// occupiedPositions returns all squares holding a piece of the given color.
func (b Board) occupiedPositions(color Color) []Position {
	var positions []Position
	for row := 1; row <= 8; row++ {
		for col := 1; col <= 8; col++ {
			pos := Position{row, col}
			piece := b.PieceAt(pos)
			if !piece.IsEmpty() && piece.Color == color {
				positions = append(positions, pos)
			}
		}
	}
	return positions
}

// findKing returns the position of the given color's king, or ok=false when
// the board holds none (reduced test positions).
func (b Board) findKing(color Color) (Position, bool) {
	for _, pos := range b.occupiedPositions(color) {
		if b.PieceAt(pos).Kind == KindKing {
			return pos, true
		}
	}
	return Position{}, false
}

// apply moves the piece from m.Start to m.End, replacing a promoting pawn
// with the promotion kind. Validity has been established by the caller.
func (b *Board) apply(m Move) {
	piece := b.PieceAt(m.Start)
	if m.Promotion != KindNone {
		piece.Kind = m.Promotion
	}
	b.RemovePiece(m.Start)
	b.SetPiece(m.End, piece)
}
