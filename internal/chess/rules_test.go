package chess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// boardWith builds a board holding only the given pieces.
func boardWith(pieces map[Position]Piece) Board {
	var b Board
	for pos, piece := range pieces {
		b.SetPiece(pos, piece)
	}
	return b
}

func movesTo(moves []Move) map[Position]bool {
	ends := make(map[Position]bool)
	for _, m := range moves {
		ends[m.End] = true
	}
	return ends
}

func TestKingMoves(t *testing.T) {
	b := boardWith(map[Position]Piece{
		{4, 4}: {ColorWhite, KindKing},
	})
	moves := pieceMoves(b, Position{4, 4}, b.PieceAt(Position{4, 4}))
	assert.Len(t, moves, 8)

	// In a corner only three squares remain.
	b = boardWith(map[Position]Piece{
		{1, 1}: {ColorWhite, KindKing},
	})
	moves = pieceMoves(b, Position{1, 1}, b.PieceAt(Position{1, 1}))
	assert.Len(t, moves, 3)
}

func TestKnightMoves(t *testing.T) {
	b := boardWith(map[Position]Piece{
		{4, 4}: {ColorBlack, KindKnight},
		{6, 5}: {ColorBlack, KindPawn},  // friendly blocks one jump
		{2, 3}: {ColorWhite, KindPawn},  // enemy is capturable
	})
	moves := pieceMoves(b, Position{4, 4}, b.PieceAt(Position{4, 4}))
	ends := movesTo(moves)

	assert.Len(t, moves, 7)
	assert.False(t, ends[Position{6, 5}])
	assert.True(t, ends[Position{2, 3}])
}

func TestRookMovesStopAtBlockers(t *testing.T) {
	b := boardWith(map[Position]Piece{
		{4, 4}: {ColorWhite, KindRook},
		{4, 6}: {ColorBlack, KindPawn}, // capture, then stop
		{6, 4}: {ColorWhite, KindPawn}, // friendly, excluded
	})
	moves := pieceMoves(b, Position{4, 4}, b.PieceAt(Position{4, 4}))
	ends := movesTo(moves)

	assert.True(t, ends[Position{4, 5}])
	assert.True(t, ends[Position{4, 6}], "capture square included")
	assert.False(t, ends[Position{4, 7}], "ray stops at capture")
	assert.True(t, ends[Position{5, 4}])
	assert.False(t, ends[Position{6, 4}], "friendly square excluded")
	assert.False(t, ends[Position{7, 4}], "ray stops at friendly")
}

func TestBishopAndQueenDirections(t *testing.T) {
	b := boardWith(map[Position]Piece{
		{4, 4}: {ColorWhite, KindBishop},
	})
	moves := pieceMoves(b, Position{4, 4}, b.PieceAt(Position{4, 4}))
	assert.Len(t, moves, 13)

	b = boardWith(map[Position]Piece{
		{4, 4}: {ColorWhite, KindQueen},
	})
	moves = pieceMoves(b, Position{4, 4}, b.PieceAt(Position{4, 4}))
	assert.Len(t, moves, 27, "queen covers rook and bishop rays")
}

func TestPawnForwardMoves(t *testing.T) {
	b := boardWith(map[Position]Piece{
		{2, 5}: {ColorWhite, KindPawn},
	})
	moves := pieceMoves(b, Position{2, 5}, b.PieceAt(Position{2, 5}))
	ends := movesTo(moves)

	require.Len(t, moves, 2, "single and double step from initial rank")
	assert.True(t, ends[Position{3, 5}])
	assert.True(t, ends[Position{4, 5}])

	// A blocked pawn cannot move forward at all.
	b.SetPiece(Position{3, 5}, Piece{ColorBlack, KindKnight})
	moves = pieceMoves(b, Position{2, 5}, b.PieceAt(Position{2, 5}))
	assert.Empty(t, moves)

	// Blocking only the double-step square still allows the single step.
	b.RemovePiece(Position{3, 5})
	b.SetPiece(Position{4, 5}, Piece{ColorBlack, KindKnight})
	moves = pieceMoves(b, Position{2, 5}, b.PieceAt(Position{2, 5}))
	require.Len(t, moves, 1)
	assert.Equal(t, Position{3, 5}, moves[0].End)
}

func TestPawnDiagonalCapture(t *testing.T) {
	b := boardWith(map[Position]Piece{
		{4, 4}: {ColorBlack, KindPawn},
		{3, 3}: {ColorWhite, KindRook},
		{3, 5}: {ColorBlack, KindRook},
	})
	moves := pieceMoves(b, Position{4, 4}, b.PieceAt(Position{4, 4}))
	ends := movesTo(moves)

	assert.True(t, ends[Position{3, 4}], "black pawns advance toward row 1")
	assert.True(t, ends[Position{3, 3}], "enemy piece capturable")
	assert.False(t, ends[Position{3, 5}], "friendly piece not capturable")
}

func TestPawnPromotionFanOut(t *testing.T) {
	b := boardWith(map[Position]Piece{
		{7, 1}: {ColorWhite, KindPawn},
	})
	moves := pieceMoves(b, Position{7, 1}, b.PieceAt(Position{7, 1}))

	require.Len(t, moves, 4, "one move per promotion kind")
	kinds := make(map[PieceKind]bool)
	for _, m := range moves {
		assert.Equal(t, Position{8, 1}, m.End)
		kinds[m.Promotion] = true
	}
	assert.Equal(t, map[PieceKind]bool{
		KindQueen: true, KindRook: true, KindBishop: true, KindKnight: true,
	}, kinds)
}
