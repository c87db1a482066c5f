package chess

// basicRule generates moves from a set of direction vectors. Sliding pieces
// repeat each direction until blocked; the king and knight step once.
type basicRule struct {
	directions [][2]int
	repeats    bool
}

var (
	orthogonals = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	diagonals   = [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	compass     = [][2]int{
		{1, 0}, {-1, 0}, {0, 1}, {0, -1},
		{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
	}
	knightJumps = [][2]int{
		{2, 1}, {2, -1}, {-2, 1}, {-2, -1},
		{1, 2}, {1, -2}, {-1, 2}, {-1, -2},
	}
)

var kindRules = map[PieceKind]basicRule{
	KindKing:   {directions: compass, repeats: false},
	KindQueen:  {directions: compass, repeats: true},
	KindRook:   {directions: orthogonals, repeats: true},
	KindBishop: {directions: diagonals, repeats: true},
	KindKnight: {directions: knightJumps, repeats: false},
}

func (r basicRule) moves(b Board, pos Position, color Color) []Move {
	var moves []Move
	for _, dir := range r.directions {
		next := Position{pos.Row + dir[0], pos.Col + dir[1]}
		for next.InBounds() {
			target := b.PieceAt(next)
			if !target.IsEmpty() {
				if target.Color != color {
					moves = append(moves, Move{Start: pos, End: next})
				}
				break
			}
			moves = append(moves, Move{Start: pos, End: next})
			if !r.repeats {
				break
			}
			next = Position{next.Row + dir[0], next.Col + dir[1]}
		}
	}
	return moves
}

var promotionKinds = [4]PieceKind{KindQueen, KindRook, KindBishop, KindKnight}

// pawnMoves handles the pawn's asymmetric movement: single step, double
// step from the initial rank, diagonal captures, and the four-way promotion
// fan-out on the far rank. En passant is not supported.
func pawnMoves(b Board, pos Position, color Color) []Move {
	forward := 1
	initialRow := 2
	promotionRow := 8
	if color == ColorBlack {
		forward = -1
		initialRow = 7
		promotionRow = 1
	}

	var moves []Move
	emit := func(end Position) {
		if end.Row == promotionRow {
			for _, kind := range promotionKinds {
				moves = append(moves, Move{Start: pos, End: end, Promotion: kind})
			}
			return
		}
		moves = append(moves, Move{Start: pos, End: end})
	}

	step := Position{pos.Row + forward, pos.Col}
	if step.InBounds() && b.PieceAt(step).IsEmpty() {
		emit(step)

		if pos.Row == initialRow {
			double := Position{pos.Row + 2*forward, pos.Col}
			if double.InBounds() && b.PieceAt(double).IsEmpty() {
				emit(double)
			}
		}
	}

	for _, side := range [2]int{-1, 1} {
		capture := Position{pos.Row + forward, pos.Col + side}
		if !capture.InBounds() {
			continue
		}
		target := b.PieceAt(capture)
		if !target.IsEmpty() && target.Color != color {
			emit(capture)
		}
	}
	return moves
}

// pieceMoves generates the raw moves for the piece at pos, ignoring whether
// the mover's own king is left in check afterwards.
func pieceMoves(b Board, pos Position, piece Piece) []Move {
	if piece.Kind == KindPawn {
		return pawnMoves(b, pos, piece.Color)
	}
	rule, ok := kindRules[piece.Kind]
	if !ok {
		return nil
	}
	return rule.moves(b, pos, piece.Color)
}
