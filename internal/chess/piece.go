package chess

import (
	"encoding/json"
	"fmt"
)

// Color identifies one of the two sides of a chess game.
type Color int

const (
	ColorWhite Color = iota
	ColorBlack
)

func (c Color) Opponent() Color {
	if c == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}

func (c Color) String() string {
	if c == ColorWhite {
		return "WHITE"
	}
	return "BLACK"
}

// Name returns the conventional capitalized form used in notifications.
func (c Color) Name() string {
	if c == ColorWhite {
		return "White"
	}
	return "Black"
}

func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Color) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "WHITE":
		*c = ColorWhite
	case "BLACK":
		*c = ColorBlack
	default:
		return fmt.Errorf("invalid color %q", s)
	}
	return nil
}

// ParseColor converts the wire form ("WHITE"/"BLACK") to a Color.
func ParseColor(s string) (Color, error) {
	switch s {
	case "WHITE":
		return ColorWhite, nil
	case "BLACK":
		return ColorBlack, nil
	}
	return 0, fmt.Errorf("invalid color %q", s)
}

// PieceKind identifies a kind of chess piece. The zero value KindNone marks
// an empty square.
type PieceKind int

const (
	KindNone PieceKind = iota
	KindKing
	KindQueen
	KindBishop
	KindKnight
	KindRook
	KindPawn
)

var kindNames = map[PieceKind]string{
	KindKing:   "KING",
	KindQueen:  "QUEEN",
	KindBishop: "BISHOP",
	KindKnight: "KNIGHT",
	KindRook:   "ROOK",
	KindPawn:   "PAWN",
}

func (k PieceKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return ""
}

func (k PieceKind) MarshalJSON() ([]byte, error) {
	if k == KindNone {
		return []byte("null"), nil
	}
	return json.Marshal(k.String())
}

func (k *PieceKind) UnmarshalJSON(data []byte) error {
	if string(data) == "null" || string(data) == `""` {
		*k = KindNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for kind, name := range kindNames {
		if name == s {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("invalid piece kind %q", s)
}

// Piece is a colored piece on the board. The zero value is an empty square.
type Piece struct {
	Color Color     `json:"color"`
	Kind  PieceKind `json:"kind"`
}

func (p Piece) IsEmpty() bool {
	return p.Kind == KindNone
}

func (p Piece) String() string {
	if p.IsEmpty() {
		return "empty square"
	}
	return fmt.Sprintf("%s %s", p.Color, p.Kind)
}
