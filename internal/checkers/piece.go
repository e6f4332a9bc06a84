package checkers

import "strings"

// Side identifies one of the two players. White moves first and advances toward row 0.
type Side uint8

const (
	White Side = iota
	Black
)

func (s Side) String() string {
	if s == Black {
		return "black"
	}
	return "white"
}

func (s Side) Opponent() Side {
	if s == White {
		return Black
	}
	return White
}

// PromotionRow is the opponent's back rank, where a man of this side becomes a king.
func (s Side) PromotionRow() int {
	if s == White {
		return 0
	}
	return BoardDim - 1
}

// ParseSide accepts "white"/"w" and "black"/"b" in any case.
func ParseSide(raw string) (Side, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "white", "w":
		return White, true
	case "black", "b":
		return Black, true
	default:
		return White, false
	}
}

// Piece is the content of a square. NoPiece marks an empty square.
type Piece uint8

const (
	NoPiece Piece = iota
	WhiteMan
	BlackMan
	WhiteKing
	BlackKing
)

type direction struct{ dr, dc int }

var diagonals = []direction{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}

var pieceTraits = [...]struct {
	side    Side
	king    bool
	symbol  byte
	dirs    []direction
	promote Piece
}{
	NoPiece:   {symbol: '-'},
	WhiteMan:  {side: White, symbol: 'w', dirs: []direction{{-1, -1}, {-1, 1}}, promote: WhiteKing},
	BlackMan:  {side: Black, symbol: 'b', dirs: []direction{{1, -1}, {1, 1}}, promote: BlackKing},
	WhiteKing: {side: White, king: true, symbol: 'W', dirs: diagonals, promote: WhiteKing},
	BlackKing: {side: Black, king: true, symbol: 'B', dirs: diagonals, promote: BlackKing},
}

func (p Piece) valid() bool { return p > NoPiece && int(p) < len(pieceTraits) }

// Side is the owning side. It is meaningless for NoPiece.
func (p Piece) Side() Side {
	if !p.valid() {
		return White
	}
	return pieceTraits[p].side
}

func (p Piece) IsKing() bool { return p.valid() && pieceTraits[p].king }

// Promoted returns the king variant of the piece (kings map to themselves).
func (p Piece) Promoted() Piece {
	if !p.valid() {
		return p
	}
	return pieceTraits[p].promote
}

// Symbol is the single-character marker used in snapshots and text boards.
func (p Piece) Symbol() string {
	if int(p) >= len(pieceTraits) {
		return "?"
	}
	return string(pieceTraits[p].symbol)
}

func (p Piece) String() string {
	switch p {
	case WhiteMan:
		return "white man"
	case BlackMan:
		return "black man"
	case WhiteKing:
		return "white king"
	case BlackKing:
		return "black king"
	default:
		return "empty"
	}
}

// PieceFromSymbol parses a snapshot marker. "-", "." and "" are empty squares.
func PieceFromSymbol(sym string) (Piece, bool) {
	switch strings.TrimSpace(sym) {
	case "w":
		return WhiteMan, true
	case "b":
		return BlackMan, true
	case "W":
		return WhiteKing, true
	case "B":
		return BlackKing, true
	case "-", ".", "":
		return NoPiece, true
	default:
		return NoPiece, false
	}
}

func (p Piece) directions() []direction {
	if !p.valid() {
		return nil
	}
	return pieceTraits[p].dirs
}

func opposing(a, b Piece) bool {
	return a.valid() && b.valid() && a.Side() != b.Side()
}
