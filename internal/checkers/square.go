package checkers

import (
	"fmt"
	"strconv"
	"strings"
)

// BoardDim is the number of rows and columns on the board (a .. h).
const BoardDim = 8

// Square is a (row, column) coordinate. Row 0 is Black's back rank, row 7 is White's.
type Square struct {
	Row int
	Col int
}

// SquareAt returns the square for row/col and whether it lies on the board.
func SquareAt(row, col int) (Square, bool) {
	sq := Square{Row: row, Col: col}
	return sq, sq.Valid()
}

func (s Square) Valid() bool {
	return s.Row >= 0 && s.Row < BoardDim && s.Col >= 0 && s.Col < BoardDim
}

// Index is the row-major linear index used by Board.
func (s Square) Index() int { return s.Row*BoardDim + s.Col }

// Dark reports whether pieces may stand on the square.
func (s Square) Dark() bool { return (s.Row+s.Col)%2 != 0 }

func (s Square) offset(dr, dc int) Square { return Square{Row: s.Row + dr, Col: s.Col + dc} }

// String renders the square as column letter + row digit, e.g. "a3".
func (s Square) String() string {
	if !s.Valid() {
		return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
	}
	return string([]byte{byte('a' + s.Col), byte('1' + BoardDim - 1 - s.Row)})
}

// Number returns the 1..32 dark-square number used by PDN, or 0 for light and off-board squares.
func (s Square) Number() int {
	if !s.Valid() || !s.Dark() {
		return 0
	}
	return s.Row*(BoardDim/2) + s.Col/2 + 1
}

// SquareFromNumber is the inverse of Square.Number.
func SquareFromNumber(n int) (Square, bool) {
	if n < 1 || n > BoardDim*BoardDim/2 {
		return Square{}, false
	}
	row := (n - 1) / (BoardDim / 2)
	k := (n - 1) % (BoardDim / 2)
	return Square{Row: row, Col: 2*k + 1 - row%2}, true
}

// ParseSquare reads "a3" style coordinates. The reversed digit-letter form ("3a")
// and the 1..32 PDN square number ("22") are accepted too.
func ParseSquare(raw string) (Square, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if n, err := strconv.Atoi(s); err == nil {
		sq, ok := SquareFromNumber(n)
		if !ok {
			return Square{}, fmt.Errorf("%w: %q", ErrInvalidSquare, raw)
		}
		return sq, nil
	}
	if len(s) != 2 {
		return Square{}, fmt.Errorf("%w: %q", ErrInvalidSquare, raw)
	}
	letter, digit := s[0], s[1]
	if letter >= '1' && letter <= '8' {
		letter, digit = digit, letter
	}
	if letter < 'a' || letter > 'h' || digit < '1' || digit > '8' {
		return Square{}, fmt.Errorf("%w: %q", ErrInvalidSquare, raw)
	}
	return Square{Row: BoardDim - 1 - int(digit-'1'), Col: int(letter - 'a')}, nil
}

// MustSquare is ParseSquare for literals known to be valid.
func MustSquare(raw string) Square {
	sq, err := ParseSquare(raw)
	if err != nil {
		panic(err)
	}
	return sq
}
