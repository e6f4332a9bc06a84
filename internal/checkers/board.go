package checkers

// Board is the 8x8 grid stored row-major. The zero value is an empty board.
type Board struct {
	cells [BoardDim * BoardDim]Piece
}

// NewBoard returns a board in the standard starting layout.
func NewBoard() *Board {
	b := &Board{}
	b.InitializeStandardLayout()
	return b
}

// PieceAt returns the piece on sq; ok is false for empty or off-board squares.
func (b *Board) PieceAt(sq Square) (Piece, bool) {
	if !sq.Valid() {
		return NoPiece, false
	}
	p := b.cells[sq.Index()]
	return p, p != NoPiece
}

// Place puts p on sq; NoPiece clears it. Off-board squares are ignored.
func (b *Board) Place(sq Square, p Piece) {
	if !sq.Valid() {
		return
	}
	b.cells[sq.Index()] = p
}

func (b *Board) Clear() { b.cells = [BoardDim * BoardDim]Piece{} }

// InitializeStandardLayout fills the three back ranks of each side on dark squares
// and empties everything else.
func (b *Board) InitializeStandardLayout() {
	b.Clear()
	for row := 0; row < BoardDim; row++ {
		var p Piece
		switch {
		case row < 3:
			p = BlackMan
		case row >= BoardDim-3:
			p = WhiteMan
		default:
			continue
		}
		for col := (row + 1) % 2; col < BoardDim; col += 2 {
			b.cells[row*BoardDim+col] = p
		}
	}
}

// Count returns how many pieces side has on the board, kings included.
func (b *Board) Count(side Side) int {
	n := 0
	for _, p := range b.cells {
		if p != NoPiece && p.Side() == side {
			n++
		}
	}
	return n
}

// Squares returns every square occupied by side, in index order.
func (b *Board) Squares(side Side) []Square {
	var out []Square
	for i, p := range b.cells {
		if p != NoPiece && p.Side() == side {
			out = append(out, Square{Row: i / BoardDim, Col: i % BoardDim})
		}
	}
	return out
}

// Rows exposes the grid as symbol rows, row 0 first.
func (b *Board) Rows() [][]string {
	rows := make([][]string, BoardDim)
	for r := 0; r < BoardDim; r++ {
		rows[r] = make([]string, BoardDim)
		for c := 0; c < BoardDim; c++ {
			rows[r][c] = b.cells[r*BoardDim+c].Symbol()
		}
	}
	return rows
}
