package checkers

import (
	"strings"

	rules "github.com/park285/checkers-kakao-bot/internal/checkers"
)

// TextOptions control RenderText.
type TextOptions struct {
	Flip bool
	// Highlight marks the destination of the last move with brackets.
	Highlight *rules.Move
	// Empty is the marker for dark empty squares. Light squares are always blank.
	Empty string
}

// RenderText draws the board as a monospace grid with rank digits on the left and file
// letters underneath:
//
//	8   b   b   b   b
//	7 b   b   b   b
//	...
//	  a b c d e f g h
func RenderText(board *rules.Board, opts TextOptions) string {
	if board == nil {
		return ""
	}
	empty := opts.Empty
	if empty == "" {
		empty = "."
	}
	var b strings.Builder
	for i := 0; i < rules.BoardDim; i++ {
		row := i
		if opts.Flip {
			row = rules.BoardDim - 1 - i
		}
		label := rules.Square{Row: row, Col: 0}.String()
		b.WriteString(label[1:])
		closed := false
		for j := 0; j < rules.BoardDim; j++ {
			col := j
			if opts.Flip {
				col = rules.BoardDim - 1 - j
			}
			sq := rules.Square{Row: row, Col: col}
			cell := " "
			if p, ok := board.PieceAt(sq); ok {
				cell = p.Symbol()
			} else if sq.Dark() {
				cell = empty
			}
			switch {
			case opts.Highlight != nil && opts.Highlight.To == sq:
				b.WriteString("[" + cell + "]")
				closed = true
			case closed:
				// the bracket took this cell's separator
				b.WriteString(cell)
				closed = false
			default:
				b.WriteString(" " + cell)
			}
		}
		b.WriteByte('\n')
	}
	b.WriteString(" ")
	for j := 0; j < rules.BoardDim; j++ {
		col := j
		if opts.Flip {
			col = rules.BoardDim - 1 - j
		}
		b.WriteByte(' ')
		b.WriteByte(byte('a' + col))
	}
	return b.String()
}

// RenderSnapshotRows prints the symbol rows the way the local command loop shows a game:
// one row per line, symbols separated by spaces, row 0 first.
func RenderSnapshotRows(rows [][]string) string {
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, strings.Join(r, " "))
	}
	return strings.Join(lines, "\n")
}
