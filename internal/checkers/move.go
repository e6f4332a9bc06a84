package checkers

import (
	"fmt"
	"strconv"
	"strings"
)

// Move is one applied (or candidate) step. Captured is meaningful only when Capture is set.
type Move struct {
	From     Square
	To       Square
	Capture  bool
	Captured Square
	Promoted bool
}

// String renders "a3-b4" for a plain step, "c3xe5" for a capture and appends "=K" on promotion.
func (m Move) String() string {
	sep := "-"
	if m.Capture {
		sep = "x"
	}
	s := m.From.String() + sep + m.To.String()
	if m.Promoted {
		s += "=K"
	}
	return s
}

// ParseMove reads the String form back.
func ParseMove(raw string) (Move, error) {
	s := strings.TrimSpace(raw)
	var mv Move
	if strings.HasSuffix(s, "=K") {
		mv.Promoted = true
		s = strings.TrimSuffix(s, "=K")
	}
	i := strings.IndexAny(s, "-x")
	if i < 0 {
		return Move{}, fmt.Errorf("parse move %q: missing separator", raw)
	}
	from, err := ParseSquare(s[:i])
	if err != nil {
		return Move{}, fmt.Errorf("parse move %q: %w", raw, err)
	}
	to, err := ParseSquare(s[i+1:])
	if err != nil {
		return Move{}, fmt.Errorf("parse move %q: %w", raw, err)
	}
	mv.From, mv.To = from, to
	if s[i] == 'x' {
		mv.Capture = true
		mv.Captured = midpoint(from, to)
	}
	return mv, nil
}

// PDN returns the numbered draughts notation of the move, e.g. "22-18" or "22x15".
func (m Move) PDN() string {
	sep := "-"
	if m.Capture {
		sep = "x"
	}
	return strconv.Itoa(m.From.Number()) + sep + strconv.Itoa(m.To.Number())
}

// FormatPDN renders a move list with full-move numbers, "1. 22-18 11-15 2. ...".
// A move that starts where the previous one ended belongs to the same turn (a chained
// jump) and is merged into it, "22x15x6".
func FormatPDN(moves []Move) string {
	var turns []string
	for i, mv := range moves {
		if i > 0 && mv.Capture && moves[i-1].Capture && mv.From == moves[i-1].To {
			turns[len(turns)-1] += "x" + strconv.Itoa(mv.To.Number())
			continue
		}
		turns = append(turns, mv.PDN())
	}
	var sb strings.Builder
	for i, t := range turns {
		if i%2 == 0 {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(strconv.Itoa(i/2 + 1))
			sb.WriteString(". ")
		} else {
			sb.WriteByte(' ')
		}
		sb.WriteString(t)
	}
	return sb.String()
}
