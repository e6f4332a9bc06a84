package checkers

import "slices"

// LegalDestinations returns every square p may move to from `from`, ordered by square index.
// It only looks at the board; turn order and the mandatory-capture rule are the session's concern.
func LegalDestinations(b *Board, from Square, p Piece) []Square {
	if !from.Valid() || !p.valid() {
		return nil
	}
	var out []Square
	for _, d := range p.directions() {
		if p.IsKing() {
			out = appendKingRay(out, b, from, p, d)
			continue
		}
		next := from.offset(d.dr, d.dc)
		if !next.Valid() {
			continue
		}
		occupant, occupied := b.PieceAt(next)
		if !occupied {
			out = append(out, next)
			continue
		}
		if opposing(p, occupant) {
			if landing := next.offset(d.dr, d.dc); isEmpty(b, landing) {
				out = append(out, landing)
			}
		}
	}
	slices.SortFunc(out, func(x, y Square) int { return x.Index() - y.Index() })
	return out
}

// appendKingRay slides along d. Only an adjacent opposing piece can be jumped: captures
// are always a two-square hop, kings do not fly.
func appendKingRay(out []Square, b *Board, from Square, p Piece, d direction) []Square {
	for step := 1; ; step++ {
		sq := from.offset(step*d.dr, step*d.dc)
		if !sq.Valid() {
			return out
		}
		occupant, occupied := b.PieceAt(sq)
		if !occupied {
			out = append(out, sq)
			continue
		}
		if step == 1 && opposing(p, occupant) {
			if landing := sq.offset(d.dr, d.dc); isEmpty(b, landing) {
				out = append(out, landing)
			}
		}
		return out
	}
}

func isEmpty(b *Board, sq Square) bool {
	if !sq.Valid() {
		return false
	}
	_, occupied := b.PieceAt(sq)
	return !occupied
}

// isCapture reports whether from->to is a two-square diagonal jump over a piece opposing p.
func isCapture(b *Board, from, to Square, p Piece) bool {
	if abs(to.Row-from.Row) != 2 || abs(to.Col-from.Col) != 2 {
		return false
	}
	victim, ok := b.PieceAt(midpoint(from, to))
	return ok && opposing(p, victim)
}

func midpoint(from, to Square) Square {
	return Square{Row: (from.Row + to.Row) / 2, Col: (from.Col + to.Col) / 2}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
