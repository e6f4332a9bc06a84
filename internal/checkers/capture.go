package checkers

// CaptureAvailable reports whether any piece of side has a capture on b.
func CaptureAvailable(b *Board, side Side) bool {
	for _, from := range b.Squares(side) {
		if canCaptureFrom(b, from) {
			return true
		}
	}
	return false
}

// CapturingSquares lists the squares of side's pieces that have at least one capture.
func CapturingSquares(b *Board, side Side) []Square {
	var out []Square
	for _, from := range b.Squares(side) {
		if canCaptureFrom(b, from) {
			out = append(out, from)
		}
	}
	return out
}

func canCaptureFrom(b *Board, from Square) bool {
	p, ok := b.PieceAt(from)
	if !ok {
		return false
	}
	for _, to := range LegalDestinations(b, from, p) {
		if isCapture(b, from, to, p) {
			return true
		}
	}
	return false
}

// LegalMoves lists every move side may play on b. When a capture exists anywhere,
// only captures are returned.
func LegalMoves(b *Board, side Side) []Move {
	var all, captures []Move
	for _, from := range b.Squares(side) {
		p, _ := b.PieceAt(from)
		for _, to := range LegalDestinations(b, from, p) {
			mv := Move{From: from, To: to}
			if isCapture(b, from, to, p) {
				mv.Capture = true
				mv.Captured = midpoint(from, to)
				captures = append(captures, mv)
				continue
			}
			all = append(all, mv)
		}
	}
	if len(captures) > 0 {
		return captures
	}
	return all
}

// HasLegalMove reports whether side can move at all.
func HasLegalMove(b *Board, side Side) bool {
	for _, from := range b.Squares(side) {
		p, _ := b.PieceAt(from)
		if len(LegalDestinations(b, from, p)) > 0 {
			return true
		}
	}
	return false
}
