package checkers

import (
	"slices"
	"testing"
)

func boardWith(t *testing.T, pieces map[string]Piece) *Board {
	t.Helper()
	b := &Board{}
	for coord, p := range pieces {
		sq, err := ParseSquare(coord)
		if err != nil {
			t.Fatalf("bad coordinate %q: %v", coord, err)
		}
		if !sq.Dark() {
			t.Fatalf("test placement on light square %s", coord)
		}
		b.Place(sq, p)
	}
	return b
}

func squares(t *testing.T, coords ...string) []Square {
	t.Helper()
	out := make([]Square, 0, len(coords))
	for _, c := range coords {
		out = append(out, MustSquare(c))
	}
	slices.SortFunc(out, func(x, y Square) int { return x.Index() - y.Index() })
	return out
}

func TestLegalDestinations(t *testing.T) {
	tests := []struct {
		name   string
		pieces map[string]Piece
		from   string
		want   []string
	}{
		{name: "opening edge man", pieces: nil, from: "a3", want: []string{"b4"}},
		{name: "opening centre man", pieces: nil, from: "c3", want: []string{"b4", "d4"}},
		{name: "opening black man", pieces: nil, from: "d6", want: []string{"c5", "e5"}},
		{name: "opening back rank blocked", pieces: nil, from: "a1", want: nil},
		{
			name:   "man capture",
			pieces: map[string]Piece{"c3": WhiteMan, "d4": BlackMan},
			from:   "c3",
			want:   []string{"b4", "e5"},
		},
		{
			name:   "man capture landing occupied",
			pieces: map[string]Piece{"c3": WhiteMan, "d4": BlackMan, "e5": BlackMan},
			from:   "c3",
			want:   []string{"b4"},
		},
		{
			name:   "man blocked by friend",
			pieces: map[string]Piece{"c3": WhiteMan, "d4": WhiteMan},
			from:   "c3",
			want:   []string{"b4"},
		},
		{
			name:   "man never captures backwards",
			pieces: map[string]Piece{"e5": WhiteMan, "d4": BlackMan},
			from:   "e5",
			want:   []string{"d6", "f6"},
		},
		{
			name:   "man capture off board",
			pieces: map[string]Piece{"b6": WhiteMan, "a7": BlackMan},
			from:   "b6",
			want:   []string{"c7"},
		},
		{
			name:   "king slides every diagonal",
			pieces: map[string]Piece{"d4": WhiteKing},
			from:   "d4",
			want:   []string{"c5", "b6", "a7", "e5", "f6", "g7", "h8", "c3", "b2", "a1", "e3", "f2", "g1"},
		},
		{
			name:   "king jumps adjacent opponent",
			pieces: map[string]Piece{"d4": WhiteKing, "e5": BlackMan},
			from:   "d4",
			want:   []string{"c5", "b6", "a7", "f6", "c3", "b2", "a1", "e3", "f2", "g1"},
		},
		{
			name:   "king does not fly over distant opponent",
			pieces: map[string]Piece{"d4": WhiteKing, "f6": BlackMan},
			from:   "d4",
			want:   []string{"c5", "b6", "a7", "e5", "c3", "b2", "a1", "e3", "f2", "g1"},
		},
		{
			name:   "king blocked by friend",
			pieces: map[string]Piece{"d4": BlackKing, "e5": BlackMan, "c3": BlackMan},
			from:   "d4",
			want:   []string{"c5", "b6", "a7", "e3", "f2", "g1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b *Board
			if tt.pieces == nil {
				b = NewBoard()
			} else {
				b = boardWith(t, tt.pieces)
			}
			from := MustSquare(tt.from)
			p, _ := b.PieceAt(from)
			got := LegalDestinations(b, from, p)
			want := squares(t, tt.want...)
			if !slices.Equal(got, want) {
				t.Fatalf("LegalDestinations(%s) = %v, want %v", tt.from, got, want)
			}
		})
	}
}

func TestDestinationsAreDiagonalAndOnBoard(t *testing.T) {
	boards := []*Board{NewBoard(), {}}
	for _, base := range boards {
		for _, p := range []Piece{WhiteMan, BlackMan, WhiteKing, BlackKing} {
			for idx := 0; idx < BoardDim*BoardDim; idx++ {
				from := Square{Row: idx / BoardDim, Col: idx % BoardDim}
				if !from.Dark() {
					continue
				}
				b := *base
				b.Place(from, p)
				for _, to := range LegalDestinations(&b, from, p) {
					dr, dc := to.Row-from.Row, to.Col-from.Col
					if !to.Valid() || !to.Dark() {
						t.Fatalf("%v at %s: destination %s off-board or light", p, from, to)
					}
					if abs(dr) != abs(dc) || dr == 0 {
						t.Fatalf("%v at %s: destination %s not diagonal", p, from, to)
					}
					if !p.IsKing() {
						if abs(dr) > 2 {
							t.Fatalf("man at %s reached %s", from, to)
						}
						if (p.Side() == White && dr > 0) || (p.Side() == Black && dr < 0) {
							t.Fatalf("%v at %s moved backwards to %s", p, from, to)
						}
					}
					if occupant, ok := b.PieceAt(to); ok {
						t.Fatalf("%v at %s: destination %s occupied by %v", p, from, to, occupant)
					}
				}
			}
		}
	}
}

func TestCaptureAvailable(t *testing.T) {
	b := boardWith(t, map[string]Piece{"c3": WhiteMan, "b2": WhiteMan, "d4": BlackMan, "g3": WhiteMan})
	if !CaptureAvailable(b, White) {
		t.Fatalf("expected white capture")
	}
	if CaptureAvailable(b, Black) {
		t.Fatalf("black d4 cannot jump c3 while b2 is occupied")
	}
	if got := CapturingSquares(b, White); !slices.Equal(got, squares(t, "c3")) {
		t.Fatalf("CapturingSquares = %v", got)
	}
	moves := LegalMoves(b, White)
	if len(moves) != 1 || !moves[0].Capture || moves[0].To != MustSquare("e5") || moves[0].Captured != MustSquare("d4") {
		t.Fatalf("LegalMoves under mandatory capture = %v", moves)
	}
	if CaptureAvailable(NewBoard(), White) || CaptureAvailable(NewBoard(), Black) {
		t.Fatalf("no captures exist in the opening position")
	}
	if got := len(LegalMoves(NewBoard(), White)); got != 7 {
		t.Fatalf("opening moves for white = %d, want 7", got)
	}
}

func TestCaptureNeedsOpponentOnMidpoint(t *testing.T) {
	b := boardWith(t, map[string]Piece{"d4": WhiteKing, "e5": WhiteMan, "c3": BlackMan})
	if !isCapture(b, MustSquare("d4"), MustSquare("b2"), WhiteKing) {
		t.Fatalf("d4xb2 over black c3 should be a capture")
	}
	if isCapture(b, MustSquare("d4"), MustSquare("f6"), WhiteKing) {
		t.Fatalf("jumping a friendly piece is not a capture")
	}
	if isCapture(b, MustSquare("d4"), MustSquare("b6"), WhiteKing) {
		t.Fatalf("two-step slide over an empty square is not a capture")
	}
}

func TestHasLegalMove(t *testing.T) {
	b := boardWith(t, map[string]Piece{"a1": BlackMan, "h8": WhiteMan})
	if HasLegalMove(b, Black) || HasLegalMove(b, White) {
		t.Fatalf("men on their promotion rank have nowhere to go")
	}
	b.Place(MustSquare("c3"), WhiteMan)
	if !HasLegalMove(b, White) {
		t.Fatalf("white man on c3 can advance")
	}
}
