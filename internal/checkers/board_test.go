package checkers

import "testing"

func TestInitialLayout(t *testing.T) {
	b := NewBoard()
	if got := b.Count(White); got != 12 {
		t.Fatalf("white pieces = %d, want 12", got)
	}
	if got := b.Count(Black); got != 12 {
		t.Fatalf("black pieces = %d, want 12", got)
	}
	for row := 0; row < BoardDim; row++ {
		for col := 0; col < BoardDim; col++ {
			sq := Square{Row: row, Col: col}
			p, ok := b.PieceAt(sq)
			if !ok {
				if sq.Dark() && (row < 3 || row > 4) {
					t.Fatalf("expected a piece on %s", sq)
				}
				continue
			}
			if !sq.Dark() {
				t.Fatalf("piece on light square %s", sq)
			}
			switch {
			case row < 3 && p != BlackMan:
				t.Fatalf("expected black man on %s, got %v", sq, p)
			case row > 4 && p != WhiteMan:
				t.Fatalf("expected white man on %s, got %v", sq, p)
			case row == 3 || row == 4:
				t.Fatalf("middle rank %s must be empty, got %v", sq, p)
			}
		}
	}
}

func TestPlaceAndClear(t *testing.T) {
	var b Board
	sq := MustSquare("d4")
	b.Place(sq, WhiteKing)
	if p, ok := b.PieceAt(sq); !ok || p != WhiteKing {
		t.Fatalf("PieceAt(d4) = %v,%v", p, ok)
	}
	b.Place(Square{Row: 9, Col: 9}, BlackMan)
	if b.Count(Black) != 0 {
		t.Fatalf("off-board placement must be ignored")
	}
	b.Place(sq, NoPiece)
	if _, ok := b.PieceAt(sq); ok {
		t.Fatalf("expected d4 to be cleared")
	}
}

func TestPieceTraits(t *testing.T) {
	tests := []struct {
		p        Piece
		side     Side
		king     bool
		promoted Piece
		symbol   string
	}{
		{WhiteMan, White, false, WhiteKing, "w"},
		{BlackMan, Black, false, BlackKing, "b"},
		{WhiteKing, White, true, WhiteKing, "W"},
		{BlackKing, Black, true, BlackKing, "B"},
	}
	for _, tt := range tests {
		if tt.p.Side() != tt.side || tt.p.IsKing() != tt.king || tt.p.Promoted() != tt.promoted || tt.p.Symbol() != tt.symbol {
			t.Fatalf("traits of %v wrong: side=%v king=%v promoted=%v symbol=%q", tt.p, tt.p.Side(), tt.p.IsKing(), tt.p.Promoted(), tt.p.Symbol())
		}
		back, ok := PieceFromSymbol(tt.symbol)
		if !ok || back != tt.p {
			t.Fatalf("PieceFromSymbol(%q) = %v,%v", tt.symbol, back, ok)
		}
	}
	if _, ok := PieceFromSymbol("x"); ok {
		t.Fatalf("expected unknown symbol to be rejected")
	}
}
