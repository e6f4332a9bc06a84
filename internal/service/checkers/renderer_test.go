package checkers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	rules "github.com/park285/checkers-kakao-bot/internal/checkers"
)

const testSquare = 40

func renderDecoded(t *testing.T, board *rules.Board, opts RenderOptions) image.Image {
	t.Helper()
	data, err := NewPNGRenderer(WithSquareSize(testSquare)).RenderPNG(context.Background(), board, opts)
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}

// centerOf returns the pixel in the middle of sq for an unflipped render.
func centerOf(sq rules.Square) image.Point {
	origin := image.Point{X: testSquare / 2, Y: defaultHUD.titleHeight + defaultHUD.panelHeight + defaultHUD.gapPanels + defaultHUD.gapBoard + 18}
	return squareCenter(sq, testSquare, origin, false)
}

func rgbaAt(img image.Image, p image.Point) color.RGBA {
	return color.RGBAModel.Convert(img.At(p.X, p.Y)).(color.RGBA)
}

func TestRenderPNGStandardBoard(t *testing.T) {
	img := renderDecoded(t, rules.NewBoard(), RenderOptions{HUDHeader: "alice vs bob", HUDTurn: "White to move", WhiteCount: 12, BlackCount: 12})
	if img.Bounds().Dx() != testSquare*9 {
		t.Fatalf("unexpected width %d", img.Bounds().Dx())
	}
	if got := rgbaAt(img, centerOf(rules.MustSquare("d4"))); got != darkSquare {
		t.Fatalf("empty dark square colour = %v", got)
	}
	if got := rgbaAt(img, centerOf(rules.MustSquare("a4"))); got != lightSquare {
		t.Fatalf("light square colour = %v", got)
	}
	white := rgbaAt(img, centerOf(rules.MustSquare("a1")))
	black := rgbaAt(img, centerOf(rules.MustSquare("b8")))
	if white == darkSquare || black == darkSquare || white == black {
		t.Fatalf("pieces not drawn: white=%v black=%v", white, black)
	}
	if white.R < 200 || black.R > 80 {
		t.Fatalf("piece colours look swapped: white=%v black=%v", white, black)
	}
}

func TestRenderPNGFlipAndHighlight(t *testing.T) {
	board := rules.NewBoard()
	plain := renderDecoded(t, board, RenderOptions{})
	flipped := renderDecoded(t, board, RenderOptions{Flip: true})
	// After flipping, the square drawn where a1 was holds h8's black man.
	if rgbaAt(plain, centerOf(rules.MustSquare("a1"))) == rgbaAt(flipped, centerOf(rules.MustSquare("a1"))) {
		t.Fatalf("flip did not change the bottom-left square")
	}

	mv := rules.Move{From: rules.MustSquare("c3"), To: rules.MustSquare("e5"), Capture: true, Captured: rules.MustSquare("d4")}
	marked := renderDecoded(t, board, RenderOptions{Highlight: &mv})
	mark := rgbaAt(marked, centerOf(mv.Captured))
	if mark == darkSquare || mark.R <= mark.G {
		t.Fatalf("capture mark missing on d4: %v", mark)
	}
	dest := rgbaAt(marked, centerOf(mv.To))
	if dest == darkSquare {
		t.Fatalf("destination not highlighted")
	}
}

func TestRenderPNGHints(t *testing.T) {
	img := renderDecoded(t, rules.NewBoard(), RenderOptions{Hints: []rules.Square{rules.MustSquare("b4")}})
	if rgbaAt(img, centerOf(rules.MustSquare("b4"))) == darkSquare {
		t.Fatalf("hint dot missing")
	}
}

func TestRenderPNGErrors(t *testing.T) {
	r := NewPNGRenderer()
	if _, err := r.RenderPNG(context.Background(), nil, RenderOptions{}); err == nil {
		t.Fatalf("expected error for nil board")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.RenderPNG(ctx, rules.NewBoard(), RenderOptions{}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestRenderText(t *testing.T) {
	out := RenderText(rules.NewBoard(), TextOptions{})
	lines := strings.Split(out, "\n")
	if len(lines) != 9 {
		t.Fatalf("expected 9 lines, got %d:\n%s", len(lines), out)
	}
	if got := strings.TrimRight(lines[0], " "); got != "8   b   b   b   b" {
		t.Fatalf("top row = %q", got)
	}
	if got := strings.TrimRight(lines[7], " "); got != "1 w   w   w   w" {
		t.Fatalf("bottom row = %q", got)
	}
	if got := strings.TrimRight(lines[4], " "); got != "4   .   .   .   ." {
		t.Fatalf("empty row = %q", got)
	}
	if lines[8] != "  a b c d e f g h" {
		t.Fatalf("file labels = %q", lines[8])
	}

	flipped := strings.Split(RenderText(rules.NewBoard(), TextOptions{Flip: true}), "\n")
	if !strings.HasPrefix(flipped[0], "1") || flipped[8] != "  h g f e d c b a" {
		t.Fatalf("flipped labels wrong: %q / %q", flipped[0], flipped[8])
	}
}

func TestRenderTextHighlight(t *testing.T) {
	s := rules.NewSession("t")
	res, err := s.MakeMove(rules.MustSquare("a3"), rules.MustSquare("b4"))
	if err != nil {
		t.Fatalf("MakeMove: %v", err)
	}
	board := s.Board()
	out := RenderText(&board, TextOptions{Highlight: &res.Move})
	lines := strings.Split(out, "\n")
	if got := strings.TrimRight(lines[4], " "); got != "4  [w]  .   .   ." {
		t.Fatalf("highlight row = %q", got)
	}
}

func TestRenderSnapshotRows(t *testing.T) {
	rows := rules.NewBoard().Rows()
	out := RenderSnapshotRows(rows)
	first := strings.Split(out, "\n")[0]
	if first != "- b - b - b - b" {
		t.Fatalf("first row = %q", first)
	}
}
