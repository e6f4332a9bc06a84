package checkers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	rules "github.com/park285/checkers-kakao-bot/internal/checkers"
)

type RenderOptions struct {
	// Highlight marks the last move: origin, destination and the jumped square.
	Highlight *rules.Move
	// Hints are marked with a ring: pending jump targets or pieces that must capture.
	Hints []rules.Square
	// Flip puts row 0 at the bottom, i.e. black's point of view.
	Flip       bool
	HUDHeader  string
	HUDTurn    string
	WhiteCount int
	BlackCount int
}

type BoardRenderer interface {
	RenderPNG(ctx context.Context, board *rules.Board, opts RenderOptions) ([]byte, error)
}

type PNGRenderer struct {
	squareSize int
	face       font.Face
}

type RendererOption func(*PNGRenderer)

// WithSquareSize sets the edge of one board square in pixels.
func WithSquareSize(px int) RendererOption {
	return func(r *PNGRenderer) {
		if px >= 16 {
			r.squareSize = px
		}
	}
}

func WithFace(face font.Face) RendererOption {
	return func(r *PNGRenderer) {
		if face != nil {
			r.face = face
		}
	}
}

func NewPNGRenderer(opts ...RendererOption) *PNGRenderer {
	r := &PNGRenderer{squareSize: 72, face: basicfont.Face7x13}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var errNilBoard = errors.New("board is nil")

// hudLayout holds the panel geometry above the board.
type hudLayout struct {
	radius, titleHeight, panelHeight, gapPanels, gapBoard int
	padX, titleMinWidth, scoreMinWidth, turnMinWidth      int
	shadowOffsetY                                         int
}

var defaultHUD = hudLayout{
	radius: 12, titleHeight: 36, panelHeight: 28, gapPanels: 12, gapBoard: 20,
	padX: 22, titleMinWidth: 240, scoreMinWidth: 96, turnMinWidth: 140, shadowOffsetY: 5,
}

func (r *PNGRenderer) RenderPNG(ctx context.Context, board *rules.Board, opts RenderOptions) ([]byte, error) {
	if board == nil {
		return nil, errNilBoard
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	sq := r.squareSize
	boardSize := sq * rules.BoardDim
	sideMargin := sq / 2
	topMargin := defaultHUD.titleHeight + defaultHUD.panelHeight + defaultHUD.gapPanels + defaultHUD.gapBoard + 18
	bottomMargin := sq / 2

	img := image.NewRGBA(image.Rect(0, 0, boardSize+sideMargin*2, boardSize+topMargin+bottomMargin))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	origin := image.Point{X: sideMargin, Y: topMargin}
	boardRect := image.Rect(origin.X, origin.Y, origin.X+boardSize, origin.Y+boardSize)

	r.drawHUD(img, opts, boardRect, defaultHUD)
	drawBoardShadow(img, boardRect)
	drawSquares(img, sq, origin, opts.Flip)
	drawHighlight(img, opts.Highlight, sq, origin, opts.Flip)
	if err := drawPieces(img, board, sq, origin, opts.Flip); err != nil {
		return nil, err
	}
	drawHints(img, opts.Hints, sq, origin, opts.Flip)
	r.drawCoordinates(img, sq, origin, sideMargin, opts.Flip)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	backgroundColor     = color.RGBA{R: 22, G: 24, B: 36, A: 255}
	lightSquare         = color.RGBA{R: 238, G: 220, B: 186, A: 255}
	darkSquare          = color.RGBA{R: 118, G: 80, B: 56, A: 255}
	moveHighlightFill   = color.NRGBA{R: 255, G: 228, B: 120, A: 120}
	captureMarkColor    = color.NRGBA{R: 232, G: 72, B: 64, A: 190}
	hintColor           = color.NRGBA{R: 120, G: 214, B: 140, A: 170}
	hudPanelColor       = color.NRGBA{R: 40, G: 44, B: 62, A: 250}
	hudTurnPanelColor   = color.NRGBA{R: 48, G: 52, B: 74, A: 245}
	hudShadowColor      = color.NRGBA{A: 50}
	hudTextPrimary      = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	hudTurnTextColor    = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
	boardShadowColor    = color.NRGBA{A: 60}
	coordinateTextColor = color.NRGBA{R: 190, G: 196, B: 220, A: 255}
)

// squareRect maps a board square to pixels. Without flip row 0 is the top rank.
func squareRect(sq rules.Square, size int, origin image.Point, flip bool) image.Rectangle {
	row, col := sq.Row, sq.Col
	if flip {
		row, col = rules.BoardDim-1-row, rules.BoardDim-1-col
	}
	x := origin.X + col*size
	y := origin.Y + row*size
	return image.Rect(x, y, x+size, y+size)
}

func squareCenter(sq rules.Square, size int, origin image.Point, flip bool) image.Point {
	rect := squareRect(sq, size, origin, flip)
	return image.Point{X: rect.Min.X + size/2, Y: rect.Min.Y + size/2}
}

func drawBoardShadow(img *image.RGBA, boardRect image.Rectangle) {
	shadow := image.Rect(boardRect.Min.X+4, boardRect.Min.Y+8, boardRect.Max.X+8, boardRect.Max.Y+10)
	imagedraw.Draw(img, shadow, image.NewUniform(boardShadowColor), image.Point{}, imagedraw.Over)
}

func drawSquares(dst *image.RGBA, size int, origin image.Point, flip bool) {
	for row := 0; row < rules.BoardDim; row++ {
		for col := 0; col < rules.BoardDim; col++ {
			sq := rules.Square{Row: row, Col: col}
			clr := lightSquare
			if sq.Dark() {
				clr = darkSquare
			}
			imagedraw.Draw(dst, squareRect(sq, size, origin, flip), image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(dst *image.RGBA, board *rules.Board, size int, origin image.Point, flip bool) error {
	inset := size / 12
	for _, side := range []rules.Side{rules.White, rules.Black} {
		for _, sq := range board.Squares(side) {
			p, _ := board.PieceAt(sq)
			img, err := renderPieceImage(p, size-2*inset)
			if err != nil {
				return err
			}
			rect := squareRect(sq, size, origin, flip).Inset(inset)
			imagedraw.Draw(dst, rect, img, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

func drawHighlight(img *image.RGBA, mv *rules.Move, size int, origin image.Point, flip bool) {
	if mv == nil || !mv.From.Valid() || !mv.To.Valid() {
		return
	}
	for _, sq := range []rules.Square{mv.From, mv.To} {
		imagedraw.Draw(img, squareRect(sq, size, origin, flip), image.NewUniform(moveHighlightFill), image.Point{}, imagedraw.Over)
	}
	if mv.Capture && mv.Captured.Valid() {
		c := squareCenter(mv.Captured, size, origin, flip)
		drawCross(img, c, float64(size)*0.3, float64(size)*0.1, captureMarkColor)
	}
}

func drawHints(img *image.RGBA, hints []rules.Square, size int, origin image.Point, flip bool) {
	for _, sq := range hints {
		if !sq.Valid() {
			continue
		}
		c := squareCenter(sq, size, origin, flip)
		drawRing(img, c, size/6, size/6-size/24-1, hintColor)
		drawDisc(img, c, size/14, hintColor)
	}
}

func (r *PNGRenderer) drawHUD(img *image.RGBA, opts RenderOptions, boardRect image.Rectangle, l hudLayout) {
	drawer := &font.Drawer{Dst: img, Face: r.face}

	title := strings.TrimSpace(opts.HUDHeader)
	if title == "" {
		title = "Checkers"
	}
	turnText := strings.TrimSpace(opts.HUDTurn)
	if turnText == "" {
		turnText = "Turn"
	}
	scoreText := fmt.Sprintf("W %d : %d B", opts.WhiteCount, opts.BlackCount)

	turnBottom := boardRect.Min.Y - l.gapBoard
	turnTop := turnBottom - l.panelHeight
	titleBottom := turnTop - l.gapPanels
	titleTop := titleBottom - l.titleHeight

	width := func(text string, floor int) int {
		return max(floor, drawer.MeasureString(text).Round()+l.padX*2)
	}
	scoreWidth := width(scoreText, l.scoreMinWidth)
	titleWidth := min(width(title, l.titleMinWidth), boardRect.Dx()-scoreWidth-24)
	turnWidth := min(width(turnText, l.turnMinWidth), boardRect.Dx()-40)

	titleRect := image.Rect(boardRect.Min.X, titleTop, boardRect.Min.X+titleWidth, titleBottom)
	scoreRect := image.Rect(boardRect.Max.X-scoreWidth, titleTop+(l.titleHeight-l.panelHeight)/2, boardRect.Max.X, titleTop+(l.titleHeight+l.panelHeight)/2)
	turnLeft := boardRect.Min.X + (boardRect.Dx()-turnWidth)/2
	turnRect := image.Rect(turnLeft, turnTop, turnLeft+turnWidth, turnBottom)

	for _, rect := range []image.Rectangle{titleRect, scoreRect, turnRect} {
		drawRoundedPanel(img, rect.Add(image.Pt(0, l.shadowOffsetY)), l.radius, hudShadowColor)
	}
	drawRoundedPanel(img, titleRect, l.radius, hudPanelColor)
	drawRoundedPanel(img, scoreRect, l.radius, hudPanelColor)
	drawRoundedPanel(img, turnRect, l.radius, hudTurnPanelColor)

	title = truncateWithEllipsis(r.face, title, titleRect.Dx()-l.padX*2)
	turnText = truncateWithEllipsis(r.face, turnText, turnRect.Dx()-l.padX*2)
	drawCenteredString(drawer, titleRect, title, hudTextPrimary)
	drawCenteredString(drawer, scoreRect, scoreText, hudTextPrimary)
	drawCenteredString(drawer, turnRect, turnText, hudTurnTextColor)
}

func (r *PNGRenderer) drawCoordinates(dst *image.RGBA, size int, origin image.Point, margin int, flip bool) {
	drawer := &font.Drawer{Dst: dst, Face: r.face, Src: image.NewUniform(coordinateTextColor)}
	ascent := r.face.Metrics().Ascent.Ceil()
	boardEnd := origin.Y + rules.BoardDim*size

	for i := 0; i < rules.BoardDim; i++ {
		// Labels follow the square each row or column holds after flipping.
		left := rules.Square{Row: i, Col: 0}
		bottom := rules.Square{Row: rules.BoardDim - 1, Col: i}
		if flip {
			left = rules.Square{Row: rules.BoardDim - 1 - i, Col: rules.BoardDim - 1}
			bottom = rules.Square{Row: 0, Col: rules.BoardDim - 1 - i}
		}
		label := left.String()
		rowCenter := origin.Y + i*size + size/2
		drawCenteredText(drawer, label[1:], origin.X-margin/2, rowCenter+ascent/2)

		label = bottom.String()
		colCenter := origin.X + i*size + size/2
		drawCenteredText(drawer, label[:1], colCenter, boardEnd+ascent+4)
	}
}

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || maxWidth <= 0 || face == nil {
		return trimmed
	}
	drawer := font.Drawer{Face: face}
	if drawer.MeasureString(trimmed).Round() <= maxWidth {
		return trimmed
	}
	const ellipsis = "..."
	if drawer.MeasureString(ellipsis).Round() > maxWidth {
		return ""
	}
	runes := []rune(trimmed)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ellipsis
		if drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ellipsis
}

func drawRoundedPanel(img *image.RGBA, rect image.Rectangle, radius int, clr color.Color) {
	if rect.Empty() {
		return
	}
	radius = max(0, min(radius, rect.Dx()/2, rect.Dy()/2))
	fill := image.NewUniform(clr)
	if radius == 0 {
		imagedraw.Draw(img, rect, fill, image.Point{}, imagedraw.Over)
		return
	}
	// Bands and corner quarters never overlap.
	imagedraw.Draw(img, image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Max.Y), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Min.X+radius, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Max.X-radius, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)

	corners := []struct {
		c      image.Point
		sx, sy int
	}{
		{image.Pt(rect.Min.X+radius, rect.Min.Y+radius), -1, -1},
		{image.Pt(rect.Max.X-radius-1, rect.Min.Y+radius), 1, -1},
		{image.Pt(rect.Min.X+radius, rect.Max.Y-radius-1), -1, 1},
		{image.Pt(rect.Max.X-radius-1, rect.Max.Y-radius-1), 1, 1},
	}
	r2 := radius * radius
	for _, k := range corners {
		for dy := 1; dy <= radius; dy++ {
			for dx := 1; dx <= radius; dx++ {
				if dx*dx+dy*dy <= r2 {
					blendPixel(img, k.c.X+k.sx*dx, k.c.Y+k.sy*dy, clr)
				}
			}
		}
	}
}

func drawCenteredString(drawer *font.Drawer, rect image.Rectangle, text string, clr color.Color) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	metrics := drawer.Face.Metrics()
	width := drawer.MeasureString(text).Round()
	x := max(rect.Min.X, rect.Min.X+(rect.Dx()-width)/2)
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}
