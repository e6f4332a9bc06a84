package checkers

import (
	"image"
	"image/color"
	"math"
)

type pointF struct {
	X float64
	Y float64
}

func drawDisc(img *image.RGBA, center image.Point, radius int, clr color.Color) {
	if radius <= 0 {
		blendPixel(img, center.X, center.Y, clr)
		return
	}
	rSquared := radius * radius
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y <= rSquared {
				blendPixel(img, center.X+x, center.Y+y, clr)
			}
		}
	}
}

// drawRing paints the annulus between inner and outer radius.
func drawRing(img *image.RGBA, center image.Point, outer, inner int, clr color.Color) {
	o2, i2 := outer*outer, inner*inner
	for y := -outer; y <= outer; y++ {
		for x := -outer; x <= outer; x++ {
			d := x*x + y*y
			if d <= o2 && d >= i2 {
				blendPixel(img, center.X+x, center.Y+y, clr)
			}
		}
	}
}

// drawCross paints an X of the given half-length and thickness centred on c.
func drawCross(img *image.RGBA, c image.Point, half, thick float64, clr color.Color) {
	cx, cy := float64(c.X), float64(c.Y)
	for _, d := range [][2]float64{{1, 1}, {1, -1}} {
		dx, dy := d[0]/math.Sqrt2, d[1]/math.Sqrt2
		px, py := -dy*thick/2, dx*thick/2
		a := pointF{cx - dx*half + px, cy - dy*half + py}
		b := pointF{cx - dx*half - px, cy - dy*half - py}
		e := pointF{cx + dx*half - px, cy + dy*half - py}
		f := pointF{cx + dx*half + px, cy + dy*half + py}
		fillQuad(img, a, b, e, f, clr)
	}
}

func fillQuad(img *image.RGBA, p0, p1, p2, p3 pointF, clr color.Color) {
	fillTriangle(img, p0, p1, p2, clr)
	fillTriangle(img, p0, p2, p3, clr)
}

func fillTriangle(img *image.RGBA, a, b, c pointF, clr color.Color) {
	minX := int(math.Floor(math.Min(a.X, math.Min(b.X, c.X))))
	maxX := int(math.Ceil(math.Max(a.X, math.Max(b.X, c.X))))
	minY := int(math.Floor(math.Min(a.Y, math.Min(b.Y, c.Y))))
	maxY := int(math.Ceil(math.Max(a.Y, math.Max(b.Y, c.Y))))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if pointInTriangle(float64(x)+0.5, float64(y)+0.5, a, b, c) {
				blendPixel(img, x, y, clr)
			}
		}
	}
}

func pointInTriangle(x, y float64, a, b, c pointF) bool {
	denom := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if denom == 0 {
		return false
	}
	alpha := ((b.Y-c.Y)*(x-c.X) + (c.X-b.X)*(y-c.Y)) / denom
	beta := ((c.Y-a.Y)*(x-c.X) + (a.X-c.X)*(y-c.Y)) / denom
	gamma := 1 - alpha - beta
	return alpha >= 0 && beta >= 0 && gamma >= 0
}

// blendPixel composites clr over the pixel at (x, y) with straight alpha.
func blendPixel(img *image.RGBA, x, y int, clr color.Color) {
	if img == nil || !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	sr, sg, sb, sa := clr.RGBA()
	if sa == 0 {
		return
	}
	srcA := float64(sa) / 0xffff
	dst := img.RGBAAt(x, y)
	inv := 1 - srcA
	// clr.RGBA is premultiplied, as is image.RGBA.
	img.SetRGBA(x, y, color.RGBA{
		R: clamp8(float64(sr)/0xffff*255 + float64(dst.R)*inv),
		G: clamp8(float64(sg)/0xffff*255 + float64(dst.G)*inv),
		B: clamp8(float64(sb)/0xffff*255 + float64(dst.B)*inv),
		A: clamp8(srcA*255 + float64(dst.A)*inv),
	})
}

func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
