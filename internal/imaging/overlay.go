package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// goldenAngle spreads consecutive hues far apart on the color wheel.
const goldenAngle = 137.50776405003785

// LinePalette returns n visually distinct, fully opaque colors.
//
// The palette is deterministic: hue advances by the golden angle from red,
// at fixed saturation and value.
func LinePalette(n int) []color.RGBA {
	palette := make([]color.RGBA, n)
	for i := range palette {
		hue := math.Mod(float64(i)*goldenAngle, 360)
		r, g, b := colorful.Hsv(hue, 0.85, 0.95).RGB255()
		palette[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return palette
}

// Overlay draws each polyline over base, one palette color per polyline.
//
// base is typically the normalized frame or the edge map; the result is a
// new RGBA image of the same size. Polylines are drawn closed, matching the
// traced contour boundaries.
func Overlay(base image.Image, polylines [][]image.Point) *image.RGBA {
	b := base.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), base, b.Min, draw.Src)

	palette := LinePalette(len(polylines))
	for i, pts := range polylines {
		c := palette[i]
		if len(pts) == 1 {
			out.SetRGBA(pts[0].X, pts[0].Y, c)
			continue
		}
		for j := range pts {
			drawLine(out, pts[j], pts[(j+1)%len(pts)], c)
		}
	}
	return out
}

// drawLine draws a 1-pixel line with Bresenham's algorithm, clipped to img.
func drawLine(img *image.RGBA, p0, p1 image.Point, c color.RGBA) {
	dx := abs(p1.X - p0.X)
	dy := -abs(p1.Y - p0.Y)
	sx, sy := 1, 1
	if p0.X > p1.X {
		sx = -1
	}
	if p0.Y > p1.Y {
		sy = -1
	}
	err := dx + dy
	x, y := p0.X, p0.Y
	bounds := img.Bounds()
	for {
		if image.Pt(x, y).In(bounds) {
			img.SetRGBA(x, y, c)
		}
		if x == p1.X && y == p1.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
