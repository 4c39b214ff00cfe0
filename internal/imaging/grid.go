package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"
)

var (
	gridColor  = color.RGBA{255, 0, 0, 128}
	labelColor = color.RGBA{255, 255, 255, 255}
	labelBG    = color.RGBA{0, 0, 0, 180}
)

// DrawGrid blends a coordinate grid into img every spacing pixels.
//
// Grid lines are semi-transparent red. When labels is set, each
// intersection gets an "x,y" label in frame coordinates, so positions stay
// readable after the frame is zoomed. A non-positive spacing draws nothing.
func DrawGrid(img *image.RGBA, spacing int, labels bool) {
	if spacing <= 0 {
		return
	}
	b := img.Bounds()
	src := image.NewUniform(gridColor)

	for x := b.Min.X + spacing; x < b.Max.X; x += spacing {
		draw.Draw(img, image.Rect(x, b.Min.Y, x+1, b.Max.Y), src, image.Point{}, draw.Over)
	}
	for y := b.Min.Y + spacing; y < b.Max.Y; y += spacing {
		draw.Draw(img, image.Rect(b.Min.X, y, b.Max.X, y+1), src, image.Point{}, draw.Over)
	}

	if !labels {
		return
	}
	for y := b.Min.Y + spacing; y < b.Max.Y; y += spacing {
		for x := b.Min.X + spacing; x < b.Max.X; x += spacing {
			drawLabel(img, x+2, y+2, strconv.Itoa(x)+","+strconv.Itoa(y))
		}
	}
}

// glyphs is a 3x5 pixel font for digits and comma.
var glyphs = map[rune][5]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	',': {"000", "000", "000", "010", "010"},
}

// drawLabel draws text at (x, y) on a dark box, clipped to img.
func drawLabel(img *image.RGBA, x, y int, text string) {
	const charWidth, labelHeight = 4, 7
	bounds := img.Bounds()

	box := image.Rect(x-1, y-1, x+len(text)*charWidth, y+labelHeight).Intersect(bounds)
	draw.Draw(img, box, image.NewUniform(labelBG), image.Point{}, draw.Over)

	cx := x
	for _, ch := range text {
		for row, line := range glyphs[ch] {
			for col, pixel := range line {
				if pixel != '1' {
					continue
				}
				if p := image.Pt(cx+col, y+row); p.In(bounds) {
					img.SetRGBA(p.X, p.Y, labelColor)
				}
			}
		}
		cx += charWidth
	}
}
