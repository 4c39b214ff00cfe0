package imaging

import (
	"image"
	"math"
)

// CLAHE applies contrast-limited adaptive histogram equalization.
//
// The image is split into tilesX x tilesY tiles. Each tile gets its own
// equalization table built from a histogram whose bins are clipped at
// clipLimit times the mean bin height; the clipped excess is spread evenly
// over all bins. Each output pixel is bilinearly interpolated between the
// tables of the four nearest tile centers, so tile seams do not show.
//
// A uniform image maps to a uniform image.
func CLAHE(src *image.Gray, clipLimit float64, tilesX, tilesY int) *image.Gray {
	b := src.Bounds()
	width, height := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, width, height))
	if width == 0 || height == 0 {
		return out
	}
	tilesX = min(max(tilesX, 1), width)
	tilesY = min(max(tilesY, 1), height)

	tileW := (width + tilesX - 1) / tilesX
	tileH := (height + tilesY - 1) / tilesY

	pixel := func(x, y int) uint8 {
		return src.Pix[src.PixOffset(b.Min.X+x, b.Min.Y+y)]
	}

	luts := make([][256]uint8, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			x0, x1 := tx*tileW, min((tx+1)*tileW, width)
			y0, y1 := ty*tileH, min((ty+1)*tileH, height)

			var hist [256]int
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					hist[pixel(x, y)]++
				}
			}
			luts[ty*tilesX+tx] = tileLUT(hist, (x1-x0)*(y1-y0), clipLimit)
		}
	}

	invW := 1.0 / float64(tileW)
	invH := 1.0 / float64(tileH)
	for y := 0; y < height; y++ {
		tyf := float64(y)*invH - 0.5
		ty1 := int(math.Floor(tyf))
		ya := tyf - float64(ty1)
		ty2 := min(ty1+1, tilesY-1)
		ty1 = max(ty1, 0)

		for x := 0; x < width; x++ {
			txf := float64(x)*invW - 0.5
			tx1 := int(math.Floor(txf))
			xa := txf - float64(tx1)
			tx2 := min(tx1+1, tilesX-1)
			tx1 = max(tx1, 0)

			v := pixel(x, y)
			top := float64(luts[ty1*tilesX+tx1][v])*(1-xa) + float64(luts[ty1*tilesX+tx2][v])*xa
			bottom := float64(luts[ty2*tilesX+tx1][v])*(1-xa) + float64(luts[ty2*tilesX+tx2][v])*xa
			out.Pix[y*out.Stride+x] = clampUint8(top*(1-ya) + bottom*ya)
		}
	}
	return out
}

// tileLUT builds the clipped equalization table of one tile.
func tileLUT(hist [256]int, area int, clipLimit float64) [256]uint8 {
	var lut [256]uint8
	if area == 0 {
		return lut
	}

	if clipLimit > 0 {
		limit := max(int(clipLimit*float64(area)/256), 1)

		excess := 0
		for i := range hist {
			if hist[i] > limit {
				excess += hist[i] - limit
				hist[i] = limit
			}
		}

		batch := excess / 256
		residual := excess - batch*256
		for i := range hist {
			hist[i] += batch
		}
		if residual > 0 {
			step := max(256/residual, 1)
			for i := 0; i < 256 && residual > 0; i += step {
				hist[i]++
				residual--
			}
		}
	}

	scale := 255.0 / float64(area)
	sum := 0
	for i := range hist {
		sum += hist[i]
		lut[i] = clampUint8(float64(sum) * scale)
	}
	return lut
}

// clampUint8 rounds v to the nearest integer in [0, 255].
func clampUint8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
