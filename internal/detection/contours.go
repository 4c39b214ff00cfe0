package detection

import "image"

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Contour is one traced border of the edge map.
//
// Points are in tracing order with straight runs collapsed to their
// endpoints. Outer borders are traced counterclockwise on screen, hole
// borders clockwise.
type Contour struct {
	// Points is the compressed boundary chain.
	Points []Point `json:"points"`

	// Hole reports whether this border separates an edge region from a hole
	// inside it rather than from the background around it.
	Hole bool `json:"hole"`

	// Parent is the index of the enclosing contour in the same slice, or -1
	// for borders that sit directly on the background.
	Parent int `json:"parent"`
}

// ImagePoints returns the contour points as image.Point values.
func (c Contour) ImagePoints() []image.Point {
	pts := make([]image.Point, len(c.Points))
	for i, p := range c.Points {
		pts[i] = image.Pt(p.X, p.Y)
	}
	return pts
}

// borderInfo is the per-border record used while building the hierarchy.
// Borders are numbered from 2; number 1 is the frame around the image.
type borderInfo struct {
	hole   bool
	parent int32 // border number of the parent, 0 for none
}

// FindContours traces every border in a binary edge map.
//
// Any non-zero pixel counts as foreground. The image is treated as if it were
// surrounded by a one pixel background frame, so foreground touching the
// image edge still gets a closed border.
//
// # Algorithm
//
// Suzuki-Abe border following:
//
//  1. Raster scan. A foreground pixel with background on its left starts an
//     outer border; a foreground pixel with background on its right starts a
//     hole border, unless it was already claimed by another border
//  2. Each new border is numbered, and its parent is derived from the last
//     border crossed on the current row
//  3. The border is followed with a rotating 8-neighbor search, labelling
//     its pixels so the raster scan does not restart it
//
// Contours are returned in discovery order, which is the order of their
// starting pixels in the raster scan.
func FindContours(edges *image.Gray) []Contour {
	b := edges.Bounds()
	w, h := b.Dx()+2, b.Dy()+2

	f := make([]int32, w*h)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if edges.Pix[edges.PixOffset(b.Min.X+x, b.Min.Y+y)] != 0 {
				f[(y+1)*w+x+1] = 1
			}
		}
	}

	// 8-neighbor offsets, clockwise on screen starting east:
	// E, SE, S, SW, W, NW, N, NE
	dirs := [8]int{1, w + 1, w, w - 1, -1, -w - 1, -w, -w + 1}
	dirOf := func(from, to int) int {
		d := to - from
		for k, o := range dirs {
			if o == d {
				return k
			}
		}
		return 0
	}

	toPoint := func(i int) Point {
		return Point{X: i%w - 1, Y: i/w - 1}
	}

	contours := make([]Contour, 0)
	infos := []borderInfo{{}, {hole: true}}
	nbd := int32(1)

	for y := 1; y < h-1; y++ {
		lnbd := int32(1)
		for x := 1; x < w-1; x++ {
			i := y*w + x
			v := f[i]
			if v == 0 {
				continue
			}

			var from int
			var hole bool
			switch {
			case v == 1 && f[i-1] == 0:
				from = i - 1
			case v >= 1 && f[i+1] == 0:
				from = i + 1
				hole = true
				if v > 1 {
					lnbd = v
				}
			default:
				if v != 1 {
					lnbd = abs32(v)
				}
				continue
			}

			nbd++
			parent := lnbd
			if infos[lnbd].hole == hole {
				parent = infos[lnbd].parent
			}
			infos = append(infos, borderInfo{hole: hole, parent: parent})

			chain := followBorder(f, dirs, dirOf, i, from, nbd)
			pts := make([]Point, len(chain))
			for k, idx := range chain {
				pts[k] = toPoint(idx)
			}

			parentIdx := -1
			if parent >= 2 {
				parentIdx = int(parent - 2)
			}
			contours = append(contours, Contour{
				Points: compressChain(pts),
				Hole:   hole,
				Parent: parentIdx,
			})

			if f[i] != 1 {
				lnbd = abs32(f[i])
			}
		}
	}

	return contours
}

// followBorder traces the border starting at pixel start, whose background
// neighbor is from, labelling border pixels with nbd. Returns the visited
// pixel indices in order, starting with start.
func followBorder(f []int32, dirs [8]int, dirOf func(from, to int) int, start, from int, nbd int32) []int {
	// Clockwise search for the first foreground neighbor.
	k0 := dirOf(start, from)
	first := -1
	for t := 0; t < 8; t++ {
		n := start + dirs[(k0+t)%8]
		if f[n] != 0 {
			first = n
			break
		}
	}
	if first < 0 {
		f[start] = -nbd
		return []int{start}
	}

	chain := make([]int, 0, 64)
	prev, cur := first, start
	for {
		chain = append(chain, cur)

		// Counterclockwise search starting just after prev.
		kPrev := dirOf(cur, prev)
		eastZero := false
		next := prev
		for t := 1; t <= 8; t++ {
			k := (kPrev - t + 8) % 8
			n := cur + dirs[k]
			if f[n] != 0 {
				next = n
				break
			}
			if k == 0 {
				eastZero = true
			}
		}

		if eastZero {
			f[cur] = -nbd
		} else if f[cur] == 1 {
			f[cur] = nbd
		}

		if next == start && cur == first {
			return chain
		}
		prev, cur = cur, next
	}
}

// compressChain keeps the first point and every point where the step
// direction changes, dropping the interior of straight horizontal,
// vertical and diagonal runs.
func compressChain(pts []Point) []Point {
	n := len(pts)
	if n <= 2 {
		return pts
	}

	out := make([]Point, 0, n/2+1)
	out = append(out, pts[0])
	for k := 1; k < n; k++ {
		prev, cur, next := pts[k-1], pts[k], pts[(k+1)%n]
		if cur.X-prev.X != next.X-cur.X || cur.Y-prev.Y != next.Y-cur.Y {
			out = append(out, cur)
		}
	}
	return out
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
