package detection

import "math"

// ArcLength returns the length of the polyline through pts.
// When closed is true the segment from the last point back to the first
// is included.
func ArcLength(pts []Point, closed bool) float64 {
	if len(pts) < 2 {
		return 0
	}
	var length float64
	for i := 1; i < len(pts); i++ {
		length += dist(pts[i-1], pts[i])
	}
	if closed {
		length += dist(pts[len(pts)-1], pts[0])
	}
	return length
}

// ContourArea returns the absolute shoelace area of pts.
//
// The polygon is always closed implicitly, even for open palm lines. For an
// open curve the result is the area between the curve and its chord, which
// is an approximation the feature thresholds were tuned against.
func ContourArea(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	var sum float64
	prev := pts[len(pts)-1]
	for _, p := range pts {
		sum += float64(prev.X)*float64(p.Y) - float64(p.X)*float64(prev.Y)
		prev = p
	}
	return math.Abs(sum) / 2
}

// ApproxPolyDP simplifies pts with the Douglas-Peucker algorithm.
//
// Points closer than epsilon to the simplified polygon are dropped. For a
// closed curve the chain is first split at the point farthest from the first
// point, and both halves are simplified independently.
func ApproxPolyDP(pts []Point, epsilon float64, closed bool) []Point {
	n := len(pts)
	if n <= 2 {
		out := make([]Point, n)
		copy(out, pts)
		return out
	}

	if !closed {
		return douglasPeucker(pts, epsilon)
	}

	far, farDist := 0, -1.0
	for i, p := range pts {
		if d := dist(pts[0], p); d > farDist {
			far, farDist = i, d
		}
	}
	if far == 0 {
		return []Point{pts[0]}
	}

	first := douglasPeucker(pts[:far+1], epsilon)

	second := make([]Point, 0, n-far+1)
	second = append(second, pts[far:]...)
	second = append(second, pts[0])
	secondKept := douglasPeucker(second, epsilon)

	out := make([]Point, 0, len(first)+len(secondKept))
	out = append(out, first[:len(first)-1]...)
	out = append(out, secondKept[:len(secondKept)-1]...)
	return out
}

// douglasPeucker simplifies an open chain, always keeping both endpoints.
func douglasPeucker(chain []Point, epsilon float64) []Point {
	n := len(chain)
	if n <= 2 {
		out := make([]Point, n)
		copy(out, chain)
		return out
	}

	keep := make([]bool, n)
	keep[0], keep[n-1] = true, true

	type span struct{ lo, hi int }
	stack := []span{{0, n - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.hi-s.lo < 2 {
			continue
		}

		split, maxDist := -1, 0.0
		for i := s.lo + 1; i < s.hi; i++ {
			if d := lineDistance(chain[i], chain[s.lo], chain[s.hi]); d > maxDist {
				split, maxDist = i, d
			}
		}
		if split >= 0 && maxDist > epsilon {
			keep[split] = true
			stack = append(stack, span{s.lo, split}, span{split, s.hi})
		}
	}

	out := make([]Point, 0, n)
	for i, k := range keep {
		if k {
			out = append(out, chain[i])
		}
	}
	return out
}

// lineDistance is the distance from p to the line through a and b, or to a
// when a and b coincide.
func lineDistance(p, a, b Point) float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	norm := math.Hypot(dx, dy)
	if norm == 0 {
		return dist(p, a)
	}
	return math.Abs(dx*float64(p.Y-a.Y)-dy*float64(p.X-a.X)) / norm
}

func dist(a, b Point) float64 {
	return math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
}
