package imaging

import (
	"image"
	"math"
)

const (
	// EdgeLowThreshold is the gradient magnitude a pixel needs to extend an edge.
	EdgeLowThreshold = 30

	// EdgeHighThreshold is the gradient magnitude a pixel needs to seed an edge.
	EdgeHighThreshold = 100
)

// DetectEdges produces the binary edge map of a normalized palm frame using
// the fixed palm thresholds.
func DetectEdges(gray *image.Gray) *image.Gray {
	return Canny(gray, EdgeLowThreshold, EdgeHighThreshold)
}

// Canny performs Canny edge detection on a grayscale image.
//
// The result has the same dimensions as the input, with edge pixels set to
// 255 and everything else 0. The input is expected to be smoothed already;
// no blur is applied here.
//
// # Algorithm
//
//  1. Gradient computation: 3x3 Sobel operators for X and Y gradients on
//     0-255 intensities, magnitude = |Gx| + |Gy|
//
//  2. Non-maximum suppression: thin edges to 1-pixel width by keeping only
//     local maxima along the gradient direction
//
//  3. Hysteresis: pixels above thresholdHigh seed edges; an edge grows into
//     8-connected neighbors whose magnitude is above thresholdLow, however
//     long the chain of weak pixels is
//
// Thresholds are in the same units as the Sobel magnitude, so a hard black
// to white step scores about 1020.
func Canny(gray *image.Gray, thresholdLow, thresholdHigh float64) *image.Gray {
	bounds := gray.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	result := image.NewGray(image.Rect(0, 0, width, height))
	if width < 3 || height < 3 {
		return result
	}

	at := func(x, y int) float64 {
		x = clamp(x, 0, width-1)
		y = clamp(y, 0, height-1)
		return float64(gray.Pix[gray.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)])
	}

	magnitude := make([]float64, width*height)
	direction := make([]float64, width*height)

	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := at(x+kx, y+ky)
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y*width+x] = math.Abs(gx) + math.Abs(gy)
			direction[y*width+x] = math.Atan2(gy, gx)
		}
	}

	// Non-maximum suppression
	suppressed := make([]float64, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			mag := magnitude[i]
			if mag <= thresholdLow {
				continue
			}

			// n1 is the neighbor to the left or above. On a plateau along
			// an axis the first pixel wins; diagonals must be strict peaks.
			angle := direction[i]
			var n1, n2 float64
			diagonal := false
			if (angle >= -math.Pi/8 && angle < math.Pi/8) || (angle >= 7*math.Pi/8 || angle < -7*math.Pi/8) {
				n1 = magnitude[i-1]
				n2 = magnitude[i+1]
			} else if (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8) {
				// Gradient points down-right (y grows downward)
				n1 = magnitude[i-width-1]
				n2 = magnitude[i+width+1]
				diagonal = true
			} else if (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8) {
				n1 = magnitude[i-width]
				n2 = magnitude[i+width]
			} else {
				n1 = magnitude[i-width+1]
				n2 = magnitude[i+width-1]
				diagonal = true
			}

			if mag > n1 && (mag > n2 || !diagonal && mag == n2) {
				suppressed[i] = mag
			}
		}
	}

	// Edge tracking by hysteresis
	stack := make([]int, 0, 1024)
	for i, v := range suppressed {
		if v > thresholdHigh && result.Pix[i] == 0 {
			result.Pix[i] = 255
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			px, py := p%width, p/width
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := px+dx, py+dy
					if nx < 0 || nx >= width || ny < 0 || ny >= height {
						continue
					}
					n := ny*width + nx
					if result.Pix[n] == 0 && suppressed[n] > thresholdLow {
						result.Pix[n] = 255
						stack = append(stack, n)
					}
				}
			}
		}
	}

	return result
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
