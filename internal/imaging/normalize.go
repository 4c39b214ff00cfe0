package imaging

import (
	"image"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

const (
	// NormalizedWidth is the width of every normalized palm frame.
	NormalizedWidth = 600

	// NormalizedHeight is the height of every normalized palm frame.
	NormalizedHeight = 800

	claheClipLimit = 2.0
	claheGrid      = 8
	smoothingSize  = 5

	// ITU-R BT.601 luma weights.
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Normalize converts a color photo into the canonical grayscale palm frame.
//
// The output is always NormalizedWidth x NormalizedHeight regardless of the
// input dimensions. See the package documentation for the filter chain.
//
// Returns *InvalidImageError if img is nil or has no pixels.
func Normalize(img image.Image) (*image.Gray, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, &InvalidImageError{Err: ErrEmptyImage}
	}

	resized := imaging.Resize(img, NormalizedWidth, NormalizedHeight, imaging.Linear)
	gray := toGray(effect.GrayscaleWithWeights(resized, lumaR, lumaG, lumaB))
	enhanced := CLAHE(gray, claheClipLimit, claheGrid, claheGrid)
	sharp := convolveGray(enhanced, sharpenKernel())
	return convolveGray(sharp, gaussianKernel(smoothingSize, 0)), nil
}

// sharpenKernel returns the 3x3 cross-shaped sharpening kernel.
// Its weights sum to 1, so flat regions keep their brightness.
func sharpenKernel() *convolution.Kernel {
	k := convolution.NewKernel(3, 3)
	copy(k.Matrix, []float64{
		0, -1, 0,
		-1, 5, -1,
		0, -1, 0,
	})
	return k
}

// smallGaussianTables are the fixed binomial weights used for the common
// odd sizes when sigma is not given.
var smallGaussianTables = map[int][]float64{
	1: {1},
	3: {0.25, 0.5, 0.25},
	5: {0.0625, 0.25, 0.375, 0.25, 0.0625},
	7: {0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125},
}

// gaussianKernel builds a normalized size x size Gaussian kernel.
//
// A non-positive sigma selects the binomial table for sizes 1, 3, 5 and 7.
// Other sizes derive sigma as 0.3*((size-1)*0.5-1)+0.8.
func gaussianKernel(size int, sigma float64) *convolution.Kernel {
	weights := gaussianWeights(size, sigma)

	k := convolution.NewKernel(size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			k.Matrix[y*size+x] = weights[y] * weights[x]
		}
	}
	return k
}

func gaussianWeights(size int, sigma float64) []float64 {
	if sigma <= 0 {
		if table, ok := smallGaussianTables[size]; ok {
			return append([]float64(nil), table...)
		}
		sigma = 0.3*(float64(size-1)*0.5-1) + 0.8
	}

	weights := make([]float64, size)
	center := float64(size-1) / 2
	var sum float64
	for i := range weights {
		d := float64(i) - center
		weights[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

// toGray flattens a gray-valued image into a single channel.
func toGray(img image.Image) *image.Gray {
	switch src := img.(type) {
	case *image.Gray:
		return src
	case *image.RGBA:
		b := src.Bounds()
		out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := 0; y < b.Dy(); y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			row := out.Pix[y*out.Stride : y*out.Stride+b.Dx()]
			for x := range row {
				row[x] = src.Pix[off+x*4]
			}
		}
		return out
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// reflectPad returns src surrounded by r pixels mirrored about the edge
// pixel, which itself is not repeated (gfedcb|abcdefgh|gfedcba).
func reflectPad(src *image.Gray, r int) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w+2*r, h+2*r))
	for y := 0; y < h+2*r; y++ {
		sy := reflect101(y-r, h)
		for x := 0; x < w+2*r; x++ {
			out.Pix[y*out.Stride+x] = src.Pix[src.PixOffset(b.Min.X+reflect101(x-r, w), b.Min.Y+sy)]
		}
	}
	return out
}

func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		} else {
			i = 2*(n-1) - i
		}
	}
	return i
}

// convolveGray applies k to a grayscale image with mirrored borders,
// rounding each result to the nearest level.
func convolveGray(src *image.Gray, k *convolution.Kernel) *image.Gray {
	r := k.MaxX() / 2
	padded := reflectPad(src, r)
	rgba := convolution.Convolve(padded, k, &convolution.Options{Bias: 0.5, Wrap: false, KeepAlpha: true})

	b := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		srcOff := rgba.PixOffset(r, r+y)
		dstRow := out.Pix[y*out.Stride : y*out.Stride+b.Dx()]
		for x := range dstRow {
			// Channels are equal for a gray source; red is enough.
			dstRow[x] = rgba.Pix[srcOff+x*4]
		}
	}
	return out
}
