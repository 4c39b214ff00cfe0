package imaging

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

func TestNormalize_Dimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"small landscape", 100, 50},
		{"already normalized", 600, 800},
		{"large portrait", 1200, 1600},
		{"single pixel", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := solidImage(tt.width, tt.height, color.RGBA{200, 150, 120, 255})
			out, err := Normalize(img)
			if err != nil {
				t.Fatalf("Normalize failed: %v", err)
			}
			b := out.Bounds()
			if b.Dx() != NormalizedWidth || b.Dy() != NormalizedHeight {
				t.Errorf("dimensions: got %dx%d, want %dx%d", b.Dx(), b.Dy(), NormalizedWidth, NormalizedHeight)
			}
		})
	}
}

func TestNormalize_UniformStaysUniform(t *testing.T) {
	out, err := Normalize(solidImage(300, 400, color.RGBA{90, 90, 90, 255}))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	first := out.Pix[0]
	for i, v := range out.Pix {
		if v != first {
			t.Fatalf("pixel %d = %d, want %d", i, v, first)
		}
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 4), uint8(y * 5), uint8(x ^ y), 255})
		}
	}

	a, err := Normalize(img)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Normalize(img)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("pixel %d differs between runs: %d vs %d", i, a.Pix[i], b.Pix[i])
		}
	}
}

func TestNormalize_Empty(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
	}{
		{"nil", nil},
		{"zero size", image.NewRGBA(image.Rect(0, 0, 0, 0))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.img)
			var invalid *InvalidImageError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected *InvalidImageError, got %v", err)
			}
			if !errors.Is(err, ErrEmptyImage) {
				t.Error("error should wrap ErrEmptyImage")
			}
		})
	}
}

func TestGaussianKernel(t *testing.T) {
	k := gaussianKernel(5, 0)
	if k.MaxX() != 5 || k.MaxY() != 5 {
		t.Fatalf("kernel size: got %dx%d, want 5x5", k.MaxX(), k.MaxY())
	}

	var sum float64
	for _, w := range k.Matrix {
		sum += w
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("weights sum to %f, want 1", sum)
	}

	// Symmetric around the center, peaked in the middle
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			if k.At(x, y) != k.At(4-x, 4-y) {
				t.Errorf("kernel not symmetric at (%d,%d)", x, y)
			}
			if k.At(x, y) > k.At(2, 2) {
				t.Errorf("weight at (%d,%d) exceeds center weight", x, y)
			}
		}
	}
}

func TestGaussianKernel_BinomialTable(t *testing.T) {
	k := gaussianKernel(5, 0)
	row := []float64{1, 4, 6, 4, 1}
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			want := row[y] * row[x] / 256
			if got := k.At(x, y); math.Abs(got-want) > 1e-12 {
				t.Errorf("weight (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestGaussianKernel_DerivedSigma(t *testing.T) {
	// size 9 has no table; sigma is 0.3*((9-1)*0.5-1)+0.8 = 1.7
	k := gaussianKernel(9, 0)
	ratio := k.At(4, 4) / k.At(5, 4)
	want := math.Exp(1 / (2 * 1.7 * 1.7))
	if math.Abs(ratio-want) > 1e-9 {
		t.Errorf("center/neighbor ratio = %f, want %f", ratio, want)
	}
}

func TestNormalize_ColorInput(t *testing.T) {
	// Red on the left, blue on the right.
	img := image.NewRGBA(image.Rect(0, 0, 300, 400))
	for y := 0; y < 400; y++ {
		for x := 0; x < 300; x++ {
			c := color.RGBA{255, 0, 0, 255}
			if x >= 150 {
				c = color.RGBA{0, 0, 255, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}

	out, err := Normalize(img)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if b := out.Bounds(); b.Dx() != NormalizedWidth || b.Dy() != NormalizedHeight {
		t.Fatalf("dimensions: got %v", b)
	}
	left, right := out.GrayAt(100, 400).Y, out.GrayAt(500, 400).Y
	if left <= right {
		t.Errorf("red half (%d) should be brighter than blue half (%d)", left, right)
	}
}

func TestToGray(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.Pix[0], gray.Pix[1] = 10, 20
	if got := toGray(gray); got != gray {
		t.Error("a *image.Gray should pass through unchanged")
	}

	rgba := image.NewRGBA(image.Rect(5, 5, 7, 6))
	rgba.SetRGBA(5, 5, color.RGBA{30, 30, 30, 255})
	rgba.SetRGBA(6, 5, color.RGBA{40, 40, 40, 255})
	got := toGray(rgba)
	if got.Bounds() != image.Rect(0, 0, 2, 1) || got.Pix[0] != 30 || got.Pix[1] != 40 {
		t.Errorf("RGBA: got %v %v", got.Bounds(), got.Pix)
	}

	nrgba := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	nrgba.SetNRGBA(0, 0, color.NRGBA{50, 50, 50, 255})
	if got := toGray(nrgba); got.Pix[0] != 50 {
		t.Errorf("NRGBA: got %d, want 50", got.Pix[0])
	}
}

func TestReflect101(t *testing.T) {
	tests := []struct{ i, n, want int }{
		{0, 5, 0},
		{4, 5, 4},
		{-1, 5, 1},
		{-2, 5, 2},
		{5, 5, 3},
		{6, 5, 2},
		{-3, 1, 0},
	}
	for _, tt := range tests {
		if got := reflect101(tt.i, tt.n); got != tt.want {
			t.Errorf("reflect101(%d, %d) = %d, want %d", tt.i, tt.n, got, tt.want)
		}
	}
}

func TestConvolveGray_RoundsAndMirrorsBorders(t *testing.T) {
	k := gaussianKernel(3, 0)

	spot := image.NewGray(image.Rect(0, 0, 5, 5))
	spot.SetGray(2, 2, color.Gray{255})
	out := convolveGray(spot, k)
	// 255/4 = 63.75, 255/8 = 31.875, 255/16 = 15.9375
	for _, c := range []struct {
		x, y int
		want uint8
	}{{2, 2, 64}, {1, 2, 32}, {1, 1, 16}, {0, 0, 0}} {
		if got := out.GrayAt(c.x, c.y).Y; got != c.want {
			t.Errorf("(%d,%d) = %d, want %d", c.x, c.y, got, c.want)
		}
	}

	// Column -1 mirrors column 1 (dark), not column 0.
	edge := image.NewGray(image.Rect(0, 0, 5, 5))
	edge.SetGray(0, 2, color.Gray{255})
	if got := convolveGray(edge, k).GrayAt(0, 2).Y; got != 64 {
		t.Errorf("border pixel = %d, want 64", got)
	}
}

func TestSharpenKernel_PreservesFlat(t *testing.T) {
	src := grayFunc(10, 10, func(_, _ int) uint8 { return 77 })
	out := convolveGray(src, sharpenKernel())
	for i, v := range out.Pix {
		if v != 77 {
			t.Fatalf("pixel %d = %d, want 77", i, v)
		}
	}
}
