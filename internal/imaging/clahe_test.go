package imaging

import (
	"image"
	"testing"
)

func TestCLAHE_Uniform(t *testing.T) {
	src := grayFunc(64, 48, func(_, _ int) uint8 { return 140 })
	out := CLAHE(src, 2.0, 8, 8)

	if out.Bounds() != src.Bounds() {
		t.Fatalf("bounds: got %v, want %v", out.Bounds(), src.Bounds())
	}
	first := out.Pix[0]
	for i, v := range out.Pix {
		if v != first {
			t.Fatalf("pixel %d = %d, want uniform %d", i, v, first)
		}
	}
}

func TestCLAHE_StretchesLowContrast(t *testing.T) {
	src := grayFunc(66, 66, func(x, _ int) uint8 { return uint8(100 + x%11) })

	out := CLAHE(src, 0, 1, 1)

	lo, hi := uint8(255), uint8(0)
	for _, v := range out.Pix {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi != 255 {
		t.Errorf("brightest value = %d, want 255", hi)
	}
	if int(hi)-int(lo) < 200 {
		t.Errorf("output range %d..%d, want a spread of at least 200", lo, hi)
	}
}

func TestCLAHE_SubImageAndTinyInputs(t *testing.T) {
	full := grayFunc(40, 40, func(x, y int) uint8 { return uint8(x + y) })
	sub := full.SubImage(image.Rect(10, 10, 20, 20)).(*image.Gray)
	out := CLAHE(sub, 2.0, 8, 8)
	if out.Bounds() != image.Rect(0, 0, 10, 10) {
		t.Errorf("sub-image bounds: got %v", out.Bounds())
	}

	// More tiles than pixels must not panic
	tiny := grayFunc(3, 2, func(x, _ int) uint8 { return uint8(x) })
	if got := CLAHE(tiny, 2.0, 8, 8).Bounds(); got != image.Rect(0, 0, 3, 2) {
		t.Errorf("tiny bounds: got %v", got)
	}

	empty := image.NewGray(image.Rect(0, 0, 0, 0))
	if !CLAHE(empty, 2.0, 8, 8).Bounds().Empty() {
		t.Error("empty input should give empty output")
	}
}

func TestTileLUT_ClipRedistributes(t *testing.T) {
	var hist [256]int
	hist[50] = 256

	lut := tileLUT(hist, 256, 2.0)

	// The spike is clipped to 2 and the excess spread over every bin,
	// so the table ramps instead of jumping straight to 255 at 50.
	if lut[49] == 0 {
		t.Error("values below the spike should map above zero after redistribution")
	}
	if lut[255] != 255 {
		t.Errorf("lut[255] = %d, want 255", lut[255])
	}
	for i := 1; i < 256; i++ {
		if lut[i] < lut[i-1] {
			t.Fatalf("lut not monotonic at %d", i)
		}
	}
}
