package palm

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/palmreader-mcp/internal/detection"
	"github.com/ironsheep/palmreader-mcp/internal/imaging"
)

// canvas returns a white 600x800 RGBA image with the pixels for which
// dark returns true painted black.
func canvas(dark func(x, y int) bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, imaging.NormalizedWidth, imaging.NormalizedHeight))
	for y := 0; y < imaging.NormalizedHeight; y++ {
		for x := 0; x < imaging.NormalizedWidth; x++ {
			c := color.RGBA{255, 255, 255, 255}
			if dark != nil && dark(x, y) {
				c = color.RGBA{0, 0, 0, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func disk(cx, cy, r int) func(x, y int) bool {
	return func(x, y int) bool {
		dx, dy := x-cx, y-cy
		return dx*dx+dy*dy <= r*r
	}
}

// arc paints a stroke of the given width along a circle of radius r
// centered at (cx, cy), spanning length pixels of arc around the top.
func arc(cx, cy, r, width int, length float64) func(x, y int) bool {
	half := length / 2 / float64(r)
	return func(x, y int) bool {
		dx, dy := float64(x-cx), float64(y-cy)
		d := math.Hypot(dx, dy)
		if math.Abs(d-float64(r)) > float64(width)/2 {
			return false
		}
		return math.Abs(math.Atan2(dx, -dy)) <= half
	}
}

func assertThresholds(t *testing.T, features []LineFeature) {
	t.Helper()
	for i, f := range features {
		if f.Length <= detection.MinLineLength {
			t.Errorf("feature %d length %.2f not above %.0f", i, f.Length, detection.MinLineLength)
		}
		if f.Area <= detection.MinLineArea {
			t.Errorf("feature %d area %.2f not above %.0f", i, f.Area, detection.MinLineArea)
		}
		if f.Points < 1 {
			t.Errorf("feature %d has no vertices", i)
		}
	}
}

func TestExtractFeatures_UniformImages(t *testing.T) {
	tests := []struct {
		name string
		c    color.RGBA
	}{
		{"black", color.RGBA{0, 0, 0, 255}},
		{"white", color.RGBA{255, 255, 255, 255}},
		{"skin", color.RGBA{224, 172, 105, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, 320, 240))
			for i := 0; i < len(img.Pix); i += 4 {
				img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = tt.c.R, tt.c.G, tt.c.B, tt.c.A
			}

			features, err := ExtractFeatures(img)
			if err != nil {
				t.Fatalf("ExtractFeatures failed: %v", err)
			}
			if features == nil || len(features) != 0 {
				t.Errorf("got %v, want an empty list", features)
			}
		})
	}
}

func TestExtractFeatures_Disk(t *testing.T) {
	features, err := ExtractFeatures(canvas(disk(300, 400, 80)))
	if err != nil {
		t.Fatalf("ExtractFeatures failed: %v", err)
	}
	if len(features) == 0 {
		t.Fatal("expected at least one feature around the disk")
	}
	assertThresholds(t, features)

	big := false
	for _, f := range features {
		if f.Area > 10000 {
			big = true
		}
	}
	if !big {
		t.Errorf("no feature encloses the disk: %+v", features)
	}
}

func TestExtractFeatures_SmallBlobBelowThreshold(t *testing.T) {
	blob := func(x, y int) bool { return x >= 290 && x < 310 && y >= 398 && y < 403 }

	features, err := ExtractFeatures(canvas(blob))
	if err != nil {
		t.Fatalf("ExtractFeatures failed: %v", err)
	}
	if len(features) != 0 {
		t.Errorf("got %+v, want no features for a short outline", features)
	}
}

func TestExtractFeatures_DrawnCurve(t *testing.T) {
	// A 7px stroke along 137px of arc traces as a closed ring of about
	// 300px whose enclosed area is about 1000px². The ring yields an outer
	// border and the hole border just inside it.
	a, err := Analyze(canvas(arc(300, 650, 250, 7, 137)))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	assertThresholds(t, a.Features)

	var outer []int
	for i, c := range a.Lines {
		if !c.Hole {
			outer = append(outer, i)
		}
	}
	if len(outer) != 1 {
		t.Fatalf("got %d outer line features, want exactly 1: %+v", len(outer), a.Features)
	}
	for i, c := range a.Lines {
		if c.Hole && c.Parent < 0 {
			t.Errorf("hole feature %d has no enclosing border", i)
		}
	}
	if len(a.Features) > 2 {
		t.Errorf("got %d features, want the outer border and at most its hole", len(a.Features))
	}

	f := a.Features[outer[0]]
	if math.Abs(f.Length-300) > 60 {
		t.Errorf("length = %.2f, want about 300", f.Length)
	}
	if math.Abs(f.Area-1000) > 300 {
		t.Errorf("area = %.2f, want about 1000", f.Area)
	}
	if f.Points < 2 {
		t.Errorf("points = %d, want at least 2", f.Points)
	}
}

func TestExtractFeatures_ShortCurveBelowThreshold(t *testing.T) {
	// A 3px stroke along 22px of arc traces as a ring of about 50px.
	features, err := ExtractFeatures(canvas(arc(300, 650, 250, 3, 22)))
	if err != nil {
		t.Fatalf("ExtractFeatures failed: %v", err)
	}
	if features == nil || len(features) != 0 {
		t.Errorf("got %+v, want an empty list", features)
	}
}

func TestExtractFeatures_ConcurrentCallsMatchSerial(t *testing.T) {
	images := []image.Image{
		canvas(disk(300, 400, 80)),
		canvas(disk(150, 200, 60)),
		canvas(arc(300, 650, 250, 7, 137)),
		canvas(func(x, y int) bool { return x >= 350 && x < 550 && y >= 500 && y < 540 }),
	}

	want := make([][]LineFeature, len(images))
	for i, img := range images {
		f, err := ExtractFeatures(img)
		if err != nil {
			t.Fatal(err)
		}
		want[i] = f
	}

	const rounds = 3
	got := make([][]LineFeature, len(images)*rounds)
	errs := make([]error, len(got))
	var wg sync.WaitGroup
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], errs[i] = ExtractFeatures(images[i%len(images)])
		}(i)
	}
	wg.Wait()

	for i := range got {
		if errs[i] != nil {
			t.Fatalf("call %d failed: %v", i, errs[i])
		}
		if diff := cmp.Diff(want[i%len(images)], got[i]); diff != "" {
			t.Errorf("call %d differs from the serial run (-serial +parallel):\n%s", i, diff)
		}
	}
}

func TestExtractFeatures_Deterministic(t *testing.T) {
	shapes := func(x, y int) bool {
		return disk(150, 200, 60)(x, y) ||
			(x >= 350 && x < 550 && y >= 500 && y < 540) ||
			(y > x+100 && y < x+110 && x < 300)
	}
	img := canvas(shapes)

	first, err := ExtractFeatures(img)
	if err != nil {
		t.Fatal(err)
	}
	second, err := ExtractFeatures(img)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("results differ between runs (-first +second):\n%s", diff)
	}
	assertThresholds(t, first)
}

func TestExtractFeatures_RoundedToTwoDecimals(t *testing.T) {
	features, err := ExtractFeatures(canvas(disk(300, 400, 120)))
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range features {
		for _, v := range []float64{f.Length, f.Area} {
			if scaled := v * 100; math.Abs(scaled-math.Round(scaled)) > 1e-6 {
				t.Errorf("value %v has more than two decimals", v)
			}
		}
	}
}

func TestExtractFeatures_InvalidImage(t *testing.T) {
	var invalid *InvalidImageError

	_, err := ExtractFeatures(nil)
	if !errors.As(err, &invalid) {
		t.Errorf("nil image: expected *InvalidImageError, got %v", err)
	}

	_, err = ExtractFeatures(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	if !errors.As(err, &invalid) {
		t.Errorf("empty image: expected *InvalidImageError, got %v", err)
	}

	_, err = ExtractFeaturesFromFile(filepath.Join(t.TempDir(), "missing.jpg"))
	if !errors.As(err, &invalid) {
		t.Errorf("missing file: expected *InvalidImageError, got %v", err)
	}

	_, err = ExtractFeaturesFromBytes([]byte("GIF89a but not really"))
	if !errors.As(err, &invalid) {
		t.Errorf("bad bytes: expected *InvalidImageError, got %v", err)
	}

	_, err = ExtractFeaturesFromBytes(nil)
	if !errors.As(err, &invalid) {
		t.Errorf("no bytes: expected *InvalidImageError, got %v", err)
	}
}

func TestExtractFeaturesFromFileAndBytes(t *testing.T) {
	img := canvas(disk(300, 400, 80))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "palm.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	direct, err := ExtractFeatures(img)
	if err != nil {
		t.Fatal(err)
	}
	fromFile, err := ExtractFeaturesFromFile(path)
	if err != nil {
		t.Fatalf("ExtractFeaturesFromFile failed: %v", err)
	}
	fromBytes, err := ExtractFeaturesFromBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("ExtractFeaturesFromBytes failed: %v", err)
	}

	if diff := cmp.Diff(direct, fromFile); diff != "" {
		t.Errorf("file result differs (-direct +file):\n%s", diff)
	}
	if diff := cmp.Diff(direct, fromBytes); diff != "" {
		t.Errorf("bytes result differs (-direct +bytes):\n%s", diff)
	}
}

func TestAnalyze_Stages(t *testing.T) {
	a, err := Analyze(canvas(disk(300, 400, 80)))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	want := image.Rect(0, 0, imaging.NormalizedWidth, imaging.NormalizedHeight)
	if a.Normalized.Bounds() != want {
		t.Errorf("Normalized bounds: got %v, want %v", a.Normalized.Bounds(), want)
	}
	if a.Edges.Bounds() != want {
		t.Errorf("Edges bounds: got %v, want %v", a.Edges.Bounds(), want)
	}
	for i, v := range a.Edges.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("edge pixel %d = %d, want 0 or 255", i, v)
		}
	}
	if len(a.Lines) != len(a.Features) {
		t.Errorf("got %d line contours for %d features", len(a.Lines), len(a.Features))
	}
	if len(a.Contours) < len(a.Lines) {
		t.Errorf("fewer contours (%d) than kept lines (%d)", len(a.Contours), len(a.Lines))
	}
}

func TestAnalyze_AnyInputSize(t *testing.T) {
	for _, size := range []image.Point{{1, 1}, {37, 91}, {1600, 1200}} {
		img := image.NewRGBA(image.Rectangle{Max: size})
		a, err := Analyze(img)
		if err != nil {
			t.Fatalf("%v: Analyze failed: %v", size, err)
		}
		if a.Normalized.Bounds().Dx() != imaging.NormalizedWidth || a.Normalized.Bounds().Dy() != imaging.NormalizedHeight {
			t.Errorf("%v: normalized to %v", size, a.Normalized.Bounds())
		}
	}
}
