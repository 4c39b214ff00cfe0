package imaging

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestListFolder(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "b.png", solidImage(30, 20, color.White))
	writePNG(t, dir, "a.PNG", solidImage(10, 10, color.Black))
	writePNG(t, dir, "notes.txt", solidImage(5, 5, color.White))
	if err := os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	images, err := ListFolder(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("ListFolder failed: %v", err)
	}

	if len(images) != 2 {
		t.Fatalf("got %d images, want 2 (broken and non-image files skipped)", len(images))
	}
	if images[0].Name != "a.PNG" || images[1].Name != "b.png" {
		t.Errorf("order: got %s, %s", images[0].Name, images[1].Name)
	}
	if images[1].Width != 30 || images[1].Height != 20 {
		t.Errorf("b.png dimensions: got %dx%d", images[1].Width, images[1].Height)
	}
	for _, img := range images {
		if img.Downscaled {
			t.Errorf("%s should not be downscaled", img.Name)
		}
		if img.Image == nil {
			t.Errorf("%s has no image", img.Name)
		}
	}
}

func TestListFolder_DownscalesLargeImages(t *testing.T) {
	dir := t.TempDir()
	// 2001 x 2000 = 4,002,000 pixels, just over the limit
	writePNG(t, dir, "large.png", image.NewGray(image.Rect(0, 0, 2001, 2000)))
	// 2000 x 2000 is exactly at the limit and stays as is
	writePNG(t, dir, "limit.png", image.NewGray(image.Rect(0, 0, 2000, 2000)))

	images, err := ListFolder(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("ListFolder failed: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("got %d images, want 2", len(images))
	}

	large := images[0]
	if !large.Downscaled {
		t.Error("large.png should be downscaled")
	}
	b := large.Image.Bounds()
	if b.Dx() != 800 || b.Dy() != 600 {
		t.Errorf("downscaled size: got %dx%d, want 800x600", b.Dx(), b.Dy())
	}

	if images[1].Downscaled {
		t.Error("limit.png should keep its size")
	}
}

func TestListFolder_Missing(t *testing.T) {
	_, err := ListFolder(context.Background(), filepath.Join(t.TempDir(), "001"), nil)
	if err == nil {
		t.Fatal("expected error for missing folder")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap os.ErrNotExist, got %v", err)
	}
}

func TestListFolder_Canceled(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", solidImage(10, 10, color.White))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ListFolder(ctx, dir, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
