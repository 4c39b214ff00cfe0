package imaging

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxFolderPixels is the pixel count above which folder images are downscaled.
	MaxFolderPixels = 4_000_000

	// Folder images above MaxFolderPixels are resized to this size.
	folderDownscaleWidth  = 800
	folderDownscaleHeight = 600
)

// folderExtensions lists the file extensions ListFolder picks up.
var folderExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// FolderImage is one decoded image found by ListFolder.
type FolderImage struct {
	// Path is the full path of the image file.
	Path string `json:"path"`

	// Name is the base file name, used for display and selection.
	Name string `json:"name"`

	// Width and Height are the dimensions after any downscaling.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Downscaled reports whether the image exceeded MaxFolderPixels.
	Downscaled bool `json:"downscaled"`

	// Image is the decoded raster.
	Image image.Image `json:"-"`
}

// ListFolder decodes every image file in dir, in file name order.
//
// Files are matched by extension (case-insensitive). Undecodable files are
// skipped and logged at debug level. Images with more than MaxFolderPixels
// pixels are resized to 800x600. Decoding fans out over a bounded number of
// goroutines; the result order does not depend on scheduling.
//
// Returns an error only when the directory cannot be read or ctx is done.
func ListFolder(ctx context.Context, dir string, logger *slog.Logger) ([]FolderImage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder: %w", err)
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if folderExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}

	slots := make([]*FolderImage, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := LoadFile(path)
			if err != nil {
				logger.Debug("skipping undecodable image", "path", path, "error", err)
				return nil
			}
			slots[i] = downscaleFolderImage(path, img)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	images := make([]FolderImage, 0, len(slots))
	for _, s := range slots {
		if s != nil {
			images = append(images, *s)
		}
	}
	logger.Debug("listed folder", "dir", dir, "candidates", len(paths), "images", len(images))
	return images, nil
}

func downscaleFolderImage(path string, img image.Image) *FolderImage {
	b := img.Bounds()
	fi := &FolderImage{
		Path:   path,
		Name:   filepath.Base(path),
		Width:  b.Dx(),
		Height: b.Dy(),
		Image:  img,
	}
	if b.Dx()*b.Dy() > MaxFolderPixels {
		fi.Image = imaging.Resize(img, folderDownscaleWidth, folderDownscaleHeight, imaging.Linear)
		fi.Width = folderDownscaleWidth
		fi.Height = folderDownscaleHeight
		fi.Downscaled = true
	}
	return fi
}
