package imaging

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrEmptyImage is wrapped by InvalidImageError when an image has no pixels.
var ErrEmptyImage = errors.New("image is empty")

// InvalidImageError reports an image that is absent or cannot be decoded.
//
// It is the only failure mode of the palm-line pipeline: everything after
// decoding degrades to fewer features instead of failing.
type InvalidImageError struct {
	// Path is the file the image was read from, empty for in-memory data.
	Path string

	// Err is the underlying open or decode error.
	Err error
}

func (e *InvalidImageError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("invalid image %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("invalid image: %v", e.Err)
}

func (e *InvalidImageError) Unwrap() error {
	return e.Err
}

// Decode decodes an in-memory image in any registered format.
//
// Returns the decoded image and the format name reported by the decoder.
// Empty or undecodable data yields *InvalidImageError.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", &InvalidImageError{Err: ErrEmptyImage}
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", &InvalidImageError{Err: fmt.Errorf("failed to decode image: %w", err)}
	}
	if img.Bounds().Empty() {
		return nil, "", &InvalidImageError{Err: ErrEmptyImage}
	}
	return img, format, nil
}

// Digest returns the hex SHA-256 of an encoded image. It identifies the
// exact bytes a decoded image came from.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ImageCache provides thread-safe caching of loaded images to avoid redundant disk reads.
//
// The cache stores decoded image.Image objects keyed by their file path,
// together with the digest of the bytes they were decoded from. The MCP
// server keeps one cache for its lifetime so that a client can extract features,
// render the edge map and ask for a reading on the same photo without decoding it
// three times.
//
// An entry is reloaded when the file's size or modification time changes.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]cachedImage
}

type cachedImage struct {
	img     image.Image
	digest  string
	size    int64
	modTime time.Time
}

func (e cachedImage) matches(info os.FileInfo) bool {
	return e.size == info.Size() && e.modTime.Equal(info.ModTime())
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]cachedImage),
	}
}

// Load retrieves an image from the cache or loads it from disk if not cached.
//
// The image is cached using the exact path string provided. A missing file or
// undecodable content is reported as *InvalidImageError carrying the path.
func (c *ImageCache) Load(path string) (image.Image, error) {
	img, _, err := c.LoadDigest(path)
	return img, err
}

// LoadDigest is Load that also returns the Digest of the bytes the image
// was decoded from. The pair always describes the same file content.
func (c *ImageCache) LoadDigest(path string) (image.Image, string, error) {
	if path == "" {
		return nil, "", &InvalidImageError{Err: errors.New("no image path given")}
	}
	info, err := os.Stat(path)
	if err != nil {
		c.evict(path)
		return nil, "", &InvalidImageError{Path: path, Err: fmt.Errorf("failed to open image: %w", err)}
	}

	c.mu.RLock()
	entry, ok := c.images[path]
	c.mu.RUnlock()
	if ok && entry.matches(info) {
		return entry.img, entry.digest, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		c.evict(path)
		return nil, "", &InvalidImageError{Path: path, Err: fmt.Errorf("failed to open image: %w", err)}
	}
	img, err := decodeFile(path, data)
	if err != nil {
		c.evict(path)
		return nil, "", err
	}

	entry = cachedImage{img: img, digest: Digest(data), size: info.Size(), modTime: info.ModTime()}
	c.mu.Lock()
	c.images[path] = entry
	c.mu.Unlock()

	return entry.img, entry.digest, nil
}

func (c *ImageCache) evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// LoadFile reads and decodes an image file without caching it.
func LoadFile(path string) (image.Image, error) {
	if path == "" {
		return nil, &InvalidImageError{Err: errors.New("no image path given")}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &InvalidImageError{Path: path, Err: fmt.Errorf("failed to open image: %w", err)}
	}
	return decodeFile(path, data)
}

func decodeFile(path string, data []byte) (image.Image, error) {
	img, _, err := Decode(data)
	if err != nil {
		var invalid *InvalidImageError
		if errors.As(err, &invalid) {
			invalid.Path = path
		}
		return nil, err
	}
	return img, nil
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Path is the file the metadata describes.
	Path string `json:"path"`

	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the format derived from the file extension, or "unknown".
	Format string `json:"format"`

	// HasAlpha indicates whether the decoded image carries an alpha channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image through the cache and returns its metadata.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	hasAlpha := false
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Path:          path,
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        formatFromExt(path),
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}

// formatFromExt maps a file extension to a format name.
func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	case ".bmp":
		return "bmp"
	case ".tif", ".tiff":
		return "tiff"
	case ".webp":
		return "webp"
	}
	return "unknown"
}
