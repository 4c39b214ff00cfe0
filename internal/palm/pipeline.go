// Package palm runs the palm-line feature-extraction pipeline.
//
// A photo goes through four stages, each finishing before the next starts:
// normalization (imaging.Normalize), edge detection (imaging.DetectEdges),
// contour tracing (detection.FindContours) and feature filtering
// (detection.ExtractLineFeatures). Every call allocates its own buffers, so
// concurrent calls on different images need no coordination.
//
// All thresholds are fixed; callers only supply the image.
package palm

import (
	"image"

	"github.com/ironsheep/palmreader-mcp/internal/detection"
	"github.com/ironsheep/palmreader-mcp/internal/imaging"
)

// InvalidImageError reports an image that is absent or cannot be decoded.
type InvalidImageError = imaging.InvalidImageError

// LineFeature is the numeric summary of one palm line.
type LineFeature = detection.LineFeature

// Analysis holds the output of every pipeline stage for one image.
type Analysis struct {
	// Normalized is the 600x800 enhanced grayscale frame.
	Normalized *image.Gray

	// Edges is the binary edge map of Normalized.
	Edges *image.Gray

	// Contours is every traced border, in discovery order.
	Contours []detection.Contour

	// Lines is the subset of Contours that passed the feature filter,
	// aligned index by index with Features.
	Lines []detection.Contour

	// Features is the pipeline result.
	Features []LineFeature
}

// Extractor runs the pipeline on one decoded image.
type Extractor interface {
	Analyze(img image.Image) (*Analysis, error)
}

// Default is the extractor used by the package-level functions. It is the
// pure Go Pipeline unless the binary is built with the opencv tag.
var Default Extractor = newDefault()

// Pipeline is the pure Go implementation of the palm-line pipeline.
type Pipeline struct{}

// Analyze runs every stage on img and keeps the intermediate rasters.
// Returns *InvalidImageError if img is nil or empty.
func (Pipeline) Analyze(img image.Image) (*Analysis, error) {
	normalized, err := imaging.Normalize(img)
	if err != nil {
		return nil, err
	}
	edges := imaging.DetectEdges(normalized)
	contours := detection.FindContours(edges)

	return &Analysis{
		Normalized: normalized,
		Edges:      edges,
		Contours:   contours,
		Lines:      detection.LineContours(contours),
		Features:   detection.ExtractLineFeatures(contours),
	}, nil
}

// Analyze runs the Default extractor on img.
func Analyze(img image.Image) (*Analysis, error) {
	return Default.Analyze(img)
}

// ExtractFeatures returns the palm-line features of a decoded photo.
//
// Every returned feature has Length > 100 and Area > 50. The result is
// deterministic for identical input. Returns *InvalidImageError if img is
// nil or empty.
func ExtractFeatures(img image.Image) ([]LineFeature, error) {
	a, err := Default.Analyze(img)
	if err != nil {
		return nil, err
	}
	return a.Features, nil
}

// ExtractFeaturesFromFile decodes the image at path and extracts its features.
// A missing or undecodable file yields *InvalidImageError.
func ExtractFeaturesFromFile(path string) ([]LineFeature, error) {
	img, err := imaging.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return ExtractFeatures(img)
}

// ExtractFeaturesFromBytes decodes data and extracts its features.
// Empty or undecodable data yields *InvalidImageError.
func ExtractFeaturesFromBytes(data []byte) ([]LineFeature, error) {
	img, _, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}
	return ExtractFeatures(img)
}
