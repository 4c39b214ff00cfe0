//go:build opencv

package palm

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/ironsheep/palmreader-mcp/internal/detection"
	"github.com/ironsheep/palmreader-mcp/internal/imaging"
)

// Backend names the extractor compiled into this binary.
const Backend = "opencv"

func newDefault() Extractor {
	return OpenCVPipeline{}
}

// OpenCVPipeline runs the palm-line pipeline through OpenCV.
//
// It applies the same stages and constants as Pipeline using the native
// OpenCV filters. Build with -tags opencv and an OpenCV 4 installation.
type OpenCVPipeline struct{}

// Analyze runs every stage on img and keeps the intermediate rasters.
func (OpenCVPipeline) Analyze(img image.Image) (*Analysis, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, &InvalidImageError{Err: imaging.ErrEmptyImage}
	}

	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, &InvalidImageError{Err: fmt.Errorf("failed to convert image: %w", err)}
	}
	defer src.Close()

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(src, &resized, image.Pt(imaging.NormalizedWidth, imaging.NormalizedHeight), 0, 0, gocv.InterpolationLinear)

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(resized, &gray, gocv.ColorBGRToGray)

	clahe := gocv.NewCLAHEWithParams(2.0, image.Pt(8, 8))
	defer clahe.Close()
	enhanced := gocv.NewMat()
	defer enhanced.Close()
	clahe.Apply(gray, &enhanced)

	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	defer kernel.Close()
	for r, row := range [3][3]float32{{0, -1, 0}, {-1, 5, -1}, {0, -1, 0}} {
		for c, v := range row {
			kernel.SetFloatAt(r, c, v)
		}
	}
	sharp := gocv.NewMat()
	defer sharp.Close()
	gocv.Filter2D(enhanced, &sharp, -1, kernel, image.Pt(-1, -1), 0, gocv.BorderDefault)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(sharp, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, imaging.EdgeLowThreshold, imaging.EdgeHighThreshold)

	hierarchy := gocv.NewMat()
	defer hierarchy.Close()
	found := gocv.FindContoursWithParams(edges, &hierarchy, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer found.Close()

	analysis := &Analysis{
		Contours: make([]detection.Contour, 0, found.Size()),
		Lines:    make([]detection.Contour, 0),
		Features: make([]LineFeature, 0),
	}

	for i := 0; i < found.Size(); i++ {
		pv := found.At(i)
		contour := detection.Contour{
			Points: toDetectionPoints(pv.ToPoints()),
			Parent: -1,
		}
		if !hierarchy.Empty() {
			contour.Parent = int(hierarchy.GetVeciAt(0, i)[3])
		}
		contour.Hole = depth(hierarchy, i)%2 == 1
		analysis.Contours = append(analysis.Contours, contour)

		length := gocv.ArcLength(pv, false)
		area := gocv.ContourArea(pv)
		if length <= detection.MinLineLength || area <= detection.MinLineArea {
			continue
		}
		approx := gocv.ApproxPolyDP(pv, 0.01*length, true)
		analysis.Lines = append(analysis.Lines, contour)
		analysis.Features = append(analysis.Features, LineFeature{
			Length: math.Round(length*100) / 100,
			Area:   math.Round(area*100) / 100,
			Points: approx.Size(),
		})
		approx.Close()
	}

	if analysis.Normalized, err = toGray(blurred); err != nil {
		return nil, err
	}
	if analysis.Edges, err = toGray(edges); err != nil {
		return nil, err
	}
	return analysis, nil
}

// depth counts the ancestors of contour i in an OpenCV hierarchy.
func depth(hierarchy gocv.Mat, i int) int {
	if hierarchy.Empty() {
		return 0
	}
	d := 0
	for p := hierarchy.GetVeciAt(0, i)[3]; p >= 0; p = hierarchy.GetVeciAt(0, int(p))[3] {
		d++
	}
	return d
}

func toDetectionPoints(pts []image.Point) []detection.Point {
	out := make([]detection.Point, len(pts))
	for i, p := range pts {
		out[i] = detection.Point{X: p.X, Y: p.Y}
	}
	return out
}

func toGray(m gocv.Mat) (*image.Gray, error) {
	img, err := m.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert mat: %w", err)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("unexpected mat image type %T", img)
	}
	return gray, nil
}
