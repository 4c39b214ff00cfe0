package detection

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// MinLineLength is the arc length a contour must exceed to count as a palm line.
	MinLineLength = 100.0

	// MinLineArea is the enclosed area a contour must exceed to count as a palm line.
	MinLineArea = 50.0

	// approxEpsilonRatio scales the contour length into the polygon
	// simplification tolerance.
	approxEpsilonRatio = 0.01
)

// LineFeature is the numeric summary of one palm-line contour.
type LineFeature struct {
	// Length is the open arc length of the contour, rounded to 2 decimals.
	Length float64 `json:"length" yaml:"length"`

	// Area is the shoelace area of the contour, rounded to 2 decimals.
	Area float64 `json:"area" yaml:"area"`

	// Points is the vertex count of the simplified polygon.
	Points int `json:"points" yaml:"points"`
}

// ExtractLineFeatures measures every contour and keeps the palm-line candidates.
//
// A contour is kept when its length exceeds MinLineLength and its area
// exceeds MinLineArea; the comparison uses unrounded values. The output keeps
// contour discovery order.
func ExtractLineFeatures(contours []Contour) []LineFeature {
	features := make([]LineFeature, 0)
	for _, c := range contours {
		f, ok := measure(c.Points)
		if ok {
			features = append(features, f)
		}
	}
	return features
}

// LineContours returns the contours that ExtractLineFeatures would keep,
// in the same order as the features.
func LineContours(contours []Contour) []Contour {
	kept := make([]Contour, 0)
	for _, c := range contours {
		if _, ok := measure(c.Points); ok {
			kept = append(kept, c)
		}
	}
	return kept
}

func measure(pts []Point) (LineFeature, bool) {
	length := ArcLength(pts, false)
	area := ContourArea(pts)
	if length <= MinLineLength || area <= MinLineArea {
		return LineFeature{}, false
	}
	approx := ApproxPolyDP(pts, approxEpsilonRatio*length, true)
	return LineFeature{
		Length: round2(length),
		Area:   round2(area),
		Points: len(approx),
	}, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Summary aggregates a feature set.
type Summary struct {
	Count        int     `json:"count" yaml:"count"`
	TotalLength  float64 `json:"total_length" yaml:"total_length"`
	MeanLength   float64 `json:"mean_length" yaml:"mean_length"`
	StdDevLength float64 `json:"stddev_length" yaml:"stddev_length"`
	MaxLength    float64 `json:"max_length" yaml:"max_length"`
	MeanArea     float64 `json:"mean_area" yaml:"mean_area"`
	MeanPoints   float64 `json:"mean_points" yaml:"mean_points"`
}

// Summarize computes aggregate statistics over features.
// An empty input yields a zero Summary.
func Summarize(features []LineFeature) Summary {
	if len(features) == 0 {
		return Summary{}
	}

	lengths := make([]float64, len(features))
	areas := make([]float64, len(features))
	points := make([]float64, len(features))
	for i, f := range features {
		lengths[i] = f.Length
		areas[i] = f.Area
		points[i] = float64(f.Points)
	}

	s := Summary{
		Count:       len(features),
		TotalLength: round2(floats.Sum(lengths)),
		MeanLength:  round2(stat.Mean(lengths, nil)),
		MaxLength:   floats.Max(lengths),
		MeanArea:    round2(stat.Mean(areas, nil)),
		MeanPoints:  round2(stat.Mean(points, nil)),
	}
	if len(lengths) > 1 {
		s.StdDevLength = round2(stat.StdDev(lengths, nil))
	}
	return s
}
