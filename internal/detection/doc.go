// Package detection turns a binary edge map into palm-line features.
//
// It traces contours in the edge map, measures each one and keeps the
// contours that are long and large enough to be palm lines.
//
// # Pipeline
//
//  1. Contour tracing: FindContours follows every outer and hole border
//     (full hierarchy) and compresses straight runs to their endpoints
//  2. Measurement: open arc length, shoelace area, and the vertex count of
//     a Douglas-Peucker simplification at 1% of the length
//  3. Filtering: contours with length <= 100 or area <= 50 are dropped
//
// The output keeps contour discovery order; nothing is re-sorted by length,
// area or position.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// # Area of Open Lines
//
// Palm lines are open curves, but ContourArea closes every polygon. The
// resulting area is approximate for open curves. The filter thresholds and
// the generated readings depend on this exact value, so it is kept as is.
//
// # Degenerate Input
//
// A blank or malformed edge map yields zero or few contours. None of the
// functions in this package return errors.
package detection
