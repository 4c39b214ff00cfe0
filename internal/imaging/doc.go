// Package imaging provides the raster side of the palm-line pipeline.
//
// It loads and decodes palm photographs, normalizes them to the canonical
// 600x800 grayscale frame, and turns the normalized frame into a binary edge
// map. It also renders the PNG artifacts handed back to MCP clients (edge
// maps and contour overlays) and scans sample folders for images.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//
// The normalized frame is always NormalizedWidth pixels wide and
// NormalizedHeight pixels tall, whatever the aspect ratio of the input.
//
// # Normalization
//
// Normalize runs a fixed chain of filters:
//
//  1. Resize to 600x800 (aspect ratio is not preserved)
//  2. Grayscale conversion with BT.601 weights
//  3. CLAHE with clip limit 2.0 over an 8x8 tile grid
//  4. 3x3 sharpening kernel [[0,-1,0],[-1,5,-1],[0,-1,0]]
//  5. 5x5 Gaussian smoothing with the binomial weights [1 4 6 4 1]/16
//
// Both convolutions mirror the border without repeating the edge pixel and
// round each result to the nearest level.
//
// # Rendering
//
// Overlay draws traced contours over a frame, DrawGrid adds a labelled
// coordinate grid, and Zoom crops a named region (quadrant, half or center)
// and rescales it. EncodePNG packs the result for MCP responses.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Every other function is
// stateless and allocates its own buffers, so calls on different images can
// run in parallel without coordination.
//
// # Error Handling
//
// Images that are missing, empty or undecodable are reported as
// *InvalidImageError. Filters never fail on a well-formed raster.
package imaging
