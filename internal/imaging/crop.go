package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Regions lists the names accepted by RegionRect.
var Regions = []string{
	"full",
	"top-left", "top-right", "bottom-left", "bottom-right",
	"top-half", "bottom-half", "left-half", "right-half",
	"center",
}

// RegionRect returns the named part of bounds.
//
// On a normalized palm frame the top half holds the finger bases and the
// heart line, and the bottom half the life line and the wrist. "" and
// "full" select the whole of bounds.
func RegionRect(bounds image.Rectangle, region string) (image.Rectangle, error) {
	w := bounds.Dx()
	h := bounds.Dy()
	midX := w / 2
	midY := h / 2

	var x1, y1, x2, y2 int

	switch region {
	case "", "full":
		return bounds, nil
	case "top-left":
		x1, y1, x2, y2 = 0, 0, midX, midY
	case "top-right":
		x1, y1, x2, y2 = midX, 0, w, midY
	case "bottom-left":
		x1, y1, x2, y2 = 0, midY, midX, h
	case "bottom-right":
		x1, y1, x2, y2 = midX, midY, w, h
	case "top-half":
		x1, y1, x2, y2 = 0, 0, w, midY
	case "bottom-half":
		x1, y1, x2, y2 = 0, midY, w, h
	case "left-half":
		x1, y1, x2, y2 = 0, 0, midX, h
	case "right-half":
		x1, y1, x2, y2 = midX, 0, w, h
	case "center":
		// Center 50% of the image
		qW := w / 4
		qH := h / 4
		x1, y1, x2, y2 = qW, qH, w-qW, h-qH
	default:
		return image.Rectangle{}, fmt.Errorf("unknown region: %s", region)
	}

	return image.Rect(x1, y1, x2, y2).Add(bounds.Min), nil
}

// Zoom crops img to the named region and scales it by scale.
//
// A scale of 0 or 1 keeps the cropped size. Enlarging uses Lanczos
// resampling so thin edge pixels stay visible. The result's bounds start at
// the origin.
func Zoom(img image.Image, region string, scale float64) (image.Image, error) {
	if scale < 0 {
		return nil, fmt.Errorf("invalid scale %g: must not be negative", scale)
	}
	rect, err := RegionRect(img.Bounds(), region)
	if err != nil {
		return nil, err
	}
	if rect.Empty() {
		return nil, fmt.Errorf("region %s of a %dx%d image is empty", region, img.Bounds().Dx(), img.Bounds().Dy())
	}

	var out image.Image = imaging.Crop(img, rect)
	if scale != 0 && scale != 1 {
		newWidth := int(float64(rect.Dx()) * scale)
		newHeight := int(float64(rect.Dy()) * scale)
		if newWidth < 1 || newHeight < 1 {
			return nil, fmt.Errorf("scale %g leaves nothing of a %dx%d region", scale, rect.Dx(), rect.Dy())
		}
		out = imaging.Resize(out, newWidth, newHeight, imaging.Lanczos)
	}
	return out, nil
}
