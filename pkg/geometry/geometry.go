// Package geometry rotates images so that sorting at an arbitrary angle
// reduces to sorting rows, and rotates the result back into the original frame.
package geometry

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/kovidgoyal/imaging"
)

// ErrCanvasTooSmall is returned when the rotated canvas cannot contain the
// reference frame it is cropped to
var ErrCanvasTooSmall = errors.New("rotated canvas smaller than reference frame")

// IsIdentity reports whether angle is a whole number of turns.
// Both rotations are skipped for such angles.
func IsIdentity(angle float64) bool {
	return math.Mod(angle, 360) == 0
}

// Rotate turns img counterclockwise by angle degrees. The canvas grows to
// fit the rotated content and the uncovered area is transparent.
func Rotate(img image.Image, angle float64) *image.NRGBA {
	if IsIdentity(angle) {
		return imaging.Clone(img)
	}
	return imaging.Rotate(img, angle, color.Transparent)
}

// CropBox centers a refW x refH box inside a curW x curH canvas. Half
// differences are truncated, so an odd difference leaves the extra pixel
// on the right or bottom.
func CropBox(curW, curH, refW, refH int) (image.Rectangle, error) {
	dx := curW - refW
	dy := curH - refH
	if dx < 0 || dy < 0 {
		return image.Rectangle{}, fmt.Errorf("%w: canvas %dx%d, reference %dx%d",
			ErrCanvasTooSmall, curW, curH, refW, refH)
	}

	left := dx / 2
	top := dy / 2
	return image.Rect(left, top, left+refW, top+refH), nil
}

// Restore undoes Rotate: it turns img by 360-angle degrees and crops the
// result to the refW x refH frame of the original image
func Restore(img image.Image, angle float64, refW, refH int) (*image.NRGBA, error) {
	if IsIdentity(angle) {
		b := img.Bounds()
		if b.Dx() != refW || b.Dy() != refH {
			return nil, fmt.Errorf("%w: canvas %dx%d, reference %dx%d",
				ErrCanvasTooSmall, b.Dx(), b.Dy(), refW, refH)
		}
		return imaging.Clone(img), nil
	}

	rotated := imaging.Rotate(img, 360-angle, color.Transparent)
	b := rotated.Bounds()

	box, err := CropBox(b.Dx(), b.Dy(), refW, refH)
	if err != nil {
		return nil, err
	}
	return imaging.Crop(rotated, box.Add(b.Min)), nil
}
