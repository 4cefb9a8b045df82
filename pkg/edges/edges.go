// Package edges turns images into boundary masks: a find-edges convolution,
// a lightness threshold, and a cleanup pass that thins runs of boundary
// pixels down to their leftmost member.
package edges

import (
	"image"

	"github.com/disintegration/gift"
	"github.com/nfnt/resize"

	"pixelsort/internal/models"
	"pixelsort/pkg/metric"
)

// findEdgesKernel is the 3x3 Laplacian used by common "find edges" filters
var findEdgesKernel = []float32{
	-1, -1, -1,
	-1, 8, -1,
	-1, -1, -1,
}

// Detector applies the find-edges filter
type Detector struct {
	filter *gift.GIFT
}

// NewDetector creates a detector with the find-edges kernel
func NewDetector() *Detector {
	return &Detector{
		filter: gift.New(gift.Convolution(findEdgesKernel, false, false, false, 0)),
	}
}

// DetectEdges returns the edge magnitude image of img. Alpha is carried over
// from the source.
func (d *Detector) DetectEdges(img image.Image) *image.NRGBA {
	dst := image.NewNRGBA(d.filter.Bounds(img.Bounds()))
	d.filter.Draw(dst, img)
	return dst
}

// DetectEdgesWithThreshold filters img and marks every pixel whose edge
// lightness is at least threshold
func (d *Detector) DetectEdgesWithThreshold(img image.Image, threshold float64) [][]bool {
	return Threshold(d.DetectEdges(img), threshold)
}

// Threshold marks pixels whose lightness is at least threshold. Darker pixels
// are left unmarked.
func Threshold(img image.Image, threshold float64) [][]bool {
	bounds := img.Bounds()
	mask := make([][]bool, bounds.Dy())
	row := make([]models.Pixel, bounds.Dx())
	for y := range mask {
		models.FillRow(img, y, row)
		mask[y] = make([]bool, len(row))
		for x, p := range row {
			mask[y][x] = metric.Lightness(p) >= threshold
		}
	}
	return mask
}

// ExactBlack marks pixels that are exactly opaque black
func ExactBlack(img image.Image) [][]bool {
	bounds := img.Bounds()
	mask := make([][]bool, bounds.Dy())
	row := make([]models.Pixel, bounds.Dx())
	for y := range mask {
		models.FillRow(img, y, row)
		mask[y] = make([]bool, len(row))
		for x, p := range row {
			mask[y][x] = p == models.Black
		}
	}
	return mask
}

// Resize scales img to exactly width x height with Lanczos resampling
func Resize(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	return resize.Resize(uint(width), uint(height), img, resize.Lanczos3)
}

// Thin walks a mask row right to left and clears every marked pixel whose
// left neighbor is also marked, so each run keeps only its first pixel
func Thin(row []bool) {
	for x := len(row) - 1; x >= 1; x-- {
		if row[x] && row[x-1] {
			row[x] = false
		}
	}
}

// RowBoundaries converts a mask row into interval ends. Column 0 never
// starts a new interval and the row width is always the final entry.
func RowBoundaries(row []bool) []int {
	out := make([]int, 0, 8)
	for x := 1; x < len(row); x++ {
		if row[x] {
			out = append(out, x)
		}
	}
	return append(out, len(row))
}
