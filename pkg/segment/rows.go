package segment

import (
	"pixelsort/internal/models"
	"pixelsort/pkg/config"
	"pixelsort/pkg/metric"
	"pixelsort/pkg/random"
)

// noneRow treats the whole row as one interval
func noneRow(row []models.Pixel, _ random.Source) []int {
	return []int{len(row)}
}

// thresholdRow starts a new interval at every pixel whose lightness falls
// outside [bottom, upper]
func thresholdRow(cfg config.SortConfig) rowFunc {
	bottom, upper := cfg.BottomThreshold, cfg.UpperThreshold
	return func(row []models.Pixel, _ random.Source) []int {
		out := make([]int, 0, 8)
		for x := 1; x < len(row); x++ {
			l := metric.Lightness(row[x])
			if l < bottom || l > upper {
				out = append(out, x)
			}
		}
		return append(out, len(row))
	}
}

// randomRow advances by floor(length * (1 - u)) per step, u uniform in
// [0, 1), so widths fall in [1, length]
func randomRow(length int) rowFunc {
	return func(row []models.Pixel, src random.Source) []int {
		return walk(len(row), func() int {
			return int(float64(length) * (1 - src.Float64()))
		})
	}
}

// wavesRow advances by length plus a jitter in [0, 10]
func wavesRow(length int) rowFunc {
	return func(row []models.Pixel, src random.Source) []int {
		return walk(len(row), func() int {
			return length + src.IntRange(0, 10)
		})
	}
}

// walk steps across a row of the given width and records each step end.
// Zero-width steps are widened to one pixel so the walk always terminates,
// and the final entry is clamped to width.
func walk(width int, step func() int) []int {
	out := make([]int, 0, 8)
	x := 0
	for {
		x += max(step(), 1)
		if x >= width {
			break
		}
		out = append(out, x)
	}
	return append(out, width)
}
