package pipeline

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"pixelsort/internal/models"
	"pixelsort/pkg/metric"
)

// RunReport summarizes one RunSort call
type RunReport struct {
	// Segmenter and Metric are the resolved algorithm names
	Segmenter string
	Metric    string

	// Rule and Scale describe the automaton mask; both are -1 when no mask
	// was generated
	Rule  int
	Scale int

	// Width and Height of the source image
	Width  int
	Height int

	// Intervals is the number of non-empty intervals; Sorted of them were
	// sorted and Skipped were left alone by the randomness draw
	Intervals int
	Sorted    int
	Skipped   int

	// MeanInterval and StdDevInterval describe the interval lengths
	MeanInterval   float64
	StdDevInterval float64

	// Lightness statistics of the rotated buffer before and after sorting
	MeanLightnessBefore   float64
	StdDevLightnessBefore float64
	MeanLightnessAfter    float64
	StdDevLightnessAfter  float64

	// Duration is the wall time of the run
	Duration time.Duration
}

// meanStdDev is stat.MeanStdDev with zero results for samples too small
// to have a spread
func meanStdDev(x []float64) (mean, std float64) {
	switch len(x) {
	case 0:
		return 0, 0
	case 1:
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}

// lightnessStats computes the lightness distribution of buf
func lightnessStats(buf *models.Buffer) (mean, std float64) {
	values := make([]float64, 0, buf.Width*buf.Height)
	for _, row := range buf.Rows {
		for _, p := range row {
			values = append(values, metric.Lightness(p))
		}
	}
	return meanStdDev(values)
}
