// Package sorter reorders the pixels inside each interval of a buffer.
//
// Every row is processed independently on the worker pool. Column 0 of each
// row is pinned to its input value, so the first interval of a row starts at
// column 1.
package sorter

import (
	"cmp"
	"context"
	"slices"

	"pixelsort/internal/models"
	"pixelsort/internal/parallel"
	"pixelsort/pkg/metric"
	"pixelsort/pkg/random"
)

// Options controls a sort pass
type Options struct {
	// Metric orders pixels inside an interval
	Metric metric.Func

	// Randomness is the percentage of intervals left in their original order
	Randomness float64

	// Streams supplies the per-row skip draws
	Streams random.Factory

	// Workers bounds row concurrency; zero uses every CPU
	Workers int
}

// Stats summarizes a sort pass
type Stats struct {
	// Sorted is the number of intervals that were sorted
	Sorted int

	// Skipped is the number of intervals left untouched by the skip draw
	Skipped int

	// RunLengths holds the length of every non-empty interval
	RunLengths []float64
}

// keyed pairs a pixel with its precomputed metric value
type keyed struct {
	key float64
	px  models.Pixel
}

// Sort applies opts to every interval of buf and returns a new buffer.
// A row whose boundaries are malformed aborts the pass with a
// *models.IndexError naming that row.
func Sort(ctx context.Context, buf *models.Buffer, bounds models.Boundaries, opts Options) (*models.Buffer, Stats, error) {
	if opts.Metric == nil {
		opts.Metric = metric.Lightness
	}
	if opts.Streams == nil {
		opts.Streams = random.NewStreams(0)
	}
	if err := buf.Validate(); err != nil {
		return nil, Stats{}, err
	}
	if len(bounds) != buf.Height {
		return nil, Stats{}, &models.IndexError{Row: len(bounds), Col: -1, Err: models.ErrBadBoundaries}
	}

	out := buf.Clone()
	perRow := make([]Stats, buf.Height)

	err := parallel.Rows(ctx, buf.Height, opts.Workers, func(y int) error {
		if err := bounds.ValidateRow(y, buf.Width); err != nil {
			return err
		}
		perRow[y] = sortRow(out.Rows[y], bounds[y], opts, opts.Streams.Stream(random.StageSort, y))
		return nil
	})
	if err != nil {
		return nil, Stats{}, err
	}

	var stats Stats
	for _, s := range perRow {
		stats.Sorted += s.Sorted
		stats.Skipped += s.Skipped
		stats.RunLengths = append(stats.RunLengths, s.RunLengths...)
	}
	return out, stats, nil
}

// sortRow sorts the intervals of row in place
func sortRow(row []models.Pixel, bounds []int, opts Options, src random.Source) Stats {
	var stats Stats
	scratch := make([]keyed, 0, len(row))

	start := 1
	for _, end := range bounds {
		lo := max(start, 1)
		start = end
		if end <= lo {
			continue
		}

		run := row[lo:end]
		stats.RunLengths = append(stats.RunLengths, float64(len(run)))

		if float64(src.IntRange(0, 100)) < opts.Randomness {
			stats.Skipped++
			continue
		}

		scratch = scratch[:0]
		for _, p := range run {
			scratch = append(scratch, keyed{key: opts.Metric(p), px: p})
		}
		slices.SortStableFunc(scratch, func(a, b keyed) int {
			return cmp.Compare(a.key, b.key)
		})
		for i := range run {
			run[i] = scratch[i].px
		}
		stats.Sorted++
	}
	return stats
}
