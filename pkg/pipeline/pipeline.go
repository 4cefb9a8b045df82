// Package pipeline sequences the sorting steps for one image: rotate,
// extract the pixel buffer, segment, sort, render, and rotate back.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"sync"
	"time"

	"pixelsort/internal/models"
	"pixelsort/internal/parallel"
	"pixelsort/pkg/config"
	"pixelsort/pkg/geometry"
	"pixelsort/pkg/imageio"
	"pixelsort/pkg/metric"
	"pixelsort/pkg/random"
	"pixelsort/pkg/segment"
	"pixelsort/pkg/sorter"
)

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithLogger sends progress lines to logger
func WithLogger(logger *log.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithWorkers bounds row concurrency; zero or less uses every CPU
func WithWorkers(n int) Option {
	return func(p *Pipeline) { p.workers = n }
}

// WithStreams replaces the seeded random streams
func WithStreams(streams random.Factory) Option {
	return func(p *Pipeline) {
		if streams != nil {
			p.streams = streams
		}
	}
}

// WithIntermediaryDir enables PNG snapshots of every stage under dir
func WithIntermediaryDir(dir string) Option {
	return func(p *Pipeline) { p.intermediaryDir = dir }
}

// WithStrict rejects unknown metric and segmenter names instead of
// falling back to the defaults
func WithStrict(strict bool) Option {
	return func(p *Pipeline) { p.strict = strict }
}

// Pipeline holds a validated configuration with its algorithms resolved.
// RunSort may be called repeatedly; calls are serialized.
type Pipeline struct {
	cfg        config.SortConfig
	kind       segment.Kind
	metric     metric.Func
	metricName string

	logger          *log.Logger
	workers         int
	streams         random.Factory
	intermediaryDir string
	strict          bool

	mu     sync.Mutex
	runs   int
	report RunReport
}

// New validates cfg and resolves its metric and segmenter names
func New(cfg config.SortConfig, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		cfg:     cfg,
		logger:  log.New(io.Discard, "", 0),
		streams: random.NewStreams(cfg.Seed),
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := cfg.Validate(); err != nil {
		return nil, stageError(StageConfig, err)
	}

	fn, ok := metric.Lookup(cfg.Metric)
	switch {
	case ok:
		p.metric, p.metricName = fn, cfg.Metric
	case p.strict:
		return nil, stageError(StageConfig, fmt.Errorf("unknown metric %q", cfg.Metric))
	default:
		p.logger.Printf("Unknown metric %q, using %s", cfg.Metric, metric.DefaultName)
		p.metric, p.metricName = metric.Resolve(cfg.Metric), metric.DefaultName
	}

	if cfg.Segmenter == segment.RandomSelect {
		p.kind = segment.Resolve(cfg.Segmenter, p.streams.Stream(random.StageSegment, -1))
		p.logger.Printf("Randomly selected segmenter %s", p.kind)
	} else if kind, ok := segment.ParseKind(cfg.Segmenter); ok {
		p.kind = kind
	} else if p.strict {
		return nil, stageError(StageConfig, fmt.Errorf("unknown segmenter %q", cfg.Segmenter))
	} else {
		p.logger.Printf("Unknown segmenter %q, using %s", cfg.Segmenter, segment.DefaultKind)
		p.kind = segment.DefaultKind
	}

	return p, nil
}

// Kind returns the resolved segmenter
func (p *Pipeline) Kind() segment.Kind { return p.kind }

// Report returns the summary of the most recent run
func (p *Pipeline) Report() RunReport {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.report
}

func (p *Pipeline) env() segment.Env {
	return segment.Env{Config: p.cfg, Streams: p.streams, Workers: p.workers, Logger: p.logger}
}

func (p *Pipeline) sortOptions() sorter.Options {
	return sorter.Options{Metric: p.metric, Randomness: p.cfg.Randomness, Streams: p.streams, Workers: p.workers}
}

// RunSort sorts img and returns an image of the same size
func (p *Pipeline) RunSort(ctx context.Context, img image.Image) (image.Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	p.runs++
	bounds := img.Bounds()
	report := RunReport{
		Segmenter: p.kind.String(),
		Metric:    p.metricName,
		Rule:      -1,
		Scale:     -1,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
	}

	// Step 1: Rotate so that the sort direction runs along rows
	p.logger.Printf("Step 1: Rotating by %.1f degrees...", p.cfg.Angle)
	rotated := geometry.Rotate(img, p.cfg.Angle)
	p.snapshot("01_rotated", rotated)

	// Step 2: Extract the pixel buffer
	p.logger.Println("Step 2: Extracting pixel buffer...")
	buf, err := p.extract(ctx, rotated)
	if err != nil {
		return nil, err
	}
	report.MeanLightnessBefore, report.StdDevLightnessBefore = lightnessStats(buf)

	// Step 3 and 4: Segment and sort
	sorted, err := p.process(ctx, buf, &report)
	if err != nil {
		return nil, err
	}
	report.MeanLightnessAfter, report.StdDevLightnessAfter = lightnessStats(sorted)

	// Step 5: Render and rotate back into the original frame
	p.logger.Println("Step 5: Rendering and restoring orientation...")
	rendered, err := p.render(ctx, sorted)
	if err != nil {
		return nil, err
	}
	p.snapshot("04_sorted", rendered)

	out, err := geometry.Restore(rendered, p.cfg.Angle, bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, stageError(StageGeometry, err)
	}
	p.snapshot("05_restored", out)

	report.Duration = time.Since(start)
	p.report = report
	p.logger.Printf("Sorted %d of %d intervals in %.2f seconds",
		report.Sorted, report.Intervals, report.Duration.Seconds())

	return out, nil
}

// SortFile loads input, sorts it, and writes the result to output as PNG
func (p *Pipeline) SortFile(ctx context.Context, input, output string) error {
	img, err := imageio.Load(input)
	if err != nil {
		return stageError(StageDecode, err)
	}

	out, err := p.RunSort(ctx, img)
	if err != nil {
		return err
	}

	if err := imageio.Save(output, out); err != nil {
		return stageError(StageEncode, err)
	}
	return nil
}

// process runs the segmenter selected at construction
func (p *Pipeline) process(ctx context.Context, buf *models.Buffer, report *RunReport) (*models.Buffer, error) {
	env := p.env()

	if !p.kind.WholeImage() {
		seg, err := segment.NewSegmenter(p.kind, env)
		if err != nil {
			return nil, stageError(StageSegmentation, err)
		}
		return p.segmentAndSort(ctx, buf, seg, report)
	}

	reorderer, err := segment.NewReorderer(p.kind, env)
	if err != nil {
		return nil, stageError(StageSegmentation, err)
	}

	if p.kind == segment.Snap && p.cfg.SnapPrepass {
		p.logger.Println("Step 3: Sorting random intervals before snapping...")
		pre, _ := segment.NewSegmenter(segment.Random, env)
		if buf, err = p.segmentAndSort(ctx, buf, pre, &RunReport{}); err != nil {
			return nil, err
		}
	}

	p.logger.Printf("Step 3: Reordering with %s...", p.kind)
	out, err := reorderer.Reorder(ctx, buf)
	if err != nil {
		return nil, stageError(StageSegmentation, err)
	}
	if p.kind != segment.Snap {
		return out, nil
	}

	// Vanished pixels are sorted along with everything else between edges
	seg, _ := segment.NewSegmenter(segment.Edges, env)
	return p.segmentAndSort(ctx, out, seg, report)
}

// segmentAndSort runs one segmenter followed by the sorter
func (p *Pipeline) segmentAndSort(ctx context.Context, buf *models.Buffer, seg segment.Segmenter, report *RunReport) (*models.Buffer, error) {
	p.logger.Println("Step 3: Computing interval boundaries...")
	bounds, err := seg.Segment(ctx, buf)
	if err != nil {
		return nil, stageError(StageSegmentation, err)
	}
	if err := bounds.Validate(buf.Width, buf.Height); err != nil {
		return nil, stageError(StageSegmentation, err)
	}
	if mr, ok := seg.(segment.MaskReporter); ok {
		report.Rule, report.Scale = mr.MaskParams()
	}
	p.snapshot("02_boundaries", boundaryImage(bounds, buf.Width, buf.Height))

	p.logger.Println("Step 4: Sorting intervals...")
	sorted, stats, err := sorter.Sort(ctx, buf, bounds, p.sortOptions())
	if err != nil {
		return nil, stageError(StageSorting, err)
	}

	report.Intervals += len(stats.RunLengths)
	report.Sorted += stats.Sorted
	report.Skipped += stats.Skipped
	report.MeanInterval, report.StdDevInterval = meanStdDev(stats.RunLengths)
	p.snapshot("03_sorted_buffer", sorted.Image())

	return sorted, nil
}

// extract copies img into a buffer one row per task
func (p *Pipeline) extract(ctx context.Context, img image.Image) (*models.Buffer, error) {
	b := img.Bounds()
	buf := models.NewBuffer(b.Dx(), b.Dy())
	err := parallel.Rows(ctx, buf.Height, p.workers, func(y int) error {
		models.FillRow(img, y, buf.Rows[y])
		return nil
	})
	if err != nil {
		return nil, stageError(StageExtraction, err)
	}
	if err := buf.Validate(); err != nil {
		return nil, stageError(StageExtraction, err)
	}
	return buf, nil
}

// render writes buf into a new image one row per task
func (p *Pipeline) render(ctx context.Context, buf *models.Buffer) (*image.NRGBA, error) {
	out := image.NewNRGBA(image.Rect(0, 0, buf.Width, buf.Height))
	err := parallel.Rows(ctx, buf.Height, p.workers, func(y int) error {
		buf.StoreRow(out, y)
		return nil
	})
	if err != nil {
		return nil, stageError(StageSorting, err)
	}
	return out, nil
}

// snapshot saves an intermediary image when enabled. Failures are logged
// and do not stop the run.
func (p *Pipeline) snapshot(stage string, img image.Image) {
	if p.intermediaryDir == "" {
		return
	}
	if err := imageio.SaveStage(p.intermediaryDir, stage, p.runs, img); err != nil {
		p.logger.Printf("Warning: Failed to save %s snapshot: %v", stage, err)
	}
}

// boundaryImage draws every interval start in white on black
func boundaryImage(bounds models.Boundaries, width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y, row := range bounds {
		for _, x := range row {
			if x < width {
				img.Pix[y*img.Stride+x] = 255
			}
		}
	}
	return img
}

// RunSort builds a Pipeline for cfg and sorts img with it
func RunSort(ctx context.Context, img image.Image, cfg config.SortConfig, opts ...Option) (image.Image, error) {
	p, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return p.RunSort(ctx, img)
}
