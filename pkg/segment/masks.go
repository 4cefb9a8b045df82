package segment

import (
	"context"

	"pixelsort/internal/models"
	"pixelsort/internal/parallel"
	"pixelsort/pkg/automaton"
	"pixelsort/pkg/edges"
	"pixelsort/pkg/random"
)

// edgeSegmenter places boundaries on the edges of the image itself
type edgeSegmenter struct {
	env Env
}

func (s *edgeSegmenter) Segment(ctx context.Context, buf *models.Buffer) (models.Boundaries, error) {
	if buf.Width == 0 || buf.Height == 0 {
		return trivialBoundaries(buf), nil
	}

	s.env.logf("Finding edges (threshold %.2f)...", s.env.Config.BottomThreshold)
	mask := edges.NewDetector().DetectEdgesWithThreshold(buf.Image(), s.env.Config.BottomThreshold)
	return maskBoundaries(ctx, mask, s.env.Workers)
}

// maskSegmenter places boundaries on a synthetic automaton mask
type maskSegmenter struct {
	env   Env
	edges bool

	rule, scale int
}

func (s *maskSegmenter) Segment(ctx context.Context, buf *models.Buffer) (models.Boundaries, error) {
	if buf.Width == 0 || buf.Height == 0 {
		return trivialBoundaries(buf), nil
	}

	src := s.env.Streams.Stream(random.StageAutomaton, 0)
	m, err := automaton.NewMask(automaton.Options{
		Rule:  s.env.Config.Rule,
		Scale: s.env.Config.MaskScale,
	}, src)
	if err != nil {
		return nil, err
	}
	s.rule, s.scale = m.Rule, m.Scale
	s.env.logf("Generated automaton mask: rule %d, scale %d", m.Rule, m.Scale)

	resized := edges.Resize(m.Image, buf.Width, buf.Height)

	var mask [][]bool
	if s.edges {
		mask = edges.NewDetector().DetectEdgesWithThreshold(resized, s.env.Config.BottomThreshold)
	} else {
		mask = edges.ExactBlack(resized)
	}
	return maskBoundaries(ctx, mask, s.env.Workers)
}

func (s *maskSegmenter) MaskParams() (rule, scale int) {
	return s.rule, s.scale
}

// maskBoundaries thins every mask row and converts it to boundaries
func maskBoundaries(ctx context.Context, mask [][]bool, workers int) (models.Boundaries, error) {
	bounds := make(models.Boundaries, len(mask))
	err := parallel.Rows(ctx, len(mask), workers, func(y int) error {
		edges.Thin(mask[y])
		bounds[y] = edges.RowBoundaries(mask[y])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bounds, nil
}

// trivialBoundaries gives every row a single interval
func trivialBoundaries(buf *models.Buffer) models.Boundaries {
	bounds := make(models.Boundaries, buf.Height)
	for y := range bounds {
		bounds[y] = []int{buf.Width}
	}
	return bounds
}
