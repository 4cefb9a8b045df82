// Package segment decides where intervals begin and end along each row.
//
// Row-scoped algorithms implement Segmenter and return boundaries that the
// sorter consumes. Whole-image algorithms implement Reorderer and return a
// rearranged buffer directly.
package segment

import (
	"context"
	"fmt"
	"log"
	"sort"

	"pixelsort/internal/models"
	"pixelsort/internal/parallel"
	"pixelsort/pkg/config"
	"pixelsort/pkg/random"
)

// Kind identifies a segmentation algorithm
type Kind int

const (
	None Kind = iota
	Threshold
	Random
	Waves
	Edges
	FileMask
	FileEdges
	ShuffleTotal
	ShuffleAxis
	Snap
)

// DefaultKind is used when a requested name is unknown
const DefaultKind = Random

var kindNames = map[Kind]string{
	None:         "none",
	Threshold:    "threshold",
	Random:       "random",
	Waves:        "waves",
	Edges:        "edges",
	FileMask:     "file",
	FileEdges:    "file-edges",
	ShuffleTotal: "shuffle-total",
	ShuffleAxis:  "shuffle-axis",
	Snap:         "snap",
}

var kindAliases = map[string]Kind{
	"file-mask": FileMask,
	"edge":      Edges,
}

// RandomSelect is the pseudo-name that picks one of SelectableKinds
const RandomSelect = "random-select"

// SelectableKinds are the algorithms RandomSelect chooses from
var SelectableKinds = []Kind{Random, Threshold, Edges, Waves}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// WholeImage reports whether the algorithm produces a buffer instead of boundaries
func (k Kind) WholeImage() bool {
	return k == ShuffleTotal || k == ShuffleAxis || k == Snap
}

// ParseKind looks up an algorithm by name
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	k, ok := kindAliases[name]
	return k, ok
}

// Resolve looks up an algorithm by name, falling back to DefaultKind.
// RandomSelect draws one of SelectableKinds from src.
func Resolve(name string, src random.Source) Kind {
	if name == RandomSelect {
		return SelectableKinds[src.IntRange(0, len(SelectableKinds)-1)]
	}
	if k, ok := ParseKind(name); ok {
		return k
	}
	return DefaultKind
}

// Names lists the accepted algorithm names in alphabetical order
func Names() []string {
	names := make([]string, 0, len(kindNames)+1)
	for _, n := range kindNames {
		names = append(names, n)
	}
	names = append(names, RandomSelect)
	sort.Strings(names)
	return names
}

// Segmenter produces interval boundaries for every row of a buffer
type Segmenter interface {
	Segment(ctx context.Context, buf *models.Buffer) (models.Boundaries, error)
}

// Reorderer rearranges a whole buffer without interval boundaries
type Reorderer interface {
	Reorder(ctx context.Context, buf *models.Buffer) (*models.Buffer, error)
}

// MaskReporter is implemented by segmenters that generate an automaton
// mask, so the run report can record the rule that was used
type MaskReporter interface {
	MaskParams() (rule, scale int)
}

// Env carries what every algorithm needs. It is read-only once built.
type Env struct {
	// Config holds the sort parameters
	Config config.SortConfig

	// Streams supplies the per-row random sources
	Streams random.Factory

	// Workers bounds row concurrency; zero uses every CPU
	Workers int

	// Logger receives progress lines; nil discards them
	Logger *log.Logger
}

func (e Env) logf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
	}
}

// NewSegmenter builds the row-scoped algorithm for kind
func NewSegmenter(kind Kind, env Env) (Segmenter, error) {
	switch kind {
	case None:
		return &rowSegmenter{env: env, fn: noneRow}, nil
	case Threshold:
		return &rowSegmenter{env: env, fn: thresholdRow(env.Config)}, nil
	case Random:
		return &rowSegmenter{env: env, fn: randomRow(env.Config.CharLength)}, nil
	case Waves:
		return &rowSegmenter{env: env, fn: wavesRow(env.Config.CharLength)}, nil
	case Edges:
		return &edgeSegmenter{env: env}, nil
	case FileMask:
		return &maskSegmenter{env: env, edges: false}, nil
	case FileEdges:
		return &maskSegmenter{env: env, edges: true}, nil
	}
	return nil, fmt.Errorf("segmenter %s does not produce boundaries", kind)
}

// NewReorderer builds the whole-image algorithm for kind
func NewReorderer(kind Kind, env Env) (Reorderer, error) {
	switch kind {
	case ShuffleTotal:
		return &shuffleTotal{env: env}, nil
	case ShuffleAxis:
		return &shuffleAxis{env: env}, nil
	case Snap:
		return &snap{env: env}, nil
	}
	return nil, fmt.Errorf("segmenter %s does not reorder whole images", kind)
}

// rowFunc computes the boundaries of a single row
type rowFunc func(row []models.Pixel, src random.Source) []int

// rowSegmenter runs a rowFunc over every row on the worker pool
type rowSegmenter struct {
	env Env
	fn  rowFunc
}

func (s *rowSegmenter) Segment(ctx context.Context, buf *models.Buffer) (models.Boundaries, error) {
	bounds := make(models.Boundaries, buf.Height)
	err := parallel.Rows(ctx, buf.Height, s.env.Workers, func(y int) error {
		src := s.env.Streams.Stream(random.StageSegment, y)
		bounds[y] = s.fn(buf.Rows[y], src)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bounds, nil
}
