// Package automaton generates black and white mask images from a
// one-dimensional elementary cellular automaton. The masks stand in for a
// real edge map in the file-mask and file-edges segmenters.
package automaton

import (
	"fmt"
	"image"
	"image/color"

	"pixelsort/pkg/random"
)

// CuratedRules are the rule numbers that produce visually useful masks.
// Most of the 256 elementary rules collapse into stripes or noise.
var CuratedRules = []int{26, 19, 23, 25, 35, 106, 11, 110, 45, 41, 105, 54, 3, 15, 9, 154}

// Default mask dimensions and scale ranges used when options leave them unset
const (
	minGeneratedSize = 100
	maxGeneratedSize = 149
	minScale         = 1
	maxScale         = 4
)

// Rule maps a neighborhood to the next state of its middle cell.
// The neighborhood (left, middle, right) is stored at index left*4+middle*2+right.
type Rule [8]bool

// DecodeRule expands an 8-bit Wolfram rule number. Bit i of number is the
// next state for neighborhood i, enumerating left, then middle, then right,
// each false before true.
func DecodeRule(number int) Rule {
	var rule Rule
	for _, left := range []bool{false, true} {
		for _, middle := range []bool{false, true} {
			for _, right := range []bool{false, true} {
				rule[index(left, middle, right)] = number%2 == 1
				number /= 2
			}
		}
	}
	return rule
}

// Next returns the next state for the given neighborhood
func (r Rule) Next(left, middle, right bool) bool {
	return r[index(left, middle, right)]
}

func index(left, middle, right bool) int {
	i := 0
	if left {
		i |= 4
	}
	if middle {
		i |= 2
	}
	if right {
		i |= 1
	}
	return i
}

// Grid is the history of the automaton, one generation per row
type Grid struct {
	Width  int
	Height int
	Cells  [][]bool
}

// Generate runs the automaton for height generations of width cells.
// The first generation is random. In later generations the two edge cells
// are random and every interior cell follows rule.
func Generate(width, height int, rule Rule, src random.Source) (*Grid, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid automaton size %dx%d", width, height)
	}

	cells := make([][]bool, height)
	cells[0] = make([]bool, width)
	for x := range cells[0] {
		cells[0][x] = coin(src)
	}

	// Each generation depends on the previous one, so this loop stays sequential
	for y := 1; y < height; y++ {
		prev := cells[y-1]
		row := make([]bool, width)
		row[0] = coin(src)
		for x := 1; x < width-1; x++ {
			row[x] = rule.Next(prev[x-1], prev[x], prev[x+1])
		}
		if width > 1 {
			row[width-1] = coin(src)
		}
		cells[y] = row
	}

	return &Grid{Width: width, Height: height, Cells: cells}, nil
}

func coin(src random.Source) bool {
	return src.IntRange(0, 1) == 1
}

// Render draws the grid as a grayscale image of the same size, white for
// live cells. With scale > 1 the top-left 1/scale of the grid is magnified
// with nearest-neighbor sampling.
func (g *Grid) Render(scale int) *image.Gray {
	if scale < 1 {
		scale = 1
	}
	img := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			v := color.Gray{Y: 0}
			if g.Cells[y/scale][x/scale] {
				v.Y = 255
			}
			img.SetGray(x, y, v)
		}
	}
	return img
}

// Options controls mask generation. Zero values select the defaults.
type Options struct {
	// Width and Height of the generated grid; zero picks a random size
	// between 100 and 149 cells
	Width, Height int

	// Rule number in [0, 255]; negative picks one of CuratedRules
	Rule int

	// Scale is the magnification factor; zero picks one in [1, 4]
	Scale int
}

// Mask is a rendered automaton together with the parameters that made it
type Mask struct {
	Image *image.Gray
	Rule  int
	Scale int
}

// NewMask picks any unset parameters from src, runs the automaton and
// renders it
func NewMask(opts Options, src random.Source) (*Mask, error) {
	if opts.Rule > 255 {
		return nil, fmt.Errorf("rule %d out of range [0, 255]", opts.Rule)
	}

	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = src.IntRange(minGeneratedSize, maxGeneratedSize)
	}
	if height <= 0 {
		height = src.IntRange(minGeneratedSize, maxGeneratedSize)
	}

	ruleNumber := opts.Rule
	if ruleNumber < 0 {
		ruleNumber = CuratedRules[src.IntRange(0, len(CuratedRules)-1)]
	}

	scale := opts.Scale
	if scale <= 0 {
		scale = src.IntRange(minScale, maxScale)
	}

	grid, err := Generate(width, height, DecodeRule(ruleNumber), src)
	if err != nil {
		return nil, err
	}

	return &Mask{Image: grid.Render(scale), Rule: ruleNumber, Scale: scale}, nil
}
