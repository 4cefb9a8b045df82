// Package metric provides the scalar keys used to order pixels inside an interval.
//
// Hue, saturation and value follow the usual hexcone RGB to HSV model with every
// component normalized to [0, 1].
package metric

import (
	"sort"

	"pixelsort/internal/models"
)

// Func maps a pixel to a sortable value
type Func func(models.Pixel) float64

// DefaultName is used when a requested metric is unknown
const DefaultName = "lightness"

var registry = map[string]Func{
	"lightness":  Lightness,
	"intensity":  Intensity,
	"hue":        Hue,
	"saturation": Saturation,
	"minimum":    Minimum,
}

// Lookup returns the metric registered under name
func Lookup(name string) (Func, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Resolve returns the metric registered under name, falling back to
// lightness for unknown names
func Resolve(name string) Func {
	if fn, ok := registry[name]; ok {
		return fn
	}
	return Lightness
}

// Names lists the registered metric names in alphabetical order
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lightness is the HSV value channel
func Lightness(p models.Pixel) float64 {
	_, _, v := hsv(p)
	return v
}

// Intensity is the plain channel sum, 0 to 765
func Intensity(p models.Pixel) float64 {
	return float64(int(p.R) + int(p.G) + int(p.B))
}

// Hue is the HSV hue channel
func Hue(p models.Pixel) float64 {
	h, _, _ := hsv(p)
	return h
}

// Saturation is the HSV saturation channel
func Saturation(p models.Pixel) float64 {
	_, s, _ := hsv(p)
	return s
}

// Minimum is the smallest of the three color channels
func Minimum(p models.Pixel) float64 {
	return float64(min(p.R, p.G, p.B))
}

// hsv converts the color channels of p; alpha is ignored
func hsv(p models.Pixel) (h, s, v float64) {
	r := float64(p.R) / 255
	g := float64(p.G) / 255
	b := float64(p.B) / 255

	maxc := max(r, g, b)
	minc := min(r, g, b)
	v = maxc
	if maxc == minc {
		return 0, 0, v
	}

	delta := maxc - minc
	s = delta / maxc

	rc := (maxc - r) / delta
	gc := (maxc - g) / delta
	bc := (maxc - b) / delta

	switch {
	case r == maxc:
		h = bc - gc
	case g == maxc:
		h = 2 + rc - bc
	default:
		h = 4 + gc - rc
	}

	h /= 6
	h -= float64(int(h))
	if h < 0 {
		h++
	}
	return h, s, v
}
