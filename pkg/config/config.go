// Package config provides configuration loading and management for pixelsort.
// It handles loading configuration from YAML files, provides default values,
// and holds the preset catalog.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"gopkg.in/yaml.v3"

	"pixelsort/pkg/random"
)

var (
	// ErrInvalid is returned by Validate for out of range parameters
	ErrInvalid = errors.New("invalid sort configuration")

	// ErrUnknownPreset is returned when a preset name is not in the catalog
	ErrUnknownPreset = errors.New("unknown preset")
)

// SortConfig is the full set of parameters for one sort operation.
// It is built once before the pipeline runs and never modified afterwards.
type SortConfig struct {
	// BottomThreshold: pixels darker than this start a new interval (0-1)
	BottomThreshold float64 `yaml:"bottomThreshold"`

	// UpperThreshold: pixels brighter than this start a new interval (0-1)
	UpperThreshold float64 `yaml:"upperThreshold"`

	// CharLength is the characteristic length of random and wave intervals
	CharLength int `yaml:"charLength"`

	// Angle in degrees, counterclockwise, along which rows are sorted
	Angle float64 `yaml:"angle"`

	// Randomness is the percentage of intervals left unsorted (0-100)
	Randomness float64 `yaml:"randomness"`

	// Metric names the key used to order pixels
	Metric string `yaml:"metric"`

	// Segmenter names the interval algorithm
	Segmenter string `yaml:"segmenter"`

	// Seed roots every random stream used by the run
	Seed uint64 `yaml:"seed"`

	// Rule is the automaton rule for the file segmenters; -1 picks a curated rule
	Rule int `yaml:"rule"`

	// MaskScale magnifies the automaton mask; 0 picks a random factor
	MaskScale int `yaml:"maskScale"`

	// SnapPrepass sorts random intervals before vanishing pixels, as older
	// versions of the snap segmenter did
	SnapPrepass bool `yaml:"snapPrepass"`
}

// DefaultSortConfig returns the default sort parameters
func DefaultSortConfig() SortConfig {
	return SortConfig{
		BottomThreshold: 0.25,
		UpperThreshold:  0.8,
		CharLength:      50,
		Angle:           0,
		Randomness:      10,
		Metric:          "lightness",
		Segmenter:       "random",
		Seed:            1,
		Rule:            -1,
		MaskScale:       0,
	}
}

// Validate checks numeric ranges. Unknown metric and segmenter names are
// not errors here; they fall back to defaults when the pipeline is built.
func (c SortConfig) Validate() error {
	switch {
	case c.BottomThreshold < 0 || c.BottomThreshold > 1:
		return fmt.Errorf("%w: bottom threshold %v outside [0, 1]", ErrInvalid, c.BottomThreshold)
	case c.UpperThreshold < 0 || c.UpperThreshold > 1:
		return fmt.Errorf("%w: upper threshold %v outside [0, 1]", ErrInvalid, c.UpperThreshold)
	case c.CharLength < 1:
		return fmt.Errorf("%w: characteristic length %d must be positive", ErrInvalid, c.CharLength)
	case c.Randomness < 0 || c.Randomness > 100:
		return fmt.Errorf("%w: randomness %v outside [0, 100]", ErrInvalid, c.Randomness)
	case c.Rule < -1 || c.Rule > 255:
		return fmt.Errorf("%w: rule %d outside [0, 255]", ErrInvalid, c.Rule)
	case c.MaskScale < 0:
		return fmt.Errorf("%w: mask scale %d must not be negative", ErrInvalid, c.MaskScale)
	}
	return nil
}

// Preset overrides selected sort parameters. Nil fields keep the base value.
type Preset struct {
	BottomThreshold *float64 `yaml:"bottomThreshold,omitempty"`
	UpperThreshold  *float64 `yaml:"upperThreshold,omitempty"`
	CharLength      *int     `yaml:"charLength,omitempty"`
	Angle           *float64 `yaml:"angle,omitempty"`
	Randomness      *float64 `yaml:"randomness,omitempty"`
	Metric          *string  `yaml:"metric,omitempty"`
	Segmenter       *string  `yaml:"segmenter,omitempty"`

	// Randomize draws every parameter from the seeded preset stream
	Randomize bool `yaml:"randomize,omitempty"`
}

// randomSegmenters are the interval algorithms a randomized preset picks from
var randomSegmenters = []string{"random", "threshold", "edges", "waves"}

// randomMetrics are the metrics a randomized preset picks from, in menu order
var randomMetrics = []string{"lightness", "hue", "intensity", "minimum", "saturation"}

// Apply returns base with the preset applied
func (p Preset) Apply(base SortConfig, src random.Source) SortConfig {
	out := base
	if p.Randomize {
		out.Angle = float64(src.IntRange(0, 359))
		out.CharLength = 50 + 15*src.IntRange(0, 29)
		out.UpperThreshold = float64(5*src.IntRange(10, 19)) / 100
		out.BottomThreshold = float64(5*src.IntRange(1, 9)) / 100
		out.Randomness = float64(5 * src.IntRange(1, 19))
		out.Segmenter = randomSegmenters[src.IntRange(0, len(randomSegmenters)-1)]
		out.Metric = randomMetrics[src.IntRange(0, len(randomMetrics)-1)]
	}

	if p.BottomThreshold != nil {
		out.BottomThreshold = *p.BottomThreshold
	}
	if p.UpperThreshold != nil {
		out.UpperThreshold = *p.UpperThreshold
	}
	if p.CharLength != nil {
		out.CharLength = *p.CharLength
	}
	if p.Angle != nil {
		out.Angle = *p.Angle
	}
	if p.Randomness != nil {
		out.Randomness = *p.Randomness
	}
	if p.Metric != nil {
		out.Metric = *p.Metric
	}
	if p.Segmenter != nil {
		out.Segmenter = *p.Segmenter
	}
	return out
}

func ptr[T any](v T) *T { return &v }

// BuiltinPresets returns the presets shipped with pixelsort
func BuiltinPresets() map[string]Preset {
	return map[string]Preset{
		"main": {
			Randomness: ptr(50.0),
			CharLength: ptr(250),
			Angle:      ptr(45.0),
			Segmenter:  ptr("random"),
			Metric:     ptr("intensity"),
		},
		"full-random": {
			Randomize: true,
		},
		"snap-sort": {
			Randomness: ptr(50.0),
			CharLength: ptr(250),
			Angle:      ptr(45.0),
			Segmenter:  ptr("snap"),
			Metric:     ptr("intensity"),
		},
	}
}

// Config represents the application configuration loaded from YAML
type Config struct {
	// Sort holds the base sort parameters
	Sort SortConfig `yaml:"sort"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many CPU cores to use for row processing
		NumCores int `yaml:"numCores"`

		// Threads is the number of images sorted concurrently in batch mode
		Threads int `yaml:"threads"`

		// Strict rejects unknown metric and segmenter names instead of
		// falling back to the defaults
		Strict bool `yaml:"strict"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// SaveIntermediaryResults determines whether to save stage snapshots
		SaveIntermediaryResults bool `yaml:"saveIntermediaryResults"`

		// IntermediaryDir is where stage snapshots are written
		IntermediaryDir string `yaml:"intermediaryDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`

	// Presets is the named preset catalog; user entries are merged over
	// the built-in ones
	Presets map[string]Preset `yaml:"presets"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Sort = DefaultSortConfig()

	cfg.Processing.NumCores = runtime.NumCPU()
	cfg.Processing.Threads = 1
	cfg.Processing.Strict = false

	cfg.Output.SaveIntermediaryResults = false
	cfg.Output.IntermediaryDir = "intermediary_results"
	cfg.Output.Verbose = true

	cfg.Presets = BuiltinPresets()

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Sort.Validate(); err != nil {
		return nil, fmt.Errorf("error in config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// PresetNames lists the catalog in alphabetical order
func (c *Config) PresetNames() []string {
	names := make([]string, 0, len(c.Presets))
	for name := range c.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyPreset applies the named preset on top of the base sort parameters.
// Randomized presets draw from the preset stream of the configured seed.
func (c *Config) ApplyPreset(name string) (SortConfig, error) {
	preset, ok := c.Presets[name]
	if !ok {
		return c.Sort, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	src := random.NewStreams(c.Sort.Seed).Stream(random.StagePreset, 0)
	return preset.Apply(c.Sort, src), nil
}
