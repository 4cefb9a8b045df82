package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"pixelsort/pkg/config"
	"pixelsort/pkg/metric"
	"pixelsort/pkg/segment"
)

func main() {
	app := &cli.App{
		Name:                   "pixelsort",
		Usage:                  "Sort the pixels of images along intervals.",
		ArgsUsage:              "IMAGE|DIR...",
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "pixelsort.yaml",
				Usage: "YAML configuration `file`; missing files fall back to defaults",
			},
			&cli.StringFlag{
				Name:  "write-config",
				Usage: "write the default configuration to `file` and exit",
			},
			&cli.StringFlag{
				Name:    "preset",
				Aliases: []string{"p"},
				Usage:   "apply a named `preset` before the flags below",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output `file` for a single input",
			},
			&cli.StringFlag{
				Name:  "output-dir",
				Usage: "`dir`ectory for outputs; defaults to next to each input",
			},
			&cli.Float64Flag{
				Name:    "bottom-threshold",
				Aliases: []string{"t"},
				Usage:   "pixels darker than this `thresh`old start intervals (0-1)",
			},
			&cli.Float64Flag{
				Name:    "upper-threshold",
				Aliases: []string{"u"},
				Usage:   "pixels brighter than this `thresh`old start intervals (0-1)",
			},
			&cli.IntFlag{
				Name:    "clength",
				Aliases: []string{"c"},
				Usage:   "characteristic `len`gth of random and wave intervals",
			},
			&cli.Float64Flag{
				Name:    "angle",
				Aliases: []string{"a"},
				Usage:   "sort along this angle in `deg`rees",
			},
			&cli.Float64Flag{
				Name:    "randomness",
				Aliases: []string{"r"},
				Usage:   "`percent`age of intervals left unsorted (0-100)",
			},
			&cli.StringFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   fmt.Sprintf("interval `func`tion [%s]", strings.Join(segment.Names(), ", ")),
			},
			&cli.StringFlag{
				Name:    "sort",
				Aliases: []string{"s"},
				Usage:   fmt.Sprintf("sorting `func`tion [%s]", strings.Join(metric.Names(), ", ")),
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "`seed` for every random choice",
			},
			&cli.IntFlag{
				Name:  "rule",
				Usage: "automaton `rule` for file intervals; -1 picks a curated rule",
			},
			&cli.IntFlag{
				Name:  "scale",
				Usage: "automaton mask `scale`; 0 picks one at random",
			},
			&cli.BoolFlag{
				Name:  "snap-prepass",
				Usage: "sort random intervals before snapping",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "`N` goroutines per image; 0 uses every CPU",
			},
			&cli.IntFlag{
				Name:  "threads",
				Usage: "sort `N` images concurrently",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "reject unknown interval and sorting function names",
			},
			&cli.BoolFlag{
				Name:  "save-intermediary",
				Usage: "save a PNG snapshot of every stage",
			},
			&cli.StringFlag{
				Name:  "intermediary-dir",
				Usage: "`dir`ectory for stage snapshots",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "only print the summary",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx *cli.Context) error {
	if path := ctx.String("write-config"); path != "" {
		if err := config.CreateDefaultConfigFile(path); err != nil {
			return cli.Exit(fmt.Sprintf("Failed to write config: %v", err), 1)
		}
		fmt.Printf("Default configuration written to: %s\n", path)
		return nil
	}

	cfg, err := config.LoadConfig(ctx.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if ctx.IsSet("seed") {
		cfg.Sort.Seed = ctx.Uint64("seed")
	}

	sortCfg := cfg.Sort
	if name := ctx.String("preset"); name != "" {
		sc, err := cfg.ApplyPreset(name)
		switch {
		case errors.Is(err, config.ErrUnknownPreset):
			log.Printf("Warning: unknown preset %q, available: %s", name, strings.Join(cfg.PresetNames(), ", "))
		case err != nil:
			return cli.Exit(err.Error(), 1)
		default:
			sortCfg = sc
		}
	}
	applyFlags(ctx, &sortCfg, cfg)

	inputs, err := expandInputs(ctx.Args().Slice())
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if len(inputs) == 0 {
		cli.ShowAppHelp(ctx)
		return cli.Exit("no input images", 1)
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	if !cfg.Output.Verbose || ctx.Bool("quiet") {
		logger = log.New(io.Discard, "", 0)
	}

	printBanner(sortCfg, len(inputs))

	b := &batch{
		sort:    sortCfg,
		cfg:     cfg,
		logger:  logger,
		output:  ctx.String("output"),
		outDir:  ctx.String("output-dir"),
		threads: cfg.Processing.Threads,
	}

	start := time.Now()
	results := b.run(context.Background(), inputs)
	failed := printResults(results)

	fmt.Printf("\nProcessed %d images in %.2f seconds\n", len(results), time.Since(start).Seconds())
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d images failed", failed, len(results)), 1)
	}
	return nil
}

// applyFlags copies every explicitly set flag over the loaded configuration
func applyFlags(ctx *cli.Context, sc *config.SortConfig, cfg *config.Config) {
	if ctx.IsSet("bottom-threshold") {
		sc.BottomThreshold = ctx.Float64("bottom-threshold")
	}
	if ctx.IsSet("upper-threshold") {
		sc.UpperThreshold = ctx.Float64("upper-threshold")
	}
	if ctx.IsSet("clength") {
		sc.CharLength = ctx.Int("clength")
	}
	if ctx.IsSet("angle") {
		sc.Angle = ctx.Float64("angle")
	}
	if ctx.IsSet("randomness") {
		sc.Randomness = ctx.Float64("randomness")
	}
	if ctx.IsSet("interval") {
		sc.Segmenter = ctx.String("interval")
	}
	if ctx.IsSet("sort") {
		sc.Metric = ctx.String("sort")
	}
	if ctx.IsSet("rule") {
		sc.Rule = ctx.Int("rule")
	}
	if ctx.IsSet("scale") {
		sc.MaskScale = ctx.Int("scale")
	}
	if ctx.IsSet("snap-prepass") {
		sc.SnapPrepass = ctx.Bool("snap-prepass")
	}

	if ctx.IsSet("workers") {
		cfg.Processing.NumCores = ctx.Int("workers")
	}
	if ctx.IsSet("threads") {
		cfg.Processing.Threads = ctx.Int("threads")
	}
	if ctx.IsSet("strict") {
		cfg.Processing.Strict = ctx.Bool("strict")
	}
	if ctx.IsSet("save-intermediary") {
		cfg.Output.SaveIntermediaryResults = ctx.Bool("save-intermediary")
	}
	if ctx.IsSet("intermediary-dir") {
		cfg.Output.IntermediaryDir = ctx.String("intermediary-dir")
	}
}

func printBanner(sc config.SortConfig, n int) {
	fmt.Println("================================")
	fmt.Println("PIXELSORT")
	fmt.Println("================================")
	fmt.Printf("Images:            %d\n", n)
	fmt.Printf("Interval function: %s\n", sc.Segmenter)
	fmt.Printf("Sorting function:  %s\n", sc.Metric)
	fmt.Printf("Thresholds:        %.2f - %.2f\n", sc.BottomThreshold, sc.UpperThreshold)
	fmt.Printf("Interval length:   %d\n", sc.CharLength)
	fmt.Printf("Randomness:        %.0f%%\n", sc.Randomness)
	fmt.Printf("Angle:             %.1f\n", sc.Angle)
	fmt.Printf("Seed:              %d\n", sc.Seed)
	if sc.Rule >= 0 {
		fmt.Printf("Automaton rule:    %d\n", sc.Rule)
	}
	fmt.Println()
}

// printResults prints one summary per image and returns the failure count
func printResults(results []result) int {
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Printf("%s: FAILED: %v\n", r.input, r.err)
			continue
		}

		rep := r.report
		fmt.Printf("%s -> %s\n", r.input, r.output)
		fmt.Printf("  %dx%d, %s by %s, %d of %d intervals sorted (mean length %.1f)\n",
			rep.Width, rep.Height, rep.Segmenter, rep.Metric, rep.Sorted, rep.Intervals, rep.MeanInterval)
		if rep.Rule >= 0 {
			fmt.Printf("  automaton rule %d, scale %d\n", rep.Rule, rep.Scale)
		}
		fmt.Printf("  lightness %.3f +/- %.3f -> %.3f +/- %.3f in %.2f seconds\n",
			rep.MeanLightnessBefore, rep.StdDevLightnessBefore,
			rep.MeanLightnessAfter, rep.StdDevLightnessAfter, rep.Duration.Seconds())
	}
	return failed
}
