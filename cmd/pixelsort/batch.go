package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/remeh/sizedwaitgroup"

	"pixelsort/pkg/config"
	"pixelsort/pkg/imageio"
	"pixelsort/pkg/pipeline"
)

// imageExtensions are the input suffixes picked up from directories
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".tif", ".tiff", ".bmp", ".webp"}

// expandInputs replaces every directory argument with the images it
// contains, in name order
func expandInputs(args []string) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("input %q could not be opened: %w", arg, err)
		}
		if !info.IsDir() {
			inputs = append(inputs, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("couldn't read input dir %q: %w", arg, err)
		}
		for _, e := range entries {
			if !e.Type().IsRegular() {
				continue
			}
			if slices.Contains(imageExtensions, strings.ToLower(filepath.Ext(e.Name()))) {
				inputs = append(inputs, filepath.Join(arg, e.Name()))
			}
		}
	}
	return inputs, nil
}

// result is the outcome of sorting one input
type result struct {
	input  string
	output string
	report pipeline.RunReport
	err    error
}

// batch sorts several images with the same parameters
type batch struct {
	sort    config.SortConfig
	cfg     *config.Config
	logger  *log.Logger
	output  string
	outDir  string
	threads int
}

// outputFor picks the output path of input i
func (b *batch) outputFor(inputs []string, i int) string {
	if len(inputs) == 1 && b.output != "" {
		return b.output
	}
	return imageio.OutputPath(inputs[i], b.outDir)
}

// run sorts every input, at most b.threads at a time. Results keep the
// order of inputs.
func (b *batch) run(ctx context.Context, inputs []string) []result {
	results := make([]result, len(inputs))
	swg := sizedwaitgroup.New(max(b.threads, 1))

	for i := range inputs {
		swg.Add()
		go func(i int) {
			defer swg.Done()
			results[i] = b.sortOne(ctx, inputs, i)
		}(i)
	}
	swg.Wait()

	return results
}

func (b *batch) sortOne(ctx context.Context, inputs []string, i int) result {
	r := result{input: inputs[i], output: b.outputFor(inputs, i)}

	opts := []pipeline.Option{
		pipeline.WithLogger(b.logger),
		pipeline.WithWorkers(b.cfg.Processing.NumCores),
		pipeline.WithStrict(b.cfg.Processing.Strict),
	}
	if b.cfg.Output.SaveIntermediaryResults {
		dir := b.cfg.Output.IntermediaryDir
		if len(inputs) > 1 {
			dir = filepath.Join(dir, fmt.Sprintf("%03d", i))
		}
		opts = append(opts, pipeline.WithIntermediaryDir(dir))
	}

	p, err := pipeline.New(b.sort, opts...)
	if err != nil {
		r.err = err
		return r
	}

	b.logger.Printf("Loading image %d (%s -> %s)...", i+1, r.input, r.output)
	if err := p.SortFile(ctx, r.input, r.output); err != nil {
		r.err = err
		return r
	}
	r.report = p.Report()
	return r
}
