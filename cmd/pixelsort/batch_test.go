package main

import (
	"context"
	"image"
	"image/color"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"pixelsort/pkg/config"
	"pixelsort/pkg/imageio"
)

func writeTestImage(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 6, 4))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}
	img.SetNRGBA(0, 0, color.NRGBA{1, 2, 3, 255})
	if err := imageio.Save(path, img); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
}

// TestExpandInputs verifies that directories are expanded to their images
func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	writeTestImage(t, filepath.Join(dir, "b.png"))
	writeTestImage(t, filepath.Join(dir, "a.PNG"))
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0755); err != nil {
		t.Fatal(err)
	}

	inputs, err := expandInputs([]string{dir})
	if err != nil {
		t.Fatalf("expandInputs failed: %v", err)
	}
	expected := []string{filepath.Join(dir, "a.PNG"), filepath.Join(dir, "b.png")}
	if len(inputs) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, inputs)
	}
	for i := range expected {
		if inputs[i] != expected[i] {
			t.Errorf("Expected %v, got %v", expected, inputs)
			break
		}
	}

	if _, err := expandInputs([]string{filepath.Join(dir, "missing.png")}); err == nil {
		t.Error("Expected error for missing input")
	}
}

// TestBatchRun verifies that every input is sorted in order
func TestBatchRun(t *testing.T) {
	dir := t.TempDir()
	inputs := []string{filepath.Join(dir, "one.png"), filepath.Join(dir, "two.png"), filepath.Join(dir, "three.png")}
	for _, in := range inputs {
		writeTestImage(t, in)
	}

	cfg := config.DefaultConfig()
	b := &batch{
		sort:    cfg.Sort,
		cfg:     cfg,
		logger:  log.New(io.Discard, "", 0),
		outDir:  filepath.Join(dir, "out"),
		threads: 2,
	}

	results := b.run(context.Background(), inputs)
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.err != nil {
			t.Errorf("Image %d failed: %v", i, r.err)
			continue
		}
		if r.input != inputs[i] {
			t.Errorf("Expected result %d for %s, got %s", i, inputs[i], r.input)
		}
		if _, err := os.Stat(r.output); err != nil {
			t.Errorf("Missing output %s: %v", r.output, err)
		}
		if r.report.Width != 6 || r.report.Height != 4 {
			t.Errorf("Expected report for 6x4, got %dx%d", r.report.Width, r.report.Height)
		}
	}
}

// TestOutputFor verifies the explicit output is only used for single inputs
func TestOutputFor(t *testing.T) {
	b := &batch{output: "custom.png"}
	if got := b.outputFor([]string{"in.jpg"}, 0); got != "custom.png" {
		t.Errorf("Expected custom.png, got %s", got)
	}
	if got := b.outputFor([]string{"in.jpg", "other.jpg"}, 1); got != "other_sorted.png" {
		t.Errorf("Expected other_sorted.png, got %s", got)
	}
}
