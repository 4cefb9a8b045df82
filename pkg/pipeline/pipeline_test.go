package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"pixelsort/internal/models"
	"pixelsort/pkg/config"
	"pixelsort/pkg/imageio"
	"pixelsort/pkg/segment"
)

// createTestImage returns a w x h gradient with some noise-like variation
func createTestImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8((x * 37) % 256),
				G: uint8((y * 53) % 256),
				B: uint8((x*y + 11) % 256),
				A: 255,
			})
		}
	}
	return img
}

func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	b := img.Bounds()
	return color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
}

func imagesEqual(a, b image.Image) bool {
	if a.Bounds().Dx() != b.Bounds().Dx() || a.Bounds().Dy() != b.Bounds().Dy() {
		return false
	}
	for y := 0; y < a.Bounds().Dy(); y++ {
		for x := 0; x < a.Bounds().Dx(); x++ {
			if nrgbaAt(a, x, y) != nrgbaAt(b, x, y) {
				return false
			}
		}
	}
	return true
}

// TestShapePreserved verifies output dimensions for several angles
func TestShapePreserved(t *testing.T) {
	img := createTestImage(20, 12)

	for _, angle := range []float64{0, 45, 90, 180, 270} {
		cfg := config.DefaultSortConfig()
		cfg.Angle = angle
		cfg.CharLength = 6

		out, err := RunSort(context.Background(), img, cfg)
		if err != nil {
			t.Fatalf("Angle %v: RunSort failed: %v", angle, err)
		}
		if out.Bounds().Dx() != 20 || out.Bounds().Dy() != 12 {
			t.Errorf("Angle %v: expected 20x12, got %v", angle, out.Bounds())
		}
	}
}

// TestNoneWithoutSorting verifies that nothing changes when every interval is skipped
func TestNoneWithoutSorting(t *testing.T) {
	img := createTestImage(15, 9)
	cfg := config.DefaultSortConfig()
	cfg.Segmenter = "none"
	cfg.Randomness = 100

	out, err := RunSort(context.Background(), img, cfg)
	if err != nil {
		t.Fatalf("RunSort failed: %v", err)
	}
	if !imagesEqual(img, out) {
		t.Error("Expected output to equal input")
	}
}

// TestBlackThreshold verifies that an all-black image is left unchanged
func TestBlackThreshold(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}

	cfg := config.DefaultSortConfig()
	cfg.Segmenter = "threshold"
	cfg.Randomness = 0

	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	out, err := p.RunSort(context.Background(), img)
	if err != nil {
		t.Fatalf("RunSort failed: %v", err)
	}
	if !imagesEqual(img, out) {
		t.Error("Expected output to equal input")
	}

	report := p.Report()
	if report.Intervals != 12 {
		t.Errorf("Expected 12 single-pixel intervals, got %d", report.Intervals)
	}
	if report.MeanInterval != 1 || report.StdDevInterval != 0 {
		t.Errorf("Expected interval mean 1 and spread 0, got %v and %v", report.MeanInterval, report.StdDevInterval)
	}
}

// TestSortedRow verifies the single-row scenario end to end
func TestSortedRow(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 5, 1))
	for x, v := range []uint8{230, 25, 128, 77, 179} {
		img.SetNRGBA(x, 0, color.NRGBA{v, v, v, 255})
	}

	cfg := config.DefaultSortConfig()
	cfg.Segmenter = "none"
	cfg.Randomness = 0

	out, err := RunSort(context.Background(), img, cfg)
	if err != nil {
		t.Fatalf("RunSort failed: %v", err)
	}
	for x, want := range []uint8{230, 25, 77, 128, 179} {
		if got := nrgbaAt(out, x, 0).R; got != want {
			t.Errorf("Column %d: expected %d, got %d", x, want, got)
		}
	}
}

// TestDeterministicAcrossWorkers verifies that scheduling does not change output
func TestDeterministicAcrossWorkers(t *testing.T) {
	img := createTestImage(40, 30)

	for _, name := range []string{"random", "waves", "edges", "file-edges", "shuffle-total", "snap"} {
		cfg := config.DefaultSortConfig()
		cfg.Segmenter = name
		cfg.Angle = 30
		cfg.CharLength = 8
		cfg.Randomness = 40
		cfg.Seed = 99

		a, err := RunSort(context.Background(), img, cfg, WithWorkers(1))
		if err != nil {
			t.Fatalf("%s: RunSort failed: %v", name, err)
		}
		b, err := RunSort(context.Background(), img, cfg, WithWorkers(8))
		if err != nil {
			t.Fatalf("%s: RunSort failed: %v", name, err)
		}
		if !imagesEqual(a, b) {
			t.Errorf("%s: output differs between 1 and 8 workers", name)
		}
	}
}

// TestSnapKeepsHalf verifies that snap vanishes exactly half of the pixels
func TestSnapKeepsHalf(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for i := range img.Pix {
		img.Pix[i] = 255
	}

	cfg := config.DefaultSortConfig()
	cfg.Segmenter = "snap"
	cfg.Randomness = 0

	for _, prepass := range []bool{false, true} {
		cfg.SnapPrepass = prepass
		out, err := RunSort(context.Background(), img, cfg)
		if err != nil {
			t.Fatalf("RunSort failed: %v", err)
		}

		vanished := 0
		for y := 0; y < 10; y++ {
			for x := 0; x < 10; x++ {
				if nrgbaAt(out, x, y).A == 0 {
					vanished++
				}
			}
		}
		if vanished != 50 {
			t.Errorf("Prepass %v: expected 50 vanished pixels, got %d", prepass, vanished)
		}
	}
}

// TestMaskRuleReported verifies that the automaton rule reaches the report
func TestMaskRuleReported(t *testing.T) {
	cfg := config.DefaultSortConfig()
	cfg.Segmenter = "file"
	cfg.Rule = 110
	cfg.MaskScale = 2

	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := p.RunSort(context.Background(), createTestImage(16, 16)); err != nil {
		t.Fatalf("RunSort failed: %v", err)
	}

	report := p.Report()
	if report.Rule != 110 || report.Scale != 2 {
		t.Errorf("Expected rule 110 scale 2, got rule %d scale %d", report.Rule, report.Scale)
	}
	if report.Segmenter != "file" {
		t.Errorf("Expected segmenter file, got %s", report.Segmenter)
	}
}

// TestNameFallback verifies the lenient and strict name policies
func TestNameFallback(t *testing.T) {
	cfg := config.DefaultSortConfig()
	cfg.Metric = "brightness"
	cfg.Segmenter = "zigzag"

	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if p.Kind() != segment.Random {
		t.Errorf("Expected fallback segmenter random, got %s", p.Kind())
	}
	if _, err := p.RunSort(context.Background(), createTestImage(4, 4)); err != nil {
		t.Fatalf("RunSort failed: %v", err)
	}
	if p.Report().Metric != "lightness" {
		t.Errorf("Expected fallback metric lightness, got %s", p.Report().Metric)
	}

	_, err = New(cfg, WithStrict(true))
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageConfig {
		t.Errorf("Expected configuration StageError, got %v", err)
	}
}

// TestInvalidConfig verifies that range errors surface as configuration errors
func TestInvalidConfig(t *testing.T) {
	cfg := config.DefaultSortConfig()
	cfg.Randomness = 150

	_, err := New(cfg)
	if !errors.Is(err, config.ErrInvalid) {
		t.Errorf("Expected ErrInvalid, got %v", err)
	}
}

// TestCancelled verifies that a cancelled context aborts the run
func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunSort(ctx, createTestImage(8, 8), config.DefaultSortConfig())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// TestStageErrorPosition verifies that positions are lifted from index errors
func TestStageErrorPosition(t *testing.T) {
	cause := &models.IndexError{Row: 3, Col: 7, Err: models.ErrBadBoundaries}
	err := stageError(StageSorting, cause)

	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("Expected StageError, got %T", err)
	}
	if se.Stage != StageSorting || se.Row != 3 || se.Col != 7 {
		t.Errorf("Expected sorting at (3, 7), got %s at (%d, %d)", se.Stage, se.Row, se.Col)
	}
	if !errors.Is(err, models.ErrBadBoundaries) {
		t.Error("Expected the cause to stay reachable")
	}

	plain := stageError(StageGeometry, errors.New("boom"))
	if plain.Error() != "geometry failed: boom" {
		t.Errorf("Unexpected message %q", plain.Error())
	}
	if stageError(StageGeometry, nil) != nil {
		t.Error("Expected nil for a nil cause")
	}
}

// TestSortFile verifies the file round trip and intermediary snapshots
func TestSortFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.png")
	output := filepath.Join(dir, "out", "in_sorted.png")
	snapshots := filepath.Join(dir, "stages")

	if err := imageio.Save(input, createTestImage(12, 8)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	p, err := New(config.DefaultSortConfig(), WithIntermediaryDir(snapshots))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := p.SortFile(context.Background(), input, output); err != nil {
		t.Fatalf("SortFile failed: %v", err)
	}

	out, err := imageio.Load(output)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if out.Bounds().Dx() != 12 || out.Bounds().Dy() != 8 {
		t.Errorf("Expected 12x8, got %v", out.Bounds())
	}
	for _, stage := range []string{"01_rotated", "02_boundaries", "03_sorted_buffer", "04_sorted", "05_restored"} {
		if _, err := os.Stat(filepath.Join(snapshots, stage, "001.png")); err != nil {
			t.Errorf("Missing %s snapshot: %v", stage, err)
		}
	}

	err = p.SortFile(context.Background(), filepath.Join(dir, "missing.png"), output)
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageDecode {
		t.Errorf("Expected decode StageError, got %v", err)
	}
}
