package models

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

// TestBufferRoundTrip verifies that extraction and rendering preserve pixels
func TestBufferRoundTrip(t *testing.T) {
	img := image.NewNRGBA(image.Rect(2, 3, 6, 5))
	for y := 3; y < 5; y++ {
		for x := 2; x < 6; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 10), uint8(y * 10), 5, uint8(100 + x)})
		}
	}

	buf := FromImage(img)
	if buf.Width != 4 || buf.Height != 2 {
		t.Fatalf("Expected 4x2 buffer, got %dx%d", buf.Width, buf.Height)
	}
	if got := buf.Rows[0][0]; got != (Pixel{20, 30, 5, 102}) {
		t.Errorf("Expected first pixel {20 30 5 102}, got %v", got)
	}

	out := buf.Image()
	if out.Bounds() != image.Rect(0, 0, 4, 2) {
		t.Fatalf("Expected origin-anchored bounds, got %v", out.Bounds())
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			if out.NRGBAAt(x, y) != img.NRGBAAt(x+2, y+3) {
				t.Errorf("Pixel (%d, %d): expected %v, got %v", x, y, img.NRGBAAt(x+2, y+3), out.NRGBAAt(x, y))
			}
		}
	}
}

// TestFillRowGeneric verifies the conversion path for non-NRGBA images
func TestFillRowGeneric(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 1))
	img.SetGray(1, 0, color.Gray{200})

	row := make([]Pixel, 3)
	FillRow(img, 0, row)
	if row[1] != (Pixel{200, 200, 200, 255}) {
		t.Errorf("Expected gray 200, got %v", row[1])
	}
}

// TestBufferValidate verifies rectangularity checks
func TestBufferValidate(t *testing.T) {
	buf := NewBuffer(3, 2)
	if err := buf.Validate(); err != nil {
		t.Errorf("Expected valid buffer, got %v", err)
	}

	buf.Rows[1] = buf.Rows[1][:2]
	err := buf.Validate()
	var idx *IndexError
	if !errors.As(err, &idx) || idx.Row != 1 {
		t.Errorf("Expected IndexError for row 1, got %v", err)
	}
	if !errors.Is(err, ErrNotRectangular) {
		t.Errorf("Expected ErrNotRectangular, got %v", err)
	}

	short := &Buffer{Width: 3, Height: 2, Rows: buf.Rows[:1]}
	if err := short.Validate(); !errors.Is(err, ErrNotRectangular) {
		t.Errorf("Expected ErrNotRectangular, got %v", err)
	}
}

// TestBufferClone verifies that clones do not share rows
func TestBufferClone(t *testing.T) {
	buf := NewBuffer(2, 2)
	clone := buf.Clone()
	clone.Rows[0][0] = White
	if buf.Rows[0][0] == White {
		t.Error("Clone shares storage with the original")
	}
}

// TestBoundariesValidate verifies the boundary contract
func TestBoundariesValidate(t *testing.T) {
	tests := []struct {
		name  string
		row   []int
		valid bool
		col   int
	}{
		{"single", []int{5}, true, 0},
		{"several", []int{1, 3, 5}, true, 0},
		{"empty", []int{}, false, -1},
		{"duplicate", []int{2, 2, 5}, false, 2},
		{"decreasing", []int{3, 1, 5}, false, 1},
		{"short", []int{1, 4}, false, 4},
		{"past end", []int{2, 6}, false, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Boundaries{tt.row}.ValidateRow(0, 5)
			if tt.valid {
				if err != nil {
					t.Errorf("Expected valid, got %v", err)
				}
				return
			}
			var idx *IndexError
			if !errors.As(err, &idx) {
				t.Fatalf("Expected IndexError, got %v", err)
			}
			if idx.Col != tt.col {
				t.Errorf("Expected column %d, got %d", tt.col, idx.Col)
			}
			if !errors.Is(err, ErrBadBoundaries) {
				t.Errorf("Expected ErrBadBoundaries, got %v", err)
			}
		})
	}

	if err := (Boundaries{{5}}).Validate(5, 2); !errors.Is(err, ErrBadBoundaries) {
		t.Errorf("Expected row count error, got %v", err)
	}
}
