package models

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

var (
	// ErrNotRectangular is returned when the rows of a buffer differ in length
	ErrNotRectangular = errors.New("pixel buffer is not rectangular")

	// ErrBadBoundaries is returned when a boundary list is not strictly
	// increasing or does not end at the row width
	ErrBadBoundaries = errors.New("invalid interval boundaries")
)

// Pixel is a single non-premultiplied RGBA value
type Pixel struct {
	R, G, B, A uint8
}

var (
	// Black is the boundary marker produced by thresholding
	Black = Pixel{0, 0, 0, 255}

	// White is the non-boundary marker produced by thresholding
	White = Pixel{255, 255, 255, 255}

	// Vanished marks a pixel removed by the snap segmenter
	Vanished = Pixel{0, 0, 0, 0}
)

// PixelFromColor converts any color to a Pixel
func PixelFromColor(c color.Color) Pixel {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Pixel{n.R, n.G, n.B, n.A}
}

// NRGBA returns the pixel as a standard library color
func (p Pixel) NRGBA() color.NRGBA {
	return color.NRGBA{R: p.R, G: p.G, B: p.B, A: p.A}
}

// IndexError locates a data error at a row and, when known, a column.
// Col is -1 when the error concerns the whole row.
type IndexError struct {
	Row int
	Col int
	Err error
}

func (e *IndexError) Error() string {
	if e.Col < 0 {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("row %d, column %d: %v", e.Row, e.Col, e.Err)
}

func (e *IndexError) Unwrap() error { return e.Err }

// Buffer is a rectangular grid of pixels stored row by row.
// Rows[y][x] addresses the pixel in row y (top to bottom) and column x.
type Buffer struct {
	// Width is the number of pixels per row
	Width int

	// Height is the number of rows
	Height int

	// Rows holds the pixel data
	Rows [][]Pixel
}

// NewBuffer allocates a zeroed buffer
func NewBuffer(width, height int) *Buffer {
	rows := make([][]Pixel, height)
	for y := range rows {
		rows[y] = make([]Pixel, width)
	}
	return &Buffer{Width: width, Height: height, Rows: rows}
}

// Validate checks that the buffer is rectangular and matches its declared size
func (b *Buffer) Validate() error {
	if len(b.Rows) != b.Height {
		return fmt.Errorf("%w: %d rows, expected %d", ErrNotRectangular, len(b.Rows), b.Height)
	}
	for y, row := range b.Rows {
		if len(row) != b.Width {
			return &IndexError{
				Row: y,
				Col: -1,
				Err: fmt.Errorf("%w: length %d, expected %d", ErrNotRectangular, len(row), b.Width),
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the buffer
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{Width: b.Width, Height: b.Height, Rows: make([][]Pixel, len(b.Rows))}
	for y, row := range b.Rows {
		out.Rows[y] = append([]Pixel(nil), row...)
	}
	return out
}

// FillRow copies row y of img into row, which must be as long as the image is wide
func FillRow(img image.Image, y int, row []Pixel) {
	bounds := img.Bounds()
	if nrgba, ok := img.(*image.NRGBA); ok {
		off := nrgba.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		for x := range row {
			p := nrgba.Pix[off+x*4 : off+x*4+4 : off+x*4+4]
			row[x] = Pixel{p[0], p[1], p[2], p[3]}
		}
		return
	}
	for x := range row {
		row[x] = PixelFromColor(img.At(bounds.Min.X+x, bounds.Min.Y+y))
	}
}

// StoreRow writes row y of the buffer into dst
func (b *Buffer) StoreRow(dst *image.NRGBA, y int) {
	off := dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y)
	for x, p := range b.Rows[y] {
		i := off + x*4
		dst.Pix[i+0] = p.R
		dst.Pix[i+1] = p.G
		dst.Pix[i+2] = p.B
		dst.Pix[i+3] = p.A
	}
}

// FromImage extracts a buffer from img
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	buf := NewBuffer(bounds.Dx(), bounds.Dy())
	for y := range buf.Rows {
		FillRow(img, y, buf.Rows[y])
	}
	return buf
}

// Image renders the buffer into a new image anchored at the origin
func (b *Buffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := range b.Rows {
		b.StoreRow(img, y)
	}
	return img
}

// Boundaries holds, for every row, the exclusive end column of each interval.
// The first interval of a row starts at column 0 and the last entry equals
// the row width.
type Boundaries [][]int

// ValidateRow checks that row y is strictly increasing and ends at width
func (b Boundaries) ValidateRow(y, width int) error {
	row := b[y]
	if len(row) == 0 {
		return &IndexError{Row: y, Col: -1, Err: fmt.Errorf("%w: empty boundary list", ErrBadBoundaries)}
	}
	prev := 0
	for i, x := range row {
		if x < 0 || x > width || (i > 0 && x <= prev) {
			return &IndexError{Row: y, Col: x, Err: fmt.Errorf("%w: boundary %d out of order", ErrBadBoundaries, i)}
		}
		prev = x
	}
	if last := row[len(row)-1]; last != width {
		return &IndexError{Row: y, Col: last, Err: fmt.Errorf("%w: last boundary must equal width %d", ErrBadBoundaries, width)}
	}
	return nil
}

// Validate checks every row against the buffer width
func (b Boundaries) Validate(width, height int) error {
	if len(b) != height {
		return fmt.Errorf("%w: %d rows, expected %d", ErrBadBoundaries, len(b), height)
	}
	for y := range b {
		if err := b.ValidateRow(y, width); err != nil {
			return err
		}
	}
	return nil
}
