// Package imageio loads source images and writes sorted results.
//
// Decoding accepts every format registered with the image package; this
// package registers PNG, JPEG, GIF, TIFF, BMP and WebP. Output is always
// lossless PNG so that sorted runs are not smeared by compression.
package imageio

import (
	"bufio"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode reads an image in any registered format and reports the format name
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(bufio.NewReader(r))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// Load decodes the image stored at path
func Load(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Encode writes img as PNG
func Encode(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}

// Save writes img as PNG to path, creating parent directories as needed
func Save(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}

	if err := Encode(file, img); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// SaveStage writes a pipeline snapshot to dir/stage/NNN.png
func SaveStage(dir, stage string, index int, img image.Image) error {
	return Save(filepath.Join(dir, stage, fmt.Sprintf("%03d.png", index)), img)
}

// OutputPath derives the default output name for input, placing it in dir
// when dir is set and next to the input otherwise
func OutputPath(input, dir string) string {
	base := filepath.Base(input)
	name := base[:len(base)-len(filepath.Ext(base))] + "_sorted.png"
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, name)
}
