// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Package icon turns a single source PNG into the fixed set of square web
app icons.

Every icon is derived from one normalized square intermediate: the
source is optionally cropped to its alpha bounding box, placed centered
on a fully transparent square canvas, and only then scaled. All outputs
therefore share identical, undistorted content:

	apple-touch-icon.png  180×180
	icon-192.png          192×192
	icon-512.png          512×512

The canvas is transparent RGBA regardless of whether the source has an
alpha channel, so scaling never introduces visible borders around
opaque sources.
*/
package icon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"go.astrophena.name/base/logger"

	"golang.org/x/image/draw"
)

// Possible errors, used in tests and by the CLI.
var (
	ErrSourceNotFound   = errors.New("source file not found")
	ErrInvalidFormat    = errors.New("source is not a PNG")
	ErrUnreadableInput  = errors.New("failed to decode source image")
	ErrUnwritableOutput = errors.New("failed to write output image")
)

// outputs are the icons that Generate produces, in the order they are
// written.
var outputs = []struct {
	name string
	size int
}{
	{"apple-touch-icon.png", 180},
	{"icon-192.png", 192},
	{"icon-512.png", 512},
}

// Config represents a generation configuration.
type Config struct {
	// Src is the path to the source PNG.
	Src string
	// Dst is the directory where icons are written. If empty, the directory
	// containing the executable is used.
	Dst string
	// Trim crops the source to the bounding box of its non-transparent
	// pixels before squaring.
	Trim bool
	// Margin is the ratio of each canvas side kept as transparent margin
	// around the content. Zero means the canvas side is exactly
	// max(width, height) of the source.
	Margin float64
}

func (c *Config) setDefaults() error {
	if c.Dst == "" {
		exe, err := os.Executable()
		if err != nil {
			return err
		}
		c.Dst = filepath.Dir(exe)
	}
	return nil
}

// Generate produces the full icon set based on the provided [Config].
//
// The source is normalized into a temporary square PNG inside the
// output directory, each icon is scaled from it, and the temporary
// file is removed before Generate returns, on success and failure
// alike.
func Generate(ctx context.Context, c *Config) error {
	if err := c.setDefaults(); err != nil {
		return err
	}

	if _, err := os.Stat(c.Src); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSourceNotFound, c.Src)
		}
		return err
	}
	if err := os.MkdirAll(c.Dst, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrUnwritableOutput, err)
	}

	tmp, err := os.CreateTemp(c.Dst, ".iconize-*.png")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnwritableOutput, err)
	}
	tmp.Close()
	defer os.Remove(tmp.Name())

	if err := Normalize(c.Src, tmp.Name(), Options{Trim: c.Trim, Margin: c.Margin}); err != nil {
		return err
	}

	sq, err := decodePNG(tmp.Name())
	if err != nil {
		return err
	}

	// Stage every icon to a temporary file first and rename the whole
	// set into place at the end: a failure midway must not leave a
	// partial icon set behind.
	staged := make([]string, len(outputs))
	defer func() {
		for _, tmp := range staged {
			if tmp != "" {
				os.Remove(tmp)
			}
		}
	}()
	for i, out := range outputs {
		tmp, err := encodeTemp(c.Dst, scale(sq, out.size))
		if err != nil {
			return err
		}
		staged[i] = tmp
	}

	var written []string
	for i, out := range outputs {
		dst := filepath.Join(c.Dst, out.name)
		if err := os.Rename(staged[i], dst); err != nil {
			for _, w := range written {
				os.Remove(w)
			}
			return fmt.Errorf("%w: %v", ErrUnwritableOutput, err)
		}
		staged[i] = ""
		written = append(written, dst)
		logger.Info(ctx, "wrote icon",
			slog.String("name", out.name),
			slog.Int("size", out.size),
		)
	}

	return nil
}

// Options control the preprocessing applied by [Normalize].
type Options struct {
	// Trim crops the source to its alpha bounding box.
	Trim bool
	// Margin is the transparent margin ratio, see [Config].
	Margin float64
}

// Normalize reads the PNG at src and writes its square normalization
// to dst. The source file is never modified. An already-square source
// still produces a fresh copy, so callers never need to special-case
// it.
//
// The write is atomic: the image is encoded to a temporary file next
// to dst and renamed into place, so a failure never leaves a partial
// PNG at dst.
func Normalize(src, dst string, opts Options) error {
	m, err := decodePNG(src)
	if err != nil {
		return err
	}
	if opts.Trim {
		m = trim(m)
	}
	return writePNG(dst, square(m, opts.Margin))
}

// pngSig is the 8-byte signature every PNG file starts with.
var pngSig = []byte("\x89PNG\r\n\x1a\n")

func decodePNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreadableInput, err)
	}
	defer f.Close()

	// Check the signature before handing the file to the decoder, so a
	// JPEG renamed to .png fails with a format error, not a decode one.
	var sig [8]byte
	if _, err := io.ReadFull(f, sig[:]); err != nil || !bytes.Equal(sig[:], pngSig) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, path)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableInput, err)
	}

	m, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableInput, err)
	}
	return m, nil
}

func writePNG(dst string, m image.Image) error {
	tmp, err := encodeTemp(filepath.Dir(dst), m)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrUnwritableOutput, err)
	}
	return nil
}

// encodeTemp encodes m to a fresh temporary file in dir and returns
// its path. The caller either renames the file into place or removes
// it.
func encodeTemp(dir string, m image.Image) (string, error) {
	f, err := os.CreateTemp(dir, ".iconize-out-*.png")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnwritableOutput, err)
	}
	if err := png.Encode(f, m); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: %v", ErrUnwritableOutput, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: %v", ErrUnwritableOutput, err)
	}
	return f.Name(), nil
}

// square places m centered on a transparent square canvas. With a zero
// margin the canvas side is exactly max(width, height) of m, and the
// offsets are floored, so a 100×50 source lands at rows 25–74. A
// positive margin grows the canvas so the content occupies the central
// 1−2·margin share of each side; the share is clamped to [0.1, 0.95].
func square(m image.Image, margin float64) *image.RGBA {
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()

	side := max(w, h)
	if margin > 0 {
		share := min(max(1-2*margin, 0.1), 0.95)
		side = max(int(math.Ceil(float64(side)/share)), side)
	}

	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	off := image.Pt((side-w)/2, (side-h)/2)
	draw.Draw(dst, image.Rectangle{Min: off, Max: off.Add(image.Pt(w, h))}, m, b.Min, draw.Src)
	return dst
}

// trim crops m to the bounding box of its non-transparent pixels. A
// fully transparent image is returned unchanged.
func trim(m image.Image) image.Image {
	b := m.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := m.At(x, y).RGBA(); a > 0 {
				minX = min(minX, x)
				minY = min(minY, y)
				maxX = max(maxX, x)
				maxY = max(maxY, y)
			}
		}
	}
	if maxX < minX {
		return m
	}

	crop := image.Rect(0, 0, maxX-minX+1, maxY-minY+1)
	dst := image.NewRGBA(crop)
	draw.Draw(dst, crop, m, image.Pt(minX, minY), draw.Src)
	return dst
}

// scale resizes m to a size×size square using Catmull-Rom resampling.
// m is expected to be square already, so no aspect distortion can
// occur.
func scale(m image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Rect, m, m.Bounds(), draw.Src, nil)
	return dst
}
