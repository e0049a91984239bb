// Package imaging downsizes and re-encodes photos before they are sent to a
// vision model.
package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

type Options struct {
	// MaxWidth is the widest an output image may be; narrower images keep their size.
	MaxWidth int
	// Quality is the JPEG quality, 1-100.
	Quality int
}

// Prepare decodes data, scales it down to opts.MaxWidth when wider, and
// returns it re-encoded as JPEG.
func Prepare(data []byte, opts Options) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, fit(src, opts.MaxWidth), &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// fit scales src down to maxWidth and flattens any transparency onto white,
// since JPEG has no alpha channel. Opaque images that fit are returned as is.
func fit(src image.Image, maxWidth int) image.Image {
	b := src.Bounds()
	width, height := b.Dx(), b.Dy()
	scale := maxWidth > 0 && width > maxWidth
	if scale {
		height = max(1, height*maxWidth/width)
		width = maxWidth
	}
	if o, ok := src.(interface{ Opaque() bool }); ok && o.Opaque() && !scale {
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if scale {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	} else {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	}
	return dst
}

// PrepareAll runs Prepare on every image concurrently. Results keep the input
// order; if any image fails the whole batch fails.
func PrepareAll(ctx context.Context, images [][]byte, opts Options) ([][]byte, error) {
	out := make([][]byte, len(images))
	g, ctx := errgroup.WithContext(ctx)

	for i, data := range images {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			prepared, err := Prepare(data, opts)
			if err != nil {
				return fmt.Errorf("image %d: %w", i, err)
			}
			out[i] = prepared
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
