// Package sampler turns an arbitrary raster into a bounded list of opaque
// pixels. Scaling is nearest-neighbour so palette-art inputs keep hard edges.
package sampler

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/hazyhaar/wplacebot/palette"
	"github.com/hazyhaar/wplacebot/pixel"
)

// AlphaCutoff is the lowest alpha (0-255) kept as a pixel. Anything more
// transparent is treated as absent.
const AlphaCutoff = 128

// Size returns the output dimensions for an image of size src fitted into a
// maxW x maxH box with a uniform scale. Each side is at least 1. The scale
// may exceed 1, in which case small images are enlarged. A zero-area src
// yields the zero point.
func Size(src image.Point, maxW, maxH int) image.Point {
	if src.X <= 0 || src.Y <= 0 {
		return image.Point{}
	}
	scale := math.Min(float64(maxW)/float64(src.X), float64(maxH)/float64(src.Y))
	w := int(math.Floor(float64(src.X) * scale))
	h := int(math.Floor(float64(src.Y) * scale))
	return image.Pt(max(1, w), max(1, h))
}

// Resample scales img to fit the maxW x maxH box with nearest-neighbour
// sampling and returns the non-premultiplied result.
func Resample(img image.Image, maxW, maxH int) *image.NRGBA {
	b := img.Bounds()
	if b.Empty() {
		return image.NewNRGBA(image.Rectangle{})
	}
	size := Size(b.Size(), maxW, maxH)
	dst := image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Sample resamples img into the box and emits every pixel whose alpha is at
// least AlphaCutoff, row by row, as a lowercase #rrggbb colour.
func Sample(img image.Image, maxW, maxH int) []pixel.Pixel {
	return Opaque(Resample(img, maxW, maxH))
}

// Opaque lists the pixels of img with alpha at least AlphaCutoff in
// row-major order, relative to the top-left corner.
func Opaque(img *image.NRGBA) []pixel.Pixel {
	b := img.Bounds()

	var out []pixel.Pixel
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			if c.A < AlphaCutoff {
				continue
			}
			out = append(out, pixel.Pixel{
				X:     x - b.Min.X,
				Y:     y - b.Min.Y,
				Color: palette.RGB{R: c.R, G: c.G, B: c.B}.Hex(),
			})
		}
	}
	return out
}
