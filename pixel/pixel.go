// Package pixel defines the unit of placement work and the loaders that
// build ordered pixel lists from grids and {x, y, color} records.
package pixel

import (
	"errors"
	"fmt"
	"image"
)

// ErrInvalidFormat is returned when a pixel list fails validation. The whole
// list is rejected; nothing is partially accepted.
var ErrInvalidFormat = errors.New("pixel: invalid format")

// Pixel is one queued placement: a local grid coordinate and the colour to
// paint there.
type Pixel struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color string `json:"color"`
}

// At returns the absolute canvas coordinate of p for the given origin.
func (p Pixel) At(origin image.Point) image.Point {
	return image.Pt(origin.X+p.X, origin.Y+p.Y)
}

// FromGrid lays a flat, row-major colour list over a width x height grid.
// Cells whose index falls past the end of colors are dropped.
func FromGrid(colors []string, width, height int) []Pixel {
	if width <= 0 || height <= 0 {
		return nil
	}
	out := make([]Pixel, 0, min(len(colors), width*height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			if i >= len(colors) {
				continue
			}
			out = append(out, Pixel{X: x, Y: y, Color: colors[i]})
		}
	}
	return out
}

// Validate checks every pixel of list. Coordinates must be non-negative.
func Validate(list []Pixel) error {
	for i, p := range list {
		if p.X < 0 || p.Y < 0 {
			return fmt.Errorf("%w: pixel %d: negative coordinate (%d, %d)", ErrInvalidFormat, i, p.X, p.Y)
		}
	}
	return nil
}

// Clone returns a copy of list that shares no backing array with it.
func Clone(list []Pixel) []Pixel {
	if list == nil {
		return nil
	}
	out := make([]Pixel, len(list))
	copy(out, list)
	return out
}

// Summary describes a loaded list.
type Summary struct {
	Count        int `json:"count"`
	Width        int `json:"width"`
	Height       int `json:"height"`
	UniqueColors int `json:"unique_colors"`
}

// Summarize reports the count, the extent (max coordinate + 1) and the
// number of distinct colour strings of list.
func Summarize(list []Pixel) Summary {
	s := Summary{Count: len(list)}
	seen := make(map[string]struct{})
	maxX, maxY := -1, -1
	for _, p := range list {
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
		seen[p.Color] = struct{}{}
	}
	s.Width = maxX + 1
	s.Height = maxY + 1
	s.UniqueColors = len(seen)
	return s
}
