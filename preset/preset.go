// Package preset holds the built-in drawings. Each is a small legend bitmap
// expanded to a row-major hex colour grid.
package preset

import (
	"sort"
	"strings"

	"github.com/hazyhaar/wplacebot/pixel"
)

// Grid is a named colour grid ready for pixel.FromGrid.
type Grid struct {
	Name   string
	Width  int
	Height int
	Colors []string
}

// Pixels expands g into a pixel list.
func (g Grid) Pixels() []pixel.Pixel {
	return pixel.FromGrid(g.Colors, g.Width, g.Height)
}

// fallback is used for legend cells with no colour mapping.
const fallback = "#FFFFFF"

// expand turns rows of legend runes into a Grid. All rows must have the
// same length.
func expand(name string, rows []string, legend map[rune]string) Grid {
	g := Grid{Name: name, Height: len(rows)}
	for _, row := range rows {
		cells := []rune(row)
		g.Width = len(cells)
		for _, r := range cells {
			c, ok := legend[r]
			if !ok {
				c = fallback
			}
			g.Colors = append(g.Colors, c)
		}
	}
	return g
}

// Heart is a 7x7 red heart on white.
func Heart() Grid {
	return expand("heart", []string{
		"WRRWRRW",
		"RRRRRRR",
		"RRRRRRR",
		"RRRRRRR",
		"WRRRRRW",
		"WWRRRWW",
		"WWWRWWW",
	}, map[rune]string{'R': "#FF0000", 'W': "#FFFFFF"})
}

// Smiley is a 7x7 yellow face with black eyes and mouth.
func Smiley() Grid {
	return expand("smiley", []string{
		"WWYYYWW",
		"WYYYYYW",
		"YYKYKYY",
		"YYYYYYY",
		"YKYYYKY",
		"WYKKKYW",
		"WWYYYWW",
	}, map[rune]string{'Y': "#FFFF00", 'K': "#000000", 'W': "#FFFFFF"})
}

var registry = map[string]func() Grid{
	"heart":  Heart,
	"smiley": Smiley,
}

// Lookup returns the preset called name, case-insensitively.
func Lookup(name string) (Grid, bool) {
	fn, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Grid{}, false
	}
	return fn(), true
}

// Names lists the preset names in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
