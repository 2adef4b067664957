package palette

import (
	"context"
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Swatch is the clickable element behind a palette entry. Selecting a colour
// on the page means clicking its swatch.
type Swatch interface {
	Click(ctx context.Context) error
}

// Entry is one colour offered by the page. Color holds the string read from
// the page (computed style or hex); Swatch may be nil for offline palettes.
type Entry struct {
	Color  string
	Swatch Swatch
}

// Match is the result of a nearest-colour search. Distance is -1 when the
// entry is a fallback rather than a measured match.
type Match struct {
	Entry    Entry
	Index    int
	Distance float64
}

// Metric selects the distance used for matching.
type Metric int

const (
	// MetricRGB is plain Euclidean distance over the three 0-255 channels.
	MetricRGB Metric = iota
	// MetricLab is Euclidean distance in CIE L*a*b*.
	MetricLab
)

// ParseMetric maps a config value to a Metric. Empty means MetricRGB.
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "", "rgb":
		return MetricRGB, nil
	case "lab":
		return MetricLab, nil
	}
	return MetricRGB, fmt.Errorf("palette: unknown metric %q", s)
}

func (m Metric) String() string {
	if m == MetricLab {
		return "lab"
	}
	return "rgb"
}

// Distance returns the distance between a and b under m.
func (m Metric) Distance(a, b RGB) float64 {
	if m == MetricLab {
		return toColorful(a).DistanceLab(toColorful(b))
	}
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

func toColorful(c RGB) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// Matcher finds the palette entry closest to a target colour.
type Matcher struct {
	Metric Metric
}

// Closest returns the entry nearest to target.
//
// It reports false only when entries is empty. A malformed target, or a
// palette in which no colour parses, yields the first entry: callers get an
// arbitrary but usable swatch rather than nothing. Entries whose colour does
// not parse are skipped. On equal distance the earlier entry wins.
func (m Matcher) Closest(target string, entries []Entry) (Match, bool) {
	if len(entries) == 0 {
		return Match{}, false
	}
	best := Match{Entry: entries[0], Index: 0, Distance: -1}

	want, ok := ParseHex(target)
	if !ok {
		return best, true
	}

	for i, e := range entries {
		c, ok := ParseColor(e.Color)
		if !ok {
			continue
		}
		d := m.Metric.Distance(want, c)
		if best.Distance < 0 || d < best.Distance {
			best = Match{Entry: e, Index: i, Distance: d}
		}
	}
	return best, true
}

// Closest matches with the default RGB metric.
func Closest(target string, entries []Entry) (Match, bool) {
	return Matcher{}.Closest(target, entries)
}

// WplaceFree is the free wplace.live palette, in swatch order. Dry runs use
// it in place of a scanned palette.
var WplaceFree = []string{
	"#000000", "#3c3c3c", "#787878", "#d2d2d2", "#ffffff",
	"#600018", "#ed1c24", "#ff7f27", "#f6aa09", "#f9dd3b",
	"#fffabc", "#0eb968", "#13e67b", "#87ff5e", "#0c816e",
	"#10aea6", "#13e1be", "#28509e", "#4093e4", "#60f7f2",
	"#6b50f6", "#99b1fb", "#780c99", "#aa38b9", "#e09ff9",
	"#cb007a", "#ec1f80", "#f38da9", "#684634", "#95682a",
	"#f8b277",
}

// FromHex builds swatch-less entries from hex strings.
func FromHex(colors []string) []Entry {
	out := make([]Entry, len(colors))
	for i, c := range colors {
		out[i] = Entry{Color: c}
	}
	return out
}
