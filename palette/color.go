// Package palette matches target colours against the swatches a canvas page
// exposes. Matching is a plain nearest-neighbour search over the swatch list;
// the swatch list itself comes from a DOM scan done elsewhere.
package palette

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// RGB is an 8-bit-per-channel colour.
type RGB struct {
	R, G, B uint8
}

// Hex formats c as lowercase "#rrggbb".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c RGB) String() string { return c.Hex() }

var (
	hexPattern   = regexp.MustCompile(`^#?([a-fA-F\d]{2})([a-fA-F\d]{2})([a-fA-F\d]{2})$`)
	digitPattern = regexp.MustCompile(`\d+`)
)

// ParseHex parses "#rrggbb" or "rrggbb", case-insensitive. Short forms and
// alpha suffixes are rejected.
func ParseHex(s string) (RGB, bool) {
	m := hexPattern.FindStringSubmatch(s)
	if m == nil {
		return RGB{}, false
	}
	var ch [3]uint8
	for i := range ch {
		v, err := strconv.ParseUint(m[i+1], 16, 8)
		if err != nil {
			return RGB{}, false
		}
		ch[i] = uint8(v)
	}
	return RGB{R: ch[0], G: ch[1], B: ch[2]}, true
}

// ParseColor accepts a hex colour or a CSS functional colour as returned by
// getComputedStyle ("rgb(237, 28, 36)", "rgba(0, 0, 0, 0.5)"). For the
// functional form the first three integer runs are the channels.
func ParseColor(s string) (RGB, bool) {
	s = strings.TrimSpace(s)
	if c, ok := ParseHex(s); ok {
		return c, true
	}
	runs := digitPattern.FindAllString(s, 3)
	if len(runs) < 3 {
		return RGB{}, false
	}
	var ch [3]uint8
	for i, r := range runs {
		v, err := strconv.Atoi(r)
		if err != nil || v > 255 {
			return RGB{}, false
		}
		ch[i] = uint8(v)
	}
	return RGB{R: ch[0], G: ch[1], B: ch[2]}, true
}

// Transparent reports whether a computed background colour is the fully
// transparent default. Such elements are not swatches.
func Transparent(css string) bool {
	css = strings.TrimSpace(css)
	return css == "" || css == "transparent" || css == "rgba(0, 0, 0, 0)"
}
