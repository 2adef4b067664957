package browser

import (
	"io"
	"log/slog"
	"testing"

	"github.com/go-rod/rod/lib/proto"
)

func TestBlockPolicy(t *testing.T) {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := newBlockPolicy([]string{"Fonts", " media ", "images", "scripts", "xhr", "bogus"}, quiet)

	cases := []struct {
		t    proto.NetworkResourceType
		want bool
	}{
		{proto.NetworkResourceTypeFont, true},
		{proto.NetworkResourceTypeMedia, true},
		{proto.NetworkResourceTypeImage, false},
		{proto.NetworkResourceTypeScript, false},
		{proto.NetworkResourceTypeXHR, false},
		{proto.NetworkResourceTypeStylesheet, false},
	}
	for _, c := range cases {
		if got := p.blocks(c.t); got != c.want {
			t.Errorf("blocks(%s): got %v, want %v", c.t, got, c.want)
		}
	}
	if len(p) != 2 {
		t.Errorf("policy size: got %d, want 2 (canvas types and unknown names dropped)", len(p))
	}
	if len(newBlockPolicy(nil, quiet)) != 0 {
		t.Error("nil names should give an empty policy")
	}
}

func TestDisplaySocket(t *testing.T) {
	cases := map[string]string{
		":99":   "/tmp/.X11-unix/X99",
		":0":    "/tmp/.X11-unix/X0",
		":10.0": "/tmp/.X11-unix/X10",
	}
	for display, want := range cases {
		got, err := displaySocket(display)
		if err != nil || got != want {
			t.Errorf("displaySocket(%q): got %q, %v; want %q", display, got, err, want)
		}
	}
	for _, bad := range []string{"", "99", ":x", "host:1"} {
		if _, err := displaySocket(bad); err == nil {
			t.Errorf("displaySocket(%q): expected error", bad)
		}
	}
}

func TestParseMode(t *testing.T) {
	if ParseMode("headful") != ModeHeadful {
		t.Error("ParseMode(headful)")
	}
	for _, s := range []string{"headless", "", "bogus"} {
		if ParseMode(s) != ModeHeadless {
			t.Errorf("ParseMode(%q): want headless", s)
		}
	}
	if ModeHeadful.String() != "headful" {
		t.Errorf("String: got %q", ModeHeadful.String())
	}
}
