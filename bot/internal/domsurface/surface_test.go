package domsurface

import (
	"context"
	"strings"
	"testing"

	"github.com/hazyhaar/wplacebot/palette"
)

type nopSwatch struct{ id int }

func (nopSwatch) Click(context.Context) error { return nil }

func TestPaletteQuery(t *testing.T) {
	got := paletteQuery([]string{`[style*="background-color"]`, " .color ", "", "[data-color]"})
	want := `[style*="background-color"], .color, [data-color]`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if paletteQuery(nil) != "" {
		t.Error("empty selectors should give an empty query")
	}
}

func TestBuildEntries_DropsTransparent(t *testing.T) {
	colors := []string{"rgb(255, 0, 0)", "rgba(0, 0, 0, 0)", "", "rgb(0, 0, 255)"}
	swatches := []palette.Swatch{nopSwatch{0}, nopSwatch{1}, nopSwatch{2}, nopSwatch{3}}

	got := buildEntries(colors, swatches)
	if len(got) != 2 {
		t.Fatalf("len: got %d, want 2", len(got))
	}
	if got[0].Color != "rgb(255, 0, 0)" || got[0].Swatch != (nopSwatch{0}) {
		t.Errorf("entry 0: got %+v", got[0])
	}
	if got[1].Color != "rgb(0, 0, 255)" || got[1].Swatch != (nopSwatch{3}) {
		t.Errorf("entry 1: got %+v", got[1])
	}
}

func TestCanvasClickScript(t *testing.T) {
	if len(ClickEvents) != 5 || ClickEvents[0] != "mousedown" || ClickEvents[4] != "pointerup" {
		t.Errorf("ClickEvents: got %v", ClickEvents)
	}
	for _, s := range []string{"rect.left + x", "rect.top + y", "button: 0", "bubbles: true"} {
		if !strings.Contains(canvasClickJS, s) {
			t.Errorf("canvas click script missing %q", s)
		}
	}
}
