// Package domsurface implements placer.Surface on a live Rod page: canvas
// lookup by selector, palette scan by computed background colour, and
// synthetic pointer clicks on the canvas.
package domsurface

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/wplacebot/palette"
	"github.com/hazyhaar/wplacebot/placer"
)

// ClickEvents is the sequence of mouse events dispatched for one canvas click.
var ClickEvents = []string{"mousedown", "mouseup", "click", "pointerdown", "pointerup"}

// Surface scans a Rod page. It holds no element state between scans.
type Surface struct {
	page      *rod.Page
	canvasSel []string
	swatchSel []string
	logger    *slog.Logger
}

// New returns a Surface over page. Empty selector lists disable the
// corresponding lookup.
func New(page *rod.Page, canvasSelectors, paletteSelectors []string, logger *slog.Logger) *Surface {
	if logger == nil {
		logger = slog.Default()
	}
	return &Surface{
		page:      page,
		canvasSel: canvasSelectors,
		swatchSel: paletteSelectors,
		logger:    logger,
	}
}

// FindCanvas returns the first element matching the canvas selectors, tried
// in order.
func (s *Surface) FindCanvas(ctx context.Context) (placer.Canvas, error) {
	page := s.page.Context(ctx)
	for _, sel := range s.canvasSel {
		els, err := page.Elements(sel)
		if err != nil {
			return nil, fmt.Errorf("domsurface: find canvas %q: %w", sel, err)
		}
		if len(els) > 0 {
			s.logger.Info("domsurface: canvas found", "selector", sel)
			return &canvas{el: els.First()}, nil
		}
	}
	return nil, placer.ErrNoCanvas
}

// FindPalette returns every swatch matching any palette selector, in
// document order, without transparent backgrounds.
func (s *Surface) FindPalette(ctx context.Context) ([]palette.Entry, error) {
	query := paletteQuery(s.swatchSel)
	if query == "" {
		return nil, nil
	}
	els, err := s.page.Context(ctx).Elements(query)
	if err != nil {
		return nil, fmt.Errorf("domsurface: find palette: %w", err)
	}

	colors := make([]string, 0, len(els))
	swatches := make([]palette.Swatch, 0, len(els))
	for _, el := range els {
		obj, err := el.Context(ctx).Eval(backgroundJS)
		if err != nil {
			// Elements detached between query and eval are not swatches.
			s.logger.Debug("domsurface: swatch style", "error", err)
			continue
		}
		colors = append(colors, obj.Value.Str())
		swatches = append(swatches, &swatch{el: el})
	}

	entries := buildEntries(colors, swatches)
	s.logger.Info("domsurface: palette scanned", "candidates", len(els), "colors", len(entries))
	return entries, nil
}

// paletteQuery joins selectors into one querySelectorAll group so elements
// matching several selectors appear once.
func paletteQuery(selectors []string) string {
	parts := make([]string, 0, len(selectors))
	for _, s := range selectors {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// buildEntries pairs colours with swatches and drops transparent ones.
func buildEntries(colors []string, swatches []palette.Swatch) []palette.Entry {
	var out []palette.Entry
	for i, c := range colors {
		if palette.Transparent(c) {
			continue
		}
		out = append(out, palette.Entry{Color: c, Swatch: swatches[i]})
	}
	return out
}

type swatch struct {
	el *rod.Element
}

func (w *swatch) Click(ctx context.Context) error {
	if _, err := w.el.Context(ctx).Eval(clickJS); err != nil {
		return fmt.Errorf("domsurface: swatch click: %w", err)
	}
	return nil
}

type canvas struct {
	el *rod.Element
}

// Click dispatches ClickEvents at (x, y) relative to the canvas bounding box.
func (c *canvas) Click(ctx context.Context, x, y int) error {
	if _, err := c.el.Context(ctx).Eval(canvasClickJS, x, y, ClickEvents); err != nil {
		return fmt.Errorf("domsurface: canvas click (%d, %d): %w", x, y, err)
	}
	return nil
}
