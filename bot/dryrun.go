package bot

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/wplacebot/palette"
	"github.com/hazyhaar/wplacebot/placer"
)

// dryRunSurface stands in for the page when no browser is wanted: the
// palette is the public free palette and every click is only logged.
type dryRunSurface struct {
	logger *slog.Logger
}

func (d dryRunSurface) FindCanvas(context.Context) (placer.Canvas, error) {
	return dryRunCanvas(d), nil
}

func (d dryRunSurface) FindPalette(context.Context) ([]palette.Entry, error) {
	entries := make([]palette.Entry, len(palette.WplaceFree))
	for i, c := range palette.WplaceFree {
		entries[i] = palette.Entry{Color: c, Swatch: dryRunSwatch{color: c, logger: d.logger}}
	}
	return entries, nil
}

type dryRunCanvas struct {
	logger *slog.Logger
}

func (c dryRunCanvas) Click(_ context.Context, x, y int) error {
	c.logger.Debug("bot: dry-run canvas click", "x", x, "y", y)
	return nil
}

type dryRunSwatch struct {
	color  string
	logger *slog.Logger
}

func (s dryRunSwatch) Click(context.Context) error {
	s.logger.Debug("bot: dry-run swatch click", "color", s.color)
	return nil
}

// lazySurface lets the loop be built before the browser exists.
type lazySurface struct {
	b *Bot
}

func (l lazySurface) FindCanvas(ctx context.Context) (placer.Canvas, error) {
	s := l.b.currentSurface()
	if s == nil {
		return nil, placer.ErrNoCanvas
	}
	return s.FindCanvas(ctx)
}

func (l lazySurface) FindPalette(ctx context.Context) ([]palette.Entry, error) {
	s := l.b.currentSurface()
	if s == nil {
		return nil, nil
	}
	return s.FindPalette(ctx)
}
