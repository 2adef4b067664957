package placer

import (
	"context"
	"errors"
	"time"

	"github.com/hazyhaar/wplacebot/palette"
)

// ErrNoCanvas is returned by a Surface that cannot find a drawable canvas.
// The loop keeps running without canvas clicks.
var ErrNoCanvas = errors.New("placer: canvas not found")

// Canvas receives pointer clicks at canvas-relative coordinates.
type Canvas interface {
	Click(ctx context.Context, x, y int) error
}

// Surface is the page the loop draws on. It is scanned once per job.
type Surface interface {
	FindCanvas(ctx context.Context) (Canvas, error)
	FindPalette(ctx context.Context) ([]palette.Entry, error)
}

// Sleeper suspends the loop between steps. Implementations must return
// promptly with ctx.Err() once ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// TimerSleeper waits on a timer, or until ctx is done.
var TimerSleeper Sleeper = SleeperFunc(func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
})
