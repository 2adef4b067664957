package sink

import (
	"context"

	"github.com/hazyhaar/wplacebot/event"
)

// Func receives events in-process.
type Func func(ctx context.Context, ev event.Event) error

// Callback delivers events through a Go function call, no serialisation.
type Callback struct {
	fn Func
}

// NewCallback creates a Callback sink. A nil fn drops every event.
func NewCallback(fn Func) *Callback {
	return &Callback{fn: fn}
}

func (c *Callback) Send(ctx context.Context, ev event.Event) error {
	if c.fn == nil {
		return nil
	}
	return c.fn(ctx, ev)
}

func (c *Callback) Close() error { return nil }
