package sink

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/wplacebot/event"
)

// Router fans out events to every sink. One failing sink does not block
// the others; errors are logged and the first one is returned.
type Router struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewRouter creates a fan-out router delivering to all sinks.
func NewRouter(logger *slog.Logger, sinks ...Sink) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sinks: sinks, logger: logger}
}

// Len reports the number of sinks.
func (r *Router) Len() int { return len(r.sinks) }

func (r *Router) Send(ctx context.Context, ev event.Event) error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Send(ctx, ev); err != nil {
			r.logger.Warn("sink: send event failed", "kind", ev.Kind, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Router) Close() error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
