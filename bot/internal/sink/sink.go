// Package sink defines output backends for placement events.
package sink

import (
	"context"

	"github.com/hazyhaar/wplacebot/event"
)

// Sink delivers placement events to a backend (stdout, webhook, journal,
// in-process callback).
type Sink interface {
	Send(ctx context.Context, ev event.Event) error
	Close() error
}

type envelope struct {
	Type string      `json:"type"`
	Data event.Event `json:"data"`
}
