// Package event defines the records a placement job emits. Sinks (stdout,
// webhook, journal, in-process callbacks) all consume this type, so it is
// the public contract for anything watching the bot.
package event

// Kind is the type of event.
type Kind string

const (
	KindLoaded   Kind = "loaded"   // a new pixel list replaced the queue
	KindStarted  Kind = "started"  // a job left Idle
	KindPlaced   Kind = "placed"   // colour selected and canvas clicked
	KindSkipped  Kind = "skipped"  // step advanced without a canvas click
	KindFinished Kind = "finished" // queue exhausted
	KindStopped  Kind = "stopped"  // stop signal or context cancellation observed
)

// Reason explains a skipped step or a degraded job.
type Reason string

const (
	ReasonNoPaletteMatch Reason = "no_palette_match"
	ReasonSelectFailed   Reason = "select_failed"
	ReasonNoCanvas       Reason = "no_canvas"
	ReasonClickFailed    Reason = "click_failed"
)

// Event is one observation of the placement loop.
type Event struct {
	ID        string  `json:"id"`
	JobID     string  `json:"job_id,omitempty"`
	Seq       uint64  `json:"seq"` // per job, starting at 1
	Kind      Kind    `json:"kind"`
	Index     int     `json:"index"` // pixel index for step events
	Total     int     `json:"total"`
	X         int     `json:"x"` // absolute canvas coordinate
	Y         int     `json:"y"`
	Color     string  `json:"color,omitempty"`   // requested colour
	Matched   string  `json:"matched,omitempty"` // palette colour actually selected
	Distance  float64 `json:"distance,omitempty"`
	Reason    Reason  `json:"reason,omitempty"`
	Detail    string  `json:"detail,omitempty"`
	Timestamp int64   `json:"timestamp"` // epoch milliseconds
}

// Terminal reports whether e ends a job.
func (e Event) Terminal() bool {
	return e.Kind == KindFinished || e.Kind == KindStopped
}
