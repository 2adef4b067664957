// Package placer runs the placement loop: for each queued pixel it selects
// the nearest palette colour, clicks the canvas at origin + pixel, advances,
// and waits. One job runs at a time; Stop is observed at step boundaries.
package placer

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/wplacebot/event"
	"github.com/hazyhaar/wplacebot/idgen"
	"github.com/hazyhaar/wplacebot/palette"
	"github.com/hazyhaar/wplacebot/pixel"
	"github.com/hazyhaar/wplacebot/sampler"
)

var (
	// ErrAlreadyRunning rejects Start while a job is in progress.
	ErrAlreadyRunning = errors.New("placer: already running")
	// ErrEmptyQueue rejects Start with nothing to draw.
	ErrEmptyQueue = errors.New("placer: queue is empty")
	// ErrRunning rejects loads while a job is in progress.
	ErrRunning = errors.New("placer: cannot replace the queue while running")
)

const (
	DefaultDelay  = time.Second
	DefaultSettle = 200 * time.Millisecond
)

// Config configures a Loop. Only Surface is required for real work; a nil
// Surface runs jobs that skip every step.
type Config struct {
	Surface Surface
	Sleeper Sleeper // default TimerSleeper
	Matcher palette.Matcher
	Origin  image.Point
	Delay   *time.Duration // inter-pixel wait; nil means DefaultDelay, negative clamped to 0
	Settle  time.Duration  // pause between colour selection and canvas click; default DefaultSettle

	// Notify receives every event. It runs on the loop goroutine and must
	// not call back into the Loop's blocking methods (Start, Load*, Wait,
	// Run).
	Notify func(ctx context.Context, ev event.Event)
	NewID  idgen.Generator
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Sleeper == nil {
		c.Sleeper = TimerSleeper
	}
	if c.Settle <= 0 {
		c.Settle = DefaultSettle
	}
	if c.NewID == nil {
		c.NewID = idgen.Default
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Status is a snapshot of the job state.
type Status struct {
	Running  bool   `json:"running"`
	JobID    string `json:"job_id,omitempty"`
	Cursor   int    `json:"cursor"`
	Total    int    `json:"total"`
	Queued   int    `json:"queued"`
	OriginX  int    `json:"origin_x"`
	OriginY  int    `json:"origin_y"`
	DelayMs  int64  `json:"delay_ms"`
	Selected string `json:"selected_color,omitempty"`
}

// Loop owns the pixel queue and the job state.
type Loop struct {
	cfg   Config
	queue pixel.Queue

	mu       sync.Mutex
	running  bool
	cursor   int
	total    int
	origin   image.Point
	delay    time.Duration
	jobID    string
	selected string
	seq      uint64
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates an idle Loop with an empty queue.
func New(cfg Config) *Loop {
	cfg.defaults()
	delay := DefaultDelay
	if cfg.Delay != nil {
		delay = max(*cfg.Delay, 0)
	}
	return &Loop{
		cfg:    cfg,
		origin: cfg.Origin,
		delay:  delay,
	}
}

// SetOrigin moves the drawing origin. A running job picks it up on its next
// step.
func (l *Loop) SetOrigin(x, y int) {
	l.mu.Lock()
	l.origin = image.Pt(x, y)
	l.mu.Unlock()
	l.cfg.Logger.Info("placer: origin set", "x", x, "y", y)
}

// SetDelay sets the inter-pixel wait. Negative values are clamped to 0.
func (l *Loop) SetDelay(d time.Duration) {
	d = max(d, 0)
	l.mu.Lock()
	l.delay = d
	l.mu.Unlock()
	l.cfg.Logger.Info("placer: delay set", "delay", d)
}

// Status returns the current job state.
func (l *Loop) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Status{
		Running:  l.running,
		JobID:    l.jobID,
		Cursor:   l.cursor,
		Total:    l.total,
		Queued:   l.queue.Len(),
		OriginX:  l.origin.X,
		OriginY:  l.origin.Y,
		DelayMs:  l.delay.Milliseconds(),
		Selected: l.selected,
	}
}

// Pixels returns a copy of the queue.
func (l *Loop) Pixels() []pixel.Pixel {
	return l.queue.Snapshot()
}

// LoadList validates list and replaces the queue with a copy of it. Like
// Start, it waits for a stopped job to finish its step.
func (l *Loop) LoadList(ctx context.Context, list []pixel.Pixel) (pixel.Summary, error) {
	if err := pixel.Validate(list); err != nil {
		return pixel.Summary{}, err
	}

	if err := l.lockIdle(ctx); err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			l.cfg.Logger.Warn("placer: load rejected, job running")
			return pixel.Summary{}, ErrRunning
		}
		return pixel.Summary{}, err
	}
	l.queue.Replace(list)
	l.cursor, l.total = 0, 0
	l.mu.Unlock()

	sum := pixel.Summarize(list)
	l.cfg.Logger.Info("placer: pixels loaded",
		"count", sum.Count, "width", sum.Width, "height", sum.Height,
		"unique_colors", sum.UniqueColors)
	l.notify(ctx, event.Event{Kind: event.KindLoaded, Total: sum.Count})
	return sum, nil
}

// LoadGrid loads a row-major colour grid; see pixel.FromGrid.
func (l *Loop) LoadGrid(ctx context.Context, colors []string, width, height int) (pixel.Summary, error) {
	return l.LoadList(ctx, pixel.FromGrid(colors, width, height))
}

// LoadImage samples img into a maxW x maxH box and loads the opaque pixels.
func (l *Loop) LoadImage(ctx context.Context, img image.Image, maxW, maxH int) (pixel.Summary, error) {
	return l.LoadList(ctx, sampler.Sample(img, maxW, maxH))
}

// Start begins a job over the current queue and returns without waiting
// for it. ctx bounds the whole job: cancelling it ends the job at the next
// wait, like Stop. A job that was stopped but is still finishing its step
// is waited for first, so two jobs never overlap.
func (l *Loop) Start(ctx context.Context) error {
	if err := l.lockIdle(ctx); err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			l.cfg.Logger.Warn("placer: start ignored, already running")
		}
		return err
	}
	items := l.queue.Snapshot()
	if len(items) == 0 {
		l.mu.Unlock()
		l.cfg.Logger.Warn("placer: start ignored, queue is empty")
		return ErrEmptyQueue
	}

	jobCtx, cancel := context.WithCancel(ctx)
	l.running = true
	l.cursor = 0
	l.total = len(items)
	l.jobID = idgen.Prefixed("job_", l.cfg.NewID)()
	l.seq = 0
	l.selected = ""
	l.cancel = cancel
	l.done = make(chan struct{})
	done := l.done
	l.mu.Unlock()

	go l.run(ctx, jobCtx, items, done)
	return nil
}

// lockIdle takes l.mu once no job goroutine is alive. A job that was
// stopped but is still finishing its step is waited for; a running one
// fails with ErrAlreadyRunning. On error the lock is not held.
func (l *Loop) lockIdle(ctx context.Context) error {
	for {
		l.mu.Lock()
		if l.running {
			l.mu.Unlock()
			return ErrAlreadyRunning
		}
		done := l.done
		if done == nil || closed(done) {
			return nil
		}
		l.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func closed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// Stop asks the running job to end. The step in flight completes; the loop
// exits when it next checks, which is right after that step's wait.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return
	}
	l.running = false
	if l.cancel != nil {
		l.cancel()
	}
	l.cfg.Logger.Info("placer: stop requested", "job", l.jobID, "cursor", l.cursor)
}

// Wait blocks until the current job, if any, has ended.
func (l *Loop) Wait() {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Run starts a job and waits for it to end.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.Start(ctx); err != nil {
		return err
	}
	l.Wait()
	return ctx.Err()
}

func (l *Loop) run(ctx, jobCtx context.Context, items []pixel.Pixel, done chan struct{}) {
	defer close(done)
	log := l.cfg.Logger

	canvas, entries := l.discover(ctx)
	l.notify(ctx, event.Event{Kind: event.KindStarted, Total: len(items)})
	log.Info("placer: job started", "job", l.currentJob(), "pixels", len(items), "palette", len(entries))

	for {
		l.mu.Lock()
		if l.done != done || !l.running || l.cursor >= len(items) || ctx.Err() != nil {
			l.mu.Unlock()
			break
		}
		i := l.cursor
		origin := l.origin
		l.mu.Unlock()

		if !l.step(ctx, i, len(items), items[i].At(origin), items[i].Color, canvas, entries) {
			break
		}

		l.mu.Lock()
		if l.done != done {
			l.mu.Unlock()
			break
		}
		l.cursor++
		delay := l.delay
		more := l.cursor < len(items)
		l.mu.Unlock()

		if more {
			// Stop cancels jobCtx, so this wait ends early and the loop
			// re-checks right away.
			_ = l.cfg.Sleeper.Sleep(jobCtx, delay)
		}
	}

	l.mu.Lock()
	cursor := l.cursor
	if l.done == done {
		l.running = false
		if l.cancel != nil {
			l.cancel()
			l.cancel = nil
		}
	}
	l.mu.Unlock()

	ev := event.Event{Kind: event.KindFinished, Index: cursor, Total: len(items)}
	if cursor < len(items) {
		ev.Kind = event.KindStopped
		if err := ctx.Err(); err != nil {
			ev.Detail = err.Error()
		}
	}
	l.notify(ctx, ev)
	log.Info("placer: job ended", "job", l.currentJob(), "state", ev.Kind, "cursor", cursor, "total", len(items))
}

// discover scans the surface for the canvas and palette. Failures degrade
// the job; they never abort it.
func (l *Loop) discover(ctx context.Context) (Canvas, []palette.Entry) {
	log := l.cfg.Logger
	s := l.cfg.Surface
	if s == nil {
		log.Warn("placer: no surface, every step will be skipped")
		return nil, nil
	}

	canvas, err := s.FindCanvas(ctx)
	if err != nil || canvas == nil {
		log.Warn("placer: canvas not found, clicks disabled", "error", err)
		canvas = nil
	}

	entries, err := s.FindPalette(ctx)
	if err != nil {
		log.Warn("placer: palette scan failed", "error", err)
		entries = nil
	}
	if len(entries) == 0 {
		log.Warn("placer: palette is empty, colours cannot be selected")
	}
	return canvas, entries
}

// step places pixel i at abs. It reports false only when ctx ended before
// the step could complete; every other failure skips the click and counts
// the step as done.
func (l *Loop) step(ctx context.Context, i, total int, abs image.Point, color string, canvas Canvas, entries []palette.Entry) bool {
	log := l.cfg.Logger
	ev := event.Event{Index: i, Total: total, X: abs.X, Y: abs.Y, Color: color}
	skip := func(reason event.Reason, err error) bool {
		ev.Kind = event.KindSkipped
		ev.Reason = reason
		if err != nil {
			ev.Detail = err.Error()
		}
		log.Warn("placer: step skipped", "n", i+1, "total", total, "color", color, "reason", reason, "error", err)
		l.notify(ctx, ev)
		return true
	}

	m, ok := l.cfg.Matcher.Closest(color, entries)
	if !ok || m.Entry.Swatch == nil {
		return skip(event.ReasonNoPaletteMatch, nil)
	}
	if err := m.Entry.Swatch.Click(ctx); err != nil {
		return skip(event.ReasonSelectFailed, err)
	}
	ev.Matched = m.Entry.Color
	ev.Distance = max(m.Distance, 0)
	l.mu.Lock()
	l.selected = color
	l.mu.Unlock()

	if err := l.cfg.Sleeper.Sleep(ctx, l.cfg.Settle); err != nil {
		return false
	}

	if canvas == nil {
		return skip(event.ReasonNoCanvas, nil)
	}
	if err := canvas.Click(ctx, abs.X, abs.Y); err != nil {
		return skip(event.ReasonClickFailed, err)
	}

	ev.Kind = event.KindPlaced
	log.Debug("placer: pixel placed", "n", i+1, "total", total, "x", abs.X, "y", abs.Y, "color", color, "matched", ev.Matched)
	l.notify(ctx, ev)
	return true
}

func (l *Loop) currentJob() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.jobID
}

func (l *Loop) notify(ctx context.Context, ev event.Event) {
	if l.cfg.Notify == nil {
		return
	}
	l.mu.Lock()
	if ev.Kind != event.KindLoaded {
		ev.JobID = l.jobID
		l.seq++
		ev.Seq = l.seq
	}
	l.mu.Unlock()
	ev.ID = l.cfg.NewID()
	ev.Timestamp = time.Now().UnixMilli()
	l.cfg.Notify(ctx, ev)
}
