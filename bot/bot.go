// Package bot draws pixel art on wplace.live. A Bot owns one browser tab,
// one placement loop and the event sinks; the Go API, the HTTP control API
// and the MCP tools all drive the same operations.
package bot

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/dominantcolor"

	"github.com/hazyhaar/wplacebot/bot/internal/browser"
	"github.com/hazyhaar/wplacebot/bot/internal/config"
	"github.com/hazyhaar/wplacebot/bot/internal/domsurface"
	"github.com/hazyhaar/wplacebot/bot/internal/imagesource"
	"github.com/hazyhaar/wplacebot/bot/internal/sink"
	"github.com/hazyhaar/wplacebot/event"
	"github.com/hazyhaar/wplacebot/idgen"
	"github.com/hazyhaar/wplacebot/palette"
	"github.com/hazyhaar/wplacebot/pixel"
	"github.com/hazyhaar/wplacebot/placer"
	"github.com/hazyhaar/wplacebot/preset"
	"github.com/hazyhaar/wplacebot/sampler"
)

var (
	// ErrUnknownPreset is returned by LoadPreset for names preset.Lookup
	// does not know.
	ErrUnknownPreset = errors.New("bot: unknown preset")
	// ErrNoJournal is returned by JobEvents when no journal sink is
	// configured.
	ErrNoJournal = errors.New("bot: no journal sink configured")
	// ErrInvalidJobID rejects job IDs that are not prefixed UUIDs.
	ErrInvalidJobID = errors.New("bot: invalid job id")
)

const (
	// dominantColors is how many dominant colours an image load reports.
	dominantColors = 5
	// dominantBox bounds the image handed to dominantcolor, which rescales
	// larger inputs itself and panics when that rescale has a zero side.
	dominantBox = 256
)

// Bot is the top-level orchestrator. Create one per drawing session.
type Bot struct {
	cfg     *config.Config
	mgr     *browser.Manager
	images  *imagesource.Loader
	sinkR   *sink.Router
	journal *sink.Journal
	loop    *placer.Loop
	sleeper placer.Sleeper
	newID   idgen.Generator
	logger  *slog.Logger

	mu      sync.Mutex
	surface placer.Surface
	tab     *browser.Tab
	baseCtx context.Context
	closed  bool
}

// Option configures a Bot.
type Option func(*Bot)

// WithSurface draws on s instead of a browser tab; Start then launches no
// browser.
func WithSurface(s placer.Surface) Option {
	return func(b *Bot) { b.surface = s }
}

// WithSleeper replaces the timer behind the settle pause and the
// inter-pixel delay.
func WithSleeper(s placer.Sleeper) Option {
	return func(b *Bot) { b.sleeper = s }
}

// WithIDGenerator replaces the job and event ID generator.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(b *Bot) { b.newID = gen }
}

// New creates a Bot from configuration. A nil cfg means DefaultConfig().
func New(cfg *config.Config, logger *slog.Logger, sinks []Sink, opts ...Option) *Bot {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	metric, err := palette.ParseMetric(cfg.Palette.Metric)
	if err != nil {
		logger.Warn("bot: unknown palette metric, using rgb", "metric", cfg.Palette.Metric)
	}

	b := &Bot{
		cfg: cfg,
		mgr: browser.NewManager(browser.Config{
			RemoteURL:        cfg.Browser.Remote,
			ResourceBlocking: cfg.Browser.ResourceBlocking,
			Mode:             browser.ParseMode(cfg.Browser.Stealth),
			XvfbDisplay:      cfg.Browser.XvfbDisplay,
			Logger:           logger,
		}),
		images: imagesource.New(
			imagesource.WithMaxBytes(cfg.Image.MaxBytes),
			imagesource.WithAllowPrivate(cfg.Image.AllowPrivate),
			imagesource.WithLogger(logger),
		),
		sinkR:  sink.NewRouter(logger, sinks...),
		logger: logger,
	}
	for _, s := range sinks {
		if j, ok := s.(*sink.Journal); ok {
			b.journal = j
			break
		}
	}
	if cfg.DryRun {
		b.surface = dryRunSurface{logger: logger}
	}
	for _, o := range opts {
		o(b)
	}

	b.loop = placer.New(placer.Config{
		Surface: lazySurface{b: b},
		Sleeper: b.sleeper,
		Matcher: palette.Matcher{Metric: metric},
		Origin:  image.Pt(cfg.Placement.OriginX, cfg.Placement.OriginY),
		Delay:   cfg.Placement.Delay,
		Settle:  cfg.Placement.Settle,
		Notify:  b.emit,
		NewID:   b.newID,
		Logger:  logger,
	})
	logger.Debug("bot: ready", "sinks", b.sinkR.Len(), "journal", b.journal != nil, "dry_run", cfg.DryRun)
	return b
}

// Start prepares the drawing surface: it launches Chrome and opens the
// target page, unless a surface was injected or dry-run is on. ctx bounds
// the browser and every job started later.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("bot: closed")
	}
	b.baseCtx = ctx
	ready := b.surface != nil
	b.mu.Unlock()

	if ready {
		b.logger.Info("bot: started without browser", "dry_run", b.cfg.DryRun)
		return nil
	}

	if _, err := b.mgr.Start(ctx); err != nil {
		return fmt.Errorf("bot: start browser: %w", err)
	}
	tab, err := browser.OpenTab(ctx, b.mgr, b.cfg.TargetURL, b.cfg.Browser.NavTimeout)
	if err != nil {
		return fmt.Errorf("bot: open tab: %w", err)
	}

	b.mu.Lock()
	b.tab = tab
	b.surface = domsurface.New(tab.Page, b.cfg.Selectors.Canvas, b.cfg.Selectors.Palette, b.logger)
	b.mu.Unlock()

	b.logger.Info("bot: page ready", "url", b.cfg.TargetURL)
	return nil
}

func (b *Bot) currentSurface() placer.Surface {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.surface
}

func (b *Bot) jobContext() context.Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.baseCtx != nil {
		return b.baseCtx
	}
	return context.Background()
}

func (b *Bot) emit(ctx context.Context, ev event.Event) {
	// The router logs sink failures; a broken sink never stops a job.
	_ = b.sinkR.Send(ctx, ev)
}

// SetOrigin moves the canvas origin pixels are drawn relative to.
func (b *Bot) SetOrigin(x, y int) {
	b.loop.SetOrigin(x, y)
}

// SetDelay sets the wait between pixels. Negative values become 0.
func (b *Bot) SetDelay(d time.Duration) {
	b.loop.SetDelay(d)
}

// LoadResult describes a completed load.
type LoadResult struct {
	pixel.Summary
	Preset   string     `json:"preset,omitempty"`
	Source   string     `json:"source,omitempty"` // image loads: file, url, data or upload
	Format   string     `json:"format,omitempty"`
	Dominant []Dominant `json:"dominant_colors,omitempty"`
}

// Dominant is one of the main colours of a loaded image and its share of
// the picture.
type Dominant struct {
	Color  string  `json:"color"`
	Weight float64 `json:"weight"`
}

// LoadPreset replaces the queue with a named preset.
func (b *Bot) LoadPreset(ctx context.Context, name string) (LoadResult, error) {
	g, ok := preset.Lookup(name)
	if !ok {
		return LoadResult{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	sum, err := b.loop.LoadList(ctx, g.Pixels())
	if err != nil {
		return LoadResult{}, err
	}
	return LoadResult{Summary: sum, Preset: g.Name}, nil
}

// LoadGrid replaces the queue with a row-major colour grid.
func (b *Bot) LoadGrid(ctx context.Context, colors []string, width, height int) (LoadResult, error) {
	sum, err := b.loop.LoadGrid(ctx, colors, width, height)
	if err != nil {
		return LoadResult{}, err
	}
	return LoadResult{Summary: sum}, nil
}

// LoadPixels replaces the queue with a copy of list.
func (b *Bot) LoadPixels(ctx context.Context, list []pixel.Pixel) (LoadResult, error) {
	sum, err := b.loop.LoadList(ctx, list)
	if err != nil {
		return LoadResult{}, err
	}
	return LoadResult{Summary: sum}, nil
}

// LoadPixelsJSON decodes a JSON pixel list strictly and loads it.
func (b *Bot) LoadPixelsJSON(ctx context.Context, r io.Reader) (LoadResult, error) {
	list, err := pixel.DecodeList(r)
	if err != nil {
		return LoadResult{}, err
	}
	return b.LoadPixels(ctx, list)
}

// LoadImage resolves ref (path, http(s) URL or data: URL), downsamples it
// into a maxW x maxH box and loads the opaque pixels. Zero bounds use the
// configured box.
func (b *Bot) LoadImage(ctx context.Context, ref string, maxW, maxH int) (LoadResult, error) {
	if b.loop.Status().Running {
		return LoadResult{}, placer.ErrRunning
	}
	maxW, maxH = b.box(maxW, maxH)

	img, err := b.images.Load(ctx, ref)
	if err != nil {
		return LoadResult{}, err
	}
	return b.loadDecoded(ctx, img, maxW, maxH)
}

// LoadImageData is LoadImage for already-read image bytes.
func (b *Bot) LoadImageData(ctx context.Context, data []byte, maxW, maxH int) (LoadResult, error) {
	if b.loop.Status().Running {
		return LoadResult{}, placer.ErrRunning
	}
	maxW, maxH = b.box(maxW, maxH)

	decoded, format, err := imagesource.Decode(data)
	if err != nil {
		return LoadResult{}, err
	}
	img := &imagesource.Image{Image: decoded, Format: format, Source: "upload", Bytes: len(data)}
	return b.loadDecoded(ctx, img, maxW, maxH)
}

// box resolves the sampling box: non-positive bounds take the configured
// box and both sides are capped at Image.BoxLimit.
func (b *Bot) box(maxW, maxH int) (int, int) {
	if maxW <= 0 {
		maxW = b.cfg.Image.MaxWidth
	}
	if maxH <= 0 {
		maxH = b.cfg.Image.MaxHeight
	}
	if limit := b.cfg.Image.BoxLimit; limit > 0 && (maxW > limit || maxH > limit) {
		b.logger.Warn("bot: image box capped", "max_width", maxW, "max_height", maxH, "limit", limit)
		maxW, maxH = min(maxW, limit), min(maxH, limit)
	}
	return maxW, maxH
}

func (b *Bot) loadDecoded(ctx context.Context, img *imagesource.Image, maxW, maxH int) (LoadResult, error) {
	small := sampler.Resample(img.Image, maxW, maxH)
	dominant := dominantOf(small)

	sum, err := b.loop.LoadList(ctx, sampler.Opaque(small))
	if err != nil {
		return LoadResult{}, err
	}
	b.logger.Info("bot: image loaded",
		"source", img.Source, "format", img.Format,
		"width", small.Bounds().Dx(), "height", small.Bounds().Dy(),
		"pixels", sum.Count, "dominant", dominant)

	return LoadResult{
		Summary:  sum,
		Source:   img.Source,
		Format:   img.Format,
		Dominant: dominant,
	}, nil
}

// dominantOf reports the main colours of the sampled image, the one that
// will actually be drawn.
func dominantOf(img *image.NRGBA) []Dominant {
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil
	}
	var src image.Image = img
	if bounds.Dx() > dominantBox || bounds.Dy() > dominantBox {
		src = sampler.Resample(img, dominantBox, dominantBox)
	}

	var out []Dominant
	for _, c := range dominantcolor.FindWeight(src, dominantColors) {
		out = append(out, Dominant{Color: dominantcolor.Hex(c.RGBA), Weight: c.Weight})
	}
	return out
}

// StartJob begins drawing the queue. It returns placer.ErrAlreadyRunning or
// placer.ErrEmptyQueue when the loop cannot start.
func (b *Bot) StartJob() error {
	return b.loop.Start(b.jobContext())
}

// StopJob asks the running job to end after its current step.
func (b *Bot) StopJob() {
	b.loop.Stop()
}

// Wait blocks until the current job has ended.
func (b *Bot) Wait() {
	b.loop.Wait()
}

// Run draws the current queue and waits for the job to end.
func (b *Bot) Run() error {
	return b.loop.Run(b.jobContext())
}

// JobReport is a job's history as recorded by the journal.
type JobReport struct {
	JobID  string        `json:"job_id"`
	Placed int           `json:"placed"`
	Ended  bool          `json:"ended"`
	Events []event.Event `json:"events"`
}

// JobEvents reads one job's events back from the journal sink.
func (b *Bot) JobEvents(ctx context.Context, jobID string) (JobReport, error) {
	if _, err := idgen.Parse(jobID); err != nil {
		return JobReport{}, fmt.Errorf("%w: %v", ErrInvalidJobID, err)
	}
	if b.journal == nil {
		return JobReport{}, ErrNoJournal
	}
	events, err := b.journal.JobEvents(ctx, jobID)
	if err != nil {
		return JobReport{}, err
	}
	placed, err := b.journal.PlacedCount(ctx, jobID)
	if err != nil {
		return JobReport{}, err
	}

	rep := JobReport{JobID: jobID, Placed: placed, Events: events}
	if rep.Events == nil {
		rep.Events = []event.Event{}
	}
	for _, ev := range events {
		if ev.Terminal() {
			rep.Ended = true
		}
	}
	return rep, nil
}

// Status is the job state plus session details.
type Status struct {
	placer.Status
	Target  string   `json:"target_url"`
	DryRun  bool     `json:"dry_run"`
	Browser bool     `json:"browser"`
	Presets []string `json:"presets"`
}

// Status returns a snapshot of the session.
func (b *Bot) Status() Status {
	b.mu.Lock()
	hasTab := b.tab != nil
	b.mu.Unlock()
	return Status{
		Status:  b.loop.Status(),
		Target:  b.cfg.TargetURL,
		DryRun:  b.cfg.DryRun,
		Browser: hasTab,
		Presets: preset.Names(),
	}
}

// Pixels returns a copy of the queued pixels.
func (b *Bot) Pixels() []pixel.Pixel {
	return b.loop.Pixels()
}

// Close stops any job, waits for it, then releases the tab, the browser
// and the sinks.
func (b *Bot) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.loop.Stop()
	b.loop.Wait()

	b.mu.Lock()
	tab := b.tab
	b.tab = nil
	b.mu.Unlock()

	var errs []error
	if tab != nil {
		if err := tab.Close(); err != nil {
			errs = append(errs, fmt.Errorf("bot: close tab: %w", err))
		}
	}
	if err := b.mgr.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := b.sinkR.Close(); err != nil {
		errs = append(errs, fmt.Errorf("bot: close sinks: %w", err))
	}
	b.logger.Info("bot: closed")
	return errors.Join(errs...)
}
