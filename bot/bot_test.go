package bot

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hazyhaar/wplacebot/bot/internal/config"
	"github.com/hazyhaar/wplacebot/bot/internal/sink"
	"github.com/hazyhaar/wplacebot/event"
	"github.com/hazyhaar/wplacebot/idgen"
	"github.com/hazyhaar/wplacebot/pixel"
	"github.com/hazyhaar/wplacebot/placer"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

var instant = placer.SleeperFunc(func(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
})

type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) sink() Sink {
	return NewCallbackSink(func(_ context.Context, ev event.Event) error {
		r.mu.Lock()
		r.events = append(r.events, ev)
		r.mu.Unlock()
		return nil
	})
}

func (r *recorder) count(kind event.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func dryRunBot(t *testing.T, rec *recorder, opts ...Option) *Bot {
	t.Helper()
	cfg := config.Default()
	cfg.DryRun = true
	opts = append([]Option{WithSleeper(instant), WithIDGenerator(idgen.Sequence("id"))}, opts...)
	b := New(cfg, quiet, []Sink{rec.sink()}, opts...)
	if err := b.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func pngData(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDryRun_DrawsPreset(t *testing.T) {
	rec := &recorder{}
	b := dryRunBot(t, rec)
	ctx := context.Background()

	res, err := b.LoadPreset(ctx, "heart")
	if err != nil {
		t.Fatal(err)
	}
	if res.Count != 49 || res.Preset != "heart" {
		t.Fatalf("load: got %+v", res)
	}
	if err := b.Run(); err != nil {
		t.Fatal(err)
	}

	if got := rec.count(event.KindPlaced); got != 49 {
		t.Errorf("placed: got %d, want 49", got)
	}
	if rec.count(event.KindFinished) != 1 {
		t.Error("missing finished event")
	}
	st := b.Status()
	if st.Running || st.Cursor != 49 || !st.DryRun || st.Browser {
		t.Errorf("status: got %+v", st)
	}
}

func TestLoadPreset_Unknown(t *testing.T) {
	b := dryRunBot(t, &recorder{})
	if _, err := b.LoadPreset(context.Background(), "castle"); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("got %v, want ErrUnknownPreset", err)
	}
}

func TestLoadImageData(t *testing.T) {
	b := dryRunBot(t, &recorder{})
	data := pngData(t, 100, 50, color.NRGBA{R: 255, A: 255})

	res, err := b.LoadImageData(context.Background(), data, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	if res.Count != 50 || res.Width != 10 || res.Height != 5 {
		t.Errorf("summary: got %+v", res.Summary)
	}
	if res.Format != "png" || len(res.Dominant) == 0 {
		t.Errorf("format/dominant: got %q / %v", res.Format, res.Dominant)
	}
	if got := b.Pixels()[0].Color; got != "#ff0000" {
		t.Errorf("first pixel colour: got %q", got)
	}
}

func TestLoadImageData_DefaultBox(t *testing.T) {
	b := dryRunBot(t, &recorder{})
	res, err := b.LoadImageData(context.Background(), pngData(t, 200, 200, color.NRGBA{B: 255, A: 255}), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Width != 50 || res.Height != 50 {
		t.Errorf("got %dx%d, want 50x50", res.Width, res.Height)
	}
}

func TestLoadImageData_ExtremeAspect(t *testing.T) {
	cases := []struct {
		name       string
		w, h       int
		maxW, maxH int
		wantW      int
		wantH      int
	}{
		{"wide strip", 1000, 1, 50, 50, 50, 1},
		{"tall strip", 1, 1000, 600, 600, 1, 600},
		{"wide strip, large box", 3000, 2, 1000, 1000, 1000, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := dryRunBot(t, &recorder{})
			data := pngData(t, c.w, c.h, color.NRGBA{G: 255, A: 255})

			res, err := b.LoadImageData(context.Background(), data, c.maxW, c.maxH)
			if err != nil {
				t.Fatal(err)
			}
			if res.Width != c.wantW || res.Height != c.wantH || res.Count != c.wantW*c.wantH {
				t.Errorf("summary: got %+v, want %dx%d", res.Summary, c.wantW, c.wantH)
			}
			if len(res.Dominant) != 1 || res.Dominant[0].Color != "#00FF00" {
				t.Errorf("dominant: got %v, want [#00FF00]", res.Dominant)
			}
			if got := len(b.Pixels()); got != res.Count {
				t.Errorf("queue: got %d pixels, want %d", got, res.Count)
			}
		})
	}
}

func TestLoadImageData_BoxCapped(t *testing.T) {
	b := dryRunBot(t, &recorder{})
	b.cfg.Image.BoxLimit = 20

	res, err := b.LoadImageData(context.Background(), pngData(t, 10, 10, color.NRGBA{R: 9, A: 255}), 100000, 100000)
	if err != nil {
		t.Fatal(err)
	}
	if res.Width != 20 || res.Height != 20 {
		t.Errorf("got %dx%d, want the 20x20 cap", res.Width, res.Height)
	}
}

func TestExplicitZeroDelay(t *testing.T) {
	cfg := config.Default()
	cfg.DryRun = true
	cfg.Placement.Delay = config.Duration(0)
	b := New(cfg, quiet, nil)
	defer b.Close()
	if got := b.Status().DelayMs; got != 0 {
		t.Errorf("delay: got %dms, want 0", got)
	}
}

func TestFailingWebhookDoesNotStallJob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rec := &recorder{}
	hook := sink.NewWebhook(srv.URL,
		sink.WithWebhookLogger(quiet),
		sink.WithWebhookDrainTimeout(100*time.Millisecond))
	b := dryRunBot(t, rec)
	b.sinkR = sink.NewRouter(quiet, rec.sink(), hook)
	ctx := context.Background()

	if _, err := b.LoadGrid(ctx, []string{"#000000", "#ffffff", "#000000"}, 3, 1); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if err := b.Run(); err != nil {
		t.Fatal(err)
	}
	if took := time.Since(start); took > 2*time.Second {
		t.Errorf("job took %v with a failing webhook", took)
	}
	if got := rec.count(event.KindPlaced); got != 3 {
		t.Errorf("placed: got %d, want 3", got)
	}
}

func TestLoadPixelsJSON_Invalid(t *testing.T) {
	b := dryRunBot(t, &recorder{})
	_, err := b.LoadPixelsJSON(context.Background(), bytes.NewBufferString(`[{"x":0,"y":0,"color":"#fff"},{"x":"1","y":0,"color":"#000"}]`))
	if !errors.Is(err, pixel.ErrInvalidFormat) {
		t.Errorf("got %v, want ErrInvalidFormat", err)
	}
	if len(b.Pixels()) != 0 {
		t.Error("queue should stay empty")
	}
}

func TestLoadsRejectedWhileRunning(t *testing.T) {
	gate := make(chan struct{})
	entered := make(chan struct{}, 1)
	blocking := placer.SleeperFunc(func(ctx context.Context, _ time.Duration) error {
		select {
		case entered <- struct{}{}:
		default:
		}
		select {
		case <-gate:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	rec := &recorder{}
	b := dryRunBot(t, rec, WithSleeper(blocking))
	ctx := context.Background()

	if _, err := b.LoadPreset(ctx, "smiley"); err != nil {
		t.Fatal(err)
	}
	if err := b.StartJob(); err != nil {
		t.Fatal(err)
	}
	<-entered // first settle pause
	if err := b.StartJob(); !errors.Is(err, placer.ErrAlreadyRunning) {
		t.Errorf("second start: got %v", err)
	}
	if _, err := b.LoadPreset(ctx, "heart"); !errors.Is(err, placer.ErrRunning) {
		t.Errorf("LoadPreset: got %v, want ErrRunning", err)
	}
	if _, err := b.LoadImage(ctx, "whatever.png", 0, 0); !errors.Is(err, placer.ErrRunning) {
		t.Errorf("LoadImage: got %v, want ErrRunning", err)
	}

	b.StopJob()
	close(gate)
	b.Wait()

	st := b.Status()
	if st.Running || st.Cursor != 1 {
		t.Errorf("after stop: got %+v, want cursor 1", st.Status)
	}
	if rec.count(event.KindStopped) != 1 {
		t.Error("missing stopped event")
	}
}

func TestStartJob_EmptyQueue(t *testing.T) {
	b := dryRunBot(t, &recorder{})
	if err := b.StartJob(); !errors.Is(err, placer.ErrEmptyQueue) {
		t.Errorf("got %v, want ErrEmptyQueue", err)
	}
	if b.Status().Running {
		t.Error("should stay idle")
	}
}

func TestSetOriginAndDelay(t *testing.T) {
	b := dryRunBot(t, &recorder{})
	b.SetOrigin(10, 20)
	b.SetDelay(-5 * time.Millisecond)
	st := b.Status()
	if st.OriginX != 10 || st.OriginY != 20 || st.DelayMs != 0 {
		t.Errorf("got %+v", st.Status)
	}
}

func TestClose_Idempotent(t *testing.T) {
	b := New(nil, quiet, nil, WithSurface(dryRunSurface{logger: quiet}))
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if err := b.Start(context.Background()); err == nil {
		t.Error("Start after Close should fail")
	}
}

func TestSinksFromConfig(t *testing.T) {
	var buf bytes.Buffer
	sinks, err := SinksFromConfig([]SinkConfig{
		{Type: "stdout"},
		{Type: "journal", Path: ":memory:"},
	}, &buf, quiet)
	if err != nil {
		t.Fatal(err)
	}
	if len(sinks) != 2 {
		t.Fatalf("got %d sinks", len(sinks))
	}
	for _, s := range sinks {
		s.Close()
	}

	if _, err := SinksFromConfig([]SinkConfig{{Type: "kafka"}}, &buf, quiet); err == nil {
		t.Error("unknown sink type should fail")
	}
}
