package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hazyhaar/wplacebot/event"
)

var (
	// ErrWebhookFull reports an event dropped because the delivery buffer
	// was full.
	ErrWebhookFull = errors.New("webhook: buffer full, event dropped")
	// ErrWebhookClosed reports a Send after Close.
	ErrWebhookClosed = errors.New("webhook: closed")
)

// Webhook POSTs each event as JSON from a background worker, retrying with
// exponential backoff. Send only enqueues, so a slow or failing endpoint
// never holds up the placement loop.
type Webhook struct {
	url        string
	client     *http.Client
	maxRetries int
	backoff    time.Duration
	bufferSize int
	drain      time.Duration
	logger     *slog.Logger

	ch   chan event.Event
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// WebhookOption configures a Webhook sink.
type WebhookOption func(*Webhook)

// WithWebhookRetries sets the maximum number of retries. Default: 3.
func WithWebhookRetries(n int) WebhookOption {
	return func(w *Webhook) { w.maxRetries = n }
}

// WithWebhookBackoff sets the first retry delay; later ones double. Default: 1s.
func WithWebhookBackoff(d time.Duration) WebhookOption {
	return func(w *Webhook) { w.backoff = d }
}

// WithWebhookBuffer sets how many events may wait for delivery. Default: 256.
func WithWebhookBuffer(n int) WebhookOption {
	return func(w *Webhook) { w.bufferSize = n }
}

// WithWebhookDrainTimeout bounds how long Close keeps delivering queued
// events. Default: 5s.
func WithWebhookDrainTimeout(d time.Duration) WebhookOption {
	return func(w *Webhook) { w.drain = d }
}

// WithWebhookClient replaces the HTTP client.
func WithWebhookClient(c *http.Client) WebhookOption {
	return func(w *Webhook) { w.client = c }
}

// WithWebhookLogger sets a custom logger.
func WithWebhookLogger(l *slog.Logger) WebhookOption {
	return func(w *Webhook) { w.logger = l }
}

// NewWebhook creates a Webhook sink targeting url and starts its delivery
// worker.
func NewWebhook(url string, opts ...WebhookOption) *Webhook {
	w := &Webhook{
		url:        url,
		client:     &http.Client{Timeout: 10 * time.Second},
		maxRetries: 3,
		backoff:    time.Second,
		bufferSize: 256,
		drain:      5 * time.Second,
		logger:     slog.Default(),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	w.ch = make(chan event.Event, max(w.bufferSize, 1))
	go w.deliverLoop()
	return w
}

// Send queues ev for delivery. It never waits on the network.
func (w *Webhook) Send(_ context.Context, ev event.Event) error {
	select {
	case <-w.stop:
		return ErrWebhookClosed
	default:
	}
	select {
	case w.ch <- ev:
		return nil
	default:
		w.logger.Warn("webhook: buffer full, dropping event", "kind", ev.Kind, "job", ev.JobID, "seq", ev.Seq)
		return ErrWebhookFull
	}
}

// Close stops accepting events and delivers what is queued, within the
// drain timeout.
func (w *Webhook) Close() error {
	w.once.Do(func() { close(w.stop) })
	<-w.done
	return nil
}

func (w *Webhook) deliverLoop() {
	defer close(w.done)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Once Close is called, in-flight and queued deliveries get the drain
	// timeout and no more.
	go func() {
		select {
		case <-w.stop:
		case <-w.done:
			return
		}
		t := time.NewTimer(w.drain)
		defer t.Stop()
		select {
		case <-t.C:
			cancel()
		case <-w.done:
		}
	}()

	for {
		select {
		case ev := <-w.ch:
			w.logDeliver(ctx, ev)
		case <-w.stop:
			for {
				select {
				case ev := <-w.ch:
					w.logDeliver(ctx, ev)
				default:
					return
				}
			}
		}
	}
}

func (w *Webhook) logDeliver(ctx context.Context, ev event.Event) {
	if err := w.Deliver(ctx, ev); err != nil {
		w.logger.Error("webhook: event lost", "kind", ev.Kind, "job", ev.JobID, "seq", ev.Seq, "error", err)
	}
}

// Deliver POSTs ev now, retrying on transport errors and non-2xx replies.
func (w *Webhook) Deliver(ctx context.Context, ev event.Event) error {
	body, err := json.Marshal(envelope{Type: "event", Data: ev})
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= w.maxRetries; attempt++ {
		if attempt > 0 {
			wait := w.backoff << uint(attempt-1)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("webhook: new request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := w.client.Do(req)
		if err != nil {
			lastErr = err
			w.logger.Warn("webhook: request failed", "attempt", attempt+1, "error", err)
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("webhook: status %d", resp.StatusCode)
		w.logger.Warn("webhook: bad status", "attempt", attempt+1, "status", resp.StatusCode)
	}
	return fmt.Errorf("webhook: all retries exhausted: %w", lastErr)
}
