package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/hazyhaar/wplacebot/bot/internal/sink"
	"github.com/hazyhaar/wplacebot/event"
)

// Sink is the output interface for placement events.
type Sink = sink.Sink

// NewStdoutSink creates a stdout JSON-lines sink.
func NewStdoutSink(w io.Writer) Sink {
	return sink.NewStdout(w)
}

// NewWebhookSink creates a webhook POST sink with retry.
func NewWebhookSink(url string, logger *slog.Logger) Sink {
	return sink.NewWebhook(url, sink.WithWebhookLogger(logger))
}

// NewJournalSink opens an SQLite event journal at path.
func NewJournalSink(path string) (Sink, error) {
	return sink.OpenJournal(path)
}

// NewCallbackSink creates an in-process sink.
func NewCallbackSink(fn func(ctx context.Context, ev event.Event) error) Sink {
	return sink.NewCallback(fn)
}

// SinksFromConfig builds the sinks listed in cfg. On error every sink
// already opened is closed.
func SinksFromConfig(cfgs []SinkConfig, stdout io.Writer, logger *slog.Logger) ([]Sink, error) {
	var out []Sink
	for i, sc := range cfgs {
		var s Sink
		switch sc.Type {
		case "stdout":
			s = NewStdoutSink(stdout)
		case "webhook":
			s = NewWebhookSink(sc.URL, logger)
		case "journal":
			j, err := NewJournalSink(sc.Path)
			if err != nil {
				sink.NewRouter(logger, out...).Close()
				return nil, fmt.Errorf("bot: sinks[%d]: %w", i, err)
			}
			s = j
		default:
			sink.NewRouter(logger, out...).Close()
			return nil, fmt.Errorf("bot: sinks[%d]: unknown type %q", i, sc.Type)
		}
		out = append(out, s)
	}
	return out, nil
}
