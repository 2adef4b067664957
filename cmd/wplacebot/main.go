// Command wplacebot draws pixel art on wplace.live through a real Chrome tab.
//
// Usage:
//
//	wplacebot -preset heart -origin-x 100 -origin-y 100   # draw a preset and exit
//	wplacebot -image logo.png -max-width 32 -max-height 32 # draw an image and exit
//	wplacebot -pixels art.json                            # draw a {x,y,color} list and exit
//	wplacebot -config wplacebot.yaml -serve               # HTTP control API
//	wplacebot -mcp                                        # MCP tools over stdio
//	wplacebot -dry-run -preset smiley                     # no browser, clicks are logged
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/wplacebot/bot"
)

type options struct {
	configPath string
	url        string
	preset     string
	image      string
	pixels     string
	originX    int
	originY    int
	delay      time.Duration
	maxWidth   int
	maxHeight  int
	listen     string
	serve      bool
	mcp        bool
	dryRun     bool
	set        map[string]bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to wplacebot.yaml config file")
	flag.StringVar(&o.url, "url", "", "page to draw on (default https://wplace.live)")
	flag.StringVar(&o.preset, "preset", "", "load a preset: heart, smiley")
	flag.StringVar(&o.image, "image", "", "load an image: file path, http(s) URL or data: URL")
	flag.StringVar(&o.pixels, "pixels", "", "load a JSON pixel list from a file, - for stdin")
	flag.IntVar(&o.originX, "origin-x", 0, "canvas x of pixel (0, 0)")
	flag.IntVar(&o.originY, "origin-y", 0, "canvas y of pixel (0, 0)")
	flag.DurationVar(&o.delay, "delay", time.Second, "wait between pixels")
	flag.IntVar(&o.maxWidth, "max-width", 50, "image bounding box width")
	flag.IntVar(&o.maxHeight, "max-height", 50, "image bounding box height")
	flag.StringVar(&o.listen, "listen", "", "HTTP control API address (default 127.0.0.1:8087)")
	flag.BoolVar(&o.serve, "serve", false, "serve the HTTP control API until interrupted")
	flag.BoolVar(&o.mcp, "mcp", false, "serve MCP tools over stdio")
	flag.BoolVar(&o.dryRun, "dry-run", false, "no browser: log clicks against the free palette")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	o.set = make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { o.set[f.Name] = true })

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, logger, o)
	stop()

	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintln(os.Stderr, "usage: wplacebot [-config file] (-preset name | -image src | -pixels file | -serve | -mcp)")
		flag.PrintDefaults()
		os.Exit(2)
	case err != nil:
		logger.Error("wplacebot: fatal", "error", err)
		os.Exit(1)
	}
}

// errUsage reports a command line with nothing to do.
var errUsage = errors.New("wplacebot: nothing to do")

func run(ctx context.Context, logger *slog.Logger, o options) error {
	if !o.mcp && !o.serve && o.preset == "" && o.image == "" && o.pixels == "" {
		return errUsage
	}

	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}

	// In MCP mode stdout carries the protocol, so events go to stderr.
	var events io.Writer = os.Stdout
	if o.mcp {
		events = os.Stderr
	}
	sinks, err := bot.SinksFromConfig(cfg.Sinks, events, logger)
	if err != nil {
		return err
	}
	if len(sinks) == 0 {
		sinks = append(sinks, bot.NewStdoutSink(events))
	}

	b := bot.New(cfg, logger, sinks)
	defer b.Close()

	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	loaded, err := loadInitial(ctx, b, o)
	if err != nil {
		return err
	}

	switch {
	case o.mcp:
		return serveMCP(ctx, b, loaded)
	case o.serve:
		return serveHTTP(ctx, logger, b, cfg.API.Listen, loaded)
	case !loaded:
		logger.Warn("wplacebot: nothing to draw")
		return nil
	}

	if err := b.Run(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run: %w", err)
	}
	st := b.Status()
	logger.Info("wplacebot: done", "cursor", st.Cursor, "total", st.Total)
	return nil
}

func loadConfig(o options) (*bot.Config, error) {
	cfg := bot.DefaultConfig()
	if o.configPath != "" {
		c, err := bot.LoadConfigFile(o.configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}

	if o.set["url"] {
		cfg.TargetURL = o.url
	}
	if o.set["origin-x"] {
		cfg.Placement.OriginX = o.originX
	}
	if o.set["origin-y"] {
		cfg.Placement.OriginY = o.originY
	}
	if o.set["delay"] {
		cfg.Placement.Delay = &o.delay
	}
	if o.set["max-width"] {
		cfg.Image.MaxWidth = o.maxWidth
	}
	if o.set["max-height"] {
		cfg.Image.MaxHeight = o.maxHeight
	}
	if o.set["listen"] {
		cfg.API.Listen = o.listen
	}
	if o.dryRun {
		cfg.DryRun = true
	}
	return cfg, nil
}

// loadInitial applies the load flags. At most one may be given.
func loadInitial(ctx context.Context, b *bot.Bot, o options) (bool, error) {
	n := 0
	for _, s := range []string{o.preset, o.image, o.pixels} {
		if s != "" {
			n++
		}
	}
	if n > 1 {
		return false, errors.New("only one of -preset, -image, -pixels may be given")
	}

	var (
		res bot.LoadResult
		err error
	)
	switch {
	case o.preset != "":
		res, err = b.LoadPreset(ctx, o.preset)
	case o.image != "":
		res, err = b.LoadImage(ctx, o.image, 0, 0)
	case o.pixels != "":
		res, err = loadPixelsFile(ctx, b, o.pixels)
	default:
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load: %w", err)
	}
	return res.Count > 0, nil
}

func loadPixelsFile(ctx context.Context, b *bot.Bot, path string) (bot.LoadResult, error) {
	if path == "-" {
		return b.LoadPixelsJSON(ctx, os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return bot.LoadResult{}, err
	}
	defer f.Close()
	return b.LoadPixelsJSON(ctx, f)
}

func serveHTTP(ctx context.Context, logger *slog.Logger, b *bot.Bot, addr string, autostart bool) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           b.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("wplacebot: api listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	if autostart {
		if err := b.StartJob(); err != nil {
			logger.Warn("wplacebot: autostart", "error", err)
		}
	}

	select {
	case err := <-errc:
		return fmt.Errorf("api: %w", err)
	case <-ctx.Done():
	}

	logger.Info("wplacebot: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func serveMCP(ctx context.Context, b *bot.Bot, autostart bool) error {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "wplacebot",
		Version: "1.0.0",
	}, nil)
	b.RegisterMCP(srv)

	if autostart {
		if err := b.StartJob(); err != nil {
			return err
		}
	}
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}
