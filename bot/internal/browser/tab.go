package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"
)

// Tab is the page the bot draws on.
type Tab struct {
	Page    *rod.Page
	PageURL string
}

// OpenTab creates a stealth tab, applies resource blocking and navigates to
// pageURL, waiting up to navTimeout for the load event.
func OpenTab(ctx context.Context, mgr *Manager, pageURL string, navTimeout time.Duration) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	newBlockPolicy(mgr.cfg.ResourceBlocking, mgr.cfg.Logger).apply(page)

	navCtx, cancel := context.WithTimeout(ctx, navTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}

	// A slow tile server should not block drawing; the canvas exists well
	// before every tile has loaded.
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		mgr.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}

	return &Tab{Page: page, PageURL: pageURL}, nil
}

// Close closes the tab.
func (t *Tab) Close() error {
	if t.Page != nil {
		return t.Page.Close()
	}
	return nil
}
