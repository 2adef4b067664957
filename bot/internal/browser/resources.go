package browser

import (
	"log/slog"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// blockable maps config names onto the CDP resource types they block.
// Only types the canvas can draw without are listed: the board tiles arrive
// as images and fetches, and the palette is built by scripts.
var blockable = map[string]proto.NetworkResourceType{
	"fonts":       proto.NetworkResourceTypeFont,
	"media":       proto.NetworkResourceTypeMedia,
	"stylesheets": proto.NetworkResourceTypeStylesheet,
	"manifests":   proto.NetworkResourceTypeManifest,
	"pings":       proto.NetworkResourceTypePing,
}

// blockPolicy is the set of resource types a tab refuses to load.
type blockPolicy map[proto.NetworkResourceType]bool

// newBlockPolicy builds the policy for names. Names the canvas depends on
// (images, scripts, xhr, fetch, websocket) or that are unknown are dropped
// with a warning.
func newBlockPolicy(names []string, logger *slog.Logger) blockPolicy {
	p := make(blockPolicy, len(names))
	for _, n := range names {
		t, ok := blockable[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			logger.Warn("browser: resource type cannot be blocked, ignored", "type", n)
			continue
		}
		p[t] = true
	}
	return p
}

func (p blockPolicy) blocks(t proto.NetworkResourceType) bool {
	return p[t]
}

// apply installs the policy on page. The hijack router lives as long as the
// page; an empty policy installs nothing.
func (p blockPolicy) apply(page *rod.Page) {
	if len(p) == 0 {
		return
	}
	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if p.blocks(h.Request.Type()) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
}
