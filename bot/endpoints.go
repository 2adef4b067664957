package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hazyhaar/wplacebot/kit"
	"github.com/hazyhaar/wplacebot/pixel"
)

// Operation names, shared by the HTTP routes' logs and the MCP tools.
const (
	OpStatus     = "wplace_status"
	OpSetOrigin  = "wplace_set_origin"
	OpSetDelay   = "wplace_set_delay"
	OpPreset     = "wplace_preset"
	OpLoadGrid   = "wplace_load_grid"
	OpLoadPixels = "wplace_load_pixels"
	OpLoadImage  = "wplace_load_image"
	OpStart      = "wplace_start"
	OpStop       = "wplace_stop"
	OpJobEvents  = "wplace_job_events"
)

type originReq struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type delayReq struct {
	DelayMs int64 `json:"delay_ms"`
}

type presetReq struct {
	Name string `json:"name"`
}

type gridReq struct {
	Colors []string `json:"colors"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
}

// pixelsReq keeps the list raw so it goes through the strict decoder.
type pixelsReq struct {
	Pixels json.RawMessage `json:"pixels"`
}

type imageReq struct {
	Source    string `json:"source"`
	MaxWidth  int    `json:"max_width"`
	MaxHeight int    `json:"max_height"`
	data      []byte // raw upload; wins over Source
}

type jobEventsReq struct {
	JobID string `json:"job_id"`
}

type okResp struct {
	Status
	Message string `json:"message,omitempty"`
}

// endpoints returns every operation as a logged, panic-safe kit.Endpoint.
func (b *Bot) endpoints() map[string]kit.Endpoint {
	raw := map[string]kit.Endpoint{
		OpStatus: func(context.Context, any) (any, error) {
			return b.Status(), nil
		},
		OpSetOrigin: func(_ context.Context, req any) (any, error) {
			r := req.(*originReq)
			b.SetOrigin(r.X, r.Y)
			return b.Status(), nil
		},
		OpSetDelay: func(_ context.Context, req any) (any, error) {
			r := req.(*delayReq)
			b.SetDelay(time.Duration(r.DelayMs) * time.Millisecond)
			return b.Status(), nil
		},
		OpPreset: func(ctx context.Context, req any) (any, error) {
			return b.LoadPreset(ctx, req.(*presetReq).Name)
		},
		OpLoadGrid: func(ctx context.Context, req any) (any, error) {
			r := req.(*gridReq)
			return b.LoadGrid(ctx, r.Colors, r.Width, r.Height)
		},
		OpLoadPixels: func(ctx context.Context, req any) (any, error) {
			r := req.(*pixelsReq)
			if len(r.Pixels) == 0 {
				return nil, fmt.Errorf("%w: pixels missing", pixel.ErrInvalidFormat)
			}
			list, err := pixel.DecodeListBytes(r.Pixels)
			if err != nil {
				return nil, err
			}
			return b.LoadPixels(ctx, list)
		},
		OpLoadImage: func(ctx context.Context, req any) (any, error) {
			r := req.(*imageReq)
			if r.data != nil {
				return b.LoadImageData(ctx, r.data, r.MaxWidth, r.MaxHeight)
			}
			return b.LoadImage(ctx, r.Source, r.MaxWidth, r.MaxHeight)
		},
		OpStart: func(context.Context, any) (any, error) {
			if err := b.StartJob(); err != nil {
				return nil, err
			}
			return okResp{Status: b.Status(), Message: "started"}, nil
		},
		OpStop: func(context.Context, any) (any, error) {
			b.StopJob()
			return okResp{Status: b.Status(), Message: "stop requested"}, nil
		},
		OpJobEvents: func(ctx context.Context, req any) (any, error) {
			return b.JobEvents(ctx, req.(*jobEventsReq).JobID)
		},
	}

	out := make(map[string]kit.Endpoint, len(raw))
	for name, ep := range raw {
		out[name] = kit.Chain(kit.Logging(b.logger, name), kit.Recovery(b.logger))(ep)
	}
	return out
}
