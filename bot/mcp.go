package bot

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/wplacebot/kit"
)

// RegisterMCP registers the bot's tools on an MCP server.
func (b *Bot) RegisterMCP(srv *mcp.Server) {
	eps := b.endpoints()
	noArgs := kit.InputSchema(map[string]any{}, nil)
	integer := func(desc string) map[string]any {
		return map[string]any{"type": "integer", "description": desc}
	}

	tools := []struct {
		tool   *mcp.Tool
		decode kit.Decoder
	}{
		{
			&mcp.Tool{Name: OpStatus, Description: "Report the placement job state: running, cursor, total, origin, delay, selected colour.", InputSchema: noArgs},
			kit.DecodeJSON[struct{}](),
		},
		{
			&mcp.Tool{
				Name:        OpSetOrigin,
				Description: "Set the canvas coordinate that pixel (0, 0) is drawn at.",
				InputSchema: kit.InputSchema(map[string]any{
					"x": integer("Canvas x of the origin"),
					"y": integer("Canvas y of the origin"),
				}, []string{"x", "y"}),
			},
			kit.DecodeJSON[originReq](),
		},
		{
			&mcp.Tool{
				Name:        OpSetDelay,
				Description: "Set the wait between two pixels, in milliseconds.",
				InputSchema: kit.InputSchema(map[string]any{
					"delay_ms": integer("Delay in milliseconds; negative values become 0"),
				}, []string{"delay_ms"}),
			},
			kit.DecodeJSON[delayReq](),
		},
		{
			&mcp.Tool{
				Name:        OpPreset,
				Description: "Replace the queue with a built-in 7x7 preset (heart, smiley).",
				InputSchema: kit.InputSchema(map[string]any{
					"name": map[string]any{"type": "string", "description": "Preset name"},
				}, []string{"name"}),
			},
			kit.DecodeJSON[presetReq](),
		},
		{
			&mcp.Tool{
				Name:        OpLoadGrid,
				Description: "Replace the queue with a row-major grid of #RRGGBB colours.",
				InputSchema: kit.InputSchema(map[string]any{
					"colors": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"width":  integer("Grid width"),
					"height": integer("Grid height"),
				}, []string{"colors", "width", "height"}),
			},
			kit.DecodeJSON[gridReq](),
		},
		{
			&mcp.Tool{
				Name:        OpLoadPixels,
				Description: "Replace the queue with a list of {x, y, color} pixels. One invalid element rejects the whole list.",
				InputSchema: kit.InputSchema(map[string]any{
					"pixels": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"x":     map[string]any{"type": "integer"},
								"y":     map[string]any{"type": "integer"},
								"color": map[string]any{"type": "string"},
							},
							"required": []string{"x", "y", "color"},
						},
					},
				}, []string{"pixels"}),
			},
			kit.DecodeJSON[pixelsReq](),
		},
		{
			&mcp.Tool{
				Name:        OpLoadImage,
				Description: "Replace the queue with an image (file path, http(s) URL or data: URL) downsampled into a bounding box. Transparent pixels are skipped.",
				InputSchema: kit.InputSchema(map[string]any{
					"source":     map[string]any{"type": "string", "description": "Image path or URL"},
					"max_width":  integer("Bounding box width, default 50"),
					"max_height": integer("Bounding box height, default 50"),
				}, []string{"source"}),
			},
			kit.DecodeJSON[imageReq](),
		},
		{
			&mcp.Tool{Name: OpStart, Description: "Start drawing the queued pixels.", InputSchema: noArgs},
			kit.DecodeJSON[struct{}](),
		},
		{
			&mcp.Tool{
				Name:        OpJobEvents,
				Description: "Read back a job's events and placed count from the event journal. Needs a journal sink.",
				InputSchema: kit.InputSchema(map[string]any{
					"job_id": map[string]any{"type": "string", "description": "Job ID as reported by wplace_status"},
				}, []string{"job_id"}),
			},
			kit.DecodeJSON[jobEventsReq](),
		},
		{
			&mcp.Tool{Name: OpStop, Description: "Stop the running job after its current pixel.", InputSchema: noArgs},
			kit.DecodeJSON[struct{}](),
		},
	}

	for _, t := range tools {
		kit.RegisterMCPTool(srv, t.tool, eps[t.tool.Name], t.decode)
	}
}
