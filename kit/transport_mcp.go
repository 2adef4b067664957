package kit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Decoder extracts the typed request from MCP tool arguments.
type Decoder func(*mcp.CallToolRequest) (any, error)

// RegisterMCPTool binds an Endpoint to an MCP tool. Decode and endpoint
// errors become tool errors, not protocol errors, so the client sees the
// message.
func RegisterMCPTool(srv *mcp.Server, tool *mcp.Tool, endpoint Endpoint, decode Decoder) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx = WithTransport(ctx, "mcp")

		decoded, err := decode(req)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("invalid arguments: %w", err))
			return &res, nil
		}

		resp, err := endpoint(ctx, decoded)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(errors.New(err.Error()))
			return &res, nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

// DecodeJSON returns a Decoder unmarshalling arguments into a fresh T.
// Empty arguments decode to the zero T.
func DecodeJSON[T any]() Decoder {
	return func(req *mcp.CallToolRequest) (any, error) {
		var v T
		if len(req.Params.Arguments) == 0 {
			return &v, nil
		}
		if err := json.Unmarshal(req.Params.Arguments, &v); err != nil {
			return nil, err
		}
		return &v, nil
	}
}

// InputSchema builds a JSON object schema for a tool.
func InputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}
