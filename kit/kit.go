// Package kit holds the transport-neutral endpoint shape shared by the HTTP
// API and the MCP tools: one Endpoint per bot operation, decorated by
// middleware, then bound to a transport.
package kit

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// Endpoint is one operation: a decoded request in, a JSON-encodable
// response out.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware decorates an Endpoint.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares; the first one is outermost.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

// Logging logs every call of the named endpoint with its transport,
// duration and error.
func Logging(logger *slog.Logger, name string) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			attrs := []any{
				"op", name,
				"transport", GetTransport(ctx),
				"duration", time.Since(start),
			}
			if id := GetRequestID(ctx); id != "" {
				attrs = append(attrs, "request_id", id)
			}
			if err != nil {
				logger.Warn("kit: endpoint failed", append(attrs, "error", err)...)
			} else {
				logger.Debug("kit: endpoint ok", attrs...)
			}
			return resp, err
		}
	}
}

// ErrPanic wraps a value recovered from a panicking endpoint.
type ErrPanic struct {
	Value any
}

func (e *ErrPanic) Error() string {
	return fmt.Sprintf("kit: endpoint panicked: %v", e.Value)
}

// Recovery turns a panic in the endpoint into an *ErrPanic so one bad
// request cannot take the process down.
func Recovery(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, req any) (resp any, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.ErrorContext(ctx, "kit: endpoint panic recovered",
						"panic", r,
						"stack", string(debug.Stack()))
					resp, err = nil, &ErrPanic{Value: r}
				}
			}()
			return next(ctx, req)
		}
	}
}
