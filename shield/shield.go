// Package shield provides the HTTP middleware stack in front of the control
// API: security headers, a body cap and a per-request ID and logger.
package shield

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hazyhaar/wplacebot/idgen"
	"github.com/hazyhaar/wplacebot/kit"
)

type ctxKey string

const loggerKey ctxKey = "shield_logger"

// DefaultAPIStack returns the middleware for the control API, outermost first.
func DefaultAPIStack(logger *slog.Logger, maxBody int64) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders(DefaultHeaders()),
		MaxBody(maxBody),
		RequestID(logger, idgen.Prefixed("req_", idgen.Default)),
	}
}

// HeaderConfig defines the security headers applied to every response.
type HeaderConfig struct {
	CSP                 string
	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	CacheControl        string
}

// DefaultHeaders suits a JSON-only API: nothing may be framed or rendered.
func DefaultHeaders() HeaderConfig {
	return HeaderConfig{
		CSP:                 "default-src 'none'; frame-ancestors 'none'",
		XFrameOptions:       "DENY",
		XContentTypeOptions: "nosniff",
		ReferrerPolicy:      "no-referrer",
		CacheControl:        "no-store",
	}
}

// SecurityHeaders sets the configured headers on every response.
func SecurityHeaders(cfg HeaderConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for k, v := range map[string]string{
				"X-Content-Type-Options":  cfg.XContentTypeOptions,
				"X-Frame-Options":         cfg.XFrameOptions,
				"Referrer-Policy":         cfg.ReferrerPolicy,
				"Content-Security-Policy": cfg.CSP,
				"Cache-Control":           cfg.CacheControl,
			} {
				if v != "" {
					h.Set(k, v)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MaxBody caps request bodies at maxBytes. Zero or less disables the cap.
func MaxBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBytes > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID tags each request with an ID (kept from X-Request-ID when the
// client sends one), echoes it in the response and attaches a request
// logger to the context.
func RequestID(logger *slog.Logger, gen idgen.Generator) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" || len(id) > 128 {
				id = gen()
			}
			w.Header().Set("X-Request-ID", id)

			reqLog := logger.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)
			reqLog.Debug("shield: request", "remote_addr", r.RemoteAddr)

			ctx := kit.WithRequestID(r.Context(), id)
			ctx = kit.WithTransport(ctx, "http")
			ctx = context.WithValue(ctx, loggerKey, reqLog)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetLogger returns the request logger, or slog.Default() outside a request.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
