package bot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/wplacebot/bot/internal/imagesource"
	"github.com/hazyhaar/wplacebot/kit"
	"github.com/hazyhaar/wplacebot/pixel"
	"github.com/hazyhaar/wplacebot/placer"
	"github.com/hazyhaar/wplacebot/preset"
	"github.com/hazyhaar/wplacebot/shield"
)

// Handler returns the HTTP control API.
func (b *Bot) Handler() http.Handler {
	eps := b.endpoints()

	// data: URLs inflate images by a third.
	maxBody := b.cfg.Image.MaxBytes*4/3 + 64<<10

	r := chi.NewRouter()
	for _, mw := range shield.DefaultAPIStack(b.logger, maxBody) {
		r.Use(mw)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", serve(eps[OpStatus], noBody, http.StatusOK))
		r.Get("/pixels", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, b.Pixels())
		})
		r.Post("/origin", serve(eps[OpSetOrigin], decodeJSON[originReq], http.StatusOK))
		r.Post("/delay", serve(eps[OpSetDelay], decodeJSON[delayReq], http.StatusOK))

		r.Get("/presets", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"presets": preset.Names()})
		})
		r.Post("/presets/{name}", serve(eps[OpPreset], func(r *http.Request) (any, error) {
			return &presetReq{Name: chi.URLParam(r, "name")}, nil
		}, http.StatusOK))

		r.Route("/load", func(r chi.Router) {
			r.Post("/grid", serve(eps[OpLoadGrid], decodeJSON[gridReq], http.StatusOK))
			r.Post("/pixels", serve(eps[OpLoadPixels], decodePixels, http.StatusOK))
			r.Post("/image", serve(eps[OpLoadImage], decodeImage, http.StatusOK))
		})

		r.Get("/jobs/{id}/events", serve(eps[OpJobEvents], func(r *http.Request) (any, error) {
			return &jobEventsReq{JobID: chi.URLParam(r, "id")}, nil
		}, http.StatusOK))

		r.Post("/start", serve(eps[OpStart], noBody, http.StatusAccepted))
		r.Post("/stop", serve(eps[OpStop], noBody, http.StatusOK))
	})

	return r
}

type requestDecoder func(*http.Request) (any, error)

// errBadRequest marks request bodies that could not be decoded.
var errBadRequest = errors.New("bot: bad request")

func serve(ep kit.Endpoint, decode requestDecoder, okCode int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decode(r)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		resp, err := ep(r.Context(), req)
		if err != nil {
			code := statusFor(err)
			if code >= http.StatusInternalServerError {
				shield.GetLogger(r.Context()).Error("bot: request failed", "path", r.URL.Path, "status", code, "error", err)
			}
			writeError(w, code, err)
			return
		}
		writeJSON(w, okCode, resp)
	}
}

// statusFor maps operation errors onto HTTP status codes.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest),
		errors.Is(err, ErrInvalidJobID),
		errors.Is(err, pixel.ErrInvalidFormat),
		errors.Is(err, imagesource.ErrUnsafeURL):
		return http.StatusBadRequest
	case errors.Is(err, imagesource.ErrDecode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrUnknownPreset),
		errors.Is(err, ErrNoJournal):
		return http.StatusNotFound
	case errors.Is(err, placer.ErrAlreadyRunning),
		errors.Is(err, placer.ErrEmptyQueue),
		errors.Is(err, placer.ErrRunning):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func noBody(*http.Request) (any, error) { return nil, nil }

func decodeJSON[T any](r *http.Request) (any, error) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		return nil, bodyError(err)
	}
	return &v, nil
}

// decodePixels accepts either a bare JSON array or {"pixels": [...]}.
func decodePixels(r *http.Request) (any, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, bodyError(err)
	}
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		return &pixelsReq{Pixels: body}, nil
	}
	var req pixelsReq
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", pixel.ErrInvalidFormat, err)
	}
	return &req, nil
}

// decodeImage accepts a JSON {"source": ...} body, or raw image bytes with
// an image/* content type and the box in the query string.
func decodeImage(r *http.Request) (any, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "image/") {
		return decodeJSON[imageReq](r)
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, bodyError(err)
	}
	q := r.URL.Query()
	req := &imageReq{data: data}
	if req.MaxWidth, err = queryInt(q.Get("max_width")); err != nil {
		return nil, err
	}
	if req.MaxHeight, err = queryInt(q.Get("max_height")); err != nil {
		return nil, err
	}
	return req, nil
}

func queryInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return n, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
