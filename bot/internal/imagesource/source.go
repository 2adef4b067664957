// Package imagesource turns an image reference (file path, http(s) URL or
// data: URL) into a decoded image. Decoding honours EXIF orientation and
// understands PNG, JPEG, GIF, BMP, TIFF and WebP.
package imagesource

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode reports an image that could not be loaded or decoded.
var ErrDecode = errors.New("imagesource: decode failed")

// DefaultMaxBytes caps image downloads and files.
const DefaultMaxBytes = 10 << 20

// Image is a decoded image and where it came from.
type Image struct {
	Image  image.Image
	Format string // png, jpeg, gif, bmp, tiff, webp
	Source string // "file", "url" or "data"
	Bytes  int
}

// Loader resolves and decodes image references.
type Loader struct {
	client       *http.Client
	maxBytes     int64
	allowPrivate bool
	ua           string
	logger       *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithClient sets a custom HTTP client.
func WithClient(c *http.Client) Option {
	return func(l *Loader) { l.client = c }
}

// WithMaxBytes caps the encoded image size.
func WithMaxBytes(n int64) Option {
	return func(l *Loader) {
		if n > 0 {
			l.maxBytes = n
		}
	}
}

// WithAllowPrivate permits loopback and private-network image URLs.
func WithAllowPrivate(allow bool) Option {
	return func(l *Loader) { l.allowPrivate = allow }
}

// WithLogger sets a custom logger.
func WithLogger(lg *slog.Logger) Option {
	return func(l *Loader) { l.logger = lg }
}

// New creates a Loader with a 30s HTTP timeout and a 10MB size cap.
func New(opts ...Option) *Loader {
	l := &Loader{
		client:   &http.Client{Timeout: 30 * time.Second},
		maxBytes: DefaultMaxBytes,
		ua:       "Mozilla/5.0 (compatible; wplacebot/1.0)",
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load resolves ref and decodes it. Any failure to obtain or decode the
// bytes wraps ErrDecode; unsafe URLs wrap ErrUnsafeURL instead.
func (l *Loader) Load(ctx context.Context, ref string) (*Image, error) {
	ref = strings.TrimSpace(ref)
	var (
		data   []byte
		source string
		err    error
	)
	switch {
	case ref == "":
		return nil, fmt.Errorf("%w: empty image reference", ErrDecode)
	case strings.HasPrefix(ref, "data:"):
		source = "data"
		data, err = parseDataURL(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		source = "url"
		data, err = l.fetch(ctx, ref)
	default:
		source = "file"
		data, err = l.readFile(ref)
	}
	if err != nil {
		if errors.Is(err, ErrUnsafeURL) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, source, err)
	}

	img, format, err := Decode(data)
	if err != nil {
		return nil, err
	}
	l.logger.Info("imagesource: decoded",
		"source", source, "format", format, "bytes", len(data),
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return &Image{Image: img, Format: format, Source: source, Bytes: len(data)}, nil
}

// Decode sniffs the format and decodes data, applying EXIF orientation.
func Decode(data []byte) (image.Image, string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrDecode, format, err)
	}
	return img, format, nil
}

func (l *Loader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if !l.allowPrivate {
		if err := ValidateURL(rawURL); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", l.ua)
	req.Header.Set("Accept", "image/*")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return limitedReadAll(resp.Body, l.maxBytes)
}

func (l *Loader) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return limitedReadAll(f, l.maxBytes)
}

// parseDataURL decodes data:[<mediatype>][;base64],<payload>.
func parseDataURL(ref string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, errors.New("data URL has no payload")
	}
	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("data URL base64: %w", err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("data URL payload: %w", err)
	}
	return []byte(s), nil
}
