// Package config handles wplacebot configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTargetURL is the page the bot draws on.
const DefaultTargetURL = "https://wplace.live"

// Config is the top-level wplacebot configuration.
type Config struct {
	TargetURL string          `yaml:"target_url"`
	DryRun    bool            `yaml:"dry_run"` // no browser; clicks are logged against the free palette
	Browser   BrowserConfig   `yaml:"browser"`
	Placement PlacementConfig `yaml:"placement"`
	Image     ImageConfig     `yaml:"image"`
	Palette   PaletteConfig   `yaml:"palette"`
	Selectors SelectorConfig  `yaml:"selectors"`
	Sinks     []SinkConfig    `yaml:"sinks"`
	API       APIConfig       `yaml:"api"`
}

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig struct {
	Remote           string        `yaml:"remote"`
	Stealth          string        `yaml:"stealth"` // headless | headful
	XvfbDisplay      string        `yaml:"xvfb_display"`
	ResourceBlocking []string      `yaml:"resource_blocking"`
	NavTimeout       time.Duration `yaml:"nav_timeout"`
}

// PlacementConfig seeds the placement loop.
type PlacementConfig struct {
	OriginX int            `yaml:"origin_x"`
	OriginY int            `yaml:"origin_y"`
	Delay   *time.Duration `yaml:"delay"` // unset means 1s; 0 places back to back
	Settle  time.Duration  `yaml:"settle"`
}

// ImageConfig bounds image loads.
type ImageConfig struct {
	MaxWidth     int   `yaml:"max_width"`
	MaxHeight    int   `yaml:"max_height"`
	BoxLimit     int   `yaml:"box_limit"` // ceiling for per-request max_width/max_height
	MaxBytes     int64 `yaml:"max_bytes"`
	AllowPrivate bool  `yaml:"allow_private"` // permit loopback/private image URLs
}

// PaletteConfig selects the colour metric.
type PaletteConfig struct {
	Metric string `yaml:"metric"` // rgb | lab
}

// SelectorConfig lists the CSS selectors tried for the canvas (first match
// wins) and for palette swatches (all matches).
type SelectorConfig struct {
	Canvas  []string `yaml:"canvas"`
	Palette []string `yaml:"palette"`
}

// SinkConfig defines an event output backend.
type SinkConfig struct {
	Type string `yaml:"type"` // stdout | webhook | journal
	URL  string `yaml:"url"`  // webhook
	Path string `yaml:"path"` // journal database file
}

// APIConfig controls the HTTP control API.
type APIConfig struct {
	Listen string `yaml:"listen"`
}

// DefaultCanvasSelectors are tried in order until one matches.
var DefaultCanvasSelectors = []string{
	"canvas",
	"#canvas",
	".canvas",
	`[data-testid="canvas"]`,
	"canvas[width]",
	"canvas[height]",
}

// DefaultPaletteSelectors match candidate colour swatches.
var DefaultPaletteSelectors = []string{
	`[style*="background-color"]`,
	".color",
	"[data-color]",
	".palette-color",
}

// Duration returns a pointer to d, for the optional duration fields.
func Duration(d time.Duration) *time.Duration { return &d }

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.TargetURL == "" {
		c.TargetURL = DefaultTargetURL
	}
	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
	if c.Browser.ResourceBlocking == nil {
		c.Browser.ResourceBlocking = []string{"fonts", "media"}
	}
	if c.Browser.NavTimeout <= 0 {
		c.Browser.NavTimeout = 30 * time.Second
	}
	switch {
	case c.Placement.Delay == nil:
		c.Placement.Delay = Duration(time.Second)
	case *c.Placement.Delay < 0:
		c.Placement.Delay = Duration(0)
	}
	if c.Placement.Settle <= 0 {
		c.Placement.Settle = 200 * time.Millisecond
	}
	if c.Image.MaxWidth <= 0 {
		c.Image.MaxWidth = 50
	}
	if c.Image.MaxHeight <= 0 {
		c.Image.MaxHeight = 50
	}
	if c.Image.BoxLimit <= 0 {
		c.Image.BoxLimit = 1000
	}
	if c.Image.MaxBytes <= 0 {
		c.Image.MaxBytes = 10 << 20
	}
	if c.Palette.Metric == "" {
		c.Palette.Metric = "rgb"
	}
	if len(c.Selectors.Canvas) == 0 {
		c.Selectors.Canvas = append([]string(nil), DefaultCanvasSelectors...)
	}
	if len(c.Selectors.Palette) == 0 {
		c.Selectors.Palette = append([]string(nil), DefaultPaletteSelectors...)
	}
	if c.API.Listen == "" {
		c.API.Listen = "127.0.0.1:8087"
	}
}

// Validate rejects values no default can repair.
func (c *Config) Validate() error {
	switch c.Browser.Stealth {
	case "headless", "headful":
	default:
		return fmt.Errorf("config: browser.stealth must be headless or headful, got %q", c.Browser.Stealth)
	}
	switch c.Palette.Metric {
	case "rgb", "lab":
	default:
		return fmt.Errorf("config: palette.metric must be rgb or lab, got %q", c.Palette.Metric)
	}
	for i, s := range c.Sinks {
		switch s.Type {
		case "stdout":
		case "webhook":
			if s.URL == "" {
				return fmt.Errorf("config: sinks[%d]: webhook needs url", i)
			}
		case "journal":
			if s.Path == "" {
				return fmt.Errorf("config: sinks[%d]: journal needs path", i)
			}
		default:
			return fmt.Errorf("config: sinks[%d]: unknown type %q", i, s.Type)
		}
	}
	return nil
}
