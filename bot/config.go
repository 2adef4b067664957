package bot

import (
	"github.com/hazyhaar/wplacebot/bot/internal/config"
)

// Config is the top-level wplacebot configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig = config.BrowserConfig

// PlacementConfig seeds origin, delay and settle pause.
type PlacementConfig = config.PlacementConfig

// ImageConfig bounds image loads.
type ImageConfig = config.ImageConfig

// SinkConfig defines an event output backend.
type SinkConfig = config.SinkConfig

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	return config.Default()
}

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}
