// Package config loads the YAML configuration shared by all hosts.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the top-level configuration file.
type Config struct {
	Window   WindowConfig `yaml:"window"`
	Show     ShowConfig   `yaml:"show"`
	Audio    AudioConfig  `yaml:"audio"`
	Products []Product    `yaml:"products"`
	EBS      EBSConfig    `yaml:"ebs"`
	Terminal TermConfig   `yaml:"terminal"`
}

// WindowConfig sizes the overlay window.
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// ShowConfig tunes the engine.
type ShowConfig struct {
	// DurationMs is how long the overlay stays up after a trigger.
	DurationMs    int  `yaml:"durationMs"`
	HaltWhenEmpty bool `yaml:"haltWhenEmpty"`
	KeepTrails    bool `yaml:"keepTrails"`
	Glow          bool `yaml:"glow"`
	Verbose       bool `yaml:"verbose"`
}

// Duration returns DurationMs as a time.Duration.
func (s ShowConfig) Duration() time.Duration {
	return time.Duration(s.DurationMs) * time.Millisecond
}

// AudioConfig controls the explosion sound.
type AudioConfig struct {
	Enabled bool    `yaml:"enabled"`
	Volume  float64 `yaml:"volume"`
}

// Product is one Bits product a broadcaster can pick.
type Product struct {
	SKU         string `yaml:"sku"`
	DisplayName string `yaml:"displayName"`
	Cost        int64  `yaml:"cost"`
}

// EBSConfig configures the extension backend service.
type EBSConfig struct {
	Addr      string `yaml:"addr"`
	PubSubURL string `yaml:"pubsubURL"`
	ClientDir string `yaml:"clientDir"`
	// CooldownMs is the minimum gap between broadcasts to one channel.
	CooldownMs int `yaml:"cooldownMs"`
}

// TermConfig configures the terminal renderer.
type TermConfig struct {
	// Supersample is the raster pixels per terminal half-cell.
	Supersample int `yaml:"supersample"`
	FPS         int `yaml:"fps"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Window: WindowConfig{Title: "Bits Fireworks", Width: 1280, Height: 720},
		Show: ShowConfig{
			DurationMs:    7000,
			HaltWhenEmpty: true,
			Glow:          true,
		},
		Audio: AudioConfig{Enabled: true, Volume: 0.5},
		Products: []Product{
			{SKU: "small-fireworks-sku", DisplayName: "Small Fireworks", Cost: 10},
			{SKU: "large-fireworks-sku", DisplayName: "Large Fireworks", Cost: 100},
		},
		EBS: EBSConfig{
			Addr:       ":8080",
			PubSubURL:  "https://api.twitch.tv/extensions/message/",
			CooldownMs: 1000,
		},
		Terminal: TermConfig{Supersample: 4, FPS: 60},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and required fields.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	if c.Show.DurationMs <= 0 {
		return fmt.Errorf("%w: show.durationMs must be > 0, got %d", ErrInvalid, c.Show.DurationMs)
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return fmt.Errorf("%w: audio.volume %.2f outside [0,1]", ErrInvalid, c.Audio.Volume)
	}
	seen := make(map[string]bool, len(c.Products))
	for i, p := range c.Products {
		if p.SKU == "" {
			return fmt.Errorf("%w: products[%d] has no sku", ErrInvalid, i)
		}
		if seen[p.SKU] {
			return fmt.Errorf("%w: duplicate sku %q", ErrInvalid, p.SKU)
		}
		seen[p.SKU] = true
	}
	if c.EBS.CooldownMs < 0 {
		return fmt.Errorf("%w: ebs.cooldownMs must be >= 0", ErrInvalid)
	}
	if c.Terminal.Supersample <= 0 || c.Terminal.FPS <= 0 {
		return fmt.Errorf("%w: terminal supersample/fps must be > 0", ErrInvalid)
	}
	return nil
}

// SortedProducts returns the catalog ordered by display name, descending,
// the order the configuration panel lists them in.
func (c *Config) SortedProducts() []Product {
	out := make([]Product, len(c.Products))
	copy(out, c.Products)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisplayName > out[j].DisplayName
	})
	return out
}

// Product returns the catalog entry for sku.
func (c *Config) Product(sku string) (Product, bool) {
	for _, p := range c.Products {
		if p.SKU == sku {
			return p, true
		}
	}
	return Product{}, false
}
