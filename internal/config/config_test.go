package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fireworks.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Show.Duration() != 7*time.Second {
		t.Fatalf("show duration = %v, want 7s", cfg.Show.Duration())
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Window.Width != 1280 {
		t.Fatalf("width = %d, want 1280", cfg.Window.Width)
	}
}

func TestLoad_OverridesOnlyGivenFields(t *testing.T) {
	path := writeConfig(t, `
window:
  width: 640
  height: 360
show:
  durationMs: 3000
  glow: false
products:
  - sku: tiny-sku
    displayName: Tiny
    cost: 1
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Window.Width != 640 || cfg.Window.Title != "Bits Fireworks" {
		t.Fatalf("window = %+v", cfg.Window)
	}
	if cfg.Show.Duration() != 3*time.Second || cfg.Show.Glow {
		t.Fatalf("show = %+v", cfg.Show)
	}
	if !cfg.Show.HaltWhenEmpty {
		t.Fatal("unset haltWhenEmpty lost its default")
	}
	if len(cfg.Products) != 1 || cfg.Products[0].SKU != "tiny-sku" {
		t.Fatalf("products = %+v", cfg.Products)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_Malformed(t *testing.T) {
	path := writeConfig(t, "window: [1, 2")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate_Errors(t *testing.T) {
	cases := map[string]func(*Config){
		"zero width":    func(c *Config) { c.Window.Width = 0 },
		"zero duration": func(c *Config) { c.Show.DurationMs = 0 },
		"loud":          func(c *Config) { c.Audio.Volume = 1.5 },
		"empty sku":     func(c *Config) { c.Products = append(c.Products, Product{}) },
		"duplicate sku": func(c *Config) { c.Products = append(c.Products, c.Products[0]) },
		"neg cooldown":  func(c *Config) { c.EBS.CooldownMs = -1 },
		"zero fps":      func(c *Config) { c.Terminal.FPS = 0 },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: err = %v, want ErrInvalid", name, err)
		}
	}
}

func TestSortedProducts_DescendingByName(t *testing.T) {
	cfg := Default()
	cfg.Products = append(cfg.Products, Product{SKU: "m", DisplayName: "Medium Fireworks"})
	got := cfg.SortedProducts()
	want := []string{"Small Fireworks", "Medium Fireworks", "Large Fireworks"}
	for i, name := range want {
		if got[i].DisplayName != name {
			t.Fatalf("order[%d] = %q, want %q", i, got[i].DisplayName, name)
		}
	}
	if cfg.Products[0].DisplayName != "Small Fireworks" || cfg.Products[2].SKU != "m" {
		t.Fatal("SortedProducts modified the catalog")
	}
}

func TestProduct_Lookup(t *testing.T) {
	cfg := Default()
	if p, ok := cfg.Product("large-fireworks-sku"); !ok || p.Cost != 100 {
		t.Fatalf("Product = %+v, %v", p, ok)
	}
	if _, ok := cfg.Product("missing"); ok {
		t.Fatal("found a missing sku")
	}
}
