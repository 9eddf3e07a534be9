// Package settings persists the broadcaster's extension configuration: the
// product SKU the trigger button buys.
package settings

import (
	"fmt"
	"log"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

const (
	settingsObject   = "broadcaster"
	settingsProperty = "selection"
)

// Broadcaster is the saved configuration.
type Broadcaster struct {
	SKU string `yaml:"sku"`
}

// Store loads and saves Broadcaster. A nil gdata manager keeps the settings
// in memory only.
type Store struct {
	manager  *gdata.Manager
	settings Broadcaster
}

// Open opens the platform data directory for appName. On failure it returns
// a memory-only store together with the error so callers can log and go on.
func Open(appName string) (*Store, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return NewStore(nil), fmt.Errorf("failed to open settings storage: %w", err)
	}
	return NewStore(m), nil
}

// NewStore wraps m and loads any saved selection. Load errors are logged
// and the store starts empty.
func NewStore(m *gdata.Manager) *Store {
	s := &Store{manager: m}
	if err := s.Load(); err != nil {
		log.Printf("[Settings] Warning: %v (starting with no selection)", err)
	}
	return s
}

// Load replaces the in-memory settings with the saved ones, if any.
func (s *Store) Load() error {
	if s.manager == nil || !s.manager.ObjectPropExists(settingsObject, settingsProperty) {
		s.settings = Broadcaster{}
		return nil
	}
	data, err := s.manager.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		s.settings = Broadcaster{}
		return fmt.Errorf("failed to load settings: %w", err)
	}
	var b Broadcaster
	if err := yaml.Unmarshal(data, &b); err != nil {
		s.settings = Broadcaster{}
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	s.settings = b
	return nil
}

// Save persists the current settings. It is a no-op without storage.
func (s *Store) Save() error {
	if s.manager == nil {
		return nil
	}
	data, err := yaml.Marshal(s.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := s.manager.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	log.Printf("[Settings] Broadcaster selection saved: %q", s.settings.SKU)
	return nil
}

// SKU returns the selected product, or "" when none is configured.
func (s *Store) SKU() string {
	return s.settings.SKU
}

// SetSKU changes the selection in memory; call Save to persist it.
func (s *Store) SetSKU(sku string) {
	s.settings.SKU = sku
}

// Persistent reports whether the store has backing storage.
func (s *Store) Persistent() bool {
	return s.manager != nil
}
