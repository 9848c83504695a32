package settings

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sitepulse/sitepulse/internal/event"
	"github.com/sitepulse/sitepulse/internal/store"
)

const storeKey = "settings"

// Manager owns the current settings: loads them from the store at startup,
// validates and persists updates, and announces changes on the event bus.
// A change takes effect on the next read; nothing already in flight is
// revisited.
type Manager struct {
	store *store.FileStore
	bus   *event.Bus

	mu  sync.RWMutex
	cur Settings
}

// NewManager loads persisted settings from fs, falling back to defaults
// merged with initial (typically from config) on first run.
func NewManager(fs *store.FileStore, bus *event.Bus, initial Settings) (*Manager, error) {
	m := &Manager{store: fs, bus: bus}

	normalized, err := initial.Normalize()
	if err != nil {
		return nil, fmt.Errorf("initial settings: %w", err)
	}
	m.cur = normalized

	var persisted Settings
	loadErr := fs.Load(storeKey, &persisted)
	switch {
	case loadErr == nil:
		normalized, err := persisted.Normalize()
		if err != nil {
			// A corrupt persisted value must not brick startup; keep the
			// initial settings and let the next Update overwrite it.
			return m, nil
		}
		m.cur = normalized
	case errors.Is(loadErr, store.ErrNotFound):
		// first run
	default:
		return nil, fmt.Errorf("load settings: %w", loadErr)
	}

	return m, nil
}

// Current returns the settings in force.
func (m *Manager) Current() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur
}

// RefreshInterval returns the clamped refresh interval in force. This is
// the TTL source for the request coordinator.
func (m *Manager) RefreshInterval() time.Duration {
	return m.Current().RefreshInterval()
}

// Update validates, persists and applies s, then emits settingsChanged.
// On a ValidationError nothing is persisted or applied.
func (m *Manager) Update(s Settings) error {
	normalized, err := s.Normalize()
	if err != nil {
		return err
	}

	if err := m.store.Save(storeKey, normalized); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}

	m.mu.Lock()
	m.cur = normalized
	m.mu.Unlock()

	if m.bus != nil {
		m.bus.Emit(event.SettingsChanged, normalized)
	}
	return nil
}
