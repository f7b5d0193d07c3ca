// Package preferences persists the launcher settings file shared with the
// rest of the launcher (avrix-settings.json next to the executable).
package preferences

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/avrix/launcher/util"
)

const (
	DefaultFileName = "avrix-settings.json"

	KeyAutoCheckUpdates = "autoCheckUpdates"
	KeyMemoryMB         = "memoryMB"
	KeyMemPreset        = "memPreset"
)

// Memory presets kept for older launcher versions that only stored a label
const (
	PresetAuto = "auto"
	PresetLow  = "low"
	PresetMid  = "mid"
	PresetHigh = "high"
)

const defaultMemoryMB = 3072

// DefaultPath returns the settings file next to the executable
func DefaultPath() string {
	return filepath.Join(util.ExecutableDir(), DefaultFileName)
}

// Store is a JSON backed key value store. Values keep the JSON types, so
// numbers read back as float64.
type Store struct {
	mu     sync.Mutex
	path   string
	values map[string]any
}

// New creates an empty store that saves to path
func New(path string) *Store {
	return &Store{
		path:   path,
		values: make(map[string]any),
	}
}

// Load reads the settings file and migrates legacy values. A missing or
// unreadable file yields the defaults. Migrated values are saved right away.
func Load(ctx context.Context, path string) (*Store, error) {
	s := New(path)

	if _, err := util.ReadJson(path, &s.values); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warnf("failed to read settings file %s, using defaults: %v", path, err)
		}
		s.values = make(map[string]any)
	}
	if s.values == nil {
		s.values = make(map[string]any)
	}

	if !s.migrate() {
		return s, nil
	}

	if err := s.Save(ctx); err != nil {
		return s, fmt.Errorf("save migrated settings: %w", err)
	}
	return s, nil
}

// migrate fills memoryMB from the legacy preset and the preset label from
// memoryMB. It reports whether anything changed.
func (s *Store) migrate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	preset, hasPreset := s.values[KeyMemPreset].(string)
	if !hasPreset || preset == "" {
		preset = PresetAuto
	}

	if mb, ok := number(s.values[KeyMemoryMB]); !ok || mb <= 0 {
		s.values[KeyMemoryMB] = float64(PresetToMB(preset))
		changed = true
	}

	if _, exists := s.values[KeyMemPreset]; !exists {
		s.values[KeyMemPreset] = preset
		changed = true
	}

	return changed
}

func (s *Store) Path() string {
	return s.path
}

// Get returns the raw value of key
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set changes key in memory, Save persists it
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Keys returns the stored keys in sorted order
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Save writes all values to the settings file
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	snapshot := make(map[string]any, len(s.values))
	for k, v := range s.values {
		snapshot[k] = v
	}
	s.mu.Unlock()

	if err := util.WriteJson(ctx, s.path, snapshot); err != nil {
		return fmt.Errorf("save settings to %s: %w", s.path, err)
	}
	return nil
}

// AutoCheckUpdates defaults to true when unset or not a boolean
func (s *Store) AutoCheckUpdates() bool {
	v, ok := s.Get(KeyAutoCheckUpdates)
	if !ok {
		return true
	}
	b, ok := v.(bool)
	if !ok {
		return true
	}
	return b
}

func (s *Store) SetAutoCheckUpdates(enabled bool) {
	s.Set(KeyAutoCheckUpdates, enabled)
}

// MemoryMB returns the memory allocation of the game client
func (s *Store) MemoryMB() int {
	v, _ := s.Get(KeyMemoryMB)
	mb, ok := number(v)
	if !ok || mb <= 0 {
		return defaultMemoryMB
	}
	return int(mb)
}

// SetMemoryMB stores mb and refreshes the preset label
func (s *Store) SetMemoryMB(mb int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[KeyMemoryMB] = float64(mb)
	s.values[KeyMemPreset] = MBToPreset(mb)
}

// PresetToMB maps a legacy preset to megabytes
func PresetToMB(preset string) int {
	switch preset {
	case PresetLow:
		return 1024
	case PresetMid:
		return 2048
	case PresetHigh:
		return 4096
	default:
		return defaultMemoryMB
	}
}

// MBToPreset picks the closest legacy label for mb
func MBToPreset(mb int) string {
	switch {
	case mb <= 1280:
		return PresetLow
	case mb <= 3072:
		return PresetMid
	default:
		return PresetHigh
	}
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
