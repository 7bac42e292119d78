package file

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// configHeader is written above the TOML tables on every save.
const configHeader = "# aipilot settings. Edit with 'aipilot settings set KEY VALUE'.\n" +
	"# AIPILOT_* environment variables override values in this file.\n\n"

// ConfigStore keeps settings in a TOML file.
// Keys are held flat in dot notation ("retrieval.threshold") and written
// back as nested tables ([retrieval] threshold = 0.7).
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// NewConfigStore opens configDir/config.toml, creating configDir if needed.
// An empty configDir means ~/.aipilot.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".aipilot")
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		data:     make(map[string]any),
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	return val, ok
}

// lookup returns the value at key when it has type T.
func lookup[T any](s *ConfigStore, key string) (T, bool) {
	var zero T
	val, ok := s.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := val.(T)
	return typed, ok
}

// GetString retrieves a string such as "embedding.provider".
func (s *ConfigStore) GetString(key string) string {
	v, _ := lookup[string](s, key)
	return v
}

// GetInt retrieves an integer such as "chunking.size".
// Values loaded from TOML arrive as int64.
func (s *ConfigStore) GetInt(key string) int {
	if v, ok := lookup[int64](s, key); ok {
		return int(v)
	}
	v, _ := lookup[int](s, key)
	return v
}

// GetFloat retrieves a number such as "retrieval.threshold".
// Integers are widened, so "threshold = 1" reads as 1.0.
func (s *ConfigStore) GetFloat(key string) float64 {
	val, ok := s.Get(key)
	if !ok {
		return 0
	}
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

// GetBool retrieves a boolean value.
func (s *ConfigStore) GetBool(key string) bool {
	v, _ := lookup[bool](s, key)
	return v
}

// Set stores a value and writes the file.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return s.write()
}

// Save writes the current settings to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write()
}

// write marshals the settings as nested tables. Caller holds the lock.
func (s *ConfigStore) write() error {
	body, err := toml.Marshal(nest(s.data))
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, append([]byte(configHeader), body...), 0600)
}

// Load replaces the in-memory settings with the file's contents.
// A missing file loads as empty.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		s.data = make(map[string]any)
		return nil
	}
	if err != nil {
		return err
	}

	var tables map[string]any
	if err := toml.Unmarshal(raw, &tables); err != nil {
		return err
	}
	s.data = make(map[string]any)
	flatten(tables, "", s.data)
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// flatten copies nested tables into out under dot-notation keys.
func flatten(tables map[string]any, prefix string, out map[string]any) {
	for key, value := range tables {
		if prefix != "" {
			key = prefix + "." + key
		}
		if table, ok := value.(map[string]any); ok {
			flatten(table, key, out)
			continue
		}
		out[key] = value
	}
}

// nest is the inverse of flatten. Keys are visited in sorted order, so
// when a key is both a value and a table prefix the value wins and the
// longer key is written with its dotted name.
func nest(flat map[string]any) map[string]any {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	root := make(map[string]any)
	for _, key := range keys {
		parts := strings.Split(key, ".")
		table := root
		for _, part := range parts[:len(parts)-1] {
			child, exists := table[part]
			if !exists {
				next := make(map[string]any)
				table[part] = next
				table = next
				continue
			}
			next, isTable := child.(map[string]any)
			if !isTable {
				table = nil
				break
			}
			table = next
		}
		if table == nil {
			root[key] = flat[key]
			continue
		}
		table[parts[len(parts)-1]] = flat[key]
	}
	return root
}
