package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Store provides persistence for configuration data.
type Store interface {
	// Load loads the configuration from disk
	Load() error

	// Save saves the configuration to disk
	Save() error

	// GetSection retrieves configuration data for a specific section
	GetSection(sectionID string) (map[string]interface{}, error)

	// SetSection stores configuration data for a specific section
	SetSection(sectionID string, data map[string]interface{}) error

	// GetAll retrieves all configuration data
	GetAll() (map[string]map[string]interface{}, error)

	// SetAll stores all configuration data
	SetAll(data map[string]map[string]interface{}) error
}

// Format is the on-disk encoding of a FileStore.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

const fileVersion = "1.0"

// document is the file layout shared by both formats.
type document struct {
	Version  string                            `json:"version" yaml:"version"`
	Sections map[string]map[string]interface{} `json:"sections" yaml:"sections"`
}

// FileStore implements Store over a YAML or JSON file. The format follows
// the file extension; anything other than .json is YAML.
type FileStore struct {
	path     string
	format   Format
	data     map[string]map[string]interface{}
	version  string
	mu       sync.RWMutex
	modified bool
}

// DefaultPath returns ~/.titleforge/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".titleforge", "config.yaml"), nil
}

// NewFileStore creates a store for path, loading it if it exists. An empty
// path means DefaultPath.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	store := &FileStore{
		path:    path,
		format:  formatFor(path),
		data:    make(map[string]map[string]interface{}),
		version: fileVersion,
	}

	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return store, nil
}

func formatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Load reads the file. A missing file is an empty configuration.
func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.data = make(map[string]map[string]interface{})
			s.modified = false
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var doc document
	switch s.format {
	case FormatJSON:
		err = json.Unmarshal(raw, &doc)
	default:
		err = yaml.Unmarshal(raw, &doc)
	}
	if err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}

	if doc.Version != "" {
		s.version = doc.Version
	}
	s.data = doc.Sections
	if s.data == nil {
		s.data = make(map[string]map[string]interface{})
	}
	s.modified = false
	return nil
}

// Save writes the file atomically via a temp file and rename.
func (s *FileStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	doc := document{Version: s.version, Sections: s.data}
	var (
		raw []byte
		err error
	)
	switch s.format {
	case FormatJSON:
		raw, err = json.MarshalIndent(doc, "", "  ")
	default:
		raw, err = yaml.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// The file may hold an API key.
	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, raw, 0600); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write temp config file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	s.modified = false
	return nil
}

// GetSection returns a copy of a section's data, empty if absent.
func (s *FileStore) GetSection(sectionID string) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMap(s.data[sectionID]), nil
}

// SetSection replaces a section's data with a copy of data.
func (s *FileStore) SetSection(sectionID string, data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sectionID] = copyMap(data)
	s.modified = true
	return nil
}

// GetAll returns a deep copy of every section.
func (s *FileStore) GetAll() (map[string]map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]map[string]interface{}, len(s.data))
	for id, section := range s.data {
		out[id] = copyMap(section)
	}
	return out, nil
}

// SetAll replaces every section.
func (s *FileStore) SetAll(data map[string]map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]map[string]interface{}, len(data))
	for id, section := range data {
		s.data[id] = copyMap(section)
	}
	s.modified = true
	return nil
}

// IsModified reports unsaved changes.
func (s *FileStore) IsModified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modified
}

// Path returns the file path of the store.
func (s *FileStore) Path() string {
	return s.path
}

// Format returns the on-disk encoding.
func (s *FileStore) Format() Format {
	return s.format
}

func copyMap(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
