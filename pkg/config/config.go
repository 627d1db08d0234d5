// Package config loads titleforge settings.
//
// Values are layered: built-in defaults, then the config file, then
// environment variables, then command-line flags. Only `titleforge config
// init` writes the file; settings changed at runtime are never persisted.
package config

import (
	"sync"
)

var (
	// globalManager is the singleton configuration manager instance
	globalManager *Manager
	globalMu      sync.Mutex
)

// NewDefaultManager creates a manager over store with the llm, browser and
// server sections registered at their defaults.
func NewDefaultManager(store Store) (*Manager, error) {
	manager := NewManager(store)
	for _, section := range []Section{NewLLMSection(), NewBrowserSection(), NewServerSection()} {
		if err := manager.RegisterSection(section); err != nil {
			return nil, err
		}
	}
	return manager, nil
}

// Load builds a manager from the file at configPath, then applies the
// environment and overrides. configPath may be empty for the default path.
func Load(configPath string, overrides Overrides) (*Manager, error) {
	store, err := NewFileStore(configPath)
	if err != nil {
		return nil, err
	}

	manager, err := NewDefaultManager(store)
	if err != nil {
		return nil, err
	}
	if err := manager.LoadAll(); err != nil {
		return nil, err
	}

	ApplyEnvironment(manager)
	ApplyOverrides(manager, overrides)
	return manager, nil
}

// Initialize loads configuration and installs it as the global manager.
func Initialize(configPath string, overrides Overrides) error {
	manager, err := Load(configPath, overrides)
	if err != nil {
		return err
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	globalManager = manager
	return nil
}

// Global returns the global configuration manager.
// Panics if Initialize has not been called.
func Global() *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		panic("config not initialized: call config.Initialize first")
	}
	return globalManager
}

// IsInitialized returns true if the global configuration has been initialized.
func IsInitialized() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalManager != nil
}

// GetLLM returns the LLM section, or nil before Initialize.
func GetLLM() *LLMSection {
	if !IsInitialized() {
		return nil
	}
	return sectionOf[*LLMSection](Global(), SectionIDLLM)
}

// GetBrowser returns the browser section, or nil before Initialize.
func GetBrowser() *BrowserSection {
	if !IsInitialized() {
		return nil
	}
	return sectionOf[*BrowserSection](Global(), SectionIDBrowser)
}

// GetServer returns the server section, or nil before Initialize.
func GetServer() *ServerSection {
	if !IsInitialized() {
		return nil
	}
	return sectionOf[*ServerSection](Global(), SectionIDServer)
}
