package config

import (
	"fmt"
	"sync"
)

// Manager holds the registered sections and moves them to and from a Store.
type Manager struct {
	store    Store
	sections map[string]Section
	order    []string
	mu       sync.RWMutex
}

// NewManager creates a manager backed by store.
func NewManager(store Store) *Manager {
	return &Manager{
		store:    store,
		sections: make(map[string]Section),
	}
}

// RegisterSection adds a section. IDs must be unique.
func (m *Manager) RegisterSection(section Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := section.ID()
	if _, exists := m.sections[id]; exists {
		return fmt.Errorf("section %q already registered", id)
	}
	m.sections[id] = section
	m.order = append(m.order, id)
	return nil
}

// GetSection returns the section registered under id.
func (m *Manager) GetSection(id string) (Section, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sections[id]
	return s, ok
}

// GetSections returns all sections in registration order.
func (m *Manager) GetSections() []Section {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Section, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.sections[id])
	}
	return out
}

// LoadAll reloads the store and pushes its data into every section.
func (m *Manager) LoadAll() error {
	if err := m.store.Load(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	for _, section := range m.GetSections() {
		data, err := m.store.GetSection(section.ID())
		if err != nil {
			return fmt.Errorf("failed to read section %q: %w", section.ID(), err)
		}
		if err := section.SetData(data); err != nil {
			return fmt.Errorf("failed to apply section %q: %w", section.ID(), err)
		}
	}
	return nil
}

// SaveAll validates every section and writes them through the store.
func (m *Manager) SaveAll() error {
	sections := m.GetSections()
	for _, section := range sections {
		if err := section.Validate(); err != nil {
			return fmt.Errorf("invalid section %q: %w", section.ID(), err)
		}
	}

	for _, section := range sections {
		if err := m.store.SetSection(section.ID(), section.Data()); err != nil {
			return fmt.Errorf("failed to store section %q: %w", section.ID(), err)
		}
	}

	if err := m.store.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// ResetAll restores every section to its defaults. Nothing is written.
func (m *Manager) ResetAll() {
	for _, section := range m.GetSections() {
		section.Reset()
	}
}

// Store returns the underlying store.
func (m *Manager) Store() Store {
	return m.store
}
