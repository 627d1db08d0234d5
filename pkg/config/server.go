package config

import (
	"fmt"
	"net"
	"sync"

	"github.com/entrhq/titleforge/pkg/logging"
)

// SectionIDServer is the identifier for the HTTP server section.
const SectionIDServer = "server"

// DefaultAddr is where the HTTP server listens.
const DefaultAddr = ":3000"

// ServerSection configures the HTTP surface.
type ServerSection struct {
	Addr           string
	AllowedOrigins []string
	LogLevel       string
	mu             sync.RWMutex
}

// NewServerSection creates a server section with default settings.
func NewServerSection() *ServerSection {
	s := &ServerSection{}
	s.Reset()
	return s
}

func (s *ServerSection) ID() string          { return SectionIDServer }
func (s *ServerSection) Title() string       { return "Server Settings" }
func (s *ServerSection) Description() string { return "HTTP listen address, CORS origins and log level." }

// Data returns the current configuration data.
func (s *ServerSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	origins := make([]interface{}, 0, len(s.AllowedOrigins))
	for _, o := range s.AllowedOrigins {
		origins = append(origins, o)
	}
	return map[string]interface{}{
		"addr":            s.Addr,
		"allowed_origins": origins,
		"log_level":       s.LogLevel,
	}
}

// SetData updates the configuration from the provided data.
func (s *ServerSection) SetData(data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, v := range data {
		if v == nil {
			continue
		}
		ok := true
		switch key {
		case "addr":
			var str string
			if str, ok = asString(v); ok {
				s.Addr = str
			}
		case "allowed_origins":
			var list []string
			if list, ok = asStrings(v); ok {
				s.AllowedOrigins = list
			}
		case "log_level":
			var str string
			if str, ok = asString(v); ok {
				s.LogLevel = str
			}
		}
		if !ok {
			return fieldError(SectionIDServer, key, v)
		}
	}
	return nil
}

// Validate validates the current configuration.
func (s *ServerSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, _, err := net.SplitHostPort(s.Addr); err != nil {
		return fmt.Errorf("invalid addr %q: %w", s.Addr, err)
	}
	if _, err := logging.ParseLevel(s.LogLevel); err != nil {
		return err
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *ServerSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Addr = DefaultAddr
	s.AllowedOrigins = []string{"*"}
	s.LogLevel = "info"
}

// SetAddr sets the listen address.
func (s *ServerSection) SetAddr(addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Addr = addr
}

// Snapshot returns a copy of the section's values.
func (s *ServerSection) Snapshot() ServerSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ServerSettings{
		Addr:           s.Addr,
		AllowedOrigins: append([]string(nil), s.AllowedOrigins...),
		LogLevel:       s.LogLevel,
	}
}

// ServerSettings is a lock-free copy of ServerSection.
type ServerSettings struct {
	Addr           string
	AllowedOrigins []string
	LogLevel       string
}
