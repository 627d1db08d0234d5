package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnvironment.
const (
	EnvAPIKey       = "TITLEFORGE_API_KEY"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvBaseURL      = "TITLEFORGE_BASE_URL"
	EnvModel        = "TITLEFORGE_MODEL"
	EnvAddr         = "TITLEFORGE_ADDR"
)

// LoadDotEnv loads variables from .env files without overriding ones
// already set. Missing files are skipped. With no arguments ./.env is read.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Overrides are values given on the command line. Empty fields and nil
// pointers are ignored.
type Overrides struct {
	APIKey   string
	BaseURL  string
	ModelKey string
	Addr     string
	StartURL string
	Headless *bool
}

// ApplyEnvironment overlays environment variables onto the loaded sections.
// TITLEFORGE_API_KEY wins over GEMINI_API_KEY.
func ApplyEnvironment(m *Manager) {
	if l := sectionOf[*LLMSection](m, SectionIDLLM); l != nil {
		if key := firstEnv(EnvAPIKey, EnvGeminiAPIKey); key != "" {
			l.SetAPIKey(key)
		}
		if v := firstEnv(EnvBaseURL); v != "" {
			l.SetBaseURL(v)
		}
		if v := firstEnv(EnvModel); v != "" {
			l.SetModelKey(v)
		}
	}
	if s := sectionOf[*ServerSection](m, SectionIDServer); s != nil {
		if v := firstEnv(EnvAddr); v != "" {
			s.SetAddr(v)
		}
	}
}

// ApplyOverrides overlays command-line values. Call it after
// ApplyEnvironment so flags take precedence.
func ApplyOverrides(m *Manager, o Overrides) {
	if l := sectionOf[*LLMSection](m, SectionIDLLM); l != nil {
		if o.APIKey != "" {
			l.SetAPIKey(o.APIKey)
		}
		if o.BaseURL != "" {
			l.SetBaseURL(o.BaseURL)
		}
		if o.ModelKey != "" {
			l.SetModelKey(o.ModelKey)
		}
	}
	if b := sectionOf[*BrowserSection](m, SectionIDBrowser); b != nil {
		if o.StartURL != "" {
			b.SetStartURL(o.StartURL)
		}
		if o.Headless != nil {
			b.SetHeadless(*o.Headless)
		}
	}
	if s := sectionOf[*ServerSection](m, SectionIDServer); s != nil && o.Addr != "" {
		s.SetAddr(o.Addr)
	}
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(os.Getenv(n)); v != "" {
			return v
		}
	}
	return ""
}

func sectionOf[T Section](m *Manager, id string) T {
	var zero T
	if m == nil {
		return zero
	}
	s, ok := m.GetSection(id)
	if !ok {
		return zero
	}
	typed, ok := s.(T)
	if !ok {
		return zero
	}
	return typed
}
