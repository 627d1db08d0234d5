package config

import (
	"fmt"
	"strings"
	"sync"
)

const (
	// SectionIDLLM is the identifier for the LLM settings section
	SectionIDLLM = "llm"
)

// LLM defaults.
const (
	DefaultCandidates      = 5
	DefaultTemperature     = 1.0
	DefaultTopP            = 0.95
	DefaultMaxOutputTokens = 8192
	DefaultMaxPromptTokens = 30000
)

// LLMSection holds the model credential and generation parameters.
type LLMSection struct {
	APIKey          string
	BaseURL         string
	ModelKey        string
	Candidates      int
	MaxPromptTokens int
	MaxOutputTokens int
	Temperature     float64
	TopP            float64
	mu              sync.RWMutex
}

// NewLLMSection creates a new LLM section with default settings.
func NewLLMSection() *LLMSection {
	s := &LLMSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *LLMSection) ID() string {
	return SectionIDLLM
}

// Title returns the section title.
func (s *LLMSection) Title() string {
	return "LLM Settings"
}

// Description returns the section description.
func (s *LLMSection) Description() string {
	return "Model credential, variant and generation parameters. base_url defaults to Gemini's OpenAI-compatible endpoint."
}

// Data returns the current configuration data.
func (s *LLMSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"api_key":           s.APIKey,
		"base_url":          s.BaseURL,
		"model_key":         s.ModelKey,
		"candidates":        s.Candidates,
		"max_prompt_tokens": s.MaxPromptTokens,
		"max_output_tokens": s.MaxOutputTokens,
		"temperature":       s.Temperature,
		"top_p":             s.TopP,
	}
}

// SetData updates the configuration from the provided data.
func (s *LLMSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, v := range data {
		var ok bool
		switch key {
		case "api_key":
			s.APIKey, ok = asStringOr(v, s.APIKey)
		case "base_url":
			s.BaseURL, ok = asStringOr(v, s.BaseURL)
		case "model_key":
			s.ModelKey, ok = asStringOr(v, s.ModelKey)
		case "candidates":
			s.Candidates, ok = asIntOr(v, s.Candidates)
		case "max_prompt_tokens":
			s.MaxPromptTokens, ok = asIntOr(v, s.MaxPromptTokens)
		case "max_output_tokens":
			s.MaxOutputTokens, ok = asIntOr(v, s.MaxOutputTokens)
		case "temperature":
			s.Temperature, ok = asFloatOr(v, s.Temperature)
		case "top_p":
			s.TopP, ok = asFloatOr(v, s.TopP)
		default:
			ok = true
		}
		if !ok {
			return fieldError(SectionIDLLM, key, v)
		}
	}
	return nil
}

// Validate checks ranges. An empty API key is allowed here; it is supplied
// at runtime through set-config.
func (s *LLMSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ModelKey != "" {
		if _, ok := LookupModel(s.ModelKey); !ok {
			return fmt.Errorf("unknown model_key %q (known: %s)", s.ModelKey, strings.Join(VariantKeys(), ", "))
		}
	}
	if s.Candidates < 1 {
		return fmt.Errorf("candidates must be at least 1, got %d", s.Candidates)
	}
	if s.Temperature < 0 || s.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2], got %g", s.Temperature)
	}
	if s.TopP <= 0 || s.TopP > 1 {
		return fmt.Errorf("top_p must be within (0, 1], got %g", s.TopP)
	}
	if s.MaxPromptTokens < 0 || s.MaxOutputTokens < 0 {
		return fmt.Errorf("token limits must not be negative")
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *LLMSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.APIKey = ""
	s.BaseURL = ""
	s.ModelKey = DefaultModelKey
	s.Candidates = DefaultCandidates
	s.MaxPromptTokens = DefaultMaxPromptTokens
	s.MaxOutputTokens = DefaultMaxOutputTokens
	s.Temperature = DefaultTemperature
	s.TopP = DefaultTopP
}

// GetAPIKey returns the configured API key.
func (s *LLMSection) GetAPIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.APIKey
}

// SetAPIKey sets the API key.
func (s *LLMSection) SetAPIKey(apiKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.APIKey = apiKey
}

// GetBaseURL returns the configured base URL.
func (s *LLMSection) GetBaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.BaseURL
}

// SetBaseURL sets the base URL.
func (s *LLMSection) SetBaseURL(baseURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BaseURL = baseURL
}

// GetModelKey returns the configured model key.
func (s *LLMSection) GetModelKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ModelKey
}

// SetModelKey sets the model key.
func (s *LLMSection) SetModelKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ModelKey = key
}

// Snapshot returns a copy of the section's values.
func (s *LLMSection) Snapshot() LLMSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return LLMSettings{
		APIKey:          s.APIKey,
		BaseURL:         s.BaseURL,
		ModelKey:        s.ModelKey,
		Candidates:      s.Candidates,
		MaxPromptTokens: s.MaxPromptTokens,
		MaxOutputTokens: s.MaxOutputTokens,
		Temperature:     s.Temperature,
		TopP:            s.TopP,
	}
}

// LLMSettings is a lock-free copy of LLMSection.
type LLMSettings struct {
	APIKey          string
	BaseURL         string
	ModelKey        string
	Candidates      int
	MaxPromptTokens int
	MaxOutputTokens int
	Temperature     float64
	TopP            float64
}

func asStringOr(v interface{}, cur string) (string, bool) {
	if s, ok := asString(v); ok {
		return s, true
	}
	return cur, v == nil
}

func asIntOr(v interface{}, cur int) (int, bool) {
	if n, ok := asInt(v); ok {
		return n, true
	}
	return cur, v == nil
}

func asFloatOr(v interface{}, cur float64) (float64, bool) {
	if f, ok := asFloat(v); ok {
		return f, true
	}
	return cur, v == nil
}
