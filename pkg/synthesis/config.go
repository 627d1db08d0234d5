package synthesis

import (
	"errors"
	"strings"

	"github.com/entrhq/titleforge/pkg/llm"
	"github.com/entrhq/titleforge/pkg/llm/openai"
)

var (
	// ErrInvalidCredential is returned when no API key is configured.
	ErrInvalidCredential = errors.New("invalid credential: api key is empty")

	// ErrUnknownVariant is returned when the model variant names no model.
	ErrUnknownVariant = errors.New("unknown model variant")

	// ErrRemoteCall wraps a failed model round trip.
	ErrRemoteCall = errors.New("remote model call failed")
)

// Generation defaults.
const (
	DefaultCandidates      = 5
	DefaultTemperature     = 1.0
	DefaultTopP            = 0.95
	DefaultMaxOutputTokens = 8192
)

// Variant is a selectable model: a short key and the model name sent on
// the wire.
type Variant struct {
	Key   string
	Model string
}

// Config is the immutable generation configuration. A new Client is built
// whenever it changes.
type Config struct {
	// APIKey authenticates against the model endpoint.
	APIKey string

	// Variant selects the model.
	Variant Variant

	// BaseURL overrides the OpenAI-compatible endpoint.
	BaseURL string

	// Candidates is the number of titles requested (N).
	Candidates int

	// MaxPromptTokens bounds the user message. Titles are dropped from the
	// end of the list until it fits. Zero disables trimming.
	MaxPromptTokens int

	Temperature     float64
	TopP            float64
	MaxOutputTokens int
}

// withDefaults fills zero values.
func (c Config) withDefaults() Config {
	if c.Candidates <= 0 {
		c.Candidates = DefaultCandidates
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.TopP == 0 {
		c.TopP = DefaultTopP
	}
	if c.MaxOutputTokens <= 0 {
		c.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if c.BaseURL == "" {
		c.BaseURL = openai.GeminiBaseURL
	}
	return c
}

// validate checks the fields NewClient depends on.
func (c Config) validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrInvalidCredential
	}
	if strings.TrimSpace(c.Variant.Model) == "" {
		return ErrUnknownVariant
	}
	return nil
}

// ProviderFactory builds the LLM provider for a configuration.
type ProviderFactory func(cfg Config) (llm.Provider, error)

// NewOpenAIProvider is the default factory: Gemini, or any endpoint set in
// BaseURL, through the OpenAI-compatible provider.
func NewOpenAIProvider(cfg Config) (llm.Provider, error) {
	return openai.NewProvider(cfg.APIKey,
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Variant.Model),
		openai.WithTemperature(cfg.Temperature),
		openai.WithTopP(cfg.TopP),
		openai.WithMaxTokens(cfg.MaxOutputTokens),
	)
}
