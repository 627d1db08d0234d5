// Package synthesis turns scraped video titles and a topic into new title
// candidates by prompting a language model.
//
// A Client is built from an immutable Config and holds no per-call state, so
// one Client may serve concurrent calls. Changing the key or model means
// building a new Client.
package synthesis

import (
	"context"
	"fmt"
	"time"

	"github.com/entrhq/titleforge/pkg/llm"
	"github.com/entrhq/titleforge/pkg/llm/tokenizer"
	"github.com/entrhq/titleforge/pkg/logging"
	"github.com/entrhq/titleforge/pkg/types"
)

var synthLog *logging.Logger

func init() {
	var err error
	synthLog, err = logging.NewLogger("synthesis")
	if err != nil {
		synthLog.Warnf("Failed to initialize synthesis logger, using stderr fallback: %v", err)
	}
}

// Result is a completed generation.
type Result struct {
	// Candidates are the parsed titles, at most Config.Candidates, in the
	// order the model produced them.
	Candidates []types.TitleCandidate `json:"candidates"`

	// Shape is how the reply was laid out.
	Shape Shape `json:"shape"`

	// Raw is the reply text as received.
	Raw string `json:"raw"`

	// Model is the model that answered.
	Model string `json:"model"`

	// Dropped counts reply segments that could not be used.
	Dropped int `json:"dropped"`

	// TitlesUsed is how many scraped titles fit in the prompt.
	TitlesUsed int `json:"titlesUsed"`

	// GeneratedAt is when the reply was parsed.
	GeneratedAt time.Time `json:"generatedAt"`
}

// Option configures a Client.
type Option func(*Client)

// WithProviderFactory replaces how the LLM provider is built.
func WithProviderFactory(f ProviderFactory) Option {
	return func(c *Client) {
		if f != nil {
			c.factory = f
		}
	}
}

// WithCounter replaces the token counter used for prompt trimming.
func WithCounter(counter Counter) Option {
	return func(c *Client) {
		c.counter = counter
	}
}

// Client invokes the model for one Config.
type Client struct {
	cfg      Config
	provider llm.Provider
	factory  ProviderFactory
	counter  Counter
}

// NewClient validates cfg and builds the provider.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:     cfg.withDefaults(),
		factory: NewOpenAIProvider,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.counter == nil && c.cfg.MaxPromptTokens > 0 {
		tok, err := tokenizer.New()
		if err != nil {
			synthLog.Warnf("Tokenizer unavailable, estimating prompt size: %v", err)
		}
		// A nil *Tokenizer still counts, by estimate.
		c.counter = tok
	}

	provider, err := c.factory(c.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	c.provider = provider
	return c, nil
}

// Config returns the configuration the client was built with, defaults
// applied.
func (c *Client) Config() Config {
	return c.cfg
}

// Model returns the model name requests are sent to.
func (c *Client) Model() string {
	return c.cfg.Variant.Model
}

// Generate asks the model for candidates. A failed round trip wraps
// ErrRemoteCall; a reply with nothing usable is not an error and yields an
// empty Candidates slice.
func (c *Client) Generate(ctx context.Context, titles []string, topic string) (*Result, error) {
	kept := fitTitles(titles, topic, c.cfg.MaxPromptTokens, c.counter)
	if len(kept) < len(titles) {
		synthLog.Warnf("Prompt budget of %d tokens fits %d of %d titles", c.cfg.MaxPromptTokens, len(kept), len(titles))
	}

	messages := []*types.Message{
		types.NewSystemMessage(instructions(c.cfg.Candidates)),
		types.NewUserMessage(userMessage(kept, topic)),
	}

	start := time.Now()
	reply, err := c.provider.Complete(ctx, messages)
	if err != nil {
		synthLog.Errorf("Model %s failed after %s: %v", c.Model(), time.Since(start), err)
		return nil, fmt.Errorf("%w: %w", ErrRemoteCall, err)
	}

	parsed := ParseCandidates(reply.Content)
	candidates := parsed.Candidates
	if len(candidates) > c.cfg.Candidates {
		candidates = candidates[:c.cfg.Candidates]
	}

	synthLog.Infof("Model %s returned %d candidates (shape=%s, dropped=%d) in %s",
		c.Model(), len(candidates), parsed.Shape, parsed.Dropped, time.Since(start))

	return &Result{
		Candidates:  candidates,
		Shape:       parsed.Shape,
		Raw:         reply.Content,
		Model:       c.Model(),
		Dropped:     parsed.Dropped,
		TitlesUsed:  len(kept),
		GeneratedAt: time.Now(),
	}, nil
}

// Synthesize is Generate without the error: any failure yields an empty,
// non-nil slice.
func (c *Client) Synthesize(ctx context.Context, titles []string, topic string) []types.TitleCandidate {
	res, err := c.Generate(ctx, titles, topic)
	if err != nil || res == nil {
		return []types.TitleCandidate{}
	}
	return res.Candidates
}
