// Package session holds the single process-wide title session: the scraped
// titles, the topic, and the configured model. Router exposes the
// operations that read and replace those slots.
//
// Slots are guarded by one RWMutex. Browser and model round trips run on a
// snapshot outside the lock and their results are swapped in whole, so a
// reader never sees a partially written title list.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/entrhq/titleforge/pkg/browser"
	"github.com/entrhq/titleforge/pkg/config"
	"github.com/entrhq/titleforge/pkg/logging"
	"github.com/entrhq/titleforge/pkg/synthesis"
)

var sessionLog *logging.Logger

func init() {
	var err error
	sessionLog, err = logging.NewLogger("session")
	if err != nil {
		sessionLog.Warnf("Failed to initialize session logger, using stderr fallback: %v", err)
	}
}

// Browser is the part of browser.Controller the router drives.
type Browser interface {
	Open(ctx context.Context, url string) error
	Scrape(ctx context.Context) (*browser.ScrapeResult, error)
	CurrentURL() string
	Close() error
}

// Synthesizer generates candidates for one model configuration.
type Synthesizer interface {
	Generate(ctx context.Context, titles []string, topic string) (*synthesis.Result, error)
	Model() string
}

// SynthesizerFactory builds a Synthesizer whenever set-config runs.
type SynthesizerFactory func(cfg synthesis.Config) (Synthesizer, error)

// NewSynthesisClient is the default factory.
func NewSynthesisClient(cfg synthesis.Config) (Synthesizer, error) {
	return synthesis.NewClient(cfg)
}

// Option configures a Router.
type Option func(*Router)

// WithStartURL sets the page StartSession opens.
func WithStartURL(url string) Option {
	return func(r *Router) {
		if url != "" {
			r.startURL = url
		}
	}
}

// WithSynthesisDefaults sets the generation parameters every configured
// client starts from. APIKey and Variant are always taken from SetConfig.
func WithSynthesisDefaults(cfg synthesis.Config) Option {
	return func(r *Router) {
		r.base = cfg
	}
}

// WithSynthesizerFactory replaces how synthesizers are built.
func WithSynthesizerFactory(f SynthesizerFactory) Option {
	return func(r *Router) {
		if f != nil {
			r.newSynth = f
		}
	}
}

// Router owns the session slots.
type Router struct {
	mu       sync.RWMutex
	browser  Browser
	newSynth SynthesizerFactory
	startURL string
	base     synthesis.Config

	scrape   *browser.ScrapeResult
	topic    string
	synth    Synthesizer
	modelKey string
	last     *synthesis.Result
	open     bool
}

// NewRouter creates a router over b.
func NewRouter(b Browser, opts ...Option) *Router {
	r := &Router{
		browser:  b,
		newSynth: NewSynthesisClient,
		startURL: browser.DefaultStartURL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StartSession opens the browser at the start URL. An open window is
// replaced. Scraped titles, context and config are kept.
func (r *Router) StartSession(ctx context.Context) (string, error) {
	if err := r.browser.Open(ctx, r.startURL); err != nil {
		r.setOpen(false)
		return "", err
	}
	r.setOpen(true)
	sessionLog.Infof("Session started at %s", r.startURL)
	return "Browser opened at " + r.startURL, nil
}

// Scrape replaces the stored titles with those on the current page.
func (r *Router) Scrape(ctx context.Context) (*browser.ScrapeResult, error) {
	res, err := r.browser.Scrape(ctx)
	if err != nil {
		return nil, err
	}

	stored := *res
	stored.Titles = append([]string(nil), res.Titles...)

	r.mu.Lock()
	r.scrape = &stored
	r.mu.Unlock()

	sessionLog.Infof("Stored %d scraped titles from %s", len(stored.Titles), stored.URL)
	return res, nil
}

// SetContext replaces the topic. Blank input is rejected and leaves the
// stored topic as it was.
func (r *Router) SetContext(_ context.Context, topic string) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return fmt.Errorf("%w: context must be a non-empty string", ErrInvalidInput)
	}

	r.mu.Lock()
	r.topic = topic
	r.mu.Unlock()

	sessionLog.Debugf("Context set (%d chars)", len(topic))
	return nil
}

// SetConfig builds a new synthesizer for key and modelKey and replaces the
// current one. On error the previous configuration stays in place.
func (r *Router) SetConfig(_ context.Context, key, modelKey string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: key must be a non-empty string", ErrInvalidInput)
	}
	model, ok := config.LookupModel(modelKey)
	if !ok {
		return fmt.Errorf("%w: unknown modelKey %q (known: %s)",
			ErrInvalidInput, modelKey, strings.Join(config.VariantKeys(), ", "))
	}

	cfg := r.base
	cfg.APIKey = key
	cfg.Variant = synthesis.Variant{Key: modelKey, Model: model}

	synth, err := r.newSynth(cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	r.mu.Lock()
	r.synth = synth
	r.modelKey = modelKey
	r.mu.Unlock()

	sessionLog.Infof("Model configured: %s (%s)", modelKey, model)
	return nil
}

// Generate runs synthesis over the stored titles and topic. Missing state
// yields a *PreconditionError and the model is not called. A failed call or
// a reply without candidates yields a *GenerationError.
func (r *Router) Generate(ctx context.Context) (*synthesis.Result, error) {
	r.mu.RLock()
	scrape, topic, synth := r.scrape, r.topic, r.synth
	r.mu.RUnlock()

	var missing []string
	if scrape == nil || len(scrape.Titles) == 0 {
		missing = append(missing, MissingTitles)
	}
	if topic == "" {
		missing = append(missing, MissingContext)
	}
	if synth == nil {
		missing = append(missing, MissingConfig)
	}
	if len(missing) > 0 {
		return nil, &PreconditionError{Missing: missing}
	}

	if cur := r.browser.CurrentURL(); cur != "" && cur != scrape.URL {
		sessionLog.Warnf("Titles were scraped from %s but the page is now %s", scrape.URL, cur)
	}

	res, err := synth.Generate(ctx, scrape.Titles, topic)
	if err != nil {
		return nil, &GenerationError{Reason: ReasonRemoteCall, Err: err}
	}
	if len(res.Candidates) == 0 {
		return nil, &GenerationError{Reason: ReasonNoCandidates}
	}

	r.mu.Lock()
	r.last = res
	r.mu.Unlock()
	return res, nil
}

// CloseSession releases the browser window if one is open.
func (r *Router) CloseSession(_ context.Context) error {
	err := r.browser.Close()
	r.setOpen(false)
	return err
}

// LastResult returns the most recent successful generation, or nil.
func (r *Router) LastResult() *synthesis.Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// Titles returns a copy of the stored titles.
func (r *Router) Titles() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.scrape == nil {
		return nil
	}
	return append([]string(nil), r.scrape.Titles...)
}

func (r *Router) setOpen(open bool) {
	r.mu.Lock()
	r.open = open
	r.mu.Unlock()
}

// Status is a point-in-time view of the session.
type Status struct {
	BrowserOpen bool      `json:"browserOpen"`
	CurrentURL  string    `json:"currentUrl,omitempty"`
	ScrapedURL  string    `json:"scrapedUrl,omitempty"`
	ScrapedAt   time.Time `json:"scrapedAt,omitzero"`
	Profile     string    `json:"profile,omitempty"`
	TitleCount  int       `json:"titleCount"`
	Context     string    `json:"context,omitempty"`
	Configured  bool      `json:"configured"`
	ModelKey    string    `json:"modelKey,omitempty"`
	Model       string    `json:"model,omitempty"`
	GeneratedAt time.Time `json:"generatedAt,omitzero"`

	// Stale is set when the open page is not the one the titles came from.
	Stale bool `json:"stale"`
}

// Status reports the current slots.
func (r *Router) Status() Status {
	r.mu.RLock()
	st := Status{
		BrowserOpen: r.open,
		Context:     r.topic,
		Configured:  r.synth != nil,
		ModelKey:    r.modelKey,
	}
	if r.synth != nil {
		st.Model = r.synth.Model()
	}
	if r.scrape != nil {
		st.ScrapedURL = r.scrape.URL
		st.ScrapedAt = r.scrape.ScrapedAt
		st.Profile = r.scrape.Profile
		st.TitleCount = len(r.scrape.Titles)
	}
	if r.last != nil {
		st.GeneratedAt = r.last.GeneratedAt
	}
	r.mu.RUnlock()

	if st.BrowserOpen {
		st.CurrentURL = r.browser.CurrentURL()
		st.Stale = st.ScrapedURL != "" && st.CurrentURL != "" && st.CurrentURL != st.ScrapedURL
	}
	return st
}
