package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/entrhq/titleforge/pkg/browser"
	"github.com/entrhq/titleforge/pkg/synthesis"
	"github.com/entrhq/titleforge/pkg/types"
)

type fakeBrowser struct {
	mu       sync.Mutex
	open     bool
	url      string
	titles   []string
	openErr  error
	openedAt []string
}

func (b *fakeBrowser) Open(_ context.Context, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.openErr != nil {
		b.open = false
		return b.openErr
	}
	b.open = true
	b.url = url
	b.openedAt = append(b.openedAt, url)
	return nil
}

func (b *fakeBrowser) Scrape(_ context.Context) (*browser.ScrapeResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return nil, browser.ErrNoActiveSession
	}
	return &browser.ScrapeResult{
		ScrapedAt: time.Now(),
		URL:       b.url,
		Profile:   "home",
		Titles:    append([]string{}, b.titles...),
	}, nil
}

func (b *fakeBrowser) CurrentURL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return ""
	}
	return b.url
}

func (b *fakeBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = false
	return nil
}

func (b *fakeBrowser) setTitles(titles ...string) {
	b.mu.Lock()
	b.titles = titles
	b.mu.Unlock()
}

func (b *fakeBrowser) navigate(url string) {
	b.mu.Lock()
	b.url = url
	b.mu.Unlock()
}

// fakeSynth answers with one candidate per title, up to n.
type fakeSynth struct {
	cfg   synthesis.Config
	calls atomic.Int32
	err   error
	empty bool
	seen  func(titles []string, topic string)
}

func (s *fakeSynth) Generate(_ context.Context, titles []string, topic string) (*synthesis.Result, error) {
	s.calls.Add(1)
	if s.seen != nil {
		s.seen(titles, topic)
	}
	if s.err != nil {
		return nil, s.err
	}
	res := &synthesis.Result{Model: s.Model(), GeneratedAt: time.Now(), Candidates: []types.TitleCandidate{}}
	if s.empty {
		return res, nil
	}
	n := s.cfg.Candidates
	if n <= 0 {
		n = synthesis.DefaultCandidates
	}
	for i, t := range titles {
		if i == n {
			break
		}
		res.Candidates = append(res.Candidates, types.TitleCandidate{Rationale: "because " + topic, Title: t + " 2"})
	}
	return res, nil
}

func (s *fakeSynth) Model() string { return s.cfg.Variant.Model }

// synthFactory returns a factory that always hands out s, recording the
// config it was built with.
func synthFactory(s *fakeSynth) SynthesizerFactory {
	return func(cfg synthesis.Config) (Synthesizer, error) {
		if cfg.APIKey == "reject" {
			return nil, synthesis.ErrInvalidCredential
		}
		s.cfg = cfg
		return s, nil
	}
}

var errRemote = errors.New("503 from model")
