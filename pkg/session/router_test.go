package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/titleforge/pkg/browser"
	"github.com/entrhq/titleforge/pkg/synthesis"
)

func newTestRouter(b *fakeBrowser, s *fakeSynth) *Router {
	return NewRouter(b,
		WithStartURL("https://www.youtube.com"),
		WithSynthesizerFactory(synthFactory(s)),
		WithSynthesisDefaults(synthesis.Config{Candidates: 3}),
	)
}

func TestStartSession(t *testing.T) {
	b := &fakeBrowser{}
	r := newTestRouter(b, &fakeSynth{})

	msg, err := r.StartSession(context.Background())
	require.NoError(t, err)
	assert.Contains(t, msg, "https://www.youtube.com")
	assert.Equal(t, []string{"https://www.youtube.com"}, b.openedAt)
	assert.True(t, r.Status().BrowserOpen)

	b.openErr = fmt.Errorf("%w: no chromium", browser.ErrBrowserLaunch)
	_, err = r.StartSession(context.Background())
	assert.ErrorIs(t, err, browser.ErrBrowserLaunch)
	assert.False(t, r.Status().BrowserOpen)
}

func TestScrape_RequiresSession(t *testing.T) {
	r := newTestRouter(&fakeBrowser{}, &fakeSynth{})

	_, err := r.Scrape(context.Background())
	assert.ErrorIs(t, err, browser.ErrNoActiveSession)
	assert.Nil(t, r.Titles())
}

func TestScrape_ReplacesTitles(t *testing.T) {
	b := &fakeBrowser{titles: []string{"A", "B"}}
	r := newTestRouter(b, &fakeSynth{})
	_, err := r.StartSession(context.Background())
	require.NoError(t, err)

	_, err = r.Scrape(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, r.Titles())

	b.setTitles("C")
	res, err := r.Scrape(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, r.Titles())

	// The stored list is not shared with the returned result.
	res.Titles[0] = "mutated"
	assert.Equal(t, []string{"C"}, r.Titles())
}

func TestSetContext_RejectsBlank(t *testing.T) {
	r := newTestRouter(&fakeBrowser{}, &fakeSynth{})
	require.NoError(t, r.SetContext(context.Background(), "cooking channel"))

	for _, in := range []string{"", "   ", "\n\t"} {
		err := r.SetContext(context.Background(), in)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
	assert.Equal(t, "cooking channel", r.Status().Context)
}

func TestSetConfig(t *testing.T) {
	s := &fakeSynth{}
	r := newTestRouter(&fakeBrowser{}, s)

	assert.ErrorIs(t, r.SetConfig(context.Background(), "", "flash"), ErrInvalidInput)
	assert.ErrorIs(t, r.SetConfig(context.Background(), "key", "gpt-4o"), ErrInvalidInput)
	assert.False(t, r.Status().Configured)

	require.NoError(t, r.SetConfig(context.Background(), "key", "flash"))
	assert.Equal(t, "key", s.cfg.APIKey)
	assert.Equal(t, synthesis.Variant{Key: "flash", Model: "gemini-1.5-flash"}, s.cfg.Variant)
	assert.Equal(t, 3, s.cfg.Candidates)

	st := r.Status()
	assert.True(t, st.Configured)
	assert.Equal(t, "flash", st.ModelKey)
	assert.Equal(t, "gemini-1.5-flash", st.Model)

	// A failing rebuild keeps the previous client.
	err := r.SetConfig(context.Background(), "reject", "pro")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, synthesis.ErrInvalidCredential)
	assert.Equal(t, "flash", r.Status().ModelKey)
}

func TestGenerate_Preconditions(t *testing.T) {
	tests := []struct {
		name    string
		scrape  bool
		topic   bool
		config  bool
		missing []string
	}{
		{"nothing set", false, false, false, []string{MissingTitles, MissingContext, MissingConfig}},
		{"scraped only", true, false, false, []string{MissingContext, MissingConfig}},
		{"no context", true, false, true, []string{MissingContext}},
		{"no config", true, true, false, []string{MissingConfig}},
		{"no titles", false, true, true, []string{MissingTitles}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			b := &fakeBrowser{titles: []string{"Video X"}}
			s := &fakeSynth{}
			r := newTestRouter(b, s)

			if tt.scrape {
				_, err := r.StartSession(ctx)
				require.NoError(t, err)
				_, err = r.Scrape(ctx)
				require.NoError(t, err)
			}
			if tt.topic {
				require.NoError(t, r.SetContext(ctx, "topic"))
			}
			if tt.config {
				require.NoError(t, r.SetConfig(ctx, "key", "flash"))
			}

			_, err := r.Generate(ctx)
			require.ErrorIs(t, err, ErrPrecondition)

			var pe *PreconditionError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.missing, pe.Missing)
			assert.Zero(t, s.calls.Load())
		})
	}
}

func TestGenerate_EmptyScrapeIsMissingTitles(t *testing.T) {
	ctx := context.Background()
	r := newTestRouter(&fakeBrowser{}, &fakeSynth{})
	_, err := r.StartSession(ctx)
	require.NoError(t, err)
	_, err = r.Scrape(ctx)
	require.NoError(t, err)
	require.NoError(t, r.SetContext(ctx, "topic"))
	require.NoError(t, r.SetConfig(ctx, "key", "flash"))

	_, err = r.Generate(ctx)
	var pe *PreconditionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, []string{MissingTitles}, pe.Missing)
}

func TestGenerate_Failures(t *testing.T) {
	ctx := context.Background()
	b := &fakeBrowser{titles: []string{"Video X"}}
	s := &fakeSynth{}
	r := newTestRouter(b, s)
	_, err := r.StartSession(ctx)
	require.NoError(t, err)
	_, err = r.Scrape(ctx)
	require.NoError(t, err)
	require.NoError(t, r.SetContext(ctx, "topic"))
	require.NoError(t, r.SetConfig(ctx, "key", "flash"))

	s.err = fmt.Errorf("%w: %w", synthesis.ErrRemoteCall, errRemote)
	_, err = r.Generate(ctx)
	require.ErrorIs(t, err, ErrGenerationFailure)
	assert.ErrorIs(t, err, synthesis.ErrRemoteCall)
	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, ReasonRemoteCall, ge.Reason)

	s.err = nil
	s.empty = true
	_, err = r.Generate(ctx)
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, ReasonNoCandidates, ge.Reason)
	assert.Nil(t, r.LastResult())
}

func TestGenerate_FullScenario(t *testing.T) {
	ctx := context.Background()
	b := &fakeBrowser{titles: []string{"Video X", "Video Y"}}
	s := &fakeSynth{}
	r := newTestRouter(b, s)

	_, err := r.StartSession(ctx)
	require.NoError(t, err)
	scraped, err := r.Scrape(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Video X", "Video Y"}, scraped.Titles)
	require.NoError(t, r.SetContext(ctx, "cooking channel"))
	require.NoError(t, r.SetConfig(ctx, "key", "flash-exp"))

	var gotTitles []string
	var gotTopic string
	s.seen = func(titles []string, topic string) {
		gotTitles, gotTopic = titles, topic
	}

	res, err := r.Generate(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Video X", "Video Y"}, gotTitles)
	assert.Equal(t, "cooking channel", gotTopic)
	assert.LessOrEqual(t, len(res.Candidates), s.cfg.Candidates)
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, "Video X 2", res.Candidates[0].Title)
	assert.Same(t, res, r.LastResult())
	assert.False(t, r.Status().GeneratedAt.IsZero())
}

func TestStatus_Staleness(t *testing.T) {
	ctx := context.Background()
	b := &fakeBrowser{titles: []string{"Video X"}}
	r := newTestRouter(b, &fakeSynth{})

	_, err := r.StartSession(ctx)
	require.NoError(t, err)
	_, err = r.Scrape(ctx)
	require.NoError(t, err)

	st := r.Status()
	assert.Equal(t, 1, st.TitleCount)
	assert.Equal(t, "home", st.Profile)
	assert.False(t, st.Stale)

	b.navigate("https://www.youtube.com/results?search_query=pasta")
	st = r.Status()
	assert.True(t, st.Stale)
	assert.Equal(t, "https://www.youtube.com", st.ScrapedURL)

	require.NoError(t, r.CloseSession(ctx))
	st = r.Status()
	assert.False(t, st.BrowserOpen)
	assert.False(t, st.Stale)
	assert.Equal(t, 1, st.TitleCount)
}

func TestConcurrentScrapeAndGenerate(t *testing.T) {
	ctx := context.Background()
	listA := []string{"a1", "a2", "a3", "a4"}
	listB := []string{"b1", "b2", "b3", "b4"}

	b := &fakeBrowser{titles: listA}
	s := &fakeSynth{}
	r := newTestRouter(b, s)
	_, err := r.StartSession(ctx)
	require.NoError(t, err)
	_, err = r.Scrape(ctx)
	require.NoError(t, err)
	require.NoError(t, r.SetContext(ctx, "topic"))
	require.NoError(t, r.SetConfig(ctx, "key", "flash"))

	var mu sync.Mutex
	var observed [][]string
	s.seen = func(titles []string, _ string) {
		mu.Lock()
		observed = append(observed, append([]string(nil), titles...))
		mu.Unlock()
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				b.setTitles(listB...)
			} else {
				b.setTitles(listA...)
			}
			_, _ = r.Scrape(ctx)
		}(i)
		go func() {
			defer wg.Done()
			_, _ = r.Generate(ctx)
		}()
	}
	wg.Wait()

	require.NotEmpty(t, observed)
	for _, titles := range observed {
		if titles[0] == "a1" {
			assert.Equal(t, listA, titles)
		} else {
			assert.Equal(t, listB, titles)
		}
	}
	final := r.Titles()
	assert.True(t, assert.ObjectsAreEqual(listA, final) || assert.ObjectsAreEqual(listB, final))
}
