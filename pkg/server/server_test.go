package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/titleforge/pkg/browser"
	"github.com/entrhq/titleforge/pkg/session"
	"github.com/entrhq/titleforge/pkg/synthesis"
	"github.com/entrhq/titleforge/pkg/types"
)

type stubBrowser struct {
	mu      sync.Mutex
	open    bool
	titles  []string
	openErr error
}

func (b *stubBrowser) Open(context.Context, string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.openErr != nil {
		return b.openErr
	}
	b.open = true
	return nil
}

func (b *stubBrowser) Scrape(context.Context) (*browser.ScrapeResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return nil, browser.ErrNoActiveSession
	}
	return &browser.ScrapeResult{URL: "https://www.youtube.com", Titles: append([]string{}, b.titles...)}, nil
}

func (b *stubBrowser) CurrentURL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return ""
	}
	return "https://www.youtube.com"
}

func (b *stubBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = false
	return nil
}

type stubSynth struct {
	model  string
	reply  []types.TitleCandidate
	err    error
	called int
}

func (s *stubSynth) Generate(context.Context, []string, string) (*synthesis.Result, error) {
	s.called++
	if s.err != nil {
		return nil, s.err
	}
	return &synthesis.Result{Candidates: s.reply, Model: s.model, GeneratedAt: time.Now()}, nil
}

func (s *stubSynth) Model() string { return s.model }

type harness struct {
	browser *stubBrowser
	synth   *stubSynth
	router  *session.Router
	handler http.Handler
	metrics *Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &harness{
		browser: &stubBrowser{titles: []string{"Video X", "Video Y"}},
		synth: &stubSynth{reply: []types.TitleCandidate{
			{Rationale: "r1", Title: "t1"},
			{Rationale: "r2", Title: "t2"},
		}},
		metrics: NewMetrics(),
	}
	h.router = session.NewRouter(h.browser, session.WithSynthesizerFactory(
		func(cfg synthesis.Config) (session.Synthesizer, error) {
			h.synth.model = cfg.Variant.Model
			return h.synth, nil
		}))
	h.handler = New(h.router, Options{Addr: ":0", Metrics: h.metrics}).Handler()
	return h
}

func (h *harness) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	return apiErr
}

func TestStartBrowser(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/startbrowser", "")
	require.Equal(t, http.StatusOK, w.Code)
	var msg messageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))
	assert.NotEmpty(t, msg.Message)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	h.browser.openErr = fmt.Errorf("%w: no driver", browser.ErrBrowserLaunch)
	w = h.do(t, http.MethodPost, "/startbrowser", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decodeError(t, w).Details["cause"], "no driver")
}

func TestScrape(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/scrape", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	h.do(t, http.MethodPost, "/startbrowser", "")
	w = h.do(t, http.MethodGet, "/scrape", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, []string{"Video X", "Video Y"}, h.router.Titles())
}

func TestSetContext(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/setcontext", `{"context":"cooking channel"}`)
	require.Equal(t, http.StatusOK, w.Code)

	bad := []string{
		`{"context":""}`,
		`{"context":"   "}`,
		`{"context":42}`,
		`{"context":["a"]}`,
		`{"context":null}`,
		`{}`,
		`not json`,
	}
	for _, body := range bad {
		t.Run(body, func(t *testing.T) {
			w := h.do(t, http.MethodPost, "/setcontext", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decodeError(t, w).Error)
		})
	}

	assert.Equal(t, "cooking channel", h.router.Status().Context)
}

func TestSetConfig(t *testing.T) {
	h := newHarness(t)

	for _, body := range []string{
		`{"key":"","modelKey":"flash"}`,
		`{"key":"k","modelKey":"nope"}`,
		`{"key":"k"}`,
		`{"key":1,"modelKey":"flash"}`,
	} {
		w := h.do(t, http.MethodPost, "/setconfig", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	w := h.do(t, http.MethodPost, "/setconfig", `{"key":"k","modelKey":"flash"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "flash")
	assert.True(t, h.router.Status().Configured)
}

func TestGenerateTitle_Preconditions(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/startbrowser", "")
	h.do(t, http.MethodGet, "/scrape", "")

	w := h.do(t, http.MethodPost, "/generatetitle", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{session.MissingContext, session.MissingConfig}, decodeError(t, w).Missing)

	h.do(t, http.MethodPost, "/setcontext", `{"context":"topic"}`)
	w = h.do(t, http.MethodPost, "/generatetitle", `{"key":"ignored"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{session.MissingConfig}, decodeError(t, w).Missing)
	assert.Zero(t, h.synth.called)
}

func TestGenerateTitle_Failures(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/startbrowser", "")
	h.do(t, http.MethodGet, "/scrape", "")
	h.do(t, http.MethodPost, "/setcontext", `{"context":"topic"}`)
	h.do(t, http.MethodPost, "/setconfig", `{"key":"k","modelKey":"flash"}`)

	h.synth.err = fmt.Errorf("%w: timeout", synthesis.ErrRemoteCall)
	w := h.do(t, http.MethodPost, "/generatetitle", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	apiErr := decodeError(t, w)
	assert.Equal(t, session.ReasonRemoteCall, apiErr.Reason)
	assert.Contains(t, apiErr.Details["cause"], "timeout")

	h.synth.err = nil
	h.synth.reply = []types.TitleCandidate{}
	w = h.do(t, http.MethodPost, "/generatetitle", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, session.ReasonNoCandidates, decodeError(t, w).Reason)
}

func TestFullScenario(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/startbrowser", "").Code)
	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/scrape", "").Code)
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/setcontext", `{"context":"cooking channel"}`).Code)
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/setconfig", `{"key":"k","modelKey":"flash-exp"}`).Code)

	w := h.do(t, http.MethodPost, "/generatetitle", `{}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		GeneratedTitle []json.RawMessage `json:"generatedTitle"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.GeneratedTitle, 2)
	assert.LessOrEqual(t, len(body.GeneratedTitle), synthesis.DefaultCandidates)
	for _, raw := range body.GeneratedTitle {
		var pair []string
		require.NoError(t, json.Unmarshal(raw, &pair))
		assert.Len(t, pair, 2)
	}
	assert.JSONEq(t, `{"generatedTitle":[["r1","t1"],["r2","t2"]]}`, w.Body.String())

	var st session.Status
	w = h.do(t, http.MethodGet, "/status", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, 2, st.TitleCount)
	assert.Equal(t, "gemini-2.0-flash-exp", st.Model)

	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/closebrowser", "").Code)
	assert.False(t, h.router.Status().BrowserOpen)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	h.do(t, http.MethodGet, "/scrape", "")

	w = h.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "titleforge_operations_total")
	assert.Contains(t, w.Body.String(), `operation="/scrape"`)
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodOptions, "/setcontext", bytes.NewReader(nil))
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)

	assert.Less(t, w.Code, 300)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRun_StopsOnCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := New(session.NewRouter(&stubBrowser{}), Options{Addr: "127.0.0.1:0"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
