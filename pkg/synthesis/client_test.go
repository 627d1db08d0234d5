package synthesis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/titleforge/pkg/llm"
	"github.com/entrhq/titleforge/pkg/types"
)

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{Variant: Variant{Model: "m"}})
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = NewClient(Config{APIKey: "   ", Variant: Variant{Model: "m"}})
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = NewClient(Config{APIKey: "k", Variant: Variant{Key: "nope"}})
	assert.ErrorIs(t, err, ErrUnknownVariant)
}

func TestNewClient_FactoryError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewClient(testConfig(), WithProviderFactory(func(Config) (llm.Provider, error) {
		return nil, boom
	}))
	assert.ErrorIs(t, err, boom)
}

func TestNewClient_Defaults(t *testing.T) {
	var seen Config
	c, err := NewClient(testConfig(), WithProviderFactory(func(cfg Config) (llm.Provider, error) {
		seen = cfg
		return &fakeProvider{}, nil
	}))
	require.NoError(t, err)

	assert.Equal(t, DefaultCandidates, seen.Candidates)
	assert.InDelta(t, DefaultTemperature, seen.Temperature, 1e-9)
	assert.InDelta(t, DefaultTopP, seen.TopP, 1e-9)
	assert.Equal(t, DefaultMaxOutputTokens, seen.MaxOutputTokens)
	assert.NotEmpty(t, seen.BaseURL)
	assert.Equal(t, "gemini-1.5-flash", c.Model())
	assert.Equal(t, seen, c.Config())
}

func TestNewClient_DefaultFactoryBuildsProvider(t *testing.T) {
	c, err := NewClient(testConfig())
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-flash", c.provider.GetModel())
}

func TestGenerate_PromptShape(t *testing.T) {
	fake := &fakeProvider{reply: `{"rationale":"A","title":"B"}`}
	c, err := NewClient(testConfig(), WithProviderFactory(factoryFor(fake)))
	require.NoError(t, err)

	res, err := c.Generate(context.Background(), []string{"Title One", `Say "hi"`}, "visual novels")
	require.NoError(t, err)

	require.Len(t, fake.messages, 2)
	assert.Equal(t, types.RoleSystem, fake.messages[0].Role)
	assert.Contains(t, fake.messages[0].Content, "generate 5 different titles")
	assert.Equal(t, types.RoleUser, fake.messages[1].Role)
	assert.Equal(t, `pastData:["Title One","Say \"hi\""], topic:"visual novels"`, fake.messages[1].Content)

	assert.Equal(t, []types.TitleCandidate{{Rationale: "A", Title: "B"}}, res.Candidates)
	assert.Equal(t, ShapeObject, res.Shape)
	assert.Equal(t, "gemini-1.5-flash", res.Model)
	assert.Equal(t, 2, res.TitlesUsed)
	assert.False(t, res.GeneratedAt.IsZero())
}

func TestGenerate_CapsAtCandidates(t *testing.T) {
	var lines []string
	for i := 0; i < 8; i++ {
		lines = append(lines, fmt.Sprintf(`{"rationale":"r%d","title":"t%d"}`, i, i))
	}
	fake := &fakeProvider{reply: strings.Join(lines, "\n")}

	cfg := testConfig()
	cfg.Candidates = 3
	c, err := NewClient(cfg, WithProviderFactory(factoryFor(fake)))
	require.NoError(t, err)

	res, err := c.Generate(context.Background(), []string{"x"}, "y")
	require.NoError(t, err)
	require.Len(t, res.Candidates, 3)
	assert.Equal(t, "t0", res.Candidates[0].Title)
	assert.Equal(t, "t2", res.Candidates[2].Title)
	assert.Contains(t, fake.messages[0].Content, "generate 3 different titles")
}

func TestGenerate_RemoteFailure(t *testing.T) {
	fake := &fakeProvider{err: errors.New("connection refused")}
	c, err := NewClient(testConfig(), WithProviderFactory(factoryFor(fake)))
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), []string{"x"}, "y")
	assert.ErrorIs(t, err, ErrRemoteCall)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSynthesize_FailureYieldsEmptySlice(t *testing.T) {
	fake := &fakeProvider{err: errors.New("503")}
	c, err := NewClient(testConfig(), WithProviderFactory(factoryFor(fake)))
	require.NoError(t, err)

	got := c.Synthesize(context.Background(), []string{"x"}, "y")
	require.NotNil(t, got)
	assert.Empty(t, got)

	fake.err = nil
	fake.reply = "no json here"
	got = c.Synthesize(context.Background(), []string{"x"}, "y")
	require.NotNil(t, got)
	assert.Empty(t, got)
}

// charCounter counts one token per character.
type charCounter struct{}

func (charCounter) CountTokens(s string) int { return len(s) }

func TestGenerate_TrimsTitlesToBudget(t *testing.T) {
	fake := &fakeProvider{reply: `{"rationale":"A","title":"B"}`}
	cfg := testConfig()
	titles := []string{"aaaa", "bbbb", "cccc"}
	cfg.MaxPromptTokens = len(userMessage(titles[:2], "t"))

	c, err := NewClient(cfg, WithProviderFactory(factoryFor(fake)), WithCounter(charCounter{}))
	require.NoError(t, err)

	res, err := c.Generate(context.Background(), titles, "t")
	require.NoError(t, err)
	assert.Equal(t, 2, res.TitlesUsed)
	assert.Equal(t, `pastData:["aaaa","bbbb"], topic:"t"`, fake.messages[1].Content)
}

func TestUserMessage_NilTitles(t *testing.T) {
	assert.Equal(t, `pastData:[], topic:""`, userMessage(nil, ""))
}
