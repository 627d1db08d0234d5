// Package openai provides a provider for OpenAI-compatible chat completion
// APIs. The default endpoint is Gemini's OpenAI compatibility layer, so the
// same wire code talks to Gemini, OpenAI or a local server.
//
// Example usage:
//
//	provider, err := openai.NewProvider(
//	    apiKey,
//	    openai.WithModel("gemini-1.5-flash"),
//	    openai.WithTemperature(1.0),
//	)
//	if err != nil {
//	    return err
//	}
//
//	reply, err := provider.Complete(ctx, messages)
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/openai/openai-go"

	"github.com/entrhq/titleforge/pkg/llm"
	"github.com/entrhq/titleforge/pkg/llm/parser"
	"github.com/entrhq/titleforge/pkg/types"
)

const (
	// GeminiBaseURL is Gemini's OpenAI-compatible endpoint.
	GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

	// OpenAIBaseURL is the public OpenAI endpoint.
	OpenAIBaseURL = "https://api.openai.com/v1"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.0-flash-exp"

	defaultMaxTokens = 8192
)

// ErrMissingAPIKey is returned by NewProvider when no key is given.
var ErrMissingAPIKey = errors.New("api key is required")

// Provider implements llm.Provider over raw HTTP server-sent events.
type Provider struct {
	httpClient  *http.Client
	temperature *float64
	topP        *float64
	modelInfo   *types.ModelInfo
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithModel sets the model identifier sent on the wire.
func WithModel(model string) ProviderOption {
	return func(p *Provider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithBaseURL points the provider at another OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		if baseURL != "" {
			p.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) ProviderOption {
	return func(p *Provider) {
		p.temperature = &t
	}
}

// WithTopP sets nucleus sampling.
func WithTopP(v float64) ProviderOption {
	return func(p *Provider) {
		p.topP = &v
	}
}

// WithMaxTokens caps the output length. Zero keeps the default.
func WithMaxTokens(n int) ProviderOption {
	return func(p *Provider) {
		if n > 0 {
			p.maxTokens = n
		}
	}
}

// WithHTTPClient replaces the HTTP client, mostly for tests.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *Provider) {
		if c != nil {
			p.httpClient = c
		}
	}
}

// NewProvider creates a provider authenticated with apiKey.
func NewProvider(apiKey string, opts ...ProviderOption) (*Provider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	p := &Provider{
		httpClient: &http.Client{},
		apiKey:     apiKey,
		baseURL:    GeminiBaseURL,
		model:      DefaultModel,
		maxTokens:  defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.modelInfo = &types.ModelInfo{
		Metadata:          map[string]interface{}{},
		Provider:          "openai",
		Name:              p.model,
		MaxTokens:         p.maxTokens,
		SupportsStreaming: true,
	}
	if p.baseURL != GeminiBaseURL {
		p.modelInfo.Metadata["base_url"] = p.baseURL
	}

	return p, nil
}

// StreamCompletion sends messages and streams back response chunks.
//
// Server-sent events are read line by line rather than through the SDK
// stream decoder because compatible servers interleave SSE comments and
// keep-alives that the decoder rejects.
func (p *Provider) StreamCompletion(ctx context.Context, messages []*types.Message) (<-chan *llm.StreamChunk, error) {
	resp, err := p.sendStreamRequest(ctx, messages)
	if err != nil {
		return nil, err
	}

	chunks := make(chan *llm.StreamChunk, 10)
	go p.readStream(ctx, resp, chunks)
	return chunks, nil
}

// requestBody builds the chat completion payload.
func (p *Provider) requestBody(messages []*types.Message) map[string]interface{} {
	body := map[string]interface{}{
		"model":      p.model,
		"messages":   convertToOpenAIMessages(messages),
		"stream":     true,
		"max_tokens": p.maxTokens,
	}
	if p.temperature != nil {
		body["temperature"] = *p.temperature
	}
	if p.topP != nil {
		body["top_p"] = *p.topP
	}
	return body
}

func (p *Provider) sendStreamRequest(ctx context.Context, messages []*types.Message) (*http.Response, error) {
	bodyBytes, err := json.Marshal(p.requestBody(messages))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if readErr != nil {
			return nil, fmt.Errorf("API request failed with status %d (failed to read error body: %w)", resp.StatusCode, readErr)
		}
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return resp, nil
}

// sseDelta is the subset of a streamed chat completion chunk we read.
type sseDelta struct {
	Choices []struct {
		Delta struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

func (p *Provider) readStream(ctx context.Context, resp *http.Response, chunks chan<- *llm.StreamChunk) {
	defer close(chunks)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	thinking := parser.NewThinkingParser()
	role := ""

	emit := func(c *llm.StreamChunk) bool {
		if c == nil {
			return true
		}
		if c.Role == "" {
			c.Role = role
		}
		select {
		case chunks <- c:
			return true
		case <-ctx.Done():
			select {
			case chunks <- &llm.StreamChunk{Error: ctx.Err()}:
			default:
			}
			return false
		}
	}
	flush := func() bool {
		th, msg := thinking.Flush()
		return emit(th) && emit(msg)
	}

	for scanner.Scan() {
		data, ok := sseData(scanner.Text())
		if !ok {
			continue
		}
		if data == "[DONE]" {
			if flush() {
				emit(&llm.StreamChunk{Finished: true})
			}
			return
		}

		var delta sseDelta
		if err := json.Unmarshal([]byte(data), &delta); err != nil || len(delta.Choices) == 0 {
			continue
		}
		choice := delta.Choices[0]
		if role == "" && choice.Delta.Role != "" {
			role = choice.Delta.Role
		}
		if choice.Delta.Content != "" {
			th, msg := thinking.Parse(choice.Delta.Content)
			if !emit(th) || !emit(msg) {
				return
			}
		}
		if choice.FinishReason != nil && *choice.FinishReason == "stop" {
			if flush() {
				emit(&llm.StreamChunk{Finished: true})
			}
			return
		}
	}

	if !flush() {
		return
	}
	if err := scanner.Err(); err != nil {
		emit(&llm.StreamChunk{Error: fmt.Errorf("stream read error: %w", err)})
	}
}

// sseData extracts the payload of an SSE data line.
func sseData(line string) (string, bool) {
	if line == "" || strings.HasPrefix(line, ":") {
		return "", false
	}
	data, ok := strings.CutPrefix(line, "data:")
	if !ok {
		return "", false
	}
	return strings.TrimSpace(data), true
}

// Complete accumulates a streamed completion into a single message.
// Thinking content is dropped.
func (p *Provider) Complete(ctx context.Context, messages []*types.Message) (*types.Message, error) {
	stream, err := p.StreamCompletion(ctx, messages)
	if err != nil {
		return nil, err
	}

	var content strings.Builder
	role := ""
	for chunk := range stream {
		if chunk.IsError() {
			return nil, chunk.Error
		}
		if chunk.Role != "" {
			role = chunk.Role
		}
		if chunk.IsThinking() {
			continue
		}
		content.WriteString(chunk.Content)
	}

	if role == "" {
		role = string(types.RoleAssistant)
	}
	return types.NewMessage(types.MessageRole(role), content.String()), nil
}

// GetModelInfo returns information about the model being used.
func (p *Provider) GetModelInfo() *types.ModelInfo {
	return p.modelInfo
}

// GetModel returns the model name being used.
func (p *Provider) GetModel() string {
	return p.model
}

// GetBaseURL returns the endpoint being used.
func (p *Provider) GetBaseURL() string {
	return p.baseURL
}

func convertToOpenAIMessages(messages []*types.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case types.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case types.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
