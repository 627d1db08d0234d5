// Package llm provides abstractions for LLM provider integration.
//
// Example usage:
//
//	provider, err := openai.NewProvider(
//	    os.Getenv("GEMINI_API_KEY"),
//	    openai.WithBaseURL(openai.GeminiBaseURL),
//	    openai.WithModel("gemini-2.0-flash-exp"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	reply, err := provider.Complete(ctx, []*types.Message{
//	    types.NewSystemMessage("Answer in one word."),
//	    types.NewUserMessage("Hello!"),
//	})
package llm

import (
	"context"

	"github.com/entrhq/titleforge/pkg/types"
)

// Provider defines the interface for LLM integrations.
//
// Providers handle API communication and return plain StreamChunk values.
// They know nothing about scraped titles or candidates; the synthesis layer
// builds the messages and parses the reply.
type Provider interface {
	// StreamCompletion sends messages to the LLM and streams back response chunks.
	//
	// The returned channel emits StreamChunk instances:
	// - First chunk typically has Role set (e.g., "assistant")
	// - Subsequent chunks contain Content deltas
	// - Final chunk has Finished=true
	// - Error chunks have Error set
	//
	// The channel is closed when streaming completes or an error occurs.
	// Returns an error only if streaming cannot be initiated.
	StreamCompletion(ctx context.Context, messages []*types.Message) (<-chan *StreamChunk, error)

	// Complete sends messages to the LLM and returns the full answer with any
	// reasoning content removed.
	Complete(ctx context.Context, messages []*types.Message) (*types.Message, error)

	// GetModelInfo returns information about the LLM model being used.
	GetModelInfo() *types.ModelInfo

	// GetModel returns the model name being used.
	GetModel() string
}
