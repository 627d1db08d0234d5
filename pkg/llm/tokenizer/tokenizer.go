// Package tokenizer counts tokens so prompts can be kept inside a model's
// context window.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/entrhq/titleforge/pkg/types"
)

// DefaultEncoding is the BPE encoding used for counting. Gemini does not
// publish its tokenizer; cl100k_base tracks it closely enough for budgeting.
const DefaultEncoding = "cl100k_base"

// perMessageOverhead approximates the role and separator tokens added by
// chat formatting.
const perMessageOverhead = 4

// Tokenizer counts tokens for prompt text.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// New creates a tokenizer using DefaultEncoding.
func New() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(DefaultEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", DefaultEncoding, err)
	}
	return &Tokenizer{enc: enc}, nil
}

// CountTokens returns the token count of text. A nil Tokenizer falls back to
// a four-characters-per-token estimate.
func (t *Tokenizer) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	if t == nil || t.enc == nil {
		return Estimate(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}

// CountMessagesTokens returns the approximate token count of a chat request.
func (t *Tokenizer) CountMessagesTokens(messages []*types.Message) int {
	total := 0
	for _, msg := range messages {
		total += perMessageOverhead + t.CountTokens(string(msg.Role)) + t.CountTokens(msg.Content)
	}
	return total
}

// Estimate is the fallback used when no encoding is available.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}
