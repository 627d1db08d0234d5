// Package parser separates reasoning output from answer text in LLM streams.
package parser

import (
	"strings"

	"github.com/entrhq/titleforge/pkg/llm"
)

const (
	openTag  = "<thinking>"
	closeTag = "</thinking>"
)

// ThinkingParser splits streamed content into thinking and message parts.
//
// Some models wrap their reasoning in <thinking> tags ahead of the JSON
// answer. The parser only watches for the tag that would change its current
// mode, so stray '<' or '>' characters inside either part pass through
// untouched. A tag split across chunks is held back until it can be decided.
type ThinkingParser struct {
	pending    string
	inThinking bool
}

// NewThinkingParser creates a new thinking parser.
func NewThinkingParser() *ThinkingParser {
	return &ThinkingParser{}
}

// Parse consumes one content delta.
//
// Either returned chunk may be nil. Text that could be the start of a tag is
// retained and reconsidered on the next call or on Flush.
func (p *ThinkingParser) Parse(content string) (thinkingChunk, messageChunk *llm.StreamChunk) {
	if content == "" {
		return nil, nil
	}

	var thinking, message strings.Builder
	text := p.pending + content
	p.pending = ""

	for text != "" {
		tag := openTag
		if p.inThinking {
			tag = closeTag
		}

		if i := strings.Index(text, tag); i >= 0 {
			p.write(&thinking, &message, text[:i])
			text = text[i+len(tag):]
			p.inThinking = !p.inThinking
			continue
		}

		keep := partialTagSuffix(text, tag)
		p.write(&thinking, &message, text[:len(text)-keep])
		p.pending = text[len(text)-keep:]
		break
	}

	return newChunk(thinking.String(), llm.ContentTypeThinking), newChunk(message.String(), llm.ContentTypeMessage)
}

// Flush releases any held-back text. Call it once the stream has ended.
func (p *ThinkingParser) Flush() (thinkingChunk, messageChunk *llm.StreamChunk) {
	rest := p.pending
	p.pending = ""
	if rest == "" {
		return nil, nil
	}
	if p.inThinking {
		return newChunk(rest, llm.ContentTypeThinking), nil
	}
	return nil, newChunk(rest, llm.ContentTypeMessage)
}

// IsInThinking reports whether the parser is inside a <thinking> block.
func (p *ThinkingParser) IsInThinking() bool {
	return p.inThinking
}

// Reset clears all state so the parser can be reused for a new stream.
func (p *ThinkingParser) Reset() {
	p.pending = ""
	p.inThinking = false
}

// StripThinking removes every <thinking> block from a complete response.
func StripThinking(text string) string {
	p := NewThinkingParser()
	var out strings.Builder
	_, message := p.Parse(text)
	if message != nil {
		out.WriteString(message.Content)
	}
	if _, message = p.Flush(); message != nil {
		out.WriteString(message.Content)
	}
	return out.String()
}

func (p *ThinkingParser) write(thinking, message *strings.Builder, s string) {
	if p.inThinking {
		thinking.WriteString(s)
		return
	}
	message.WriteString(s)
}

// partialTagSuffix returns the length of the longest suffix of text that is a
// proper prefix of tag.
func partialTagSuffix(text, tag string) int {
	limit := min(len(tag)-1, len(text))
	for n := limit; n > 0; n-- {
		if strings.HasSuffix(text, tag[:n]) {
			return n
		}
	}
	return 0
}

func newChunk(content string, kind llm.ContentType) *llm.StreamChunk {
	if content == "" {
		return nil
	}
	return &llm.StreamChunk{Content: content, Type: kind}
}
