package llm

// ContentType separates reasoning output from the answer itself.
type ContentType string

const (
	// ContentTypeMessage is answer text.
	ContentTypeMessage ContentType = "message"

	// ContentTypeThinking is text found inside <thinking> tags.
	ContentTypeThinking ContentType = "thinking"
)

// StreamChunk is a single piece of a streamed completion.
type StreamChunk struct {
	// Error is set when the stream failed; no further chunks follow.
	Error error

	// Role is set on the first chunk of a response.
	Role string

	// Content is the text delta.
	Content string

	// Type tells thinking content apart from answer content.
	Type ContentType

	// Finished marks the final chunk.
	Finished bool
}

// IsError reports whether the chunk carries a stream error.
func (c *StreamChunk) IsError() bool {
	return c.Error != nil
}

// IsThinking reports whether the chunk is reasoning content.
func (c *StreamChunk) IsThinking() bool {
	return c.Type == ContentTypeThinking
}
