// Package types holds the value types shared between the LLM, synthesis and
// session layers.
package types

// MessageRole identifies the author of a chat message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // RoleSystem carries the instruction template.
	RoleUser      MessageRole = "user"      // RoleUser carries the scraped titles and topic.
	RoleAssistant MessageRole = "assistant" // RoleAssistant carries the model reply.
)

// Message is a single chat message exchanged with an LLM provider.
type Message struct {
	// Role is the author of the message.
	Role MessageRole

	// Content is the plain-text body.
	Content string
}

// NewMessage creates a message with the given role and content.
func NewMessage(role MessageRole, content string) *Message {
	return &Message{
		Role:    role,
		Content: content,
	}
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) *Message {
	return NewMessage(RoleSystem, content)
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// ModelInfo describes the model behind a provider.
type ModelInfo struct {
	// Metadata holds provider-specific details such as a non-default base URL.
	Metadata map[string]interface{}

	// Provider is the provider family, e.g. "openai".
	Provider string

	// Name is the model identifier sent on the wire.
	Name string

	// MaxTokens is the output token ceiling requested per completion.
	MaxTokens int

	// SupportsStreaming reports whether completions are streamed.
	SupportsStreaming bool
}
