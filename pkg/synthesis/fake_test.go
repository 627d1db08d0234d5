package synthesis

import (
	"context"
	"sync"

	"github.com/entrhq/titleforge/pkg/llm"
	"github.com/entrhq/titleforge/pkg/types"
)

// fakeProvider returns a canned reply and records the messages it saw.
type fakeProvider struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	messages []*types.Message
}

func (f *fakeProvider) StreamCompletion(ctx context.Context, messages []*types.Message) (<-chan *llm.StreamChunk, error) {
	msg, err := f.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}
	ch := make(chan *llm.StreamChunk, 2)
	ch <- &llm.StreamChunk{Content: msg.Content, Type: llm.ContentTypeMessage}
	ch <- &llm.StreamChunk{Finished: true}
	close(ch)
	return ch, nil
}

func (f *fakeProvider) Complete(_ context.Context, messages []*types.Message) (*types.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.messages = messages
	if f.err != nil {
		return nil, f.err
	}
	return &types.Message{Role: types.RoleAssistant, Content: f.reply}, nil
}

func (f *fakeProvider) GetModelInfo() *types.ModelInfo {
	return &types.ModelInfo{Provider: "fake", Name: "fake-model"}
}

func (f *fakeProvider) GetModel() string {
	return "fake-model"
}

func factoryFor(p llm.Provider) ProviderFactory {
	return func(Config) (llm.Provider, error) {
		return p, nil
	}
}

func testConfig() Config {
	return Config{
		APIKey:  "test-key",
		Variant: Variant{Key: "flash", Model: "gemini-1.5-flash"},
	}
}
