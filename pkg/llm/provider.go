// Package llm defines the provider abstractions for embedding and chat models
// plus a factory registry so backends stay swappable and mockable.
package llm

import (
	"context"
	"fmt"
	"sync"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TokenUsage reports token accounting from a chat call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GenerateResponse is the result of a generation call.
type GenerateResponse struct {
	Content string
	Usage   TokenUsage
}

// EmbeddingProvider 向量化供应商接口。
type EmbeddingProvider interface {
	// Embed 批量向量化文本。
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle 向量化单条文本。
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Name 返回供应商名称。
	Name() string
}

// ChatProvider 对话生成供应商接口。
type ChatProvider interface {
	// Chat 以消息序列调用模型。
	Chat(ctx context.Context, messages []Message) (*GenerateResponse, error)

	// Generate 以单条 prompt 调用模型。
	Generate(ctx context.Context, prompt string) (*GenerateResponse, error)

	// Name 返回供应商名称。
	Name() string
}

// Factory builds both provider kinds from a generic config map.
type Factory func(config map[string]any) (EmbeddingProvider, ChatProvider, error)

var (
	providersMu sync.RWMutex
	providers   = make(map[string]Factory)
)

// RegisterProvider registers a provider factory under a name.
// Duplicate registration panics: it means two backends claim the same name.
func RegisterProvider(name string, factory Factory) {
	providersMu.Lock()
	defer providersMu.Unlock()

	if _, ok := providers[name]; ok {
		panic(fmt.Sprintf("llm: provider %q already registered", name))
	}
	providers[name] = factory
}

func factoryFor(name string) (Factory, error) {
	providersMu.RLock()
	defer providersMu.RUnlock()

	factory, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("llm: unknown provider %q", name)
	}
	return factory, nil
}

// NewEmbeddingProvider builds an embedding provider by name.
func NewEmbeddingProvider(name string, config map[string]any) (EmbeddingProvider, error) {
	factory, err := factoryFor(name)
	if err != nil {
		return nil, err
	}
	embed, _, err := factory(config)
	if err != nil {
		return nil, err
	}
	if embed == nil {
		return nil, fmt.Errorf("llm: provider %q does not support embeddings", name)
	}
	return embed, nil
}

// NewChatProvider builds a chat provider by name.
func NewChatProvider(name string, config map[string]any) (ChatProvider, error) {
	factory, err := factoryFor(name)
	if err != nil {
		return nil, err
	}
	_, chat, err := factory(config)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, fmt.Errorf("llm: provider %q does not support chat", name)
	}
	return chat, nil
}
