// Package openai implements an OpenAI-compatible provider. It serves any
// backend speaking the /chat/completions and /embeddings wire format,
// including Groq and Ollama's OpenAI endpoint.
package openai

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/loaddesk/loaddesk/pkg/llm"
	"github.com/loaddesk/loaddesk/pkg/utils/httpclient"
)

func init() {
	factory := func(config map[string]any) (llm.EmbeddingProvider, llm.ChatProvider, error) {
		p, err := NewProvider(config)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	}

	// 同一实现覆盖所有 OpenAI 兼容后端
	llm.RegisterProvider("openai", factory)
	llm.RegisterProvider("groq", factory)
	llm.RegisterProvider("ollama", factory)
}

// Config holds provider settings. Decoding defaults are pinned for
// reproducible answers: temperature 0, top_p 0.9, max_tokens 1024.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// Provider is an OpenAI-compatible embedding + chat provider.
type Provider struct {
	cfg    Config
	client *httpclient.Client
}

// NewProvider builds a Provider from a generic config map.
func NewProvider(config map[string]any) (*Provider, error) {
	cfg := Config{
		Timeout:     120 * time.Second,
		MaxRetries:  3,
		Temperature: 0,
		TopP:        0.9,
		MaxTokens:   1024,
	}

	if v, ok := config["base_url"].(string); ok {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	if v, ok := config["api_key"].(string); ok {
		cfg.APIKey = v
	}
	if v, ok := config["model"].(string); ok {
		cfg.Model = v
	}
	if v, ok := config["timeout"].(time.Duration); ok && v > 0 {
		cfg.Timeout = v
	}
	if v, ok := config["max_retries"].(int); ok && v > 0 {
		cfg.MaxRetries = v
	}
	if v, ok := config["max_tokens"].(int); ok && v > 0 {
		cfg.MaxTokens = v
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("openai: base_url is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai: model is required")
	}

	return &Provider{
		cfg: cfg,
		client: httpclient.New(
			httpclient.WithTimeout(cfg.Timeout),
			httpclient.WithMaxRetries(cfg.MaxRetries),
		),
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "openai-compatible"
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed 批量向量化文本。
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp embeddingResponse
	err := p.client.DoJSON(ctx, "POST", p.cfg.BaseURL+"/embeddings", p.headers(), &embeddingRequest{
		Model: p.cfg.Model,
		Input: texts,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response size mismatch: got %d, want %d", len(resp.Data), len(texts))
	}

	// 按 index 排序，后端不保证顺序
	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

// EmbedSingle 向量化单条文本。
func (p *Provider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embedding response was empty")
	}
	return vecs[0], nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Chat 以消息序列调用模型。
func (p *Provider) Chat(ctx context.Context, messages []llm.Message) (*llm.GenerateResponse, error) {
	var resp chatResponse
	err := p.client.DoJSON(ctx, "POST", p.cfg.BaseURL+"/chat/completions", p.headers(), &chatRequest{
		Model:       p.cfg.Model,
		Messages:    messages,
		Temperature: p.cfg.Temperature,
		TopP:        p.cfg.TopP,
		MaxTokens:   p.cfg.MaxTokens,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat response contained no choices")
	}

	return &llm.GenerateResponse{
		Content: resp.Choices[0].Message.Content,
		Usage: llm.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// Generate 以单条 prompt 调用模型。
func (p *Provider) Generate(ctx context.Context, prompt string) (*llm.GenerateResponse, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
}

func (p *Provider) headers() map[string]string {
	h := map[string]string{}
	if p.cfg.APIKey != "" {
		h["Authorization"] = "Bearer " + p.cfg.APIKey
	}
	return h
}

var (
	_ llm.EmbeddingProvider = (*Provider)(nil)
	_ llm.ChatProvider      = (*Provider)(nil)
)
