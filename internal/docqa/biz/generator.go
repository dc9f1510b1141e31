package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/kart-io/logger"

	"github.com/loaddesk/loaddesk/internal/docqa/metrics"
	"github.com/loaddesk/loaddesk/internal/docqa/store"
	"github.com/loaddesk/loaddesk/pkg/llm"
	"github.com/loaddesk/loaddesk/pkg/utils/errors"
)

// answerPromptTemplate 约束模型只依据上下文作答。
const answerPromptTemplate = `You are an assistant answering questions about logistics documents (rate confirmations, bills of lading, load tenders).

STRICT RULES:
1. Answer ONLY from the context below. Never use outside knowledge.
2. If the context does not contain the answer, reply exactly: "` + NotFoundAnswer + `"
3. Quote concrete values (rates, dates, names, reference numbers) from the context.
4. Be concise.

Context:
{{context}}

Question: {{question}}

Answer:`

// Generator 构造接地 prompt 并调用模型生成应答。
type Generator struct {
	chat llm.ChatProvider
}

// NewGenerator 创建生成器。
func NewGenerator(chat llm.ChatProvider) *Generator {
	return &Generator{chat: chat}
}

// GenerateAnswer 根据检索结果生成应答。
// 没有任何可用上下文时直接返回固定拒答，不调用模型。
func (g *Generator) GenerateAnswer(ctx context.Context, question string, results []*store.SearchResult) (string, error) {
	if len(results) == 0 {
		return NotFoundAnswer, nil
	}
	if err := ctx.Err(); err != nil {
		return "", errors.ErrGenerationFailure.WithCause(err)
	}

	prompt := buildPrompt(question, results)

	resp, err := g.chat.Generate(ctx, prompt)
	if err != nil {
		metrics.Get().RecordLLMCall(0, err)
		return "", errors.ErrGenerationFailure.WithCause(err)
	}
	metrics.Get().RecordLLMCall(resp.Usage.TotalTokens, nil)

	logger.Infow("generated answer",
		"question_len", len(question),
		"context_chunks", len(results),
		"total_tokens", resp.Usage.TotalTokens,
	)

	return strings.TrimSpace(resp.Content), nil
}

func buildPrompt(question string, results []*store.SearchResult) string {
	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "[%d] From %s - %s:\n%s\n\n", i+1, r.Chunk.DocumentName, r.Chunk.Section, r.Chunk.Content)
	}

	prompt := strings.Replace(answerPromptTemplate, "{{context}}", strings.TrimSpace(sb.String()), 1)
	return strings.Replace(prompt, "{{question}}", question, 1)
}
