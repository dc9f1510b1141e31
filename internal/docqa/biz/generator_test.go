package biz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loaddesk/loaddesk/internal/docqa/store"
	"github.com/loaddesk/loaddesk/pkg/utils/errors"
)

func TestGenerateAnswer(t *testing.T) {
	t.Run("empty context skips the model", func(t *testing.T) {
		chat := &mockChat{content: "should not be used"}
		g := NewGenerator(chat)

		answer, err := g.GenerateAnswer(context.Background(), "what is the rate?", nil)
		require.NoError(t, err)
		assert.Equal(t, NotFoundAnswer, answer)
		assert.Zero(t, chat.calls, "no context must mean no model call")
	})

	t.Run("prompt carries context and question", func(t *testing.T) {
		chat := &mockChat{content: "The total rate is $1,500."}
		g := NewGenerator(chat)

		results := []*store.SearchResult{
			{Chunk: &store.Chunk{DocumentName: "rc.pdf", Section: "Rate Breakdown", Content: "Line haul $1,500"}, Score: 0.9},
			{Chunk: &store.Chunk{DocumentName: "rc.pdf", Section: "Pickup", Content: "Dallas TX"}, Score: 0.7},
		}

		answer, err := g.GenerateAnswer(context.Background(), "what is the rate?", results)
		require.NoError(t, err)
		assert.Equal(t, "The total rate is $1,500.", answer)
		assert.Equal(t, 1, chat.calls)

		assert.Contains(t, chat.lastPrompt, "[1] From rc.pdf - Rate Breakdown:")
		assert.Contains(t, chat.lastPrompt, "Line haul $1,500")
		assert.Contains(t, chat.lastPrompt, "[2] From rc.pdf - Pickup:")
		assert.Contains(t, chat.lastPrompt, "Question: what is the rate?")
		assert.Contains(t, chat.lastPrompt, NotFoundAnswer)
	})

	t.Run("model failure maps to generation error", func(t *testing.T) {
		chat := &mockChat{err: assert.AnError}
		g := NewGenerator(chat)

		results := []*store.SearchResult{
			{Chunk: &store.Chunk{DocumentName: "rc.pdf", Section: "Pickup", Content: "Dallas TX"}, Score: 0.7},
		}

		_, err := g.GenerateAnswer(context.Background(), "q", results)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrGenerationFailure)
	})

	t.Run("cancelled context fails fast", func(t *testing.T) {
		chat := &mockChat{content: "late"}
		g := NewGenerator(chat)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		results := []*store.SearchResult{
			{Chunk: &store.Chunk{DocumentName: "rc.pdf", Section: "Pickup", Content: "Dallas TX"}, Score: 0.7},
		}
		_, err := g.GenerateAnswer(ctx, "q", results)
		require.Error(t, err)
		assert.Zero(t, chat.calls)
	})
}
