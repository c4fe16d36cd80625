package llm

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestResponseText(t *testing.T) {
	g := NewGeminiGenerator(nil)

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				FinishReason: genai.FinishReasonStop,
				Content:      &genai.Content{Parts: []genai.Part{genai.Text(`{"a":`), genai.Text(`"satisfied"}`)}},
			},
		},
	}
	out, err := g.responseText(resp)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"satisfied"}`, out)
}

func TestResponseText_Blocked(t *testing.T) {
	g := NewGeminiGenerator(nil)

	resp := &genai.GenerateContentResponse{
		PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonSafety},
	}
	_, err := g.responseText(resp)
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestResponseText_Empty(t *testing.T) {
	g := NewGeminiGenerator(nil)

	_, err := g.responseText(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = g.responseText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Text("  \n")}}}},
	})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestResponseText_LogsEarlyFinish(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	g := NewGeminiGenerator(nil, GeminiWithLogger(zap.New(core)))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				FinishReason: genai.FinishReasonMaxTokens,
				Content:      &genai.Content{Parts: []genai.Part{genai.Text("truncated")}},
			},
		},
	}
	out, err := g.responseText(resp)
	require.NoError(t, err)
	assert.Equal(t, "truncated", out)
	assert.Equal(t, 1, logs.Len())
}

func TestGeminiOptions(t *testing.T) {
	g := NewGeminiGenerator(nil, GeminiWithMaxAttempts(3), GeminiWithMaxAttempts(0))
	assert.Equal(t, 3, g.maxAttempts)

	_, err := g.Generate(context.Background(), Request{Prompt: "hi"})
	assert.Error(t, err)
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), "")
	assert.Error(t, err)
}
