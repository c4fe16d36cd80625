package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const initialBackoff = time.Second

// NewGeminiClient creates a Gemini API client
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// GeminiGenerator implements Generator on the Gemini API
type GeminiGenerator struct {
	client      *genai.Client
	maxAttempts int
	timeout     time.Duration
	logger      *zap.Logger
}

// GeminiOption is a functional option for GeminiGenerator
type GeminiOption func(*GeminiGenerator)

// GeminiWithMaxAttempts sets how many times a failed call is attempted
func GeminiWithMaxAttempts(n int) GeminiOption {
	return func(g *GeminiGenerator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// GeminiWithTimeout bounds each attempt
func GeminiWithTimeout(d time.Duration) GeminiOption {
	return func(g *GeminiGenerator) {
		g.timeout = d
	}
}

// GeminiWithLogger sets the logger
func GeminiWithLogger(logger *zap.Logger) GeminiOption {
	return func(g *GeminiGenerator) {
		g.logger = logger
	}
}

// NewGeminiGenerator creates a generator backed by client
func NewGeminiGenerator(client *genai.Client, opts ...GeminiOption) *GeminiGenerator {
	g := &GeminiGenerator{
		client:      client,
		maxAttempts: 1,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate runs one generation request, retrying with exponential backoff up
// to the configured number of attempts.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if g.client == nil {
		return "", errors.New("gemini client not set")
	}

	model := g.client.GenerativeModel(req.Model)
	if req.System != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(req.System))
	}
	if req.JSON {
		model.ResponseMIMEType = "application/json"
	}
	if req.Temperature != nil {
		model.SetTemperature(*req.Temperature)
	}

	var lastErr error
	backoff := initialBackoff
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		text, err := g.generateOnce(ctx, model, req.Prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if errors.Is(err, ErrBlocked) || ctx.Err() != nil {
			break
		}
		g.logger.Warn("generation attempt failed",
			zap.String("model", req.Model),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}

	return "", lastErr
}

func (g *GeminiGenerator) generateOnce(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return g.responseText(resp)
}

// responseText concatenates the text parts of every candidate
func (g *GeminiGenerator) responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", fmt.Errorf("%w: %s", ErrBlocked, resp.PromptFeedback.BlockReason)
	}

	var b strings.Builder
	for i, candidate := range resp.Candidates {
		if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
			g.logger.Warn("candidate finished early",
				zap.Int("candidate", i),
				zap.String("finish_reason", candidate.FinishReason.String()))
		}
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
