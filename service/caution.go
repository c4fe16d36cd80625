package service

import (
	"context"
	"strings"

	"complaintdraft-backend/llm"
)

// CautionClassifier flags narratives that call for professional counsel
type CautionClassifier struct {
	generator llm.Generator
	model     string
}

// NewCautionClassifier creates a caution classifier
func NewCautionClassifier(generator llm.Generator, model string) *CautionClassifier {
	return &CautionClassifier{generator: generator, model: model}
}

// Classify returns CautionAdvisory when the narrative is high-risk and "" otherwise
func (c *CautionClassifier) Classify(ctx context.Context, text string) (string, error) {
	out, err := c.generator.Generate(ctx, llm.Request{
		Model:       c.model,
		System:      NeutralSystem,
		Prompt:      cautionPrompt(text),
		Temperature: llm.Temperature(0),
	})
	if err != nil {
		return "", err
	}

	verdict := strings.ToUpper(strings.Trim(strings.TrimSpace(out), ".\"'`"))
	if verdict == "NONE" || verdict == "" {
		return "", nil
	}
	return CautionAdvisory, nil
}
