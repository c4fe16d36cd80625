package service

import (
	"context"
	"fmt"

	"complaintdraft-backend/llm"
	"complaintdraft-backend/models"
)

// ComposedDraft is the composer's output
type ComposedDraft struct {
	Offense   string
	Title     string
	DraftText string
}

// ComplaintComposer turns collected element states and evidence notes into draft prose
type ComplaintComposer struct {
	generator llm.Generator
	model     string
}

// NewComplaintComposer creates a complaint composer
func NewComplaintComposer(generator llm.Generator, model string) *ComplaintComposer {
	return &ComplaintComposer{generator: generator, model: model}
}

// Compose requests a draft. Failures are returned wrapping ErrCompositionFailed
// and are not retried here.
func (c *ComplaintComposer) Compose(ctx context.Context, offense *models.Offense, collected models.Collected, evidenceNotes []string) (*ComposedDraft, error) {
	if collected == nil {
		collected = models.Collected{}
	}
	if evidenceNotes == nil {
		evidenceNotes = []string{}
	}

	prompt, err := compositionPrompt(offense, collected, evidenceNotes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompositionFailed, err)
	}

	out, err := c.generator.Generate(ctx, llm.Request{
		Model:       c.model,
		System:      NeutralSystem,
		Prompt:      prompt,
		Temperature: llm.Temperature(0.3),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompositionFailed, err)
	}
	if out == "" {
		return nil, fmt.Errorf("%w: %v", ErrCompositionFailed, llm.ErrEmptyResponse)
	}

	return &ComposedDraft{
		Offense:   offense.Offense,
		Title:     offense.Title,
		DraftText: out,
	}, nil
}
