package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"complaintdraft-backend/llm"
	"complaintdraft-backend/models"

	"go.uber.org/zap"
)

// ElementExtractor asks the text-generation service which elements a narrative evidences
type ElementExtractor struct {
	generator  llm.Generator
	model      string
	strategies []llm.Strategy
	logger     *zap.Logger
}

// NewElementExtractor creates an extractor. A nil logger discards output.
func NewElementExtractor(generator llm.Generator, model string, logger *zap.Logger) *ElementExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ElementExtractor{
		generator:  generator,
		model:      model,
		strategies: llm.DefaultStrategies,
		logger:     logger,
	}
}

// Extract returns a state for every element of offense. Any generation or
// parse failure yields the all-unclear default so the conversation continues.
func (e *ElementExtractor) Extract(ctx context.Context, text string, offense *models.Offense) models.Collected {
	out, err := e.generator.Generate(ctx, llm.Request{
		Model:       e.model,
		System:      NeutralSystem,
		Prompt:      extractionPrompt(text, offense),
		JSON:        true,
		Temperature: llm.Temperature(0),
	})
	if err != nil {
		e.logger.Warn("element extraction failed, defaulting to unclear",
			zap.String("offense", offense.Offense), zap.Error(err))
		return DefaultCollected(offense)
	}

	collected, err := ParseExtraction(out, offense, e.strategies...)
	if err != nil {
		e.logger.Warn("element extraction output unusable, defaulting to unclear",
			zap.String("offense", offense.Offense), zap.Error(err))
		return DefaultCollected(offense)
	}
	return collected
}

// DefaultCollected marks every element of offense unclear
func DefaultCollected(offense *models.Offense) models.Collected {
	out := make(models.Collected, len(offense.Elements))
	for _, el := range offense.Elements {
		out[el.ID] = models.ElementState{Status: models.StatusUnclear}
	}
	return out
}

// ParseExtraction validates generated output against the offense's elements.
// Unknown element ids are dropped, absent ones default to unclear, and an
// unrecognized status is treated as unclear. Output wrapped as
// {"elements": {...}} is accepted as well as a bare element map.
func ParseExtraction(output string, offense *models.Offense, strategies ...llm.Strategy) (models.Collected, error) {
	obj, _, err := llm.ExtractJSON(output, strategies...)
	if err != nil {
		return nil, err
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(obj, &top); err != nil {
		return nil, fmt.Errorf("failed to decode extraction output: %w", err)
	}
	if inner, ok := top["elements"]; ok {
		if _, isElement := offense.Element("elements"); !isElement {
			var wrapped map[string]json.RawMessage
			if err := json.Unmarshal(inner, &wrapped); err == nil {
				top = wrapped
			}
		}
	}

	collected := make(models.Collected, len(offense.Elements))
	for _, el := range offense.Elements {
		raw, ok := top[el.ID]
		if !ok {
			collected[el.ID] = models.ElementState{Status: models.StatusUnclear}
			continue
		}
		collected[el.ID] = decodeElementState(raw)
	}
	return collected, nil
}

func decodeElementState(raw json.RawMessage) models.ElementState {
	var state struct {
		Status  string `json:"status"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		// a bare status string
		var status string
		if err := json.Unmarshal(raw, &status); err != nil {
			return models.ElementState{Status: models.StatusUnclear}
		}
		state.Status = status
	}

	status := models.ElementStatus(strings.ToLower(strings.TrimSpace(state.Status)))
	if !status.Valid() {
		status = models.StatusUnclear
	}
	return models.ElementState{Status: status, Summary: strings.TrimSpace(state.Summary)}
}
