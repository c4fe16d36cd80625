// Package llm is the boundary to the external text-generation service.
package llm

import (
	"context"
	"errors"
)

var (
	ErrEmptyResponse = errors.New("text generation returned no content")
	ErrBlocked       = errors.New("text generation blocked the prompt")
)

// Request is one text-generation call
type Request struct {
	Model  string
	System string
	Prompt string

	// JSON asks the service for a JSON response body
	JSON bool

	// Temperature is left to the service default when nil
	Temperature *float32
}

// Generator produces text for a prompt
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Temperature returns a pointer for Request.Temperature
func Temperature(t float32) *float32 {
	return &t
}
