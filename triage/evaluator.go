package triage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"complaintdraft-backend/models"
	"complaintdraft-backend/schema"
	"complaintdraft-backend/storage"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

// RulesPath returns the storage path of an offense's rule document
func RulesPath(offense string) string {
	return "triage/" + offense + "_rules.yaml"
}

// Evaluator loads rule documents on first use and evaluates narratives against
// them. Offenses without a rule document never fire.
type Evaluator struct {
	source storage.Storage
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string]*Rules // nil value: no rules configured
	group singleflight.Group
}

// EvaluatorOption is a functional option for Evaluator
type EvaluatorOption func(*Evaluator)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) EvaluatorOption {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// NewEvaluator creates a new evaluator reading rule documents from source
func NewEvaluator(source storage.Storage, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		source: source,
		logger: zap.NewNop(),
		cache:  make(map[string]*Rules),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the compiled rules for offense, or nil when none are configured
func (e *Evaluator) Rules(ctx context.Context, offense string) (*Rules, error) {
	if !schema.ValidKey(offense) {
		return nil, fmt.Errorf("%w: %q", schema.ErrInvalidKey, offense)
	}

	e.mu.RLock()
	rules, ok := e.cache[offense]
	e.mu.RUnlock()
	if ok {
		return rules, nil
	}

	v, err, _ := e.group.Do(offense, func() (interface{}, error) {
		e.mu.RLock()
		cached, ok := e.cache[offense]
		e.mu.RUnlock()
		if ok {
			return cached, nil
		}

		compiled, err := e.load(ctx, offense)
		if err != nil {
			return nil, err
		}

		e.mu.Lock()
		e.cache[offense] = compiled
		e.mu.Unlock()
		return compiled, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Rules), nil
}

// Preload compiles the rules of every key, stopping at the first error.
// Offenses without rules are not an error.
func (e *Evaluator) Preload(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := e.Rules(ctx, key); err != nil {
			return fmt.Errorf("failed to load triage rules for %s: %w", key, err)
		}
	}
	return nil
}

// Evaluate scores text against the offense's rules. It returns nil when no
// rules are configured or the rules do not fire.
func (e *Evaluator) Evaluate(ctx context.Context, offense, text string) (*models.TriageDecision, error) {
	rules, err := e.Rules(ctx, offense)
	if err != nil {
		return nil, err
	}
	if rules == nil {
		return nil, nil
	}

	decision := rules.Evaluate(text)
	if decision != nil {
		scores := rules.Score(text)
		e.logger.Info("triage fired",
			zap.String("offense", offense),
			zap.String("reason", decision.Reason),
			zap.Int("strong", scores.Strong),
			zap.Int("weak", scores.Weak),
			zap.Int("negate", scores.Negate))
	}
	return decision, nil
}

func (e *Evaluator) load(ctx context.Context, offense string) (*Rules, error) {
	data, err := storage.ReadAll(ctx, e.source, RulesPath(offense))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			e.logger.Info("no triage rules configured", zap.String("offense", offense))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read triage rules for %s: %w", offense, err)
	}

	var doc models.TriageRules
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRules, offense, err)
	}
	return Compile(offense, doc)
}
