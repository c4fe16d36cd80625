// Package schema loads offense schemas, merges their mixin question sets and
// validates slot coverage. Merged schemas are cached for the process lifetime.
package schema

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"complaintdraft-backend/models"
	"complaintdraft-backend/storage"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

// OffensePath returns the storage path of an offense document
func OffensePath(key string) string {
	return "offenses/" + key + ".yaml"
}

// MixinPath returns the storage path of a mixin document
func MixinPath(name string) string {
	return "mixins/" + name + ".yaml"
}

// Loader reads offense and mixin documents from a storage backend and caches
// the merged result per offense key. Concurrent first loads of the same key
// share one read; failed loads are not cached.
type Loader struct {
	source storage.Storage
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string]*models.Offense
	group singleflight.Group
}

// LoaderOption is a functional option for Loader
type LoaderOption func(*Loader)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a new schema loader reading from source
func NewLoader(source storage.Storage, opts ...LoaderOption) *Loader {
	l := &Loader{
		source: source,
		logger: zap.NewNop(),
		cache:  make(map[string]*models.Offense),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the merged offense schema for key. The returned value is shared
// and must not be modified.
func (l *Loader) Load(ctx context.Context, key string) (*models.Offense, error) {
	if !ValidKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	l.mu.RLock()
	offense, ok := l.cache[key]
	l.mu.RUnlock()
	if ok {
		return offense, nil
	}

	v, err, _ := l.group.Do(key, func() (interface{}, error) {
		// Another caller may have finished between the cache miss and Do.
		l.mu.RLock()
		cached, ok := l.cache[key]
		l.mu.RUnlock()
		if ok {
			return cached, nil
		}

		merged, err := l.build(ctx, key)
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		l.cache[key] = merged
		l.mu.Unlock()

		l.logger.Info("offense schema loaded",
			zap.String("offense", key),
			zap.Int("elements", len(merged.Elements)),
			zap.Int("party_questions", len(merged.PartyInfo)))
		return merged, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Offense), nil
}

// Preload loads every key, stopping at the first error
func (l *Loader) Preload(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := l.Load(ctx, key); err != nil {
			return fmt.Errorf("failed to load offense %s: %w", key, err)
		}
	}
	return nil
}

// build reads, merges and validates one offense document
func (l *Loader) build(ctx context.Context, key string) (*models.Offense, error) {
	data, err := storage.ReadAll(ctx, l.source, OffensePath(key))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSchemaNotFound, key)
		}
		return nil, fmt.Errorf("failed to read offense %s: %w", key, err)
	}

	var offense models.Offense
	if err := yaml.Unmarshal(data, &offense); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSchema, key, err)
	}

	if offense.Offense == "" {
		offense.Offense = key
	} else if offense.Offense != key {
		return nil, fmt.Errorf("%w: requested %q, document declares %q", ErrSchemaKeyMismatch, key, offense.Offense)
	}
	if offense.Templates == nil {
		offense.Templates = make(map[string]interface{})
	}
	if offense.Includes == nil {
		offense.Includes = []string{}
	}

	partyInfo := make([]models.Question, 0)
	for _, name := range offense.Includes {
		questions, err := l.loadMixin(ctx, key, name)
		if err != nil {
			return nil, err
		}
		partyInfo = append(partyInfo, questions...)
	}
	offense.PartyInfo = partyInfo

	if err := Validate(&offense); err != nil {
		return nil, err
	}

	return &offense, nil
}

// loadMixin returns the questions of the named mixin. A missing mixin document
// is logged and contributes no questions.
func (l *Loader) loadMixin(ctx context.Context, offenseKey, name string) ([]models.Question, error) {
	if !ValidKey(name) {
		return nil, fmt.Errorf("%w: mixin %q in offense %s", ErrInvalidKey, name, offenseKey)
	}

	data, err := storage.ReadAll(ctx, l.source, MixinPath(name))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			l.logger.Warn("mixin document missing, continuing without its questions",
				zap.String("offense", offenseKey),
				zap.String("mixin", name),
				zap.Error(ErrMixinNotFound))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read mixin %s: %w", name, err)
	}

	var mixin models.Mixin
	if err := yaml.Unmarshal(data, &mixin); err != nil {
		return nil, fmt.Errorf("%w: mixin %s: %v", ErrInvalidSchema, name, err)
	}
	if mixin.Mixin != name {
		return nil, fmt.Errorf("%w: requested %q, document declares %q", ErrMixinNameMismatch, name, mixin.Mixin)
	}

	return mixin.Questions, nil
}
