// Package triage scores a narrative against per-offense dead-end rules so the
// intake can stop early and offer alternative paths.
package triage

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"complaintdraft-backend/models"
)

var (
	// ErrInvalidPattern is returned when a rule document contains a pattern that does not compile
	ErrInvalidPattern = errors.New("invalid triage pattern")
	ErrInvalidRules   = errors.New("triage rules are malformed")
)

const defaultReason = "dead_end"

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Thresholds decide when a rule fires
type Thresholds struct {
	StrongMin int
	WeakMin   int
	NegateMax int
}

// DefaultThresholds apply to any threshold a rule document leaves out
var DefaultThresholds = Thresholds{StrongMin: 1, WeakMin: 1, NegateMax: 0}

// Scores counts matched patterns per signal set. Each pattern counts once no
// matter how often it occurs.
type Scores struct {
	Strong int
	Weak   int
	Negate int
}

// Fires reports whether the scores meet every threshold
func (s Scores) Fires(t Thresholds) bool {
	return s.Strong >= t.StrongMin && s.Weak >= t.WeakMin && s.Negate <= t.NegateMax
}

// Rules is a compiled triage rule document
type Rules struct {
	Offense    string
	Reason     string
	Advisory   string
	Options    []models.TriageOption
	Thresholds Thresholds

	strong []*regexp.Regexp
	weak   []*regexp.Regexp
	negate []*regexp.Regexp
}

// Compile validates and compiles a rule document
func Compile(offense string, doc models.TriageRules) (*Rules, error) {
	r := &Rules{
		Offense:    offense,
		Reason:     doc.Reason,
		Advisory:   doc.AdvisoryText,
		Options:    append([]models.TriageOption(nil), doc.Options...),
		Thresholds: DefaultThresholds,
	}
	if r.Reason == "" {
		r.Reason = defaultReason
	}
	if t := doc.Thresholds.StrongMin; t != nil {
		r.Thresholds.StrongMin = *t
	}
	if t := doc.Thresholds.WeakMin; t != nil {
		r.Thresholds.WeakMin = *t
	}
	if t := doc.Thresholds.NegateMax; t != nil {
		r.Thresholds.NegateMax = *t
	}

	seen := make(map[string]bool, len(r.Options))
	for _, opt := range r.Options {
		if opt.Key == "" {
			return nil, fmt.Errorf("%w: %s: option without key", ErrInvalidRules, offense)
		}
		if seen[opt.Key] {
			return nil, fmt.Errorf("%w: %s: duplicate option %q", ErrInvalidRules, offense, opt.Key)
		}
		seen[opt.Key] = true
	}

	var err error
	if r.strong, err = compileAll(offense, doc.DeadEndSignals.Strong); err != nil {
		return nil, err
	}
	if r.weak, err = compileAll(offense, doc.DeadEndSignals.Weak); err != nil {
		return nil, err
	}
	if r.negate, err = compileAll(offense, doc.NegateIfPresent); err != nil {
		return nil, err
	}
	return r, nil
}

func compileAll(offense string, patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("%w: offense %s: %q: %v", ErrInvalidPattern, offense, p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Score counts the patterns of each set that match text
func (r *Rules) Score(text string) Scores {
	t := Normalize(text)
	return Scores{
		Strong: countMatches(r.strong, t),
		Weak:   countMatches(r.weak, t),
		Negate: countMatches(r.negate, t),
	}
}

// Evaluate returns a decision when the rules fire on text, nil otherwise
func (r *Rules) Evaluate(text string) *models.TriageDecision {
	if !r.Score(text).Fires(r.Thresholds) {
		return nil
	}
	return &models.TriageDecision{
		Reason:   r.Reason,
		Advisory: r.Advisory,
		Options:  append([]models.TriageOption(nil), r.Options...),
	}
}

// Option looks up an option by key
func (r *Rules) Option(key string) (models.TriageOption, bool) {
	for _, opt := range r.Options {
		if opt.Key == key {
			return opt, true
		}
	}
	return models.TriageOption{}, false
}

// Normalize folds line breaks to spaces and lowercases text
func Normalize(text string) string {
	return strings.ToLower(lineBreaks.Replace(text))
}

func countMatches(patterns []*regexp.Regexp, text string) int {
	n := 0
	for _, re := range patterns {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}
