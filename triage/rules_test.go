package triage

import (
	"fmt"
	"strings"
	"testing"

	"complaintdraft-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func syntheticRules(t *testing.T, th models.TriageThresholds) *Rules {
	t.Helper()
	r, err := Compile("fraud", models.TriageRules{
		DeadEndSignals: models.DeadEndSignals{
			Strong: []string{`\bs1\b`, `\bs2\b`, `\bs3\b`},
			Weak:   []string{`\bw1\b`, `\bw2\b`, `\bw3\b`},
		},
		NegateIfPresent: []string{`\bn1\b`},
		Thresholds:      th,
		AdvisoryText:    "advice",
		Options:         []models.TriageOption{{Key: "continue"}},
	})
	require.NoError(t, err)
	return r
}

func narrative(strong, weak, negate int) string {
	var words []string
	for i := 1; i <= strong; i++ {
		words = append(words, fmt.Sprintf("s%d", i))
	}
	for i := 1; i <= weak; i++ {
		words = append(words, fmt.Sprintf("w%d", i))
	}
	for i := 1; i <= negate; i++ {
		words = append(words, fmt.Sprintf("n%d", i))
	}
	return strings.Join(words, " ")
}

func TestCompile_DefaultsAndOverrides(t *testing.T) {
	r := syntheticRules(t, models.TriageThresholds{})
	assert.Equal(t, DefaultThresholds, r.Thresholds)
	assert.Equal(t, "dead_end", r.Reason)

	r = syntheticRules(t, models.TriageThresholds{StrongMin: intPtr(2), NegateMax: intPtr(1)})
	assert.Equal(t, Thresholds{StrongMin: 2, WeakMin: 1, NegateMax: 1}, r.Thresholds)
}

func TestCompile_InvalidPattern(t *testing.T) {
	_, err := Compile("fraud", models.TriageRules{
		DeadEndSignals: models.DeadEndSignals{Strong: []string{"(unclosed"}},
	})
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestCompile_DuplicateOption(t *testing.T) {
	_, err := Compile("fraud", models.TriageRules{
		Options: []models.TriageOption{{Key: "a"}, {Key: "a"}},
	})
	assert.ErrorIs(t, err, ErrInvalidRules)
}

func TestScore_CountsPatternsNotOccurrences(t *testing.T) {
	r := syntheticRules(t, models.TriageThresholds{})

	scores := r.Score("s1 s1 s1 s1 s1 w1")
	assert.Equal(t, Scores{Strong: 1, Weak: 1}, scores)
}

func TestScore_CaseInsensitiveAndLineFolding(t *testing.T) {
	r, err := Compile("fraud", models.TriageRules{
		DeadEndSignals: models.DeadEndSignals{
			Strong: []string{"promised to pay"},
			Weak:   []string{"friend"},
		},
	})
	require.NoError(t, err)

	scores := r.Score("My FRIEND\npromised\r\nto PAY me back")
	assert.Equal(t, Scores{Strong: 1, Weak: 1}, scores)
	assert.NotNil(t, r.Evaluate("My FRIEND\npromised\r\nto PAY me back"))
}

func TestFires_MonotonicInSignalStrength(t *testing.T) {
	for _, th := range []models.TriageThresholds{
		{},
		{StrongMin: intPtr(2), WeakMin: intPtr(2)},
		{StrongMin: intPtr(3), WeakMin: intPtr(0)},
	} {
		r := syntheticRules(t, th)
		for s := 0; s <= 3; s++ {
			for w := 0; w <= 3; w++ {
				if r.Evaluate(narrative(s, w, 0)) == nil {
					continue
				}
				if s < 3 {
					assert.NotNil(t, r.Evaluate(narrative(s+1, w, 0)), "strong %d->%d", s, s+1)
				}
				if w < 3 {
					assert.NotNil(t, r.Evaluate(narrative(s, w+1, 0)), "weak %d->%d", w, w+1)
				}
			}
		}
	}
}

func TestEvaluate_NegationSuppresses(t *testing.T) {
	r := syntheticRules(t, models.TriageThresholds{})

	assert.NotNil(t, r.Evaluate(narrative(2, 2, 0)))
	assert.Nil(t, r.Evaluate(narrative(2, 2, 1)))

	r = syntheticRules(t, models.TriageThresholds{NegateMax: intPtr(1)})
	assert.NotNil(t, r.Evaluate(narrative(2, 2, 1)))
}

func TestEvaluate_ReturnsAdvisoryAndOptionsVerbatim(t *testing.T) {
	r := syntheticRules(t, models.TriageThresholds{})

	d := r.Evaluate(narrative(1, 1, 0))
	require.NotNil(t, d)
	assert.Equal(t, "advice", d.Advisory)
	assert.Equal(t, []models.TriageOption{{Key: "continue"}}, d.Options)

	// the decision owns its options
	d.Options[0].Key = "changed"
	opt, ok := r.Option("continue")
	assert.True(t, ok)
	assert.Equal(t, "continue", opt.Key)
}

func TestFires_Table(t *testing.T) {
	tests := []struct {
		scores Scores
		want   bool
	}{
		{Scores{0, 0, 0}, false},
		{Scores{1, 0, 0}, false},
		{Scores{0, 1, 0}, false},
		{Scores{1, 1, 0}, true},
		{Scores{2, 2, 0}, true},
		{Scores{2, 2, 1}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.scores.Fires(DefaultThresholds), "%+v", tt.scores)
	}
}
