package models

// DeadEndSignals holds the strong and weak pattern sets of a triage rule document
type DeadEndSignals struct {
	Strong []string `json:"strong" yaml:"strong"`
	Weak   []string `json:"weak" yaml:"weak"`
}

// TriageThresholds holds the firing thresholds. Nil fields take their defaults.
type TriageThresholds struct {
	StrongMin *int `json:"strong_min,omitempty" yaml:"strong_min"`
	WeakMin   *int `json:"weak_min,omitempty" yaml:"weak_min"`
	NegateMax *int `json:"negate_max,omitempty" yaml:"negate_max"`
}

// TriageOption represents an alternative path offered when triage fires.
// An empty SwitchTo continues with the current offense.
type TriageOption struct {
	Key      string `json:"key" yaml:"key"`
	Label    string `json:"label" yaml:"label"`
	SwitchTo string `json:"switch_to,omitempty" yaml:"switch_to"`
	Message  string `json:"message,omitempty" yaml:"message"`
}

// TriageRules represents the per-offense triage rule document
type TriageRules struct {
	Reason          string           `json:"reason" yaml:"reason"`
	DeadEndSignals  DeadEndSignals   `json:"dead_end_signals" yaml:"dead_end_signals"`
	NegateIfPresent []string         `json:"negate_if_present" yaml:"negate_if_present"`
	Thresholds      TriageThresholds `json:"thresholds" yaml:"thresholds"`
	AdvisoryText    string           `json:"advisory_text" yaml:"advisory_text"`
	Options         []TriageOption   `json:"options" yaml:"options"`
}

// TriageDecision represents a fired triage rule
type TriageDecision struct {
	Reason   string         `json:"reason"`
	Advisory string         `json:"advisory"`
	Options  []TriageOption `json:"options"`
}
