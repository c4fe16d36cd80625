package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"complaintdraft-backend/models"
)

// NeutralSystem is the system instruction shared by every generation call
const NeutralSystem = "You are an assistant that extracts facts for a legal complaint draft. " +
	"Do not give legal advice. Use ONLY the user's text."

const (
	// OpeningPrompt is the first assistant message of a new session
	OpeningPrompt = "Please describe what happened in your own words: when, where, who was involved, and what took place."

	// CompletionPrompt replaces the follow-up question once every element is satisfied
	CompletionPrompt = "I have the key information I need. Type \"done\" whenever you are ready and I will prepare the draft."

	// CautionAdvisory is shown when the caution classifier flags a narrative
	CautionAdvisory = "We recommend consulting a legal professional about this case."

	unclearMarker = "□ (to be confirmed)"
)

func extractionPrompt(text string, offense *models.Offense) string {
	var elements strings.Builder
	for _, e := range offense.Elements {
		fmt.Fprintf(&elements, "- %s: %s\n", e.ID, e.Label)
	}

	return fmt.Sprintf(`For each legal element listed below, decide whether the user's narrative makes it "satisfied", "missing" or "unclear", and write a one or two sentence summary.
Respond with a JSON object keyed by element id. Each value must be {"status": "...", "summary": "..."}.

[Elements]
%s
[User narrative]
%s`, elements.String(), text)
}

func cautionPrompt(text string) string {
	return fmt.Sprintf(`Review the user's narrative. If it contains a high-risk signal that calls for professional legal counsel, output a one-line warning. Otherwise output only NONE.
Examples of high-risk signals: sexual offences, a limitation period about to expire, ongoing harm that must be stopped immediately, very large amounts.

[User narrative]
%s`, text)
}

func compositionPrompt(offense *models.Offense, collected models.Collected, evidenceNotes []string) (string, error) {
	data, err := json.MarshalIndent(collected, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode collected elements: %w", err)
	}

	var notes strings.Builder
	if len(evidenceNotes) == 0 {
		notes.WriteString("(none)\n")
	}
	for _, n := range evidenceNotes {
		fmt.Fprintf(&notes, "- %s\n", n)
	}

	var purpose string
	if p, ok := offense.Templates["purpose"].(string); ok && p != "" {
		purpose = fmt.Sprintf("\n[Purpose template]\n%s\n", p)
	}

	return fmt.Sprintf(`Using the structured data and evidence notes below, write draft text for a criminal complaint in three parts: purpose of the complaint, facts constituting the offense, and reasons for the complaint.
Do not give legal advice, strategy or conclusions. Mark anything unclear with "%s".

[Offense]
%s (%s)
%s
[Structured data]
%s

[Evidence notes]
%s`, unclearMarker, offense.Title, offense.StatuteReference, purpose, string(data), notes.String()), nil
}
