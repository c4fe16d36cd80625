package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role represents the author of a history message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents one entry of a session's conversation history
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ElementStatus represents how well the narrative evidences an element
type ElementStatus string

const (
	StatusSatisfied ElementStatus = "satisfied"
	StatusMissing   ElementStatus = "missing"
	StatusUnclear   ElementStatus = "unclear"
)

// Valid reports whether s is one of the known statuses
func (s ElementStatus) Valid() bool {
	switch s {
	case StatusSatisfied, StatusMissing, StatusUnclear:
		return true
	}
	return false
}

// ElementState represents the extracted state of one element
type ElementState struct {
	Status  ElementStatus `json:"status"`
	Summary string        `json:"summary"`
}

// Collected maps element ids to their extracted state
type Collected map[string]ElementState

// Clone returns a copy of c
func (c Collected) Clone() Collected {
	out := make(Collected, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// SessionState represents the position of a session in the intake flow
type SessionState string

const (
	SessionCollecting SessionState = "collecting"
	SessionTriaged    SessionState = "triaged"
	SessionComplete   SessionState = "complete"
	SessionComposed   SessionState = "composed"
)

// Session represents one intake conversation
type Session struct {
	ID              uuid.UUID      `json:"id"`
	OffenseKey      string         `json:"offense"`
	State           SessionState   `json:"state"`
	History         []Message      `json:"history"`
	Collected       Collected      `json:"collected"`
	PendingTriage   []TriageOption `json:"pending_triage,omitempty"`
	TriageDismissed bool           `json:"triage_dismissed"`
	Draft           *Draft         `json:"draft,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// UserText joins every user-authored message in order, one per line
func (s *Session) UserText() string {
	parts := make([]string, 0, len(s.History))
	for _, m := range s.History {
		if m.Role == RoleUser {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n")
}

// Clone returns a deep copy of s
func (s *Session) Clone() *Session {
	out := *s
	out.History = append([]Message(nil), s.History...)
	out.Collected = s.Collected.Clone()
	out.PendingTriage = append([]TriageOption(nil), s.PendingTriage...)
	if s.Draft != nil {
		d := *s.Draft
		d.EvidenceNotes = append([]string(nil), s.Draft.EvidenceNotes...)
		out.Draft = &d
	}
	return &out
}
