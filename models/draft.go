package models

import (
	"time"

	"github.com/google/uuid"
)

// Draft represents a composed complaint draft
type Draft struct {
	ID            uuid.UUID `json:"id"`
	SessionID     uuid.UUID `json:"session_id"`
	Offense       string    `json:"offense"`
	Title         string    `json:"title"`
	DraftText     string    `json:"draft"`
	EvidenceNotes []string  `json:"evidence_notes"`
	Checksum      string    `json:"checksum"`
	StoragePath   *string   `json:"storage_path,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
