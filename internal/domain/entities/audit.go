package entities

import "time"

// Audit actions.
const (
	ActionSessionStarted = "session_started"
	ActionNoteAdded      = "note_added"
	ActionDeckCreated    = "deck_created"
	ActionCardRefined    = "card_refined"
)

// AuditEntry represents a logged action in the system.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Action    string         `json:"action"`
	SessionID string         `json:"session_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
