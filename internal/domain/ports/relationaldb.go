package ports

import (
	"context"

	"github.com/ersonp/anki-inject/internal/domain/entities"
)

// HistoryStore defines the interface for the local relational history of
// generation sessions and inserted notes.
type HistoryStore interface {
	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// Session operations

	// SaveSession saves or updates a session.
	SaveSession(ctx context.Context, session *entities.Session) error

	// FindSession finds a session by ID. Returns nil if not found.
	FindSession(ctx context.Context, id string) (*entities.Session, error)

	// ListSessions lists the most recent sessions first.
	ListSessions(ctx context.Context, limit int) ([]entities.Session, error)

	// Note operations

	// SaveNote records a note accepted by the note store.
	SaveNote(ctx context.Context, note *entities.Note) error

	// FindNoteByFingerprint finds a note in a deck by card fingerprint. Returns nil if not found.
	FindNoteByFingerprint(ctx context.Context, deck, fingerprint string) (*entities.Note, error)

	// CountNotes returns the number of notes recorded for a deck, or all decks if deck is empty.
	CountNotes(ctx context.Context, deck string) (int, error)

	// Audit operations

	// LogAction logs an action to the audit log.
	LogAction(ctx context.Context, action string, sessionID string, details map[string]any) error

	// FindAuditLogByAction finds audit log entries by action type.
	FindAuditLogByAction(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error)
}
