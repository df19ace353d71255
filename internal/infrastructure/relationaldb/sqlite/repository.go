// Package sqlite provides a SQLite implementation of the HistoryStore interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/anki-inject/internal/domain/entities"
	"github.com/ersonp/anki-inject/internal/infrastructure/config"
)

// generateUUID returns a new UUID string.
func generateUUID() string {
	return uuid.New().String()
}

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// Repository implements ports.HistoryStore using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// A single connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Generation sessions (one per input document)
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		model TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		cards_emitted INTEGER NOT NULL DEFAULT 0,
		spans_skipped INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);

	-- Notes accepted by the note store
	CREATE TABLE IF NOT EXISTS notes (
		id TEXT PRIMARY KEY,
		note_id INTEGER NOT NULL,
		deck TEXT NOT NULL,
		front TEXT NOT NULL,
		back TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		session_id TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_notes_fingerprint ON notes(deck, fingerprint);
	CREATE INDEX IF NOT EXISTS idx_notes_session ON notes(session_id);

	-- Audit log (tracks all actions)
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		session_id TEXT,
		details TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_session ON audit_log(session_id);
	CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log(action);
	CREATE INDEX IF NOT EXISTS idx_audit_log_created ON audit_log(created_at);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// SaveSession saves or updates a session.
func (r *Repository) SaveSession(ctx context.Context, session *entities.Session) error {
	if session.ID == "" {
		session.ID = generateUUID()
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = timeNow()
	}

	var finishedAt sql.NullTime
	if session.FinishedAt != nil {
		finishedAt = sql.NullTime{Time: *session.FinishedAt, Valid: true}
	}

	query := `
		INSERT INTO sessions (id, model, source, status, cards_emitted, spans_skipped, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			cards_emitted = excluded.cards_emitted,
			spans_skipped = excluded.spans_skipped,
			error = excluded.error,
			finished_at = excluded.finished_at
	`
	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.Model,
		session.Source,
		string(session.Status),
		session.CardsEmitted,
		session.SpansSkipped,
		nullString(session.Error),
		session.StartedAt,
		finishedAt,
	)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// FindSession finds a session by ID. Returns nil if not found.
func (r *Repository) FindSession(ctx context.Context, id string) (*entities.Session, error) {
	query := `
		SELECT id, model, source, status, cards_emitted, spans_skipped, error, started_at, finished_at
		FROM sessions
		WHERE id = ?
	`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanSession(rows)
}

// ListSessions lists the most recent sessions first. A limit <= 0 lists all.
func (r *Repository) ListSessions(ctx context.Context, limit int) ([]entities.Session, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `
		SELECT id, model, source, status, cards_emitted, spans_skipped, error, started_at, finished_at
		FROM sessions
		ORDER BY started_at DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []entities.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// scanSession scans the current row into a session.
func scanSession(rows *sql.Rows) (*entities.Session, error) {
	var session entities.Session
	var status string
	var errText sql.NullString
	var finishedAt sql.NullTime

	if err := rows.Scan(
		&session.ID,
		&session.Model,
		&session.Source,
		&status,
		&session.CardsEmitted,
		&session.SpansSkipped,
		&errText,
		&session.StartedAt,
		&finishedAt,
	); err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	session.Status = entities.SessionStatus(status)
	session.Error = errText.String
	if finishedAt.Valid {
		t := finishedAt.Time
		session.FinishedAt = &t
	}
	return &session, nil
}

// SaveNote records a note accepted by the note store.
func (r *Repository) SaveNote(ctx context.Context, note *entities.Note) error {
	if note.ID == "" {
		note.ID = generateUUID()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = timeNow()
	}

	query := `
		INSERT INTO notes (id, note_id, deck, front, back, fingerprint, session_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		note.ID,
		note.NoteID,
		note.Deck,
		note.Front,
		note.Back,
		note.Fingerprint,
		nullString(note.SessionID),
		note.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving note: %w", err)
	}
	return nil
}

// FindNoteByFingerprint finds the latest note in a deck with the given fingerprint.
// Returns nil if not found.
func (r *Repository) FindNoteByFingerprint(ctx context.Context, deck, fingerprint string) (*entities.Note, error) {
	query := `
		SELECT id, note_id, deck, front, back, fingerprint, session_id, created_at
		FROM notes
		WHERE deck = ? AND fingerprint = ?
		ORDER BY created_at DESC
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, deck, fingerprint)

	var note entities.Note
	var sessionID sql.NullString
	err := row.Scan(
		&note.ID,
		&note.NoteID,
		&note.Deck,
		&note.Front,
		&note.Back,
		&note.Fingerprint,
		&sessionID,
		&note.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning note: %w", err)
	}
	note.SessionID = sessionID.String
	return &note, nil
}

// CountNotes returns the number of notes recorded for a deck, or all decks if deck is empty.
func (r *Repository) CountNotes(ctx context.Context, deck string) (int, error) {
	query := `SELECT COUNT(*) FROM notes`
	var args []any
	if deck != "" {
		query += ` WHERE deck = ?`
		args = append(args, deck)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting notes: %w", err)
	}
	return count, nil
}

// LogAction logs an action to the audit log.
func (r *Repository) LogAction(ctx context.Context, action string, sessionID string, details map[string]any) error {
	var detailsJSON sql.NullString
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshaling details: %w", err)
		}
		detailsJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `INSERT INTO audit_log (action, session_id, details, created_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, action, nullString(sessionID), detailsJSON, timeNow())
	if err != nil {
		return fmt.Errorf("logging action: %w", err)
	}
	return nil
}

// FindAuditLog finds audit log entries for a specific session.
func (r *Repository) FindAuditLog(ctx context.Context, sessionID string) ([]entities.AuditEntry, error) {
	query := `
		SELECT id, action, session_id, details, created_at
		FROM audit_log
		WHERE session_id = ?
		ORDER BY id DESC
	`
	return r.queryAuditLog(ctx, query, sessionID)
}

// FindAuditLogByAction finds audit log entries by action type.
func (r *Repository) FindAuditLogByAction(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	query := `
		SELECT id, action, session_id, details, created_at
		FROM audit_log
		WHERE action = ?
		ORDER BY id DESC
		LIMIT ?
	`
	return r.queryAuditLog(ctx, query, action, limit)
}

// queryAuditLog is a helper to execute audit log queries.
func (r *Repository) queryAuditLog(ctx context.Context, query string, args ...any) ([]entities.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	// Use limit parameter as capacity hint if available
	var entries []entities.AuditEntry
	if len(args) > 0 {
		if limit, ok := args[len(args)-1].(int); ok && limit > 0 {
			entries = make([]entities.AuditEntry, 0, limit)
		}
	}

	for rows.Next() {
		var entry entities.AuditEntry
		var sessionID, details sql.NullString

		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&sessionID,
			&details,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		entry.SessionID = sessionID.String

		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshaling details: %w", err)
			}
		}

		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
