package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/ersonp/anki-inject/internal/domain/entities"
)

// HistoryStore is a mock implementation of ports.HistoryStore.
type HistoryStore struct {
	mu       sync.Mutex
	Sessions map[string]*entities.Session
	Notes    []entities.Note
	Audit    []entities.AuditEntry
	Err      error
}

// NewHistoryStore creates a new mock HistoryStore.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{Sessions: make(map[string]*entities.Session)}
}

// EnsureSchema returns the configured error.
func (m *HistoryStore) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close does nothing.
func (m *HistoryStore) Close() error {
	return nil
}

// SaveSession stores a copy of the session.
func (m *HistoryStore) SaveSession(_ context.Context, session *entities.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	s := *session
	m.Sessions[s.ID] = &s
	return nil
}

// FindSession finds a session by ID.
func (m *HistoryStore) FindSession(_ context.Context, id string) (*entities.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	s, ok := m.Sessions[id]
	if !ok {
		return nil, nil
	}
	out := *s
	return &out, nil
}

// ListSessions lists sessions newest first.
func (m *HistoryStore) ListSessions(_ context.Context, limit int) ([]entities.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([]entities.Session, 0, len(m.Sessions))
	for _, s := range m.Sessions {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// SaveNote appends the note.
func (m *HistoryStore) SaveNote(_ context.Context, note *entities.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Notes = append(m.Notes, *note)
	return nil
}

// FindNoteByFingerprint finds a note in a deck by fingerprint.
func (m *HistoryStore) FindNoteByFingerprint(_ context.Context, deck, fingerprint string) (*entities.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Notes {
		if m.Notes[i].Deck == deck && m.Notes[i].Fingerprint == fingerprint {
			n := m.Notes[i]
			return &n, nil
		}
	}
	return nil, nil
}

// CountNotes counts notes in a deck, or all notes if deck is empty.
func (m *HistoryStore) CountNotes(_ context.Context, deck string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	count := 0
	for _, n := range m.Notes {
		if deck == "" || n.Deck == deck {
			count++
		}
	}
	return count, nil
}

// LogAction appends an audit entry.
func (m *HistoryStore) LogAction(_ context.Context, action string, sessionID string, details map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Audit = append(m.Audit, entities.AuditEntry{
		ID:        int64(len(m.Audit) + 1),
		Action:    action,
		SessionID: sessionID,
		Details:   details,
	})
	return nil
}

// FindAuditLogByAction returns the audit entries for an action, newest first.
func (m *HistoryStore) FindAuditLogByAction(_ context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.AuditEntry
	for i := len(m.Audit) - 1; i >= 0; i-- {
		if m.Audit[i].Action == action {
			result = append(result, m.Audit[i])
		}
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// Actions returns the logged action names in order.
func (m *HistoryStore) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Audit))
	for i, e := range m.Audit {
		out[i] = e.Action
	}
	return out
}
