package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/anki-inject/internal/domain/entities"
	"github.com/ersonp/anki-inject/internal/domain/ports"
)

// DefaultHistoryLimit is the number of sessions listed when no limit is given.
const DefaultHistoryLimit = 20

// HistoryHandler handles listing past generation sessions.
type HistoryHandler struct {
	history ports.HistoryStore
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(history ports.HistoryStore) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// HistoryResult contains recent sessions and note totals.
type HistoryResult struct {
	Sessions   []entities.Session
	NotesTotal int
}

// Handle lists the most recent sessions. A limit <= 0 uses DefaultHistoryLimit.
func (h *HistoryHandler) Handle(ctx context.Context, limit int) (*HistoryResult, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	sessions, err := h.history.ListSessions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	total, err := h.history.CountNotes(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("counting notes: %w", err)
	}

	return &HistoryResult{Sessions: sessions, NotesTotal: total}, nil
}
