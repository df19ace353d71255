package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ersonp/anki-inject/internal/domain/entities"
	"github.com/ersonp/anki-inject/internal/domain/ports"
	"github.com/ersonp/anki-inject/pkg/logger"
)

// DeckService lists and creates decks in the note store.
type DeckService struct {
	store   ports.NoteStore
	history ports.HistoryStore
}

// NewDeckService creates a new deck service. history may be nil.
func NewDeckService(store ports.NoteStore, history ports.HistoryStore) *DeckService {
	return &DeckService{store: store, history: history}
}

// List returns deck names sorted alphabetically.
func (s *DeckService) List(ctx context.Context) ([]string, error) {
	names, err := s.store.DeckNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing decks: %w", err)
	}
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	return sorted, nil
}

// Create creates a deck. Creating an existing deck is not an error.
func (s *DeckService) Create(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrEmptyDeckName
	}

	id, err := s.store.CreateDeck(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("creating deck %q: %w", name, err)
	}

	if s.history != nil {
		details := map[string]any{"deck": name, "deck_id": id}
		if err := s.history.LogAction(ctx, entities.ActionDeckCreated, "", details); err != nil {
			logger.FromContext(ctx).Warn("Failed to log deck creation", "err", err)
		}
	}
	return id, nil
}

// Exists reports whether a deck with the given name exists.
func (s *DeckService) Exists(ctx context.Context, name string) (bool, error) {
	names, err := s.store.DeckNames(ctx)
	if err != nil {
		return false, fmt.Errorf("listing decks: %w", err)
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}
