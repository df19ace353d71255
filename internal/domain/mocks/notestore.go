package mocks

import (
	"context"
	"errors"

	"github.com/ersonp/anki-inject/internal/domain/entities"
)

// NoteStore is a mock implementation of ports.NoteStore.
type NoteStore struct {
	VersionResult int
	VersionErr    error
	Decks         []string
	DeckErr       error
	// AddErrs maps a card front to the error AddNote returns for it.
	AddErrs map[string]error
	AddErr  error

	// Call tracking
	Added       []entities.Card
	AddedDecks  []string
	NextNoteID  int64
	CreateCalls []string
}

// NewNoteStore creates a reachable mock note store.
func NewNoteStore(decks ...string) *NoteStore {
	return &NoteStore{VersionResult: 6, Decks: decks, NextNoteID: 1000}
}

// Version returns the configured version or error.
func (m *NoteStore) Version(ctx context.Context) (int, error) {
	if m.VersionErr != nil {
		return 0, m.VersionErr
	}
	return m.VersionResult, nil
}

// DeckNames returns the configured decks.
func (m *NoteStore) DeckNames(ctx context.Context) ([]string, error) {
	if m.DeckErr != nil {
		return nil, m.DeckErr
	}
	return m.Decks, nil
}

// CreateDeck records the deck and returns a fake ID.
func (m *NoteStore) CreateDeck(ctx context.Context, name string) (int64, error) {
	if m.DeckErr != nil {
		return 0, m.DeckErr
	}
	if name == "" {
		return 0, errors.New("deck name is empty")
	}
	m.CreateCalls = append(m.CreateCalls, name)
	m.Decks = append(m.Decks, name)
	return int64(len(m.Decks)), nil
}

// AddNote records the card unless an error is configured for it.
func (m *NoteStore) AddNote(ctx context.Context, deck string, card entities.Card) (int64, error) {
	if err, ok := m.AddErrs[card.Front]; ok {
		return 0, err
	}
	if m.AddErr != nil {
		return 0, m.AddErr
	}
	m.Added = append(m.Added, card)
	m.AddedDecks = append(m.AddedDecks, deck)
	m.NextNoteID++
	return m.NextNoteID, nil
}
