package ports

import (
	"context"

	"github.com/ersonp/anki-inject/internal/domain/entities"
)

// NoteStore defines the interface for the flashcard application that persists notes.
type NoteStore interface {
	// Version returns the protocol version of the note store. It doubles as a connectivity check.
	Version(ctx context.Context) (int, error)

	// DeckNames lists the decks known to the note store.
	DeckNames(ctx context.Context) ([]string, error)

	// CreateDeck creates a deck and returns its ID.
	CreateDeck(ctx context.Context, name string) (int64, error)

	// AddNote adds a card to a deck and returns the new note ID.
	AddNote(ctx context.Context, deck string, card entities.Card) (int64, error)
}
