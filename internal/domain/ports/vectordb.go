package ports

import (
	"context"

	"github.com/ersonp/anki-inject/internal/domain/entities"
)

// IndexedCard is a card stored in the similarity index.
type IndexedCard struct {
	ID        string
	Deck      string
	Card      entities.Card
	Embedding []float32
}

// CardIndex defines the interface for the vector index of known cards.
type CardIndex interface {
	// SaveBatch stores cards with their embeddings.
	SaveBatch(ctx context.Context, cards []IndexedCard) error

	// SearchSimilar returns indexed cards scoring at least minScore against the embedding.
	SearchSimilar(ctx context.Context, embedding []float32, limit int, minScore float32) ([]entities.SimilarMatch, error)

	// Count returns the number of indexed cards.
	Count(ctx context.Context) (uint64, error)
}
