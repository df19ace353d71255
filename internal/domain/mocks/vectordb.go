package mocks

import (
	"context"

	"github.com/ersonp/anki-inject/internal/domain/entities"
	"github.com/ersonp/anki-inject/internal/domain/ports"
)

// CardIndex is a mock implementation of ports.CardIndex.
type CardIndex struct {
	Cards   []ports.IndexedCard
	Matches []entities.SimilarMatch
	Err     error

	// Call tracking
	SaveBatchCallCount int
	SearchCallCount    int
	LastMinScore       float32
}

// SaveBatch appends the cards.
func (m *CardIndex) SaveBatch(ctx context.Context, cards []ports.IndexedCard) error {
	m.SaveBatchCallCount++
	if m.Err != nil {
		return m.Err
	}
	m.Cards = append(m.Cards, cards...)
	return nil
}

// SearchSimilar returns the configured matches scoring at least minScore.
func (m *CardIndex) SearchSimilar(ctx context.Context, embedding []float32, limit int, minScore float32) ([]entities.SimilarMatch, error) {
	m.SearchCallCount++
	m.LastMinScore = minScore
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.SimilarMatch
	for _, match := range m.Matches {
		if match.Score < minScore {
			continue
		}
		result = append(result, match)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// Count returns the number of stored cards.
func (m *CardIndex) Count(ctx context.Context) (uint64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	return uint64(len(m.Cards)), nil
}
