package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ersonp/anki-inject/internal/domain/entities"
	"github.com/ersonp/anki-inject/internal/domain/ports"
)

// DefaultSimilarityThreshold is the cosine score above which two cards are reported as similar.
const DefaultSimilarityThreshold float32 = 0.92

// cardNamespace seeds index point IDs so that re-indexing a card overwrites it.
var cardNamespace = uuid.MustParse("6f1c4b0e-3a57-4d3c-9a8e-0c2e51b7a9d4")

// SimilarityService finds cards that say the same thing in different words.
type SimilarityService struct {
	embedder    ports.Embedder
	index       ports.CardIndex
	collections ports.CollectionManager
	threshold   float32

	mu      sync.Mutex
	ensured bool
}

// NewSimilarityService creates a new similarity service. A threshold <= 0 uses the default.
func NewSimilarityService(embedder ports.Embedder, index ports.CardIndex, collections ports.CollectionManager, threshold float32) *SimilarityService {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &SimilarityService{
		embedder:    embedder,
		index:       index,
		collections: collections,
		threshold:   threshold,
	}
}

// Threshold returns the minimum score reported as similar.
func (s *SimilarityService) Threshold() float32 {
	return s.threshold
}

// Check returns the closest indexed card scoring at least the threshold, or nil.
func (s *SimilarityService) Check(ctx context.Context, card entities.Card) (*entities.SimilarMatch, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}

	embedding, err := s.embedder.Embed(ctx, card.Text())
	if err != nil {
		return nil, fmt.Errorf("embedding card: %w", err)
	}

	matches, err := s.index.SearchSimilar(ctx, embedding, 1, s.threshold)
	if err != nil {
		return nil, fmt.Errorf("searching similar cards: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

// Index stores cards of a deck so later checks can find them.
func (s *SimilarityService) Index(ctx context.Context, deck string, cards []entities.Card) error {
	if len(cards) == 0 {
		return nil
	}
	if err := s.ensure(ctx); err != nil {
		return err
	}

	texts := make([]string, len(cards))
	for i := range cards {
		texts[i] = cards[i].Text()
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("generating embeddings: %w", err)
	}
	if len(embeddings) != len(cards) {
		return fmt.Errorf("generating embeddings: got %d for %d cards", len(embeddings), len(cards))
	}

	indexed := make([]ports.IndexedCard, len(cards))
	for i := range cards {
		indexed[i] = ports.IndexedCard{
			ID:        IndexID(deck, cards[i]),
			Deck:      deck,
			Card:      cards[i],
			Embedding: embeddings[i],
		}
	}
	if err := s.index.SaveBatch(ctx, indexed); err != nil {
		return fmt.Errorf("saving to index: %w", err)
	}
	return nil
}

// IndexID returns the stable index ID of a card in a deck.
func IndexID(deck string, card entities.Card) string {
	return uuid.NewSHA1(cardNamespace, []byte(deck+"\x1f"+card.Fingerprint())).String()
}

func (s *SimilarityService) ensure(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured || s.collections == nil {
		return nil
	}

	// A failed attempt is retried on the next call.
	size := uint64(s.embedder.Dimensions())
	if err := s.collections.EnsureCollection(ctx, size); err != nil {
		return fmt.Errorf("ensuring collection: %w", err)
	}
	s.ensured = true
	return nil
}
