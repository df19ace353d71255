package qdrant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/anki-inject/internal/domain/entities"
	"github.com/ersonp/anki-inject/internal/domain/ports"
	"github.com/ersonp/anki-inject/internal/infrastructure/config"
)

func TestCardToPoint(t *testing.T) {
	card := ports.IndexedCard{
		ID:        "0b8f5b1e-6a53-5c8e-9a3f-2d7c1e4b9f10",
		Deck:      "Net",
		Card:      entities.Card{Front: "What is HTTP?", Back: "A protocol", Extra: map[string]string{"source": "rfc"}},
		Embedding: []float32{0.1, 0.2},
	}

	point := cardToPoint(card)

	assert.Equal(t, card.ID, point.Id.GetUuid())
	assert.Equal(t, []float32{0.1, 0.2}, point.Vectors.GetVector().Data)
	assert.Equal(t, "Net", getStringValue(point.Payload, payloadDeck))
	assert.Equal(t, card.Card.Fingerprint(), getStringValue(point.Payload, payloadFingerprint))
	require.NotNil(t, point.Payload[payloadExtra].GetStructValue())
}

func TestPayloadToMatch(t *testing.T) {
	tests := []struct {
		name string
		card entities.Card
	}{
		{
			name: "front and back",
			card: entities.Card{Front: "Q", Back: "A"},
		},
		{
			name: "extra fields",
			card: entities.Card{Front: "Q", Back: "A", Extra: map[string]string{"hint": "h", "source": "s"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			point := cardToPoint(ports.IndexedCard{ID: "id", Deck: "Default", Card: tt.card})

			match := payloadToMatch(point.Payload, 0.95)

			assert.Equal(t, tt.card, match.Card)
			assert.Equal(t, "Default", match.Deck)
			assert.InDelta(t, 0.95, match.Score, 1e-6)
		})
	}
}

func TestGetStringValueMissing(t *testing.T) {
	assert.Empty(t, getStringValue(nil, payloadFront))
}

func TestNewRepository(t *testing.T) {
	// grpc.NewClient connects lazily, so no server is needed.
	repo, err := NewRepository(config.QdrantConfig{
		Host:       "localhost",
		Port:       6334,
		Collection: "Anki Inject",
		APIKey:     "secret",
	})

	require.NoError(t, err)
	assert.Equal(t, "anki_inject", repo.collection)
	assert.NoError(t, repo.Close())
}
