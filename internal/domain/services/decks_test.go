package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/anki-inject/internal/domain/entities"
	"github.com/ersonp/anki-inject/internal/domain/mocks"
)

func TestDeckService_List(t *testing.T) {
	store := mocks.NewNoteStore("Spanish", "Default", "Go::Concurrency")
	svc := NewDeckService(store, nil)

	decks, err := svc.List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"Default", "Go::Concurrency", "Spanish"}, decks)
	assert.Equal(t, []string{"Spanish", "Default", "Go::Concurrency"}, store.Decks)
}

func TestDeckService_ListError(t *testing.T) {
	store := mocks.NewNoteStore()
	store.DeckErr = errors.New("connection refused")
	svc := NewDeckService(store, nil)

	_, err := svc.List(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing decks")
}

func TestDeckService_Create(t *testing.T) {
	tests := []struct {
		name    string
		deck    string
		wantErr error
		created []string
	}{
		{name: "creates deck", deck: "Biology", created: []string{"Biology"}},
		{name: "trims name", deck: "  Biology::Cells ", created: []string{"Biology::Cells"}},
		{name: "empty name", deck: "   ", wantErr: ErrEmptyDeckName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewNoteStore()
			history := mocks.NewHistoryStore()
			svc := NewDeckService(store, history)

			id, err := svc.Create(context.Background(), tt.deck)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, store.CreateCalls)
				return
			}
			require.NoError(t, err)
			assert.Positive(t, id)
			assert.Equal(t, tt.created, store.CreateCalls)
			assert.Equal(t, []string{entities.ActionDeckCreated}, history.Actions())
		})
	}
}

func TestDeckService_Exists(t *testing.T) {
	svc := NewDeckService(mocks.NewNoteStore("Default"), nil)

	ok, err := svc.Exists(context.Background(), "Default")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Exists(context.Background(), "Missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
