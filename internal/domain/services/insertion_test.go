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

func TestInsertionService_Insert(t *testing.T) {
	cards := []entities.Card{
		{Front: "Q1", Back: "A1"},
		{Front: "Q2", Back: "A2"},
		{Front: "Q3", Back: "A3"},
		{Front: "", Back: " "},
	}
	store := mocks.NewNoteStore("Default")
	store.AddErrs = map[string]error{
		"Q2": errors.New("cannot create note because it is a duplicate"),
		"Q3": errors.New("model was not found: Basic"),
	}
	history := mocks.NewHistoryStore()
	svc := NewInsertionService(store, history, nil)

	result, err := svc.Insert(context.Background(), "Default", cards, InsertOptions{SessionID: "s1"})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, []string{"model was not found: Basic", "card has neither front nor back"}, result.Errors)
	assert.Equal(t, len(cards), result.Total())

	require.Len(t, history.Notes, 1)
	note := history.Notes[0]
	assert.Equal(t, "Q1", note.Front)
	assert.Equal(t, "Default", note.Deck)
	assert.Equal(t, "s1", note.SessionID)
	assert.Equal(t, cards[0].Fingerprint(), note.Fingerprint)
	assert.Equal(t, int64(1001), note.NoteID)
	assert.Equal(t, []string{entities.ActionNoteAdded}, history.Actions())
}

func TestInsertionService_InsertUnavailable(t *testing.T) {
	store := mocks.NewNoteStore()
	store.VersionErr = errors.New("connection refused")
	svc := NewInsertionService(store, nil, nil)

	result, err := svc.Insert(context.Background(), "Default", []entities.Card{{Front: "Q", Back: "A"}}, InsertOptions{})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrNoteStoreUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Empty(t, store.Added)
}

func TestInsertionService_InsertEmptyDeck(t *testing.T) {
	svc := NewInsertionService(mocks.NewNoteStore(), nil, nil)

	_, err := svc.Insert(context.Background(), " ", nil, InsertOptions{})

	assert.ErrorIs(t, err, ErrEmptyDeckName)
}

func TestInsertionService_SkipKnown(t *testing.T) {
	known := entities.Card{Front: "What is Go?", Back: "A language"}
	history := mocks.NewHistoryStore()
	require.NoError(t, history.SaveNote(context.Background(), &entities.Note{
		Deck:        "Go",
		Front:       known.Front,
		Back:        known.Back,
		Fingerprint: known.Fingerprint(),
	}))
	store := mocks.NewNoteStore("Go")
	svc := NewInsertionService(store, history, nil)
	cards := []entities.Card{{Front: "what is go?", Back: "a  language"}, {Front: "New", Back: "Card"}}

	tests := []struct {
		name       string
		opts       InsertOptions
		wantAdded  int
		wantDupes  int
		wantStored int
	}{
		{name: "skip known", opts: InsertOptions{SkipKnown: true}, wantAdded: 1, wantDupes: 1, wantStored: 1},
		{name: "no skip", opts: InsertOptions{}, wantAdded: 2, wantDupes: 0, wantStored: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Insert(context.Background(), "Go", cards, tt.opts)

			require.NoError(t, err)
			assert.Equal(t, tt.wantAdded, result.Added)
			assert.Equal(t, tt.wantDupes, result.Duplicates)
			assert.Len(t, store.Added, tt.wantStored)
		})
	}
}

func TestInsertionService_Similarity(t *testing.T) {
	match := entities.SimilarMatch{Card: entities.Card{Front: "HTTP?", Back: "protocol"}, Deck: "Net", Score: 0.97}

	tests := []struct {
		name        string
		opts        InsertOptions
		wantAdded   int
		wantSimilar int
	}{
		{name: "report only", opts: InsertOptions{CheckSimilar: true}, wantAdded: 1, wantSimilar: 0},
		{name: "skip similar", opts: InsertOptions{CheckSimilar: true, SkipSimilar: true}, wantAdded: 0, wantSimilar: 1},
		{name: "not checked", opts: InsertOptions{}, wantAdded: 1, wantSimilar: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index := &mocks.CardIndex{Matches: []entities.SimilarMatch{match}}
			embedder := &mocks.Embedder{EmbeddingResult: []float32{0.1, 0.2, 0.3}}
			collections := &mocks.CollectionManager{}
			similarity := NewSimilarityService(embedder, index, collections, 0)
			store := mocks.NewNoteStore("Net")
			svc := NewInsertionService(store, nil, similarity)

			result, err := svc.Insert(context.Background(), "Net", []entities.Card{{Front: "What is HTTP?", Back: "A protocol"}}, tt.opts)

			require.NoError(t, err)
			assert.Equal(t, tt.wantAdded, result.Added)
			assert.Equal(t, tt.wantSimilar, result.Similar)
			assert.Len(t, index.Cards, tt.wantAdded)
			assert.Equal(t, 1, collections.EnsureCollectionCallCount)
		})
	}
}

func TestInsertionService_SimilarityFailureStillAdds(t *testing.T) {
	embedder := &mocks.Embedder{Err: errors.New("embedding service down")}
	similarity := NewSimilarityService(embedder, &mocks.CardIndex{}, nil, 0)
	store := mocks.NewNoteStore("Net")
	svc := NewInsertionService(store, nil, similarity)

	result, err := svc.Insert(context.Background(), "Net", []entities.Card{{Front: "Q", Back: "A"}}, InsertOptions{CheckSimilar: true})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
}

func TestInsertWorker(t *testing.T) {
	store := mocks.NewNoteStore("Default")
	store.AddErrs = map[string]error{"dup": errors.New("duplicate")}
	history := mocks.NewHistoryStore()
	svc := NewInsertionService(store, history, nil)

	worker, err := svc.StartWorker(context.Background(), "Default", InsertOptions{}, 4)
	require.NoError(t, err)

	for _, front := range []string{"a", "dup", "b", "c"} {
		worker.Submit(entities.Card{Front: front, Back: "x"})
	}
	result := worker.Close()

	assert.Equal(t, 3, result.Added)
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, []string{"a", "b", "c"}, fronts(store.Added))
	assert.Len(t, history.Notes, 3)
}

func TestInsertWorker_Unavailable(t *testing.T) {
	store := mocks.NewNoteStore()
	store.VersionErr = errors.New("refused")
	svc := NewInsertionService(store, nil, nil)

	worker, err := svc.StartWorker(context.Background(), "Default", InsertOptions{}, 0)

	assert.Nil(t, worker)
	assert.ErrorIs(t, err, ErrNoteStoreUnavailable)
}

func TestIsDuplicateError(t *testing.T) {
	assert.True(t, IsDuplicateError(errors.New("cannot create note because it is a duplicate")))
	assert.True(t, IsDuplicateError(errors.New("Duplicate note")))
	assert.False(t, IsDuplicateError(errors.New("deck was not found")))
	assert.False(t, IsDuplicateError(nil))
}
