package handlers

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/anki-inject/internal/domain/cardstream"
	"github.com/ersonp/anki-inject/internal/domain/entities"
	"github.com/ersonp/anki-inject/internal/domain/mocks"
	"github.com/ersonp/anki-inject/internal/domain/services"
	"github.com/ersonp/anki-inject/internal/infrastructure/transcript"
)

const threeCards = `{"cards": [{"front":"Q1","back":"A1"},{"front":"Q2","back":"A2"},{"front":"Q3","back":"A3"}]}`

func newGenerateHandler(store *mocks.NoteStore) (*GenerateHandler, *mocks.CardGenerator, *mocks.HistoryStore) {
	gen := &mocks.CardGenerator{Responses: [][]string{cardstream.SplitEvery(threeCards, 8)}}
	history := mocks.NewHistoryStore()
	generation := services.NewGenerationService(gen, history, services.GenerationConfig{Model: "gemini-2.0-flash"})
	var insertion *services.InsertionService
	if store != nil {
		insertion = services.NewInsertionService(store, history, nil)
	}
	return NewGenerateHandler(generation, insertion), gen, history
}

func collect(cards *[]string) func(entities.Card) error {
	return func(card entities.Card) error {
		*cards = append(*cards, card.Front)
		return nil
	}
}

func TestGenerateHandler_Handle(t *testing.T) {
	handler, gen, _ := newGenerateHandler(nil)

	var got []string
	result, err := handler.Handle(context.Background(), "notes about things", GenerateOptions{Source: "clipboard", Model: "gpt-4o-mini"}, collect(&got))

	require.NoError(t, err)
	assert.Equal(t, []string{"Q1", "Q2", "Q3"}, got)
	assert.Equal(t, 3, result.Cards)
	assert.Nil(t, result.Insert)
	assert.Equal(t, entities.SessionCompleted, result.Session.Status)
	assert.Equal(t, "clipboard", result.Session.Source)
	assert.Equal(t, "gpt-4o-mini", gen.Requests[0].Model)
}

func TestGenerateHandler_HandleReader(t *testing.T) {
	handler, gen, _ := newGenerateHandler(nil)

	var got []string
	result, err := handler.HandleReader(context.Background(), strings.NewReader("from stdin"), GenerateOptions{Source: "stdin"}, collect(&got))

	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, "from stdin", gen.Requests[0].Text)
	assert.Equal(t, "stdin", result.Session.Source)
}

func TestGenerateHandler_InsertWhileStreaming(t *testing.T) {
	store := mocks.NewNoteStore("Default")
	store.AddErrs = map[string]error{"Q2": errors.New("cannot create note because it is a duplicate")}
	handler, _, history := newGenerateHandler(store)

	var got []string
	result, err := handler.Handle(context.Background(), "notes", GenerateOptions{Deck: "Default"}, collect(&got))

	require.NoError(t, err)
	assert.Len(t, got, 3)
	require.NotNil(t, result.Insert)
	assert.Equal(t, 2, result.Insert.Added)
	assert.Equal(t, 1, result.Insert.Duplicates)
	assert.Equal(t, []string{"Default", "Default"}, store.AddedDecks)
	assert.Len(t, history.Notes, 2)
}

func TestGenerateHandler_InsertWithoutStore(t *testing.T) {
	handler, gen, _ := newGenerateHandler(nil)

	_, err := handler.Handle(context.Background(), "notes", GenerateOptions{Deck: "Default"}, collect(new([]string)))

	assert.ErrorIs(t, err, services.ErrNoteStoreUnavailable)
	assert.Empty(t, gen.Requests)
}

func TestGenerateHandler_StoreUnreachable(t *testing.T) {
	store := mocks.NewNoteStore()
	store.VersionErr = errors.New("connection refused")
	handler, gen, _ := newGenerateHandler(store)

	_, err := handler.Handle(context.Background(), "notes", GenerateOptions{Deck: "Default"}, collect(new([]string)))

	assert.ErrorIs(t, err, services.ErrNoteStoreUnavailable)
	assert.Empty(t, gen.Requests)
}

func TestGenerateHandler_Record(t *testing.T) {
	handler, _, _ := newGenerateHandler(nil)
	path := filepath.Join(t.TempDir(), "run.zst")

	result, err := handler.Handle(context.Background(), "notes", GenerateOptions{RecordPath: path}, collect(new([]string)))
	require.NoError(t, err)
	assert.Equal(t, path, result.Transcript)

	r, err := transcript.Open(path)
	require.NoError(t, err)
	cards, err := cardstream.Drain(context.Background(), r)
	require.NoError(t, err)
	assert.Len(t, cards, 3)
}

func TestGenerateHandler_EmitErrorStillClosesWorker(t *testing.T) {
	store := mocks.NewNoteStore("Default")
	handler, _, _ := newGenerateHandler(store)
	boom := errors.New("terminal closed")

	count := 0
	result, err := handler.Handle(context.Background(), "notes", GenerateOptions{Deck: "Default"}, func(entities.Card) error {
		count++
		if count == 2 {
			return boom
		}
		return nil
	})

	assert.ErrorIs(t, err, boom)
	require.NotNil(t, result)
	require.NotNil(t, result.Insert)
	assert.Equal(t, 1, result.Insert.Added)
	assert.Equal(t, entities.SessionFailed, result.Session.Status)
}
