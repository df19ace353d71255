package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/anki-inject/internal/domain/mocks"
	"github.com/ersonp/anki-inject/internal/domain/services"
)

func newImportHandler(store *mocks.NoteStore) *ImportHandler {
	insertion := services.NewInsertionService(store, nil, nil)
	return NewImportHandler(services.NewImportService(insertion))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestImportHandler_Handle(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		content   string
		format    string
		wantValid int
		wantAdded int
		wantErrs  int
	}{
		{
			name:      "JSON file",
			file:      "cards.json",
			content:   `{"cards": [{"front": "Q1", "back": "A1"}, {"front": "Q2", "back": "A2"}]}`,
			wantValid: 2,
			wantAdded: 2,
		},
		{
			name:      "bare JSON array",
			file:      "cards.json",
			content:   `[{"front": "Q1", "back": "A1"}]`,
			wantValid: 1,
			wantAdded: 1,
		},
		{
			name:      "CSV with header",
			file:      "cards.csv",
			content:   "front,back\nQ1,A1\nQ2,\n",
			wantValid: 1,
			wantAdded: 1,
			wantErrs:  1,
		},
		{
			name:      "explicit TSV format",
			file:      "cards.data",
			content:   "Q1\tA1\n",
			format:    "tsv",
			wantValid: 1,
			wantAdded: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewNoteStore("Default")
			handler := newImportHandler(store)
			path := writeFile(t, tt.file, tt.content)

			result, err := handler.Handle(context.Background(), path, ImportOptions{Format: tt.format, Deck: "Default"})

			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, result.Valid)
			assert.Len(t, result.Errors, tt.wantErrs)
			require.NotNil(t, result.Insert)
			assert.Equal(t, tt.wantAdded, result.Insert.Added)
			assert.Len(t, store.Added, tt.wantAdded)
		})
	}
}

func TestImportHandler_DryRun(t *testing.T) {
	store := mocks.NewNoteStore("Default")
	handler := newImportHandler(store)
	path := writeFile(t, "cards.csv", "Q1,A1\nQ2,A2\n")

	result, err := handler.Handle(context.Background(), path, ImportOptions{Deck: "Default", DryRun: true})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Valid)
	assert.Nil(t, result.Insert)
	assert.Empty(t, store.Added)
}

func TestImportHandler_Errors(t *testing.T) {
	handler := newImportHandler(mocks.NewNoteStore())

	t.Run("unsupported format", func(t *testing.T) {
		_, err := handler.Handle(context.Background(), "cards.xml", ImportOptions{Deck: "Default"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported format")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := handler.Handle(context.Background(), filepath.Join(t.TempDir(), "missing.json"), ImportOptions{Deck: "Default"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "opening file")
	})

	t.Run("JSON without cards", func(t *testing.T) {
		path := writeFile(t, "notes.json", `{"title": "no cards here"}`)
		_, err := handler.Handle(context.Background(), path, ImportOptions{Deck: "Default"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing file")
	})
}
