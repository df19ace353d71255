package handlers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/anki-inject/internal/domain/entities"
	"github.com/ersonp/anki-inject/internal/domain/mocks"
)

func TestHistoryHandler_Handle(t *testing.T) {
	history := mocks.NewHistoryStore()
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := range 25 {
		require.NoError(t, history.SaveSession(ctx, &entities.Session{
			ID:        fmt.Sprintf("s-%02d", i),
			Status:    entities.SessionCompleted,
			StartedAt: start.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, history.SaveNote(ctx, &entities.Note{ID: "n-1", Deck: "Go", Fingerprint: "a"}))

	tests := []struct {
		name      string
		limit     int
		wantCount int
	}{
		{name: "default limit", limit: 0, wantCount: DefaultHistoryLimit},
		{name: "explicit limit", limit: 3, wantCount: 3},
		{name: "limit above total", limit: 100, wantCount: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewHistoryHandler(history).Handle(ctx, tt.limit)

			require.NoError(t, err)
			assert.Len(t, result.Sessions, tt.wantCount)
			assert.Equal(t, "s-24", result.Sessions[0].ID)
			assert.Equal(t, 1, result.NotesTotal)
		})
	}
}

func TestHistoryHandler_Error(t *testing.T) {
	history := mocks.NewHistoryStore()
	history.Err = errors.New("database is locked")

	_, err := NewHistoryHandler(history).Handle(context.Background(), 5)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing sessions")
}
