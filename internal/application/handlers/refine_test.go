package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/anki-inject/internal/domain/entities"
	"github.com/ersonp/anki-inject/internal/domain/mocks"
	"github.com/ersonp/anki-inject/internal/domain/services"
)

func TestRefineHandler_Handle(t *testing.T) {
	tests := []struct {
		name      string
		req       RefineRequest
		wantErr   string
		wantCalls int
	}{
		{
			name:      "refines card",
			req:       RefineRequest{Front: "What is Go?", Back: "A language", Instruction: "add an example"},
			wantCalls: 1,
		},
		{
			name:    "empty card",
			req:     RefineRequest{Instruction: "shorter"},
			wantErr: "neither front nor back",
		},
		{
			name:    "empty instruction",
			req:     RefineRequest{Front: "What is Go?", Back: "A language"},
			wantErr: services.ErrEmptyInstruction.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mocks.CardGenerator{Refined: entities.Card{Front: "What is Go?", Back: "A language, e.g. `go run`"}}
			handler := NewRefineHandler(services.NewGenerationService(gen, nil, services.GenerationConfig{}))

			card, err := handler.Handle(context.Background(), tt.req)

			assert.Equal(t, tt.wantCalls, gen.RefineCallCount)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, gen.Refined, card)
		})
	}
}
