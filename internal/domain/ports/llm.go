// Package ports defines interfaces for external service communication.
package ports

import (
	"context"

	"github.com/ersonp/anki-inject/internal/domain/entities"
)

// ChunkSource yields the text of a document as an ordered series of fragments.
// Next returns io.EOF once the source is exhausted. Fragment boundaries carry
// no meaning; a fragment may be empty or split any token.
type ChunkSource interface {
	// Next blocks until the next fragment is available.
	Next(ctx context.Context) ([]byte, error)

	// Close releases the source. It is safe to call before exhaustion.
	Close() error
}

// GenerateRequest describes one card generation call.
type GenerateRequest struct {
	Text         string
	Model        string
	SystemPrompt string
	// ArrayKey is the JSON field that holds the generated cards.
	ArrayKey string
}

// CardGenerator defines the interface for LLM card generation.
type CardGenerator interface {
	// StreamCards starts a generation and returns the raw response text as a chunk source.
	StreamCards(ctx context.Context, req GenerateRequest) (ChunkSource, error)

	// RefineCard rewrites a single card according to an instruction.
	RefineCard(ctx context.Context, card entities.Card, instruction, model string) (entities.Card, error)
}

// FragmentRecorder keeps a copy of every fragment a chunk source produced.
type FragmentRecorder interface {
	RecordFragment(fragment []byte) error
}
