// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"

	"github.com/ersonp/anki-inject/internal/domain/cardstream"
	"github.com/ersonp/anki-inject/internal/domain/entities"
	"github.com/ersonp/anki-inject/internal/domain/ports"
)

// CardGenerator is a mock implementation of ports.CardGenerator.
type CardGenerator struct {
	// Responses are returned in order, one per StreamCards call, each split into fragments.
	// The last response is reused once the list is exhausted.
	Responses [][]string
	StreamErr error

	// RefineCard return values
	Refined   entities.Card
	RefineErr error

	// Call tracking
	Requests        []ports.GenerateRequest
	Sources         []*cardstream.FragmentSource
	RefineCallCount int
}

// StreamCards returns the next configured response as a fragment source.
func (m *CardGenerator) StreamCards(ctx context.Context, req ports.GenerateRequest) (ports.ChunkSource, error) {
	m.Requests = append(m.Requests, req)
	if m.StreamErr != nil {
		return nil, m.StreamErr
	}

	var fragments []string
	if n := len(m.Responses); n > 0 {
		idx := len(m.Requests) - 1
		if idx >= n {
			idx = n - 1
		}
		fragments = m.Responses[idx]
	}
	src := cardstream.NewFragmentSource(fragments...)
	m.Sources = append(m.Sources, src)
	return src, nil
}

// RefineCard returns the configured card or error.
func (m *CardGenerator) RefineCard(ctx context.Context, card entities.Card, instruction, model string) (entities.Card, error) {
	m.RefineCallCount++
	if m.RefineErr != nil {
		return entities.Card{}, m.RefineErr
	}
	return m.Refined, nil
}
