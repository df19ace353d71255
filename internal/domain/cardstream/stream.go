package cardstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/ersonp/anki-inject/internal/domain/entities"
	"github.com/ersonp/anki-inject/internal/domain/ports"
)

// Stream returns an iterator over the cards of src, pulling one fragment at a
// time. Iteration ends at io.EOF, at the first error, or when the consumer
// stops; in every case src is closed and the session flushed. The sequence can
// be ranged over once.
func (e *Extractor) Stream(ctx context.Context, src ports.ChunkSource) iter.Seq2[entities.Card, error] {
	return func(yield func(entities.Card, error) bool) {
		defer e.Flush()
		defer src.Close()

		for {
			fragment, err := src.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(entities.Card{}, fmt.Errorf("reading chunk: %w", err))
				return
			}

			cards, err := e.Process(fragment)
			if err != nil {
				yield(entities.Card{}, err)
				return
			}
			for _, card := range cards {
				if !yield(card, nil) {
					return
				}
			}
		}
	}
}

// Stream runs a new extraction session over src.
func Stream(ctx context.Context, src ports.ChunkSource, opts ...Option) iter.Seq2[entities.Card, error] {
	return NewExtractor(opts...).Stream(ctx, src)
}

// Drain collects every card from src in order. On error the cards extracted
// before it are returned along with it.
func Drain(ctx context.Context, src ports.ChunkSource, opts ...Option) ([]entities.Card, error) {
	var cards []entities.Card
	for card, err := range Stream(ctx, src, opts...) {
		if err != nil {
			return cards, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// Collect extracts every card from a complete document.
func Collect(document string, opts ...Option) ([]entities.Card, error) {
	e := NewExtractor(opts...)
	cards, err := e.ProcessString(document)
	e.Flush()
	return cards, err
}
