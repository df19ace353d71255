package parsers

import (
	"errors"
	"fmt"
	"io"

	"github.com/ersonp/anki-inject/internal/domain/cardstream"
	"github.com/ersonp/anki-inject/pkg/logger"
)

// ErrNoCards is returned when a JSON document holds no card array.
var ErrNoCards = errors.New("no card array found")

// JSONParser parses cards from a generated JSON document. It accepts
// {"cards": [...]}, a bare array, and documents wrapped in prose or code
// fences, the same way generation output is read.
type JSONParser struct {
	// ArrayKey is the field holding the cards. Defaults to "cards".
	ArrayKey string
}

// Parse reads JSON from the reader and returns parsed cards.
func (p *JSONParser) Parse(r io.Reader) ([]RawCard, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading JSON: %w", err)
	}

	extractor := cardstream.NewExtractor(
		cardstream.WithArrayKey(p.ArrayKey),
		cardstream.WithLogger(logger.NewNop()),
	)
	records, err := extractor.Process(data)
	stats := extractor.Flush()
	if err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if !stats.Located() {
		return nil, fmt.Errorf("parsing JSON: %w", ErrNoCards)
	}

	cards := make([]RawCard, len(records))
	for i, rec := range records {
		cards[i] = RawCard{
			Front:   rec.Front,
			Back:    rec.Back,
			Extra:   rec.Extra,
			LineNum: i + 1,
		}
	}
	return cards, nil
}
