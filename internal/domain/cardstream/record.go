package cardstream

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/ersonp/anki-inject/internal/domain/entities"
)

var errMalformedSpan = errors.New("span is not a valid JSON object")

// decodeRecord parses one candidate span into a card. The returned card does
// not share memory with span.
func decodeRecord(span []byte) (entities.Card, error) {
	if !gjson.ValidBytes(span) {
		return entities.Card{}, errMalformedSpan
	}

	var fields map[string]any
	if err := json.Unmarshal(span, &fields); err != nil {
		return entities.Card{}, fmt.Errorf("decoding record: %w", err)
	}
	if fields == nil {
		return entities.Card{}, errMalformedSpan
	}

	var card entities.Card
	for key, raw := range fields {
		value := strings.Clone(valueToString(raw))
		switch key {
		case entities.FieldFront:
			card.Front = value
		case entities.FieldBack:
			card.Back = value
		default:
			if card.Extra == nil {
				card.Extra = make(map[string]string)
			}
			card.Extra[strings.Clone(key)] = value
		}
	}
	return card, nil
}

// valueToString converts a decoded JSON value to its field text (handles numbers from LLM).
func valueToString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		// Nested values are kept as their JSON text.
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}
