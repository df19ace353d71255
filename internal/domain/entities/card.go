// Package entities contains core domain data structures.
package entities

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Field names of a card inside the generated JSON document.
const (
	FieldFront = "front"
	FieldBack  = "back"
)

// Card is a single flashcard extracted from a generated document.
type Card struct {
	Front string `json:"front"`
	Back  string `json:"back"`
	// Extra holds any other flat fields the generator emitted.
	Extra map[string]string `json:"extra,omitempty"`
}

// Field returns the named field of the card and whether it is set.
func (c Card) Field(name string) (string, bool) {
	switch name {
	case FieldFront:
		return c.Front, c.Front != ""
	case FieldBack:
		return c.Back, c.Back != ""
	}
	v, ok := c.Extra[name]
	return v, ok
}

// IsEmpty reports whether the card has neither a front nor a back.
func (c Card) IsEmpty() bool {
	return strings.TrimSpace(c.Front) == "" && strings.TrimSpace(c.Back) == ""
}

// Clone returns a copy of the card that shares no memory with c.
func (c Card) Clone() Card {
	out := Card{Front: c.Front, Back: c.Back}
	if len(c.Extra) > 0 {
		out.Extra = make(map[string]string, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Text returns the card content as a single string for embeddings.
func (c Card) Text() string {
	return strings.TrimSpace(c.Front + "\n" + c.Back)
}

// Fingerprint returns a content hash of the card.
// Case and whitespace differences do not change the fingerprint.
func (c Card) Fingerprint() string {
	h := xxhash.New()
	_, _ = h.WriteString(normalizeCardText(c.Front))
	_, _ = h.WriteString("\x1f")
	_, _ = h.WriteString(normalizeCardText(c.Back))
	return strconv.FormatUint(h.Sum64(), 16)
}

func normalizeCardText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
