package entities

import "time"

// NoteOutcome is the result of inserting one card into the note store.
type NoteOutcome string

// Note outcomes.
const (
	NoteAdded     NoteOutcome = "added"
	NoteDuplicate NoteOutcome = "duplicate"
	NoteSimilar   NoteOutcome = "similar"
	NoteFailed    NoteOutcome = "failed"
)

// Note is a card that was accepted by the note store.
type Note struct {
	ID          string    `json:"id"`
	NoteID      int64     `json:"note_id"`
	Deck        string    `json:"deck"`
	Front       string    `json:"front"`
	Back        string    `json:"back"`
	Fingerprint string    `json:"fingerprint"`
	SessionID   string    `json:"session_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SimilarMatch describes an indexed card close to a candidate card.
type SimilarMatch struct {
	Card  Card    `json:"card"`
	Deck  string  `json:"deck"`
	Score float32 `json:"score"`
}

// InsertResult summarizes inserting a batch of cards.
type InsertResult struct {
	Added      int      `json:"added"`
	Duplicates int      `json:"duplicates"`
	Similar    int      `json:"similar"`
	Errors     []string `json:"errors,omitempty"`
}

// Record adds one outcome to the result.
func (r *InsertResult) Record(outcome NoteOutcome, msg string) {
	switch outcome {
	case NoteAdded:
		r.Added++
	case NoteDuplicate:
		r.Duplicates++
	case NoteSimilar:
		r.Similar++
	case NoteFailed:
		r.Errors = append(r.Errors, msg)
	}
}

// Total returns the number of cards the result accounts for.
func (r *InsertResult) Total() int {
	return r.Added + r.Duplicates + r.Similar + len(r.Errors)
}
