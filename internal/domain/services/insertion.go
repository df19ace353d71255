package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ersonp/anki-inject/internal/domain/entities"
	"github.com/ersonp/anki-inject/internal/domain/ports"
	"github.com/ersonp/anki-inject/pkg/logger"
)

// duplicateMarker is the text the note store puts in errors for rejected duplicates.
const duplicateMarker = "duplicate"

// InsertOptions controls insert behavior.
type InsertOptions struct {
	SkipKnown    bool // Skip cards whose fingerprint is already recorded for the deck
	CheckSimilar bool // Look up similar indexed cards before adding
	SkipSimilar  bool // Do not add cards that have a similar indexed card
	SessionID    string
}

// InsertionService adds cards to the note store.
type InsertionService struct {
	store      ports.NoteStore
	history    ports.HistoryStore
	similarity *SimilarityService
}

// NewInsertionService creates a new insertion service. history and similarity may be nil.
func NewInsertionService(store ports.NoteStore, history ports.HistoryStore, similarity *SimilarityService) *InsertionService {
	return &InsertionService{
		store:      store,
		history:    history,
		similarity: similarity,
	}
}

// Ping checks that the note store is reachable.
func (s *InsertionService) Ping(ctx context.Context) error {
	if _, err := s.store.Version(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrNoteStoreUnavailable, err)
	}
	return nil
}

// Insert adds cards to a deck. Rejections are counted in the result; only an
// unreachable note store fails the whole call.
func (s *InsertionService) Insert(ctx context.Context, deck string, cards []entities.Card, opts InsertOptions) (*entities.InsertResult, error) {
	if strings.TrimSpace(deck) == "" {
		return nil, ErrEmptyDeckName
	}
	if err := s.Ping(ctx); err != nil {
		return nil, err
	}

	result := &entities.InsertResult{}
	var added []entities.Card
	for _, card := range cards {
		//nolint:loopcall // the note store adds one note per request
		outcome, msg := s.insertCard(ctx, deck, card, opts)
		result.Record(outcome, msg)
		if outcome == entities.NoteAdded {
			added = append(added, card)
		}
	}

	s.index(ctx, deck, added)
	return result, nil
}

// insertCard adds one card and classifies the outcome.
func (s *InsertionService) insertCard(ctx context.Context, deck string, card entities.Card, opts InsertOptions) (entities.NoteOutcome, string) {
	log := logger.FromContext(ctx)
	if card.IsEmpty() {
		return entities.NoteFailed, "card has neither front nor back"
	}
	fingerprint := card.Fingerprint()

	if opts.SkipKnown && s.history != nil {
		known, err := s.history.FindNoteByFingerprint(ctx, deck, fingerprint)
		if err != nil {
			log.Warn("Failed to look up card history", "err", err)
		} else if known != nil {
			return entities.NoteDuplicate, ""
		}
	}

	if opts.CheckSimilar && s.similarity != nil {
		match, err := s.similarity.Check(ctx, card)
		switch {
		case err != nil:
			log.Warn("Similarity check failed", "err", err)
		case match != nil:
			log.Info("Similar card exists", "front", card.Front, "match", match.Card.Front, "deck", match.Deck, "score", match.Score)
			if opts.SkipSimilar {
				return entities.NoteSimilar, ""
			}
		}
	}

	noteID, err := s.store.AddNote(ctx, deck, card)
	if err != nil {
		if IsDuplicateError(err) {
			return entities.NoteDuplicate, ""
		}
		return entities.NoteFailed, err.Error()
	}

	s.record(ctx, deck, card, noteID, fingerprint, opts.SessionID)
	return entities.NoteAdded, ""
}

func (s *InsertionService) record(ctx context.Context, deck string, card entities.Card, noteID int64, fingerprint, sessionID string) {
	if s.history == nil {
		return
	}
	log := logger.FromContext(ctx)
	note := &entities.Note{
		ID:          uuid.New().String(),
		NoteID:      noteID,
		Deck:        deck,
		Front:       card.Front,
		Back:        card.Back,
		Fingerprint: fingerprint,
		SessionID:   sessionID,
		CreatedAt:   time.Now(),
	}
	if err := s.history.SaveNote(ctx, note); err != nil {
		log.Warn("Failed to record note", "err", err)
	}
	details := map[string]any{"deck": deck, "note_id": noteID}
	if err := s.history.LogAction(ctx, entities.ActionNoteAdded, sessionID, details); err != nil {
		log.Warn("Failed to log note", "err", err)
	}
}

func (s *InsertionService) index(ctx context.Context, deck string, cards []entities.Card) {
	if s.similarity == nil || len(cards) == 0 {
		return
	}
	if err := s.similarity.Index(ctx, deck, cards); err != nil {
		logger.FromContext(ctx).Warn("Failed to index added cards", "err", err)
	}
}

// IsDuplicateError reports whether a note store error is a duplicate rejection.
func IsDuplicateError(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), duplicateMarker)
}

// InsertWorker inserts cards on its own goroutine so the producer is never
// blocked by the note store.
type InsertWorker struct {
	cards  chan entities.Card
	done   chan struct{}
	result entities.InsertResult
}

// StartWorker checks the note store and starts a worker adding cards to deck.
// The caller must call Close to wait for pending cards.
func (s *InsertionService) StartWorker(ctx context.Context, deck string, opts InsertOptions, buffer int) (*InsertWorker, error) {
	if strings.TrimSpace(deck) == "" {
		return nil, ErrEmptyDeckName
	}
	if err := s.Ping(ctx); err != nil {
		return nil, err
	}
	if buffer < 0 {
		buffer = 0
	}

	w := &InsertWorker{
		cards: make(chan entities.Card, buffer),
		done:  make(chan struct{}),
	}
	go func() {
		defer close(w.done)
		var added []entities.Card
		for card := range w.cards {
			if ctx.Err() != nil {
				w.result.Record(entities.NoteFailed, ctx.Err().Error())
				continue
			}
			outcome, msg := s.insertCard(ctx, deck, card, opts)
			w.result.Record(outcome, msg)
			if outcome == entities.NoteAdded {
				added = append(added, card)
			}
		}
		s.index(context.WithoutCancel(ctx), deck, added)
	}()
	return w, nil
}

// Submit queues a card. It must not be called after Close.
func (w *InsertWorker) Submit(card entities.Card) {
	w.cards <- card
}

// Close stops accepting cards, waits for the queue to drain, and returns the result.
func (w *InsertWorker) Close() *entities.InsertResult {
	close(w.cards)
	<-w.done
	result := w.result
	return &result
}
