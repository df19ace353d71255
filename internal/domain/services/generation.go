// Package services contains domain business logic.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ersonp/anki-inject/internal/domain/cardstream"
	"github.com/ersonp/anki-inject/internal/domain/entities"
	"github.com/ersonp/anki-inject/internal/domain/ports"
	"github.com/ersonp/anki-inject/pkg/logger"
)

// GenerationConfig holds the defaults applied to every generation.
type GenerationConfig struct {
	Model        string
	SystemPrompt string
	ArrayKey     string
	ChunkSize    int
	ChunkOverlap int
}

// GenerateInput describes one generation run.
type GenerateInput struct {
	Text string
	// Source names where the text came from, e.g. a file path or "clipboard".
	Source       string
	Model        string
	SystemPrompt string
	// Recorder, when set, receives every raw response fragment.
	Recorder ports.FragmentRecorder
}

// GenerationService turns text into flashcards through a streaming generator.
type GenerationService struct {
	generator ports.CardGenerator
	history   ports.HistoryStore
	cfg       GenerationConfig
}

// NewGenerationService creates a new generation service. history may be nil.
func NewGenerationService(generator ports.CardGenerator, history ports.HistoryStore, cfg GenerationConfig) *GenerationService {
	if cfg.ArrayKey == "" {
		cfg.ArrayKey = cardstream.DefaultArrayKey
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 0
	}
	return &GenerationService{
		generator: generator,
		history:   history,
		cfg:       cfg,
	}
}

// Stream generates cards for in.Text and calls emit for each card as soon as
// it is complete. Long inputs are split into chunks. With a non-zero overlap a
// card already emitted for an earlier chunk is not emitted again; repeats
// within one chunk are always kept. If emit returns ErrStopGeneration the run
// ends early and the session is returned without error.
func (s *GenerationService) Stream(ctx context.Context, in GenerateInput, emit func(entities.Card) error) (*entities.Session, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, ErrEmptyInput
	}
	chunks := func(fn func(string) error) error {
		for _, chunk := range ChunkText(in.Text, s.cfg.ChunkSize, s.cfg.ChunkOverlap) {
			if err := fn(chunk); err != nil {
				return err
			}
		}
		return nil
	}
	return s.run(ctx, in, chunks, emit)
}

// StreamReader is Stream for text read from r. Only one chunk of input is held in memory.
func (s *GenerationService) StreamReader(ctx context.Context, r io.Reader, in GenerateInput, emit func(entities.Card) error) (*entities.Session, error) {
	chunks := func(fn func(string) error) error {
		return ChunkReader(r, s.cfg.ChunkSize, s.cfg.ChunkOverlap, fn)
	}
	return s.run(ctx, in, chunks, emit)
}

// Generate collects every card of a generation.
func (s *GenerationService) Generate(ctx context.Context, in GenerateInput) ([]entities.Card, *entities.Session, error) {
	var cards []entities.Card
	session, err := s.Stream(ctx, in, func(card entities.Card) error {
		cards = append(cards, card)
		return nil
	})
	return cards, session, err
}

// Refine rewrites one card according to an instruction.
func (s *GenerationService) Refine(ctx context.Context, card entities.Card, instruction, model string) (entities.Card, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return entities.Card{}, ErrEmptyInstruction
	}
	if model == "" {
		model = s.cfg.Model
	}

	refined, err := s.generator.RefineCard(ctx, card, instruction, model)
	if err != nil {
		return entities.Card{}, fmt.Errorf("refining card: %w", err)
	}
	if refined.IsEmpty() {
		return entities.Card{}, errors.New("refined card is empty")
	}

	if s.history != nil {
		details := map[string]any{
			"instruction": instruction,
			"model":       model,
			"fingerprint": card.Fingerprint(),
		}
		if err := s.history.LogAction(ctx, entities.ActionCardRefined, "", details); err != nil {
			logger.FromContext(ctx).Warn("Failed to log refine", "err", err)
		}
	}
	return refined, nil
}

// run drives one session over the chunks produced by forEachChunk.
func (s *GenerationService) run(
	ctx context.Context,
	in GenerateInput,
	forEachChunk func(func(string) error) error,
	emit func(entities.Card) error,
) (*entities.Session, error) {
	session := s.startSession(ctx, in)
	log := logger.FromContext(ctx).With("session", session.ID)

	// earlier holds fingerprints from finished chunks, current those of the chunk in flight.
	earlier := make(map[string]struct{})
	current := make(map[string]struct{})
	dedup := s.cfg.ChunkOverlap > 0
	deliver := func(card entities.Card) error {
		if card.IsEmpty() {
			log.Debug("Dropping card without front or back")
			return nil
		}
		if dedup {
			fp := card.Fingerprint()
			if _, dup := earlier[fp]; dup {
				log.Debug("Dropping card repeated from an earlier chunk", "front", card.Front)
				return nil
			}
			current[fp] = struct{}{}
		}
		session.CardsEmitted++
		return emit(card)
	}

	index := 0
	err := forEachChunk(func(chunk string) error {
		req := s.request(in, chunk)
		//nolint:loopcall // LLM has token limits, chunks are generated separately
		stats, err := s.streamChunk(ctx, req, in.Recorder, log, deliver)
		session.SpansSkipped += stats.SkippedSpans
		if err != nil {
			return fmt.Errorf("generating chunk %d: %w", index, err)
		}
		log.Debug("Chunk done", "chunk", index, "cards", stats.Records, "skipped", stats.SkippedSpans)
		for fp := range current {
			earlier[fp] = struct{}{}
		}
		clear(current)
		index++
		return nil
	})

	s.finishSession(ctx, session, err)
	if errors.Is(err, ErrStopGeneration) {
		return session, nil
	}
	return session, err
}

func (s *GenerationService) streamChunk(
	ctx context.Context,
	req ports.GenerateRequest,
	rec ports.FragmentRecorder,
	log logger.Logger,
	deliver func(entities.Card) error,
) (cardstream.Stats, error) {
	src, err := s.generator.StreamCards(ctx, req)
	if err != nil {
		return cardstream.Stats{}, fmt.Errorf("starting stream: %w", err)
	}
	if rec != nil {
		src = &recordingSource{ChunkSource: src, rec: rec}
	}

	extractor := cardstream.NewExtractor(
		cardstream.WithArrayKey(req.ArrayKey),
		cardstream.WithLogger(log),
	)
	var streamErr error
	for card, err := range extractor.Stream(ctx, src) {
		if err != nil {
			streamErr = err
			break
		}
		if err := deliver(card); err != nil {
			streamErr = err
			break
		}
	}

	stats := extractor.Stats()
	if streamErr == nil && !stats.Located() {
		log.Warn("Response contained no card array", "bytes", stats.Bytes)
	}
	return stats, streamErr
}

func (s *GenerationService) request(in GenerateInput, chunk string) ports.GenerateRequest {
	req := ports.GenerateRequest{
		Text:         chunk,
		Model:        in.Model,
		SystemPrompt: in.SystemPrompt,
		ArrayKey:     s.cfg.ArrayKey,
	}
	if req.Model == "" {
		req.Model = s.cfg.Model
	}
	if req.SystemPrompt == "" {
		req.SystemPrompt = s.cfg.SystemPrompt
	}
	return req
}

func (s *GenerationService) startSession(ctx context.Context, in GenerateInput) *entities.Session {
	model := in.Model
	if model == "" {
		model = s.cfg.Model
	}
	session := &entities.Session{
		ID:        uuid.New().String(),
		Model:     model,
		Source:    in.Source,
		Status:    entities.SessionRunning,
		StartedAt: time.Now(),
	}
	if s.history == nil {
		return session
	}

	log := logger.FromContext(ctx)
	if err := s.history.SaveSession(ctx, session); err != nil {
		log.Warn("Failed to save session", "err", err)
	}
	details := map[string]any{"model": model, "source": in.Source}
	if err := s.history.LogAction(ctx, entities.ActionSessionStarted, session.ID, details); err != nil {
		log.Warn("Failed to log session start", "err", err)
	}
	return session
}

func (s *GenerationService) finishSession(ctx context.Context, session *entities.Session, runErr error) {
	now := time.Now()
	session.FinishedAt = &now
	switch {
	case runErr == nil:
		session.Status = entities.SessionCompleted
	case errors.Is(runErr, ErrStopGeneration), errors.Is(runErr, context.Canceled):
		session.Status = entities.SessionCancelled
	default:
		session.Status = entities.SessionFailed
		session.Error = runErr.Error()
	}

	if s.history == nil {
		return
	}
	// The run context may already be cancelled.
	if err := s.history.SaveSession(context.WithoutCancel(ctx), session); err != nil {
		logger.FromContext(ctx).Warn("Failed to save session", "err", err)
	}
}

// recordingSource passes every fragment to a recorder before returning it.
type recordingSource struct {
	ports.ChunkSource
	rec ports.FragmentRecorder
}

func (r *recordingSource) Next(ctx context.Context) ([]byte, error) {
	fragment, err := r.ChunkSource.Next(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.rec.RecordFragment(fragment); err != nil {
		return nil, fmt.Errorf("recording fragment: %w", err)
	}
	return fragment, nil
}
