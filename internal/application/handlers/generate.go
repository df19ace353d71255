package handlers

import (
	"context"
	"fmt"
	"io"

	"github.com/ersonp/anki-inject/internal/domain/entities"
	"github.com/ersonp/anki-inject/internal/domain/services"
	"github.com/ersonp/anki-inject/internal/infrastructure/transcript"
	"github.com/ersonp/anki-inject/pkg/logger"
)

// DefaultInsertBuffer is the number of cards queued for the insert worker.
const DefaultInsertBuffer = 16

// GenerateHandler handles card generation, optionally inserting while streaming.
type GenerateHandler struct {
	generation *services.GenerationService
	insertion  *services.InsertionService
}

// NewGenerateHandler creates a new generate handler. insertion may be nil
// when no note store is configured.
func NewGenerateHandler(generation *services.GenerationService, insertion *services.InsertionService) *GenerateHandler {
	return &GenerateHandler{
		generation: generation,
		insertion:  insertion,
	}
}

// GenerateOptions controls generation behavior.
type GenerateOptions struct {
	Source       string // Where the text came from, e.g. a path or "clipboard"
	Model        string // Overrides the configured model
	SystemPrompt string // Overrides the configured prompt
	Deck         string // Insert cards into this deck as they arrive
	Insert       services.InsertOptions
	RecordPath   string // Write a transcript of the raw response here
}

// GenerateResult contains the result of a generation.
type GenerateResult struct {
	Session    *entities.Session
	Cards      int
	Insert     *entities.InsertResult
	Transcript string
}

// Handle generates cards from text and calls emit for each one in order.
func (h *GenerateHandler) Handle(ctx context.Context, text string, opts GenerateOptions, emit func(entities.Card) error) (*GenerateResult, error) {
	return h.handle(ctx, opts, emit, func(in services.GenerateInput, emit func(entities.Card) error) (*entities.Session, error) {
		in.Text = text
		return h.generation.Stream(ctx, in, emit)
	})
}

// HandleReader is Handle for text read from r.
func (h *GenerateHandler) HandleReader(ctx context.Context, r io.Reader, opts GenerateOptions, emit func(entities.Card) error) (*GenerateResult, error) {
	return h.handle(ctx, opts, emit, func(in services.GenerateInput, emit func(entities.Card) error) (*entities.Session, error) {
		return h.generation.StreamReader(ctx, r, in, emit)
	})
}

type streamFunc func(in services.GenerateInput, emit func(entities.Card) error) (*entities.Session, error)

func (h *GenerateHandler) handle(ctx context.Context, opts GenerateOptions, emit func(entities.Card) error, stream streamFunc) (*GenerateResult, error) {
	in := services.GenerateInput{
		Source:       opts.Source,
		Model:        opts.Model,
		SystemPrompt: opts.SystemPrompt,
	}
	result := &GenerateResult{}

	if opts.RecordPath != "" {
		w, err := transcript.Create(opts.RecordPath)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := w.Close(); err != nil {
				logger.FromContext(ctx).Warn("Failed to close transcript", "path", opts.RecordPath, "err", err)
			}
		}()
		in.Recorder = w
		result.Transcript = opts.RecordPath
	}

	var worker *services.InsertWorker
	if opts.Deck != "" {
		if h.insertion == nil {
			return nil, services.ErrNoteStoreUnavailable
		}
		w, err := h.insertion.StartWorker(ctx, opts.Deck, opts.Insert, DefaultInsertBuffer)
		if err != nil {
			return nil, err
		}
		worker = w
	}

	session, err := stream(in, func(card entities.Card) error {
		result.Cards++
		if err := emit(card); err != nil {
			return err
		}
		if worker != nil {
			worker.Submit(card)
		}
		return nil
	})
	if worker != nil {
		result.Insert = worker.Close()
	}
	result.Session = session
	if err != nil {
		return result, fmt.Errorf("generating cards: %w", err)
	}
	return result, nil
}
