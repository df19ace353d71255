package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/ersonp/anki-inject/internal/domain/services"
	"github.com/ersonp/anki-inject/internal/infrastructure/parsers"
)

// ImportHandler handles inserting cards from files.
type ImportHandler struct {
	service *services.ImportService
}

// NewImportHandler creates a new import handler.
func NewImportHandler(service *services.ImportService) *ImportHandler {
	return &ImportHandler{
		service: service,
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	Format string // "json", "csv", "tsv", or "auto"
	Deck   string // Target deck
	DryRun bool   // Validate without inserting
	Insert services.InsertOptions
}

// Handle imports cards from a file.
func (h *ImportHandler) Handle(ctx context.Context, filePath string, opts ImportOptions) (*services.ImportResult, error) {
	// Get parser
	var parser parsers.Parser
	if opts.Format == "" || opts.Format == "auto" {
		parser = parsers.ForFile(filePath)
	} else {
		parser = parsers.ForFormat(opts.Format)
	}

	if parser == nil {
		return nil, fmt.Errorf("unsupported format for file: %s", filePath)
	}

	// Open file
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	// Parse cards
	rawCards, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}

	if len(rawCards) == 0 {
		return &services.ImportResult{}, nil
	}

	return h.service.Import(ctx, opts.Deck, rawCards, services.ImportOptions{
		DryRun: opts.DryRun,
		Insert: opts.Insert,
	})
}
