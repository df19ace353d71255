package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ersonp/anki-inject/internal/domain/entities"
	"github.com/ersonp/anki-inject/internal/infrastructure/parsers"
)

// MaxFieldLength is the longest front or back accepted on import.
const MaxFieldLength = 131072

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun bool // Validate without inserting
	Insert InsertOptions
}

// ImportError represents an error for a specific card during import.
type ImportError struct {
	Line    int    // Line number (1-indexed, 0 if unknown)
	Field   string // Which field has the error
	Message string // Human-readable error message
}

func (e ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Valid  int
	Insert *entities.InsertResult
	Errors []ImportError
}

// ImportService validates parsed cards and hands them to the insertion service.
type ImportService struct {
	inserter *InsertionService
}

// NewImportService creates a new import service.
func NewImportService(inserter *InsertionService) *ImportService {
	return &ImportService{inserter: inserter}
}

// Import validates raw cards and inserts the valid ones into deck.
func (s *ImportService) Import(ctx context.Context, deck string, rawCards []parsers.RawCard, opts ImportOptions) (*ImportResult, error) {
	cards, validationErrors := ValidateCards(rawCards)
	result := &ImportResult{Valid: len(cards), Errors: validationErrors}

	if len(cards) == 0 || opts.DryRun {
		return result, nil
	}

	insert, err := s.inserter.Insert(ctx, deck, cards, opts.Insert)
	if err != nil {
		return nil, fmt.Errorf("inserting cards: %w", err)
	}
	result.Insert = insert
	return result, nil
}

// ValidateCards converts raw cards and returns valid ones with any errors.
func ValidateCards(rawCards []parsers.RawCard) ([]entities.Card, []ImportError) {
	valid := make([]entities.Card, 0, len(rawCards))
	var errs []ImportError

	for i := range rawCards {
		raw := &rawCards[i]
		lineNum := raw.LineNum
		if lineNum == 0 {
			lineNum = i + 1
		}

		if err := validateRawCard(raw, lineNum); err != nil {
			errs = append(errs, *err)
			continue
		}

		valid = append(valid, entities.Card{
			Front: strings.TrimSpace(raw.Front),
			Back:  strings.TrimSpace(raw.Back),
			Extra: raw.Extra,
		})
	}

	return valid, errs
}

// validateRawCard validates a single raw card and returns an error if invalid.
func validateRawCard(raw *parsers.RawCard, lineNum int) *ImportError {
	if strings.TrimSpace(raw.Front) == "" {
		return &ImportError{Line: lineNum, Field: entities.FieldFront, Message: "missing required field: front"}
	}
	if strings.TrimSpace(raw.Back) == "" {
		return &ImportError{Line: lineNum, Field: entities.FieldBack, Message: "missing required field: back"}
	}
	if len(raw.Front) > MaxFieldLength {
		return &ImportError{Line: lineNum, Field: entities.FieldFront, Message: fmt.Sprintf("front exceeds %d bytes", MaxFieldLength)}
	}
	if len(raw.Back) > MaxFieldLength {
		return &ImportError{Line: lineNum, Field: entities.FieldBack, Message: fmt.Sprintf("back exceeds %d bytes", MaxFieldLength)}
	}
	return nil
}
