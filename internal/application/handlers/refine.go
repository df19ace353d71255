package handlers

import (
	"context"
	"errors"

	"github.com/ersonp/anki-inject/internal/domain/entities"
	"github.com/ersonp/anki-inject/internal/domain/services"
)

// RefineHandler handles rewriting a single card.
type RefineHandler struct {
	service *services.GenerationService
}

// NewRefineHandler creates a new refine handler.
func NewRefineHandler(service *services.GenerationService) *RefineHandler {
	return &RefineHandler{service: service}
}

// RefineRequest describes a card to refine.
type RefineRequest struct {
	Front       string
	Back        string
	Instruction string
	Model       string
}

// Handle refines the card according to the instruction.
func (h *RefineHandler) Handle(ctx context.Context, req RefineRequest) (entities.Card, error) {
	card := entities.Card{Front: req.Front, Back: req.Back}
	if card.IsEmpty() {
		return entities.Card{}, errors.New("card has neither front nor back")
	}
	return h.service.Refine(ctx, card, req.Instruction, req.Model)
}
