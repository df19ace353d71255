package handlers

import (
	"context"

	"github.com/ersonp/anki-inject/internal/domain/services"
)

// DecksHandler handles deck listing and creation.
type DecksHandler struct {
	service *services.DeckService
}

// NewDecksHandler creates a new decks handler.
func NewDecksHandler(service *services.DeckService) *DecksHandler {
	return &DecksHandler{service: service}
}

// CreateDeckResult contains the result of creating a deck.
type CreateDeckResult struct {
	Name    string
	ID      int64
	Existed bool
}

// List returns the deck names in alphabetical order.
func (h *DecksHandler) List(ctx context.Context) ([]string, error) {
	return h.service.List(ctx)
}

// Create creates a deck, reporting whether it already existed.
func (h *DecksHandler) Create(ctx context.Context, name string) (*CreateDeckResult, error) {
	existed, err := h.service.Exists(ctx, name)
	if err != nil {
		return nil, err
	}

	id, err := h.service.Create(ctx, name)
	if err != nil {
		return nil, err
	}

	return &CreateDeckResult{Name: name, ID: id, Existed: existed}, nil
}
