// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/anki-inject/internal/domain/ports"
	"github.com/ersonp/anki-inject/internal/infrastructure/config"
)

// InitHandler handles first-time setup of the config directory.
type InitHandler struct {
	history     ports.HistoryStore
	collections ports.CollectionManager
	vectorSize  uint64
}

// NewInitHandler creates a new init handler. Both stores may be nil.
func NewInitHandler(history ports.HistoryStore, collections ports.CollectionManager, vectorSize uint64) *InitHandler {
	return &InitHandler{
		history:     history,
		collections: collections,
		vectorSize:  vectorSize,
	}
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath     string
	CollectionName string
}

// Handle writes the default config to dir and prepares the stores.
func (h *InitHandler) Handle(ctx context.Context, dir string) (*InitResult, error) {
	if config.Exists(dir) {
		return nil, fmt.Errorf("anki-inject already initialized in %s", dir)
	}

	if err := config.WriteDefault(dir); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if h.history != nil {
		if err := h.history.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("creating history schema: %w", err)
		}
	}

	result := &InitResult{ConfigPath: config.FilePath(dir)}
	if h.collections != nil {
		if err := h.collections.EnsureCollection(ctx, h.vectorSize); err != nil {
			return nil, fmt.Errorf("creating collection: %w", err)
		}
		result.CollectionName = cfg.Qdrant.CollectionName()
	}

	return result, nil
}
