package main

import (
	"context"
	"fmt"

	"github.com/ersonp/anki-inject/internal/application/handlers"
	"github.com/ersonp/anki-inject/internal/domain/services"
	"github.com/ersonp/anki-inject/internal/infrastructure/config"
	embedder "github.com/ersonp/anki-inject/internal/infrastructure/embedder/openai"
	llm "github.com/ersonp/anki-inject/internal/infrastructure/llm/openai"
	"github.com/ersonp/anki-inject/internal/infrastructure/notestore/ankiconnect"
	"github.com/ersonp/anki-inject/internal/infrastructure/relationaldb/sqlite"
	"github.com/ersonp/anki-inject/internal/infrastructure/vectordb/qdrant"
	"github.com/ersonp/anki-inject/pkg/logger"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config   *config.Config
	Dir      string
	Generate *handlers.GenerateHandler
	Refine   *handlers.RefineHandler
	Import   *handlers.ImportHandler
	Decks    *handlers.DecksHandler
	History  *handlers.HistoryHandler
}

// depsOptions selects which optional components a command needs.
type depsOptions struct {
	// generator requires an LLM API key.
	generator bool
}

// withDeps loads config and builds dependencies, then calls the provided function.
// It handles cleanup automatically.
func withDeps(ctx context.Context, opts depsOptions, fn func(*Deps) error) error {
	log := logger.FromContext(ctx)

	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	history, err := sqlite.NewRepository(config.SQLiteConfig{Path: cfg.HistoryPath(configDir)})
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}
	defer history.Close()

	if err := history.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring history schema: %w", err)
	}

	similarity, cleanup, err := buildSimilarity(cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	if similarity == nil {
		log.Debug("Similar-card detection disabled")
	}

	store := ankiconnect.NewClient(cfg.Anki)
	insertion := services.NewInsertionService(store, history, similarity)

	deps := &Deps{
		Config:  cfg,
		Dir:     configDir,
		Import:  handlers.NewImportHandler(services.NewImportService(insertion)),
		Decks:   handlers.NewDecksHandler(services.NewDeckService(store, history)),
		History: handlers.NewHistoryHandler(history),
	}

	if opts.generator {
		client, err := llm.NewClient(cfg.LLM)
		if err != nil {
			return fmt.Errorf("creating llm client: %w", err)
		}
		generation := services.NewGenerationService(client, history, services.GenerationConfig{
			Model:        cfg.LLM.Model,
			SystemPrompt: cfg.LLM.Prompt(),
			ArrayKey:     cfg.LLM.ArrayKey,
			ChunkSize:    cfg.LLM.ChunkSize,
			ChunkOverlap: cfg.LLM.ChunkOverlap,
		})
		deps.Generate = handlers.NewGenerateHandler(generation, insertion)
		deps.Refine = handlers.NewRefineHandler(generation)
	}

	return fn(deps)
}

// buildSimilarity wires the embedder and Qdrant index when enabled.
func buildSimilarity(cfg *config.Config) (*services.SimilarityService, func(), error) {
	if !cfg.Qdrant.Enabled {
		return nil, func() {}, nil
	}

	emb, err := embedder.NewEmbedder(cfg.Embedder)
	if err != nil {
		return nil, nil, fmt.Errorf("creating embedder: %w", err)
	}

	repo, err := qdrant.NewRepository(cfg.Qdrant)
	if err != nil {
		return nil, nil, fmt.Errorf("creating qdrant repository: %w", err)
	}

	service := services.NewSimilarityService(emb, repo, repo, cfg.Qdrant.Threshold)
	return service, func() { repo.Close() }, nil
}

// vectorSize returns the embedding size for a new collection.
func vectorSize(cfg *config.Config) uint64 {
	if cfg.Embedder.Dimensions > 0 {
		return uint64(cfg.Embedder.Dimensions)
	}
	return embedder.VectorSize
}
