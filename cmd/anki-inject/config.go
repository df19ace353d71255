package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ersonp/anki-inject/internal/application/handlers"
	"github.com/ersonp/anki-inject/internal/domain/ports"
	"github.com/ersonp/anki-inject/internal/infrastructure/config"
	"github.com/ersonp/anki-inject/internal/infrastructure/relationaldb/sqlite"
	"github.com/ersonp/anki-inject/internal/infrastructure/vectordb/qdrant"
)

// maskedKey replaces credentials in config show output.
const maskedKey = "********"

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		RunE:  runConfigShow,
	}

	cmd.AddCommand(
		newConfigInitCmd(),
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			RunE:  runConfigShow,
		},
		&cobra.Command{
			Use:   "set-key KEY",
			Short: "Store the LLM API key in the config file",
			Args:  cobra.ExactArgs(1),
			RunE:  runConfigSetKey,
		},
		newPresetsCmd(),
		newIndexCmd(),
	)

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var withQdrant bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the config directory with default settings",
		Long:  "Writes a default config.yaml, creates the history database and, with --qdrant, the similar-card collection.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd, withQdrant)
		},
	}

	cmd.Flags().BoolVar(&withQdrant, "qdrant", false, "Enable similar-card detection and create the Qdrant collection")

	return cmd
}

func runConfigInit(cmd *cobra.Command, withQdrant bool) error {
	ctx := cmd.Context()

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	cfg := config.Default()
	history, err := sqlite.NewRepository(config.SQLiteConfig{Path: cfg.HistoryPath(configDir)})
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}
	defer history.Close()

	var collections ports.CollectionManager
	if withQdrant {
		repo, err := qdrant.NewRepository(cfg.Qdrant)
		if err != nil {
			return fmt.Errorf("connecting to qdrant: %w", err)
		}
		defer repo.Close()
		collections = repo
	}

	result, err := handlers.NewInitHandler(history, collections, vectorSize(cfg)).Handle(ctx, configDir)
	if err != nil {
		return err
	}
	fmt.Printf("Created %s\n", result.ConfigPath)

	if withQdrant {
		err := config.Update(configDir, func(cfg *config.Config) {
			cfg.Qdrant.Enabled = true
		})
		if err != nil {
			return fmt.Errorf("enabling qdrant: %w", err)
		}
		fmt.Printf("Created Qdrant collection: %s\n", result.CollectionName)
	}

	fmt.Println("anki-inject initialized successfully!")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	for _, key := range []*string{&cfg.LLM.APIKey, &cfg.Embedder.APIKey, &cfg.Qdrant.APIKey} {
		if *key != "" {
			*key = maskedKey
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	fmt.Printf("# %s\n", config.FilePath(configDir))
	fmt.Print(string(data))
	return nil
}

func runConfigSetKey(cmd *cobra.Command, args []string) error {
	key := strings.TrimSpace(args[0])
	if key == "" {
		return errors.New("API key is empty")
	}

	if err := config.SetAPIKey(configDir, key); err != nil {
		return fmt.Errorf("saving API key: %w", err)
	}

	fmt.Printf("API key saved to %s\n", config.FilePath(configDir))
	return nil
}

func newPresetsCmd() *cobra.Command {
	var (
		description string
		model       string
	)

	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Manage system prompt presets",
		RunE:  runPresetsList,
	}

	addCmd := &cobra.Command{
		Use:   "add NAME PROMPT",
		Short: "Save a prompt preset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPresetsAdd(args[0], config.PromptPreset{
				Prompt:      args[1],
				Description: description,
				Model:       model,
			})
		},
	}
	addCmd.Flags().StringVarP(&description, "description", "d", "", "Preset description")
	addCmd.Flags().StringVarP(&model, "model", "m", "", "Model to use with this preset")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List prompt presets",
			RunE:  runPresetsList,
		},
		addCmd,
		&cobra.Command{
			Use:   "remove NAME",
			Short: "Remove a prompt preset",
			Args:  cobra.ExactArgs(1),
			RunE:  runPresetsRemove,
		},
	)

	return cmd
}

func runPresetsList(cmd *cobra.Command, args []string) error {
	prompts, err := config.LoadPrompts(configDir)
	if err != nil {
		return fmt.Errorf("loading prompts: %w", err)
	}

	names := prompts.Names()
	if len(names) == 0 {
		fmt.Println("No presets saved.")
		fmt.Println("Use 'anki-inject config presets add NAME PROMPT' to create one.")
		return nil
	}

	fmt.Printf("%-20s %-22s %s\n", "NAME", "MODEL", "DESCRIPTION")
	fmt.Printf("%-20s %-22s %s\n", "----", "-----", "-----------")
	for _, name := range names {
		p := prompts.Presets[name]
		fmt.Printf("%-20s %-22s %s\n", name, p.Model, p.Description)
	}
	return nil
}

func runPresetsAdd(name string, preset config.PromptPreset) error {
	prompts, err := config.LoadPrompts(configDir)
	if err != nil {
		return fmt.Errorf("loading prompts: %w", err)
	}

	if prompts.Exists(name) {
		return fmt.Errorf("preset %q already exists", name)
	}
	if err := prompts.Add(name, preset); err != nil {
		return err
	}
	if err := prompts.Save(configDir); err != nil {
		return fmt.Errorf("saving prompts: %w", err)
	}

	fmt.Printf("Saved preset %q\n", name)
	return nil
}

func runPresetsRemove(cmd *cobra.Command, args []string) error {
	name := args[0]
	prompts, err := config.LoadPrompts(configDir)
	if err != nil {
		return fmt.Errorf("loading prompts: %w", err)
	}

	if !prompts.Exists(name) {
		return fmt.Errorf("preset %q not found", name)
	}
	prompts.Remove(name)
	if err := prompts.Save(configDir); err != nil {
		return fmt.Errorf("saving prompts: %w", err)
	}

	fmt.Printf("Removed preset %q\n", name)
	return nil
}

func newIndexCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Inspect the similar-card index",
		RunE:  runIndexStatus,
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all indexed cards",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndexReset(cmd, force)
		},
	}
	resetCmd.Flags().BoolVarP(&force, "force", "f", false, "Delete even if the index contains cards")

	cmd.AddCommand(resetCmd)

	return cmd
}

// withIndex opens the configured Qdrant collection.
func withIndex(fn func(repo *qdrant.Repository, cfg *config.Config) error) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cfg.Qdrant.Enabled {
		return fmt.Errorf("similar-card detection is disabled (set qdrant.enabled in %s)", config.FilePath(configDir))
	}

	repo, err := qdrant.NewRepository(cfg.Qdrant)
	if err != nil {
		return fmt.Errorf("connecting to qdrant: %w", err)
	}
	defer repo.Close()

	return fn(repo, cfg)
}

func runIndexStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withIndex(func(repo *qdrant.Repository, cfg *config.Config) error {
		count, err := repo.Count(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Collection %s: %d indexed cards\n", cfg.Qdrant.CollectionName(), count)
		return nil
	})
}

func runIndexReset(cmd *cobra.Command, force bool) error {
	ctx := cmd.Context()

	return withIndex(func(repo *qdrant.Repository, cfg *config.Config) error {
		if !force {
			count, err := repo.Count(ctx)
			if err == nil && count > 0 {
				return fmt.Errorf("index contains %d cards, use --force to delete", count)
			}
		}

		if err := resetIndex(ctx, repo, vectorSize(cfg)); err != nil {
			return err
		}
		fmt.Printf("Reset collection %s\n", cfg.Qdrant.CollectionName())
		return nil
	})
}

func resetIndex(ctx context.Context, collections ports.CollectionManager, size uint64) error {
	if err := collections.DeleteCollection(ctx); err != nil {
		return err
	}
	return collections.EnsureCollection(ctx, size)
}
