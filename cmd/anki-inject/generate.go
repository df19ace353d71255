package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/ersonp/anki-inject/internal/application/handlers"
	"github.com/ersonp/anki-inject/internal/domain/services"
	"github.com/ersonp/anki-inject/internal/infrastructure/config"
)

type generateFlags struct {
	clipboard    bool
	model        string
	prompt       string
	preset       string
	deck         string
	skipKnown    bool
	checkSimilar bool
	skipSimilar  bool
	record       string
	json         bool
}

func newGenerateCmd() *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "generate [file]",
		Short: "Generate flashcards from text",
		Long: "Sends text to the LLM and prints each card as soon as it is complete.\n" +
			"Text is read from the file argument, the clipboard (--clipboard), or stdin.\n" +
			"With --deck, cards are added to Anki while the response is still streaming.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.clipboard, "clipboard", "c", false, "Read text from the clipboard")
	cmd.Flags().StringVarP(&flags.model, "model", "m", "", "Model to use (default from config)")
	cmd.Flags().StringVarP(&flags.prompt, "prompt", "p", "", "System prompt for this run")
	cmd.Flags().StringVar(&flags.preset, "preset", "", "Use a saved prompt preset")
	cmd.Flags().StringVarP(&flags.deck, "deck", "d", "", "Insert cards into this deck while streaming")
	cmd.Flags().BoolVar(&flags.skipKnown, "skip-known", false, "Skip cards already inserted into the deck")
	cmd.Flags().BoolVar(&flags.checkSimilar, "check-similar", false, "Report cards similar to indexed ones")
	cmd.Flags().BoolVar(&flags.skipSimilar, "skip-similar", false, "Do not insert cards similar to indexed ones")
	cmd.Flags().StringVar(&flags.record, "record", "", "Write a compressed transcript of the raw response")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Print cards as JSON lines")

	cmd.MarkFlagsMutuallyExclusive("prompt", "preset")

	return cmd
}

func runGenerate(cmd *cobra.Command, args []string, flags generateFlags) error {
	if flags.clipboard && len(args) > 0 {
		return errors.New("use either a file or --clipboard, not both")
	}

	ctx := cmd.Context()
	opts := handlers.GenerateOptions{
		Model:        flags.model,
		SystemPrompt: flags.prompt,
		Deck:         flags.deck,
		RecordPath:   flags.record,
		Insert: services.InsertOptions{
			SkipKnown:    flags.skipKnown,
			CheckSimilar: flags.checkSimilar || flags.skipSimilar,
			SkipSimilar:  flags.skipSimilar,
		},
	}

	if flags.preset != "" {
		if err := applyPreset(&opts, flags.preset); err != nil {
			return err
		}
	}

	return withDeps(ctx, depsOptions{generator: true}, func(d *Deps) error {
		printer := newCardPrinter(flags.json)

		result, err := generate(ctx, d.Generate, args, flags.clipboard, opts, printer)
		if result != nil {
			printGenerateSummary(printer, result)
		}
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}

// generate reads the input and streams cards to the printer.
func generate(ctx context.Context, h *handlers.GenerateHandler, args []string, fromClipboard bool, opts handlers.GenerateOptions, printer *cardPrinter) (*handlers.GenerateResult, error) {
	switch {
	case fromClipboard:
		text, err := clipboard.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("reading clipboard: %w", err)
		}
		if strings.TrimSpace(text) == "" {
			return nil, errors.New("clipboard is empty")
		}
		opts.Source = sourceClipboard
		return h.Handle(ctx, text, opts, printer.Print)

	case len(args) == 1:
		file, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("opening file: %w", err)
		}
		defer file.Close()
		opts.Source = args[0]
		return h.HandleReader(ctx, file, opts, printer.Print)

	default:
		opts.Source = sourceStdin
		return h.HandleReader(ctx, os.Stdin, opts, printer.Print)
	}
}

// applyPreset fills the prompt and model from a saved preset. An explicit
// --model wins over the preset's model.
func applyPreset(opts *handlers.GenerateOptions, name string) error {
	prompts, err := config.LoadPrompts(configDir)
	if err != nil {
		return fmt.Errorf("loading prompts: %w", err)
	}
	preset, err := prompts.Get(name)
	if err != nil {
		return err
	}
	opts.SystemPrompt = preset.Prompt
	if opts.Model == "" {
		opts.Model = preset.Model
	}
	return nil
}

func printGenerateSummary(printer *cardPrinter, result *handlers.GenerateResult) {
	if result.Session != nil {
		line := fmt.Sprintf("%d cards (%s)", result.Cards, result.Session.Status)
		if result.Session.SpansSkipped > 0 {
			line += fmt.Sprintf(", %d malformed spans skipped", result.Session.SpansSkipped)
		}
		printer.Summary("%s", line)
	}
	if result.Insert != nil {
		printer.Summary("Anki: %s", formatInsert(result.Insert))
		for _, msg := range result.Insert.Errors {
			printer.Summary("  %s", msg)
		}
	}
	if result.Transcript != "" {
		printer.Summary("Transcript written to %s", result.Transcript)
	}
}
