package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ersonp/anki-inject/internal/application/handlers"
	"github.com/ersonp/anki-inject/internal/domain/services"
)

type insertFlags struct {
	deck         string
	format       string
	skipKnown    bool
	checkSimilar bool
	skipSimilar  bool
	dryRun       bool
}

func newInsertCmd() *cobra.Command {
	var flags insertFlags

	cmd := &cobra.Command{
		Use:   "insert <file>",
		Short: "Insert cards from a JSON or CSV file",
		Long: "Reads cards from a file and adds them to an Anki deck.\n" +
			"JSON files may hold {\"cards\": [...]} or a bare array, even with surrounding text.\n" +
			"CSV and TSV files use a front,back header or the first two columns.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInsert(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.deck, "deck", "d", "", "Target deck (default from config)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "File format (auto, json, csv, tsv)")
	cmd.Flags().BoolVar(&flags.skipKnown, "skip-known", false, "Skip cards already inserted into the deck")
	cmd.Flags().BoolVar(&flags.checkSimilar, "check-similar", false, "Report cards similar to indexed ones")
	cmd.Flags().BoolVar(&flags.skipSimilar, "skip-similar", false, "Do not insert cards similar to indexed ones")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate without inserting")

	return cmd
}

func runInsert(cmd *cobra.Command, filePath string, flags insertFlags) error {
	if !slices.Contains(validFormats, flags.format) {
		return fmt.Errorf("invalid format %q, valid formats: %v", flags.format, validFormats)
	}

	ctx := cmd.Context()

	return withDeps(ctx, depsOptions{}, func(d *Deps) error {
		deck := flags.deck
		if deck == "" {
			deck = d.Config.Anki.Deck
		}

		result, err := d.Import.Handle(ctx, filePath, handlers.ImportOptions{
			Format: flags.format,
			Deck:   deck,
			DryRun: flags.dryRun,
			Insert: services.InsertOptions{
				SkipKnown:    flags.skipKnown,
				CheckSimilar: flags.checkSimilar || flags.skipSimilar,
				SkipSimilar:  flags.skipSimilar,
			},
		})
		if err != nil {
			return fmt.Errorf("inserting cards: %w", err)
		}

		displayImportResult(result, deck, flags.dryRun)
		return nil
	})
}

func displayImportResult(result *services.ImportResult, deck string, dryRun bool) {
	if dryRun {
		fmt.Printf("Dry run: %d valid cards\n", result.Valid)
	} else if result.Insert != nil {
		fmt.Printf("Deck %s: %s\n", deck, formatInsert(result.Insert))
		for _, msg := range result.Insert.Errors {
			fmt.Printf("  %s\n", msg)
		}
	} else {
		fmt.Println("No valid cards found.")
	}

	if len(result.Errors) > 0 {
		fmt.Printf("\n%d invalid cards:\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("  %s\n", e.Error())
		}
	}
}
