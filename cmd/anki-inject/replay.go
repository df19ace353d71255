package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/anki-inject/internal/application/handlers"
)

type replayFlags struct {
	arrayKey string
	readSize int
	json     bool
}

func newReplayCmd() *cobra.Command {
	var flags replayFlags

	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Run a recorded transcript or saved response through the extractor",
		Long: "Feeds a transcript written by 'generate --record' through the card extractor\n" +
			"with its original fragment boundaries. Any other file is read in fixed-size fragments.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.arrayKey, "key", "k", "", "Field holding the cards (default from config)")
	cmd.Flags().IntVar(&flags.readSize, "read-size", DefaultReadSize, "Fragment size in bytes for plain files")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Print cards as JSON lines")

	return cmd
}

func runReplay(cmd *cobra.Command, path string, flags replayFlags) error {
	ctx := cmd.Context()

	return withDeps(ctx, depsOptions{}, func(d *Deps) error {
		key := flags.arrayKey
		if key == "" {
			key = d.Config.LLM.ArrayKey
		}

		printer := newCardPrinter(flags.json)
		result, err := handlers.NewReplayHandler().Handle(ctx, path, handlers.ReplayOptions{
			ArrayKey: key,
			ReadSize: flags.readSize,
		}, printer.Print)
		if result != nil {
			kind := "file"
			if result.Transcript {
				kind = "transcript"
			}
			printer.Summary("Replayed %s: %s", kind, formatStats(result.Stats))
		}
		if err != nil {
			return fmt.Errorf("replaying %s: %w", path, err)
		}
		return nil
	})
}
