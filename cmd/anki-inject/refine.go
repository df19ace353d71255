package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/anki-inject/internal/application/handlers"
)

type refineFlags struct {
	front       string
	back        string
	instruction string
	model       string
	json        bool
}

func newRefineCmd() *cobra.Command {
	var flags refineFlags

	cmd := &cobra.Command{
		Use:   "refine",
		Short: "Rewrite a single card",
		Long:  "Asks the LLM to improve one card according to an instruction, e.g. \"make the answer shorter\".",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefine(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.front, "front", "", "Front of the card")
	cmd.Flags().StringVar(&flags.back, "back", "", "Back of the card")
	cmd.Flags().StringVarP(&flags.instruction, "instruction", "i", "", "How to change the card")
	cmd.Flags().StringVarP(&flags.model, "model", "m", "", "Model to use (default from config)")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Print the card as JSON")

	_ = cmd.MarkFlagRequired("instruction")

	return cmd
}

func runRefine(cmd *cobra.Command, flags refineFlags) error {
	ctx := cmd.Context()

	return withDeps(ctx, depsOptions{generator: true}, func(d *Deps) error {
		card, err := d.Refine.Handle(ctx, handlers.RefineRequest{
			Front:       flags.front,
			Back:        flags.back,
			Instruction: flags.instruction,
			Model:       flags.model,
		})
		if err != nil {
			return fmt.Errorf("refining card: %w", err)
		}

		return newCardPrinter(flags.json).Print(card)
	})
}
