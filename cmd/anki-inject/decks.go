package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDecksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decks",
		Short: "Manage Anki decks",
		RunE:  runDecksList,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all decks",
			RunE:  runDecksList,
		},
		&cobra.Command{
			Use:   "create NAME",
			Short: "Create a deck",
			Args:  cobra.ExactArgs(1),
			RunE:  runDecksCreate,
		},
	)

	return cmd
}

func runDecksList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(ctx, depsOptions{}, func(d *Deps) error {
		decks, err := d.Decks.List(ctx)
		if err != nil {
			return err
		}

		if len(decks) == 0 {
			fmt.Println("No decks found.")
			return nil
		}

		for _, name := range decks {
			marker := " "
			if name == d.Config.Anki.Deck {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, name)
		}
		return nil
	})
}

func runDecksCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(ctx, depsOptions{}, func(d *Deps) error {
		result, err := d.Decks.Create(ctx, args[0])
		if err != nil {
			return err
		}

		if result.Existed {
			fmt.Printf("Deck %q already exists (id %d)\n", result.Name, result.ID)
			return nil
		}
		fmt.Printf("Created deck %q (id %d)\n", result.Name, result.ID)
		return nil
	})
}
