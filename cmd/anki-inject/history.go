package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ersonp/anki-inject/internal/domain/entities"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent generation sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultHistoryLimit, "Maximum number of sessions to display")

	return cmd
}

func runHistory(cmd *cobra.Command, limit int) error {
	ctx := cmd.Context()

	return withDeps(ctx, depsOptions{}, func(d *Deps) error {
		result, err := d.History.Handle(ctx, limit)
		if err != nil {
			return err
		}

		if len(result.Sessions) == 0 {
			fmt.Println("No sessions recorded.")
			return nil
		}

		fmt.Printf("%-19s %-10s %-6s %-22s %s\n", "STARTED", "STATUS", "CARDS", "MODEL", "SOURCE")
		for _, s := range result.Sessions {
			displaySession(s)
		}
		fmt.Printf("\n%d notes inserted in total\n", result.NotesTotal)
		return nil
	})
}

func displaySession(s entities.Session) {
	fmt.Printf("%-19s %-10s %-6d %-22s %s\n",
		s.StartedAt.Local().Format(time.DateTime), s.Status, s.CardsEmitted, s.Model, s.Source)
	if s.Error != "" {
		fmt.Printf("  error: %s\n", s.Error)
	}
}
