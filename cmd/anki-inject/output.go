package main

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/ersonp/anki-inject/internal/domain/cardstream"
	"github.com/ersonp/anki-inject/internal/domain/entities"
)

var (
	indexStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	frontStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	backStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	extraStyle = lipgloss.NewStyle().Faint(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// cardPrinter renders cards as they arrive: styled blocks on a terminal,
// one JSON object per line otherwise.
type cardPrinter struct {
	out   io.Writer
	json  bool
	enc   *json.Encoder
	count int
}

// newCardPrinter writes to stdout. JSON lines are used when forced or when
// stdout is not a terminal.
func newCardPrinter(forceJSON bool) *cardPrinter {
	fd := os.Stdout.Fd()
	tty := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	if tty && !forceJSON {
		return newPrinter(colorable.NewColorableStdout(), false)
	}
	return newPrinter(os.Stdout, true)
}

func newPrinter(out io.Writer, jsonLines bool) *cardPrinter {
	p := &cardPrinter{out: out, json: jsonLines}
	if jsonLines {
		p.enc = json.NewEncoder(out)
		p.enc.SetEscapeHTML(false)
	}
	return p
}

// Print renders one card.
func (p *cardPrinter) Print(card entities.Card) error {
	p.count++
	if p.json {
		return p.enc.Encode(card)
	}

	var b strings.Builder
	b.WriteString(indexStyle.Render(fmt.Sprintf("#%d", p.count)))
	b.WriteString(" ")
	b.WriteString(frontStyle.Render(card.Front))
	b.WriteString("\n   ")
	b.WriteString(backStyle.Render(card.Back))
	b.WriteString("\n")
	for _, key := range slices.Sorted(maps.Keys(card.Extra)) {
		b.WriteString("   ")
		b.WriteString(extraStyle.Render(key + ": " + card.Extra[key]))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	_, err := io.WriteString(p.out, b.String())
	return err
}

// Summary prints a closing line on a terminal. JSON output stays pure.
func (p *cardPrinter) Summary(format string, args ...any) {
	if p.json {
		return
	}
	fmt.Fprintln(p.out, labelStyle.Render(fmt.Sprintf(format, args...)))
}

// formatInsert summarizes an insert result in one line.
func formatInsert(r *entities.InsertResult) string {
	if r == nil {
		return ""
	}
	parts := []string{fmt.Sprintf("%d added", r.Added)}
	if r.Duplicates > 0 {
		parts = append(parts, fmt.Sprintf("%d duplicates", r.Duplicates))
	}
	if r.Similar > 0 {
		parts = append(parts, fmt.Sprintf("%d similar", r.Similar))
	}
	if n := len(r.Errors); n > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", n))
	}
	return strings.Join(parts, ", ")
}

// formatStats summarizes extractor stats in one line.
func formatStats(s cardstream.Stats) string {
	line := fmt.Sprintf("%d cards from %d fragments (%d bytes)", s.Records, s.Fragments, s.Bytes)
	if s.SkippedSpans > 0 {
		line += fmt.Sprintf(", %d malformed spans skipped", s.SkippedSpans)
	}
	if s.Truncated {
		line += ", response truncated"
	}
	return line
}
