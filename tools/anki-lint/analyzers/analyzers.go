// Package analyzers provides all custom static analyzers for anki-inject.
package analyzers

import (
	"golang.org/x/tools/go/analysis"

	"github.com/ersonp/anki-inject/tools/anki-lint/analyzers/loopcall"
)

// All returns all analyzers to run.
func All() []*analysis.Analyzer {
	return []*analysis.Analyzer{
		loopcall.Analyzer,
	}
}
