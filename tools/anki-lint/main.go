// anki-lint is a custom static analyzer for anki-inject call patterns.
package main

import (
	"golang.org/x/tools/go/analysis/multichecker"

	"github.com/ersonp/anki-inject/tools/anki-lint/analyzers"
)

func main() {
	multichecker.Main(analyzers.All()...)
}
