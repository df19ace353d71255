// Package loopcall detects per-item note store, history and embedding calls inside loops.
package loopcall

import (
	"go/ast"
	"go/token"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer detects remote calls inside loops that have a batch form or
// belong on a worker.
var Analyzer = &analysis.Analyzer{
	Name:     "loopcall",
	Doc:      "detects per-item remote calls inside loops that should be batched",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// nolintDirective silences the analyzer for one line.
const nolintDirective = "nolint:loopcall"

// externalMethods maps per-item methods to their batch alternative, if any.
var externalMethods = map[string]string{
	// Embedder
	"Embed": "EmbedBatch",
	// CardIndex
	"SearchSimilar": "",
	// NoteStore
	"AddNote":    "",
	"CreateDeck": "",
	// HistoryStore
	"FindNoteByFingerprint": "",
	// CardGenerator
	"RefineCard": "",
}

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	silenced := silencedLines(pass)

	nodeFilter := []ast.Node{
		(*ast.RangeStmt)(nil),
		(*ast.ForStmt)(nil),
	}

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		var body *ast.BlockStmt
		switch stmt := n.(type) {
		case *ast.RangeStmt:
			body = stmt.Body
		case *ast.ForStmt:
			body = stmt.Body
		}
		if body == nil {
			return
		}

		ast.Inspect(body, func(n ast.Node) bool {
			// Closures run later, usually on another goroutine.
			if _, ok := n.(*ast.FuncLit); ok {
				return false
			}

			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}

			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}

			method := sel.Sel.Name
			batch, ok := externalMethods[method]
			if !ok || silenced[lineOf(pass.Fset, call.Pos())] {
				return true
			}

			if batch != "" {
				pass.Reportf(call.Pos(), "potential N+1: %s called inside loop - use %s", method, batch)
			} else {
				pass.Reportf(call.Pos(), "potential N+1: %s called inside loop - consider batching", method)
			}
			return true
		})
	})

	return nil, nil
}

type fileLine struct {
	file string
	line int
}

func lineOf(fset *token.FileSet, pos token.Pos) fileLine {
	p := fset.Position(pos)
	return fileLine{file: p.Filename, line: p.Line}
}

// silencedLines returns the lines carrying a nolint directive, and the line
// after a directive that stands on its own.
func silencedLines(pass *analysis.Pass) map[fileLine]bool {
	lines := make(map[fileLine]bool)
	for _, f := range pass.Files {
		for _, group := range f.Comments {
			for _, c := range group.List {
				if !strings.Contains(c.Text, nolintDirective) {
					continue
				}
				at := lineOf(pass.Fset, c.Pos())
				lines[at] = true
				lines[fileLine{file: at.file, line: at.line + 1}] = true
			}
		}
	}
	return lines
}
