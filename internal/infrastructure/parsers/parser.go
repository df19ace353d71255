// Package parsers provides parsers for importing cards from various formats.
package parsers

import (
	"io"
	"path/filepath"
	"strings"
)

// RawCard represents a card parsed from an external source before validation.
type RawCard struct {
	Front string
	Back  string
	// Extra holds any other named fields of the record.
	Extra   map[string]string
	LineNum int // Line number in source file, or record number for JSON (set by parser)
}

// Parser defines the interface for parsing cards from various formats.
type Parser interface {
	Parse(r io.Reader) ([]RawCard, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv", "tsv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	case "tsv":
		return &CSVParser{Comma: '\t'}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json", ".txt":
		return &JSONParser{}
	case ".csv":
		return &CSVParser{}
	case ".tsv":
		return &CSVParser{Comma: '\t'}
	default:
		return nil
	}
}
