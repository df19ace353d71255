package main

// Default values for CLI commands.
const (
	DefaultHistoryLimit = 20
	DefaultReadSize     = 512
)

// Input sources for generate.
const (
	sourceClipboard = "clipboard"
	sourceStdin     = "stdin"
)

// Valid import formats.
var validFormats = []string{"auto", "json", "csv", "tsv"}
