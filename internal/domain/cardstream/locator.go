package cardstream

import (
	"bytes"
	"regexp"
	"unicode"
)

// LocateStrategy records how the start of the card array was found.
type LocateStrategy string

// Locate strategies.
const (
	LocateNone      LocateStrategy = ""
	LocateKey       LocateStrategy = "key"
	LocateBareArray LocateStrategy = "bare_array"
)

// arrayMarker matches the quoted key followed by a colon and an opening bracket.
func arrayMarker(key string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(`"`+key+`"`) + `\s*:\s*\[`)
}

// locateArray returns the offset just past the opening bracket of the card
// array, or -1 if buf does not reveal it yet. The keyed marker always wins;
// the bare array check is only tried when the marker is absent.
func locateArray(buf []byte, marker *regexp.Regexp) (int, LocateStrategy) {
	if loc := marker.FindIndex(buf); loc != nil {
		return loc[1], LocateKey
	}
	if looksLikeBareArray(buf) {
		return bytes.IndexByte(buf, '[') + 1, LocateBareArray
	}
	return -1, LocateNone
}

// looksLikeBareArray reports whether buf, after leading whitespace and at most
// one opening brace, starts with an opening bracket.
func looksLikeBareArray(buf []byte) bool {
	rest := bytes.TrimLeftFunc(buf, unicode.IsSpace)
	if len(rest) > 0 && rest[0] == '{' {
		rest = bytes.TrimLeftFunc(rest[1:], unicode.IsSpace)
	}
	return len(rest) > 0 && rest[0] == '['
}
