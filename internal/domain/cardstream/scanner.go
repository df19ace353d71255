package cardstream

// scanState tracks object boundaries inside the card array. It survives
// across fragments so a record may be split anywhere.
type scanState struct {
	inString bool
	escaped  bool
	depth    int
	// start is the buffer offset of the opening brace of the open record, or -1.
	start int
	// pos is the offset of the next unclassified byte.
	pos int
}

func newScanState() scanState {
	return scanState{start: -1}
}

// step classifies the byte at offset off and reports whether it closed a
// top-level object. Structural characters are ASCII, so scanning bytes is
// safe for any UTF-8 input.
func (s *scanState) step(c byte, off int) bool {
	if s.inString {
		switch {
		case s.escaped:
			s.escaped = false
		case c == '\\':
			s.escaped = true
		case c == '"':
			s.inString = false
		}
		return false
	}

	switch c {
	case '"':
		s.inString = true
	case '{':
		if s.depth == 0 {
			s.start = off
		}
		s.depth++
	case '}':
		if s.depth == 0 {
			return false
		}
		s.depth--
		return s.depth == 0 && s.start >= 0
	}
	return false
}

// reset returns to top level after a span has been extracted.
func (s *scanState) reset() {
	s.inString = false
	s.escaped = false
	s.depth = 0
	s.start = -1
}

// shift adjusts offsets after n bytes were dropped from the front of the buffer.
func (s *scanState) shift(n int) {
	s.pos -= n
	if s.start >= 0 {
		s.start -= n
	}
}

// keepFrom returns the first buffer offset that must be retained: the start of
// the open record, or the cursor when no record is open.
func (s *scanState) keepFrom() int {
	if s.start >= 0 {
		return s.start
	}
	return s.pos
}
