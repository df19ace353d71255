package cardstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// DefaultReadSize is the fragment size used by ReaderSource when none is given.
const DefaultReadSize = 512

// FragmentSource replays a fixed list of fragments.
type FragmentSource struct {
	fragments []string
	next      int
	closed    bool
}

// NewFragmentSource creates a source that yields the given fragments in order.
func NewFragmentSource(fragments ...string) *FragmentSource {
	return &FragmentSource{fragments: fragments}
}

// SplitEvery cuts document into fragments of at most n bytes. Cuts may fall
// inside multi-byte runes, so the fragments are only valid text when n == len(document)
// or the document is ASCII; use it with ReaderSource for general input.
func SplitEvery(document string, n int) []string {
	if n <= 0 || n >= len(document) {
		return []string{document}
	}
	parts := make([]string, 0, len(document)/n+1)
	for len(document) > n {
		parts = append(parts, document[:n])
		document = document[n:]
	}
	return append(parts, document)
}

// Next returns the next fragment, or io.EOF when all fragments were returned.
func (s *FragmentSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.closed || s.next >= len(s.fragments) {
		return nil, io.EOF
	}
	f := s.fragments[s.next]
	s.next++
	return []byte(f), nil
}

// Close stops the source.
func (s *FragmentSource) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *FragmentSource) Closed() bool {
	return s.closed
}

// ReaderSource reads fragments of up to size bytes from an io.Reader. An
// incomplete UTF-8 sequence at the end of a read is held back and prepended
// to the next fragment.
type ReaderSource struct {
	r       io.Reader
	size    int
	carry   []byte
	eof     bool
	closeFn func() error
}

// NewReaderSource creates a ReaderSource. If r is an io.Closer it is closed by Close.
func NewReaderSource(r io.Reader, size int) *ReaderSource {
	if size <= 0 {
		size = DefaultReadSize
	}
	s := &ReaderSource{r: r, size: size}
	if c, ok := r.(io.Closer); ok {
		s.closeFn = c.Close
	}
	return s
}

// Next reads the next fragment.
func (s *ReaderSource) Next(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.eof {
			if len(s.carry) == 0 {
				return nil, io.EOF
			}
			rest := s.carry
			s.carry = nil
			return rest, nil
		}

		buf := make([]byte, len(s.carry)+s.size)
		copy(buf, s.carry)
		n, err := s.r.Read(buf[len(s.carry):])
		buf = buf[:len(s.carry)+n]
		s.carry = nil

		if err != nil {
			if !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("reading fragment: %w", err)
			}
			s.eof = true
		}

		cut := runeBoundary(buf)
		if cut < len(buf) && !s.eof {
			s.carry = append([]byte(nil), buf[cut:]...)
			buf = buf[:cut]
		}
		if len(buf) > 0 {
			return buf, nil
		}
	}
}

// Close closes the underlying reader when it is closable.
func (s *ReaderSource) Close() error {
	if s.closeFn == nil {
		return nil
	}
	fn := s.closeFn
	s.closeFn = nil
	return fn()
}

// runeBoundary returns the length of the longest prefix of b that does not end
// inside an incomplete UTF-8 sequence.
func runeBoundary(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if utf8.FullRune(b[i:]) {
			return len(b)
		}
		return i
	}
	return len(b)
}
