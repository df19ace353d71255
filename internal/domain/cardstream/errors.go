package cardstream

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrInvalidFragment is returned when a fragment is not valid UTF-8 text.
	// It is the only parse-side condition that ends a session with an error.
	ErrInvalidFragment = errors.New("fragment is not valid UTF-8 text")

	// ErrSessionClosed is returned by Process after Flush or a fatal error.
	ErrSessionClosed = errors.New("extraction session is closed")
)

// DecodeError reports a fragment that could not be decoded as text.
type DecodeError struct {
	// Fragment is the zero-based index of the offending fragment in the session.
	Fragment int
	// Offset is the byte offset of the first invalid sequence within the fragment.
	Offset int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding fragment %d: invalid UTF-8 at byte %d", e.Fragment, e.Offset)
}

// Unwrap lets errors.Is match ErrInvalidFragment.
func (e *DecodeError) Unwrap() error {
	return ErrInvalidFragment
}

// invalidOffset returns the offset of the first invalid UTF-8 sequence in b, or -1.
func invalidOffset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}
