// Package transcript records the fragments of a generation stream to a
// zstd-compressed file and replays them with the same boundaries.
//
// A transcript is a sequence of JSON strings, one per fragment, separated
// by newlines, compressed as a single zstd stream.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

// ErrInvalidUTF8 is returned when a fragment cannot be stored as a JSON string.
var ErrInvalidUTF8 = errors.New("fragment is not valid UTF-8")

// Writer appends fragments to a transcript. It is safe for concurrent use.
type Writer struct {
	mu     sync.Mutex
	zw     *zstd.Encoder
	enc    *json.Encoder
	closer io.Closer
	count  int
	closed bool
}

// Create creates a transcript file at path, truncating any existing file.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating transcript: %w", err)
	}
	w, err := NewWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// NewWriter returns a Writer that compresses into w.
func NewWriter(w io.Writer) (*Writer, error) {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	enc := json.NewEncoder(zw)
	enc.SetEscapeHTML(false)
	return &Writer{zw: zw, enc: enc}, nil
}

// RecordFragment appends one fragment.
func (w *Writer) RecordFragment(fragment []byte) error {
	if !utf8.Valid(fragment) {
		return ErrInvalidUTF8
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return os.ErrClosed
	}
	if err := w.enc.Encode(string(fragment)); err != nil {
		return fmt.Errorf("writing fragment: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of fragments recorded.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close flushes the compressed stream and closes the underlying file, if any.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	err := w.zw.Close()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("closing transcript: %w", err)
	}
	return nil
}

// Reader replays a transcript as a chunk source.
type Reader struct {
	zr     *zstd.Decoder
	dec    *json.Decoder
	closer io.Closer
	closed bool
}

// Open opens the transcript file at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening transcript: %w", err)
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewReader returns a Reader that decompresses from r.
func NewReader(r io.Reader) (*Reader, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return &Reader{zr: zr, dec: json.NewDecoder(zr)}, nil
}

// Next returns the next recorded fragment, or io.EOF at the end of the transcript.
func (r *Reader) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.closed {
		return nil, io.EOF
	}

	var fragment string
	if err := r.dec.Decode(&fragment); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("reading transcript: %w", err)
	}
	return []byte(fragment), nil
}

// Close releases the decoder and closes the underlying file, if any.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.zr.Close()
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
