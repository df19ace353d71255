// Package cardstream extracts flashcards from a JSON document while it is
// still being generated.
//
// The expected document is an object holding one array of flat objects,
// for example {"cards": [{"front": "...", "back": "..."}, ...]}. Text arrives
// in fragments with arbitrary boundaries. The Extractor first locates the
// start of the array, then tracks string, escape, and brace state to cut out
// each complete element as soon as its closing brace arrives. Elements that
// fail to parse are dropped; they never end the session.
package cardstream

import (
	"regexp"

	"github.com/ersonp/anki-inject/internal/domain/entities"
	"github.com/ersonp/anki-inject/pkg/logger"
)

// DefaultArrayKey is the field that holds the generated cards.
const DefaultArrayKey = "cards"

type mode int

const (
	modeLocating mode = iota
	modeScanning
)

// Stats are diagnostics for one session. They never change which cards are emitted.
type Stats struct {
	Fragments    int
	Bytes        int
	Records      int
	SkippedSpans int
	Strategy     LocateStrategy
	// MaxBuffered is the largest number of bytes retained between fragments.
	MaxBuffered int
	// Truncated is set when input ended inside an unterminated record.
	Truncated bool
}

// Located reports whether the card array was found.
func (s Stats) Located() bool {
	return s.Strategy != LocateNone
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithArrayKey sets the field name that holds the card array.
func WithArrayKey(key string) Option {
	return func(e *Extractor) {
		if key != "" {
			e.key = key
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.log = l
		}
	}
}

// Extractor is one extraction session. It owns its buffer and parse state
// and is not safe for concurrent use.
type Extractor struct {
	key    string
	marker *regexp.Regexp
	log    logger.Logger

	buf   []byte
	mode  mode
	scan  scanState
	stats Stats
	err   error
}

// NewExtractor creates a session in locating mode.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		key:  DefaultArrayKey,
		log:  logger.GetDefault(),
		scan: newScanState(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.marker = arrayMarker(e.key)
	return e
}

// Process appends a fragment and returns the cards it completed, in document order.
// Malformed records are skipped silently. The only error is a fragment that is
// not valid UTF-8, which closes the session.
func (e *Extractor) Process(fragment []byte) ([]entities.Card, error) {
	if e.err != nil {
		return nil, e.err
	}
	if off := invalidOffset(fragment); off >= 0 {
		e.err = &DecodeError{Fragment: e.stats.Fragments, Offset: off}
		e.release()
		return nil, e.err
	}

	e.stats.Fragments++
	e.stats.Bytes += len(fragment)
	e.buf = append(e.buf, fragment...)

	if e.mode == modeLocating && !e.locate() {
		e.trackBuffered()
		return nil, nil
	}

	cards := e.scanBuffer()
	e.trackBuffered()
	return cards, nil
}

// ProcessString is Process for text fragments.
func (e *Extractor) ProcessString(fragment string) ([]entities.Card, error) {
	return e.Process([]byte(fragment))
}

// Flush ends the session and returns its final stats. It never emits cards:
// an object still open at end of input never completed and is discarded.
func (e *Extractor) Flush() Stats {
	if e.err == nil {
		switch {
		case e.mode == modeLocating:
			e.log.Debug("Card array never found", "bytes", e.stats.Bytes)
		case e.scan.start >= 0:
			e.stats.Truncated = true
			e.log.Debug("Discarding unterminated record", "bytes", len(e.buf)-e.scan.start)
		}
		e.err = ErrSessionClosed
	}
	e.release()
	return e.stats
}

// Stats returns the diagnostics collected so far.
func (e *Extractor) Stats() Stats {
	return e.stats
}

// Buffered returns the number of bytes currently retained.
func (e *Extractor) Buffered() int {
	return len(e.buf)
}

func (e *Extractor) locate() bool {
	end, strategy := locateArray(e.buf, e.marker)
	if end < 0 {
		return false
	}
	e.discard(end)
	e.mode = modeScanning
	e.stats.Strategy = strategy
	e.log.Debug("Located card array", "strategy", string(strategy), "key", e.key)
	return true
}

// scanBuffer classifies every byte past the cursor, extracting records as
// their closing braces arrive.
func (e *Extractor) scanBuffer() []entities.Card {
	var cards []entities.Card
	s := &e.scan
	for s.pos < len(e.buf) {
		off := s.pos
		s.pos++
		if !s.step(e.buf[off], off) {
			continue
		}

		card, err := decodeRecord(e.buf[s.start:s.pos])
		if err != nil {
			e.stats.SkippedSpans++
			e.log.Debug("Skipping malformed record", "err", err, "bytes", s.pos-s.start)
		} else {
			e.stats.Records++
			cards = append(cards, card)
		}
		e.discard(s.pos)
		s.reset()
	}
	e.discard(s.keepFrom())
	return cards
}

// discard drops the first n bytes of the buffer.
func (e *Extractor) discard(n int) {
	if n <= 0 {
		return
	}
	e.buf = append(e.buf[:0], e.buf[n:]...)
	if e.mode == modeScanning {
		e.scan.shift(n)
	}
}

func (e *Extractor) trackBuffered() {
	if len(e.buf) > e.stats.MaxBuffered {
		e.stats.MaxBuffered = len(e.buf)
	}
}

func (e *Extractor) release() {
	e.buf = nil
	e.scan = newScanState()
}
