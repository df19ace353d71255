package handlers

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ersonp/anki-inject/internal/domain/cardstream"
	"github.com/ersonp/anki-inject/internal/domain/entities"
	"github.com/ersonp/anki-inject/internal/domain/ports"
	"github.com/ersonp/anki-inject/internal/infrastructure/transcript"
	"github.com/ersonp/anki-inject/pkg/logger"
)

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// ReplayHandler feeds a recorded transcript or a plain document through the extractor.
type ReplayHandler struct{}

// NewReplayHandler creates a new replay handler.
func NewReplayHandler() *ReplayHandler {
	return &ReplayHandler{}
}

// ReplayOptions controls replay behavior.
type ReplayOptions struct {
	ArrayKey string // Field holding the cards, default "cards"
	ReadSize int    // Fragment size for plain documents
}

// ReplayResult contains the result of a replay.
type ReplayResult struct {
	Cards      int
	Transcript bool
	Stats      cardstream.Stats
}

// Handle replays the file at path and calls emit for each card in order.
// Transcripts keep their recorded fragment boundaries; plain documents are
// read in ReadSize fragments.
func (h *ReplayHandler) Handle(ctx context.Context, path string, opts ReplayOptions, emit func(entities.Card) error) (*ReplayResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	br := bufio.NewReader(file)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		file.Close()
		return nil, fmt.Errorf("reading file: %w", err)
	}

	result := &ReplayResult{Transcript: bytes.Equal(head, zstdMagic)}

	var src ports.ChunkSource
	if result.Transcript {
		r, err := transcript.NewReader(br)
		if err != nil {
			file.Close()
			return nil, err
		}
		src = &closingSource{ChunkSource: r, file: file}
	} else {
		src = &closingSource{ChunkSource: cardstream.NewReaderSource(br, opts.ReadSize), file: file}
	}

	extractor := cardstream.NewExtractor(
		cardstream.WithArrayKey(opts.ArrayKey),
		cardstream.WithLogger(logger.FromContext(ctx)),
	)
	var runErr error
	for card, err := range extractor.Stream(ctx, src) {
		if err != nil {
			runErr = err
			break
		}
		result.Cards++
		if err := emit(card); err != nil {
			runErr = err
			break
		}
	}
	// The stream has flushed the session by now.
	result.Stats = extractor.Stats()

	return result, runErr
}

// closingSource closes the file behind a source.
type closingSource struct {
	ports.ChunkSource
	file *os.File
}

func (s *closingSource) Close() error {
	err := s.ChunkSource.Close()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}
