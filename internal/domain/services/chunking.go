package services

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const (
	// DefaultChunkSize is the default size of one generation request, in bytes of input text.
	DefaultChunkSize = 12000
	// DefaultChunkOverlap is the default overlap between chunks.
	DefaultChunkOverlap = 400
)

// ChunkText splits text into chunks with overlap, on paragraph boundaries.
func ChunkText(text string, chunkSize int, overlap int) []string {
	if chunkSize <= 0 || len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	paragraphs := strings.Split(text, "\n\n")

	var currentChunk strings.Builder
	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if currentChunk.Len()+len(para)+2 > chunkSize && currentChunk.Len() > 0 {
			chunks = append(chunks, currentChunk.String())

			overlapText := getOverlapText(currentChunk.String(), overlap)
			currentChunk.Reset()
			currentChunk.WriteString(overlapText)
		}

		if currentChunk.Len() > 0 {
			currentChunk.WriteString("\n\n")
		}
		currentChunk.WriteString(para)
	}

	if currentChunk.Len() > 0 {
		chunks = append(chunks, currentChunk.String())
	}

	if len(chunks) == 0 && len(text) > 0 {
		chunks = append(chunks, text)
	}

	return chunks
}

// getOverlapText returns the tail of text for overlap, starting on a word boundary.
func getOverlapText(text string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(text) <= n {
		return text
	}
	tail := text[len(text)-n:]
	if i := strings.IndexAny(tail, " \n\t"); i >= 0 && i < len(tail)-1 {
		tail = tail[i+1:]
	}
	return tail
}

// streamChunker splits text read from an io.Reader into chunks without
// holding more than one chunk in memory.
type streamChunker struct {
	scanner       *bufio.Scanner
	chunkSize     int
	overlap       int
	currentChunk  strings.Builder
	lastParagraph strings.Builder
	inParagraph   bool
}

func newStreamChunker(r io.Reader, chunkSize, overlap int) *streamChunker {
	scanner := bufio.NewScanner(r)
	// Allow up to 1MB lines
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &streamChunker{scanner: scanner, chunkSize: chunkSize, overlap: overlap}
}

// addParagraph adds a completed paragraph, emitting the current chunk first if it would overflow.
func (c *streamChunker) addParagraph(para string, emit func(string) error) error {
	if len(para) == 0 {
		return nil
	}

	if c.currentChunk.Len()+len(para)+2 > c.chunkSize && c.currentChunk.Len() > 0 {
		if err := emit(c.currentChunk.String()); err != nil {
			return err
		}
		overlap := getOverlapText(c.currentChunk.String(), c.overlap)
		c.currentChunk.Reset()
		c.currentChunk.WriteString(overlap)
	}

	if c.currentChunk.Len() > 0 {
		c.currentChunk.WriteString("\n\n")
	}
	c.currentChunk.WriteString(para)
	return nil
}

func (c *streamChunker) processLine(line string, emit func(string) error) error {
	if strings.TrimSpace(line) == "" {
		// Empty line marks paragraph boundary
		if c.inParagraph && c.lastParagraph.Len() > 0 {
			if err := c.addParagraph(c.lastParagraph.String(), emit); err != nil {
				return err
			}
			c.lastParagraph.Reset()
			c.inParagraph = false
		}
		return nil
	}

	if c.inParagraph {
		c.lastParagraph.WriteString("\n")
	}
	c.lastParagraph.WriteString(line)
	c.inParagraph = true
	return nil
}

func (c *streamChunker) flush(emit func(string) error) error {
	if c.lastParagraph.Len() > 0 {
		if err := c.addParagraph(c.lastParagraph.String(), emit); err != nil {
			return err
		}
		c.lastParagraph.Reset()
	}
	if c.currentChunk.Len() > 0 {
		return emit(c.currentChunk.String())
	}
	return nil
}

// ChunkReader reads r and calls emit for every chunk, in order.
func ChunkReader(r io.Reader, chunkSize, overlap int, emit func(string) error) error {
	chunker := newStreamChunker(r, chunkSize, overlap)
	for chunker.scanner.Scan() {
		if err := chunker.processLine(chunker.scanner.Text(), emit); err != nil {
			return err
		}
	}
	if err := chunker.scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return chunker.flush(emit)
}
