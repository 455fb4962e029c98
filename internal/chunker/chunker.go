// Package chunker splits normalised document text into bounded,
// overlapping chunks with deterministic identifiers.
package chunker

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/oakum-labs/docq-cli/internal/core/domain"
)

// DefaultMaxSize is the default number of characters per chunk.
const DefaultMaxSize = 1000

// DefaultOverlap is the default number of overlapping characters.
const DefaultOverlap = 200

// chunkNamespace is the fixed namespace for SHA-1 chunk UUIDs.
// Changing it changes every chunk ID, so it is part of the index format.
var chunkNamespace = uuid.MustParse("9d1c07a6-44b8-4f2e-8c33-5a70e1b6d384")

// Chunker splits text into overlapping chunks, preferring sentence
// boundaries. Splitting is deterministic: the same text with the same
// parameters always yields the same boundaries and the same chunk IDs.
type Chunker struct {
	maxSize int
	overlap int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxSize sets the maximum chunk size in characters.
func WithMaxSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.maxSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxSize: DefaultMaxSize,
		overlap: DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must stay strictly below the chunk size
	if c.overlap >= c.maxSize {
		c.overlap = c.maxSize / 4
	}

	return c
}

// MaxSize returns the configured maximum chunk size.
func (c *Chunker) MaxSize() int {
	return c.maxSize
}

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Split chunks the text for the given source. Whitespace-only input
// yields no chunks. Boundaries snap back to the last sentence end inside
// the window when one exists, so chunks avoid splitting mid-sentence
// where possible; a single oversized sentence falls back to a plain
// character window. Sizes count characters, and boundaries always fall
// between characters, so multi-byte text is never cut mid-rune.
func (c *Chunker) Split(sourceID, text string) []domain.Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= c.maxSize {
		return []domain.Chunk{c.newChunk(sourceID, 0, text)}
	}

	var chunks []domain.Chunk
	position := 0
	start := 0

	for start < len(runes) {
		end := start + c.maxSize
		if end >= len(runes) {
			chunks = append(chunks, c.newChunk(sourceID, position, string(runes[start:])))
			break
		}

		cut := sentenceCut(runes, start, end)
		if cut <= start {
			cut = end
		}

		chunks = append(chunks, c.newChunk(sourceID, position, string(runes[start:cut])))
		position++

		next := cut - c.overlap
		// Always make progress even for degenerate overlap/boundary combos
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// newChunk builds a chunk with its deterministic identity.
func (c *Chunker) newChunk(sourceID string, position int, content string) domain.Chunk {
	content = strings.TrimSpace(content)
	return domain.Chunk{
		ID:       ChunkID(sourceID, position, content),
		SourceID: sourceID,
		Content:  content,
		Position: position,
	}
}

// ChunkID computes the deterministic chunk identity from the source ID,
// the chunk's position and a hash of its content. Identity is content
// addressed, so it survives process restarts and concurrent ingestion
// without any shared counter.
func ChunkID(sourceID string, position int, content string) string {
	name := sourceID + ":" + strconv.Itoa(position) + ":" + domain.ContentHash(content)
	return uuid.NewSHA1(chunkNamespace, []byte(name)).String()
}

// sentenceCut returns the index just past the last sentence terminator
// in runes[start:end], or start when none exists. A terminator only
// counts when followed by whitespace or end-of-window, so decimals and
// abbreviations inside a sentence do not split it.
func sentenceCut(runes []rune, start, end int) int {
	for i := end - 1; i > start; i-- {
		switch runes[i] {
		case '.', '!', '?', '\n':
			if i+1 >= end || isSpace(runes[i+1]) {
				return i + 1
			}
		}
	}
	return start
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
