package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// SourceType identifies how a document entered the system.
type SourceType string

const (
	// SourceTypeUpload is a document supplied directly (file upload, CLI).
	SourceTypeUpload SourceType = "upload"

	// SourceTypeWeb is a document extracted from a web page.
	SourceTypeWeb SourceType = "web"
)

// Valid returns true for a known source type.
func (t SourceType) Valid() bool {
	return t == SourceTypeUpload || t == SourceTypeWeb
}

// Document is normalised text submitted for ingestion.
// A document is immutable once stored; re-ingesting the same SourceID
// with new content supersedes the prior version, it never mutates it.
type Document struct {
	// SourceID is the stable identity of the document's origin: a content
	// hash for uploads, a URL hash for web sources. Chunks reference it.
	SourceID string

	// Content is the full normalised text before chunking.
	Content string

	// Type records how the document entered the system.
	Type SourceType

	// SourceURL is the original location for web documents, empty otherwise.
	SourceURL string

	// Metadata contains arbitrary key-value pairs carried into each chunk.
	Metadata map[string]any

	// IngestedAt is when the document was submitted.
	IngestedAt time.Time
}

// Chunk is a bounded contiguous segment of a document's text, the unit
// of embedding and retrieval.
type Chunk struct {
	// ID is the deterministic chunk identity, derived from SourceID,
	// Position and the content hash. Identical content chunked with
	// identical parameters always yields identical IDs.
	ID string

	// SourceID links back to the originating document (non-owning).
	SourceID string

	// Content is the chunk text.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Embedding is the vector representation, populated during ingestion.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// ContentHash returns the hex SHA-256 of the given text.
// It is the building block for SourceID and chunk identity.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
