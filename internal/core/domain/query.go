package domain

// RetrievedChunk is a single similarity-search hit.
type RetrievedChunk struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Content is the chunk text, used for context assembly.
	Content string

	// Score is the cosine similarity to the query vector.
	Score float64
}

// QueryResponse is the packaged answer for one query. It is created once
// per query and immutable; the core does not persist it.
type QueryResponse struct {
	// QueryText is the question as submitted.
	QueryText string `json:"query_text"`

	// ResponseText is the generated answer.
	ResponseText string `json:"response_text"`

	// Sources are the IDs of the chunks actually included in the
	// assembled context, in retrieval rank order, deduplicated.
	Sources []string `json:"sources"`
}
