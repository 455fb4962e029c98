// Package sqlite provides the persistent vector index backed by SQLite.
//
// Embeddings are stored as little-endian float32 blobs and ranked by
// cosine similarity in process, which keeps the store pure Go (no cgo,
// no native extensions) while staying exact rather than approximate.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/oakum-labs/docq-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/oakum-labs/docq-cli/internal/core/domain"
	"github.com/oakum-labs/docq-cli/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// metaKeyDimensions is the index_meta key recording the vector dimension
// the index was created with.
const metaKeyDimensions = "dimensions"

// VectorIndex is a SQLite-backed vector index. Upserts are transactional
// and durable before returning; ranking ties break by rowid, which is
// insertion order.
type VectorIndex struct {
	db         *sql.DB
	path       string
	dimensions int
}

// NewVectorIndex opens (or creates) the index at the given data
// directory for vectors of the given dimension. If dataDir is empty,
// defaults to ~/.docq/data. Opening an index created with a different
// dimension fails with domain.ErrEmbeddingDimensionMismatch; an
// unreadable store fails with domain.ErrIndexCorrupted rather than
// silently serving empty results.
func NewVectorIndex(dataDir string, dimensions int) (*VectorIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("sqlite: dimensions must be positive, got %d", dimensions)
	}

	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docq", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", domain.ErrIndexCorrupted, err)
	}

	x := &VectorIndex{
		db:         db,
		path:       dbPath,
		dimensions: dimensions,
	}

	if err := x.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: running migrations: %v", domain.ErrIndexCorrupted, err)
	}

	if err := x.checkDimensions(); err != nil {
		db.Close()
		return nil, err
	}

	return x, nil
}

// migrate applies embedded *.up.sql files in version order.
func (x *VectorIndex) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := x.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := x.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		contents, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := x.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration transaction: %w", err)
		}

		if _, err := tx.Exec(string(contents)); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// checkDimensions records the configured dimension on first open and
// refuses to serve an index created with a different one.
func (x *VectorIndex) checkDimensions() error {
	var stored string
	err := x.db.QueryRow(
		"SELECT value FROM index_meta WHERE key = ?", metaKeyDimensions,
	).Scan(&stored)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = x.db.Exec(
			"INSERT INTO index_meta (key, value) VALUES (?, ?)",
			metaKeyDimensions, strconv.Itoa(x.dimensions),
		)
		if err != nil {
			return fmt.Errorf("recording index dimensions: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("%w: reading index meta: %v", domain.ErrIndexCorrupted, err)
	}

	storedDims, err := strconv.Atoi(stored)
	if err != nil {
		return fmt.Errorf("%w: invalid stored dimensions %q", domain.ErrIndexCorrupted, stored)
	}
	if storedDims != x.dimensions {
		return fmt.Errorf("%w: index created with %d dimensions, provider configured for %d",
			domain.ErrEmbeddingDimensionMismatch, storedDims, x.dimensions)
	}
	return nil
}

// Path returns the database file path.
func (x *VectorIndex) Path() string {
	return x.path
}

// Dimensions returns the vector dimension the index was created with.
func (x *VectorIndex) Dimensions() int {
	return x.dimensions
}

// Upsert atomically inserts or replaces the entry for its chunk ID.
// The transaction has committed before Upsert returns, so the write is
// durable and concurrent readers see either the old or new row.
func (x *VectorIndex) Upsert(ctx context.Context, e driven.IndexEntry) error {
	if len(e.Embedding) != x.dimensions {
		return fmt.Errorf("%w: got %d dimensions, index has %d",
			domain.ErrEmbeddingDimensionMismatch, len(e.Embedding), x.dimensions)
	}

	metadataJSON, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling entry metadata: %w", err)
	}

	_, err = x.db.ExecContext(ctx, `
		INSERT INTO entries (chunk_id, source_id, position, content, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			source_id = excluded.source_id,
			position = excluded.position,
			content = excluded.content,
			embedding = excluded.embedding,
			metadata = excluded.metadata
	`, e.ChunkID, e.SourceID, e.Position, e.Content,
		float32SliceToBytes(e.Embedding), string(metadataJSON))
	if err != nil {
		return fmt.Errorf("upserting entry: %w", err)
	}
	return nil
}

// Query loads all entries in insertion order and ranks them by cosine
// similarity. The stable sort preserves insertion order for equal
// scores, so the earlier-indexed chunk wins ties.
func (x *VectorIndex) Query(ctx context.Context, vector []float32, k int) ([]domain.RetrievedChunk, error) {
	if len(vector) != x.dimensions {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index has %d",
			domain.ErrEmbeddingDimensionMismatch, len(vector), x.dimensions)
	}
	if k <= 0 {
		return []domain.RetrievedChunk{}, nil
	}

	rows, err := x.db.QueryContext(ctx, `
		SELECT chunk_id, content, embedding FROM entries ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var results []domain.RetrievedChunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunkID, content string
		var blob []byte
		if err := rows.Scan(&chunkID, &content, &blob); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		results = append(results, domain.RetrievedChunk{
			ChunkID: chunkID,
			Content: content,
			Score:   cosine(vector, bytesToFloat32Slice(blob)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Delete removes the entry for the chunk ID; absent IDs are a no-op.
func (x *VectorIndex) Delete(ctx context.Context, chunkID string) error {
	_, err := x.db.ExecContext(ctx, "DELETE FROM entries WHERE chunk_id = ?", chunkID)
	if err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}
	return nil
}

// ChunkIDsBySource lists chunk IDs for a source ordered by position.
func (x *VectorIndex) ChunkIDsBySource(ctx context.Context, sourceID string) ([]string, error) {
	rows, err := x.db.QueryContext(ctx, `
		SELECT chunk_id FROM entries WHERE source_id = ? ORDER BY position
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("querying source chunks: %w", err)
	}
	defer rows.Close()

	var ids []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning chunk id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunk ids: %w", err)
	}
	return ids, nil
}

// SourceFingerprint returns the recorded content hash for a source,
// or empty when the source has never been ingested.
func (x *VectorIndex) SourceFingerprint(ctx context.Context, sourceID string) (string, error) {
	var hash string
	err := x.db.QueryRowContext(ctx,
		"SELECT content_hash FROM source_fingerprints WHERE source_id = ?", sourceID,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying source fingerprint: %w", err)
	}
	return hash, nil
}

// SetSourceFingerprint records the content hash for a source.
func (x *VectorIndex) SetSourceFingerprint(ctx context.Context, sourceID, hash string) error {
	_, err := x.db.ExecContext(ctx, `
		INSERT INTO source_fingerprints (source_id, content_hash, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(source_id) DO UPDATE SET
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at
	`, sourceID, hash)
	if err != nil {
		return fmt.Errorf("recording source fingerprint: %w", err)
	}
	return nil
}

// Size returns the number of stored entries.
func (x *VectorIndex) Size(ctx context.Context) (int, error) {
	var count int
	if err := x.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return count, nil
}

// Ping verifies the store is readable.
func (x *VectorIndex) Ping(ctx context.Context) error {
	if err := x.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIndexCorrupted, err)
	}
	return nil
}

// Close closes the database connection.
func (x *VectorIndex) Close() error {
	return x.db.Close()
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// cosine computes cosine similarity between two equal-length vectors.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
