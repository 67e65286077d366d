package storage

import (
	"context"
	"time"

	"github.com/poiesic/lexicore/core"
)

// DocumentStore persists document versions and their chunks.
// Implementations must be thread-safe and support concurrent access.
type DocumentStore interface {
	// CommitVersion atomically writes a document version together with all of
	// its chunks and the citation edges extracted from them, updates the
	// latest-version pointer, and marks the version named by doc.Supersedes
	// as superseded. Readers never observe a partially written version: the
	// document, its chunks, and its edges become visible in one step or not
	// at all. Edges whose target is not yet indexed are stored pending.
	CommitVersion(ctx context.Context, doc *core.LegalDocument, chunks []*core.Chunk, edges []core.CitationEdge) error

	// GetDocument retrieves the latest version of a document.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.DocumentID) (*core.LegalDocument, error)

	// GetVersion retrieves a specific document version.
	// Returns ErrNotFound if the version doesn't exist.
	GetVersion(ctx context.Context, id core.DocumentID, version uint32) (*core.LegalDocument, error)

	// ListVersions retrieves all versions of a document, oldest first.
	// Returns ErrNotFound if the document doesn't exist.
	ListVersions(ctx context.Context, id core.DocumentID) ([]*core.LegalDocument, error)

	// GetChunks retrieves the chunks of a document version in position order.
	GetChunks(ctx context.Context, id core.DocumentID, version uint32) ([]*core.Chunk, error)

	// Archive marks every version of a document archived, removing it from
	// the search scope while preserving it for version-history reads.
	// Returns ErrNotFound if the document doesn't exist.
	Archive(ctx context.Context, id core.DocumentID) error

	// Snapshot opens a point-in-time read view over documents, chunks, and
	// the citation graph. A query holding a snapshot keeps seeing the state
	// from before any commit that lands while it runs.
	Snapshot() (Snapshot, error)

	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// GraphStore persists directed citation edges between documents.
// Edges are keyed by (source, target, relation); re-adding an existing edge
// merges rather than duplicates.
type GraphStore interface {
	// AddEdges stores citation edges. Each edge is resolved immediately when
	// its target document is already indexed, otherwise stored pending.
	AddEdges(ctx context.Context, edges []core.CitationEdge) error

	// Outgoing retrieves all edges originating from a document.
	Outgoing(ctx context.Context, source core.DocumentID) ([]core.CitationEdge, error)

	// Incoming retrieves all edges pointing at a document.
	Incoming(ctx context.Context, target core.DocumentID) ([]core.CitationEdge, error)

	// InDegree counts resolved edges pointing at a document.
	InDegree(ctx context.Context, target core.DocumentID) (int, error)

	// ResolvePending flips pending edges whose target just became indexed to
	// resolved. The scan is bounded by the number of pending edges for that
	// target, not the size of the graph. Returns the number resolved.
	ResolvePending(ctx context.Context, target core.DocumentID) (int, error)

	// SweepPending marks pending edges created before the cutoff as dangling.
	// Dangling edges are kept for audit but never resolve. Returns the number
	// swept.
	SweepPending(ctx context.Context, cutoff time.Time) (int, error)

	// Close releases resources held by the graph store.
	Close() error
}

// Snapshot is a point-in-time read view used by the query engine. All reads
// through one Snapshot observe the same committed state. Callers must Close
// the snapshot when the query finishes.
type Snapshot interface {
	// Document retrieves a document version as of the snapshot.
	// Returns ErrNotFound if the version doesn't exist.
	Document(id core.DocumentID, version uint32) (*core.LegalDocument, error)

	// Chunk retrieves a single chunk by identifier as of the snapshot.
	// Returns ErrNotFound if the chunk doesn't exist.
	Chunk(id core.ChunkID) (*core.Chunk, error)

	// ForEachChunk visits every stored chunk together with its owning
	// document version. Iteration stops on the first error from fn.
	ForEachChunk(fn func(*core.Chunk, *core.LegalDocument) error) error

	// InDegree counts resolved edges pointing at a document as of the snapshot.
	InDegree(target core.DocumentID) (int, error)

	// Outgoing retrieves edges originating from a document as of the snapshot.
	Outgoing(source core.DocumentID) ([]core.CitationEdge, error)

	// Incoming retrieves edges pointing at a document as of the snapshot.
	Incoming(target core.DocumentID) ([]core.CitationEdge, error)

	// Close releases the snapshot. The snapshot must not be used afterwards.
	Close()
}
