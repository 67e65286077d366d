package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/lexicore/core"
	"github.com/poiesic/lexicore/storage"
)

func newTestDoc(id core.DocumentID, version uint32) *core.LegalDocument {
	return &core.LegalDocument{
		Id:            id,
		Jurisdiction:  "texas",
		Type:          core.DocumentTypeStatute,
		EffectiveDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Version:       version,
		State:         core.StateIndexed,
		ContentHash:   core.IDFromContent(string(id)),
		IndexedAt:     time.Now().UTC(),
	}
}

func newTestChunks(id core.DocumentID, version uint32, n int) []*core.Chunk {
	chunks := make([]*core.Chunk, n)
	for i := 0; i < n; i++ {
		chunks[i] = &core.Chunk{
			Id:         core.MakeChunkID(id, version, i),
			DocumentId: id,
			Version:    version,
			Position:   i,
			Text:       "A person is entitled to an exemption from taxation.",
			Quality:    0.8,
			Vector:     []float32{0.1, 0.2, 0.3},
		}
	}
	return chunks
}

func TestCommitAndGetDocument(t *testing.T) {
	docs, graph, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { graph.Close(); docs.Close(); backend.Close() }()

	ctx := context.Background()

	doc := newTestDoc("tax-code-11.13", 1)
	chunks := newTestChunks(doc.Id, 1, 3)
	if err := docs.CommitVersion(ctx, doc, chunks, nil); err != nil {
		t.Fatalf("Failed to commit version: %v", err)
	}

	got, err := docs.GetDocument(ctx, doc.Id)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if got.Version != 1 {
		t.Fatalf("Expected version 1, got %d", got.Version)
	}
	if got.Jurisdiction != "texas" {
		t.Fatalf("Expected 'texas', got '%s'", got.Jurisdiction)
	}

	stored, err := docs.GetChunks(ctx, doc.Id, 1)
	if err != nil {
		t.Fatalf("Failed to get chunks: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(stored))
	}
	for i, chunk := range stored {
		if chunk.Position != i {
			t.Fatalf("Expected chunk at position %d, got %d", i, chunk.Position)
		}
	}
}

func TestCommitVersionImmutable(t *testing.T) {
	docs, graph, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { graph.Close(); docs.Close(); backend.Close() }()

	ctx := context.Background()

	doc := newTestDoc("tax-code-11.13", 1)
	if err := docs.CommitVersion(ctx, doc, newTestChunks(doc.Id, 1, 1), nil); err != nil {
		t.Fatalf("Failed to commit version: %v", err)
	}

	// Re-committing the same version must fail
	err = docs.CommitVersion(ctx, newTestDoc(doc.Id, 1), nil, nil)
	if !errors.Is(err, storage.ErrVersionExists) {
		t.Fatalf("Expected ErrVersionExists, got %v", err)
	}
}

func TestCommitVersionWithEdges(t *testing.T) {
	docs, graph, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { graph.Close(); docs.Close(); backend.Close() }()

	ctx := context.Background()

	target := newTestDoc("tax-code-11.43", 1)
	if err := docs.CommitVersion(ctx, target, nil, nil); err != nil {
		t.Fatalf("Failed to commit target: %v", err)
	}

	doc := newTestDoc("rule-9.4001", 1)
	edges := []core.CitationEdge{
		{
			Source:      doc.Id,
			Target:      "tax-code-11.43",
			Relation:    core.RelationImplements,
			Confidence:  0.9,
			SourceChunk: core.MakeChunkID(doc.Id, 1, 0),
		},
		{
			Source:      doc.Id,
			Target:      "tax-code-11.13",
			Relation:    core.RelationReferences,
			Confidence:  0.85,
			SourceChunk: core.MakeChunkID(doc.Id, 1, 0),
		},
	}
	if err := docs.CommitVersion(ctx, doc, newTestChunks(doc.Id, 1, 1), edges); err != nil {
		t.Fatalf("Failed to commit with edges: %v", err)
	}

	// Edges are visible as soon as the version is
	out, err := graph.Outgoing(ctx, doc.Id)
	if err != nil {
		t.Fatalf("Failed to read outgoing: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("Expected 2 outgoing edges, got %d", len(out))
	}
	byTarget := make(map[core.DocumentID]core.CitationEdge)
	for _, e := range out {
		byTarget[e.Target] = e
	}
	if byTarget["tax-code-11.43"].Status != core.EdgeResolved {
		t.Fatal("Expected edge to indexed target resolved")
	}
	if byTarget["tax-code-11.13"].Status != core.EdgePending {
		t.Fatal("Expected edge to missing target pending")
	}

	// A failed commit leaves no edges behind either
	dup := newTestDoc(doc.Id, 1)
	err = docs.CommitVersion(ctx, dup, nil, []core.CitationEdge{{
		Source:     doc.Id,
		Target:     "tax-code-11.99",
		Relation:   core.RelationReferences,
		Confidence: 0.8,
	}})
	if !errors.Is(err, storage.ErrVersionExists) {
		t.Fatalf("Expected ErrVersionExists, got %v", err)
	}
	in, err := graph.Incoming(ctx, "tax-code-11.99")
	if err != nil {
		t.Fatalf("Failed to read incoming: %v", err)
	}
	if len(in) != 0 {
		t.Fatalf("Expected no edges from the failed commit, got %d", len(in))
	}
}

func TestSupersedeChain(t *testing.T) {
	docs, graph, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { graph.Close(); docs.Close(); backend.Close() }()

	ctx := context.Background()

	v1 := newTestDoc("tax-code-11.13", 1)
	if err := docs.CommitVersion(ctx, v1, newTestChunks(v1.Id, 1, 2), nil); err != nil {
		t.Fatalf("Failed to commit v1: %v", err)
	}

	v2 := newTestDoc("tax-code-11.13", 2)
	v2.Supersedes = 1
	if err := docs.CommitVersion(ctx, v2, newTestChunks(v2.Id, 2, 2), nil); err != nil {
		t.Fatalf("Failed to commit v2: %v", err)
	}

	latest, err := docs.GetDocument(ctx, v1.Id)
	if err != nil {
		t.Fatalf("Failed to get latest: %v", err)
	}
	if latest.Version != 2 {
		t.Fatalf("Expected latest version 2, got %d", latest.Version)
	}

	old, err := docs.GetVersion(ctx, v1.Id, 1)
	if err != nil {
		t.Fatalf("Failed to get v1: %v", err)
	}
	if old.State != core.StateSuperseded {
		t.Fatalf("Expected superseded state, got %s", old.State)
	}

	versions, err := docs.ListVersions(ctx, v1.Id)
	if err != nil {
		t.Fatalf("Failed to list versions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("Expected 2 versions, got %d", len(versions))
	}
	if versions[0].Version != 1 || versions[1].Version != 2 {
		t.Fatal("Expected versions ordered oldest first")
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	docs, graph, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { graph.Close(); docs.Close(); backend.Close() }()

	ctx := context.Background()

	_, err = docs.GetDocument(ctx, "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	_, err = docs.GetVersion(ctx, "missing", 1)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	_, err = docs.ListVersions(ctx, "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestArchive(t *testing.T) {
	docs, graph, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { graph.Close(); docs.Close(); backend.Close() }()

	ctx := context.Background()

	v1 := newTestDoc("old-faq", 1)
	v1.Type = core.DocumentTypeFAQ
	if err := docs.CommitVersion(ctx, v1, newTestChunks(v1.Id, 1, 1), nil); err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}

	if err := docs.Archive(ctx, v1.Id); err != nil {
		t.Fatalf("Failed to archive: %v", err)
	}

	got, err := docs.GetDocument(ctx, v1.Id)
	if err != nil {
		t.Fatalf("Failed to get archived document: %v", err)
	}
	if got.State != core.StateArchived {
		t.Fatalf("Expected archived state, got %s", got.State)
	}

	if err := docs.Archive(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	docs, graph, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { graph.Close(); docs.Close(); backend.Close() }()

	ctx := context.Background()

	v1 := newTestDoc("tax-code-11.13", 1)
	if err := docs.CommitVersion(ctx, v1, newTestChunks(v1.Id, 1, 2), nil); err != nil {
		t.Fatalf("Failed to commit v1: %v", err)
	}

	snap, err := docs.Snapshot()
	if err != nil {
		t.Fatalf("Failed to open snapshot: %v", err)
	}
	defer snap.Close()

	// Commit a new version after the snapshot was taken
	v2 := newTestDoc(v1.Id, 2)
	v2.Supersedes = 1
	if err := docs.CommitVersion(ctx, v2, newTestChunks(v2.Id, 2, 2), nil); err != nil {
		t.Fatalf("Failed to commit v2: %v", err)
	}

	// The snapshot must not see v2 or the superseded flip of v1
	if _, err := snap.Document(v1.Id, 2); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected v2 invisible in snapshot, got %v", err)
	}
	old, err := snap.Document(v1.Id, 1)
	if err != nil {
		t.Fatalf("Failed to read v1 from snapshot: %v", err)
	}
	if old.State != core.StateIndexed {
		t.Fatalf("Expected pre-commit state indexed, got %s", old.State)
	}

	count := 0
	err = snap.ForEachChunk(func(chunk *core.Chunk, doc *core.LegalDocument) error {
		if chunk.Version != 1 {
			t.Fatalf("Snapshot leaked chunk of version %d", chunk.Version)
		}
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachChunk failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("Expected 2 chunks in snapshot, got %d", count)
	}

	// A fresh snapshot sees both versions' chunks
	snap2, err := docs.Snapshot()
	if err != nil {
		t.Fatalf("Failed to open second snapshot: %v", err)
	}
	defer snap2.Close()

	count = 0
	err = snap2.ForEachChunk(func(chunk *core.Chunk, doc *core.LegalDocument) error {
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachChunk failed: %v", err)
	}
	if count != 4 {
		t.Fatalf("Expected 4 chunks in fresh snapshot, got %d", count)
	}
}
