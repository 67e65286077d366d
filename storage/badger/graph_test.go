package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/lexicore/core"
)

func TestAddEdgesResolution(t *testing.T) {
	docs, graph, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { graph.Close(); docs.Close(); backend.Close() }()

	ctx := context.Background()

	// Index the target so the first edge resolves immediately
	target := newTestDoc("tax-code-11.13", 1)
	if err := docs.CommitVersion(ctx, target, nil, nil); err != nil {
		t.Fatalf("Failed to commit target: %v", err)
	}

	edges := []core.CitationEdge{
		{
			Source:      "rule-9.4001",
			Target:      "tax-code-11.13",
			Relation:    core.RelationImplements,
			Confidence:  0.9,
			SourceChunk: core.MakeChunkID("rule-9.4001", 1, 0),
		},
		{
			Source:      "rule-9.4001",
			Target:      "tax-code-11.43",
			Relation:    core.RelationReferences,
			Confidence:  0.85,
			SourceChunk: core.MakeChunkID("rule-9.4001", 1, 1),
		},
	}
	if err := graph.AddEdges(ctx, edges); err != nil {
		t.Fatalf("Failed to add edges: %v", err)
	}

	out, err := graph.Outgoing(ctx, "rule-9.4001")
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
	if byTarget["tax-code-11.13"].Status != core.EdgeResolved {
		t.Fatal("Expected edge to indexed target resolved")
	}
	if byTarget["tax-code-11.43"].Status != core.EdgePending {
		t.Fatal("Expected edge to missing target pending")
	}

	degree, err := graph.InDegree(ctx, "tax-code-11.13")
	if err != nil {
		t.Fatalf("Failed to count in-degree: %v", err)
	}
	if degree != 1 {
		t.Fatalf("Expected in-degree 1, got %d", degree)
	}

	// Pending edges don't count toward in-degree
	degree, err = graph.InDegree(ctx, "tax-code-11.43")
	if err != nil {
		t.Fatalf("Failed to count in-degree: %v", err)
	}
	if degree != 0 {
		t.Fatalf("Expected in-degree 0, got %d", degree)
	}
}

func TestAddEdgesMerge(t *testing.T) {
	docs, graph, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { graph.Close(); docs.Close(); backend.Close() }()

	ctx := context.Background()

	edge := core.CitationEdge{
		Source:     "form-50-114",
		Target:     "tax-code-11.13",
		Relation:   core.RelationReferences,
		Confidence: 0.7,
	}
	if err := graph.AddEdges(ctx, []core.CitationEdge{edge}); err != nil {
		t.Fatalf("Failed to add edge: %v", err)
	}

	// Re-adding with higher confidence merges, never duplicates
	edge.Confidence = 0.95
	if err := graph.AddEdges(ctx, []core.CitationEdge{edge}); err != nil {
		t.Fatalf("Failed to re-add edge: %v", err)
	}

	out, err := graph.Outgoing(ctx, "form-50-114")
	if err != nil {
		t.Fatalf("Failed to read outgoing: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("Expected 1 edge after merge, got %d", len(out))
	}
	if out[0].Confidence != 0.95 {
		t.Fatalf("Expected merged confidence 0.95, got %f", out[0].Confidence)
	}
}

func TestResolvePending(t *testing.T) {
	docs, graph, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { graph.Close(); docs.Close(); backend.Close() }()

	ctx := context.Background()

	edges := []core.CitationEdge{
		{Source: "a", Target: "tax-code-11.13", Relation: core.RelationReferences, Confidence: 0.9},
		{Source: "b", Target: "tax-code-11.13", Relation: core.RelationImplements, Confidence: 0.9},
		{Source: "c", Target: "other-doc", Relation: core.RelationReferences, Confidence: 0.9},
	}
	if err := graph.AddEdges(ctx, edges); err != nil {
		t.Fatalf("Failed to add edges: %v", err)
	}

	// Target arrives; only its pending edges resolve
	target := newTestDoc("tax-code-11.13", 1)
	if err := docs.CommitVersion(ctx, target, nil, nil); err != nil {
		t.Fatalf("Failed to commit target: %v", err)
	}

	resolved, err := graph.ResolvePending(ctx, "tax-code-11.13")
	if err != nil {
		t.Fatalf("Failed to resolve pending: %v", err)
	}
	if resolved != 2 {
		t.Fatalf("Expected 2 resolved, got %d", resolved)
	}

	degree, err := graph.InDegree(ctx, "tax-code-11.13")
	if err != nil {
		t.Fatalf("Failed to count in-degree: %v", err)
	}
	if degree != 2 {
		t.Fatalf("Expected in-degree 2, got %d", degree)
	}

	in, err := graph.Incoming(ctx, "tax-code-11.13")
	if err != nil {
		t.Fatalf("Failed to read incoming: %v", err)
	}
	for _, e := range in {
		if e.Status != core.EdgeResolved {
			t.Fatalf("Expected resolved, got %s", e.Status)
		}
		if e.ResolvedAt.IsZero() {
			t.Fatal("Expected ResolvedAt to be set")
		}
	}

	// Unrelated pending edge untouched
	in, err = graph.Incoming(ctx, "other-doc")
	if err != nil {
		t.Fatalf("Failed to read incoming: %v", err)
	}
	if len(in) != 1 || in[0].Status != core.EdgePending {
		t.Fatal("Expected unrelated edge still pending")
	}

	// Resolving again is a no-op
	resolved, err = graph.ResolvePending(ctx, "tax-code-11.13")
	if err != nil {
		t.Fatalf("Failed to re-resolve: %v", err)
	}
	if resolved != 0 {
		t.Fatalf("Expected 0 resolved on second pass, got %d", resolved)
	}
}

func TestSweepPending(t *testing.T) {
	docs, graph, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { graph.Close(); docs.Close(); backend.Close() }()

	ctx := context.Background()

	old := core.CitationEdge{
		Source:     "a",
		Target:     "never-indexed",
		Relation:   core.RelationReferences,
		Confidence: 0.9,
		CreatedAt:  time.Now().UTC().Add(-30 * 24 * time.Hour),
	}
	fresh := core.CitationEdge{
		Source:     "b",
		Target:     "not-yet-indexed",
		Relation:   core.RelationReferences,
		Confidence: 0.9,
	}
	if err := graph.AddEdges(ctx, []core.CitationEdge{old, fresh}); err != nil {
		t.Fatalf("Failed to add edges: %v", err)
	}

	cutoff := time.Now().UTC().Add(-14 * 24 * time.Hour)
	swept, err := graph.SweepPending(ctx, cutoff)
	if err != nil {
		t.Fatalf("Failed to sweep: %v", err)
	}
	if swept != 1 {
		t.Fatalf("Expected 1 swept, got %d", swept)
	}

	in, err := graph.Incoming(ctx, "never-indexed")
	if err != nil {
		t.Fatalf("Failed to read incoming: %v", err)
	}
	if len(in) != 1 || in[0].Status != core.EdgeDangling {
		t.Fatal("Expected old edge dangling")
	}

	in, err = graph.Incoming(ctx, "not-yet-indexed")
	if err != nil {
		t.Fatalf("Failed to read incoming: %v", err)
	}
	if len(in) != 1 || in[0].Status != core.EdgePending {
		t.Fatal("Expected fresh edge still pending")
	}
}
