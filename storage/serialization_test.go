package storage

import (
	"testing"
	"time"

	"github.com/poiesic/lexicore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.Error(t, err)
}

func TestMarshalUnmarshalDocument(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	doc := &core.LegalDocument{
		Id:            "tax-code-11.13",
		Jurisdiction:  "texas",
		Type:          core.DocumentTypeStatute,
		EffectiveDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Version:       3,
		State:         core.StateIndexed,
		ContentHash:   core.IDFromContent("body text"),
		Supersedes:    2,
		IndexedAt:     now,
	}

	data := MarshalDocument(doc)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalDocument(data)
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
}

func TestMarshalUnmarshalDocument_ZeroTimes(t *testing.T) {
	doc := &core.LegalDocument{
		Id:      "pending-doc",
		Type:    core.DocumentTypeFAQ,
		Version: 1,
		State:   core.StateIngested,
	}

	decoded, err := UnmarshalDocument(MarshalDocument(doc))
	require.NoError(t, err)
	assert.True(t, decoded.EffectiveDate.IsZero())
	assert.True(t, decoded.IndexedAt.IsZero())
}

func TestMarshalUnmarshalChunk(t *testing.T) {
	chunk := &core.Chunk{
		Id:         core.MakeChunkID("tax-code-11.13", 1, 4),
		DocumentId: "tax-code-11.13",
		Version:    1,
		Position:   4,
		Text:       "An adult is entitled to a homestead exemption.",
		Section:    "Sec. 11.13.",
		Quality:    0.82,
		Tags: []core.TaxonomyTag{
			{NodeId: "exemptions.homestead", Confidence: 0.67},
			{NodeId: "exemptions", Confidence: 0.5},
		},
		Terms:  []string{"homestead exemption"},
		Vector: []float32{0.1, -0.2, 0.3},
	}

	data := MarshalChunk(chunk)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalChunk(data)
	require.NoError(t, err)
	assert.Equal(t, chunk, decoded)
}

func TestMarshalUnmarshalChunk_PendingEmbed(t *testing.T) {
	chunk := &core.Chunk{
		Id:           core.MakeChunkID("doc", 1, 0),
		DocumentId:   "doc",
		Version:      1,
		Text:         "text",
		PendingEmbed: true,
	}

	decoded, err := UnmarshalChunk(MarshalChunk(chunk))
	require.NoError(t, err)
	assert.True(t, decoded.PendingEmbed)
	assert.False(t, decoded.Embedded())
}

func TestMarshalUnmarshalEdge(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	edge := &core.CitationEdge{
		Source:      "rule-9.4001",
		Target:      "tax-code-11.13",
		Relation:    core.RelationImplements,
		Confidence:  0.9,
		SourceChunk: core.MakeChunkID("rule-9.4001", 1, 2),
		Status:      core.EdgeResolved,
		CreatedAt:   now,
		ResolvedAt:  now,
	}

	data := MarshalEdge(edge)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalEdge(data)
	require.NoError(t, err)
	assert.Equal(t, edge, decoded)
}

func TestUnmarshalEdge_Truncated(t *testing.T) {
	edge := &core.CitationEdge{
		Source:   "a",
		Target:   "b",
		Relation: core.RelationReferences,
		Status:   core.EdgePending,
	}
	data := MarshalEdge(edge)

	_, err := UnmarshalEdge(data[:len(data)-3])
	assert.Error(t, err)
}

func TestMarshalUnmarshalVersion(t *testing.T) {
	for _, v := range []uint32{0, 1, 42, 4294967295} {
		decoded, err := UnmarshalVersion(MarshalVersion(v))
		require.NoError(t, err)
		assert.Equal(t, v, decoded)
	}
}
