package citation

import (
	"testing"

	"github.com/poiesic/lexicore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChunk(docID, text string) *core.Chunk {
	return &core.Chunk{
		Id:         core.MakeChunkID(core.DocumentID(docID), 1, 0),
		DocumentId: core.DocumentID(docID),
		Version:    1,
		Text:       text,
	}
}

func TestExtract_StatuteReference(t *testing.T) {
	e := New()

	tests := []struct {
		name       string
		text       string
		wantTarget core.DocumentID
		wantKind   core.RelationKind
	}{
		{
			name:       "comma style",
			text:       "An exemption is available under Section 11.13, Tax Code.",
			wantTarget: "tx-tax-11.13",
			wantKind:   core.RelationReferences,
		},
		{
			name:       "of-the style",
			text:       "See Section 23.01 of the Tax Code for appraisal standards.",
			wantTarget: "tx-tax-23.01",
			wantKind:   core.RelationReferences,
		},
		{
			name:       "abbreviated",
			text:       "As provided by Sec. 41.41, Tax Code, an owner may protest.",
			wantTarget: "tx-tax-41.41",
			wantKind:   core.RelationReferences,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edges := e.Extract(testChunk("doc-a", tt.text))
			require.Len(t, edges, 1)
			assert.Equal(t, tt.wantTarget, edges[0].Target)
			assert.Equal(t, tt.wantKind, edges[0].Relation)
			assert.GreaterOrEqual(t, edges[0].Confidence, float32(0.9))
			assert.Equal(t, core.DocumentID("doc-a"), edges[0].Source)
			assert.Equal(t, testChunk("doc-a", tt.text).Id, edges[0].SourceChunk)
		})
	}
}

func TestExtract_RelationKinds(t *testing.T) {
	e := New()

	tests := []struct {
		name       string
		text       string
		wantTarget core.DocumentID
		wantKind   core.RelationKind
	}{
		{
			name:       "amends",
			text:       "This section applies as amended by Section 11.431.",
			wantTarget: "tx-tax-11.431",
			wantKind:   core.RelationAmends,
		},
		{
			name:       "supersedes",
			text:       "The 2023 revision supersedes Section 11.13 in its entirety.",
			wantTarget: "tx-tax-11.13",
			wantKind:   core.RelationSupersedes,
		},
		{
			name:       "implements statute",
			text:       "This procedure exists implementing Section 41.41 protest rights.",
			wantTarget: "tx-tax-41.41",
			wantKind:   core.RelationImplements,
		},
		{
			name:       "implements rule",
			text:       "Hearings follow Comptroller Rule 9.805 scheduling requirements.",
			wantTarget: "rule-9.805",
			wantKind:   core.RelationImplements,
		},
		{
			name:       "form cross-reference",
			text:       "Submit Form 50-114 to the appraisal district.",
			wantTarget: "form-50-114",
			wantKind:   core.RelationReferences,
		},
		{
			name:       "case reference",
			text:       "The holding in Rourk v. Cameron controls residency disputes.",
			wantTarget: "case-rourk-v-cameron",
			wantKind:   core.RelationReferences,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edges := e.Extract(testChunk("doc-a", tt.text))
			require.Len(t, edges, 1)
			assert.Equal(t, tt.wantTarget, edges[0].Target)
			assert.Equal(t, tt.wantKind, edges[0].Relation)
		})
	}
}

func TestExtract_OverlapDedupKeepsHighestConfidence(t *testing.T) {
	e := New()

	// "as amended by Section 11.431, Tax Code" matches both the amendment
	// phrase and the plain statute-reference style on overlapping spans.
	// The amendment pattern carries higher confidence and must win.
	edges := e.Extract(testChunk("doc-a", "Applies as amended by Section 11.431, Tax Code."))
	require.Len(t, edges, 1)
	assert.Equal(t, core.RelationAmends, edges[0].Relation)
	assert.Equal(t, core.DocumentID("tx-tax-11.431"), edges[0].Target)
}

func TestExtract_MultipleDistinctReferences(t *testing.T) {
	e := New()

	text := "File Form 50-114 under Section 11.13, Tax Code, before the deadline in Section 11.43, Tax Code."
	edges := e.Extract(testChunk("doc-a", text))
	require.Len(t, edges, 3)

	targets := make(map[core.DocumentID]bool)
	for _, edge := range edges {
		targets[edge.Target] = true
	}
	assert.True(t, targets["form-50-114"])
	assert.True(t, targets["tx-tax-11.13"])
	assert.True(t, targets["tx-tax-11.43"])
}

func TestExtract_DropsSelfReference(t *testing.T) {
	e := New()

	edges := e.Extract(testChunk("tx-tax-11.13", "Defined in Section 11.13, Tax Code."))
	assert.Empty(t, edges)
}

func TestExtract_DuplicateTargetCollapses(t *testing.T) {
	e := New()

	text := "Section 11.13, Tax Code applies. Again see Section 11.13, Tax Code."
	edges := e.Extract(testChunk("doc-a", text))
	require.Len(t, edges, 1)
	assert.Equal(t, core.DocumentID("tx-tax-11.13"), edges[0].Target)
}

func TestExtract_NoReferences(t *testing.T) {
	e := New()
	assert.Nil(t, e.Extract(testChunk("doc-a", "Plain prose with no citations at all.")))
}

func TestExtract_CustomPrefixes(t *testing.T) {
	e := New(WithPrefixes("ca-rev", "ccr"))

	edges := e.Extract(testChunk("doc-a", "See Section 2.01, Tax Code."))
	require.Len(t, edges, 1)
	assert.Equal(t, core.DocumentID("ca-rev-2.01"), edges[0].Target)
}
