package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "same content produces same ID", content: "Section 11.13 homestead exemption"},
		{name: "empty string", content: ""},
		{name: "long content", content: "A much longer statutory passage that should still hash consistently across calls"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestMakeChunkID(t *testing.T) {
	id := MakeChunkID("tx-tax-11.13", 2, 7)
	if id != ChunkID("tx-tax-11.13@2#7") {
		t.Errorf("MakeChunkID() = %q", id)
	}
}

func TestDocumentType_AuthorityOrdering(t *testing.T) {
	// Legal precedence: statute > regulation > procedure > form > faq.
	ordered := []DocumentType{
		DocumentTypeStatute,
		DocumentTypeRegulation,
		DocumentTypeProcedure,
		DocumentTypeForm,
		DocumentTypeFAQ,
	}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].AuthorityRank() <= ordered[i].AuthorityRank() {
			t.Errorf("%s should outrank %s", ordered[i-1], ordered[i])
		}
	}
	if DocumentTypeStatute.AuthorityLevel() != 1.0 {
		t.Errorf("statute authority level = %v, want 1.0", DocumentTypeStatute.AuthorityLevel())
	}
}

func TestDocumentState_Committed(t *testing.T) {
	tests := []struct {
		state DocumentState
		want  bool
	}{
		{StateIngested, false},
		{StateChunked, false},
		{StateEmbedded, false},
		{StateIndexed, true},
		{StateDegradedIndexed, true},
		{StateSuperseded, true},
		{StateArchived, false},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			if got := tt.state.Committed(); got != tt.want {
				t.Errorf("Committed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChunk_Searchable(t *testing.T) {
	c := &Chunk{Quality: 0.8}
	if !c.Searchable() {
		t.Error("chunk above threshold should be searchable")
	}
	c.LowQuality = true
	if c.Searchable() {
		t.Error("low-quality chunk should be excluded from default scope")
	}
}

func TestChunk_Embedded(t *testing.T) {
	c := &Chunk{Vector: []float32{0.1, 0.2}}
	if !c.Embedded() {
		t.Error("chunk with vector should report embedded")
	}
	c.PendingEmbed = true
	if c.Embedded() {
		t.Error("pending-embedding chunk should not report embedded")
	}
	if (&Chunk{}).Embedded() {
		t.Error("chunk without vector should not report embedded")
	}
}

func TestParseSearchMode(t *testing.T) {
	tests := []struct {
		in   string
		want SearchMode
	}{
		{"keyword", ModeKeyword},
		{"semantic", ModeSemantic},
		{"hybrid", ModeHybrid},
		{"legal-reasoning", ModeLegalReasoning},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSearchMode(tt.in)
			if err != nil {
				t.Fatalf("ParseSearchMode(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseSearchMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if _, err := ParseSearchMode("fulltext"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestQuery_InScope(t *testing.T) {
	q := &Query{}
	if !q.InScope(DocumentTypeFAQ) {
		t.Error("empty scope should admit all types")
	}
	q.Scope = []DocumentType{DocumentTypeStatute, DocumentTypeRegulation}
	if !q.InScope(DocumentTypeStatute) {
		t.Error("statute should be in scope")
	}
	if q.InScope(DocumentTypeFAQ) {
		t.Error("faq should be filtered out")
	}
}
