package core

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a 64-bit content hash used for idempotence checks and provenance.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always produces the same ID.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DocumentID is the caller-assigned identity of a legal document.
// All versions of the same document share one DocumentID.
type DocumentID string

// ChunkID identifies a chunk within a specific document version.
type ChunkID string

// MakeChunkID builds the canonical chunk identifier for a document version and position.
func MakeChunkID(doc DocumentID, version uint32, position int) ChunkID {
	return ChunkID(fmt.Sprintf("%s@%d#%d", doc, version, position))
}

// ParseChunkID splits a chunk identifier into its document, version and
// position components. Parsed from the right, since document IDs may contain
// the separator characters.
func ParseChunkID(id ChunkID) (DocumentID, uint32, int, error) {
	s := string(id)
	hash := strings.LastIndexByte(s, '#')
	if hash < 0 {
		return "", 0, 0, fmt.Errorf("%w: malformed chunk id %q", ErrValidation, id)
	}
	at := strings.LastIndexByte(s[:hash], '@')
	if at < 0 {
		return "", 0, 0, fmt.Errorf("%w: malformed chunk id %q", ErrValidation, id)
	}

	position, err := strconv.Atoi(s[hash+1:])
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: malformed chunk id %q", ErrValidation, id)
	}
	version, err := strconv.ParseUint(s[at+1:hash], 10, 32)
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: malformed chunk id %q", ErrValidation, id)
	}
	return DocumentID(s[:at]), uint32(version), position, nil
}

// DocumentType classifies a legal document and determines its authority level.
type DocumentType int

const (
	DocumentTypeStatute DocumentType = iota + 1
	DocumentTypeRegulation
	DocumentTypeProcedure
	DocumentTypeForm
	DocumentTypeFAQ
)

func (t DocumentType) String() string {
	switch t {
	case DocumentTypeStatute:
		return "statute"
	case DocumentTypeRegulation:
		return "regulation"
	case DocumentTypeProcedure:
		return "procedure"
	case DocumentTypeForm:
		return "form"
	case DocumentTypeFAQ:
		return "faq"
	default:
		return "unknown"
	}
}

// ParseDocumentType converts a type name to a DocumentType.
func ParseDocumentType(s string) (DocumentType, error) {
	switch s {
	case "statute":
		return DocumentTypeStatute, nil
	case "regulation":
		return DocumentTypeRegulation, nil
	case "procedure":
		return DocumentTypeProcedure, nil
	case "form":
		return DocumentTypeForm, nil
	case "faq":
		return DocumentTypeFAQ, nil
	default:
		return 0, fmt.Errorf("%w: unknown document type %q", ErrValidation, s)
	}
}

// authorityRanks maps document types to their legal precedence rank.
// Statutory text outranks regulatory, regulatory outranks procedural,
// and informational material (forms, FAQs) sits at the bottom.
var authorityRanks = map[DocumentType]int{
	DocumentTypeStatute:    5,
	DocumentTypeRegulation: 4,
	DocumentTypeProcedure:  3,
	DocumentTypeForm:       2,
	DocumentTypeFAQ:        1,
}

// AuthorityRank returns the precedence rank for the document type (higher wins).
func (t DocumentType) AuthorityRank() int {
	return authorityRanks[t]
}

// AuthorityLevel returns the rank normalized to [0,1] for use as a ranking signal.
func (t DocumentType) AuthorityLevel() float64 {
	return float64(authorityRanks[t]) / 5.0
}

// DocumentState tracks a document version through the indexing lifecycle.
type DocumentState int

const (
	StateIngested DocumentState = iota + 1
	StateChunked
	StateEmbedded
	StateIndexed
	// StateDegradedIndexed marks a committed version where one or more chunks
	// lack embeddings. Visible to keyword search, excluded from semantic search.
	StateDegradedIndexed
	StateSuperseded
	StateArchived
)

func (s DocumentState) String() string {
	switch s {
	case StateIngested:
		return "ingested"
	case StateChunked:
		return "chunked"
	case StateEmbedded:
		return "embedded"
	case StateIndexed:
		return "indexed"
	case StateDegradedIndexed:
		return "degraded-indexed"
	case StateSuperseded:
		return "superseded"
	case StateArchived:
		return "archived"
	default:
		return "unknown"
	}
}

// Committed reports whether the state is visible to the query engine.
func (s DocumentState) Committed() bool {
	return s == StateIndexed || s == StateDegradedIndexed || s == StateSuperseded
}

// LegalDocument is one committed version of a jurisdiction-specific legal text.
// Immutable once committed; corrections create a new version linked by Supersedes.
type LegalDocument struct {
	Id            DocumentID
	Jurisdiction  string
	Type          DocumentType
	EffectiveDate time.Time
	Version       uint32
	State         DocumentState
	ContentHash   ID
	Supersedes    uint32 // prior version number, 0 for the first version
	IndexedAt     time.Time
}

// RawDocument is the ingestion input for one document version.
type RawDocument struct {
	Id             DocumentID
	Jurisdiction   string
	Type           DocumentType
	EffectiveDate  time.Time
	Text           string
	SourceCitation string // optional provenance note
}

// TaxonomyTag is a category assignment on a chunk.
type TaxonomyTag struct {
	NodeId     string
	Confidence float32
}

// UncategorizedTag marks chunks with no confident taxonomy match.
// Such chunks remain searchable.
const UncategorizedTag = "uncategorized"

// Chunk is the minimal retrievable unit of a document's text.
// Owned by exactly one document version and never mutated after commit.
type Chunk struct {
	Id           ChunkID
	DocumentId   DocumentID
	Version      uint32
	Position     int
	Text         string // normalized text
	Section      string // top-level structural section heading, if any
	Quality      float32
	LowQuality   bool // below quality threshold: stored for audit, outside default search scope
	Tags         []TaxonomyTag
	Terms        []string // canonical terms recognized by the normalizer
	Vector       []float32
	PendingEmbed bool // embedding call failed after retries; excluded from semantic search
}

// Searchable reports whether the chunk is in the default search scope.
func (c *Chunk) Searchable() bool {
	return !c.LowQuality
}

// Embedded reports whether the chunk carries a usable embedding vector.
func (c *Chunk) Embedded() bool {
	return !c.PendingEmbed && len(c.Vector) > 0
}

// RelationKind classifies a citation relation between two documents.
type RelationKind int

const (
	RelationImplements RelationKind = iota + 1
	RelationReferences
	RelationAmends
	RelationSupersedes
)

func (r RelationKind) String() string {
	switch r {
	case RelationImplements:
		return "implements"
	case RelationReferences:
		return "references"
	case RelationAmends:
		return "amends"
	case RelationSupersedes:
		return "supersedes"
	default:
		return "unknown"
	}
}

// EdgeStatus tracks resolution of a citation edge's target.
type EdgeStatus int

const (
	// EdgePending means the target document is not yet indexed.
	EdgePending EdgeStatus = iota + 1
	// EdgeResolved means the target document exists in the index.
	EdgeResolved
	// EdgeDangling means the target never appeared within the re-check window.
	EdgeDangling
)

func (s EdgeStatus) String() string {
	switch s {
	case EdgePending:
		return "pending"
	case EdgeResolved:
		return "resolved"
	case EdgeDangling:
		return "dangling"
	default:
		return "unknown"
	}
}

// CitationEdge is a directed relation between two documents, extracted from
// a specific chunk. The graph may contain cycles; no acyclicity is enforced.
type CitationEdge struct {
	Source      DocumentID
	Target      DocumentID
	Relation    RelationKind
	Confidence  float32
	SourceChunk ChunkID // provenance
	Status      EdgeStatus
	CreatedAt   time.Time
	ResolvedAt  time.Time // zero until resolved or marked dangling
}

// SearchMode selects the retrieval strategy for a query.
type SearchMode int

const (
	ModeKeyword SearchMode = iota + 1
	ModeSemantic
	ModeHybrid
	ModeLegalReasoning
)

func (m SearchMode) String() string {
	switch m {
	case ModeKeyword:
		return "keyword"
	case ModeSemantic:
		return "semantic"
	case ModeHybrid:
		return "hybrid"
	case ModeLegalReasoning:
		return "legal-reasoning"
	default:
		return "unknown"
	}
}

// ParseSearchMode converts a mode name to a SearchMode.
func ParseSearchMode(s string) (SearchMode, error) {
	switch s {
	case "keyword":
		return ModeKeyword, nil
	case "semantic":
		return ModeSemantic, nil
	case "hybrid":
		return ModeHybrid, nil
	case "legal-reasoning":
		return ModeLegalReasoning, nil
	default:
		return 0, fmt.Errorf("%w: unknown search mode %q", ErrValidation, s)
	}
}

// Query is a retrieval request against the committed index.
type Query struct {
	Text         string
	Mode         SearchMode
	Scope        []DocumentType // empty means all types
	Jurisdiction string         // empty means all jurisdictions
	Limit        int
	// IncludeHistorical ranks superseded versions at full strength.
	// By default superseded versions are discounted below active ones.
	IncludeHistorical bool
}

// InScope reports whether a document type passes the query's scope filter.
func (q *Query) InScope(t DocumentType) bool {
	if len(q.Scope) == 0 {
		return true
	}
	for _, s := range q.Scope {
		if s == t {
			return true
		}
	}
	return false
}

// ScoreBreakdown exposes the components of a composite result score.
type ScoreBreakdown struct {
	Similarity       float64
	Authority        float64
	Centrality       float64
	DiversityPenalty float64
}

// SearchResult is one ranked hit with its score breakdown and a
// human-readable explanation of which signals dominated.
type SearchResult struct {
	Chunk       *Chunk
	Document    *LegalDocument
	Score       float64
	Breakdown   ScoreBreakdown
	Explanation string
}
