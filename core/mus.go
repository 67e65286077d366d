package core

import (
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the stored record types. Field order is
// part of the storage format; append new fields at the end only.
var (
	IDMUS            mus.Serializer[ID]            = idSer{}
	LegalDocumentMUS mus.Serializer[LegalDocument] = legalDocumentSer{}
	ChunkMUS         mus.Serializer[Chunk]         = chunkSer{}
	CitationEdgeMUS  mus.Serializer[CitationEdge]  = citationEdgeSer{}

	vectorMUS = ord.NewSliceSer[float32](varint.Float32)
	termsMUS  = ord.NewSliceSer[string](ord.String)
	tagsMUS   = ord.NewSliceSer[TaxonomyTag](taxonomyTagSer{})
)

type idSer struct{}

func (idSer) Marshal(v ID, bs []byte) int { return varint.Uint64.Marshal(uint64(v), bs) }

func (idSer) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idSer) Size(v ID) int { return varint.Uint64.Size(uint64(v)) }

func (idSer) Skip(bs []byte) (int, error) { return varint.Uint64.Skip(bs) }

// timeSer encodes timestamps as Unix microseconds; the zero time maps to 0.
type timeSer struct{}

var timeMUS mus.Serializer[time.Time] = timeSer{}

func (timeSer) Marshal(t time.Time, bs []byte) int {
	var v int64
	if !t.IsZero() {
		v = t.UnixMicro()
	}
	return varint.Int64.Marshal(v, bs)
}

func (timeSer) Unmarshal(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	if v == 0 {
		return time.Time{}, n, nil
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func (timeSer) Size(t time.Time) int {
	var v int64
	if !t.IsZero() {
		v = t.UnixMicro()
	}
	return varint.Int64.Size(v)
}

func (timeSer) Skip(bs []byte) (int, error) { return varint.Int64.Skip(bs) }

type taxonomyTagSer struct{}

func (taxonomyTagSer) Marshal(t TaxonomyTag, bs []byte) (n int) {
	n = ord.String.Marshal(t.NodeId, bs)
	n += varint.Float32.Marshal(t.Confidence, bs[n:])
	return n
}

func (taxonomyTagSer) Unmarshal(bs []byte) (t TaxonomyTag, n int, err error) {
	t.NodeId, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	t.Confidence, n1, err = varint.Float32.Unmarshal(bs[n:])
	n += n1
	return
}

func (taxonomyTagSer) Size(t TaxonomyTag) int {
	return ord.String.Size(t.NodeId) + varint.Float32.Size(t.Confidence)
}

func (taxonomyTagSer) Skip(bs []byte) (n int, err error) {
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = varint.Float32.Skip(bs[n:])
	n += n1
	return
}

type legalDocumentSer struct{}

func (legalDocumentSer) Marshal(d LegalDocument, bs []byte) (n int) {
	n = ord.String.Marshal(string(d.Id), bs)
	n += ord.String.Marshal(d.Jurisdiction, bs[n:])
	n += varint.Int.Marshal(int(d.Type), bs[n:])
	n += timeMUS.Marshal(d.EffectiveDate, bs[n:])
	n += varint.Uint32.Marshal(d.Version, bs[n:])
	n += varint.Int.Marshal(int(d.State), bs[n:])
	n += IDMUS.Marshal(d.ContentHash, bs[n:])
	n += varint.Uint32.Marshal(d.Supersedes, bs[n:])
	n += timeMUS.Marshal(d.IndexedAt, bs[n:])
	return n
}

func (legalDocumentSer) Unmarshal(bs []byte) (d LegalDocument, n int, err error) {
	var (
		s  string
		i  int
		n1 int
	)
	if s, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	d.Id = DocumentID(s)
	if d.Jurisdiction, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if i, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	d.Type = DocumentType(i)
	n += n1
	if d.EffectiveDate, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Version, n1, err = varint.Uint32.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if i, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	d.State = DocumentState(i)
	n += n1
	if d.ContentHash, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Supersedes, n1, err = varint.Uint32.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	d.IndexedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	return d, n + n1, err
}

func (legalDocumentSer) Size(d LegalDocument) int {
	return ord.String.Size(string(d.Id)) +
		ord.String.Size(d.Jurisdiction) +
		varint.Int.Size(int(d.Type)) +
		timeMUS.Size(d.EffectiveDate) +
		varint.Uint32.Size(d.Version) +
		varint.Int.Size(int(d.State)) +
		IDMUS.Size(d.ContentHash) +
		varint.Uint32.Size(d.Supersedes) +
		timeMUS.Size(d.IndexedAt)
}

func (legalDocumentSer) Skip(bs []byte) (n int, err error) {
	skippers := []func([]byte) (int, error){
		ord.String.Skip, ord.String.Skip, varint.Int.Skip, timeMUS.Skip,
		varint.Uint32.Skip, varint.Int.Skip, IDMUS.Skip, varint.Uint32.Skip,
		timeMUS.Skip,
	}
	for _, skip := range skippers {
		n1, err := skip(bs[n:])
		n += n1
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

type chunkSer struct{}

func (chunkSer) Marshal(c Chunk, bs []byte) (n int) {
	n = ord.String.Marshal(string(c.Id), bs)
	n += ord.String.Marshal(string(c.DocumentId), bs[n:])
	n += varint.Uint32.Marshal(c.Version, bs[n:])
	n += varint.Int.Marshal(c.Position, bs[n:])
	n += ord.String.Marshal(c.Text, bs[n:])
	n += ord.String.Marshal(c.Section, bs[n:])
	n += varint.Float32.Marshal(c.Quality, bs[n:])
	n += ord.Bool.Marshal(c.LowQuality, bs[n:])
	n += tagsMUS.Marshal(c.Tags, bs[n:])
	n += termsMUS.Marshal(c.Terms, bs[n:])
	n += vectorMUS.Marshal(c.Vector, bs[n:])
	n += ord.Bool.Marshal(c.PendingEmbed, bs[n:])
	return n
}

func (chunkSer) Unmarshal(bs []byte) (c Chunk, n int, err error) {
	var (
		s  string
		n1 int
	)
	if s, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	c.Id = ChunkID(s)
	if s, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	c.DocumentId = DocumentID(s)
	n += n1
	if c.Version, n1, err = varint.Uint32.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Position, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Section, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Quality, n1, err = varint.Float32.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.LowQuality, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Tags, n1, err = tagsMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Terms, n1, err = termsMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Vector, n1, err = vectorMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	c.PendingEmbed, n1, err = ord.Bool.Unmarshal(bs[n:])
	return c, n + n1, err
}

func (chunkSer) Size(c Chunk) int {
	return ord.String.Size(string(c.Id)) +
		ord.String.Size(string(c.DocumentId)) +
		varint.Uint32.Size(c.Version) +
		varint.Int.Size(c.Position) +
		ord.String.Size(c.Text) +
		ord.String.Size(c.Section) +
		varint.Float32.Size(c.Quality) +
		ord.Bool.Size(c.LowQuality) +
		tagsMUS.Size(c.Tags) +
		termsMUS.Size(c.Terms) +
		vectorMUS.Size(c.Vector) +
		ord.Bool.Size(c.PendingEmbed)
}

func (chunkSer) Skip(bs []byte) (n int, err error) {
	skippers := []func([]byte) (int, error){
		ord.String.Skip, ord.String.Skip, varint.Uint32.Skip, varint.Int.Skip,
		ord.String.Skip, ord.String.Skip, varint.Float32.Skip, ord.Bool.Skip,
		tagsMUS.Skip, termsMUS.Skip, vectorMUS.Skip, ord.Bool.Skip,
	}
	for _, skip := range skippers {
		n1, err := skip(bs[n:])
		n += n1
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

type citationEdgeSer struct{}

func (citationEdgeSer) Marshal(e CitationEdge, bs []byte) (n int) {
	n = ord.String.Marshal(string(e.Source), bs)
	n += ord.String.Marshal(string(e.Target), bs[n:])
	n += varint.Int.Marshal(int(e.Relation), bs[n:])
	n += varint.Float32.Marshal(e.Confidence, bs[n:])
	n += ord.String.Marshal(string(e.SourceChunk), bs[n:])
	n += varint.Int.Marshal(int(e.Status), bs[n:])
	n += timeMUS.Marshal(e.CreatedAt, bs[n:])
	n += timeMUS.Marshal(e.ResolvedAt, bs[n:])
	return n
}

func (citationEdgeSer) Unmarshal(bs []byte) (e CitationEdge, n int, err error) {
	var (
		s  string
		i  int
		n1 int
	)
	if s, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	e.Source = DocumentID(s)
	if s, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	e.Target = DocumentID(s)
	n += n1
	if i, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	e.Relation = RelationKind(i)
	n += n1
	if e.Confidence, n1, err = varint.Float32.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if s, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	e.SourceChunk = ChunkID(s)
	n += n1
	if i, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	e.Status = EdgeStatus(i)
	n += n1
	if e.CreatedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	e.ResolvedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	return e, n + n1, err
}

func (citationEdgeSer) Size(e CitationEdge) int {
	return ord.String.Size(string(e.Source)) +
		ord.String.Size(string(e.Target)) +
		varint.Int.Size(int(e.Relation)) +
		varint.Float32.Size(e.Confidence) +
		ord.String.Size(string(e.SourceChunk)) +
		varint.Int.Size(int(e.Status)) +
		timeMUS.Size(e.CreatedAt) +
		timeMUS.Size(e.ResolvedAt)
}

func (citationEdgeSer) Skip(bs []byte) (n int, err error) {
	skippers := []func([]byte) (int, error){
		ord.String.Skip, ord.String.Skip, varint.Int.Skip, varint.Float32.Skip,
		ord.String.Skip, varint.Int.Skip, timeMUS.Skip, timeMUS.Skip,
	}
	for _, skip := range skippers {
		n1, err := skip(bs[n:])
		n += n1
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
