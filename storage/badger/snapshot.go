package badger

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lexicore/core"
	"github.com/poiesic/lexicore/storage"
)

// snapshot implements storage.Snapshot over a long-lived BadgerDB read
// transaction. Everything read through it observes the state as of the
// transaction's start, so commits landing mid-query stay invisible.
type snapshot struct {
	tx   *badger.Txn
	docs map[string]*core.LegalDocument
}

var _ storage.Snapshot = (*snapshot)(nil)

func newSnapshot(backend *Backend) *snapshot {
	return &snapshot{
		tx:   backend.NewReadTx(),
		docs: make(map[string]*core.LegalDocument),
	}
}

// Close discards the underlying transaction.
func (s *snapshot) Close() {
	s.tx.Discard()
}

// Document retrieves a document version as of the snapshot.
func (s *snapshot) Document(id core.DocumentID, version uint32) (*core.LegalDocument, error) {
	cacheKey := fmt.Sprintf("%s\x00%d", id, version)
	if doc, ok := s.docs[cacheKey]; ok {
		return doc, nil
	}

	doc, err := readDocument(s.tx, makeDocKey(id, version))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, storage.ErrNotFound
	}
	s.docs[cacheKey] = doc
	return doc, nil
}

// Chunk retrieves a single chunk by identifier as of the snapshot.
func (s *snapshot) Chunk(id core.ChunkID) (*core.Chunk, error) {
	docID, version, position, err := core.ParseChunkID(id)
	if err != nil {
		return nil, err
	}

	item, err := s.tx.Get(makeChunkKey(docID, version, position))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var err error
		chunk, err = storage.UnmarshalChunk(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return chunk, nil
}

// ForEachChunk visits every stored chunk with its owning document version.
func (s *snapshot) ForEachChunk(fn func(*core.Chunk, *core.LegalDocument) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(chunkPrefix + ":")
	iter := s.tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var chunk *core.Chunk
		err := iter.Item().Value(func(val []byte) error {
			var err error
			chunk, err = storage.UnmarshalChunk(val)
			return err
		})
		if err != nil {
			return err
		}

		doc, err := s.Document(chunk.DocumentId, chunk.Version)
		if err != nil {
			return err
		}
		if err := fn(chunk, doc); err != nil {
			return err
		}
	}
	return nil
}

// InDegree counts resolved edges pointing at a document as of the snapshot.
func (s *snapshot) InDegree(target core.DocumentID) (int, error) {
	return countResolvedIncoming(s.tx, target)
}

// Outgoing retrieves edges originating from a document as of the snapshot.
func (s *snapshot) Outgoing(source core.DocumentID) ([]core.CitationEdge, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeEdgeSourcePrefix(source)
	iter := s.tx.NewIterator(opts)
	defer iter.Close()

	var results []core.CitationEdge
	for iter.Rewind(); iter.Valid(); iter.Next() {
		var edge *core.CitationEdge
		err := iter.Item().Value(func(val []byte) error {
			var err error
			edge, err = storage.UnmarshalEdge(val)
			return err
		})
		if err != nil {
			return nil, err
		}
		results = append(results, *edge)
	}
	return results, nil
}

// Incoming retrieves edges pointing at a document as of the snapshot.
func (s *snapshot) Incoming(target core.DocumentID) ([]core.CitationEdge, error) {
	return readIncoming(s.tx, target)
}
