package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lexicore/core"
	"github.com/poiesic/lexicore/storage"
)

// DocumentStore implements storage.DocumentStore for BadgerDB.
type DocumentStore struct {
	backend *Backend
}

var _ storage.DocumentStore = (*DocumentStore)(nil)

// NewDocumentStore creates a new DocumentStore.
func NewDocumentStore(backend *Backend) (*DocumentStore, error) {
	return &DocumentStore{backend: backend}, nil
}

// Close releases store resources. The backend is owned by the caller.
func (s *DocumentStore) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (s *DocumentStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.backend.WithTransaction(ctx, fn)
}

// CommitVersion atomically writes a document version with all of its chunks
// and citation edges, updates the latest-version pointer, and marks the
// superseded prior version. Everything lands in one transaction, so readers
// never observe a version without its edges. Snapshots opened before the
// commit keep seeing the old state.
func (s *DocumentStore) CommitVersion(ctx context.Context, doc *core.LegalDocument, chunks []*core.Chunk, edges []core.CitationEdge) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		docKey := makeDocKey(doc.Id, doc.Version)

		// Committed versions are immutable
		existing, err := readDocument(tx, docKey)
		if err != nil {
			return err
		}
		if existing != nil {
			return storage.ErrVersionExists
		}

		if err := tx.Set(docKey, storage.MarshalDocument(doc)); err != nil {
			return err
		}

		for _, chunk := range chunks {
			key := makeChunkKey(chunk.DocumentId, chunk.Version, chunk.Position)
			if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}

		// Advance the latest pointer unless an even newer version landed first
		latestKey := makeLatestKey(doc.Id)
		latest, err := readVersionPointer(tx, latestKey)
		if err != nil {
			return err
		}
		if doc.Version >= latest {
			if err := tx.Set(latestKey, storage.MarshalVersion(doc.Version)); err != nil {
				return err
			}
		}

		// Mark the prior version superseded in the same transaction so the
		// two states flip together.
		if doc.Supersedes != 0 {
			prevKey := makeDocKey(doc.Id, doc.Supersedes)
			prev, err := readDocument(tx, prevKey)
			if err != nil {
				return err
			}
			if prev != nil && prev.State != core.StateArchived {
				prev.State = core.StateSuperseded
				if err := tx.Set(prevKey, storage.MarshalDocument(prev)); err != nil {
					return err
				}
			}
		}

		// Edges join the commit. The latest pointer is already set above, so
		// an edge citing this very document resolves immediately.
		now := time.Now().UTC()
		for _, edge := range edges {
			if err := writeEdge(tx, edge, now); err != nil {
				return err
			}
		}

		return tx.Commit()
	}, true)
}

// GetDocument retrieves the latest version of a document.
func (s *DocumentStore) GetDocument(ctx context.Context, id core.DocumentID) (*core.LegalDocument, error) {
	var result *core.LegalDocument
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		version, err := readVersionPointer(tx, makeLatestKey(id))
		if err != nil {
			return err
		}
		if version == 0 {
			return storage.ErrNotFound
		}
		result, err = readDocument(tx, makeDocKey(id, version))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetVersion retrieves a specific document version.
func (s *DocumentStore) GetVersion(ctx context.Context, id core.DocumentID, version uint32) (*core.LegalDocument, error) {
	var result *core.LegalDocument
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocKey(id, version))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListVersions retrieves all versions of a document, oldest first.
func (s *DocumentStore) ListVersions(ctx context.Context, id core.DocumentID) ([]*core.LegalDocument, error) {
	var results []*core.LegalDocument
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocVersionPrefix(id)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc *core.LegalDocument
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, doc)
		}
		if len(results) == 0 {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return results, err
}

// GetChunks retrieves the chunks of a document version in position order.
func (s *DocumentStore) GetChunks(ctx context.Context, id core.DocumentID, version uint32) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkVersionPrefix(id, version)
		iter := tx.NewIterator(opts)
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
			results = append(results, chunk)
		}
		return nil
	}, false)
	return results, err
}

// Archive marks every version of a document archived.
func (s *DocumentStore) Archive(ctx context.Context, id core.DocumentID) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocVersionPrefix(id)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		found := false
		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc *core.LegalDocument
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			found = true
			if doc.State == core.StateArchived {
				continue
			}
			doc.State = core.StateArchived
			key := makeDocKey(doc.Id, doc.Version)
			if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
				return err
			}
		}
		if !found {
			return storage.ErrNotFound
		}
		// Badger panics if a transaction commits with an open iterator.
		iter.Close()
		return tx.Commit()
	}, true)
}

// Snapshot opens a point-in-time read view backed by a BadgerDB read
// transaction.
func (s *DocumentStore) Snapshot() (storage.Snapshot, error) {
	return newSnapshot(s.backend), nil
}

// Helper methods

// readDocument reads a document from the transaction.
// Returns nil without error when the key doesn't exist.
func readDocument(tx *badger.Txn, key []byte) (*core.LegalDocument, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.LegalDocument
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}

// readVersionPointer reads a latest-version pointer.
// Returns 0 without error when the key doesn't exist.
func readVersionPointer(tx *badger.Txn, key []byte) (uint32, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return 0, nil
		}
		return 0, err
	}

	var version uint32
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		version, unmarshalErr = storage.UnmarshalVersion(val)
		return unmarshalErr
	})
	return version, err
}
