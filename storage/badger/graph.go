package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lexicore/core"
	"github.com/poiesic/lexicore/storage"
)

// GraphStore implements storage.GraphStore for BadgerDB.
//
// Each edge is stored once under its (source, target, relation) key, with an
// incoming index for reverse traversal and a pending index keyed by target so
// resolution after a document commit touches only that document's edges.
type GraphStore struct {
	backend *Backend
}

var _ storage.GraphStore = (*GraphStore)(nil)

// NewGraphStore creates a new GraphStore.
func NewGraphStore(backend *Backend) (*GraphStore, error) {
	return &GraphStore{backend: backend}, nil
}

// Close releases store resources. The backend is owned by the caller.
func (s *GraphStore) Close() error {
	return nil
}

// AddEdges stores citation edges. An edge whose target document is already
// indexed resolves immediately; otherwise it is stored pending. Re-adding an
// existing edge merges: the higher confidence wins, the original creation
// time and any resolved status are kept.
func (s *GraphStore) AddEdges(ctx context.Context, edges []core.CitationEdge) error {
	now := time.Now().UTC()
	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, edge := range edges {
			if err := writeEdge(tx, edge, now); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// writeEdge stores one edge with its incoming and pending indexes inside tx,
// merging with any existing edge under the same key. Shared with
// DocumentStore.CommitVersion so extracted edges can join a version commit.
func writeEdge(tx *badger.Txn, edge core.CitationEdge, now time.Time) error {
	key := makeEdgeKey(edge.Source, edge.Target, edge.Relation)

	existing, err := readEdge(tx, key)
	if err != nil {
		return err
	}
	if existing != nil {
		if edge.Confidence > existing.Confidence {
			existing.Confidence = edge.Confidence
			existing.SourceChunk = edge.SourceChunk
		}
		return tx.Set(key, storage.MarshalEdge(existing))
	}

	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = now
	}

	targetVersion, err := readVersionPointer(tx, makeLatestKey(edge.Target))
	if err != nil {
		return err
	}
	if targetVersion != 0 {
		edge.Status = core.EdgeResolved
		edge.ResolvedAt = now
	} else {
		edge.Status = core.EdgePending
		pendKey := makeEdgePendKey(edge.Target, edge.Source, edge.Relation)
		if err := tx.Set(pendKey, key); err != nil {
			return err
		}
	}

	if err := tx.Set(key, storage.MarshalEdge(&edge)); err != nil {
		return err
	}

	inKey := makeEdgeInKey(edge.Target, edge.Source, edge.Relation)
	return tx.Set(inKey, key)
}

// Outgoing retrieves all edges originating from a document.
func (s *GraphStore) Outgoing(ctx context.Context, source core.DocumentID) ([]core.CitationEdge, error) {
	var results []core.CitationEdge
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeEdgeSourcePrefix(source)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var edge *core.CitationEdge
			err := iter.Item().Value(func(val []byte) error {
				var err error
				edge, err = storage.UnmarshalEdge(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, *edge)
		}
		return nil
	}, false)
	return results, err
}

// Incoming retrieves all edges pointing at a document.
func (s *GraphStore) Incoming(ctx context.Context, target core.DocumentID) ([]core.CitationEdge, error) {
	var results []core.CitationEdge
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		results, err = readIncoming(tx, target)
		return err
	}, false)
	return results, err
}

// InDegree counts resolved edges pointing at a document.
func (s *GraphStore) InDegree(ctx context.Context, target core.DocumentID) (int, error) {
	var count int
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		count, err = countResolvedIncoming(tx, target)
		return err
	}, false)
	return count, err
}

// ResolvePending flips pending edges whose target just became indexed to
// resolved. Returns the number of edges resolved.
func (s *GraphStore) ResolvePending(ctx context.Context, target core.DocumentID) (int, error) {
	now := time.Now().UTC()
	var count int
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		edgeKeys, pendKeys, err := collectPending(tx, makeEdgePendPrefix(target))
		if err != nil {
			return err
		}

		for i, edgeKey := range edgeKeys {
			edge, err := readEdge(tx, edgeKey)
			if err != nil {
				return err
			}
			if edge == nil || edge.Status != core.EdgePending {
				continue
			}
			edge.Status = core.EdgeResolved
			edge.ResolvedAt = now
			if err := tx.Set(edgeKey, storage.MarshalEdge(edge)); err != nil {
				return err
			}
			if err := tx.Delete(pendKeys[i]); err != nil {
				return err
			}
			count++
		}
		return tx.Commit()
	}, true)
	return count, err
}

// SweepPending marks pending edges created before the cutoff as dangling.
// Returns the number of edges swept.
func (s *GraphStore) SweepPending(ctx context.Context, cutoff time.Time) (int, error) {
	now := time.Now().UTC()
	var count int
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		edgeKeys, pendKeys, err := collectPending(tx, []byte(edgePendPrefix+":"))
		if err != nil {
			return err
		}

		for i, edgeKey := range edgeKeys {
			edge, err := readEdge(tx, edgeKey)
			if err != nil {
				return err
			}
			if edge == nil || edge.Status != core.EdgePending {
				continue
			}
			if !edge.CreatedAt.Before(cutoff) {
				continue
			}
			edge.Status = core.EdgeDangling
			edge.ResolvedAt = now
			if err := tx.Set(edgeKey, storage.MarshalEdge(edge)); err != nil {
				return err
			}
			if err := tx.Delete(pendKeys[i]); err != nil {
				return err
			}
			count++
		}
		return tx.Commit()
	}, true)
	return count, err
}

// Helper methods

// readEdge reads a citation edge from the transaction.
// Returns nil without error when the key doesn't exist.
func readEdge(tx *badger.Txn, key []byte) (*core.CitationEdge, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var edge *core.CitationEdge
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		edge, unmarshalErr = storage.UnmarshalEdge(val)
		return unmarshalErr
	})
	return edge, err
}

// collectPending gathers pending-index entries under a prefix before any
// mutation, since deleting keys mid-iteration is unsafe.
func collectPending(tx *badger.Txn, prefix []byte) (edgeKeys, pendKeys [][]byte, err error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		pendKey := iter.Item().KeyCopy(nil)
		edgeKey, err := iter.Item().ValueCopy(nil)
		if err != nil {
			return nil, nil, err
		}
		pendKeys = append(pendKeys, pendKey)
		edgeKeys = append(edgeKeys, edgeKey)
	}
	return edgeKeys, pendKeys, nil
}

// readIncoming loads the full edges behind a target's incoming index.
func readIncoming(tx *badger.Txn, target core.DocumentID) ([]core.CitationEdge, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeEdgeInPrefix(target)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var results []core.CitationEdge
	for iter.Rewind(); iter.Valid(); iter.Next() {
		edgeKey, err := iter.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		edge, err := readEdge(tx, edgeKey)
		if err != nil {
			return nil, err
		}
		if edge != nil {
			results = append(results, *edge)
		}
	}
	return results, nil
}

// countResolvedIncoming counts resolved edges pointing at a target.
func countResolvedIncoming(tx *badger.Txn, target core.DocumentID) (int, error) {
	edges, err := readIncoming(tx, target)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, edge := range edges {
		if edge.Status == core.EdgeResolved {
			count++
		}
	}
	return count, nil
}
