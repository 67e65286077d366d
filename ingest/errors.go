package ingest

import "errors"

var (
	// ErrDocumentStoreRequired is returned when a document store is not provided.
	ErrDocumentStoreRequired = errors.New("document store required")

	// ErrGraphStoreRequired is returned when a graph store is not provided.
	ErrGraphStoreRequired = errors.New("graph store required")

	// ErrKeywordIndexRequired is returned when a keyword index is not provided.
	ErrKeywordIndexRequired = errors.New("keyword index required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidMaxAttempts is returned for a non-positive retry attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")
)
