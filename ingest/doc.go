// Package ingest orchestrates document ingestion and indexing.
//
// A document moves through a fixed sequence: validation, term normalization,
// chunking, taxonomy classification, citation extraction, embedding, and a
// single atomic commit. Chunks are never visible to queries until the commit;
// a version is either fully indexed or absent.
//
// Partial embedding failure does not lose the document: chunks whose
// embedding calls fail after bounded retries are committed with PendingEmbed
// set and the version lands in the degraded-indexed state, visible to keyword
// search only. Only when every chunk fails is the ingestion rejected as a
// transient dependency error.
//
// Concurrency is guarded per document identity: two simultaneous ingestions
// of the same document ID conflict, and the loser returns core.ErrConflict.
// Async submission runs on a bounded nonblocking worker pool; saturation
// surfaces as core.ErrBackpressure rather than unbounded queueing.
package ingest
