// Package keyword provides the BM25 keyword index over chunk text.
//
// The index is backed by Bleve and keyed by chunk ID. It indexes the
// normalized chunk text, the section heading, and the chunk's canonical
// terms, so a query phrased in canonical vocabulary matches directly. The
// query engine maps hits back to stored chunks through a storage snapshot and
// applies scope filters there.
package keyword
