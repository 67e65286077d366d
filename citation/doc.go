// Package citation extracts cross-references from chunk text.
//
// A fixed, ordered list of extraction patterns (amendment and supersession
// phrases, statute references, comptroller rules, form numbers, case
// citations) yields edge candidates with a relation kind and a confidence.
// Overlapping matches are deduplicated keeping the highest-confidence match.
// Resolution of targets against the index is the graph store's concern.
package citation
