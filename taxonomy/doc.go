// Package taxonomy assigns chunks to a fixed subject hierarchy.
//
// The hierarchy is a single-root tree of fixed depth whose nodes carry
// keyword rules. The classifier matches chunk text and canonical terms
// against those rules and applies a hierarchy-aware boost so a confident
// child match also lifts its ancestors. The top-K candidates are retained;
// zero confident matches yield the uncategorized tag, never an error.
package taxonomy
