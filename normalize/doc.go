// Package normalize canonicalizes legal domain terminology before indexing.
//
// The Normalizer applies an ordered, versioned rule table in a single pass:
// rules are ranked by priority, and a span rewritten by a higher-priority
// rule is never reprocessed by a lower-priority one. Each recognized term
// carries a concept category with a fixed weight used as a ranking signal.
//
// Normalization is a fixed point: running it on already-normalized text
// yields the same text. Unmatched jargon passes through unchanged, which is
// not an error, it only reduces downstream term weighting.
package normalize
