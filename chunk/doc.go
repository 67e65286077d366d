// Package chunk splits normalized legal text into retrievable units.
//
// Chunks respect top-level structural boundaries (a chunk never spans two
// sections), stay within configurable [min,max] character bounds, and carry
// an overlap window between neighbors. Each chunk receives a quality score;
// chunks below the threshold are flagged low-quality and excluded from the
// default search scope while remaining stored for audit.
package chunk
