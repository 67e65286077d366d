package search

import (
	"math"
	"sort"

	"github.com/poiesic/lexicore/core"
)

// Weights are the components of the composite ranking formula:
//
//	score = Similarity*similarity + Authority*authority_level +
//	        Centrality*citation_centrality - Diversity*diversity_penalty
//
// All weights must be non-negative and the relevance weights (everything but
// Diversity) must not all be zero.
type Weights struct {
	Similarity float64
	Authority  float64
	Centrality float64
	Diversity  float64
}

// DefaultWeights returns the deployment defaults: similarity dominates,
// authority outweighs centrality, and redundancy costs about as much as the
// authority signal.
func DefaultWeights() Weights {
	return Weights{
		Similarity: 0.55,
		Authority:  0.25,
		Centrality: 0.20,
		Diversity:  0.30,
	}
}

func (w Weights) validate() error {
	if w.Similarity < 0 || w.Authority < 0 || w.Centrality < 0 || w.Diversity < 0 {
		return ErrInvalidWeights
	}
	if w.Similarity+w.Authority+w.Centrality == 0 {
		return ErrInvalidWeights
	}
	return nil
}

// supersededDiscount scales the relevance of superseded versions when the
// query does not ask for historical results.
const supersededDiscount = 0.5

// centrality maps a raw citation in-degree to [0,1). Saturating, so heavily
// cited statutes don't drown out the similarity signal.
func centrality(inDegree int) float64 {
	return float64(inDegree) / (float64(inDegree) + 3.0)
}

// scoreCandidate fills the candidate's breakdown and relevance. The diversity
// penalty is assigned later, during MMR selection.
func (e *Engine) scoreCandidate(c *candidate, includeHistorical bool) {
	c.breakdown = core.ScoreBreakdown{
		Similarity: c.similarity,
		Authority:  c.doc.Type.AuthorityLevel(),
		Centrality: centrality(c.inDegree),
	}

	rel := e.weights.Similarity*c.breakdown.Similarity +
		e.weights.Authority*c.breakdown.Authority +
		e.weights.Centrality*c.breakdown.Centrality

	if c.doc.State == core.StateSuperseded && !includeHistorical {
		rel *= supersededDiscount
	}
	c.relevance = rel
}

// sortResults orders results by composite score descending. Exactly equal
// scores break on authority, then more recent effective date, then citation
// centrality, then document id, then chunk id, so the order is total.
func sortResults(results []*core.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		ra, rb := a.Document.Type.AuthorityRank(), b.Document.Type.AuthorityRank()
		if ra != rb {
			return ra > rb
		}
		if !a.Document.EffectiveDate.Equal(b.Document.EffectiveDate) {
			return a.Document.EffectiveDate.After(b.Document.EffectiveDate)
		}
		if a.Breakdown.Centrality != b.Breakdown.Centrality {
			return a.Breakdown.Centrality > b.Breakdown.Centrality
		}
		if a.Document.Id != b.Document.Id {
			return a.Document.Id < b.Document.Id
		}
		return a.Chunk.Id < b.Chunk.Id
	})
}

// sortCandidates orders the candidate pool by relevance descending ahead of
// diversity selection, with the same tie-break chain as sortResults.
func sortCandidates(cands []*candidate) {
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.relevance != b.relevance {
			return a.relevance > b.relevance
		}
		ra, rb := a.doc.Type.AuthorityRank(), b.doc.Type.AuthorityRank()
		if ra != rb {
			return ra > rb
		}
		if !a.doc.EffectiveDate.Equal(b.doc.EffectiveDate) {
			return a.doc.EffectiveDate.After(b.doc.EffectiveDate)
		}
		if a.inDegree != b.inDegree {
			return a.inDegree > b.inDegree
		}
		if a.doc.Id != b.doc.Id {
			return a.doc.Id < b.doc.Id
		}
		return a.chunk.Id < b.chunk.Id
	})
}

// cosineSimilarity returns the cosine of the angle between two vectors,
// clamped to [0,1]. Mismatched or empty vectors score zero.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if cos < 0 {
		return 0
	}
	if cos > 1 {
		return 1
	}
	return cos
}
