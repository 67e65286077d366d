package search

import "math"

// diversify selects up to limit candidates by maximal marginal relevance:
// each round picks the remaining candidate maximizing
//
//	lambda*relevance - (1-lambda)*max_similarity_to_already_selected
//
// Candidates whose similarity to an already selected result exceeds the
// pairwise cap are passed over while sufficiently distinct alternatives
// remain; they are admitted only once nothing else is left. The winning
// candidate's redundancy at selection time is recorded as its diversity
// penalty.
func (e *Engine) diversify(cands []*candidate, limit int) []*candidate {
	if limit > len(cands) {
		limit = len(cands)
	}
	if limit <= 0 {
		return nil
	}

	selected := make([]*candidate, 0, limit)
	remaining := make([]*candidate, len(cands))
	copy(remaining, cands)

	for len(selected) < limit && len(remaining) > 0 {
		type pick struct {
			idx    int
			mmr    float64
			maxSim float64
		}
		best := pick{idx: -1, mmr: math.Inf(-1)}
		bestOverCap := pick{idx: -1, mmr: math.Inf(-1)}

		for i, c := range remaining {
			maxSim := 0.0
			for _, s := range selected {
				if sim := e.pairwiseSim(c, s); sim > maxSim {
					maxSim = sim
				}
			}
			mmr := e.lambda*c.relevance - (1-e.lambda)*maxSim
			p := pick{idx: i, mmr: mmr, maxSim: maxSim}

			if maxSim > e.maxPairwiseSim {
				if mmr > bestOverCap.mmr {
					bestOverCap = p
				}
				continue
			}
			if mmr > best.mmr {
				best = p
			}
		}

		if best.idx < 0 {
			// Only near-duplicates of selected results remain
			best = bestOverCap
		}

		c := remaining[best.idx]
		c.diversityPenalty = best.maxSim
		selected = append(selected, c)
		remaining = append(remaining[:best.idx], remaining[best.idx+1:]...)
	}

	return selected
}

// pairwiseSim measures how redundant two candidates are with each other:
// cosine over embeddings when both carry one, lexical token overlap otherwise.
func (e *Engine) pairwiseSim(a, b *candidate) float64 {
	if a.chunk.Embedded() && b.chunk.Embedded() {
		return cosineSimilarity(a.chunk.Vector, b.chunk.Vector)
	}
	return tokenJaccard(a.chunk.Text, b.chunk.Text)
}
