// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package search is the query engine over the committed index.
//
// Four retrieval modes are supported: keyword (BM25 over chunk text and
// canonical terms, no embedding call), semantic (cosine similarity against
// chunk embeddings), hybrid (union of both with scores normalized to a
// shared [0,1] range, deduplicated per chunk keeping the max), and
// legal-reasoning (semantic seeds expanded one hop along resolved citation
// edges, expanded candidates discounted by a fixed hop penalty).
//
// Every query runs against a point-in-time storage snapshot; a commit
// landing mid-query is invisible to it. The composite ranking formula is
//
//	score = w1*similarity + w2*authority + w3*centrality - w4*diversity_penalty
//
// with configurable weights (see DefaultWeights). Results pass through a
// maximal-marginal-relevance re-rank before the final sort, and exactly
// equal scores break on a documented total order. The query-time embedding
// call is bounded by a per-query timeout; on failure the engine degrades to
// keyword-only and the Response reports the mode actually used. Superseded
// versions rank below active ones unless the query asks for historical
// results.
package search
