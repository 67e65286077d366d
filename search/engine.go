package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/poiesic/lexicore/ai"
	"github.com/poiesic/lexicore/core"
	"github.com/poiesic/lexicore/normalize"
	"github.com/poiesic/lexicore/storage"
	"github.com/poiesic/lexicore/storage/keyword"
)

const (
	defaultQueryTimeout = 2 * time.Second
	defaultLambda       = 0.7
	defaultHopPenalty   = 0.6
	defaultMinSim       = 0.25
	defaultMaxPairwise  = 0.92
	defaultCacheSize    = 512

	// expansionSeeds caps how many top semantic hits seed graph expansion
	// in legal-reasoning mode.
	expansionSeeds = 3

	// candidateFactor oversamples the candidate pool ahead of diversity
	// re-ranking.
	candidateFactor = 4
)

// Engine answers queries against the committed index. Every query runs
// against a point-in-time storage snapshot, so commits landing mid-query are
// invisible to it.
type Engine struct {
	docs           storage.DocumentStore
	keyword        *keyword.Index
	embedder       ai.Embedder
	normalizer     *normalize.Normalizer
	weights        Weights
	lambda         float64
	hopPenalty     float64
	minSim         float64
	maxPairwiseSim float64
	queryTimeout   time.Duration
	embedCache     *lru.Cache[string, []float32]
	logger         *slog.Logger
}

// Response carries ranked results plus the retrieval mode actually executed.
// Mode differs from the requested mode when the engine degraded to
// keyword-only after an embedding failure or timeout.
type Response struct {
	Results  []*core.SearchResult
	Mode     core.SearchMode
	Degraded bool
}

// Option configures an Engine.
type Option func(*Engine) error

// WithWeights replaces the default ranking weights.
func WithWeights(w Weights) Option {
	return func(e *Engine) error {
		if err := w.validate(); err != nil {
			return err
		}
		e.weights = w
		return nil
	}
}

// WithLambda sets the MMR relevance/diversity trade-off in [0,1].
// Default 0.7, favoring relevance.
func WithLambda(lambda float64) Option {
	return func(e *Engine) error {
		if lambda < 0 || lambda > 1 {
			return ErrInvalidLambda
		}
		e.lambda = lambda
		return nil
	}
}

// WithHopPenalty sets the discount applied to candidates reached through a
// citation hop in legal-reasoning mode. Default 0.6.
func WithHopPenalty(penalty float64) Option {
	return func(e *Engine) error {
		if penalty < 0 || penalty > 1 {
			return ErrInvalidLambda
		}
		e.hopPenalty = penalty
		return nil
	}
}

// WithQueryTimeout sets the per-query deadline on the embedding call.
// On expiry the engine degrades to keyword-only. Default 2s.
func WithQueryTimeout(timeout time.Duration) Option {
	return func(e *Engine) error {
		if timeout > 0 {
			e.queryTimeout = timeout
		}
		return nil
	}
}

// WithNormalizer replaces the default term normalizer. Queries are
// normalized with the same rule table as indexed text so canonical
// vocabulary matches.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(e *Engine) error {
		e.normalizer = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a query engine over the given stores.
func NewEngine(
	docs storage.DocumentStore,
	kw *keyword.Index,
	embedder ai.Embedder,
	opts ...Option,
) (*Engine, error) {
	if docs == nil {
		return nil, ErrDocumentStoreRequired
	}
	if kw == nil {
		return nil, ErrKeywordIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	normalizer, err := normalize.New()
	if err != nil {
		return nil, err
	}
	cache, err := lru.New[string, []float32](defaultCacheSize)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		docs:           docs,
		keyword:        kw,
		embedder:       embedder,
		normalizer:     normalizer,
		weights:        DefaultWeights(),
		lambda:         defaultLambda,
		hopPenalty:     defaultHopPenalty,
		minSim:         defaultMinSim,
		maxPairwiseSim: defaultMaxPairwise,
		queryTimeout:   defaultQueryTimeout,
		embedCache:     cache,
		logger:         slog.Default().With("component", "search"),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// candidate accumulates retrieval signals for one chunk before ranking.
type candidate struct {
	chunk        *core.Chunk
	doc          *core.LegalDocument
	similarity   float64 // [0,1], max across retrieval paths
	matchedTerms []string
	expanded     bool
	citedVia     core.DocumentID
	inDegree     int

	breakdown        core.ScoreBreakdown
	relevance        float64
	diversityPenalty float64
}

// Search answers a query and returns ranked results.
func (e *Engine) Search(ctx context.Context, q *core.Query) (*Response, error) {
	return e.SearchWithMonitor(ctx, q, nil)
}

// SearchWithMonitor answers a query with observability hooks at each stage.
func (e *Engine) SearchWithMonitor(ctx context.Context, q *core.Query, monitor SearchMonitor) (*Response, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if err := core.ValidateQuery(q); err != nil {
		return nil, err
	}
	monitor.Start(q)

	snap, err := e.docs.Snapshot()
	if err != nil {
		return nil, err
	}
	defer snap.Close()

	corpus, err := e.collectCorpus(snap, q)
	if err != nil {
		return nil, err
	}

	normQuery, _ := e.normalizer.Normalize(q.Text)

	mode := q.Mode
	degraded := false

	var queryVec []float32
	if mode != core.ModeKeyword {
		queryVec, err = e.embedQuery(ctx, normQuery)
		if err != nil {
			// Queries never hard-fail on the embedding dependency; they
			// narrow to keyword-only and report it
			e.logger.Warn("query embedding unavailable, degrading to keyword",
				"mode", mode.String(), "err", err)
			monitor.Degraded(err.Error())
			mode = core.ModeKeyword
			degraded = true
		}
	}

	pool := q.Limit * candidateFactor
	candidates := make(map[core.ChunkID]*candidate)

	if mode == core.ModeKeyword || mode == core.ModeHybrid {
		if err := e.keywordCandidates(ctx, normQuery, pool, corpus, candidates, monitor); err != nil {
			return nil, err
		}
	}
	if mode == core.ModeSemantic || mode == core.ModeHybrid || mode == core.ModeLegalReasoning {
		e.semanticCandidates(queryVec, corpus, candidates, monitor)
	}
	if mode == core.ModeLegalReasoning {
		if err := e.expandByCitations(snap, queryVec, corpus, candidates, monitor); err != nil {
			return nil, err
		}
	}

	// Score the pool
	inDegrees := make(map[core.DocumentID]int)
	cands := make([]*candidate, 0, len(candidates))
	for _, c := range candidates {
		deg, ok := inDegrees[c.doc.Id]
		if !ok {
			deg, err = snap.InDegree(c.doc.Id)
			if err != nil {
				return nil, err
			}
			inDegrees[c.doc.Id] = deg
		}
		c.inDegree = deg
		e.scoreCandidate(c, q.IncludeHistorical)
		cands = append(cands, c)
	}

	sortCandidates(cands)
	if len(cands) > pool {
		cands = cands[:pool]
	}

	selected := e.diversify(cands, q.Limit)

	results := make([]*core.SearchResult, 0, len(selected))
	for _, c := range selected {
		c.breakdown.DiversityPenalty = c.diversityPenalty
		results = append(results, &core.SearchResult{
			Chunk:       c.chunk,
			Document:    c.doc,
			Score:       c.relevance - e.weights.Diversity*c.diversityPenalty,
			Breakdown:   c.breakdown,
			Explanation: e.explain(c, q),
		})
	}
	sortResults(results)
	monitor.AfterRank(results)

	resp := &Response{Results: results, Mode: mode, Degraded: degraded}
	monitor.Finish(resp)

	e.logger.Debug("query answered",
		"mode", mode.String(), "degraded", degraded,
		"candidates", len(candidates), "results", len(results))
	return resp, nil
}

// corpusEntry pairs a chunk with its owning document version.
type corpusEntry struct {
	chunk *core.Chunk
	doc   *core.LegalDocument
}

type queryCorpus struct {
	byChunk map[core.ChunkID]*corpusEntry
	byDoc   map[core.DocumentID][]*corpusEntry
	entries []*corpusEntry
}

// collectCorpus gathers every chunk eligible for this query from the
// snapshot: committed versions passing the scope and jurisdiction filters,
// default search scope only. Keyword hits are later validated against this
// set, so the bleve index never leaks chunks the snapshot doesn't vouch for.
func (e *Engine) collectCorpus(snap storage.Snapshot, q *core.Query) (*queryCorpus, error) {
	corpus := &queryCorpus{
		byChunk: make(map[core.ChunkID]*corpusEntry),
		byDoc:   make(map[core.DocumentID][]*corpusEntry),
	}

	err := snap.ForEachChunk(func(chunk *core.Chunk, doc *core.LegalDocument) error {
		if !doc.State.Committed() || !chunk.Searchable() {
			return nil
		}
		if !q.InScope(doc.Type) {
			return nil
		}
		if q.Jurisdiction != "" && !strings.EqualFold(q.Jurisdiction, doc.Jurisdiction) {
			return nil
		}

		entry := &corpusEntry{chunk: chunk, doc: doc}
		corpus.byChunk[chunk.Id] = entry
		corpus.byDoc[doc.Id] = append(corpus.byDoc[doc.Id], entry)
		corpus.entries = append(corpus.entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return corpus, nil
}

// keywordCandidates merges BM25 hits into the candidate set. Scores are
// normalized against the top hit so keyword and semantic similarities share
// the [0,1] range; union keeps the max per chunk.
func (e *Engine) keywordCandidates(
	ctx context.Context,
	query string,
	limit int,
	corpus *queryCorpus,
	candidates map[core.ChunkID]*candidate,
	monitor SearchMonitor,
) error {
	hits, err := e.keyword.Search(ctx, query, limit)
	if err != nil {
		return err
	}

	var maxScore float64
	for _, hit := range hits {
		if hit.Score > maxScore {
			maxScore = hit.Score
		}
	}

	ids := make([]core.ChunkID, 0, len(hits))
	for _, hit := range hits {
		entry, ok := corpus.byChunk[hit.ChunkId]
		if !ok {
			// Stale or filtered-out index entry
			continue
		}
		ids = append(ids, hit.ChunkId)

		norm := 0.0
		if maxScore > 0 {
			norm = hit.Score / maxScore
		}
		c := candidates[hit.ChunkId]
		if c == nil {
			c = &candidate{chunk: entry.chunk, doc: entry.doc}
			candidates[hit.ChunkId] = c
		}
		if norm > c.similarity {
			c.similarity = norm
		}
		c.matchedTerms = mergeTerms(c.matchedTerms, hit.MatchedTerms)
	}
	monitor.AfterKeywordSearch(ids)
	return nil
}

// semanticCandidates merges cosine-similarity hits into the candidate set.
// Chunks without a usable embedding never surface here, and a degraded-indexed
// document is left out entirely, even through its embedded chunks: with part
// of the document missing vectors, similarity against it is unreliable, so it
// stays reachable through keyword search only.
func (e *Engine) semanticCandidates(
	queryVec []float32,
	corpus *queryCorpus,
	candidates map[core.ChunkID]*candidate,
	monitor SearchMonitor,
) {
	var ids []core.ChunkID
	for _, entry := range corpus.entries {
		if entry.doc.State == core.StateDegradedIndexed {
			continue
		}
		if !entry.chunk.Embedded() {
			continue
		}
		sim := cosineSimilarity(queryVec, entry.chunk.Vector)
		if sim < e.minSim {
			continue
		}
		ids = append(ids, entry.chunk.Id)

		c := candidates[entry.chunk.Id]
		if c == nil {
			c = &candidate{chunk: entry.chunk, doc: entry.doc}
			candidates[entry.chunk.Id] = c
		}
		if sim > c.similarity {
			c.similarity = sim
		}
	}
	monitor.AfterSemanticSearch(ids)
}

// expandByCitations grows the candidate set one hop along resolved citation
// edges from the strongest semantic seeds. Expanded candidates carry a fixed
// hop discount and remember which seed document led to them.
func (e *Engine) expandByCitations(
	snap storage.Snapshot,
	queryVec []float32,
	corpus *queryCorpus,
	candidates map[core.ChunkID]*candidate,
	monitor SearchMonitor,
) error {
	seeds := topSeedDocuments(candidates, expansionSeeds)

	var ids []core.ChunkID
	for _, seed := range seeds {
		outgoing, err := snap.Outgoing(seed.id)
		if err != nil {
			return err
		}
		incoming, err := snap.Incoming(seed.id)
		if err != nil {
			return err
		}

		neighbors := make(map[core.DocumentID]struct{})
		for _, edge := range outgoing {
			if edge.Status == core.EdgeResolved {
				neighbors[edge.Target] = struct{}{}
			}
		}
		for _, edge := range incoming {
			if edge.Status == core.EdgeResolved {
				neighbors[edge.Source] = struct{}{}
			}
		}

		for neighbor := range neighbors {
			for _, entry := range corpus.byDoc[neighbor] {
				if _, seen := candidates[entry.chunk.Id]; seen {
					continue
				}

				base := seed.similarity
				if entry.chunk.Embedded() {
					if sim := cosineSimilarity(queryVec, entry.chunk.Vector); sim > 0 {
						base = sim
					}
				}
				candidates[entry.chunk.Id] = &candidate{
					chunk:      entry.chunk,
					doc:        entry.doc,
					similarity: base * e.hopPenalty,
					expanded:   true,
					citedVia:   seed.id,
				}
				ids = append(ids, entry.chunk.Id)
			}
		}
	}
	monitor.AfterGraphExpansion(ids)
	return nil
}

type seedDoc struct {
	id         core.DocumentID
	similarity float64
}

// topSeedDocuments picks the highest-similarity distinct documents from the
// current candidate set.
func topSeedDocuments(candidates map[core.ChunkID]*candidate, n int) []seedDoc {
	best := make(map[core.DocumentID]float64)
	for _, c := range candidates {
		if c.similarity > best[c.doc.Id] {
			best[c.doc.Id] = c.similarity
		}
	}

	seeds := make([]seedDoc, 0, len(best))
	for id, sim := range best {
		seeds = append(seeds, seedDoc{id: id, similarity: sim})
	}
	sort.Slice(seeds, func(i, j int) bool {
		if seeds[i].similarity != seeds[j].similarity {
			return seeds[i].similarity > seeds[j].similarity
		}
		return seeds[i].id < seeds[j].id
	})
	if len(seeds) > n {
		seeds = seeds[:n]
	}
	return seeds
}

// embedQuery embeds the normalized query text under the per-query timeout,
// consulting the LRU cache first. Repeated queries skip the service call.
func (e *Engine) embedQuery(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := e.embedCache.Get(text); ok {
		return vec, nil
	}

	ectx, cancel := context.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	vec, err := e.embedder.EmbedText(ectx, text)
	if err != nil {
		return nil, err
	}
	e.embedCache.Add(text, vec)
	return vec, nil
}

func mergeTerms(existing, extra []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		seen[t] = struct{}{}
	}
	for _, t := range extra {
		if _, ok := seen[t]; !ok {
			existing = append(existing, t)
			seen[t] = struct{}{}
		}
	}
	return existing
}
