package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lexicore/ai"
	"github.com/poiesic/lexicore/chunk"
	"github.com/poiesic/lexicore/citation"
	"github.com/poiesic/lexicore/core"
	"github.com/poiesic/lexicore/normalize"
	"github.com/poiesic/lexicore/storage"
	"github.com/poiesic/lexicore/storage/keyword"
	"github.com/poiesic/lexicore/taxonomy"
)

// defaultPendingTTL is how long a pending citation edge may wait for its
// target before the sweeper marks it dangling.
const defaultPendingTTL = 14 * 24 * time.Hour

// Pipeline orchestrates document ingestion: validation, conflict guarding,
// and the indexing state machine, with a bounded worker pool for async
// submission.
type Pipeline struct {
	indexer    *indexer
	pool       *ants.Pool
	pendingTTL time.Duration
	logger     *slog.Logger

	mu       sync.Mutex
	inFlight map[core.DocumentID]struct{}
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for async ingestion.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size, ants.WithNonblocking(true))
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithRetryPolicy sets the retry policy for embedding calls.
func WithRetryPolicy(policy Policy) Option {
	return func(p *Pipeline) error {
		if policy.MaxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.indexer.retry = policy
		return nil
	}
}

// WithPendingTTL sets how long pending citation edges wait before the
// sweeper marks them dangling. Default is 14 days.
func WithPendingTTL(ttl time.Duration) Option {
	return func(p *Pipeline) error {
		if ttl <= 0 {
			return fmt.Errorf("pending TTL must be positive")
		}
		p.pendingTTL = ttl
		return nil
	}
}

// WithNormalizer replaces the default term normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(p *Pipeline) error {
		p.indexer.normalizer = n
		return nil
	}
}

// WithChunker replaces the default chunker.
func WithChunker(c *chunk.Chunker) Option {
	return func(p *Pipeline) error {
		p.indexer.chunker = c
		return nil
	}
}

// WithClassifier replaces the default taxonomy classifier.
func WithClassifier(c *taxonomy.Classifier) Option {
	return func(p *Pipeline) error {
		p.indexer.classifier = c
		return nil
	}
}

// WithExtractor replaces the default citation extractor.
func WithExtractor(e *citation.Extractor) Option {
	return func(p *Pipeline) error {
		p.indexer.extractor = e
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		p.indexer.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	docs storage.DocumentStore,
	graph storage.GraphStore,
	kw *keyword.Index,
	embedder ai.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if docs == nil {
		return nil, ErrDocumentStoreRequired
	}
	if graph == nil {
		return nil, ErrGraphStoreRequired
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
	chunker, err := chunk.New()
	if err != nil {
		return nil, err
	}
	classifier, err := taxonomy.New()
	if err != nil {
		return nil, err
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	// Nonblocking: a full queue is backpressure, not a hang
	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	p := &Pipeline{
		indexer: &indexer{
			docs:       docs,
			graph:      graph,
			keyword:    kw,
			embedder:   embedder,
			normalizer: normalizer,
			chunker:    chunker,
			classifier: classifier,
			extractor:  citation.New(),
			retry:      DefaultPolicy(),
			logger:     logger,
		},
		pool:       pool,
		pendingTTL: defaultPendingTTL,
		logger:     logger,
		inFlight:   make(map[core.DocumentID]struct{}),
	}
	p.indexer.resolve = p.scheduleResolve

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Ingest validates and indexes one document synchronously, returning the
// committed version. A concurrent ingestion of the same document identity
// fails with core.ErrConflict; the caller retries once the winner commits.
func (p *Pipeline) Ingest(ctx context.Context, raw *core.RawDocument) (*core.LegalDocument, error) {
	if err := core.ValidateRawDocument(raw); err != nil {
		return nil, err
	}

	if err := p.acquire(raw.Id); err != nil {
		return nil, err
	}
	defer p.release(raw.Id)

	return p.indexer.index(ctx, raw)
}

// IngestAsync validates the document and submits it for background indexing.
// Returns core.ErrBackpressure when the worker pool is saturated; the caller
// retries after a delay. Indexing failures are logged, not returned.
func (p *Pipeline) IngestAsync(ctx context.Context, raw *core.RawDocument) error {
	if err := core.ValidateRawDocument(raw); err != nil {
		return err
	}

	if err := p.acquire(raw.Id); err != nil {
		return err
	}

	err := p.pool.Submit(func() {
		defer p.release(raw.Id)
		if _, err := p.indexer.index(context.Background(), raw); err != nil {
			p.logger.Error("async indexing failed", "document", raw.Id, "err", err)
		}
	})
	if err != nil {
		p.release(raw.Id)
		if errors.Is(err, ants.ErrPoolOverload) {
			return fmt.Errorf("%w: %d workers busy", core.ErrBackpressure, p.pool.Cap())
		}
		return err
	}
	return nil
}

// Archive removes a document from the search scope while keeping all of its
// versions readable. Chunks of every version leave the keyword index; an
// ingestion in flight for the same identity conflicts as usual.
func (p *Pipeline) Archive(ctx context.Context, id core.DocumentID) error {
	if err := p.acquire(id); err != nil {
		return err
	}
	defer p.release(id)

	versions, err := p.indexer.docs.ListVersions(ctx, id)
	if err != nil {
		return err
	}
	if err := p.indexer.docs.Archive(ctx, id); err != nil {
		return err
	}

	var chunkIds []core.ChunkID
	for _, v := range versions {
		chunks, err := p.indexer.docs.GetChunks(ctx, id, v.Version)
		if err != nil {
			return err
		}
		for _, ch := range chunks {
			chunkIds = append(chunkIds, ch.Id)
		}
	}
	if err := p.indexer.keyword.DeleteChunks(ctx, chunkIds); err != nil {
		return err
	}

	p.logger.Info("archived document", "document", id, "versions", len(versions))
	return nil
}

// SweepPending marks pending citation edges older than the configured TTL as
// dangling. Run periodically; returns the number of edges swept.
func (p *Pipeline) SweepPending(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-p.pendingTTL)
	return p.indexer.graph.SweepPending(ctx, cutoff)
}

// scheduleResolve runs pending-edge resolution for a freshly committed
// document on the worker pool, falling back to a plain goroutine when the
// pool is saturated. The scan is bounded by the pending edges for that
// target.
func (p *Pipeline) scheduleResolve(id core.DocumentID) {
	run := func() {
		resolved, err := p.indexer.graph.ResolvePending(context.Background(), id)
		if err != nil {
			p.logger.Error("pending citation resolution failed", "document", id, "err", err)
			return
		}
		if resolved > 0 {
			p.logger.Info("resolved pending citations", "document", id, "edges", resolved)
		}
	}
	if err := p.pool.Submit(run); err != nil {
		go run()
	}
}

// acquire claims the per-document ingestion slot.
func (p *Pipeline) acquire(id core.DocumentID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.inFlight[id]; busy {
		return fmt.Errorf("%w: document %s", core.ErrConflict, id)
	}
	p.inFlight[id] = struct{}{}
	return nil
}

func (p *Pipeline) release(id core.DocumentID) {
	p.mu.Lock()
	delete(p.inFlight, id)
	p.mu.Unlock()
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
