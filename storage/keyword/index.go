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

package keyword

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/poiesic/lexicore/core"
)

// ErrIndexClosed indicates use of a closed keyword index.
var ErrIndexClosed = errors.New("keyword index is closed")

// Index wraps Bleve v2 for BM25 keyword search over chunk text. Documents in
// the index are keyed by chunk ID; the query engine maps hits back to stored
// chunks through a storage snapshot.
type Index struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	logger *slog.Logger
	closed bool
}

// Hit is one BM25 match.
type Hit struct {
	ChunkId      core.ChunkID
	Score        float64
	MatchedTerms []string
}

// chunkDoc is the document structure for Bleve indexing. Canonical terms are
// indexed alongside the text so normalized vocabulary matches directly.
type chunkDoc struct {
	Content string `json:"content"`
	Section string `json:"section"`
	Terms   string `json:"terms"`
}

// Open creates or opens a BM25 index. If path is empty, creates an in-memory
// index.
func Open(path string) (*Index, error) {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = "en"

	var (
		idx bleve.Index
		err error
	)
	if path == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open index: %w", err)
	}

	return &Index{
		index:  idx,
		path:   path,
		logger: slog.Default().With("component", "keyword-index"),
	}, nil
}

// IndexChunks adds chunks to the index in one batch. Low-quality chunks are
// skipped; they stay out of the default search scope.
func (ix *Index) IndexChunks(ctx context.Context, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return ErrIndexClosed
	}

	batch := ix.index.NewBatch()
	indexed := 0
	for _, chunk := range chunks {
		if !chunk.Searchable() {
			continue
		}
		doc := chunkDoc{
			Content: chunk.Text,
			Section: chunk.Section,
			Terms:   strings.Join(chunk.Terms, " "),
		}
		if err := batch.Index(string(chunk.Id), doc); err != nil {
			return fmt.Errorf("failed to index chunk %s: %w", chunk.Id, err)
		}
		indexed++
	}

	if err := ix.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}

	ix.logger.Debug("indexed chunks", "total", len(chunks), "indexed", indexed)
	return nil
}

// Search returns chunks matching the query text, scored by BM25.
func (ix *Index) Search(ctx context.Context, queryStr string, limit int) ([]Hit, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.closed {
		return nil, ErrIndexClosed
	}

	if strings.TrimSpace(queryStr) == "" {
		return []Hit{}, nil
	}

	contentQuery := bleve.NewMatchQuery(queryStr)
	contentQuery.SetField("content")
	termsQuery := bleve.NewMatchQuery(queryStr)
	termsQuery.SetField("terms")
	query := bleve.NewDisjunctionQuery(contentQuery, termsQuery)

	searchRequest := bleve.NewSearchRequest(query)
	searchRequest.Size = limit
	searchRequest.IncludeLocations = true

	result, err := ix.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hits = append(hits, Hit{
			ChunkId:      core.ChunkID(hit.ID),
			Score:        hit.Score,
			MatchedTerms: extractMatchedTerms(hit),
		})
	}
	return hits, nil
}

// DeleteChunks removes chunks from the index.
func (ix *Index) DeleteChunks(ctx context.Context, ids []core.ChunkID) error {
	if len(ids) == 0 {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return ErrIndexClosed
	}

	batch := ix.index.NewBatch()
	for _, id := range ids {
		batch.Delete(string(id))
	}

	if err := ix.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

// DocCount returns the number of indexed chunks.
func (ix *Index) DocCount() (uint64, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.closed {
		return 0, ErrIndexClosed
	}
	return ix.index.DocCount()
}

// Close closes the index.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return nil
	}
	ix.closed = true
	return ix.index.Close()
}

// extractMatchedTerms extracts matched terms from a search hit.
func extractMatchedTerms(hit *search.DocumentMatch) []string {
	terms := make(map[string]struct{})
	for _, locations := range hit.Locations {
		for term := range locations {
			terms[term] = struct{}{}
		}
	}

	result := make([]string, 0, len(terms))
	for term := range terms {
		result = append(result, term)
	}
	return result
}
