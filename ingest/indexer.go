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

package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/poiesic/lexicore/ai"
	"github.com/poiesic/lexicore/chunk"
	"github.com/poiesic/lexicore/citation"
	"github.com/poiesic/lexicore/core"
	"github.com/poiesic/lexicore/normalize"
	"github.com/poiesic/lexicore/storage"
	"github.com/poiesic/lexicore/storage/keyword"
	"github.com/poiesic/lexicore/taxonomy"
)

// indexer runs one document through the indexing state machine:
// normalize, chunk, classify, extract citations, embed, commit.
type indexer struct {
	docs       storage.DocumentStore
	graph      storage.GraphStore
	keyword    *keyword.Index
	embedder   ai.Embedder
	normalizer *normalize.Normalizer
	chunker    *chunk.Chunker
	classifier *taxonomy.Classifier
	extractor  *citation.Extractor
	retry      Policy
	logger     *slog.Logger

	// resolve dispatches pending-edge resolution for a freshly committed
	// document off the commit path. Set by the owning pipeline.
	resolve func(core.DocumentID)
}

// index processes a validated raw document and returns the committed version.
// Re-submitting identical content for an already indexed document is a no-op
// that returns the existing version.
func (ix *indexer) index(ctx context.Context, raw *core.RawDocument) (*core.LegalDocument, error) {
	contentHash := core.IDFromContent(raw.Text)

	// Version assignment against the current chain head
	var version, supersedes uint32 = 1, 0
	latest, err := ix.docs.GetDocument(ctx, raw.Id)
	switch {
	case err == nil:
		if latest.ContentHash == contentHash {
			ix.logger.Debug("identical content already indexed",
				"document", raw.Id, "version", latest.Version)
			return latest, nil
		}
		version = latest.Version + 1
		supersedes = latest.Version
	case errors.Is(err, storage.ErrNotFound):
	default:
		return nil, err
	}

	normText, terms := ix.normalizer.Normalize(raw.Text)

	chunks := ix.chunker.Split(normText, terms)
	searchable := 0
	for _, ch := range chunks {
		ch.Id = core.MakeChunkID(raw.Id, version, ch.Position)
		ch.DocumentId = raw.Id
		ch.Version = version
		if ch.Searchable() {
			searchable++
		}
	}
	if searchable == 0 {
		return nil, fmt.Errorf("%w: %w", core.ErrValidation, core.ErrNoValidChunks)
	}

	var edges []core.CitationEdge
	for _, ch := range chunks {
		if !ch.Searchable() {
			continue
		}
		ch.Tags = ix.classifier.Tag(ch.Text, ch.Terms)
		edges = append(edges, ix.extractor.Extract(ch)...)
	}

	embedded, err := ix.embed(ctx, chunks)
	if err != nil {
		return nil, err
	}

	state := core.StateIndexed
	if embedded < searchable {
		state = core.StateDegradedIndexed
		ix.logger.Warn("committing degraded version",
			"document", raw.Id, "version", version,
			"embedded", embedded, "searchable", searchable)
	}

	doc := &core.LegalDocument{
		Id:            raw.Id,
		Jurisdiction:  raw.Jurisdiction,
		Type:          raw.Type,
		EffectiveDate: raw.EffectiveDate,
		Version:       version,
		State:         state,
		ContentHash:   contentHash,
		Supersedes:    supersedes,
		IndexedAt:     time.Now().UTC(),
	}

	// The bleve index cannot join the commit transaction, so it is written
	// first: if the commit below fails, its entries are orphans that
	// snapshot validation filters at query time, and the next attempt
	// overwrites them under the same chunk ids.
	if err := ix.keyword.IndexChunks(ctx, chunks); err != nil {
		return nil, err
	}

	// Document, chunks, tags, and edges become visible in one transaction
	if err := ix.docs.CommitVersion(ctx, doc, chunks, edges); err != nil {
		if errors.Is(err, storage.ErrVersionExists) {
			return nil, fmt.Errorf("%w: document %s version %d", core.ErrConflict, raw.Id, version)
		}
		return nil, err
	}

	// This document may be the target of edges extracted before it arrived;
	// resolution runs in the background and never blocks the commit
	if ix.resolve != nil {
		ix.resolve(raw.Id)
	}

	ix.logger.Info("indexed document",
		"document", raw.Id, "version", version, "state", state.String(),
		"chunks", len(chunks), "edges", len(edges))
	return doc, nil
}

// embed fills chunk vectors concurrently with bounded retries. A chunk whose
// embedding still fails is committed with PendingEmbed set; it stays visible
// to keyword search. When every searchable chunk fails the document is not
// committed at all.
func (ix *indexer) embed(ctx context.Context, chunks []*core.Chunk) (int, error) {
	var pending []*core.Chunk
	for _, ch := range chunks {
		if ch.Searchable() {
			pending = append(pending, ch)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, ch := range pending {
		g.Go(func() error {
			err := RetryWithBackoff(gctx, func() error {
				vec, err := ix.embedder.EmbedText(gctx, ch.Text)
				if err != nil {
					return err
				}
				ch.Vector = vec
				return nil
			}, ix.retry)
			if err != nil {
				// Partial failure is absorbed, not propagated
				ix.logger.Warn("embedding failed after retries", "chunk", ch.Id, "err", err)
				ch.PendingEmbed = true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	embedded := 0
	for _, ch := range pending {
		if ch.Embedded() {
			embedded++
		}
	}
	if embedded == 0 {
		return 0, fmt.Errorf("%w: embedding failed for all %d chunks",
			core.ErrTransientDependency, len(pending))
	}
	return embedded, nil
}
