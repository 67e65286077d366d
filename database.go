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

package lexicore

import (
	"log/slog"
	"path/filepath"

	"github.com/poiesic/lexicore/ai"
	"github.com/poiesic/lexicore/ai/openai"
	"github.com/poiesic/lexicore/ingest"
	"github.com/poiesic/lexicore/search"
	"github.com/poiesic/lexicore/storage"
	"github.com/poiesic/lexicore/storage/badger"
	"github.com/poiesic/lexicore/storage/keyword"
)

// Database bundles the stores and the embedding client behind one open/close
// lifecycle. The document and citation stores live in a BadgerDB under
// <path>/documents; the BM25 index lives under <path>/keyword.bleve.
type Database struct {
	backend  *badger.Backend
	docs     storage.DocumentStore
	graph    storage.GraphStore
	keyword  *keyword.Index
	embedder ai.Embedder
	config   *ai.Config
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	embedder ai.Embedder
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = cfg
	}
}

// WithEmbedder overrides the embedding client, bypassing the configured
// service entirely.
func WithEmbedder(embedder ai.Embedder) DatabaseOption {
	return func(o *databaseOptions) {
		o.embedder = embedder
	}
}

func NewDatabase(path string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filepath.Join(path, "documents"), false)
	if err != nil {
		return nil, err
	}

	docs, err := badger.NewDocumentStore(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	graph, err := badger.NewGraphStore(backend)
	if err != nil {
		docs.Close()
		backend.Close()
		return nil, err
	}

	kw, err := keyword.Open(filepath.Join(path, "keyword.bleve"))
	if err != nil {
		graph.Close()
		docs.Close()
		backend.Close()
		return nil, err
	}

	db := &Database{
		backend: backend,
		docs:    docs,
		graph:   graph,
		keyword: kw,
		config:  options.aiConfig,
		logger:  slog.Default(),
	}

	if options.embedder != nil {
		db.embedder = options.embedder
		return db, nil
	}

	embedder, err := openai.NewEmbedder(options.aiConfig)
	if err != nil {
		db.Close()
		return nil, err
	}
	db.embedder = embedder
	return db, nil
}

// Close releases every store. A failing close does not stop the others; the
// first error is returned after all four have been attempted.
func (db *Database) Close() error {
	var firstErr error
	if err := db.keyword.Close(); err != nil {
		db.logger.Error("error closing keyword index", "err", err)
		firstErr = err
	}
	if err := db.graph.Close(); err != nil {
		db.logger.Error("error closing graph store", "err", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	if err := db.docs.Close(); err != nil {
		db.logger.Error("error closing document store", "err", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (db *Database) DocumentStore() storage.DocumentStore {
	return db.docs
}

func (db *Database) GraphStore() storage.GraphStore {
	return db.graph
}

func (db *Database) KeywordIndex() *keyword.Index {
	return db.keyword
}

func (db *Database) NewIngestionPipeline(opts ...ingest.Option) (*ingest.Pipeline, error) {
	return ingest.NewPipeline(db.docs, db.graph, db.keyword, db.embedder, opts...)
}

func (db *Database) NewEngine(opts ...search.Option) (*search.Engine, error) {
	opts = append([]search.Option{search.WithQueryTimeout(db.config.QueryTimeout)}, opts...)
	return search.NewEngine(db.docs, db.keyword, db.embedder, opts...)
}
