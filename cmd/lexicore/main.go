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

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/lexicore"
	"github.com/poiesic/lexicore/ai"
	"github.com/poiesic/lexicore/core"
	"github.com/poiesic/lexicore/ingest"
	"github.com/poiesic/lexicore/normalize"
	"github.com/poiesic/lexicore/taxonomy"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "lexicore",
		Usage: "Versioned retrieval core for jurisdiction-specific legal documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Index a legal document from a file",
				ArgsUsage: "<file>",
				Action:    ingestCommand,
				Flags: append(databaseFlags(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Document identity; versions of the same document share it",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "jurisdiction",
						Usage: "Jurisdiction the document belongs to",
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "Document type (statute, regulation, procedure, form, faq)",
						Value: "statute",
					},
					&cli.TimestampFlag{
						Name:   "effective-date",
						Usage:  "Date the document took effect",
						Layout: "2006-01-02",
					},
					&cli.StringFlag{
						Name:  "source-citation",
						Usage: "Optional provenance note",
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Query the committed index",
				ArgsUsage: "<query text>",
				Action:    searchCommand,
				Flags: append(databaseFlags(),
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Search mode (keyword, semantic, hybrid, legal-reasoning)",
						Value: "hybrid",
					},
					&cli.StringFlag{
						Name:  "jurisdiction",
						Usage: "Restrict results to one jurisdiction",
					},
					&cli.StringSliceFlag{
						Name:  "type",
						Usage: "Restrict results to document types (repeatable)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 10,
					},
					&cli.BoolFlag{
						Name:  "historical",
						Usage: "Rank superseded versions at full strength",
					},
				),
			},
			{
				Name:      "archive",
				Usage:     "Retire a document from search; all versions stay readable",
				ArgsUsage: "<document id>",
				Action:    archiveCommand,
				Flags:     databaseFlags(),
			},
			{
				Name:      "citations",
				Usage:     "List citation edges of a document",
				ArgsUsage: "<document id>",
				Action:    citationsCommand,
				Flags: append(databaseFlags(),
					&cli.StringFlag{
						Name:  "direction",
						Usage: "Edge direction (outgoing, incoming)",
						Value: "outgoing",
					},
				),
			},
			{
				Name:      "classify",
				Usage:     "Rank taxonomy categories for a piece of text",
				ArgsUsage: "<text>",
				Action:    classifyCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "taxonomy",
						Usage: "Path to a taxonomy tree YAML file (default: built-in tree)",
					},
				},
			},
			{
				Name:   "sweep",
				Usage:  "Mark expired pending citation edges as dangling",
				Action: sweepCommand,
				Flags: append(databaseFlags(),
					&cli.DurationFlag{
						Name:  "ttl",
						Usage: "How long pending edges may wait for their target",
						Value: 14 * 24 * time.Hour,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func databaseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to the database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
	}
}

func openDatabase(c *cli.Context) (*lexicore.Database, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return lexicore.NewDatabase(c.String("db"), lexicore.WithAIConfig(aiConfig))
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}

	text, err := os.ReadFile(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	docType, err := core.ParseDocumentType(c.String("type"))
	if err != nil {
		return err
	}

	raw := &core.RawDocument{
		Id:             core.DocumentID(c.String("id")),
		Jurisdiction:   c.String("jurisdiction"),
		Type:           docType,
		Text:           string(text),
		SourceCitation: c.String("source-citation"),
	}
	if ts := c.Timestamp("effective-date"); ts != nil {
		raw.EffectiveDate = *ts
	}

	pipeline, err := db.NewIngestionPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	doc, err := pipeline.Ingest(context.Background(), raw)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("indexed %s version %d (%s)\n", doc.Id, doc.Version, doc.State)
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("query text is required")
	}

	mode, err := core.ParseSearchMode(c.String("mode"))
	if err != nil {
		return err
	}

	var scope []core.DocumentType
	for _, name := range c.StringSlice("type") {
		t, err := core.ParseDocumentType(name)
		if err != nil {
			return err
		}
		scope = append(scope, t)
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	engine, err := db.NewEngine()
	if err != nil {
		return err
	}

	resp, err := engine.Search(context.Background(), &core.Query{
		Text:              strings.Join(c.Args().Slice(), " "),
		Mode:              mode,
		Scope:             scope,
		Jurisdiction:      c.String("jurisdiction"),
		Limit:             c.Int("limit"),
		IncludeHistorical: c.Bool("historical"),
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if resp.Degraded {
		fmt.Fprintf(os.Stderr, "note: degraded to %s mode\n", resp.Mode)
	}
	if len(resp.Results) == 0 {
		fmt.Println("no results")
		return nil
	}

	for i, r := range resp.Results {
		fmt.Printf("%2d. [%.3f] %s v%d (%s, %s)\n",
			i+1, r.Score, r.Document.Id, r.Document.Version,
			r.Document.Type, r.Document.Jurisdiction)
		if r.Chunk.Section != "" {
			fmt.Printf("    section: %s\n", r.Chunk.Section)
		}
		fmt.Printf("    %s\n", excerpt(r.Chunk.Text, 160))
		fmt.Printf("    why: %s\n", r.Explanation)
	}
	return nil
}

func archiveCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one document id argument")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	id := core.DocumentID(c.Args().First())
	if err := pipeline.Archive(context.Background(), id); err != nil {
		return fmt.Errorf("archive failed: %w", err)
	}
	fmt.Printf("archived %s\n", id)
	return nil
}

func citationsCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one document id argument")
	}
	id := core.DocumentID(c.Args().First())

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	var edges []core.CitationEdge
	switch c.String("direction") {
	case "outgoing":
		edges, err = db.GraphStore().Outgoing(ctx, id)
	case "incoming":
		edges, err = db.GraphStore().Incoming(ctx, id)
	default:
		return fmt.Errorf("invalid direction %q: must be outgoing or incoming", c.String("direction"))
	}
	if err != nil {
		return fmt.Errorf("failed to read citations: %w", err)
	}

	if len(edges) == 0 {
		fmt.Println("no citation edges")
		return nil
	}
	for _, e := range edges {
		fmt.Printf("%s -[%s]-> %s (%s, confidence %.2f)\n",
			e.Source, e.Relation, e.Target, e.Status, e.Confidence)
	}
	return nil
}

func classifyCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("text to classify is required")
	}
	text := strings.Join(c.Args().Slice(), " ")

	var opts []taxonomy.Option
	if path := c.String("taxonomy"); path != "" {
		tree, err := taxonomy.LoadTree(path)
		if err != nil {
			return fmt.Errorf("failed to load taxonomy: %w", err)
		}
		opts = append(opts, taxonomy.WithTree(tree))
	}

	classifier, err := taxonomy.New(opts...)
	if err != nil {
		return err
	}
	normalizer, err := normalize.New()
	if err != nil {
		return err
	}

	normText, terms := normalizer.Normalize(text)
	canonical := make([]string, 0, len(terms))
	for _, term := range terms {
		canonical = append(canonical, term.Canonical)
	}

	assignments := classifier.Classify(normText, canonical)
	if len(assignments) == 0 {
		fmt.Println(core.UncategorizedTag)
		return nil
	}
	for _, a := range assignments {
		fmt.Printf("%-30s %.2f  %s\n", a.Node.Id, a.Confidence, a.Node.Label)
	}
	return nil
}

func sweepCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline(ingest.WithPendingTTL(c.Duration("ttl")))
	if err != nil {
		return err
	}
	defer pipeline.Release()

	swept, err := pipeline.SweepPending(context.Background())
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}
	fmt.Printf("marked %d pending edges dangling\n", swept)
	return nil
}

// excerpt trims text to at most n runes on a single line.
func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
