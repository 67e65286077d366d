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


package citation

import (
	"log/slog"
	"sort"

	"github.com/poiesic/lexicore/core"
)

const (
	defaultStatutePrefix = "tx-tax"
	defaultRulePrefix    = "rule"
)

// Extractor finds cross-references in chunk text and emits citation edge
// candidates. Overlapping matches within the same span are deduplicated
// keeping the highest-confidence one.
type Extractor struct {
	patterns []pattern
	logger   *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
	}
}

// WithPrefixes overrides the document-id prefixes used when canonicalizing
// statute and rule references for the target jurisdiction.
func WithPrefixes(statutePrefix, rulePrefix string) Option {
	return func(e *Extractor) {
		e.patterns = defaultPatterns(statutePrefix, rulePrefix)
	}
}

// New creates an Extractor with the default pattern list.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		patterns: defaultPatterns(defaultStatutePrefix, defaultRulePrefix),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// candidate is a match before overlap dedup.
type candidate struct {
	start, end int
	order      int // pattern list position, breaks equal-confidence ties
	edge       core.CitationEdge
}

// Extract returns citation edge candidates found in the chunk's text.
// Self-references (target equal to the owning document) are dropped.
// Edge status and timestamps are assigned by the graph store at commit.
func (e *Extractor) Extract(chunk *core.Chunk) []core.CitationEdge {
	var candidates []candidate

	for order, p := range e.patterns {
		for _, idx := range p.re.FindAllStringSubmatchIndex(chunk.Text, -1) {
			m := submatches(chunk.Text, idx)
			target := p.target(m)
			if target == chunk.DocumentId {
				continue
			}
			candidates = append(candidates, candidate{
				start: idx[0],
				end:   idx[1],
				order: order,
				edge: core.CitationEdge{
					Source:      chunk.DocumentId,
					Target:      target,
					Relation:    p.kind,
					Confidence:  p.confidence,
					SourceChunk: chunk.Id,
				},
			})
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	// Highest confidence claims its span first; pattern order breaks ties.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].edge.Confidence != candidates[j].edge.Confidence {
			return candidates[i].edge.Confidence > candidates[j].edge.Confidence
		}
		return candidates[i].order < candidates[j].order
	})

	var (
		edges   []core.CitationEdge
		claimed [][2]int
		seen    = make(map[string]bool)
	)
	for _, c := range candidates {
		if spanOverlaps(claimed, c.start, c.end) {
			continue
		}
		claimed = append(claimed, [2]int{c.start, c.end})

		// One edge per (target, relation) pair per chunk.
		key := string(c.edge.Target) + "|" + c.edge.Relation.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		edges = append(edges, c.edge)
	}

	return edges
}

func submatches(text string, idx []int) []string {
	m := make([]string, 0, len(idx)/2)
	for i := 0; i < len(idx); i += 2 {
		if idx[i] < 0 {
			m = append(m, "")
			continue
		}
		m = append(m, text[idx[i]:idx[i+1]])
	}
	return m
}

func spanOverlaps(claimed [][2]int, start, end int) bool {
	for _, s := range claimed {
		if start < s[1] && end > s[0] {
			return true
		}
	}
	return false
}
