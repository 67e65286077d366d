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


package normalize

import (
	"log/slog"
	"sort"
	"strings"
)

// Term is a canonical domain term recognized during normalization.
type Term struct {
	Canonical string
	Category  string
	Weight    float32
}

// Normalizer rewrites raw legal text into canonical form and reports the
// recognized terms. Rules are applied highest-priority first within a single
// pass; a span rewritten by a higher-priority rule is never reprocessed.
// Unmatched jargon passes through unchanged.
type Normalizer struct {
	table  *Table
	logger *slog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) error {
		if logger == nil {
			logger = slog.Default()
		}
		n.logger = logger
		return nil
	}
}

// WithTable replaces the built-in rule table.
func WithTable(table *Table) Option {
	return func(n *Normalizer) error {
		if table == nil {
			return ErrTableRequired
		}
		if err := table.compile(); err != nil {
			return err
		}
		n.table = table
		return nil
	}
}

// New creates a Normalizer with the built-in default rule table.
func New(opts ...Option) (*Normalizer, error) {
	table := DefaultTable()
	if err := table.compile(); err != nil {
		return nil, err
	}

	n := &Normalizer{
		table:  table,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, err
		}
	}

	return n, nil
}

// TableVersion returns the version of the active rule table.
func (n *Normalizer) TableVersion() string {
	return n.table.Version
}

// span is a claimed region of the input text.
type span struct {
	start, end int
	canonical  string
	category   string
}

// Normalize returns the canonical form of text plus the recognized terms,
// ordered by first occurrence and deduplicated by canonical form.
func (n *Normalizer) Normalize(text string) (string, []Term) {
	if text == "" {
		return "", nil
	}

	var claimed []span

	// Highest-priority rules claim their spans first. Later rules only see
	// the regions no earlier rule touched.
	for _, rule := range n.table.ordered {
		for _, loc := range rule.re.FindAllStringIndex(text, -1) {
			if overlaps(claimed, loc[0], loc[1]) {
				continue
			}
			claimed = append(claimed, span{
				start:     loc[0],
				end:       loc[1],
				canonical: rule.Canonical,
				category:  rule.Category,
			})
		}
	}

	if len(claimed) == 0 {
		return text, nil
	}

	sort.Slice(claimed, func(i, j int) bool { return claimed[i].start < claimed[j].start })

	var (
		out   strings.Builder
		terms []Term
		seen  = make(map[string]bool, len(claimed))
		pos   int
	)
	for _, s := range claimed {
		out.WriteString(text[pos:s.start])
		out.WriteString(s.canonical)
		pos = s.end

		if !seen[s.canonical] {
			seen[s.canonical] = true
			terms = append(terms, Term{
				Canonical: s.canonical,
				Category:  s.category,
				Weight:    CategoryWeight(s.category),
			})
		}
	}
	out.WriteString(text[pos:])

	return out.String(), terms
}

func overlaps(claimed []span, start, end int) bool {
	for _, s := range claimed {
		if start < s.end && end > s.start {
			return true
		}
	}
	return false
}
