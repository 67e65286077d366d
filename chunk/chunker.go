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


package chunk

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/poiesic/lexicore/core"
	"github.com/poiesic/lexicore/normalize"
)

const (
	defaultMinChars         = 100
	defaultMaxChars         = 1200
	defaultOverlap          = 80
	defaultQualityThreshold = 0.35
)

// sectionRe matches top-level structural markers in normalized legal text.
// A chunk never crosses one of these boundaries.
var sectionRe = regexp.MustCompile(`(?m)^\s*(?:Sec(?:tion)?\.?\s+\d[\w.\-]*|CHAPTER\s+\d+|Chapter\s+\d+|ARTICLE\s+[IVXLC\d]+|Rule\s+\d[\w.]*)[^\n]*`)

// Chunker splits normalized document text into retrievable units that respect
// structural boundaries and [min,max] length bounds, with a fixed overlap
// window between adjacent chunks so a legal concept is not cut mid-sentence.
type Chunker struct {
	minChars  int
	maxChars  int
	overlap   int
	threshold float32
	logger    *slog.Logger
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithBounds sets the [min,max] character bounds for a chunk.
func WithBounds(min, max int) Option {
	return func(c *Chunker) error {
		if min <= 0 || max <= min {
			return ErrInvalidBounds
		}
		c.minChars = min
		c.maxChars = max
		return nil
	}
}

// WithOverlap sets the overlap window between adjacent chunks.
func WithOverlap(chars int) Option {
	return func(c *Chunker) error {
		if chars < 0 {
			return ErrInvalidBounds
		}
		c.overlap = chars
		return nil
	}
}

// WithQualityThreshold sets the score below which chunks are flagged
// low-quality (stored but excluded from default search scope).
func WithQualityThreshold(threshold float32) Option {
	return func(c *Chunker) error {
		if threshold < 0 || threshold > 1 {
			return ErrInvalidBounds
		}
		c.threshold = threshold
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chunker) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// New creates a Chunker with default bounds.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		minChars:  defaultMinChars,
		maxChars:  defaultMaxChars,
		overlap:   defaultOverlap,
		threshold: defaultQualityThreshold,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.overlap >= c.minChars {
		return nil, ErrInvalidBounds
	}
	return c, nil
}

// QualityThreshold returns the configured low-quality cutoff.
func (c *Chunker) QualityThreshold() float32 {
	return c.threshold
}

type section struct {
	heading string
	body    string
}

// Split chunks normalized text. Positions are assigned in document order.
// Returned chunks carry text, section, position, quality and recognized
// terms; document identity and embeddings are filled in by the indexer.
func (c *Chunker) Split(text string, terms []normalize.Term) []*core.Chunk {
	var chunks []*core.Chunk
	position := 0

	for _, sec := range splitSections(text) {
		for _, piece := range c.splitSection(sec.body) {
			quality := c.score(piece, terms)
			chunks = append(chunks, &core.Chunk{
				Position:   position,
				Text:       piece,
				Section:    sec.heading,
				Quality:    quality,
				LowQuality: quality < c.threshold,
				Terms:      presentTerms(piece, terms),
			})
			position++
		}
	}

	return chunks
}

// splitSections cuts text at top-level structural markers. Text before the
// first marker forms an unnamed preamble section.
func splitSections(text string) []section {
	locs := sectionRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []section{{body: text}}
	}

	var sections []section
	if preamble := strings.TrimSpace(text[:locs[0][0]]); preamble != "" {
		sections = append(sections, section{body: preamble})
	}
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		// The heading line is kept on the Section field, not in the body,
		// so it cannot inflate the chunk's quality score.
		sections = append(sections, section{
			heading: strings.TrimSpace(text[loc[0]:loc[1]]),
			body:    strings.TrimSpace(text[loc[1]:end]),
		})
	}
	return sections
}

// splitSection packs sentences into chunks within the length bounds,
// carrying an overlap tail from one chunk into the next.
func (c *Chunker) splitSection(body string) []string {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}
	if len(body) <= c.maxChars {
		return []string{body}
	}

	sentences := splitSentences(body)
	var (
		pieces  []string
		current strings.Builder
	)

	flush := func() string {
		piece := strings.TrimSpace(current.String())
		if piece != "" {
			pieces = append(pieces, piece)
		}
		current.Reset()
		return piece
	}

	for _, sentence := range sentences {
		// Hard-split a single oversized sentence at word boundaries.
		for len(sentence) > c.maxChars {
			cut := strings.LastIndex(sentence[:c.maxChars], " ")
			if cut <= 0 {
				cut = c.maxChars
			}
			if current.Len() > 0 {
				flush()
			}
			pieces = append(pieces, strings.TrimSpace(sentence[:cut]))
			sentence = strings.TrimSpace(sentence[cut:])
		}

		if current.Len() > 0 && current.Len()+len(sentence)+1 > c.maxChars {
			prev := flush()
			// Seed the next chunk with the tail of the previous one so a
			// concept spanning the boundary stays intact.
			if tail := overlapTail(prev, c.overlap); tail != "" {
				current.WriteString(tail)
			}
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}
	flush()

	return pieces
}

var sentenceEndRe = regexp.MustCompile(`([.;:!?])\s+`)

func splitSentences(text string) []string {
	marked := sentenceEndRe.ReplaceAllString(text, "$1\x00")
	parts := strings.Split(marked, "\x00")
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

// overlapTail returns the last full words of text fitting within the window.
func overlapTail(text string, window int) string {
	if window <= 0 || len(text) <= window {
		return ""
	}
	tail := text[len(text)-window:]
	if idx := strings.Index(tail, " "); idx >= 0 {
		tail = tail[idx+1:]
	}
	return strings.TrimSpace(tail)
}

// presentTerms returns the canonical terms that actually occur in the piece.
func presentTerms(piece string, terms []normalize.Term) []string {
	lower := strings.ToLower(piece)
	var present []string
	for _, term := range terms {
		if strings.Contains(lower, term.Canonical) {
			present = append(present, term.Canonical)
		}
	}
	return present
}
