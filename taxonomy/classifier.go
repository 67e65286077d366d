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


package taxonomy

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/poiesic/lexicore/core"
)

const (
	defaultTopK          = 3
	defaultMinConfidence = 0.4
	defaultAncestorBoost = 0.5
)

// Assignment is one ranked category candidate.
type Assignment struct {
	Node       *Node
	Confidence float32
}

// Classifier assigns chunks to taxonomy categories by matching node keyword
// sets, with a hierarchy-aware boost: a confident match on a child also
// boosts its ancestors. At most topK categories are retained.
//
// Classification never fails: text with no confident match is tagged
// uncategorized and stays searchable.
type Classifier struct {
	mu            sync.RWMutex
	tree          *Tree
	topK          int
	minConfidence float32
	ancestorBoost float32
	logger        *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier) error

// WithTopK sets the maximum categories retained per chunk.
// Default is 3.
func WithTopK(k int) Option {
	return func(c *Classifier) error {
		if k < 1 {
			return ErrInvalidConfig
		}
		c.topK = k
		return nil
	}
}

// WithMinConfidence sets the confidence floor for an assignment.
func WithMinConfidence(min float32) Option {
	return func(c *Classifier) error {
		if min < 0 || min > 1 {
			return ErrInvalidConfig
		}
		c.minConfidence = min
		return nil
	}
}

// WithTree replaces the built-in taxonomy.
func WithTree(tree *Tree) Option {
	return func(c *Classifier) error {
		if tree == nil {
			return ErrTreeRequired
		}
		if err := tree.compile(); err != nil {
			return err
		}
		c.tree = tree
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// New creates a Classifier with the built-in default taxonomy.
func New(opts ...Option) (*Classifier, error) {
	tree := DefaultTree()
	if err := tree.compile(); err != nil {
		return nil, err
	}

	c := &Classifier{
		tree:          tree,
		topK:          defaultTopK,
		minConfidence: defaultMinConfidence,
		ancestorBoost: defaultAncestorBoost,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// TreeVersion returns the version of the active taxonomy.
func (c *Classifier) TreeVersion() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tree.Version
}

// ReplaceTree swaps in a new taxonomy. Administrative operation; safe
// against concurrent Classify calls.
func (c *Classifier) ReplaceTree(tree *Tree) error {
	if tree == nil {
		return ErrTreeRequired
	}
	if err := tree.compile(); err != nil {
		return err
	}
	c.mu.Lock()
	c.tree = tree
	c.mu.Unlock()
	return nil
}

// Classify returns ranked category candidates for the text, using the
// chunk's recognized canonical terms as additional match evidence.
func (c *Classifier) Classify(text string, terms []string) []Assignment {
	c.mu.RLock()
	defer c.mu.RUnlock()

	lower := strings.ToLower(text)
	termSet := make(map[string]bool, len(terms))
	for _, t := range terms {
		termSet[t] = true
	}

	scores := make(map[string]float32)
	for i := range c.tree.Nodes {
		node := &c.tree.Nodes[i]
		matches := 0
		for _, kw := range node.Keywords {
			if strings.Contains(lower, kw) || termSet[kw] {
				matches++
			}
		}
		if matches == 0 {
			continue
		}
		// Diminishing returns: 1 match -> 0.5, 2 -> 0.67, 3 -> 0.75.
		conf := float32(matches) / float32(matches+1)
		if conf > scores[node.Id] {
			scores[node.Id] = conf
		}
		// A confident child match also boosts its ancestors, decaying by
		// half per level.
		boost := conf
		for _, anc := range c.tree.Ancestors(node.Id) {
			boost *= c.ancestorBoost
			if anc.Parent == "" {
				break // the root is never a useful assignment
			}
			if scores[anc.Id] < boost {
				scores[anc.Id] = boost
			}
		}
	}

	var ranked []Assignment
	for id, conf := range scores {
		if conf < c.minConfidence {
			continue
		}
		ranked = append(ranked, Assignment{Node: c.tree.Node(id), Confidence: conf})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Confidence != ranked[j].Confidence {
			return ranked[i].Confidence > ranked[j].Confidence
		}
		return ranked[i].Node.Id < ranked[j].Node.Id
	})
	if len(ranked) > c.topK {
		ranked = ranked[:c.topK]
	}
	return ranked
}

// Tag converts classification results into chunk tags. A chunk with no
// confident match receives the uncategorized tag.
func (c *Classifier) Tag(text string, terms []string) []core.TaxonomyTag {
	ranked := c.Classify(text, terms)
	if len(ranked) == 0 {
		return []core.TaxonomyTag{{NodeId: core.UncategorizedTag, Confidence: 0}}
	}
	tags := make([]core.TaxonomyTag, len(ranked))
	for i, a := range ranked {
		tags[i] = core.TaxonomyTag{NodeId: a.Node.Id, Confidence: a.Confidence}
	}
	return tags
}
