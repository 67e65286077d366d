package taxonomy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// maxDepth is the fixed depth of the hierarchy (root counts as level 1).
const maxDepth = 3

// Node is one category in the subject hierarchy. Keywords drive the
// rule-based classifier; Parent links nodes into a single-root tree.
type Node struct {
	Id       string   `yaml:"id"`
	Label    string   `yaml:"label"`
	Parent   string   `yaml:"parent"` // empty only for the root
	Keywords []string `yaml:"keywords"`
}

// Tree is the fixed subject hierarchy. Read-mostly: built once at startup
// and replaced wholesale by an administrative operation, never mutated by
// query traffic.
type Tree struct {
	Version string `yaml:"version"`
	Nodes   []Node `yaml:"nodes"`

	byID  map[string]*Node
	depth map[string]int
}

// compile validates the tree shape and builds lookup maps.
func (t *Tree) compile() error {
	t.byID = make(map[string]*Node, len(t.Nodes))
	var root string
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if n.Id == "" {
			return fmt.Errorf("%w: node without id", ErrInvalidTree)
		}
		if _, dup := t.byID[n.Id]; dup {
			return fmt.Errorf("%w: duplicate node %q", ErrInvalidTree, n.Id)
		}
		t.byID[n.Id] = n
		if n.Parent == "" {
			if root != "" {
				return fmt.Errorf("%w: multiple roots (%q, %q)", ErrInvalidTree, root, n.Id)
			}
			root = n.Id
		}
	}
	if root == "" {
		return fmt.Errorf("%w: no root node", ErrInvalidTree)
	}

	t.depth = make(map[string]int, len(t.Nodes))
	for _, n := range t.Nodes {
		d, err := t.resolveDepth(n.Id, 0)
		if err != nil {
			return err
		}
		if d > maxDepth {
			return fmt.Errorf("%w: node %q exceeds depth %d", ErrInvalidTree, n.Id, maxDepth)
		}
		t.depth[n.Id] = d
	}
	return nil
}

func (t *Tree) resolveDepth(id string, hops int) (int, error) {
	if hops > len(t.Nodes) {
		return 0, fmt.Errorf("%w: cycle at node %q", ErrInvalidTree, id)
	}
	n, ok := t.byID[id]
	if !ok {
		return 0, fmt.Errorf("%w: unknown parent %q", ErrInvalidTree, id)
	}
	if n.Parent == "" {
		return 1, nil
	}
	d, err := t.resolveDepth(n.Parent, hops+1)
	return d + 1, err
}

// Node returns a node by id, or nil.
func (t *Tree) Node(id string) *Node {
	return t.byID[id]
}

// Ancestors returns the parent chain of a node, nearest first.
func (t *Tree) Ancestors(id string) []*Node {
	var chain []*Node
	n := t.byID[id]
	for n != nil && n.Parent != "" {
		n = t.byID[n.Parent]
		if n != nil {
			chain = append(chain, n)
		}
	}
	return chain
}

// LoadTree reads a taxonomy from a YAML file and validates it.
func LoadTree(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tree Tree
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTree, err)
	}
	if err := tree.compile(); err != nil {
		return nil, err
	}
	return &tree, nil
}

// DefaultTree returns the built-in property-tax subject hierarchy.
func DefaultTree() *Tree {
	return &Tree{
		Version: "2025.1",
		Nodes: []Node{
			{Id: "legal", Label: "Property Tax Law"},

			{Id: "exemptions", Label: "Exemptions", Parent: "legal",
				Keywords: []string{"exemption", "exempt from taxation"}},
			{Id: "exemptions.homestead", Label: "Homestead Exemptions", Parent: "exemptions",
				Keywords: []string{"homestead exemption", "residence homestead", "over-65 exemption"}},
			{Id: "exemptions.veteran", Label: "Veteran Exemptions", Parent: "exemptions",
				Keywords: []string{"disabled veteran exemption", "veteran", "disability rating"}},

			{Id: "procedures", Label: "Procedures", Parent: "legal",
				Keywords: []string{"procedure", "application", "hearing"}},
			{Id: "procedures.protest", Label: "Protests and Appeals", Parent: "procedures",
				Keywords: []string{"protest", "protest hearing", "appraisal review board", "judicial appeal"}},
			{Id: "procedures.filing", Label: "Filing Requirements", Parent: "procedures",
				Keywords: []string{"filing deadline", "file an application", "form", "late application"}},

			{Id: "valuation", Label: "Valuation", Parent: "legal",
				Keywords: []string{"appraised value", "market value", "appraisal district", "notice of appraised value"}},

			{Id: "compliance", Label: "Compliance and Penalties", Parent: "legal",
				Keywords: []string{"penalty", "interest", "delinquency date", "delinquent taxes"}},
		},
	}
}
