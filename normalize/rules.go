package normalize

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

// Concept categories for recognized terms. Each carries a fixed weight used
// as a downstream ranking signal.
const (
	CategoryExemption = "exemption"
	CategoryProcedure = "procedure"
	CategoryLegal     = "legal"
	CategoryDeadline  = "deadline"
)

var categoryWeights = map[string]float32{
	CategoryExemption: 1.0,
	CategoryLegal:     0.9,
	CategoryProcedure: 0.8,
	CategoryDeadline:  0.7,
}

// CategoryWeight returns the fixed weight for a concept category.
// Unknown categories weigh 0.5.
func CategoryWeight(category string) float32 {
	if w, ok := categoryWeights[category]; ok {
		return w
	}
	return 0.5
}

// Rule maps a pattern to its canonical replacement. Rules with higher
// Priority are applied first; equal priorities keep table order.
type Rule struct {
	Pattern   string `yaml:"pattern"`
	Canonical string `yaml:"canonical"`
	Category  string `yaml:"category"`
	Priority  int    `yaml:"priority"`

	re *regexp.Regexp
}

// Table is an ordered, versioned rule table. Versioning makes normalizer
// output reproducible: two runs against the same table version yield
// identical text and terms.
type Table struct {
	Version string `yaml:"version"`
	Rules   []Rule `yaml:"rules"`

	ordered []*Rule
}

// compile validates patterns and builds the priority ordering.
func (t *Table) compile() error {
	t.ordered = make([]*Rule, 0, len(t.Rules))
	for i := range t.Rules {
		rule := &t.Rules[i]
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return fmt.Errorf("%w: rule %q: %w", ErrInvalidRule, rule.Pattern, err)
		}
		rule.re = re
		t.ordered = append(t.ordered, rule)
	}
	sort.SliceStable(t.ordered, func(i, j int) bool {
		return t.ordered[i].Priority > t.ordered[j].Priority
	})
	return nil
}

// LoadTable reads a rule table from a YAML file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}
	if table.Version == "" {
		return nil, fmt.Errorf("%w: rule table version required", ErrInvalidRule)
	}
	return &table, nil
}

// DefaultTable returns the built-in rule table for property-tax legal text.
// Each canonical form re-matches its own pattern, so normalization is a
// fixed point: normalizing already-normalized text changes nothing.
func DefaultTable() *Table {
	return &Table{
		Version: "2025.1",
		Rules: []Rule{
			// Exemption terminology. Longest, most specific patterns carry
			// the highest priority so they claim spans first.
			{Pattern: `(?i)\bresiden(?:ce|tial)\s+homestead\s+exempt(?:ion)?s?\b`, Canonical: "residence homestead exemption", Category: CategoryExemption, Priority: 100},
			{Pattern: `(?i)\bhomestead\s+exempt(?:ion)?s?\b`, Canonical: "homestead exemption", Category: CategoryExemption, Priority: 90},
			{Pattern: `(?i)\bover[-\s]65\s+exempt(?:ion)?s?\b`, Canonical: "over-65 exemption", Category: CategoryExemption, Priority: 90},
			{Pattern: `(?i)\bdisabled\s+veteran'?s?\s+exempt(?:ion)?s?\b`, Canonical: "disabled veteran exemption", Category: CategoryExemption, Priority: 90},
			{Pattern: `(?i)\bag(?:ricultural)?\s+exempt(?:ion)?s?\b`, Canonical: "agricultural exemption", Category: CategoryExemption, Priority: 85},

			// Procedural terminology.
			{Pattern: `(?i)\bappraisal\s+review\s+board\b|\bARB\b`, Canonical: "appraisal review board", Category: CategoryProcedure, Priority: 80},
			{Pattern: `(?i)\bcentral\s+appraisal\s+district\b|\bappraisal\s+district\b|\bCAD\b`, Canonical: "appraisal district", Category: CategoryProcedure, Priority: 75},
			{Pattern: `(?i)\bnotice\s+of\s+(?:appraised|assessed)\s+value\b`, Canonical: "notice of appraised value", Category: CategoryProcedure, Priority: 75},
			{Pattern: `(?i)\bprotest\s+hearing\b`, Canonical: "protest hearing", Category: CategoryProcedure, Priority: 70},

			// Legal instruments.
			{Pattern: `(?i)\btax\s+code\b`, Canonical: "tax code", Category: CategoryLegal, Priority: 60},
			{Pattern: `(?i)\bcomptroller(?:'s)?\s+rules?\b`, Canonical: "comptroller rule", Category: CategoryLegal, Priority: 60},
			{Pattern: `(?i)\bjudicial\s+appeal\b`, Canonical: "judicial appeal", Category: CategoryLegal, Priority: 60},

			// Deadlines.
			{Pattern: `(?i)\bfiling\s+deadline\b`, Canonical: "filing deadline", Category: CategoryDeadline, Priority: 50},
			{Pattern: `(?i)\bprotest\s+deadline\b`, Canonical: "protest deadline", Category: CategoryDeadline, Priority: 50},
			{Pattern: `(?i)\bdelinquen(?:cy|t)\s+date\b`, Canonical: "delinquency date", Category: CategoryDeadline, Priority: 50},
		},
	}
}
