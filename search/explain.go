package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/poiesic/lexicore/core"
)

// explain names the score components that dominated a result, e.g.
// "high authority statute; cited by 2 other documents; matched terms:
// homestead exemption".
func (e *Engine) explain(c *candidate, q *core.Query) string {
	var parts []string

	switch {
	case c.breakdown.Similarity >= 0.75:
		parts = append(parts, "strong query match")
	case c.breakdown.Similarity >= 0.4:
		parts = append(parts, "moderate query match")
	}

	if len(c.matchedTerms) > 0 {
		terms := make([]string, len(c.matchedTerms))
		copy(terms, c.matchedTerms)
		sort.Strings(terms)
		if len(terms) > 4 {
			terms = terms[:4]
		}
		parts = append(parts, "matched terms: "+strings.Join(terms, ", "))
	} else if containsAllQueryWords(c.chunk.Text, q.Text) {
		parts = append(parts, "contains all query terms")
	}

	if c.doc.Type.AuthorityRank() >= 4 {
		parts = append(parts, "high authority "+c.doc.Type.String())
	}

	switch c.inDegree {
	case 0:
	case 1:
		parts = append(parts, "cited by 1 other document")
	default:
		parts = append(parts, fmt.Sprintf("cited by %d other documents", c.inDegree))
	}

	if c.expanded {
		parts = append(parts, fmt.Sprintf("reached via citation from %s", c.citedVia))
	}

	if c.doc.State == core.StateSuperseded && !q.IncludeHistorical {
		parts = append(parts, "superseded version, discounted")
	}

	if len(parts) == 0 {
		return "weak overall match"
	}
	return strings.Join(parts, "; ")
}
