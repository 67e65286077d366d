package citation

import (
	"regexp"
	"strings"

	"github.com/poiesic/lexicore/core"
)

// pattern is one extraction rule. The pattern list is fixed and ordered;
// earlier entries win ties when overlapping matches carry equal confidence.
type pattern struct {
	re         *regexp.Regexp
	kind       core.RelationKind
	confidence float32
	target     func(m []string) core.DocumentID
}

// defaultPatterns covers the reference styles found in property-tax legal
// text: amendment and supersession phrases, statute references, comptroller
// rules, cross-document form numbers, and case citations.
//
// Amendment/supersession phrases carry the highest confidence so they win
// the overlap dedup against the plain statute-reference style.
func defaultPatterns(statutePrefix, rulePrefix string) []pattern {
	statuteID := func(m []string) core.DocumentID {
		return core.DocumentID(statutePrefix + "-" + m[1])
	}
	return []pattern{
		{
			re:         regexp.MustCompile(`(?i)\bas\s+amended\s+by\s+Section\s+(\d+\.\d+)`),
			kind:       core.RelationAmends,
			confidence: 0.95,
			target:     statuteID,
		},
		{
			re:         regexp.MustCompile(`(?i)\bsupersed(?:es|ed|ing)\s+Section\s+(\d+\.\d+)`),
			kind:       core.RelationSupersedes,
			confidence: 0.95,
			target:     statuteID,
		},
		{
			re:         regexp.MustCompile(`(?i)\bimplement(?:s|ing)\s+Section\s+(\d+\.\d+)`),
			kind:       core.RelationImplements,
			confidence: 0.9,
			target:     statuteID,
		},
		{
			// Statute-reference style: "Section 11.13, Tax Code" or
			// "Section 11.13 of the Tax Code".
			re:         regexp.MustCompile(`(?i)\bSec(?:tion)?\.?\s+(\d+\.\d+)\s*(?:,\s*|\s+of\s+the\s+)Tax\s+Code`),
			kind:       core.RelationReferences,
			confidence: 0.9,
			target:     statuteID,
		},
		{
			re:         regexp.MustCompile(`(?i)\bComptroller\s+Rule\s+(\d+\.\d+)`),
			kind:       core.RelationImplements,
			confidence: 0.85,
			target: func(m []string) core.DocumentID {
				return core.DocumentID(rulePrefix + "-" + m[1])
			},
		},
		{
			// Cross-document-number style: "Form 50-114".
			re:         regexp.MustCompile(`(?i)\bForm\s+(\d[\d.\-]*\d)`),
			kind:       core.RelationReferences,
			confidence: 0.8,
			target: func(m []string) core.DocumentID {
				return core.DocumentID("form-" + m[1])
			},
		},
		{
			// Case-reference style: "Smith v. Jones".
			re:         regexp.MustCompile(`\b([A-Z][A-Za-z]+)\s+v\.\s+([A-Z][A-Za-z]+)\b`),
			kind:       core.RelationReferences,
			confidence: 0.7,
			target: func(m []string) core.DocumentID {
				return core.DocumentID("case-" + strings.ToLower(m[1]) + "-v-" + strings.ToLower(m[2]))
			},
		},
	}
}
