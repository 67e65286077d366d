package chunk

import (
	"regexp"
	"strings"

	"github.com/poiesic/lexicore/normalize"
)

// Quality score component weights. The score is a weighted function of
// length-within-band, presence of a recognized citation pattern, and
// normalized-term density.
const (
	lengthWeight   = 0.4
	citationWeight = 0.3
	densityWeight  = 0.3
)

// citationRe detects statute/rule/form reference patterns inside chunk text.
var citationRe = regexp.MustCompile(`(?i)(?:§+\s*\d|\bSec(?:tion)?\.?\s+\d|\bChapter\s+\d|\bRule\s+\d|\bForm\s+[\d][\d.\-]*)`)

// score computes the chunk quality in [0,1].
func (c *Chunker) score(text string, terms []normalize.Term) float32 {
	length := lengthScore(len(text), c.minChars, c.maxChars)

	var citation float64
	if citationRe.MatchString(text) {
		citation = 1.0
	}

	density := termDensity(text, terms)

	return float32(lengthWeight*length + citationWeight*citation + densityWeight*density)
}

// lengthScore is 1 inside the band and decays linearly outside it.
func lengthScore(n, min, max int) float64 {
	switch {
	case n >= min && n <= max:
		return 1.0
	case n < min:
		return float64(n) / float64(min)
	default:
		return float64(max) / float64(n)
	}
}

// termDensity measures weighted canonical-term occurrences per word,
// scaled so a term every ~20 words saturates the signal.
func termDensity(text string, terms []normalize.Term) float64 {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}

	lower := strings.ToLower(text)
	var weighted float64
	for _, term := range terms {
		count := strings.Count(lower, term.Canonical)
		weighted += float64(count) * float64(term.Weight)
	}

	density := weighted / float64(words) * 20
	if density > 1 {
		density = 1
	}
	return density
}
