package search

import "strings"

// Stop words to filter out when tokenizing text for overlap checks
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// containsAllQueryWords checks if all query words (after filtering) appear in the text
func containsAllQueryWords(text, query string) bool {
	queryWords := tokenizeAndFilter(query)
	if len(queryWords) == 0 {
		return false
	}

	textWords := tokenizeAndFilter(text)
	wordSet := make(map[string]bool, len(textWords))
	for _, word := range textWords {
		wordSet[word] = true
	}

	for _, qWord := range queryWords {
		if !wordSet[qWord] {
			return false
		}
	}

	return true
}

// tokenJaccard measures lexical overlap between two texts as the Jaccard
// coefficient of their filtered token sets. Used as the pairwise similarity
// fallback when one of the chunks has no embedding.
func tokenJaccard(a, b string) float64 {
	setA := make(map[string]bool)
	for _, w := range tokenizeAndFilter(a) {
		setA[w] = true
	}
	setB := make(map[string]bool)
	for _, w := range tokenizeAndFilter(b) {
		setB[w] = true
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}
