// Package services contains the domain services: text analysis, TF-IDF
// vectorization, similarity graph construction and review scheduling.
package services

import (
	"strings"
	"unicode"
)

// TextAnalyzer turns raw note text into index terms
type TextAnalyzer interface {
	// Tokenize returns the filtered lowercase terms of a text, in order
	Tokenize(text string) []string

	// TermCounts returns term frequencies for a text
	TermCounts(text string) map[string]int
}

// DefaultTextAnalyzer lowercases, splits on non-letter runs, and drops
// stopwords, digits-only tokens and very short words.
type DefaultTextAnalyzer struct {
	stopWords map[string]bool
}

// NewDefaultTextAnalyzer creates a text analyzer with common English stop words
func NewDefaultTextAnalyzer() *DefaultTextAnalyzer {
	return &DefaultTextAnalyzer{stopWords: getDefaultStopWords()}
}

// Tokenize returns the filtered lowercase terms of a text, in order
func (ta *DefaultTextAnalyzer) Tokenize(text string) []string {
	terms := make([]string, 0)
	var current strings.Builder
	hasLetter := false

	flush := func() {
		if current.Len() == 0 {
			return
		}
		word := current.String()
		current.Reset()
		// Digit-only runs are noise, as are one- and two-letter words
		if !hasLetter || len(word) <= 2 || ta.stopWords[word] {
			hasLetter = false
			return
		}
		hasLetter = false
		terms = append(terms, word)
	}

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) {
			hasLetter = true
			current.WriteRune(r)
		} else if unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return terms
}

// TermCounts returns term frequencies for a text
func (ta *DefaultTextAnalyzer) TermCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, term := range ta.Tokenize(text) {
		counts[term]++
	}
	return counts
}

// getDefaultStopWords returns a set of common English stop words
func getDefaultStopWords() map[string]bool {
	words := []string{
		"the", "be", "to", "of", "and", "a", "in", "that", "have", "i",
		"it", "for", "not", "on", "with", "he", "as", "you", "do", "at",
		"this", "but", "his", "by", "from", "they", "we", "say", "her", "she",
		"or", "an", "will", "my", "one", "all", "would", "there", "their", "what",
		"so", "up", "out", "if", "about", "who", "get", "which", "go", "me",
		"when", "make", "can", "like", "time", "no", "just", "him", "know", "take",
		"people", "into", "year", "your", "good", "some", "could", "them", "see", "other",
		"than", "then", "now", "look", "only", "come", "its", "over", "think", "also",
		"back", "after", "use", "two", "how", "our", "work", "first", "well", "way",
		"even", "new", "want", "because", "any", "these", "give", "day", "most", "us",
		"is", "was", "are", "been", "has", "had", "were", "said", "did", "having",
		"may", "am", "should", "too", "very",
	}
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
