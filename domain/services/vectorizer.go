package services

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"studyflow-backend/domain/core/entities"
	"studyflow-backend/domain/core/valueobjects"
)

// TermVector is a note's normalized term-weight vector. An empty map is a
// zero vector: the note had no extractable terms and is excluded from
// similarity computation.
type TermVector map[string]float64

// IsZero reports whether the vector has no terms
func (v TermVector) IsZero() bool { return len(v) == 0 }

// Vectorizer builds TF-IDF term vectors over a user's note corpus.
// Weighting is sublinear term frequency (1 + log tf) times inverse document
// frequency (log N/df), L2-normalized so that dot product equals cosine
// similarity. IDF is corpus-relative: vectors are only meaningful for the
// exact note set they were built from.
type Vectorizer struct {
	analyzer TextAnalyzer
}

// NewVectorizer creates a vectorizer
func NewVectorizer(analyzer TextAnalyzer) *Vectorizer {
	if analyzer == nil {
		analyzer = NewDefaultTextAnalyzer()
	}
	return &Vectorizer{analyzer: analyzer}
}

// BuildVectors produces one vector per note. Title and content both
// contribute terms. Notes without terms get zero vectors.
func (vz *Vectorizer) BuildVectors(notes []*entities.Note) map[valueobjects.NoteID]TermVector {
	vectors := make(map[valueobjects.NoteID]TermVector, len(notes))
	if len(notes) == 0 {
		return vectors
	}

	counts := make([]map[string]int, len(notes))
	docFreq := make(map[string]int)
	for i, note := range notes {
		counts[i] = vz.analyzer.TermCounts(note.Title() + " " + note.Content())
		for term := range counts[i] {
			docFreq[term]++
		}
	}

	n := float64(len(notes))
	for i, note := range notes {
		vector := make(TermVector, len(counts[i]))
		for term, tf := range counts[i] {
			df := docFreq[term]
			if df < 1 {
				df = 1
			}
			idf := math.Log(n / float64(df))
			// Terms present in every document carry no signal between
			// documents, but for tiny corpora (N <= 2) a shared term is
			// exactly what links two notes; keep a small floor so the
			// vector does not collapse to zero.
			if idf <= 0 {
				idf = 0.1
			}
			vector[term] = (1 + math.Log(float64(tf))) * idf
		}
		normalize(vector)
		if vector.IsZero() {
			vectors[note.ID()] = TermVector{}
		} else {
			vectors[note.ID()] = vector
		}
	}

	return vectors
}

// normalize scales a vector to unit Euclidean length in place
func normalize(v TermVector) {
	var sum float64
	for _, w := range v {
		sum += w * w
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for term, w := range v {
		v[term] = w / norm
	}
}

// Cosine is the dot product of two unit vectors. Zero vectors have zero
// similarity to everything, including themselves.
func Cosine(a, b TermVector) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for term, wa := range a {
		if wb, ok := b[term]; ok {
			dot += wa * wb
		}
	}
	if dot > 1 {
		// Guard against floating-point drift above exactly 1.0
		return 1
	}
	return dot
}

var sentenceSplit = regexp.MustCompile(`[.!?]+\s+`)

// TopTerms extracts the highest-weighted TF-IDF terms of a single text by
// treating its sentences as pseudo-documents and aggregating scores.
func (vz *Vectorizer) TopTerms(text string, max int) []string {
	if max <= 0 || strings.TrimSpace(text) == "" {
		return nil
	}

	sentences := sentenceSplit.Split(text, -1)
	docs := make([]map[string]int, 0, len(sentences))
	for _, s := range sentences {
		counts := vz.analyzer.TermCounts(s)
		if len(counts) > 0 {
			docs = append(docs, counts)
		}
	}
	if len(docs) < 3 {
		docs = []map[string]int{vz.analyzer.TermCounts(text)}
	}

	docFreq := make(map[string]int)
	for _, counts := range docs {
		for term := range counts {
			docFreq[term]++
		}
	}

	n := float64(len(docs))
	scores := make(map[string]float64)
	for _, counts := range docs {
		for term, tf := range counts {
			idf := math.Log(n/float64(docFreq[term])) + 1
			scores[term] += (1 + math.Log(float64(tf))) * idf
		}
	}

	terms := make([]string, 0, len(scores))
	for term := range scores {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if scores[terms[i]] != scores[terms[j]] {
			return scores[terms[i]] > scores[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if len(terms) > max {
		terms = terms[:max]
	}
	return terms
}
