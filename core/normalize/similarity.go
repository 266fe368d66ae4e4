package normalize

import (
	"math"
	"strings"
)

// Default n-gram range for similarity vectors
const (
	DefaultNGramMin = 2
	DefaultNGramMax = 4
)

// Similarity computes a symmetric similarity score in [0,1] between two name
// strings using character n-gram frequency vector cosine similarity. When
// vectorization is degenerate (either string too short to produce n-grams)
// it falls back to Jaccard similarity over character sets.
func Similarity(a, b string) float64 {
	return SimilarityNGram(a, b, DefaultNGramMin, DefaultNGramMax)
}

// SimilarityNGram is Similarity with an explicit n-gram range
func SimilarityNGram(a, b string, nMin, nMax int) float64 {
	if a == "" || b == "" {
		return 0.0
	}

	if Normalize(a) == Normalize(b) {
		return 1.0
	}

	va := ngramCounts(a, nMin, nMax)
	vb := ngramCounts(b, nMin, nMax)

	if len(va) == 0 || len(vb) == 0 {
		return jaccard(a, b)
	}

	return cosine(va, vb)
}

// ngramCounts builds a character n-gram frequency vector over the lowercased
// string for every n in [nMin, nMax]
func ngramCounts(s string, nMin, nMax int) map[string]float64 {
	runes := []rune(strings.ToLower(s))
	counts := make(map[string]float64)

	for n := nMin; n <= nMax; n++ {
		if n <= 0 || len(runes) < n {
			continue
		}
		for i := 0; i+n <= len(runes); i++ {
			counts[string(runes[i:i+n])]++
		}
	}

	return counts
}

// cosine computes cosine similarity between two sparse frequency vectors
func cosine(a, b map[string]float64) float64 {
	var dot, normA, normB float64

	for gram, av := range a {
		normA += av * av
		if bv, ok := b[gram]; ok {
			dot += av * bv
		}
	}
	for _, bv := range b {
		normB += bv * bv
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// jaccard computes character-set Jaccard similarity, ignoring spaces.
// Returns 0.0 if either character set is empty.
func jaccard(a, b string) float64 {
	setA := charSet(a)
	setB := charSet(b)

	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for r := range setA {
		if _, ok := setB[r]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection

	return float64(intersection) / float64(union)
}

func charSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{})
	for _, r := range strings.ToLower(s) {
		if r == ' ' {
			continue
		}
		set[r] = struct{}{}
	}
	return set
}
