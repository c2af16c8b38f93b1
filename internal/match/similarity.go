// Package match scores company-name similarity and joins two collections of
// names by approximate string matching.
package match

import (
	"math"
	"sort"
	"strings"

	"github.com/sells-group/report-cli/internal/normalize"
)

const ngramSize = 3

// Similarity normalizes a and b and returns the TF-IDF weighted cosine
// similarity of their character trigrams, in [0, 1].
//
// Two names that both normalize to the empty string score 1.0; exactly one
// empty name scores 0.0.
func Similarity(a, b string) float64 {
	na, nb := normalize.Name(a), normalize.Name(b)
	switch {
	case na == "" && nb == "":
		return 1
	case na == "" || nb == "":
		return 0
	}
	return Cosine(na, nb)
}

// Cosine fits a smooth-IDF TF-IDF model on the two-document corpus {a, b}
// and returns the cosine similarity of the two document vectors. Inputs are
// compared as given; callers normalize first.
func Cosine(a, b string) float64 {
	ta, tb := ngrams(a), ngrams(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	terms := make([]string, 0, len(ta)+len(tb))
	for t := range ta {
		terms = append(terms, t)
	}
	for t := range tb {
		if _, ok := ta[t]; !ok {
			terms = append(terms, t)
		}
	}
	sort.Strings(terms)

	const docs = 2.0
	var dot, normA, normB float64
	for _, t := range terms {
		df := 0.0
		if ta[t] > 0 {
			df++
		}
		if tb[t] > 0 {
			df++
		}
		idf := math.Log((1+docs)/(1+df)) + 1
		wa := float64(ta[t]) * idf
		wb := float64(tb[t]) * idf
		dot += wa * wb
		normA += wa * wa
		normB += wb * wb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Min(1, math.Max(0, sim))
}

// ngrams counts the character trigrams of each whitespace token, padded
// with a space on both sides so single-letter tokens still contribute.
func ngrams(s string) map[string]int {
	out := make(map[string]int)
	for _, tok := range strings.Fields(s) {
		r := []rune(" " + tok + " ")
		for i := 0; i+ngramSize <= len(r); i++ {
			out[string(r[i:i+ngramSize])]++
		}
	}
	return out
}
