package search

import (
	"sort"
)

// Match is a scored catalog position
type Match struct {
	Position int
	Score    float64
}

// Index holds one TF-IDF vector per catalog document. It is read-only once
// built and safe for concurrent use.
type Index struct {
	vectorizer *TFIDFVectorizer
	vectors    []Vector
}

// NewIndex trains the vectorizer on docs and vectorizes each of them.
// Document i is addressed by position i.
func NewIndex(docs []string) *Index {
	v := NewTFIDFVectorizer()
	v.Fit(docs)

	vectors := make([]Vector, len(docs))
	for i, d := range docs {
		vectors[i] = v.Transform(d)
	}
	return &Index{vectorizer: v, vectors: vectors}
}

// Len returns the number of indexed documents
func (ix *Index) Len() int {
	return len(ix.vectors)
}

// VocabularySize returns the number of distinct indexed terms
func (ix *Index) VocabularySize() int {
	return len(ix.vectorizer.Vocabulary)
}

// Score ranks the candidate positions against the query. Only candidates
// are scored, so callers control the searchable subset. Matches with a zero
// score are dropped; ties keep ascending position. An empty candidate set
// or a query with no indexed terms yields no matches.
func (ix *Index) Score(query string, candidates []int) []Match {
	if len(candidates) == 0 {
		return nil
	}
	queryVector := ix.vectorizer.Transform(query)
	if len(queryVector) == 0 {
		return nil
	}

	var results []Match
	for _, pos := range candidates {
		if pos < 0 || pos >= len(ix.vectors) {
			continue
		}
		// Both sides are L2-normalized, so the dot product is the cosine
		score := Dot(queryVector, ix.vectors[pos])
		if score > 0 {
			results = append(results, Match{Position: pos, Score: score})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Position < results[j].Position
	})
	return results
}

// Search returns at most topK matches from Score
func (ix *Index) Search(query string, candidates []int, topK int) []Match {
	results := ix.Score(query, candidates)
	if topK >= 0 && len(results) > topK {
		return results[:topK]
	}
	return results
}
