package search

import (
	"math"
	"sort"
)

// Entry is one non-zero component of a sparse vector
type Entry struct {
	Term   int
	Weight float64
}

// Vector is a sparse vector with entries sorted by term id. Keeping a fixed
// order makes dot products bit-for-bit reproducible.
type Vector []Entry

// Vectorizer turns text into a vector
type Vectorizer interface {
	Fit(docs []string)
	Transform(text string) Vector
}

// TFIDFVectorizer implements Term Frequency - Inverse Document Frequency
// with smoothed idf and L2-normalized output
type TFIDFVectorizer struct {
	Vocabulary map[string]int
	IDF        []float64 // indexed by term id
}

func NewTFIDFVectorizer() *TFIDFVectorizer {
	return &TFIDFVectorizer{
		Vocabulary: make(map[string]int),
	}
}

// Fit analyzes the corpus to build vocabulary and IDF stats. Any earlier
// fit is discarded.
func (v *TFIDFVectorizer) Fit(docs []string) {
	v.Vocabulary = make(map[string]int)
	var docCounts []int

	for _, doc := range docs {
		seenInDoc := make(map[int]bool)
		for _, token := range Tokenize(doc) {
			id, exists := v.Vocabulary[token]
			if !exists {
				id = len(v.Vocabulary)
				v.Vocabulary[token] = id
				docCounts = append(docCounts, 0)
			}
			if !seenInDoc[id] {
				docCounts[id]++
				seenInDoc[id] = true
			}
		}
	}

	// idf = ln((1 + n) / (1 + df)) + 1
	n := float64(len(docs))
	v.IDF = make([]float64, len(docCounts))
	for id, df := range docCounts {
		v.IDF[id] = math.Log((1+n)/(1+float64(df))) + 1
	}
}

// Transform converts text to a normalized vector over the learned
// vocabulary. Unknown terms are ignored; text with no known terms yields an
// empty vector.
func (v *TFIDFVectorizer) Transform(text string) Vector {
	tf := make(map[int]float64)
	for _, token := range Tokenize(text) {
		if id, exists := v.Vocabulary[token]; exists {
			tf[id]++
		}
	}
	if len(tf) == 0 {
		return nil
	}

	vector := make(Vector, 0, len(tf))
	for id, count := range tf {
		vector = append(vector, Entry{Term: id, Weight: count * v.IDF[id]})
	}
	sort.Slice(vector, func(i, j int) bool { return vector[i].Term < vector[j].Term })

	norm := vector.Norm()
	if norm == 0 {
		return nil
	}
	for i := range vector {
		vector[i].Weight /= norm
	}
	return vector
}

// Norm returns the Euclidean length of the vector
func (vec Vector) Norm() float64 {
	var sum float64
	for _, e := range vec {
		sum += e.Weight * e.Weight
	}
	return math.Sqrt(sum)
}

// Dot computes the dot product of two term-sorted sparse vectors
func Dot(a, b Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Term == b[j].Term:
			sum += a[i].Weight * b[j].Weight
			i++
			j++
		case a[i].Term < b[j].Term:
			i++
		default:
			j++
		}
	}
	return sum
}

// CosineSimilarity calculates the cosine similarity between two vectors
func CosineSimilarity(a, b Vector) float64 {
	normA, normB := a.Norm(), b.Norm()
	if normA == 0 || normB == 0 {
		return 0
	}
	return Dot(a, b) / (normA * normB)
}
