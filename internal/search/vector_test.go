package search_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextread/backend/internal/search"
)

func TestTokenize(t *testing.T) {
	text := "Hello, World! This is a test of Sci-Fi_Stuff x 42."
	tokens := search.Tokenize(text)

	// "this", "is", "a", "of" are stop words; "x" is too short
	expected := []string{"hello", "world", "test", "sci", "fi_stuff", "42"}
	assert.Equal(t, expected, tokens)
}

func TestTokenize_OnlyStopWords(t *testing.T) {
	assert.Empty(t, search.Tokenize("the and of it"))
	assert.Empty(t, search.Tokenize(""))
}

func TestIsStopWord(t *testing.T) {
	assert.True(t, search.IsStopWord("and"))
	assert.True(t, search.IsStopWord("yourselves"))
	assert.False(t, search.IsStopWord("empire"))
}

func TestTFIDFVectorizer(t *testing.T) {
	docs := []string{
		"apple banana",
		"apple orange",
	}

	vectorizer := search.NewTFIDFVectorizer()
	vectorizer.Fit(docs)

	require.Len(t, vectorizer.Vocabulary, 3)

	// idf(apple) = ln(3/3) + 1 = 1, idf(banana) = ln(3/2) + 1
	apple := vectorizer.Vocabulary["apple"]
	banana := vectorizer.Vocabulary["banana"]
	assert.InDelta(t, 1.0, vectorizer.IDF[apple], 1e-9)
	assert.InDelta(t, math.Log(1.5)+1, vectorizer.IDF[banana], 1e-9)

	vec := vectorizer.Transform("apple banana")
	require.Len(t, vec, 2)
	assert.InDelta(t, 1.0, vec.Norm(), 1e-9)
	assert.Less(t, vec[0].Term, vec[1].Term)

	assert.Empty(t, vectorizer.Transform("kiwi"))
}

func TestTFIDFVectorizer_RefitDiscardsVocabulary(t *testing.T) {
	vectorizer := search.NewTFIDFVectorizer()
	vectorizer.Fit([]string{"apple banana"})
	vectorizer.Fit([]string{"cherry"})

	assert.Len(t, vectorizer.Vocabulary, 1)
	assert.Len(t, vectorizer.IDF, 1)
}

func TestCosineSimilarity(t *testing.T) {
	vecA := search.Vector{{Term: 0, Weight: 1}, {Term: 2, Weight: 1}}
	vecB := search.Vector{{Term: 1, Weight: 1}, {Term: 2, Weight: 1}}

	// Dot product 1, norms sqrt(2) each
	score := search.CosineSimilarity(vecA, vecB)
	assert.InDelta(t, 0.5, score, 0.0001)

	assert.Equal(t, 0.0, search.CosineSimilarity(vecA, nil))
}

func TestDot(t *testing.T) {
	a := search.Vector{{Term: 1, Weight: 2}, {Term: 3, Weight: 1}, {Term: 7, Weight: 4}}
	b := search.Vector{{Term: 0, Weight: 5}, {Term: 3, Weight: 3}, {Term: 7, Weight: 0.5}}
	assert.InDelta(t, 5.0, search.Dot(a, b), 1e-12)
}
