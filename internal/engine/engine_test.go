package engine_test

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextread/backend/internal/catalog"
	"github.com/nextread/backend/internal/engine"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger.WithField("test", "engine")
}

func sampleRows() ([]catalog.RawBook, []catalog.RawReview) {
	books := []catalog.RawBook{
		{WorkID: "1", Title: "Dune", Author: "Frank Herbert", Genres: "Science Fiction, Classics", PublicationYear: "1965", Description: "Desert planet Arrakis."},
		{WorkID: "2", Title: "Dune Messiah", Author: "Frank Herbert", Genres: "Science Fiction", PublicationYear: "1969", Description: "Paul rules the empire."},
		{WorkID: "3", Title: "The Hobbit", Author: "J.R.R. Tolkien", Genres: "Fantasy, Classics", PublicationYear: "1937", Description: "A hobbit goes on an adventure with dwarves."},
		{WorkID: "4", Title: "Mistborn", Author: "Brandon Sanderson", Genres: "Fantasy", PublicationYear: "2006", Description: "An empire ruled by a dark lord."},
		{WorkID: "5", Title: "Untitled Work", Author: "Anonymous", Genres: "Fantasy", Description: "Sandworms of the mind."},
	}
	reviews := []catalog.RawReview{
		{WorkID: "1", Text: "Sandworms everywhere, sandworms all the way down."},
		{WorkID: "2", Text: "The empire strikes."},
	}
	return books, reviews
}

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	books, reviews := sampleRows()
	state, err := engine.Load(books, reviews, catalog.Options{})
	require.NoError(t, err)
	return engine.NewEngine(state, engine.Options{}, testLogger())
}

func ids(result engine.Result) []string {
	out := make([]string, len(result.Books))
	for i, b := range result.Books {
		out[i] = b.WorkID
	}
	return out
}

func TestLoad(t *testing.T) {
	books, reviews := sampleRows()
	state, err := engine.Load(books, reviews, catalog.Options{})
	require.NoError(t, err)

	assert.Equal(t, 5, state.Catalog.Len())
	assert.Equal(t, 5, state.Index.Len())
	assert.Equal(t, []string{"Classics", "Fantasy", "Science Fiction"}, state.Genres)
}

func TestLoad_InvalidCatalog(t *testing.T) {
	books, _ := sampleRows()
	books[4].WorkID = ""

	state, err := engine.Load(books, nil, catalog.Options{})
	assert.Nil(t, state)
	assert.True(t, errors.Is(err, catalog.ErrMissingWorkID))
}

func TestResolve_TitleTierNewestFirst(t *testing.T) {
	eng := newTestEngine(t)

	result := eng.Resolve("dune", "All")
	assert.Equal(t, engine.TierTitle, result.Tier)
	assert.Equal(t, []string{"2", "1"}, ids(result))

	// Case and surrounding whitespace are ignored
	assert.Equal(t, ids(result), ids(eng.Resolve("  DUNE ", "All")))
}

func TestResolve_AuthorTier(t *testing.T) {
	eng := newTestEngine(t)

	result := eng.Resolve("herbert", "All")
	assert.Equal(t, engine.TierAuthor, result.Tier)
	assert.Equal(t, []string{"2", "1"}, ids(result))
}

func TestResolve_TitleTierSkipsLaterTiers(t *testing.T) {
	eng := newTestEngine(t)

	// "mist" matches Mistborn's title; the author and similarity tiers must not add anything
	result := eng.Resolve("mist", "All")
	assert.Equal(t, engine.TierTitle, result.Tier)
	assert.Equal(t, []string{"4"}, ids(result))
}

func TestResolve_AuthorOfFilteredOutBookIsNotAFallbackHit(t *testing.T) {
	eng := newTestEngine(t)

	result := eng.Resolve("herbert", "Fantasy")
	assert.Equal(t, engine.TierNone, result.Tier)
	assert.Empty(t, result.Books)
}

func TestResolve_SimilarityTier(t *testing.T) {
	eng := newTestEngine(t)

	result := eng.Resolve("sandworms and empire", "All")
	assert.Equal(t, engine.TierSimilarity, result.Tier)
	// Every book mentioning sandworms or an empire, and nothing else
	assert.ElementsMatch(t, []string{"1", "2", "4", "5"}, ids(result))
}

func TestResolve_SimilarityRespectsGenreFilter(t *testing.T) {
	eng := newTestEngine(t)

	global := eng.Resolve("sandworms", "All")
	require.Equal(t, engine.TierSimilarity, global.Tier)
	require.Equal(t, "1", global.Books[0].WorkID)

	filtered := eng.Resolve("sandworms", "Fantasy")
	assert.Equal(t, engine.TierSimilarity, filtered.Tier)
	assert.Equal(t, []string{"5"}, ids(filtered))
}

func TestResolve_EmptyFilterShortCircuits(t *testing.T) {
	eng := newTestEngine(t)

	result := eng.Resolve("sandworms", "Horror")
	assert.Equal(t, engine.TierNone, result.Tier)
	assert.Empty(t, result.Books)
}

func TestResolve_StopWordQueryReturnsEmpty(t *testing.T) {
	eng := newTestEngine(t)

	result := eng.Resolve("whereupon", "All")
	assert.Equal(t, engine.TierNone, result.Tier)
	assert.Empty(t, result.Books)
}

func TestResolve_BrowseByGenre(t *testing.T) {
	eng := newTestEngine(t)

	result := eng.Resolve("", "Fantasy")
	assert.Equal(t, engine.TierBrowse, result.Tier)
	// Unknown year sorts last
	assert.Equal(t, []string{"4", "3", "5"}, ids(result))
}

func TestResolve_GenreSubstringContainment(t *testing.T) {
	eng := newTestEngine(t)

	// "fiction" is contained in "science fiction"
	result := eng.Resolve("", "fiction")
	assert.Equal(t, []string{"2", "1"}, ids(result))

	result = eng.Resolve("", "")
	assert.Len(t, result.Books, 5)
}

func TestResolve_LimitAndStableTies(t *testing.T) {
	var books []catalog.RawBook
	for i := 0; i < 30; i++ {
		books = append(books, catalog.RawBook{
			WorkID:          fmt.Sprintf("w%02d", i),
			Title:           fmt.Sprintf("Book %d", i),
			Author:          "Same Author",
			Genres:          "Fantasy",
			PublicationYear: fmt.Sprintf("%d", 2000+i%3),
		})
	}
	state, err := engine.Load(books, nil, catalog.Options{})
	require.NoError(t, err)
	eng := engine.NewEngine(state, engine.Options{}, testLogger())

	for _, query := range []string{"book", "same", "", "fantasy"} {
		result := eng.Resolve(query, "All")
		assert.LessOrEqual(t, len(result.Books), 20, query)
	}

	first := eng.Resolve("book", "All")
	require.Len(t, first.Books, 20)
	for i := 1; i < len(first.Books); i++ {
		assert.GreaterOrEqual(t, *first.Books[i-1].PublicationYear, *first.Books[i].PublicationYear)
	}
	// Year 2002 holds w02, w05, ... in catalog order
	assert.Equal(t, "w02", first.Books[0].WorkID)
	assert.Equal(t, "w05", first.Books[1].WorkID)

	for i := 0; i < 5; i++ {
		assert.Equal(t, ids(first), ids(eng.Resolve("book", "All")))
	}
}

func TestResolve_CustomOptions(t *testing.T) {
	books, reviews := sampleRows()
	state, err := engine.Load(books, reviews, catalog.Options{})
	require.NoError(t, err)

	eng := engine.NewEngine(state, engine.Options{ResultLimit: 1, AllGenres: "Any"}, testLogger())
	assert.Equal(t, "Any", eng.AllGenres())

	result := eng.Resolve("dune", "Any")
	assert.Equal(t, []string{"2"}, ids(result))
}

func TestResolve_ProjectionFields(t *testing.T) {
	eng := newTestEngine(t)

	result := eng.Resolve("hobbit", "All")
	require.Len(t, result.Books, 1)
	b := result.Books[0]
	assert.Equal(t, "The Hobbit", b.Title)
	assert.Equal(t, "J.R.R. Tolkien", b.Author)
	assert.Equal(t, "Fantasy, Classics", b.Genres)
	require.NotNil(t, b.PublicationYear)
	assert.Equal(t, 1937, *b.PublicationYear)
	assert.Nil(t, b.PageCount)
}
