package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nextread/backend/internal/catalog"
	"github.com/nextread/backend/internal/metrics"
	"github.com/nextread/backend/internal/search"
)

// Tier names the resolution stage that produced a result
type Tier string

const (
	TierNone       Tier = "none"
	TierTitle      Tier = "title"
	TierAuthor     Tier = "author"
	TierSimilarity Tier = "similarity"
	TierBrowse     Tier = "browse"
)

const (
	DefaultResultLimit = 20
	DefaultAllGenres   = "All"
)

// State is the catalog and its similarity index, built once at startup and
// shared read-only by every query
type State struct {
	Catalog *catalog.Catalog
	Index   *search.Index
	Genres  []string
}

// Load builds the startup state from raw rows
func Load(books []catalog.RawBook, reviews []catalog.RawReview, opts catalog.Options) (*State, error) {
	cat, err := catalog.Load(books, reviews, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	index := search.NewIndex(cat.CompositeTexts())
	state := &State{
		Catalog: cat,
		Index:   index,
		Genres:  cat.Genres(),
	}
	metrics.RecordCatalog(cat.Len(), len(state.Genres), index.VocabularySize())
	return state, nil
}

// Options tunes the query engine
type Options struct {
	ResultLimit int
	AllGenres   string
}

// Result is the ordered outcome of one query
type Result struct {
	Tier  Tier
	Books []catalog.Projection
}

// Engine resolves queries against a State. It holds no per-query state and
// is safe for concurrent use.
type Engine struct {
	State  *State
	Logger *logrus.Entry

	limit     int
	allGenres string
}

func NewEngine(state *State, opts Options, logger *logrus.Entry) *Engine {
	if opts.ResultLimit <= 0 {
		opts.ResultLimit = DefaultResultLimit
	}
	if opts.AllGenres == "" {
		opts.AllGenres = DefaultAllGenres
	}
	return &Engine{
		State:     state,
		Logger:    logger,
		limit:     opts.ResultLimit,
		allGenres: opts.AllGenres,
	}
}

// AllGenres returns the sentinel genre that disables filtering
func (e *Engine) AllGenres() string {
	return e.allGenres
}

// Resolve runs the tiered lookup: genre pre-filter, then title substring,
// author substring and finally similarity ranking, each tier tried only when
// the previous one found nothing. An empty query browses the filtered set
// by publication year.
func (e *Engine) Resolve(query, genre string) Result {
	start := time.Now()
	q := catalog.Fold(strings.TrimSpace(query))

	candidates := e.filterByGenre(genre)
	tier, positions := e.resolve(q, candidates)

	result := Result{Tier: tier, Books: e.project(positions)}
	if len(result.Books) == 0 {
		result.Tier = TierNone
	}

	elapsed := time.Since(start)
	metrics.RecordResolve(string(result.Tier), elapsed, len(result.Books))
	e.Logger.WithFields(logrus.Fields{
		"query":      q,
		"genre":      genre,
		"candidates": len(candidates),
		"tier":       result.Tier,
		"results":    len(result.Books),
		"elapsed":    elapsed,
	}).Debug("Resolved query")

	return result
}

func (e *Engine) resolve(q string, candidates []int) (Tier, []int) {
	if q == "" {
		return TierBrowse, e.newestFirst(candidates)
	}

	if matches := e.matching(candidates, func(b *catalog.Book) string { return b.TitleLower }, q); len(matches) > 0 {
		return TierTitle, e.newestFirst(matches)
	}
	if matches := e.matching(candidates, func(b *catalog.Book) string { return b.AuthorLower }, q); len(matches) > 0 {
		return TierAuthor, e.newestFirst(matches)
	}

	if len(candidates) == 0 {
		return TierSimilarity, nil
	}
	hits := e.State.Index.Search(q, candidates, e.limit)
	positions := make([]int, len(hits))
	for i, hit := range hits {
		positions[i] = hit.Position
	}
	return TierSimilarity, positions
}

// filterByGenre keeps books whose lowercase genre string contains the
// selected genre. "All" or an empty genre keeps everything.
func (e *Engine) filterByGenre(genre string) []int {
	cat := e.State.Catalog
	genre = strings.TrimSpace(genre)
	if genre == "" || genre == e.allGenres {
		return cat.Positions()
	}

	needle := catalog.Fold(genre)
	var positions []int
	for pos := 0; pos < cat.Len(); pos++ {
		if strings.Contains(cat.Book(pos).GenresLower, needle) {
			positions = append(positions, pos)
		}
	}
	return positions
}

func (e *Engine) matching(candidates []int, field func(*catalog.Book) string, q string) []int {
	var matches []int
	for _, pos := range candidates {
		if strings.Contains(field(e.State.Catalog.Book(pos)), q) {
			matches = append(matches, pos)
		}
	}
	return matches
}

// newestFirst orders positions by publication year descending, unknown
// years last, keeping catalog order among equal years, and applies the limit
func (e *Engine) newestFirst(positions []int) []int {
	cat := e.State.Catalog
	sorted := make([]int, len(positions))
	copy(sorted, positions)

	sort.SliceStable(sorted, func(i, j int) bool {
		a := cat.Book(sorted[i]).PublicationYear
		b := cat.Book(sorted[j]).PublicationYear
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})

	if len(sorted) > e.limit {
		sorted = sorted[:e.limit]
	}
	return sorted
}

func (e *Engine) project(positions []int) []catalog.Projection {
	books := make([]catalog.Projection, 0, len(positions))
	for _, pos := range positions {
		books = append(books, e.State.Catalog.Book(pos).Projection())
	}
	return books
}
