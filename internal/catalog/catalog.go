package catalog

import (
	"sort"
	"strings"
)

// Options controls normalization during Load
type Options struct {
	// StripMarkup removes HTML from descriptions and review texts
	StripMarkup bool
}

// Catalog is the immutable, in-memory set of books built at startup.
// It is safe for concurrent readers.
type Catalog struct {
	books         []Book
	byID          map[string]int
	genres        []string
	reviews       map[string][]Review
	orphanReviews int
}

// Load validates the raw rows, merges reviews into their books and derives
// every search field. A book without a work_id, or one whose work_id repeats,
// aborts the load and no catalog is returned.
func Load(rawBooks []RawBook, rawReviews []RawReview, opts Options) (*Catalog, error) {
	c := &Catalog{
		books:   make([]Book, 0, len(rawBooks)),
		byID:    make(map[string]int, len(rawBooks)),
		reviews: make(map[string][]Review),
	}

	for i, raw := range rawBooks {
		id := strings.TrimSpace(raw.WorkID)
		if id == "" {
			return nil, &RowError{Row: i + 1, Err: ErrMissingWorkID}
		}
		if _, exists := c.byID[id]; exists {
			return nil, &RowError{Row: i + 1, WorkID: id, Err: ErrDuplicateWorkID}
		}
		c.byID[id] = len(c.books)

		description := raw.Description
		if opts.StripMarkup {
			description = StripMarkup(description)
		}
		c.books = append(c.books, Book{
			WorkID:          id,
			Title:           raw.Title,
			Author:          raw.Author,
			Genres:          raw.Genres,
			GenreList:       ParseGenres(raw.Genres),
			Description:     description,
			PublicationYear: parseInt(raw.PublicationYear),
			AverageRating:   parseFloat(raw.AverageRating),
			PageCount:       parseInt(raw.PageCount),
			ImageURL:        strings.TrimSpace(raw.ImageURL),
		})
	}

	// Group review texts per work, keeping source order
	texts := make(map[string][]string)
	for _, raw := range rawReviews {
		id := strings.TrimSpace(raw.WorkID)
		if _, ok := c.byID[id]; !ok {
			c.orphanReviews++
			continue
		}
		text := raw.Text
		if opts.StripMarkup {
			text = StripMarkup(text)
		}
		c.reviews[id] = append(c.reviews[id], Review{
			WorkID:    id,
			Text:      text,
			Rating:    parseFloat(raw.Rating),
			DateAdded: parseDate(raw.DateAdded),
		})
		if strings.TrimSpace(text) != "" {
			texts[id] = append(texts[id], text)
		}
	}

	seen := make(map[string]struct{})
	for i := range c.books {
		b := &c.books[i]
		b.ReviewText = strings.Join(texts[b.WorkID], " ")
		b.normalize()
		for _, g := range b.GenreList {
			if _, ok := seen[g]; !ok {
				seen[g] = struct{}{}
				c.genres = append(c.genres, g)
			}
		}
	}
	sort.Strings(c.genres)

	return c, nil
}

// Len returns the number of books
func (c *Catalog) Len() int {
	return len(c.books)
}

// Book returns the book at a catalog position, or nil when out of range
func (c *Catalog) Book(pos int) *Book {
	if pos < 0 || pos >= len(c.books) {
		return nil
	}
	return &c.books[pos]
}

// ByID looks a book up by work_id
func (c *Catalog) ByID(workID string) (*Book, bool) {
	pos, ok := c.byID[strings.TrimSpace(workID)]
	if !ok {
		return nil, false
	}
	return &c.books[pos], true
}

// Books returns every book in catalog order
func (c *Catalog) Books() []*Book {
	out := make([]*Book, len(c.books))
	for i := range c.books {
		out[i] = &c.books[i]
	}
	return out
}

// Positions returns every catalog position in order
func (c *Catalog) Positions() []int {
	out := make([]int, len(c.books))
	for i := range out {
		out[i] = i
	}
	return out
}

// CompositeTexts returns the composite text of every book in catalog order
func (c *Catalog) CompositeTexts() []string {
	out := make([]string, len(c.books))
	for i := range c.books {
		out[i] = c.books[i].CompositeText
	}
	return out
}

// Genres returns the sorted, distinct genre labels across the catalog
func (c *Catalog) Genres() []string {
	out := make([]string, len(c.genres))
	copy(out, c.genres)
	return out
}

// OrphanReviews counts review rows whose work_id matched no book
func (c *Catalog) OrphanReviews() int {
	return c.orphanReviews
}

// ReviewCount returns the number of reviews attached to a work
func (c *Catalog) ReviewCount(workID string) int {
	return len(c.reviews[strings.TrimSpace(workID)])
}

// RecentReviews returns up to limit reviews for a work, newest first.
// Reviews with an unknown date come after all dated ones; equal dates keep
// source order. A limit <= 0 returns them all.
func (c *Catalog) RecentReviews(workID string, limit int) []Review {
	src := c.reviews[strings.TrimSpace(workID)]
	out := make([]Review, len(src))
	copy(out, src)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].DateAdded, out[j].DateAdded
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
