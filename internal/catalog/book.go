package catalog

import (
	"strings"
	"time"
)

// authorWeight and genreWeight control how many copies of each field go
// into a book's composite text, boosting them over description and review
// noise in similarity ranking.
const (
	genreWeight  = 2
	authorWeight = 4
)

// Book is one catalog entry. Books are built once by Load and must be
// treated as read-only afterwards.
type Book struct {
	WorkID          string
	Title           string
	Author          string
	Genres          string
	GenreList       []string
	Description     string
	PublicationYear *int
	AverageRating   *float64
	PageCount       *int
	ImageURL        string
	ReviewText      string

	// Lowercase forms used only for matching
	TitleLower       string
	AuthorLower      string
	GenresLower      string
	DescriptionLower string
	ReviewTextLower  string

	// CompositeText is the weighted blob the similarity index is built from
	CompositeText string
}

// Review is one reader review attached to a work
type Review struct {
	WorkID    string     `json:"work_id"`
	Text      string     `json:"review_text"`
	Rating    *float64   `json:"rating"`
	DateAdded *time.Time `json:"date_added"`
}

// Projection is the subset of a book handed to callers of the query engine
type Projection struct {
	WorkID          string   `json:"work_id"`
	Title           string   `json:"title"`
	Author          string   `json:"author"`
	Genres          string   `json:"genres"`
	Description     string   `json:"description"`
	PublicationYear *int     `json:"publication_year"`
	AverageRating   *float64 `json:"average_rating"`
	ImageURL        string   `json:"image_url,omitempty"`
	PageCount       *int     `json:"page_count"`
}

func (b *Book) Projection() Projection {
	return Projection{
		WorkID:          b.WorkID,
		Title:           b.Title,
		Author:          b.Author,
		Genres:          b.Genres,
		Description:     b.Description,
		PublicationYear: b.PublicationYear,
		AverageRating:   b.AverageRating,
		ImageURL:        b.ImageURL,
		PageCount:       b.PageCount,
	}
}

// normalize fills the lowercase fields and the composite text
func (b *Book) normalize() {
	b.TitleLower = Fold(b.Title)
	b.AuthorLower = Fold(b.Author)
	b.GenresLower = Fold(b.Genres)
	b.DescriptionLower = Fold(b.Description)
	b.ReviewTextLower = Fold(b.ReviewText)
	b.CompositeText = composite(b)
}

func composite(b *Book) string {
	var sb strings.Builder
	sb.WriteString(b.TitleLower)
	sb.WriteByte(' ')
	for i := 0; i < genreWeight; i++ {
		sb.WriteString(b.GenresLower)
		sb.WriteByte(' ')
	}
	sb.WriteString(b.DescriptionLower)
	sb.WriteByte(' ')
	for i := 0; i < authorWeight; i++ {
		sb.WriteString(b.AuthorLower)
		sb.WriteByte(' ')
	}
	sb.WriteString(b.ReviewTextLower)
	return sb.String()
}

// ParseGenres splits a comma-separated genre string into trimmed, non-empty labels
func ParseGenres(raw string) []string {
	var genres []string
	for _, part := range strings.Split(raw, ",") {
		if g := strings.TrimSpace(part); g != "" {
			genres = append(genres, g)
		}
	}
	return genres
}
