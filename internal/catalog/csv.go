package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// RawBook is a book row as read from the works file, before any parsing
type RawBook struct {
	WorkID          string
	Title           string
	Author          string
	Genres          string
	Description     string
	PublicationYear string
	AverageRating   string
	ImageURL        string
	PageCount       string
}

// RawReview is a review row as read from the reviews file
type RawReview struct {
	WorkID    string
	Text      string
	Rating    string
	DateAdded string
}

// header maps lowercase column names to their positions
type header map[string]int

func (h header) get(record []string, column string) string {
	idx, ok := h[column]
	if !ok || idx >= len(record) {
		return ""
	}
	return record[idx]
}

// ReadBooks parses a works CSV. Columns are matched by header name, in any order.
func ReadBooks(r io.Reader) ([]RawBook, error) {
	var books []RawBook
	err := readCSV(r, "work_id", func(h header, record []string) {
		books = append(books, RawBook{
			WorkID:          h.get(record, "work_id"),
			Title:           h.get(record, "original_title"),
			Author:          h.get(record, "author"),
			Genres:          h.get(record, "genres"),
			Description:     h.get(record, "description"),
			PublicationYear: h.get(record, "original_publication_year"),
			AverageRating:   h.get(record, "avg_rating"),
			ImageURL:        h.get(record, "image_url"),
			PageCount:       h.get(record, "num_pages"),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read books: %w", err)
	}
	return books, nil
}

// ReadReviews parses a reviews CSV
func ReadReviews(r io.Reader) ([]RawReview, error) {
	var reviews []RawReview
	err := readCSV(r, "work_id", func(h header, record []string) {
		reviews = append(reviews, RawReview{
			WorkID:    h.get(record, "work_id"),
			Text:      h.get(record, "review_text"),
			Rating:    h.get(record, "rating"),
			DateAdded: h.get(record, "date_added"),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read reviews: %w", err)
	}
	return reviews, nil
}

func readCSV(r io.Reader, required string, row func(header, []string)) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	first, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s (empty input)", ErrMissingColumn, required)
	}
	if err != nil {
		return err
	}

	h := make(header, len(first))
	for i, name := range first {
		name = strings.TrimPrefix(name, "\ufeff")
		h[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := h[required]; !ok {
		return fmt.Errorf("%w: %s", ErrMissingColumn, required)
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		row(h, record)
	}
}

// parseFloat returns nil for empty, NaN-like or unparseable values
func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// parseInt accepts integral floats such as "1965.0", which is how pandas
// writes integer columns containing gaps
func parseInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	f := parseFloat(s)
	if f == nil || math.Abs(*f) > math.MaxInt32 {
		return nil
	}
	n := int(*f)
	return &n
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	time.RubyDate,
	time.RFC1123Z,
	time.RFC1123,
	"01/02/2006",
}

// parseDate returns nil when no known layout matches
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
