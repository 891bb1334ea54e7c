package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrMissingWorkID   = errors.New("missing work_id")
	ErrDuplicateWorkID = errors.New("duplicate work_id")
	ErrMissingColumn   = errors.New("missing required column")
)

// RowError locates a load failure. Row is 1-based and counts data rows only.
type RowError struct {
	Row    int
	WorkID string
	Err    error
}

func (e *RowError) Error() string {
	if e.WorkID != "" {
		return fmt.Sprintf("book row %d (work_id %q): %v", e.Row, e.WorkID, e.Err)
	}
	return fmt.Sprintf("book row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
