package catalog

import (
	"context"
	"errors"
	"fmt"

	"rentalmap/internal/models"
)

// ErrMalformedPage marks a page whose content violates the catalog contract
var ErrMalformedPage = errors.New("malformed page")

// Page is one slice of the catalog as returned by a Store
type Page struct {
	Records    []models.Property
	TotalCount int
	HasMore    bool
}

// Store serves the catalog in fixed-size pages. Page indices start at 0.
type Store interface {
	FetchPage(ctx context.Context, pageIndex int) (Page, error)
}

// StoreError wraps a failed or malformed page read
type StoreError struct {
	Page int
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("failed to fetch catalog page %d: %v", e.Page, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ValidatePage checks the parts of a page the loader relies on
func ValidatePage(p Page) error {
	if p.TotalCount < 0 {
		return fmt.Errorf("%w: negative total count %d", ErrMalformedPage, p.TotalCount)
	}
	for i, r := range p.Records {
		if r.ID == "" {
			return fmt.Errorf("%w: record %d has no id", ErrMalformedPage, i)
		}
	}
	return nil
}

// HasMore reports whether pages remain after pageIndex
func HasMore(pageIndex, pageSize, total int) bool {
	return (pageIndex+1)*pageSize < total
}
