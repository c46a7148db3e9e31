// Package contentindex provides the queryable content index that maps content
// locators to metadata columns, most importantly the on-disk data path.
package contentindex

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/MahdiBaghbani/shareintake-go/internal/components/contentref"
)

// Column names understood by Query.
const (
	ColumnID   = "_id"
	ColumnData = "_data"

	// SelectionByID filters a collection by row id; takes one argument.
	SelectionByID = ColumnID + "=?"
)

var (
	ErrNoRows               = errors.New("no matching rows")
	ErrUnsupportedSelection = errors.New("unsupported selection")
	ErrUnknownColumn        = errors.New("unknown column")
	ErrInvalidRow           = errors.New("invalid row")
)

// Row is one entry of the index.
type Row struct {
	// Collection is the collection locator, e.g. content://media/external/images/media.
	Collection string `json:"collection"`

	// ID is the row id within the collection.
	ID int64 `json:"id"`

	// Data is the absolute storage path of the row's content.
	Data string `json:"data"`
}

// Locator returns the row's own content locator (collection with id appended).
func (r Row) Locator() string {
	return contentref.WithAppendedID(r.Collection, r.ID)
}

// Normalize trims a trailing slash from the collection.
func (r Row) Normalize() Row {
	r.Collection = strings.TrimSuffix(strings.TrimSpace(r.Collection), "/")
	return r
}

// Validate checks required fields.
func (r Row) Validate() error {
	if strings.TrimSpace(r.Collection) == "" {
		return fmt.Errorf("%w: collection is required", ErrInvalidRow)
	}
	if r.ID < 0 {
		return fmt.Errorf("%w: id must be non-negative", ErrInvalidRow)
	}
	if r.Data == "" {
		return fmt.Errorf("%w: data is required", ErrInvalidRow)
	}
	return nil
}

// Query describes a single-column lookup.
//
// Without a selection, Locator must be a row locator. With SelectionByID,
// Locator is a collection and SelectionArgs[0] is the row id.
type Query struct {
	Locator       string
	Column        string
	Selection     string
	SelectionArgs []string
}

// Target is the normalized form of a Query: the collection and row id it hits.
type Target struct {
	Collection string
	ID         int64
}

// Resolve normalizes q into a Target. Drivers use this so that every backend
// interprets locators and selections identically.
func (q Query) Resolve() (Target, error) {
	if q.Column != "" && q.Column != ColumnData && q.Column != ColumnID {
		return Target{}, fmt.Errorf("%w: %s", ErrUnknownColumn, q.Column)
	}

	switch q.Selection {
	case "":
		i := strings.LastIndex(q.Locator, "/")
		if i < 0 {
			return Target{}, ErrNoRows
		}
		id, err := strconv.ParseInt(q.Locator[i+1:], 10, 64)
		if err != nil {
			// Locators without a trailing row id address no single row.
			return Target{}, ErrNoRows
		}
		return Target{Collection: q.Locator[:i], ID: id}, nil

	case SelectionByID:
		if len(q.SelectionArgs) != 1 {
			return Target{}, fmt.Errorf("%w: %s expects 1 argument, got %d", ErrUnsupportedSelection, q.Selection, len(q.SelectionArgs))
		}
		id, err := strconv.ParseInt(q.SelectionArgs[0], 10, 64)
		if err != nil {
			return Target{}, ErrNoRows
		}
		return Target{Collection: strings.TrimSuffix(q.Locator, "/"), ID: id}, nil

	default:
		return Target{}, fmt.Errorf("%w: %q", ErrUnsupportedSelection, q.Selection)
	}
}

// Project returns the requested column of row as a string.
func (q Query) Project(row *Row) string {
	if q.Column == ColumnID {
		return strconv.FormatInt(row.ID, 10)
	}
	return row.Data
}

// Index is the content index. Implementations must be safe for concurrent use.
type Index interface {
	// Lookup returns the requested column of the first matching row.
	// Returns ErrNoRows when nothing matches.
	Lookup(ctx context.Context, q Query) (string, error)

	// Put inserts or replaces a row.
	Put(ctx context.Context, row Row) error

	// Close releases resources held by the index.
	Close() error
}
