// Package testutil provides the shared conformance suite for content index drivers.
package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/MahdiBaghbani/shareintake-go/internal/components/contentindex"
	"github.com/MahdiBaghbani/shareintake-go/internal/components/contentref"
)

// CatRow is the image row used across driver tests.
func CatRow() contentindex.Row {
	return contentindex.Row{
		Collection: contentref.ImagesContentURI,
		ID:         7,
		Data:       "/storage/emulated/0/Pictures/cat.jpg",
	}
}

// RunIndexTests runs the standard suite against an initialized, empty index.
func RunIndexTests(t *testing.T, idx contentindex.Index) {
	t.Helper()
	ctx := context.Background()

	if err := idx.Put(ctx, CatRow()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	download := contentindex.Row{
		Collection: contentref.PublicDownloadsURI + "/",
		ID:         12345,
		Data:       "/storage/emulated/0/Download/report.pdf",
	}
	if err := idx.Put(ctx, download); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	t.Run("selection by id", func(t *testing.T) {
		got, err := idx.Lookup(ctx, contentindex.Query{
			Locator:       contentref.ImagesContentURI,
			Column:        contentindex.ColumnData,
			Selection:     contentindex.SelectionByID,
			SelectionArgs: []string{"7"},
		})
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if got != "/storage/emulated/0/Pictures/cat.jpg" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("row locator without selection", func(t *testing.T) {
		got, err := idx.Lookup(ctx, contentindex.Query{
			Locator: contentref.WithAppendedID(contentref.PublicDownloadsURI, 12345),
			Column:  contentindex.ColumnData,
		})
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if got != "/storage/emulated/0/Download/report.pdf" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("id column projection", func(t *testing.T) {
		got, err := idx.Lookup(ctx, contentindex.Query{
			Locator: CatRow().Locator(),
			Column:  contentindex.ColumnID,
		})
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if got != "7" {
			t.Errorf("got %q, want 7", got)
		}
	})

	t.Run("no rows", func(t *testing.T) {
		_, err := idx.Lookup(ctx, contentindex.Query{
			Locator:       contentref.ImagesContentURI,
			Column:        contentindex.ColumnData,
			Selection:     contentindex.SelectionByID,
			SelectionArgs: []string{"8"},
		})
		if !errors.Is(err, contentindex.ErrNoRows) {
			t.Errorf("expected ErrNoRows, got %v", err)
		}
	})

	t.Run("put replaces", func(t *testing.T) {
		moved := CatRow()
		moved.Data = "/storage/emulated/0/Pictures/moved/cat.jpg"
		if err := idx.Put(ctx, moved); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := idx.Lookup(ctx, contentindex.Query{Locator: moved.Locator(), Column: contentindex.ColumnData})
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if got != moved.Data {
			t.Errorf("got %q, want %q", got, moved.Data)
		}
	})

	t.Run("invalid row", func(t *testing.T) {
		err := idx.Put(ctx, contentindex.Row{Collection: "", ID: 1, Data: "/x"})
		if !errors.Is(err, contentindex.ErrInvalidRow) {
			t.Errorf("expected ErrInvalidRow, got %v", err)
		}
	})
}
