package ingest

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/MahdiBaghbani/shareintake-go/internal/components/contentindex"
	"github.com/MahdiBaghbani/shareintake-go/internal/components/contentref"
)

// PathResolver resolves a reference to an absolute on-device path.
type PathResolver interface {
	ResolveAbsolutePath(ctx context.Context, ref *contentref.Reference) (string, bool)
}

// ResolveAbsolutePath returns the storage path behind ref, or false when it
// cannot be determined. Index failures are treated as "no path".
func (g *Ingestor) ResolveAbsolutePath(ctx context.Context, ref *contentref.Reference) (string, bool) {
	switch ref.Kind() {
	case contentref.KindMediaDocument:
		parts := strings.Split(ref.DocumentID, ":")
		if len(parts) < 2 {
			g.logFor(ctx).Debug("media document id has no row component", "document_id", ref.DocumentID)
			return "", false
		}
		return g.queryDataColumn(ctx, contentindex.Query{
			Locator:       contentref.ImagesContentURI,
			Column:        contentindex.ColumnData,
			Selection:     contentindex.SelectionByID,
			SelectionArgs: []string{parts[1]},
		})

	case contentref.KindDownloadsDocument:
		id, err := strconv.ParseInt(ref.DocumentID, 10, 64)
		if err != nil {
			g.logFor(ctx).Debug("downloads document id is not numeric", "document_id", ref.DocumentID)
			return "", false
		}
		return g.queryDataColumn(ctx, contentindex.Query{
			Locator: contentref.WithAppendedID(contentref.PublicDownloadsURI, id),
			Column:  contentindex.ColumnData,
		})

	case contentref.KindContent:
		return g.queryDataColumn(ctx, contentindex.Query{
			Locator: ref.Locator(),
			Column:  contentindex.ColumnData,
		})

	case contentref.KindFile:
		return ref.Path, true

	default:
		return "", false
	}
}

// ResolveDisplayName returns the name the copy is stored under: the last
// segment of the resolved path, else the last segment of the path hint.
func (g *Ingestor) ResolveDisplayName(ctx context.Context, ref *contentref.Reference) string {
	if p, ok := g.ResolveAbsolutePath(ctx, ref); ok {
		return contentref.LastSegment(p)
	}
	return contentref.LastSegment(ref.Path)
}

// queryDataColumn runs q against the index and collapses every failure,
// including zero rows, into "no path".
func (g *Ingestor) queryDataColumn(ctx context.Context, q contentindex.Query) (string, bool) {
	if g.index == nil {
		return "", false
	}

	value, err := g.index.Lookup(ctx, q)
	if err != nil {
		if !errors.Is(err, contentindex.ErrNoRows) {
			g.logFor(ctx).Debug("content index query failed",
				"locator", q.Locator,
				"selection", q.Selection,
				"error", err)
		}
		return "", false
	}
	return value, true
}
