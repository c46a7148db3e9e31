// Package memory provides an in-memory content index.
package memory

import (
	"context"
	"sync"

	"github.com/MahdiBaghbani/shareintake-go/internal/components/contentindex"
)

func init() {
	contentindex.Register("memory", func(ctx context.Context, cfg *contentindex.DriverConfig) (contentindex.Index, error) {
		return New(), nil
	})
}

// Index is an in-memory content index keyed by collection and row id.
type Index struct {
	mu   sync.RWMutex
	rows map[contentindex.Target]contentindex.Row
}

// New creates an empty in-memory index.
func New() *Index {
	return &Index{
		rows: make(map[contentindex.Target]contentindex.Row),
	}
}

func (x *Index) Lookup(ctx context.Context, q contentindex.Query) (string, error) {
	target, err := q.Resolve()
	if err != nil {
		return "", err
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	row, ok := x.rows[target]
	if !ok {
		return "", contentindex.ErrNoRows
	}
	return q.Project(&row), nil
}

func (x *Index) Put(ctx context.Context, row contentindex.Row) error {
	row = row.Normalize()
	if err := row.Validate(); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	x.rows[contentindex.Target{Collection: row.Collection, ID: row.ID}] = row
	return nil
}

func (x *Index) Close() error {
	return nil
}
