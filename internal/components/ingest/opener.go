package ingest

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/MahdiBaghbani/shareintake-go/internal/components/contentref"
)

// StreamOpener opens the byte stream behind a reference.
type StreamOpener interface {
	Open(ctx context.Context, ref *contentref.Reference) (io.ReadCloser, error)
}

// StreamOpenerFunc adapts a function to StreamOpener.
type StreamOpenerFunc func(ctx context.Context, ref *contentref.Reference) (io.ReadCloser, error)

func (f StreamOpenerFunc) Open(ctx context.Context, ref *contentref.Reference) (io.ReadCloser, error) {
	return f(ctx, ref)
}

// LocalOpener opens references by resolving them to a local file.
// References without a resolvable path fail with ErrUnresolvable.
type LocalOpener struct {
	resolver PathResolver
}

// NewLocalOpener creates an opener backed by resolver.
func NewLocalOpener(resolver PathResolver) *LocalOpener {
	return &LocalOpener{resolver: resolver}
}

func (o *LocalOpener) Open(ctx context.Context, ref *contentref.Reference) (io.ReadCloser, error) {
	p, ok := o.resolver.ResolveAbsolutePath(ctx, ref)
	if !ok || p == "" {
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnresolvable, ref.Raw, ref.Kind())
	}
	return os.Open(p)
}
