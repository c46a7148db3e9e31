// Package ingest copies shared content into the application's private
// document root.
//
// Each share event gets its own randomly numbered directory under
// <privateRoot>/<trans_dir>. Collisions between draws are not checked.
package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/MahdiBaghbani/shareintake-go/internal/components/contentindex"
	"github.com/MahdiBaghbani/shareintake-go/internal/components/contentref"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/appctx"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/logutil"
)

const (
	// DirNumberLimit bounds the destination directory number: [0, DirNumberLimit).
	DirNumberLimit = 100000

	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o666
)

// Result is the outcome of one ingest. Exactly one of Path or Err is set.
type Result struct {
	Path  string
	Bytes int64
	Err   error
}

// OK reports whether the ingest succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Ingestor resolves and copies shared content.
type Ingestor struct {
	index    contentindex.Index
	opener   StreamOpener
	settings *Settings
	logger   *slog.Logger

	randIntN func(n int) int
	create   func(name string) (io.WriteCloser, error)
}

// New creates an Ingestor. index may be nil, in which case content references
// never resolve. A nil opener defaults to a LocalOpener over this Ingestor.
func New(index contentindex.Index, opener StreamOpener, settings *Settings, logger *slog.Logger) *Ingestor {
	if settings == nil {
		settings = &Settings{}
	}
	settings.ApplyDefaults()

	g := &Ingestor{
		index:    index,
		settings: settings,
		logger:   logutil.NoopIfNil(logger),
		randIntN: rand.IntN,
		create: func(name string) (io.WriteCloser, error) {
			return os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
		},
	}
	if opener == nil {
		opener = NewLocalOpener(g)
	}
	g.opener = opener
	return g
}

// Settings returns the effective settings.
func (g *Ingestor) Settings() Settings {
	return *g.settings
}

// Ingest copies the content behind ref into
// <privateRoot>/<trans_dir>/<random>/<display name>. A relative privateRoot is
// taken against the working directory, so a successful Result.Path is always
// absolute. Failures are reported in the Result and never returned as errors.
func (g *Ingestor) Ingest(ctx context.Context, ref *contentref.Reference, privateRoot string) Result {
	log := g.logFor(ctx).With("reference", ref.Raw, "kind", ref.Kind().String())

	name := g.ResolveDisplayName(ctx, ref)
	if name == "" {
		log.Warn("shared content has no display name")
		return Result{Err: resolutionError("resolve name", ErrNoDisplayName)}
	}

	root, err := filepath.Abs(privateRoot)
	if err != nil {
		log.Warn("failed to resolve private root", "root", privateRoot, "error", err)
		return Result{Err: ioError("resolve root", err)}
	}

	destDir := filepath.Join(root, g.settings.TransDir, strconv.Itoa(g.randIntN(DirNumberLimit)))
	if err := os.MkdirAll(destDir, dirPerm); err != nil {
		log.Warn("failed to create destination directory", "dir", destDir, "error", err)
		return Result{Err: ioError("create directory", err)}
	}

	destPath := filepath.Join(destDir, name)
	n, err := g.copyTo(ctx, ref, destPath)
	if err != nil {
		log.Warn("failed to ingest shared content", "dest", destPath, "error", err)
		return Result{Err: err}
	}

	log.Info("ingested shared content", "dest", destPath, "bytes", n)
	return Result{Path: destPath, Bytes: n}
}

// copyTo streams ref into destPath. Both streams are closed on every path.
func (g *Ingestor) copyTo(ctx context.Context, ref *contentref.Reference, destPath string) (n int64, err error) {
	src, err := g.opener.Open(ctx, ref)
	if err != nil {
		if KindOf(err) != "" {
			return 0, err
		}
		if errors.Is(err, ErrUnresolvable) {
			return 0, resolutionError("open source", err)
		}
		return 0, ioError("open source", err)
	}
	defer src.Close()

	dst, err := g.create(destPath)
	if err != nil {
		return 0, ioError("create destination", err)
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = ioError("close destination", cerr)
		}
	}()

	// Hide ReaderFrom/WriterTo so the configured buffer bounds every transfer.
	buf := make([]byte, g.settings.CopyBufferBytes)
	n, err = io.CopyBuffer(struct{ io.Writer }{dst}, struct{ io.Reader }{src}, buf)
	if err != nil {
		return n, ioError("copy", err)
	}
	return n, nil
}

func (g *Ingestor) logFor(ctx context.Context) *slog.Logger {
	if id := appctx.EventIDFromContext(ctx); id != "" {
		return g.logger.With("event_id", id)
	}
	return g.logger
}
