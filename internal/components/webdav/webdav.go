// Package webdav serves the ingest destination tree read-only over WebDAV so
// the host UI can fetch files by the paths it was handed.
// It wraps golang.org/x/net/webdav with a read-only file system.
package webdav

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"

	"golang.org/x/net/webdav"

	"github.com/MahdiBaghbani/shareintake-go/internal/components/api"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/logutil"
)

// Handler provides read-only WebDAV access to a directory tree.
type Handler struct {
	root     string
	dav      *webdav.Handler
	settings *Settings
	logger   *slog.Logger
}

// NewHandler creates a handler serving root. prefix is the URL path prefix
// stripped before resolving names, e.g. "/webdav/trans".
func NewHandler(root, prefix string, settings *Settings, logger *slog.Logger) *Handler {
	if settings == nil {
		settings = &Settings{}
		settings.ApplyDefaults()
	}
	logger = logutil.NoopIfNil(logger)

	h := &Handler{
		root:     root,
		settings: settings,
		logger:   logger,
	}
	h.dav = &webdav.Handler{
		Prefix: strings.TrimSuffix(prefix, "/"),
		FileSystem: &readOnlyFS{
			base:         webdav.Dir(root),
			hideDotfiles: settings.HideDotfiles,
		},
		LockSystem: webdav.NewMemLS(),
		Logger: func(r *http.Request, err error) {
			if err != nil {
				h.logger.Debug("WebDAV operation", "method", r.Method, "path", r.URL.Path, "error", err)
			}
		},
	}
	return h
}

// Root returns the served directory.
func (h *Handler) Root() string {
	return h.root
}

// ServeHTTP rejects write methods with 501 and serves everything else from
// the read-only tree.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if isWriteMethod(r.Method) {
		h.logger.Debug("WebDAV write method rejected", "method", r.Method, "path", r.URL.Path)
		api.WriteReadOnly(w, r.Method)
		return
	}
	h.dav.ServeHTTP(w, r)
}

// isWriteMethod returns true if the HTTP method modifies the tree or takes a lock.
func isWriteMethod(method string) bool {
	switch method {
	case http.MethodPut, http.MethodPost, http.MethodDelete, http.MethodPatch,
		"MKCOL", "MOVE", "COPY", "PROPPATCH", "LOCK", "UNLOCK":
		return true
	}
	return false
}

// isHidden reports whether any segment of name starts with a dot.
func isHidden(name string) bool {
	for _, seg := range strings.Split(path.Clean("/"+name), "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

// readOnlyFS wraps a webdav.FileSystem and refuses every mutation.
type readOnlyFS struct {
	base         webdav.FileSystem
	hideDotfiles bool
}

func (fs *readOnlyFS) Mkdir(ctx context.Context, name string, perm os.FileMode) error {
	return os.ErrPermission
}

func (fs *readOnlyFS) OpenFile(ctx context.Context, name string, flag int, perm os.FileMode) (webdav.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_APPEND|os.O_CREATE|os.O_TRUNC) != 0 {
		return nil, os.ErrPermission
	}
	if fs.hideDotfiles && isHidden(name) {
		return nil, os.ErrNotExist
	}
	f, err := fs.base.OpenFile(ctx, name, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	return &readOnlyFile{File: f, hideDotfiles: fs.hideDotfiles}, nil
}

func (fs *readOnlyFS) RemoveAll(ctx context.Context, name string) error {
	return os.ErrPermission
}

func (fs *readOnlyFS) Rename(ctx context.Context, oldName, newName string) error {
	return os.ErrPermission
}

func (fs *readOnlyFS) Stat(ctx context.Context, name string) (os.FileInfo, error) {
	if fs.hideDotfiles && isHidden(name) {
		return nil, os.ErrNotExist
	}
	return fs.base.Stat(ctx, name)
}

// readOnlyFile refuses writes and filters hidden entries from listings.
type readOnlyFile struct {
	webdav.File
	hideDotfiles bool
}

func (f *readOnlyFile) Write(p []byte) (int, error) {
	return 0, os.ErrPermission
}

func (f *readOnlyFile) Readdir(count int) ([]os.FileInfo, error) {
	infos, err := f.File.Readdir(count)
	if !f.hideDotfiles {
		return infos, err
	}
	visible := infos[:0]
	for _, info := range infos {
		if !strings.HasPrefix(info.Name(), ".") {
			visible = append(visible, info)
		}
	}
	return visible, err
}
