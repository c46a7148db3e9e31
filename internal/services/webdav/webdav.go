// Package webdav provides the /webdav/* endpoints as a registry service.
package webdav

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/MahdiBaghbani/shareintake-go/internal/components/webdav"
	"github.com/MahdiBaghbani/shareintake-go/internal/frameworks/service"
	svccfg "github.com/MahdiBaghbani/shareintake-go/internal/frameworks/service/cfg"
	"github.com/MahdiBaghbani/shareintake-go/internal/frameworks/service/httpwrap"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/deps"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/logutil"
)

func init() {
	service.MustRegister("webdav", New)
}

// Config holds webdav service configuration.
type Config struct {
	webdav.Settings `mapstructure:",squash"`
}

// Service is the WebDAV service.
type Service struct {
	router  chi.Router
	conf    *Config
	log     *slog.Logger
	handler *webdav.Handler
}

// New creates a new WebDAV service serving <private_root>/<trans_dir> at
// /webdav/<trans_dir>.
func New(m map[string]any, log *slog.Logger) (service.Service, error) {
	log = logutil.NoopIfNil(log)

	var c Config
	unused, err := svccfg.DecodeWithUnused(m, &c)
	if err != nil {
		return nil, err
	}
	if len(unused) > 0 {
		log.Warn("unused config keys", "service", "webdav", "unused_keys", unused)
	}

	d := deps.GetDeps()
	if d == nil {
		return nil, errors.New("shared deps not initialized")
	}
	if d.Config == nil {
		return nil, errors.New("webdav: config not initialized")
	}

	storage := d.Config.Storage
	root := storage.TransRoot()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("webdav: create %s: %w", root, err)
	}

	mount := "/" + storage.TransDir
	handler := webdav.NewHandler(root, "/webdav"+mount, &c.Settings, log.With("component", "webdav"))

	r := chi.NewRouter()
	r.Handle(mount, handler)
	r.Handle(mount+"/*", handler)

	return &Service{router: r, conf: &c, log: log, handler: handler}, nil
}

// Handler returns the service's HTTP handler with RawPath clearing.
func (s *Service) Handler() http.Handler {
	return httpwrap.ClearRawPath(s.router)
}

// Prefix returns the URL prefix for this service.
func (s *Service) Prefix() string {
	return "webdav"
}

// Unprotected returns nil: the tree is behind the bridge token like /api.
func (s *Service) Unprotected() []string {
	return nil
}

// Close releases any resources held by the service.
func (s *Service) Close() error {
	return nil
}
