// Package api provides the /api/* endpoints.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MahdiBaghbani/shareintake-go/internal/components/api"
	"github.com/MahdiBaghbani/shareintake-go/internal/components/api/intent"
	"github.com/MahdiBaghbani/shareintake-go/internal/frameworks/service"
	svccfg "github.com/MahdiBaghbani/shareintake-go/internal/frameworks/service/cfg"
	"github.com/MahdiBaghbani/shareintake-go/internal/frameworks/service/httpwrap"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/deps"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/logutil"
)

func init() {
	service.MustRegister("api", New)
}

// Config holds api service configuration.
type Config struct {
	intent.Settings `mapstructure:",squash"`
}

// Service is the API service.
type Service struct {
	router chi.Router
	conf   *Config
	log    *slog.Logger
	deps   *deps.Deps
}

// New creates a new API service.
func New(m map[string]any, log *slog.Logger) (service.Service, error) {
	log = logutil.NoopIfNil(log)

	var c Config
	unused, err := svccfg.DecodeWithUnused(m, &c)
	if err != nil {
		return nil, err
	}
	if len(unused) > 0 {
		log.Warn("unused config keys", "service", "api", "unused_keys", unused)
	}

	d := deps.GetDeps()
	if d == nil {
		return nil, errors.New("shared deps not initialized")
	}
	if d.Intake == nil {
		return nil, errors.New("api: share intake not initialized")
	}
	if d.Config != nil {
		c.PushBuffer = d.Config.Bridge.PushBuffer
	}

	handler := intent.NewHandler(d.Intake, d.Index, c.Settings, log.With("component", "intent"))

	r := chi.NewRouter()

	// Health endpoint (public)
	r.Get("/healthz", api.NewHealthHandler(d.IndexDriver, d.Intake.Bridge().HasListener))

	handler.Routes(r)

	return &Service{router: r, conf: &c, log: log, deps: d}, nil
}

// Handler returns the service's HTTP handler with RawPath clearing and a body cap.
func (s *Service) Handler() http.Handler {
	return httpwrap.ClearRawPath(httpwrap.LimitBody(s.conf.MaxBodyBytes, s.router))
}

// Prefix returns the URL prefix for this service.
func (s *Service) Prefix() string {
	return "api"
}

// Unprotected returns paths that don't require the bridge token.
func (s *Service) Unprotected() []string {
	return []string{"/healthz"}
}

// Close detaches the event channel listener so its connection winds down.
func (s *Service) Close() error {
	return s.deps.Intake.Bridge().Close()
}
