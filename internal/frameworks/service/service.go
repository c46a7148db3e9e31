// Package service defines the HTTP service contract and the registry that
// the server mounts services from.
package service

import (
	"log/slog"
	"net/http"
)

// Service is an HTTP service mounted by the server under /<Prefix()>.
type Service interface {
	Handler() http.Handler
	Prefix() string
	Close() error
	// Unprotected lists paths relative to the prefix that skip bridge token auth.
	Unprotected() []string
}

// NewService is the constructor function type for services. conf is the raw
// [http.services.<name>] map, or nil when the section is absent.
type NewService func(conf map[string]any, log *slog.Logger) (Service, error)
