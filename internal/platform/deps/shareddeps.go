// Package deps provides shared dependencies for all services.
package deps

import (
	"sync"

	"github.com/MahdiBaghbani/shareintake-go/internal/components/contentindex"
	"github.com/MahdiBaghbani/shareintake-go/internal/components/handoff"
	"github.com/MahdiBaghbani/shareintake-go/internal/components/ingest"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/config"
)

var (
	sharedDeps     *Deps
	sharedDepsOnce sync.Once
)

// Deps holds shared dependencies for all services. Services in the same
// process share one index, one ingestor and one bridge.
type Deps struct {
	// Config (for handlers that need config values)
	Config *config.Config

	// Index is the content index. IndexDriver is its registered driver name.
	Index       contentindex.Index
	IndexDriver string

	Ingestor *ingest.Ingestor
	Bridge   *handoff.Bridge
	Intake   *handoff.Intake
}

// SetDeps sets the shared dependencies. Must be called once at startup
// before any services are constructed.
func SetDeps(d *Deps) {
	sharedDepsOnce.Do(func() {
		sharedDeps = d
	})
}

// GetDeps returns the shared dependencies.
// Returns nil if SetDeps has not been called.
func GetDeps() *Deps {
	return sharedDeps
}

// ResetDeps is for testing only. Resets the singleton.
func ResetDeps() {
	sharedDeps = nil
	sharedDepsOnce = sync.Once{}
}
