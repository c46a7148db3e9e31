package handoff

import (
	"context"
	"log/slog"

	"github.com/MahdiBaghbani/shareintake-go/internal/components/contentref"
	"github.com/MahdiBaghbani/shareintake-go/internal/components/ingest"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/appctx"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/logutil"
)

// Ingester is the part of *ingest.Ingestor used by Intake.
type Ingester interface {
	Ingest(ctx context.Context, ref *contentref.Reference, privateRoot string) ingest.Result
}

// Event is one processed share event.
type Event struct {
	ID     string
	Origin Origin
	Result ingest.Result
}

// Intake runs every share source through the same ingest and publish path.
type Intake struct {
	ingester    Ingester
	bridge      *Bridge
	privateRoot string
	logger      *slog.Logger
}

// NewIntake creates an Intake that writes under privateRoot and publishes to bridge.
func NewIntake(ingester Ingester, bridge *Bridge, privateRoot string, logger *slog.Logger) *Intake {
	logger = logutil.NoopIfNil(logger)
	return &Intake{
		ingester:    ingester,
		bridge:      bridge,
		privateRoot: privateRoot,
		logger:      logger,
	}
}

// Bridge returns the bridge results are published to.
func (in *Intake) Bridge() *Bridge {
	return in.bridge
}

// Handle ingests ref and publishes the result according to origin. A share
// event id is attached to ctx unless one is already present.
func (in *Intake) Handle(ctx context.Context, origin Origin, ref *contentref.Reference) Event {
	id := appctx.EventIDFromContext(ctx)
	if id == "" {
		id = appctx.NewEventID()
		ctx = appctx.WithEventID(ctx, id)
	}

	log := in.logger.With("event_id", id, "origin", origin.String())
	log.Debug("share event received", "reference", ref.Raw)

	res := in.ingester.Ingest(ctx, ref, in.privateRoot)
	in.bridge.Publish(origin, res)

	if !res.OK() {
		log.Info("share event produced no file", "kind", string(ingest.KindOf(res.Err)))
	}
	return Event{ID: id, Origin: origin, Result: res}
}
