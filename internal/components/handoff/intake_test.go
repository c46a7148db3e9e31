package handoff_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MahdiBaghbani/shareintake-go/internal/components/contentref"
	"github.com/MahdiBaghbani/shareintake-go/internal/components/handoff"
	"github.com/MahdiBaghbani/shareintake-go/internal/components/ingest"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/appctx"
)

// stubIngester returns a fixed result and records the event id it saw.
type stubIngester struct {
	res      ingest.Result
	root     string
	sawEvent string
}

func (s *stubIngester) Ingest(ctx context.Context, ref *contentref.Reference, privateRoot string) ingest.Result {
	s.root = privateRoot
	s.sawEvent = appctx.EventIDFromContext(ctx)
	return s.res
}

func TestIntake_LaunchFillsSlot(t *testing.T) {
	stub := &stubIngester{res: ingest.Result{Path: "/root/trans/9/cat.jpg"}}
	bridge := handoff.NewBridge(testLogger)
	in := handoff.NewIntake(stub, bridge, "/root", testLogger)

	ev := in.Handle(context.Background(), handoff.OriginLaunch, contentref.MustParse("file:///sdcard/cat.jpg"))

	if ev.ID == "" || stub.sawEvent != ev.ID {
		t.Errorf("event id %q not propagated to ingest (saw %q)", ev.ID, stub.sawEvent)
	}
	if stub.root != "/root" {
		t.Errorf("private root = %q", stub.root)
	}
	if path, ok := bridge.TakeSharedFile(); !ok || path != "/root/trans/9/cat.jpg" {
		t.Errorf("slot = %q, %v", path, ok)
	}
}

func TestIntake_KeepsExistingEventID(t *testing.T) {
	stub := &stubIngester{res: ingest.Result{Path: "/x"}}
	in := handoff.NewIntake(stub, handoff.NewBridge(testLogger), "/root", testLogger)

	ctx := appctx.WithEventID(context.Background(), "evt-1")
	if ev := in.Handle(ctx, handoff.OriginActive, contentref.MustParse("file:///a")); ev.ID != "evt-1" {
		t.Errorf("event id = %q, want evt-1", ev.ID)
	}
}

func TestIntake_ActiveEndToEnd(t *testing.T) {
	src := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(src, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	root := t.TempDir()

	ingestor := ingest.New(nil, nil, nil, testLogger)
	bridge := handoff.NewBridge(testLogger)
	sink := handoff.NewChanSink(1)
	defer bridge.Listen(sink)()

	in := handoff.NewIntake(ingestor, bridge, root, testLogger)
	ev := in.Handle(context.Background(), handoff.OriginActive, contentref.MustParse("file://"+filepath.ToSlash(src)))
	if !ev.Result.OK() {
		t.Fatalf("ingest failed: %v", ev.Result.Err)
	}

	pushed := <-sink.Paths()
	if pushed != ev.Result.Path || !strings.HasPrefix(pushed, root) {
		t.Errorf("pushed %q, result %q", pushed, ev.Result.Path)
	}
	f, err := os.Open(pushed)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if b, _ := io.ReadAll(f); string(b) != "hello" {
		t.Errorf("content = %q", b)
	}
}
