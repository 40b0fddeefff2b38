package crawl

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/marktegna/netwalker/pkg/facts"
	"github.com/marktegna/netwalker/pkg/filter"
	"github.com/marktegna/netwalker/pkg/inventory"
	"github.com/marktegna/netwalker/pkg/model"
	"github.com/marktegna/netwalker/pkg/platform"
	"github.com/marktegna/netwalker/pkg/progress"
	"github.com/marktegna/netwalker/pkg/seed"
	"github.com/marktegna/netwalker/pkg/transport"
)

// fakeSession canned-replies a transport.Session by command text, so a
// test can script a fake device's show-command output without any real
// network dial.
type fakeSession struct {
	replies map[string]string
	sent    []string
}

func (f *fakeSession) Send(cmd string, timeout time.Duration) (string, error) {
	f.sent = append(f.sent, cmd)
	if out, ok := f.replies[cmd]; ok {
		return out, nil
	}
	return "", nil
}
func (f *fakeSession) Protocol() transport.Protocol { return transport.ProtocolSSH }
func (f *fakeSession) Close() error                 { return nil }

func openTestStore(t *testing.T) *inventory.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "netwalker.db")
	s, err := inventory.Open(inventory.Config{Enabled: true, Driver: inventory.DriverSQLite, Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

const coreABanner = `Cisco IOS Software, C3750 Software
Processor board ID FOC1234W0ABC
cisco WS-C3750 (PowerPC405) processor
CORE-A#`

func TestVisitOneCollectsFactsAndPersistsDevice(t *testing.T) {
	store := openTestStore(t)
	cache := inventory.NewCache(store, "", 0)
	seeds := seed.FromDevices(filepath.Join(t.TempDir(), "seeds.csv"), nil)
	seeds.Add("CORE-A", "10.0.0.1")

	summary := progress.NewSummary()
	sink := progress.NewLogSink(summary)

	s := New(
		Config{MaxDepth: 2, Workers: 1},
		transport.Credentials{Username: "netwalker"},
		transport.DefaultPreferences(),
		filter.New(filter.Config{}),
		store,
		cache,
		platform.NewDetector(),
		facts.New(0),
		seeds,
		sink,
		nil,
	)

	// visitOne dials through transport.Open in production; the unit test
	// exercises collectFacts/persist/enqueueNeighbors directly against a
	// fake session instead of monkeypatching the package-level dial.
	sess := &fakeSession{replies: map[string]string{"show version": coreABanner}}
	tag := s.detector.Detect(coreABanner)
	f := s.collectFacts(sess, tag, coreABanner)

	if !f.Succeeded() {
		t.Fatalf("expected facts collection to succeed, failures=%v", f.FactFailures)
	}
	if f.Identity.Name != "CORE-A" {
		t.Errorf("Identity.Name = %q, want CORE-A", f.Identity.Name)
	}

	if err := s.persist("10.0.0.1", f); err != nil {
		t.Fatalf("persist: %v", err)
	}

	ip, err := store.GetPrimaryIP("CORE-A")
	if err != nil {
		t.Fatalf("GetPrimaryIP: %v", err)
	}
	if ip != "10.0.0.1" {
		t.Errorf("GetPrimaryIP = %q, want 10.0.0.1", ip)
	}
}

func TestCollectFactsOnUnknownPlatformParsesIdentityOnly(t *testing.T) {
	s := New(Config{}, transport.Credentials{}, transport.DefaultPreferences(),
		filter.New(filter.Config{}), openTestStore(t), nil, platform.NewDetector(), facts.New(0),
		seed.FromDevices(filepath.Join(t.TempDir(), "seeds.csv"), nil), progress.NewLogSink(progress.NewSummary()), nil)

	banner := "Some Proprietary Router OS\nEDGE-1#"
	tag := s.detector.Detect(banner)
	if tag != platform.TagUnknown {
		t.Fatalf("expected TagUnknown, got %v", tag)
	}

	f := s.collectFacts(&fakeSession{}, tag, banner)
	if !f.Succeeded() {
		t.Fatalf("expected identity-only success, failures=%v", f.FactFailures)
	}
	if f.Identity.Name != "EDGE-1" {
		t.Errorf("Identity.Name = %q, want EDGE-1", f.Identity.Name)
	}
	if f.Version != "" || len(f.Interfaces) != 0 {
		t.Errorf("expected no facts beyond identity for an unknown platform, got %+v", f)
	}
}

func TestEnqueueNeighborsRespectsMaxDepthAndFilter(t *testing.T) {
	f := filter.New(filter.Config{ExcludeHostnames: []string{"BLOCKED-*"}})
	s := New(Config{MaxDepth: 2}, transport.Credentials{}, transport.DefaultPreferences(),
		f, openTestStore(t), nil, platform.NewDetector(), facts.New(0),
		seed.FromDevices(filepath.Join(t.TempDir(), "seeds.csv"), nil), progress.NewLogSink(progress.NewSummary()), nil)

	deviceFacts := &model.DeviceFacts{
		Neighbors: []model.NeighborSighting{
			{RemoteName: "NEIGHBOR-A", RemoteIPAddress: "10.0.0.2"},
			{RemoteName: "BLOCKED-B", RemoteIPAddress: "10.0.0.3"},
		},
	}
	s.enqueueNeighbors(model.FrontierEntry{Host: "CORE-A", Depth: 1}, deviceFacts)

	entry, ok := s.frontier.Dequeue()
	if !ok {
		t.Fatal("expected one neighbor to be enqueued")
	}
	if entry.Host != "NEIGHBOR-A" || entry.Depth != 2 {
		t.Errorf("entry = %+v, want NEIGHBOR-A at depth 2", entry)
	}
	s.frontier.Done()

	if s.frontier.Cancelled() {
		t.Fatal("unexpected cancellation")
	}
	// A depth-limited drain: no further entries should be queued since
	// BLOCKED-B was filtered and nothing else was pushed.
	done := make(chan bool, 1)
	go func() {
		_, ok := s.frontier.Dequeue()
		done <- ok
	}()
	select {
	case ok := <-done:
		if ok {
			t.Error("expected no further entries after the filtered neighbor")
		}
	case <-time.After(time.Second):
		t.Fatal("Dequeue never drained")
	}
}

func TestRunDrainsSeedsWithNoMatchingDevices(t *testing.T) {
	seeds := seed.FromDevices(filepath.Join(t.TempDir(), "seeds.csv"), []model.Device{{Name: "UNREACHABLE-1"}})
	store := openTestStore(t)

	s := New(Config{MaxDepth: 1, Workers: 2, PerDeviceTimeout: time.Second},
		transport.Credentials{}, transport.Preferences{SSHPort: 1, TelnetPort: 1, DialTimeout: 10 * time.Millisecond, CommandTimeout: 10 * time.Millisecond},
		filter.New(filter.Config{}), store, inventory.NewCache(store, "", 0),
		platform.NewDetector(), facts.New(0), seeds, progress.NewLogSink(progress.NewSummary()), nil)

	cancelled, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if cancelled {
		t.Error("expected a natural drain, not a cancellation")
	}

	rows := seeds.Rows()
	if len(rows) != 1 || rows[0].Status != seed.StatusError {
		t.Errorf("rows = %+v, want one error row (no primary IP known for a never-crawled device)", rows)
	}
}
