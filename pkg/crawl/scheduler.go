// Package crawl implements the Crawl Scheduler (C8): the frontier queue,
// visited set and worker pool that drive a breadth-first walk of the
// network from a set of seed devices down to a bounded depth, per spec
// §4.8. It is the one package that wires every other component together —
// filter, transport, platform detection, fact collection and inventory
// persistence — into the per-device worker loop.
package crawl

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/marktegna/netwalker/pkg/audit"
	"github.com/marktegna/netwalker/pkg/facts"
	"github.com/marktegna/netwalker/pkg/filter"
	"github.com/marktegna/netwalker/pkg/inventory"
	"github.com/marktegna/netwalker/pkg/model"
	"github.com/marktegna/netwalker/pkg/platform"
	"github.com/marktegna/netwalker/pkg/profiles"
	"github.com/marktegna/netwalker/pkg/progress"
	"github.com/marktegna/netwalker/pkg/seed"
	"github.com/marktegna/netwalker/pkg/transport"
	"github.com/marktegna/netwalker/pkg/util"
)

// Config controls the worker pool shape and the two deadlines spec §4.8
// documents: a per-device budget covering connect plus every command, and
// a global deadline covering the whole crawl.
type Config struct {
	MaxDepth         int
	Workers          int
	PerDeviceTimeout time.Duration
	CrawlDeadline    time.Duration
}

// Scheduler is the Crawl Scheduler (C8). It owns the frontier, visited set
// and in-flight bookkeeping; every other component is a dependency it
// drives rather than a thing it implements itself.
type Scheduler struct {
	cfg    Config
	creds  transport.Credentials
	prefs  transport.Preferences
	filter *filter.Filter
	store  *inventory.Store
	cache  *inventory.Cache

	detector  *platform.Detector
	collector *facts.Collector
	seeds     *seed.File
	sink      progress.Sink
	audit     *audit.FileLogger

	frontier *frontier
	visited  *visitedSet
}

// New returns a Scheduler ready to Run over seeds. audit may be nil, in
// which case only sink receives events (the durable JSON-lines trail is
// optional; the live summary and CLI exit code never depend on it).
func New(cfg Config, creds transport.Credentials, prefs transport.Preferences, f *filter.Filter, store *inventory.Store, cache *inventory.Cache, detector *platform.Detector, collector *facts.Collector, seeds *seed.File, sink progress.Sink, auditLog *audit.FileLogger) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = 5
	}
	if cfg.MaxDepth < 0 {
		cfg.MaxDepth = 0
	}
	return &Scheduler{
		cfg:       cfg,
		creds:     creds,
		prefs:     prefs,
		filter:    f,
		store:     store,
		cache:     cache,
		detector:  detector,
		collector: collector,
		seeds:     seeds,
		sink:      sink,
		audit:     auditLog,
		frontier:  newFrontier(),
		visited:   newVisitedSet(),
	}
}

// Run enqueues every pending seed row at depth 0 and drives the worker
// pool to completion. It returns cancelled == true if SIGINT/SIGTERM or
// the crawl deadline interrupted the run before the frontier drained
// naturally — the CLI maps that to exit code 130.
func (s *Scheduler) Run(ctx context.Context) (cancelled bool, err error) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if s.cfg.CrawlDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CrawlDeadline)
		defer cancel()
	}

	for _, row := range s.seeds.Pending() {
		s.frontier.Push(model.FrontierEntry{Host: row.Hostname, IP: row.IPAddress, Depth: 0})
	}

	watchDone := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			s.frontier.Cancel()
		case <-ctx.Done():
			s.frontier.Cancel()
		case <-watchDone:
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.workerLoop(id)
		}(i)
	}
	wg.Wait()
	close(watchDone)

	return s.frontier.Cancelled(), nil
}

func (s *Scheduler) workerLoop(workerID int) {
	for {
		entry, ok := s.frontier.Dequeue()
		if !ok {
			return
		}
		s.visitOne(workerID, entry)
		s.frontier.Done()
	}
}

// visitOne runs the 8-step worker loop from spec §4.8 against one
// FrontierEntry. Every exit path marks the seed CSV row and reports a
// progress event — a device is never left in a state the next resumed
// run would silently re-skip or endlessly re-attempt.
func (s *Scheduler) visitOne(workerID int, entry model.FrontierEntry) {
	start := time.Now()
	log := util.WithCrawlContext(entry.Host, entry.Depth, workerID)

	key := model.VisitKey(entry.Host, "", entry.IP)
	if !s.visited.TryVisit(key) {
		s.report(audit.NewEvent(entry.Host, string(audit.EventTypeSkip)).WithDepth(entry.Depth).WithError("duplicate", nil).WithDuration(time.Since(start)))
		_ = s.seeds.MarkDoneAndSave(entry.Host)
		return
	}

	address := entry.IP
	if address == "" {
		ip, err := s.resolveAddress(entry.Host)
		if err != nil || ip == "" {
			log.Warn("no reachability address known for device")
			s.report(audit.NewEvent(entry.Host, "resolve_address").WithDepth(entry.Depth).WithError("no_ip", err).WithDuration(time.Since(start)))
			_ = s.seeds.MarkErrorAndSave(entry.Host, "no_ip")
			return
		}
		address = ip
	}

	if !s.filter.Allow(filter.Candidate{Name: entry.Host, IP: address}) {
		s.report(audit.NewEvent(entry.Host, "filter").WithAddress(address).WithDepth(entry.Depth).WithError("filtered", nil).WithDuration(time.Since(start)))
		_ = s.seeds.MarkDoneAndSave(entry.Host)
		return
	}

	deadline := s.cfg.PerDeviceTimeout
	if deadline <= 0 {
		deadline = s.prefs.DialTimeout + 5*s.prefs.CommandTimeout
	}
	visitDeadline := time.Now().Add(deadline)

	sess, err := transport.Open(address, s.creds, s.prefs)
	if err != nil {
		kind := util.ErrorKind(err)
		log.WithField("error", err).Warn("could not open session")
		s.report(audit.NewEvent(entry.Host, string(audit.EventTypeConnect)).WithAddress(address).WithDepth(entry.Depth).WithError(kind, err).WithDuration(time.Since(start)))
		_ = s.seeds.MarkErrorAndSave(entry.Host, kind)
		return
	}
	defer sess.Close()

	if time.Now().After(visitDeadline) {
		s.report(audit.NewEvent(entry.Host, string(audit.EventTypeIdentify)).WithAddress(address).WithDepth(entry.Depth).WithError("timeout", nil).WithDuration(time.Since(start)))
		_ = s.seeds.MarkErrorAndSave(entry.Host, "timeout")
		return
	}

	banner, err := sess.Send("show version", s.collector.CommandTimeout)
	if err != nil {
		kind := util.ErrorKind(err)
		s.report(audit.NewEvent(entry.Host, string(audit.EventTypeIdentify)).WithAddress(address).WithDepth(entry.Depth).WithError(kind, err).WithDuration(time.Since(start)))
		_ = s.seeds.MarkErrorAndSave(entry.Host, kind)
		return
	}

	tag := s.detector.Detect(banner)
	deviceFacts := s.collectFacts(sess, tag, banner)

	if !deviceFacts.Succeeded() {
		kind := util.ErrorKind(deviceFacts.FactFailures[model.FactKindIdentity])
		if kind == "" {
			kind = "parse"
		}
		s.report(audit.NewEvent(entry.Host, string(audit.EventTypeCollect)).WithAddress(address).WithDepth(entry.Depth).WithError(kind, deviceFacts.FactFailures[model.FactKindIdentity]).WithDuration(time.Since(start)))
		_ = s.seeds.MarkErrorAndSave(entry.Host, kind)
		return
	}

	if err := s.persist(address, deviceFacts); err != nil {
		s.report(audit.NewEvent(entry.Host, string(audit.EventTypePersist)).WithAddress(address).WithDepth(entry.Depth).WithError("database", err).WithDuration(time.Since(start)))
		_ = s.seeds.MarkErrorAndSave(entry.Host, "database")
		return
	}

	s.enqueueNeighbors(entry, deviceFacts)

	s.report(audit.NewEvent(entry.Host, string(audit.EventTypeCollect)).
		WithAddress(address).
		WithDepth(entry.Depth).
		WithFactFailures(stringifyFailures(deviceFacts.FactFailures)).
		WithSuccess().
		WithDuration(time.Since(start)))
	_ = s.seeds.MarkDoneAndSave(entry.Host)
}

// collectFacts runs the Fact Collector against a recognized platform, or —
// for TagUnknown — parses identity directly from the banner already read
// for platform detection and stops there, per spec §4.4: an Unknown device
// is still recorded, but no command profile exists to collect anything
// beyond it.
func (s *Scheduler) collectFacts(sess transport.Session, tag platform.Tag, banner string) *model.DeviceFacts {
	profile, ok := profiles.ForPlatform(tag)
	if !ok {
		result := &model.DeviceFacts{FactFailures: make(map[model.FactKind]error)}
		identity, err := profiles.ParseIdentity(tag, banner)
		if err != nil {
			result.FactFailures[model.FactKindIdentity] = err
			return result
		}
		result.Identity = identity
		return result
	}
	return s.collector.Collect(sess, tag, profile)
}

func (s *Scheduler) resolveAddress(hostname string) (string, error) {
	if s.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.cache.GetPrimaryIP(ctx, hostname)
	}
	return s.store.GetPrimaryIP(hostname)
}

func (s *Scheduler) persist(address string, f *model.DeviceFacts) error {
	now := time.Now().UTC()
	f.Identity.LastSeen = now
	f.Identity.Status = model.StatusActive

	deviceID, err := s.store.UpsertDevice(f.Identity)
	if err != nil {
		return err
	}
	if f.Version != "" {
		if err := s.store.UpsertVersion(deviceID, f.Version); err != nil {
			return err
		}
	}
	if len(f.Interfaces) > 0 {
		if err := s.store.UpsertInterfaces(deviceID, f.Interfaces); err != nil {
			return err
		}
	}
	if err := s.store.UpsertInterface(deviceID, model.Interface{
		Name:      model.PrimaryManagementName,
		IPAddress: address,
		Type:      model.InterfaceTypeManagement,
	}); err != nil {
		return err
	}
	if len(f.VLANs) > 0 {
		if err := s.store.UpsertDeviceVLANs(deviceID, f.VLANs); err != nil {
			return err
		}
	}
	if len(f.StackMembers) > 0 {
		if err := s.store.UpsertStackMembers(deviceID, f.StackMembers); err != nil {
			return err
		}
	}
	if len(f.Neighbors) > 0 {
		if err := s.store.UpsertNeighbors(deviceID, f.Neighbors); err != nil {
			return err
		}
	}
	if s.cache != nil {
		s.cache.Invalidate(context.Background(), f.Identity.Name)
	}
	return nil
}

// enqueueNeighbors applies the Filter to every neighbor sighting and
// enqueues the survivors at depth+1, per spec §4.8 step 7. The seed file
// tracks every newly discovered hostname too, so a resumed run after an
// interruption still knows about devices discovered but not yet visited.
func (s *Scheduler) enqueueNeighbors(entry model.FrontierEntry, f *model.DeviceFacts) {
	if entry.Depth+1 > s.cfg.MaxDepth {
		return
	}
	for _, n := range f.Neighbors {
		if !s.filter.Allow(filter.Candidate{
			Name:         n.RemoteName,
			IP:           n.RemoteIPAddress,
			Platform:     n.RemotePlatform,
			Capabilities: n.Capabilities,
		}) {
			continue
		}
		if s.seeds.Add(n.RemoteName, n.RemoteIPAddress) {
			_ = s.seeds.Save()
		}
		s.frontier.Push(model.FrontierEntry{
			Host:   n.RemoteName,
			IP:     n.RemoteIPAddress,
			Depth:  entry.Depth + 1,
			Source: entry.Host,
		})
	}
}

func (s *Scheduler) report(event *audit.Event) {
	if s.sink != nil {
		s.sink.Report(event)
	}
	if s.audit != nil {
		_ = s.audit.Log(event)
	}
}

func stringifyFailures(failures map[model.FactKind]error) map[string]string {
	if len(failures) == 0 {
		return nil
	}
	out := make(map[string]string, len(failures))
	for kind, err := range failures {
		out[string(kind)] = err.Error()
	}
	return out
}
