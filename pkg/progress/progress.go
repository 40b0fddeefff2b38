// Package progress reports crawl activity as it happens and accumulates
// the end-of-run summary (attempted/completed/skipped/failed counts,
// grouped by error kind) that every invocation prints on exit. It is the
// live counterpart to pkg/audit's durable event log — both are fed from
// the same per-device Event, one for an operator watching the crawl run,
// one for after-the-fact querying.
package progress

import (
	"fmt"
	"sync"

	"github.com/marktegna/netwalker/pkg/audit"
	"github.com/marktegna/netwalker/pkg/util"
)

// Sink receives one Event per terminal device-visit outcome.
type Sink interface {
	Report(event *audit.Event)
	Close() error
}

// Summary accumulates the per-crawl totals required by spec §7's
// "exits with a summary ... grouped by error kind" requirement.
type Summary struct {
	mu         sync.Mutex
	Attempted  int
	Completed  int
	Skipped    int
	FailedKind map[string]int
}

// NewSummary returns an empty Summary.
func NewSummary() *Summary {
	return &Summary{FailedKind: make(map[string]int)}
}

// Record folds one terminal event into the running totals.
func (s *Summary) Record(event *audit.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Attempted++
	switch {
	case event.Success:
		s.Completed++
	case event.ErrorKind == "duplicate":
		s.Skipped++
	default:
		kind := event.ErrorKind
		if kind == "" {
			kind = "unknown"
		}
		s.FailedKind[kind]++
	}
}

// String renders the summary the way the CLI prints it on exit.
func (s *Summary) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	failed := 0
	for _, n := range s.FailedKind {
		failed += n
	}
	out := fmt.Sprintf("attempted=%d completed=%d skipped=%d failed=%d", s.Attempted, s.Completed, s.Skipped, failed)
	for kind, n := range s.FailedKind {
		out += fmt.Sprintf(" %s=%d", kind, n)
	}
	return out
}

// LogSink reports every event through the ambient logrus logger and folds
// it into a Summary — this is the default, always-available sink.
type LogSink struct {
	summary *Summary
}

// NewLogSink returns a Sink that logs each event and accumulates summary.
func NewLogSink(summary *Summary) *LogSink {
	return &LogSink{summary: summary}
}

func (s *LogSink) Report(event *audit.Event) {
	s.summary.Record(event)
	entry := util.WithFields(map[string]interface{}{
		"device":    event.Device,
		"operation": event.Operation,
		"depth":     event.Depth,
		"success":   event.Success,
	})
	if event.Success {
		entry.Debug("device visit completed")
		return
	}
	entry = entry.WithField("error_kind", event.ErrorKind)
	if event.Error != "" {
		entry = entry.WithField("error", event.Error)
	}
	entry.Warn("device visit failed")
}

func (s *LogSink) Close() error { return nil }

// NewSink returns the Sink named by kind ("log" or "redis"), always
// wrapping a LogSink-style accumulation of summary so db-status-style
// totals are available regardless of which live sink was selected. An
// unrecognized kind falls back to "log".
func NewSink(kind, redisAddr string, summary *Summary) Sink {
	switch kind {
	case "redis":
		if sink, err := NewRedisSink(redisAddr, summary); err == nil {
			return sink
		}
	}
	return NewLogSink(summary)
}
