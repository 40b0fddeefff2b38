// Package audit provides structured logging of crawl activity: one event
// per device visit, recording what was attempted, what failed, and why.
package audit

import (
	"fmt"
	"time"
)

// Event represents one auditable crawl event against a single device.
type Event struct {
	ID           string            `json:"id"`
	Timestamp    time.Time         `json:"timestamp"`
	Device       string            `json:"device"`
	Address      string            `json:"address,omitempty"`
	Operation    string            `json:"operation"`
	Depth        int               `json:"depth"`
	FactFailures map[string]string `json:"fact_failures,omitempty"`
	Success      bool              `json:"success"`
	ErrorKind    string            `json:"error_kind,omitempty"`
	Error        string            `json:"error,omitempty"`
	Duration     time.Duration     `json:"duration"`
}

// EventType categorizes audit events.
type EventType string

const (
	EventTypeConnect  EventType = "connect"
	EventTypeIdentify EventType = "identify"
	EventTypeCollect  EventType = "collect_facts"
	EventTypePersist  EventType = "persist"
	EventTypeSkip     EventType = "skip"
)

// Severity indicates the importance of an audit event.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Filter defines criteria for querying audit events.
type Filter struct {
	Device      string
	Operation   string
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// NewEvent creates a new audit event for a device visit.
func NewEvent(device, operation string) *Event {
	return &Event{
		ID:        generateID(),
		Timestamp: time.Now(),
		Device:    device,
		Operation: operation,
	}
}

// WithAddress records the address the device was reached at.
func (e *Event) WithAddress(address string) *Event {
	e.Address = address
	return e
}

// WithDepth records the crawl depth at which the device was visited.
func (e *Event) WithDepth(depth int) *Event {
	e.Depth = depth
	return e
}

// WithFactFailures records per-fact-kind collection errors that were
// tolerated rather than aborting the visit.
func (e *Event) WithFactFailures(failures map[string]string) *Event {
	e.FactFailures = failures
	return e
}

// WithSuccess marks the event as successful.
func (e *Event) WithSuccess() *Event {
	e.Success = true
	return e
}

// WithError marks the event as failed, recording the error and, if it
// carries one, the error taxonomy kind used to bucket crawl summaries.
func (e *Event) WithError(kind string, err error) *Event {
	e.Success = false
	e.ErrorKind = kind
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithDuration sets the operation duration.
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

func generateID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
