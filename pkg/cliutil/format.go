// Package cliutil provides shared formatting helpers for the netwalker CLI:
// ANSI colors, a word-wrapping table renderer, and the crawl exit-summary
// layout every subcommand prints on completion.
package cliutil

import (
	"fmt"
	"sort"
	"strings"
)

// ANSI color helpers

func Green(s string) string  { return "\033[32m" + s + "\033[0m" }
func Yellow(s string) string { return "\033[33m" + s + "\033[0m" }
func Red(s string) string    { return "\033[31m" + s + "\033[0m" }
func Bold(s string) string   { return "\033[1m" + s + "\033[0m" }
func Dim(s string) string    { return "\033[2m" + s + "\033[0m" }

// DotPad pads name with dots to the given width.
// Example: DotPad("boot-ssh", 30) → "boot-ssh ....................."
func DotPad(name string, width int) string {
	if width <= 0 || len(name) >= width-1 {
		return name
	}
	dots := width - len(name) - 1
	return name + " " + strings.Repeat(".", dots)
}

// CrawlSummary is the subset of progress.Summary's fields this package
// renders, kept here rather than importing pkg/progress so cliutil stays a
// leaf dependency with nothing crawl-specific to import back.
type CrawlSummary struct {
	Attempted  int
	Completed  int
	Skipped    int
	FailedKind map[string]int
}

// RenderSummary prints the exit-time crawl summary spec §7 requires: total
// attempted, and a completed/skipped/failed breakdown, failures further
// broken out by kind in deterministic (sorted) order so output is diffable
// across runs.
func RenderSummary(s CrawlSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d\n", DotPad("attempted", 20), s.Attempted)
	fmt.Fprintf(&b, "%s %s\n", DotPad("completed", 20), Green(fmt.Sprintf("%d", s.Completed)))
	fmt.Fprintf(&b, "%s %s\n", DotPad("skipped", 20), Yellow(fmt.Sprintf("%d", s.Skipped)))

	failed := 0
	for _, n := range s.FailedKind {
		failed += n
	}
	fmt.Fprintf(&b, "%s %s\n", DotPad("failed", 20), Red(fmt.Sprintf("%d", failed)))

	kinds := make([]string, 0, len(s.FailedKind))
	for kind := range s.FailedKind {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Fprintf(&b, "  %s %d\n", DotPad(kind, 18), s.FailedKind[kind])
	}
	return b.String()
}
