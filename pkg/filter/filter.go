// Package filter implements the Device Filter (C2): the decision of
// whether a discovered identity is in scope for crawling.
package filter

import (
	"path/filepath"

	"github.com/marktegna/netwalker/pkg/model"
	"github.com/marktegna/netwalker/pkg/util"
)

// Config enumerates the filter's configuration, matching the
// [filtering]/[exclusions] sections of the INI config file.
type Config struct {
	IncludeWildcards    []string
	ExcludeWildcards    []string
	IncludeCIDRs        []string
	ExcludeCIDRs        []string
	ExcludeHostnames    []string
	ExcludeIPRanges     []string
	ExcludePlatforms    []string
	ExcludeCapabilities []model.Capability
}

// Candidate is the subject of a filtering decision.
type Candidate struct {
	Name         string
	IP           string
	Platform     string
	Capabilities []model.Capability
}

// Filter evaluates candidates against a Config.
type Filter struct {
	cfg Config
}

// New returns a Filter for cfg.
func New(cfg Config) *Filter {
	return &Filter{cfg: cfg}
}

// Allow runs the decision procedure from spec §4.2 in its fixed order and
// reports whether c is in scope.
func (f *Filter) Allow(c Candidate) bool {
	if matchesAny(f.cfg.ExcludeHostnames, c.Name) {
		return false
	}
	if c.IP != "" {
		if inAnyCIDROrRange(c.IP, f.cfg.ExcludeCIDRs) || inAnyCIDROrRange(c.IP, f.cfg.ExcludeIPRanges) {
			return false
		}
	}
	if containsString(f.cfg.ExcludePlatforms, c.Platform) {
		return false
	}
	if anyCapabilityIn(c.Capabilities, f.cfg.ExcludeCapabilities) {
		return false
	}
	if len(f.cfg.IncludeCIDRs) > 0 {
		if c.IP == "" || !inAnyCIDROrRange(c.IP, f.cfg.IncludeCIDRs) {
			return false
		}
	}
	if len(f.cfg.IncludeWildcards) > 0 && !matchesAny(f.cfg.IncludeWildcards, c.Name) {
		return false
	}
	return true
}

// matchesAny reports whether name matches any of the shell-glob patterns.
// A blank pattern list is treated as "matches nothing" — callers decide
// whether that means accept-all or exclude-none per spec §4.2.
func matchesAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := filepath.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func anyCapabilityIn(caps, excluded []model.Capability) bool {
	for _, c := range caps {
		for _, e := range excluded {
			if c == e {
				return true
			}
		}
	}
	return false
}

func inAnyCIDROrRange(ip string, cidrs []string) bool {
	for _, cidr := range cidrs {
		if util.IPInRange(ip, cidr) {
			return true
		}
	}
	return false
}
