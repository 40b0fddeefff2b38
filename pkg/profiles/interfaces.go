package profiles

import (
	"sort"
	"strings"
)

// shortToLong maps a lowercase short-form interface prefix to its canonical
// long form. This is the same longest-prefix-match technique the teacher
// uses for its long-to-short ShortenInterfaceName, run in the opposite
// direction: NetWalker stores interface names in long form for
// cross-vendor consistency in the inventory, rather than shortening them
// for CLI entry.
var shortToLong = map[string]string{
	"gi":   "GigabitEthernet",
	"te":   "TenGigabitEthernet",
	"fa":   "FastEthernet",
	"fo":   "FortyGigE",
	"hu":   "HundredGigE",
	"po":   "Port-channel",
	"lo":   "Loopback",
	"vl":   "Vlan",
	"mgmt": "Management",
	"eth":  "Ethernet",
}

// longForms is the set of already-canonical prefixes; a name that already
// starts with one of these is passed through unchanged, which is what makes
// CanonicalizeInterfaceName idempotent.
var longForms = []string{
	"GigabitEthernet",
	"TenGigabitEthernet",
	"FastEthernet",
	"FortyGigE",
	"HundredGigE",
	"Port-channel",
	"Loopback",
	"Vlan",
	"Management",
	"Ethernet",
}

var shortToLongSorted []string

func init() {
	shortToLongSorted = make([]string, 0, len(shortToLong))
	for k := range shortToLong {
		shortToLongSorted = append(shortToLongSorted, k)
	}
	sort.Slice(shortToLongSorted, func(i, j int) bool {
		return len(shortToLongSorted[i]) > len(shortToLongSorted[j])
	})
}

// CanonicalizeInterfaceName normalizes an interface name to long form, e.g.
// "Gi1/0/1" -> "GigabitEthernet1/0/1", "Te1/0/1" -> "TenGigabitEthernet1/0/1",
// "Po1" -> "Port-channel1", "mgmt0" -> "Management0". A name already in
// long form, such as NX-OS's "Ethernet1/1", passes through unchanged, which
// makes the function idempotent:
// CanonicalizeInterfaceName(CanonicalizeInterfaceName(x)) == CanonicalizeInterfaceName(x).
func CanonicalizeInterfaceName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}

	for _, long := range longForms {
		if strings.HasPrefix(name, long) {
			return name
		}
	}

	lower := strings.ToLower(name)
	for _, abbr := range shortToLongSorted {
		if strings.HasPrefix(lower, abbr) && len(name) > len(abbr) {
			suffix := name[len(abbr):]
			if len(suffix) > 0 && (suffix[0] >= '0' && suffix[0] <= '9') {
				return shortToLong[abbr] + suffix
			}
		}
	}

	return name
}
