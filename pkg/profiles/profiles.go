// Package profiles implements the Command Profiles (C5): the
// platform x fact-kind matrix mapping each cell to a command string, a
// parser, and an expected-success predicate.
package profiles

import (
	"strings"

	"github.com/marktegna/netwalker/pkg/model"
	"github.com/marktegna/netwalker/pkg/platform"
)

// Command is one cell of the matrix: what to send, and how to recognize a
// reply that at least looks like it answered the question (as opposed to
// "% Invalid input" or similar). Parsing itself is handled by the
// fact-kind-specific Parse* functions in parse.go, which are shared across
// every platform whose CLI syntax they understand.
type Command struct {
	Text          string
	ExpectSuccess func(output string) bool
}

// Profile is the full set of commands defined for one platform. A missing
// entry for a fact-kind means that fact is not collected for this platform
// — not a failure, simply out of scope for it.
type Profile struct {
	Platform   platform.Tag
	ByFactKind map[model.FactKind]Command
}

func successIfNoInvalidInput(output string) bool {
	return !strings.Contains(output, "% Invalid input") && !strings.Contains(output, "Unrecognized command")
}

// ciscoFamilyProfile is shared by every platform whose CLI is Cisco-style
// exec-mode show commands: IOS, IOS-XE, IOS-XR, NX-OS, EOS and ASA. Minor
// per-platform output differences are absorbed by the tolerant parsers in
// parse.go rather than by separate command tables.
func ciscoFamilyProfile(tag platform.Tag) Profile {
	return Profile{
		Platform: tag,
		ByFactKind: map[model.FactKind]Command{
			model.FactKindIdentity:      {Text: "show version", ExpectSuccess: successIfNoInvalidInput},
			model.FactKindVersion:       {Text: "show version", ExpectSuccess: successIfNoInvalidInput},
			model.FactKindInterfaces:    {Text: "show ip interface", ExpectSuccess: successIfNoInvalidInput},
			model.FactKindVLANs:         {Text: "show vlan brief", ExpectSuccess: successIfNoInvalidInput},
			model.FactKindStackMembers:  {Text: "show module", ExpectSuccess: successIfNoInvalidInput},
			model.FactKindCDPNeighbors:  {Text: "show cdp neighbors detail", ExpectSuccess: successIfNoInvalidInput},
			model.FactKindLLDPNeighbors: {Text: "show lldp neighbors detail", ExpectSuccess: successIfNoInvalidInput},
		},
	}
}

// limitedProfile is used for platforms whose CLI is not Cisco-style
// (JunOS, PAN-OS): NetWalker still records identity and version for them,
// but none of the richer fact-kinds, since their commands and output
// grammar are different enough that a shared parser would be unreliable.
func limitedProfile(tag platform.Tag, versionCommand string) Profile {
	return Profile{
		Platform: tag,
		ByFactKind: map[model.FactKind]Command{
			model.FactKindIdentity: {Text: versionCommand, ExpectSuccess: successIfNoInvalidInput},
			model.FactKindVersion:  {Text: versionCommand, ExpectSuccess: successIfNoInvalidInput},
		},
	}
}

// registry maps each closed-set platform tag to its Profile. TagUnknown has
// no entry: an Unknown device is recorded from the banner alone, with no
// further command-profile-driven facts, per spec §4.4.
var registry = map[platform.Tag]Profile{
	platform.TagIOS:   ciscoFamilyProfile(platform.TagIOS),
	platform.TagIOSXE: ciscoFamilyProfile(platform.TagIOSXE),
	platform.TagIOSXR: ciscoFamilyProfile(platform.TagIOSXR),
	platform.TagNXOS:  ciscoFamilyProfile(platform.TagNXOS),
	platform.TagEOS:   ciscoFamilyProfile(platform.TagEOS),
	platform.TagASA:   ciscoFamilyProfile(platform.TagASA),
	platform.TagJunOS: limitedProfile(platform.TagJunOS, "show version"),
	platform.TagPANOS: limitedProfile(platform.TagPANOS, "show system info"),
}

// ForPlatform returns the command profile for tag and whether one exists.
func ForPlatform(tag platform.Tag) (Profile, bool) {
	p, ok := registry[tag]
	return p, ok
}
