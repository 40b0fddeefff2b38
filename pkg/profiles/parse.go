package profiles

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/marktegna/netwalker/pkg/model"
	"github.com/marktegna/netwalker/pkg/platform"
	"github.com/marktegna/netwalker/pkg/util"
)

var (
	promptTailRE   = regexp.MustCompile(`(\S+)[>#]\s*$`)
	serialMarkerRE = regexp.MustCompile(`(?i)(?:processor board id|system serial number)\s*:?\s*(\S+)`)
	modelMarkerRE  = regexp.MustCompile(`(?i)cisco\s+(\S+)\s*\(`)
	versionRE      = regexp.MustCompile(`(?i),\s*Version\s+([\w().]+)`)

	junosVersionRE = regexp.MustCompile(`(?i)JUNOS\s+([\w.\-]+)`)
	panosVersionRE = regexp.MustCompile(`(?i)sw-version:\s*([\w.\-]+)`)

	stackSerialPrimaryRE   = regexp.MustCompile(`[A-Z]{3}\d{6}[A-Z]{2}`)
	stackSerialFallbackRE  = regexp.MustCompile(`[A-Z]{3}\d{9}`)
	stackModuleRowRE       = regexp.MustCompile(`^\s*(\d+)\s+(\d+)\s+(\S.*)$`)
	macSectionHeaderRE     = regexp.MustCompile(`(?i)mac address`)
	vlanBriefRowRE         = regexp.MustCompile(`^(\d+)\s+(\S+)\s+\S+\s*(.*)$`)
	interfaceHeaderRE      = regexp.MustCompile(`^(\S+) is (up|down|administratively down)`)
	interfaceAddressRE     = regexp.MustCompile(`(?i)Internet address is ([\d.]+)/(\d+)`)
	blockSeparatorRE       = regexp.MustCompile(`^-{5,}\s*$`)
)

// ParseIdentity extracts hostname, serial and hardware model from the
// output of the platform's "show version" (or equivalent) command. The
// hostname comes from the trailing device prompt the session's read loop
// captured along with the command output, not from the banner text itself.
func ParseIdentity(tag platform.Tag, output string) (*model.Device, error) {
	d := &model.Device{
		Platform:     string(tag),
		SerialNumber: model.UnknownSerial,
	}

	if m := promptTailRE.FindStringSubmatch(strings.TrimRight(output, "\r\n ")); m != nil {
		d.Name = strings.TrimRight(m[1], "#>")
	}
	if d.Name == "" {
		return nil, util.NewParseError("", "show version", "could not determine hostname from prompt")
	}

	if m := serialMarkerRE.FindStringSubmatch(output); m != nil {
		d.SerialNumber = m[1]
	}
	if m := modelMarkerRE.FindStringSubmatch(output); m != nil {
		d.HardwareModel = m[1]
	}

	return d, nil
}

// ParseVersion extracts the software version string from show-version-style
// output, dispatching on platform since JunOS and PAN-OS use a different
// banner grammar than the Cisco family.
func ParseVersion(tag platform.Tag, output string) (string, error) {
	var re *regexp.Regexp
	switch tag {
	case platform.TagJunOS:
		re = junosVersionRE
	case platform.TagPANOS:
		re = panosVersionRE
	default:
		re = versionRE
	}
	if m := re.FindStringSubmatch(output); m != nil {
		return m[1], nil
	}
	return "", util.NewParseError("", "show version", "no version string found")
}

// ParseInterfaces parses the output of "show ip interface" into Interface
// rows. Interfaces with no configured address are skipped — NetWalker only
// stores addressed interfaces, per the Interface key (device, name, ip).
func ParseInterfaces(output string) ([]model.Interface, error) {
	var result []model.Interface
	lines := strings.Split(output, "\n")

	var current string
	for i := 0; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\r")
		if m := interfaceHeaderRE.FindStringSubmatch(line); m != nil {
			current = CanonicalizeInterfaceName(m[1])
			continue
		}
		if current == "" {
			continue
		}
		if m := interfaceAddressRE.FindStringSubmatch(line); m != nil {
			result = append(result, model.Interface{
				Name:      current,
				IPAddress: m[1],
				Mask:      m[2],
				Type:      classifyInterfaceType(current),
			})
			current = ""
		}
	}
	return result, nil
}

func classifyInterfaceType(name string) model.InterfaceType {
	switch {
	case strings.HasPrefix(name, "Management"):
		return model.InterfaceTypeManagement
	case strings.HasPrefix(name, "Loopback"):
		return model.InterfaceTypeLoopback
	case strings.HasPrefix(name, "Vlan"):
		return model.InterfaceTypeVLAN
	default:
		return model.InterfaceTypePhysical
	}
}

// ParseVLANs parses the output of "show vlan brief" into per-device VLAN
// facts (number, name, port count).
func ParseVLANs(output string) ([]model.DeviceVLANFact, error) {
	var result []model.DeviceVLANFact
	for _, line := range strings.Split(output, "\n") {
		m := vlanBriefRowRE.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		number, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		ports := strings.TrimSpace(m[3])
		portCount := 0
		if ports != "" {
			portCount = len(strings.Split(ports, ","))
		}
		result = append(result, model.DeviceVLANFact{
			Number:    number,
			Name:      m[2],
			PortCount: portCount,
		})
	}
	return result, nil
}

// ParseStackMembers parses "show module" per the VSS/stack rule in spec
// §4.5: the output is only trusted when at least two switch rows are
// present in the first data section, before the MAC-address table: a
// single-row table describes a standalone chassis, not a stack, and is
// discarded rather than recorded as a one-member "stack".
func ParseStackMembers(output string) ([]model.StackMember, error) {
	lines := strings.Split(output, "\n")

	var rows []string
	for _, line := range lines {
		if macSectionHeaderRE.MatchString(line) {
			break
		}
		if stackModuleRowRE.MatchString(strings.TrimRight(line, "\r")) {
			rows = append(rows, line)
		}
	}
	if len(rows) < 2 {
		return nil, nil
	}

	var members []model.StackMember
	for _, row := range rows {
		m := stackModuleRowRE.FindStringSubmatch(strings.TrimRight(row, "\r"))
		if m == nil {
			continue
		}
		switchNum, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		rest := m[3]
		serial := ""
		if sm := stackSerialPrimaryRE.FindString(rest); sm != "" {
			serial = sm
		} else if sm := stackSerialFallbackRE.FindString(rest); sm != "" {
			serial = sm
		}
		members = append(members, model.StackMember{
			SwitchNumber: switchNum,
			SerialNumber: serial,
			Role:         model.StackRoleMember,
		})
	}
	return members, nil
}

// ParseCDPNeighbors parses "show cdp neighbors detail" output, one block
// per neighbor separated by a dashed rule line.
func ParseCDPNeighbors(output string) ([]model.NeighborSighting, error) {
	return parseNeighborBlocks(output, model.DiscoveryProtocolCDP,
		regexp.MustCompile(`(?i)Device ID:\s*(\S+)`),
		regexp.MustCompile(`(?i)Interface:\s*(\S+),\s*Port ID \(outgoing port\):\s*(\S+)`),
		regexp.MustCompile(`(?i)IP address:\s*([\d.]+)`),
		regexp.MustCompile(`(?i)Platform:\s*([^,]+),`),
	)
}

// ParseLLDPNeighbors parses "show lldp neighbors detail" output, one block
// per neighbor separated by a dashed rule line.
func ParseLLDPNeighbors(output string) ([]model.NeighborSighting, error) {
	return parseNeighborBlocks(output, model.DiscoveryProtocolLLDP,
		regexp.MustCompile(`(?i)System Name:\s*(\S+)`),
		regexp.MustCompile(`(?i)Local Intf:\s*(\S+)[\s\S]*?Port id:\s*(\S+)`),
		regexp.MustCompile(`(?i)Management Address:\s*([\d.]+)`),
		regexp.MustCompile(`(?i)System Description:\s*([^\n\r]+)`),
	)
}

func parseNeighborBlocks(output string, proto model.DiscoveryProtocol, nameRE, ifacesRE, ipRE, platformRE *regexp.Regexp) ([]model.NeighborSighting, error) {
	var blocks []string
	var cur strings.Builder
	for _, line := range strings.Split(output, "\n") {
		if blockSeparatorRE.MatchString(strings.TrimRight(line, "\r")) {
			if cur.Len() > 0 {
				blocks = append(blocks, cur.String())
				cur.Reset()
			}
			continue
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
	}
	if cur.Len() > 0 {
		blocks = append(blocks, cur.String())
	}

	var result []model.NeighborSighting
	for _, block := range blocks {
		nameM := nameRE.FindStringSubmatch(block)
		ifaceM := ifacesRE.FindStringSubmatch(block)
		if nameM == nil || ifaceM == nil {
			continue // not a neighbor block, e.g. a leading summary line
		}
		sighting := model.NeighborSighting{
			LocalInterface:  CanonicalizeInterfaceName(ifaceM[1]),
			RemoteName:      nameM[1],
			RemoteInterface: CanonicalizeInterfaceName(ifaceM[2]),
			Protocol:        proto,
		}
		if ipM := ipRE.FindStringSubmatch(block); ipM != nil {
			sighting.RemoteIPAddress = ipM[1]
		}
		if platformM := platformRE.FindStringSubmatch(block); platformM != nil {
			sighting.RemotePlatform = strings.TrimSpace(platformM[1])
		}
		result = append(result, sighting)
	}
	return result, nil
}
