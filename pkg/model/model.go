// Package model defines the shared domain entities crawled and persisted
// by NetWalker: devices and the facts collected about them, plus the
// crawl-local bookkeeping types the scheduler keeps in memory.
package model

import "time"

// Status is the lifecycle state of a Device row.
type Status string

const (
	StatusActive Status = "active"
	StatusPurge  Status = "purge"
)

// UnknownSerial is the sentinel serial number given to a Device row
// materialized only from a neighbor sighting, before it has itself been
// crawled.
const UnknownSerial = "unknown"

// Capability is a coarse role tag advertised by a device over CDP/LLDP.
type Capability string

const (
	CapabilityRouter      Capability = "Router"
	CapabilitySwitch      Capability = "Switch"
	CapabilityHost        Capability = "Host"
	CapabilityPhone       Capability = "Phone"
	CapabilityCamera      Capability = "Camera"
	CapabilityAccessPoint Capability = "AccessPoint"
	CapabilityServer      Capability = "Server"
)

// Device is identified by the (Name, SerialNumber) pair, which is globally
// unique. SerialNumber is UnknownSerial for a placeholder row created from
// a neighbor sighting that has not yet itself been crawled.
type Device struct {
	ID            int64
	Name          string
	SerialNumber  string
	Platform      string
	HardwareModel string
	Capabilities  []Capability
	Status        Status
	FirstSeen     time.Time
	LastSeen      time.Time
}

// IsPlaceholder reports whether d was created only from a neighbor sighting
// and has not yet been crawled itself.
func (d *Device) IsPlaceholder() bool {
	return d.SerialNumber == "" || d.SerialNumber == UnknownSerial
}

// SoftwareVersion is a many-to-one child of Device, keyed by
// (DeviceID, VersionString), preserving a history of versions observed.
type SoftwareVersion struct {
	DeviceID      int64
	VersionString string
	FirstSeen     time.Time
	LastSeen      time.Time
}

// InterfaceType coarsely classifies an Interface row.
type InterfaceType string

const (
	InterfaceTypeManagement InterfaceType = "management"
	InterfaceTypeLoopback   InterfaceType = "loopback"
	InterfaceTypeVLAN       InterfaceType = "vlan"
	InterfaceTypePhysical   InterfaceType = "physical"
)

// PrimaryManagementName is the distinguished interface name that denotes a
// device's preferred reachability address.
const PrimaryManagementName = "Primary Management"

// Interface is a child of Device keyed by (DeviceID, Name, IPAddress).
type Interface struct {
	DeviceID  int64
	Name      string
	IPAddress string
	Mask      string
	Type      InterfaceType
}

// VLAN is keyed by (Number, Name).
type VLAN struct {
	ID     int64
	Number int
	Name   string
}

// DeviceVLAN links a Device to a VLAN with the port count observed on that
// device. A name change on the same VLAN number replaces this link rather
// than accumulating a duplicate.
type DeviceVLAN struct {
	DeviceID  int64
	VLANID    int64
	PortCount int
}

// StackRole is the role of one member within a VSS/stack.
type StackRole string

const (
	StackRoleActive  StackRole = "Active"
	StackRoleStandby StackRole = "Standby"
	StackRoleMember  StackRole = "Member"
)

// StackMember is a child of Device keyed by (DeviceID, SwitchNumber).
type StackMember struct {
	DeviceID      int64
	SwitchNumber  int
	Role          StackRole
	Priority      int
	HardwareModel string
	SerialNumber  string
	MACAddress    string
	Version       string
	State         string
}

// DiscoveryProtocol identifies which layer-2 neighbor protocol produced a
// NeighborEdge.
type DiscoveryProtocol string

const (
	DiscoveryProtocolCDP  DiscoveryProtocol = "CDP"
	DiscoveryProtocolLLDP DiscoveryProtocol = "LLDP"
)

// NeighborEdge is a directed link keyed by
// (SourceDeviceID, SourceInterface, DestDeviceID, DestInterface).
// Interface names are stored in canonical long form. Rediscovering the same
// physical link from the opposite endpoint updates this row rather than
// creating a mirror — see pkg/inventory's dedup rule.
type NeighborEdge struct {
	ID              int64
	SourceDeviceID  int64
	SourceInterface string
	DestDeviceID    int64
	DestInterface   string
	Protocol        DiscoveryProtocol
	LastSeen        time.Time
}

// NeighborSighting is the raw, not-yet-resolved neighbor fact as parsed
// from CDP/LLDP output — DestDeviceID is not yet known, only a name.
type NeighborSighting struct {
	LocalInterface  string
	RemoteName      string
	RemoteInterface string
	RemotePlatform  string
	RemoteIPAddress string
	Capabilities    []Capability
	Protocol        DiscoveryProtocol
}

// FactKind is one of the recognized categories the Fact Collector gathers.
// FactKindOrder is the fixed execution order the collector follows.
type FactKind string

const (
	FactKindIdentity      FactKind = "identity"
	FactKindVersion       FactKind = "version"
	FactKindInterfaces    FactKind = "interfaces"
	FactKindVLANs         FactKind = "vlans"
	FactKindStackMembers  FactKind = "stack_members"
	FactKindCDPNeighbors  FactKind = "cdp_neighbors"
	FactKindLLDPNeighbors FactKind = "lldp_neighbors"
)

// FactKindOrder is the fixed order the Fact Collector executes fact-kinds in.
var FactKindOrder = []FactKind{
	FactKindIdentity,
	FactKindVersion,
	FactKindInterfaces,
	FactKindVLANs,
	FactKindStackMembers,
	FactKindCDPNeighbors,
	FactKindLLDPNeighbors,
}

// DeviceFacts is the structured result of one fact-collection pass over a
// session. A device that yields at least Identity is a successful visit,
// even if other fact-kinds failed.
type DeviceFacts struct {
	Identity      *Device
	Version       string
	Interfaces    []Interface
	VLANs         []DeviceVLANFact
	StackMembers  []StackMember
	Neighbors     []NeighborSighting
	FactFailures  map[FactKind]error
}

// DeviceVLANFact pairs a VLAN observed on a device with its port count,
// prior to being resolved against the VLAN table's (number, name) key.
type DeviceVLANFact struct {
	Number    int
	Name      string
	PortCount int
}

// Succeeded reports whether at least the identity fact-kind was collected.
func (f *DeviceFacts) Succeeded() bool {
	return f != nil && f.Identity != nil
}

// FrontierEntry is a (hostname, ip, depth, source) tuple awaiting a
// worker. IP may be blank, in which case the worker resolves a
// reachability address via the Inventory's primary-IP query before
// dialing. Exclusively owned by the Scheduler.
type FrontierEntry struct {
	Host   string
	IP     string
	Depth  int
	Source string // source device name, "" for a seed
}

// VisitKey normalizes an identity for the VisitedSet: prefer serial+name,
// falling back to name, falling back to IP.
func VisitKey(name, serial, ip string) string {
	switch {
	case name != "" && serial != "" && serial != UnknownSerial:
		return name + "|" + serial
	case name != "":
		return name
	default:
		return ip
	}
}
