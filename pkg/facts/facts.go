// Package facts implements the Fact Collector (C6): given an open session
// to a device and its command profile, it runs each fact-kind's command in
// a fixed order, parses the reply, and assembles a DeviceFacts. A command
// that fails or a reply that fails to parse marks that one fact-kind as
// failed without aborting collection of the rest — except identity, whose
// failure fails the whole collection, since nothing downstream has a
// device to attach facts to.
package facts

import (
	"time"

	"github.com/marktegna/netwalker/pkg/model"
	"github.com/marktegna/netwalker/pkg/platform"
	"github.com/marktegna/netwalker/pkg/profiles"
	"github.com/marktegna/netwalker/pkg/transport"
	"github.com/marktegna/netwalker/pkg/util"
)

// Collector runs a device's command profile against an open session.
type Collector struct {
	CommandTimeout time.Duration
}

// New returns a Collector using timeout for each command sent to the
// device. A zero timeout falls back to transport.DefaultPreferences's
// CommandTimeout.
func New(timeout time.Duration) *Collector {
	if timeout <= 0 {
		timeout = transport.DefaultPreferences().CommandTimeout
	}
	return &Collector{CommandTimeout: timeout}
}

// Collect runs profile's commands over sess in model.FactKindOrder and
// returns the assembled facts. tag is the platform already detected from
// the login banner; it is stamped onto the identity record since "show
// version" text alone does not always disambiguate IOS from IOS-XE.
func (c *Collector) Collect(sess transport.Session, tag platform.Tag, profile profiles.Profile) *model.DeviceFacts {
	facts := &model.DeviceFacts{
		FactFailures: make(map[model.FactKind]error),
	}

	for _, kind := range model.FactKindOrder {
		cmd, ok := profile.ByFactKind[kind]
		if !ok {
			continue
		}

		output, err := sess.Send(cmd.Text, c.CommandTimeout)
		if err == nil && cmd.ExpectSuccess != nil && !cmd.ExpectSuccess(output) {
			err = util.NewProtocolError("", "command rejected by device: "+cmd.Text)
		}
		if err != nil {
			facts.FactFailures[kind] = err
			if kind == model.FactKindIdentity {
				return facts
			}
			continue
		}

		if perr := c.apply(facts, kind, tag, output); perr != nil {
			facts.FactFailures[kind] = perr
			if kind == model.FactKindIdentity {
				return facts
			}
		}
	}

	return facts
}

func (c *Collector) apply(facts *model.DeviceFacts, kind model.FactKind, tag platform.Tag, output string) error {
	switch kind {
	case model.FactKindIdentity:
		d, err := profiles.ParseIdentity(tag, output)
		if err != nil {
			return err
		}
		d.Platform = string(tag)
		facts.Identity = d
	case model.FactKindVersion:
		v, err := profiles.ParseVersion(tag, output)
		if err != nil {
			return err
		}
		facts.Version = v
	case model.FactKindInterfaces:
		ifaces, err := profiles.ParseInterfaces(output)
		if err != nil {
			return err
		}
		facts.Interfaces = ifaces
	case model.FactKindVLANs:
		vlans, err := profiles.ParseVLANs(output)
		if err != nil {
			return err
		}
		facts.VLANs = vlans
	case model.FactKindStackMembers:
		members, err := profiles.ParseStackMembers(output)
		if err != nil {
			return err
		}
		facts.StackMembers = members
	case model.FactKindCDPNeighbors:
		neighbors, err := profiles.ParseCDPNeighbors(output)
		if err != nil {
			return err
		}
		facts.Neighbors = append(facts.Neighbors, dedupNeighbors(facts.Neighbors, neighbors)...)
	case model.FactKindLLDPNeighbors:
		neighbors, err := profiles.ParseLLDPNeighbors(output)
		if err != nil {
			return err
		}
		facts.Neighbors = append(facts.Neighbors, dedupNeighbors(facts.Neighbors, neighbors)...)
	}
	return nil
}

// dedupNeighbors drops any sighting in next that duplicates one already in
// existing, keyed on (local interface, remote name, remote interface). CDP
// and LLDP frequently report the same physical adjacency; a device running
// both protocols to the same neighbor should only contribute one edge.
func dedupNeighbors(existing, next []model.NeighborSighting) []model.NeighborSighting {
	seen := make(map[string]bool, len(existing))
	for _, n := range existing {
		seen[neighborKey(n)] = true
	}

	var result []model.NeighborSighting
	for _, n := range next {
		key := neighborKey(n)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, n)
	}
	return result
}

func neighborKey(n model.NeighborSighting) string {
	return n.LocalInterface + "|" + n.RemoteName + "|" + n.RemoteInterface
}
