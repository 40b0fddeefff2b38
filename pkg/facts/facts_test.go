package facts

import (
	"errors"
	"testing"
	"time"

	"github.com/marktegna/netwalker/pkg/model"
	"github.com/marktegna/netwalker/pkg/platform"
	"github.com/marktegna/netwalker/pkg/profiles"
	"github.com/marktegna/netwalker/pkg/transport"
)

type scriptedSession struct {
	replies map[string]string
	errs    map[string]error
}

func (s *scriptedSession) Send(cmd string, timeout time.Duration) (string, error) {
	if err, ok := s.errs[cmd]; ok {
		return "", err
	}
	return s.replies[cmd], nil
}

func (s *scriptedSession) Protocol() transport.Protocol { return transport.ProtocolSSH }
func (s *scriptedSession) Close() error                 { return nil }

const versionOutput = `CORE-A#show version
cisco WS-C3850-24T-E (MIPS) processor with 4194304K bytes of memory.
Cisco IOS Software, Version 16.3.5, RELEASE SOFTWARE (fc4)
Processor board ID FCW123456AB
CORE-A#`

func TestCollectHappyPath(t *testing.T) {
	sess := &scriptedSession{
		replies: map[string]string{
			"show version":              versionOutput,
			"show ip interface":         "",
			"show vlan brief":           "",
			"show module":               "",
			"show cdp neighbors detail": "",
			"show lldp neighbors detail": "",
		},
	}
	profile, ok := profiles.ForPlatform(platform.TagIOS)
	if !ok {
		t.Fatal("expected IOS profile")
	}

	c := New(5 * time.Second)
	facts := c.Collect(sess, platform.TagIOS, profile)

	if !facts.Succeeded() {
		t.Fatalf("expected success, failures: %v", facts.FactFailures)
	}
	if facts.Identity.Name != "CORE-A" {
		t.Errorf("Identity.Name = %q, want CORE-A", facts.Identity.Name)
	}
	if facts.Version != "16.3.5" {
		t.Errorf("Version = %q, want 16.3.5", facts.Version)
	}
	if len(facts.FactFailures) != 0 {
		t.Errorf("expected no failures, got %v", facts.FactFailures)
	}
}

func TestCollectIdentityFailureAborts(t *testing.T) {
	sess := &scriptedSession{
		errs: map[string]error{
			"show version": errors.New("connection reset"),
		},
	}
	profile, _ := profiles.ForPlatform(platform.TagIOS)

	c := New(5 * time.Second)
	facts := c.Collect(sess, platform.TagIOS, profile)

	if facts.Succeeded() {
		t.Fatal("expected failure when identity command fails")
	}
	if _, ok := facts.FactFailures[model.FactKindIdentity]; !ok {
		t.Error("expected identity failure to be recorded")
	}
	if facts.Interfaces != nil {
		t.Error("expected no further facts collected after identity failure")
	}
}

func TestCollectToleratesPartialFailure(t *testing.T) {
	sess := &scriptedSession{
		replies: map[string]string{
			"show version":    versionOutput,
			"show vlan brief": "",
		},
		errs: map[string]error{
			"show ip interface": errors.New("timeout"),
		},
	}
	profile, _ := profiles.ForPlatform(platform.TagIOS)

	c := New(5 * time.Second)
	facts := c.Collect(sess, platform.TagIOS, profile)

	if !facts.Succeeded() {
		t.Fatal("expected overall success despite one failed fact-kind")
	}
	if _, ok := facts.FactFailures[model.FactKindInterfaces]; !ok {
		t.Error("expected interfaces failure to be recorded")
	}
	if _, ok := facts.FactFailures[model.FactKindVLANs]; ok {
		t.Error("vlans should not have failed")
	}
}

func TestCollectDedupsNeighborsAcrossProtocols(t *testing.T) {
	cdpOutput := `-------------------------
Device ID: DIST-A
Interface: GigabitEthernet1/0/24,  Port ID (outgoing port): GigabitEthernet1/0/1
`
	lldpOutput := `------------------------------------------------
Local Intf: Gi1/0/24
Port id: Gi1/0/1
System Name: DIST-A
`
	sess := &scriptedSession{
		replies: map[string]string{
			"show version":               versionOutput,
			"show cdp neighbors detail":  cdpOutput,
			"show lldp neighbors detail": lldpOutput,
		},
	}
	profile, _ := profiles.ForPlatform(platform.TagIOS)

	c := New(5 * time.Second)
	facts := c.Collect(sess, platform.TagIOS, profile)

	if len(facts.Neighbors) != 1 {
		t.Fatalf("expected the CDP and LLDP sightings to dedup to 1 edge, got %d: %+v", len(facts.Neighbors), facts.Neighbors)
	}
}

func TestCollectLimitedProfileSkipsUnlistedFactKinds(t *testing.T) {
	junosIdentity := "router1>show version\nJUNOS 20.4R3.8\nrouter1>"
	sess := &scriptedSession{
		replies: map[string]string{
			"show version": junosIdentity,
		},
	}
	profile, ok := profiles.ForPlatform(platform.TagJunOS)
	if !ok {
		t.Fatal("expected JunOS profile")
	}

	c := New(5 * time.Second)
	facts := c.Collect(sess, platform.TagJunOS, profile)

	if !facts.Succeeded() {
		t.Fatalf("expected success, failures: %v", facts.FactFailures)
	}
	if facts.StackMembers != nil || facts.Neighbors != nil {
		t.Error("JunOS profile defines no stack or neighbor commands, expected no facts for them")
	}
}
