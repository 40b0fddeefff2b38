package model

import "testing"

func TestVisitKey(t *testing.T) {
	tests := []struct {
		name   string
		serial string
		ip     string
		want   string
	}{
		{"CORE-A", "FCW1234ABCD", "10.0.0.1", "CORE-A|FCW1234ABCD"},
		{"CORE-A", UnknownSerial, "10.0.0.1", "CORE-A"},
		{"CORE-A", "", "10.0.0.1", "CORE-A"},
		{"", "", "10.0.0.1", "10.0.0.1"},
	}
	for _, tt := range tests {
		got := VisitKey(tt.name, tt.serial, tt.ip)
		if got != tt.want {
			t.Errorf("VisitKey(%q, %q, %q) = %q, want %q", tt.name, tt.serial, tt.ip, got, tt.want)
		}
	}
}

func TestDeviceIsPlaceholder(t *testing.T) {
	tests := []struct {
		name   string
		serial string
		want   bool
	}{
		{"empty serial", "", true},
		{"unknown serial", UnknownSerial, true},
		{"real serial", "FCW1234ABCD", false},
	}
	for _, tt := range tests {
		d := &Device{SerialNumber: tt.serial}
		if got := d.IsPlaceholder(); got != tt.want {
			t.Errorf("%s: IsPlaceholder() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDeviceFactsSucceeded(t *testing.T) {
	var nilFacts *DeviceFacts
	if nilFacts.Succeeded() {
		t.Error("nil DeviceFacts should not have succeeded")
	}

	noIdentity := &DeviceFacts{}
	if noIdentity.Succeeded() {
		t.Error("DeviceFacts with no identity should not have succeeded")
	}

	withIdentity := &DeviceFacts{Identity: &Device{Name: "CORE-A"}}
	if !withIdentity.Succeeded() {
		t.Error("DeviceFacts with identity should have succeeded")
	}
}

func TestFactKindOrder(t *testing.T) {
	if len(FactKindOrder) != 7 {
		t.Fatalf("expected 7 fact kinds, got %d", len(FactKindOrder))
	}
	if FactKindOrder[0] != FactKindIdentity {
		t.Errorf("first fact kind should be identity, got %s", FactKindOrder[0])
	}
	last := FactKindOrder[len(FactKindOrder)-1]
	if last != FactKindLLDPNeighbors {
		t.Errorf("last fact kind should be lldp_neighbors, got %s", last)
	}
}
