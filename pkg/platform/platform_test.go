package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetect(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name   string
		banner string
		want   Tag
	}{
		{"ios", "Cisco IOS Software, C2960X Software, Version 15.2(7)E3", TagIOS},
		{"ios-xe", "Cisco IOS XE Software, Version 17.03.04a", TagIOSXE},
		{"ios-xr", "Cisco IOS XR Software, Version 7.3.2", TagIOSXR},
		{"nxos", "Cisco Nexus Operating System (NX-OS) Software", TagNXOS},
		{"eos", "Arista vEOS", TagEOS},
		{"junos", "JUNOS 20.4R3.8", TagJunOS},
		{"panos", "Palo Alto Networks PAN-OS 10.1.0", TagPANOS},
		{"asa", "Cisco Adaptive Security Appliance Software Version 9.16", TagASA},
		{"unknown", "some unrecognized banner text", TagUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Detect(tt.banner); got != tt.want {
				t.Errorf("Detect(%q) = %v, want %v", tt.banner, got, tt.want)
			}
		})
	}
}

func TestDetectOrderBreaksTies(t *testing.T) {
	d := NewDetector()
	// IOS-XE banners also contain "Cisco IOS Software" in places; the
	// fixed order must prefer the more specific XE marker.
	banner := "Cisco IOS Software, IOS-XE Software, Version 17.3"
	if got := d.Detect(banner); got != TagIOSXE {
		t.Errorf("Detect() = %v, want %v", got, TagIOSXE)
	}
}

func TestLoadMarkersAdditive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "platform_markers.yaml")
	content := []byte("Unknown:\n  - \"CustomOS Release\"\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}

	d := NewDetector()
	builtinCount := len(d.markers)
	if err := d.LoadMarkers(path); err != nil {
		t.Fatalf("LoadMarkers: %v", err)
	}
	if len(d.markers) != builtinCount+1 {
		t.Fatalf("expected %d markers, got %d", builtinCount+1, len(d.markers))
	}

	// Built-in markers still take precedence for their own tags: a banner
	// that matches a real vendor marker is still tagged correctly.
	if got := d.Detect("Cisco IOS Software, Version 1.0"); got != TagIOS {
		t.Errorf("Detect() = %v, want %v", got, TagIOS)
	}
}
