// Package platform implements the Platform Detector (C4): tagging a device
// with a platform variant from the text of its first-contact banner.
package platform

import (
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Tag is one of the closed set of platform variants NetWalker recognizes.
type Tag string

const (
	TagIOS    Tag = "IOS"
	TagIOSXE  Tag = "IOS-XE"
	TagIOSXR  Tag = "IOS-XR"
	TagNXOS   Tag = "NX-OS"
	TagEOS    Tag = "EOS"
	TagJunOS  Tag = "JunOS"
	TagPANOS  Tag = "PAN-OS"
	TagASA    Tag = "ASA"
	TagUnknown Tag = "Unknown"
)

// marker pairs a platform tag with the regexp used to recognize it in
// banner/show-version text. Order matters: the first match in this slice
// wins when more than one marker matches, per spec §4.4.
type marker struct {
	tag Tag
	re  *regexp.Regexp
}

// builtinMarkers is the fixed, documented detection order. Cisco's own
// variants are checked before the more generic "Cisco IOS Software" banner
// so that IOS-XE and IOS-XR devices (which also print that string) are not
// misclassified as plain IOS.
var builtinMarkers = []marker{
	{TagIOSXR, regexp.MustCompile(`(?i)IOS[- ]?XR`)},
	{TagIOSXE, regexp.MustCompile(`(?i)IOS[- ]?XE`)},
	{TagNXOS, regexp.MustCompile(`(?i)NX-OS|Nexus Operating System`)},
	{TagEOS, regexp.MustCompile(`(?i)Arista.*EOS|vEOS`)},
	{TagJunOS, regexp.MustCompile(`(?i)JUNOS`)},
	{TagPANOS, regexp.MustCompile(`(?i)PAN-OS|Palo Alto Networks`)},
	{TagASA, regexp.MustCompile(`(?i)Adaptive Security Appliance|Cisco ASA`)},
	{TagIOS, regexp.MustCompile(`(?i)Cisco IOS Software|IOS \(tm\)`)},
}

// Detector matches banner text against the built-in marker table plus any
// operator-supplied additions loaded from a platform_markers.yaml file.
type Detector struct {
	markers []marker
}

// NewDetector returns a Detector using only the built-in marker table.
func NewDetector() *Detector {
	return &Detector{markers: builtinMarkers}
}

// yamlMarkers is the on-disk shape of platform_markers.yaml: a map of
// platform tag to a list of regexp patterns, additive to the built-in table.
type yamlMarkers map[string][]string

// LoadMarkers extends d with additional markers parsed from a YAML file at
// path. Entries are appended after the built-in table, so built-in markers
// are never shadowed by operator additions for the same tag.
func (d *Detector) LoadMarkers(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var raw yamlMarkers
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	for tag, patterns := range raw {
		for _, p := range patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return err
			}
			d.markers = append(d.markers, marker{tag: Tag(tag), re: re})
		}
	}
	return nil
}

// Detect tags banner text with the first matching marker in detection
// order, or TagUnknown if nothing matches.
func (d *Detector) Detect(bannerText string) Tag {
	for _, m := range d.markers {
		if m.re.MatchString(bannerText) {
			return m.tag
		}
	}
	return TagUnknown
}
