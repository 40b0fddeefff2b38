// Package netconf loads NetWalker's INI configuration file and resolves
// device credentials (the Credential Store, C1), mirroring the teacher's
// settings package in spirit — a small, file-backed configuration layer —
// but moving from ad hoc JSON preferences to the enumerated INI sections
// of spec.md §6, parsed with gopkg.in/ini.v1.
package netconf

import (
	"time"

	"gopkg.in/ini.v1"
)

// Discovery is the [discovery] section.
type Discovery struct {
	MaxDepth               int
	ConcurrentConnections  int
	ConnectionTimeout      time.Duration
	DiscoveryTimeout       time.Duration
	DiscoveryProtocols     []string
}

// Filtering is the [filtering] section.
type Filtering struct {
	IncludeWildcards []string
	ExcludeWildcards []string
	IncludeCIDRs     []string
	ExcludeCIDRs     []string
}

// Exclusions is the [exclusions] section.
type Exclusions struct {
	ExcludeHostnames    []string
	ExcludeIPRanges     []string
	ExcludePlatforms    []string
	ExcludeCapabilities []string
}

// Connection is the [connection] section.
type Connection struct {
	SSHPort         int
	TelnetPort      int
	PreferredMethod string
}

// Database is the [database] section.
type Database struct {
	Enabled           bool
	Server            string
	Port              int
	Name              string
	Username          string
	Password          string
	ConnectionTimeout time.Duration
	CommandTimeout    time.Duration
}

// Progress is the NetWalker-specific [progress] section.
type Progress struct {
	Sink      string
	RedisAddr string
}

// Config is the fully parsed configuration file.
type Config struct {
	Discovery  Discovery
	Filtering  Filtering
	Exclusions Exclusions
	Connection Connection
	Database   Database
	Progress   Progress

	path string
}

// defaults matches spec.md §6's documented defaults.
func defaults() Config {
	return Config{
		Discovery: Discovery{
			MaxDepth:              1,
			ConcurrentConnections: 5,
			ConnectionTimeout:     30 * time.Second,
			DiscoveryTimeout:      300 * time.Second,
			DiscoveryProtocols:    []string{"CDP", "LLDP"},
		},
		Connection: Connection{
			SSHPort:         22,
			TelnetPort:      23,
			PreferredMethod: "ssh",
		},
		Database: Database{
			ConnectionTimeout: 30 * time.Second,
			CommandTimeout:    30 * time.Second,
		},
		Progress: Progress{
			Sink: "log",
		},
	}
}

// LoadConfig reads and parses the INI file at path. A missing file is not
// an error: Config's documented defaults apply, matching the teacher's
// "return zero-value settings if the file doesn't exist" convention.
func LoadConfig(path string) (*Config, error) {
	cfg := defaults()
	cfg.path = path

	file, err := ini.LooseLoad(path)
	if err != nil {
		return nil, newConfigError(path, "", err.Error())
	}

	if sec := file.Section("discovery"); sec != nil {
		cfg.Discovery.MaxDepth = sec.Key("max_depth").MustInt(cfg.Discovery.MaxDepth)
		cfg.Discovery.ConcurrentConnections = sec.Key("concurrent_connections").MustInt(cfg.Discovery.ConcurrentConnections)
		cfg.Discovery.ConnectionTimeout = time.Duration(sec.Key("connection_timeout").MustInt(30)) * time.Second
		cfg.Discovery.DiscoveryTimeout = time.Duration(sec.Key("discovery_timeout").MustInt(300)) * time.Second
		if v := sec.Key("discovery_protocols").String(); v != "" {
			cfg.Discovery.DiscoveryProtocols = splitCSV(v)
		}
	}

	if sec := file.Section("filtering"); sec != nil {
		cfg.Filtering.IncludeWildcards = splitCSV(sec.Key("include_wildcards").String())
		cfg.Filtering.ExcludeWildcards = splitCSV(sec.Key("exclude_wildcards").String())
		cfg.Filtering.IncludeCIDRs = splitCSV(sec.Key("include_cidrs").String())
		cfg.Filtering.ExcludeCIDRs = splitCSV(sec.Key("exclude_cidrs").String())
	}

	if sec := file.Section("exclusions"); sec != nil {
		cfg.Exclusions.ExcludeHostnames = splitCSV(sec.Key("exclude_hostnames").String())
		cfg.Exclusions.ExcludeIPRanges = splitCSV(sec.Key("exclude_ip_ranges").String())
		cfg.Exclusions.ExcludePlatforms = splitCSV(sec.Key("exclude_platforms").String())
		cfg.Exclusions.ExcludeCapabilities = splitCSV(sec.Key("exclude_capabilities").String())
	}

	if sec := file.Section("connection"); sec != nil {
		cfg.Connection.SSHPort = sec.Key("ssh_port").MustInt(cfg.Connection.SSHPort)
		cfg.Connection.TelnetPort = sec.Key("telnet_port").MustInt(cfg.Connection.TelnetPort)
		cfg.Connection.PreferredMethod = sec.Key("preferred_method").MustString(cfg.Connection.PreferredMethod)
	}

	if sec := file.Section("database"); sec != nil {
		cfg.Database.Enabled = sec.Key("enabled").MustBool(false)
		cfg.Database.Server = sec.Key("server").String()
		cfg.Database.Port = sec.Key("port").MustInt(0)
		cfg.Database.Name = sec.Key("database").String()
		cfg.Database.Username = sec.Key("username").String()
		cfg.Database.ConnectionTimeout = time.Duration(sec.Key("connection_timeout").MustInt(30)) * time.Second
		cfg.Database.CommandTimeout = time.Duration(sec.Key("command_timeout").MustInt(30)) * time.Second

		passKey := sec.Key("password")
		password, rewritten, derr := decodeOrObfuscate(passKey.String())
		if derr != nil {
			return nil, newConfigError(path, "database", derr.Error())
		}
		cfg.Database.Password = password
		if rewritten != "" {
			passKey.SetValue(rewritten)
			_ = file.SaveTo(path)
		}
	}

	if sec := file.Section("progress"); sec != nil {
		cfg.Progress.Sink = sec.Key("sink").MustString(cfg.Progress.Sink)
		cfg.Progress.RedisAddr = sec.Key("redis_addr").String()
	}

	return &cfg, nil
}
