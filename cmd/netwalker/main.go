// NetWalker - Network Topology Discovery Crawler
//
// NetWalker logs into seed devices over SSH (Telnet fallback), harvests
// CDP/LLDP neighbor data, and recursively crawls discovered neighbors up
// to a bounded depth, persisting a device/interface/VLAN/stack/neighbor
// inventory to a relational store.
//
//	netwalker discover --seed-file seeds.csv
//	netwalker rewalk-stale 30
//	netwalker walk-unwalked
//	netwalker db-init
//	netwalker db-status
//	netwalker db-purge
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marktegna/netwalker/pkg/audit"
	"github.com/marktegna/netwalker/pkg/cliutil"
	"github.com/marktegna/netwalker/pkg/crawl"
	"github.com/marktegna/netwalker/pkg/facts"
	"github.com/marktegna/netwalker/pkg/filter"
	"github.com/marktegna/netwalker/pkg/inventory"
	"github.com/marktegna/netwalker/pkg/model"
	"github.com/marktegna/netwalker/pkg/netconf"
	"github.com/marktegna/netwalker/pkg/platform"
	"github.com/marktegna/netwalker/pkg/progress"
	"github.com/marktegna/netwalker/pkg/seed"
	"github.com/marktegna/netwalker/pkg/transport"
	"github.com/marktegna/netwalker/pkg/util"
	"github.com/marktegna/netwalker/pkg/version"
)

// App holds CLI state shared across every subcommand — the NetWalker
// analogue of the teacher's device-centric App, keyed on a loaded config
// and resolved credentials instead of a connected device.
type App struct {
	configPath   string
	username     string
	password     string
	enablePass   string
	verbose      bool
	markersPath  string
	auditLogPath string

	cfg   *netconf.Config
	creds netconf.Credentials
}

var app = &App{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cliutil.Red(err.Error()))
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a command's returned error to spec §6's exit codes: 0
// success (handled by cobra before this is ever consulted), 1 fatal, 130
// user cancellation.
func exitCodeFor(err error) int {
	if err == errCancelled {
		return 130
	}
	return 1
}

var errCancelled = fmt.Errorf("crawl cancelled")

var rootCmd = &cobra.Command{
	Use:           "netwalker",
	Short:         "Network topology discovery crawler",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		if app.verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("info")
		}

		cfg, err := netconf.LoadConfig(app.configPath)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		app.cfg = cfg

		store := netconf.NewCredentialStore(netconf.Overrides{
			Username:       app.username,
			Password:       app.password,
			EnablePassword: app.enablePass,
		}, "")
		creds, err := store.Get()
		if err != nil {
			return fmt.Errorf("resolving credentials: %w", err)
		}
		app.creds = creds

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&app.configPath, "config", "c", "netwalker.ini", "Path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&app.username, "username", "u", "", "Device login username (overrides config/env/prompt)")
	rootCmd.PersistentFlags().StringVarP(&app.password, "password", "p", "", "Device login password (overrides config/env/prompt)")
	rootCmd.PersistentFlags().StringVar(&app.enablePass, "enable-password", "", "Device enable-mode password")
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Verbose (debug-level) logging")
	rootCmd.PersistentFlags().StringVar(&app.markersPath, "platform-markers", "", "Optional platform_markers.yaml to extend the built-in marker table")
	rootCmd.PersistentFlags().StringVar(&app.auditLogPath, "audit-log", "", "Path to a durable JSON-lines audit trail (disabled if empty)")

	var discoverFlags discoverOptions
	discoverCmd.Flags().StringVar(&discoverFlags.seedFile, "seed-file", "seeds.csv", "Resumable CSV of seed devices")
	discoverCmd.Flags().IntVar(&discoverFlags.maxDepth, "max-depth", 0, "Maximum crawl depth (0 = use config default)")
	discoverCmd.Flags().IntVar(&discoverFlags.workers, "workers", 0, "Concurrent worker count (0 = use config default)")
	discoverCmd.RunE = func(cmd *cobra.Command, args []string) error {
		seeds, err := crawl.LoadSeedFile(discoverFlags.seedFile)
		if err != nil {
			return fmt.Errorf("loading seed file: %w", err)
		}
		return runCrawl(seeds, discoverFlags.maxDepth, discoverFlags.workers)
	}

	rewalkStaleCmd.RunE = func(cmd *cobra.Command, args []string) error {
		days, err := parseDaysArg(args)
		if err != nil {
			return err
		}
		store, err := openInventory(app.cfg.Database)
		if err != nil {
			return err
		}
		defer store.Close()
		seeds, err := crawl.LoadStaleSeeds(store, days, "rewalk-stale-seeds.csv")
		if err != nil {
			return fmt.Errorf("loading stale devices: %w", err)
		}
		return runCrawl(seeds, 0, 0)
	}

	walkUnwalkedCmd.RunE = func(cmd *cobra.Command, args []string) error {
		store, err := openInventory(app.cfg.Database)
		if err != nil {
			return err
		}
		defer store.Close()
		seeds, err := crawl.LoadUnwalkedSeeds(store, "walk-unwalked-seeds.csv")
		if err != nil {
			return fmt.Errorf("loading unwalked devices: %w", err)
		}
		return runCrawl(seeds, 0, 0)
	}

	dbInitCmd.RunE = func(cmd *cobra.Command, args []string) error {
		store, err := openInventory(app.cfg.Database)
		if err != nil {
			return err
		}
		defer store.Close()
		if store.Disabled() {
			return fmt.Errorf("database is disabled in configuration; set [database] enabled = true")
		}
		fmt.Println(cliutil.Green("schema initialized"))
		return nil
	}

	dbStatusCmd.RunE = func(cmd *cobra.Command, args []string) error {
		store, err := openInventory(app.cfg.Database)
		if err != nil {
			return err
		}
		defer store.Close()
		counts, err := store.Status()
		if err != nil {
			return fmt.Errorf("querying status: %w", err)
		}
		t := cliutil.NewTable("METRIC", "COUNT").RightAlign(1)
		t.Row("active devices", fmt.Sprintf("%d", counts.ActiveDevices))
		t.Row("purge-pending devices", fmt.Sprintf("%d", counts.PurgeDevices))
		t.Row("interfaces", fmt.Sprintf("%d", counts.Interfaces))
		t.Row("vlans", fmt.Sprintf("%d", counts.VLANs))
		t.Row("stack members", fmt.Sprintf("%d", counts.StackMembers))
		t.Row("neighbor edges", fmt.Sprintf("%d", counts.NeighborEdges))
		t.Flush()
		return nil
	}

	dbPurgeCmd.RunE = func(cmd *cobra.Command, args []string) error {
		store, err := openInventory(app.cfg.Database)
		if err != nil {
			return err
		}
		defer store.Close()
		removed, err := store.PurgeDevices()
		if err != nil {
			return fmt.Errorf("purging devices: %w", err)
		}
		fmt.Printf("%s %d device(s)\n", cliutil.Green("purged"), removed)
		return nil
	}

	versionCmd.Run = func(cmd *cobra.Command, args []string) {
		if version.Version == "dev" {
			fmt.Println("netwalker dev build")
		} else {
			fmt.Printf("netwalker %s (%s)\n", version.Version, version.GitCommit)
		}
	}

	rootCmd.AddCommand(discoverCmd, rewalkStaleCmd, walkUnwalkedCmd, dbInitCmd, dbStatusCmd, dbPurgeCmd, versionCmd)
}

type discoverOptions struct {
	seedFile string
	maxDepth int
	workers  int
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Crawl from a seed CSV file",
}

var rewalkStaleCmd = &cobra.Command{
	Use:   "rewalk-stale <days>",
	Short: "Re-crawl devices not seen in the last <days> days",
	Args:  cobra.ExactArgs(1),
}

var walkUnwalkedCmd = &cobra.Command{
	Use:   "walk-unwalked",
	Short: "Crawl devices known only from a neighbor sighting",
}

var dbInitCmd = &cobra.Command{
	Use:   "db-init",
	Short: "Initialize the inventory database schema",
}

var dbStatusCmd = &cobra.Command{
	Use:   "db-status",
	Short: "Print inventory row counts",
}

var dbPurgeCmd = &cobra.Command{
	Use:   "db-purge",
	Short: "Physically remove devices already marked for purge",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
}

func parseDaysArg(args []string) (int, error) {
	var days int
	if _, err := fmt.Sscanf(args[0], "%d", &days); err != nil || days < 0 {
		return 0, fmt.Errorf("invalid day count %q", args[0])
	}
	return days, nil
}

func openInventory(dbCfg netconf.Database) (*inventory.Store, error) {
	driver := inventory.DriverSQLite
	if dbCfg.Server != "" {
		driver = inventory.DriverPostgres
	}
	return inventory.Open(inventory.Config{
		Enabled:           dbCfg.Enabled,
		Driver:            driver,
		Path:              dbCfg.Name,
		Server:            dbCfg.Server,
		Port:              dbCfg.Port,
		Database:          dbCfg.Name,
		Username:          dbCfg.Username,
		Password:          dbCfg.Password,
		ConnectionTimeout: dbCfg.ConnectionTimeout,
		CommandTimeout:    dbCfg.CommandTimeout,
	})
}

// runCrawl wires every component together and drives one Scheduler.Run,
// printing the spec §7 exit summary regardless of how the crawl ended.
func runCrawl(seeds *seed.File, maxDepthOverride, workersOverride int) error {
	store, err := openInventory(app.cfg.Database)
	if err != nil {
		return fmt.Errorf("opening inventory: %w", err)
	}
	defer store.Close()

	cache := inventory.NewCache(store, app.cfg.Progress.RedisAddr, 0)
	defer cache.Close()

	detector := platform.NewDetector()
	if app.markersPath != "" {
		if err := detector.LoadMarkers(app.markersPath); err != nil {
			util.Warnf("could not load platform markers from %s: %v", app.markersPath, err)
		}
	}

	f := filter.New(filterConfigFrom(app.cfg))

	maxDepth := app.cfg.Discovery.MaxDepth
	if maxDepthOverride > 0 {
		maxDepth = maxDepthOverride
	}
	workers := app.cfg.Discovery.ConcurrentConnections
	if workersOverride > 0 {
		workers = workersOverride
	}

	prefs := transport.Preferences{
		SSHPort:           app.cfg.Connection.SSHPort,
		TelnetPort:        app.cfg.Connection.TelnetPort,
		PreferSSH:         app.cfg.Connection.PreferredMethod != "telnet",
		DialTimeout:       app.cfg.Discovery.ConnectionTimeout,
		CommandTimeout:    app.cfg.Discovery.ConnectionTimeout,
		PostLoginCommands: pagerDisableCommands,
	}

	summary := progress.NewSummary()
	sink := progress.NewSink(app.cfg.Progress.Sink, app.cfg.Progress.RedisAddr, summary)
	defer sink.Close()

	var auditLog *audit.FileLogger
	if app.auditLogPath != "" {
		var err error
		auditLog, err = audit.NewFileLogger(app.auditLogPath, audit.RotationConfig{MaxSize: 10 * 1024 * 1024, MaxBackups: 5})
		if err != nil {
			util.Warnf("could not open audit log at %s: %v", app.auditLogPath, err)
		} else {
			defer auditLog.Close()
		}
	}

	scheduler := crawl.New(
		crawl.Config{
			MaxDepth:      maxDepth,
			Workers:       workers,
			CrawlDeadline: app.cfg.Discovery.DiscoveryTimeout,
		},
		transport.Credentials{
			Username:       app.creds.Username,
			Password:       app.creds.Password,
			EnablePassword: app.creds.EnablePassword,
		},
		prefs,
		f,
		store,
		cache,
		detector,
		facts.New(app.cfg.Discovery.ConnectionTimeout),
		seeds,
		sink,
		auditLog,
	)

	cancelled, err := scheduler.Run(context.Background())

	fmt.Print(cliutil.RenderSummary(cliutil.CrawlSummary{
		Attempted:  summary.Attempted,
		Completed:  summary.Completed,
		Skipped:    summary.Skipped,
		FailedKind: summary.FailedKind,
	}))

	if err != nil {
		return err
	}
	if cancelled {
		return errCancelled
	}
	return nil
}

// pagerDisableCommands is the vendor-neutral terminal-quieting batch spec
// §4.3 requires right after login, before the platform is known from "show
// version" — one command per major CLI family, sent in sequence. A command
// the device's CLI doesn't recognize simply errors and is skipped; per
// §4.3 that failure is logged, never fatal to the session.
var pagerDisableCommands = []string{
	"terminal length 0",       // Cisco IOS/IOS-XE/NX-OS/EOS/ASA
	"terminal width 0",        // Cisco IOS/IOS-XE/NX-OS/EOS/ASA
	"terminal pager 0",        // Cisco IOS-XR
	"set cli screen-length 0", // Juniper JunOS
	"set cli pager off",       // Palo Alto PAN-OS
}

func filterConfigFrom(cfg *netconf.Config) filter.Config {
	excludeCaps := make([]model.Capability, 0, len(cfg.Exclusions.ExcludeCapabilities))
	for _, c := range cfg.Exclusions.ExcludeCapabilities {
		excludeCaps = append(excludeCaps, model.Capability(c))
	}
	return filter.Config{
		IncludeWildcards:    cfg.Filtering.IncludeWildcards,
		ExcludeWildcards:    cfg.Filtering.ExcludeWildcards,
		IncludeCIDRs:        cfg.Filtering.IncludeCIDRs,
		ExcludeCIDRs:        cfg.Filtering.ExcludeCIDRs,
		ExcludeHostnames:    cfg.Exclusions.ExcludeHostnames,
		ExcludeIPRanges:     cfg.Exclusions.ExcludeIPRanges,
		ExcludePlatforms:    cfg.Exclusions.ExcludePlatforms,
		ExcludeCapabilities: excludeCaps,
	}
}
