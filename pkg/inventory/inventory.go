// Package inventory implements the Inventory Store (C7): a
// database/sql-backed persistence layer for the device/interface/VLAN/
// stack/neighbor-edge schema, with two interchangeable drivers
// (sqlite3 embedded, Postgres server-mode) and an optional Redis
// read-through cache in front of the hot get_primary_ip query.
package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/marktegna/netwalker/pkg/util"
)

// Driver selects which database/sql driver backs a Store.
type Driver string

const (
	DriverSQLite   Driver = "sqlite3"
	DriverPostgres Driver = "postgres"
)

// Config mirrors the [database] section of the INI configuration file.
type Config struct {
	Enabled bool
	Driver  Driver

	// SQLite
	Path string

	// Postgres
	Server   string
	Port     int
	Database string
	Username string
	Password string

	ConnectionTimeout time.Duration
	CommandTimeout    time.Duration
}

// Store is the Inventory Store. A disabled Store (Config.Enabled == false,
// or a sqlite file that could not be opened) degrades every write to a
// no-op and every query to an empty result, per spec §4.7: the crawl must
// be able to proceed on in-memory visited tracking alone.
type Store struct {
	db       *sql.DB
	driver   Driver
	disabled bool
	cmdTO    time.Duration
}

// Open connects (or, for sqlite3, creates) the database named by cfg and
// ensures the schema exists. A Config with Enabled == false returns a
// disabled Store rather than an error, since "disabled" is a supported
// operating mode, not a failure.
func Open(cfg Config) (*Store, error) {
	if !cfg.Enabled {
		return &Store{disabled: true}, nil
	}

	dsn, driver := dsnFor(cfg)
	db, err := sql.Open(string(driver), dsn)
	if err != nil {
		util.Errorf("inventory: could not open %s database, continuing disabled: %v", driver, err)
		return &Store{disabled: true}, nil
	}

	connectTO := cfg.ConnectionTimeout
	if connectTO <= 0 {
		connectTO = 30 * time.Second
	}
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), connectTO)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		util.Errorf("inventory: could not connect to %s database, continuing disabled: %v", driver, err)
		return &Store{disabled: true}, nil
	}

	s := &Store{db: db, driver: driver, cmdTO: cfg.CommandTimeout}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		util.Errorf("inventory: schema init failed, continuing disabled: %v", err)
		return &Store{disabled: true}, nil
	}
	return s, nil
}

func dsnFor(cfg Config) (string, Driver) {
	if cfg.Driver == DriverPostgres {
		port := cfg.Port
		if port == 0 {
			port = 5432
		}
		return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
			cfg.Server, port, cfg.Database, cfg.Username, cfg.Password), DriverPostgres
	}
	path := cfg.Path
	if path == "" {
		path = "netwalker.db"
	}
	return path, DriverSQLite
}

// Disabled reports whether this Store is operating in no-op mode.
func (s *Store) Disabled() bool { return s.disabled }

// Close releases the underlying connection pool. A no-op on a disabled Store.
func (s *Store) Close() error {
	if s.disabled {
		return nil
	}
	return s.db.Close()
}

// ph returns a dialect-correct positional placeholder: "?" for sqlite3,
// "$N" for Postgres. Queries in this package are written with "?" and
// rebound through this helper so the same statement text serves both
// drivers without duplicating every query.
func (s *Store) ph(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return util.NewDatabaseError(op, err.Error())
}
