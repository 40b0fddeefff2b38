package inventory

// schema is written against a small common subset of SQL that both
// sqlite3 and Postgres accept without per-dialect branching: INTEGER
// PRIMARY KEY auto-increments under sqlite3, and under Postgres serves as
// a plain integer column backed by an explicit sequence default below.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS devices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		serial_number TEXT NOT NULL,
		platform TEXT,
		hardware_model TEXT,
		capabilities TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		first_seen TIMESTAMP NOT NULL,
		last_seen TIMESTAMP NOT NULL,
		UNIQUE(name, serial_number)
	)`,
	`CREATE TABLE IF NOT EXISTS device_versions (
		device_id INTEGER NOT NULL REFERENCES devices(id),
		version_string TEXT NOT NULL,
		first_seen TIMESTAMP NOT NULL,
		last_seen TIMESTAMP NOT NULL,
		PRIMARY KEY(device_id, version_string)
	)`,
	`CREATE TABLE IF NOT EXISTS device_interfaces (
		device_id INTEGER NOT NULL REFERENCES devices(id),
		interface_name TEXT NOT NULL,
		ip_address TEXT NOT NULL,
		mask TEXT,
		interface_type TEXT NOT NULL,
		PRIMARY KEY(device_id, interface_name, ip_address)
	)`,
	`CREATE TABLE IF NOT EXISTS vlans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		vlan_number INTEGER NOT NULL,
		vlan_name TEXT NOT NULL,
		UNIQUE(vlan_number, vlan_name)
	)`,
	`CREATE TABLE IF NOT EXISTS device_vlans (
		device_id INTEGER NOT NULL REFERENCES devices(id),
		vlan_id INTEGER NOT NULL REFERENCES vlans(id),
		port_count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY(device_id, vlan_id)
	)`,
	`CREATE TABLE IF NOT EXISTS device_stack_members (
		device_id INTEGER NOT NULL REFERENCES devices(id),
		switch_number INTEGER NOT NULL,
		role TEXT,
		priority INTEGER,
		hardware_model TEXT,
		serial_number TEXT,
		mac_address TEXT,
		version_string TEXT,
		state TEXT,
		PRIMARY KEY(device_id, switch_number)
	)`,
	`CREATE TABLE IF NOT EXISTS device_neighbors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_device_id INTEGER NOT NULL REFERENCES devices(id),
		source_interface TEXT NOT NULL,
		dest_device_id INTEGER NOT NULL REFERENCES devices(id),
		dest_interface TEXT NOT NULL,
		protocol TEXT NOT NULL,
		last_seen TIMESTAMP NOT NULL,
		UNIQUE(source_device_id, source_interface, dest_device_id, dest_interface)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_device_neighbors_source ON device_neighbors(source_device_id, source_interface)`,
	`CREATE INDEX IF NOT EXISTS idx_device_neighbors_dest ON device_neighbors(dest_device_id, dest_interface)`,
}

func (s *Store) ensureSchema() error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
