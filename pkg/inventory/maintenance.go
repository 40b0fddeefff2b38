package inventory

import "strconv"

// Counts is the row-count snapshot the db-status CLI subcommand prints.
type Counts struct {
	ActiveDevices int
	PurgeDevices  int
	Interfaces    int
	VLANs         int
	StackMembers  int
	NeighborEdges int
}

// Status returns row counts across every inventory table, for the
// db-status maintenance subcommand.
func (s *Store) Status() (Counts, error) {
	var c Counts
	if s.disabled {
		return c, nil
	}

	queries := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM devices WHERE status = 'active'`, &c.ActiveDevices},
		{`SELECT COUNT(*) FROM devices WHERE status = 'purge'`, &c.PurgeDevices},
		{`SELECT COUNT(*) FROM device_interfaces`, &c.Interfaces},
		{`SELECT COUNT(*) FROM device_vlans`, &c.VLANs},
		{`SELECT COUNT(*) FROM device_stack_members`, &c.StackMembers},
		{`SELECT COUNT(*) FROM device_neighbors`, &c.NeighborEdges},
	}
	for _, q := range queries {
		if err := s.db.QueryRow(q.query).Scan(q.dest); err != nil {
			return Counts{}, s.wrapErr("status", err)
		}
	}
	return c, nil
}

// MarkStaleForPurge transitions every active device untouched for more
// than daysThreshold days to status=purge — the soft-delete half of the
// lifecycle spec §3 describes. PurgeDevices later performs the physical
// removal.
func (s *Store) MarkStaleForPurge(daysThreshold int) (int64, error) {
	if s.disabled {
		return 0, nil
	}
	res, err := s.db.Exec(s.ph(`
		UPDATE devices SET status = 'purge'
		WHERE status = 'active' AND last_seen < `+s.dateSubExpr(daysThreshold)),
	)
	if err != nil {
		return 0, s.wrapErr("mark_stale_for_purge", err)
	}
	return res.RowsAffected()
}

// PurgeDevices physically deletes every device row already marked
// status=purge, along with its child rows, per spec §3's "a separate
// maintenance pass physically removes purged rows". It returns the number
// of devices removed.
func (s *Store) PurgeDevices() (int64, error) {
	if s.disabled {
		return 0, nil
	}

	rows, err := s.db.Query(`SELECT id FROM devices WHERE status = 'purge'`)
	if err != nil {
		return 0, s.wrapErr("purge_select", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, s.wrapErr("purge_scan", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	childTables := []string{
		"device_versions", "device_interfaces", "device_vlans",
		"device_stack_members",
	}
	for _, id := range ids {
		for _, table := range childTables {
			if _, err := s.db.Exec(s.ph(`DELETE FROM `+table+` WHERE device_id = ?`), id); err != nil {
				return 0, s.wrapErr("purge_children", err)
			}
		}
		if _, err := s.db.Exec(s.ph(`DELETE FROM device_neighbors WHERE source_device_id = ? OR dest_device_id = ?`), id, id); err != nil {
			return 0, s.wrapErr("purge_neighbors", err)
		}
		if _, err := s.db.Exec(s.ph(`DELETE FROM devices WHERE id = ?`), id); err != nil {
			return 0, s.wrapErr("purge_device", err)
		}
	}
	return int64(len(ids)), nil
}

// dateSubExpr returns the dialect-appropriate "now minus N days" SQL
// expression, since sqlite3 and Postgres disagree on date arithmetic
// syntax where the rest of the schema's common subset suffices.
func (s *Store) dateSubExpr(days int) string {
	if s.driver == DriverPostgres {
		return "now() - interval '1 day' * " + strconv.Itoa(days)
	}
	return "datetime('now', '-" + strconv.Itoa(days) + " days')"
}
