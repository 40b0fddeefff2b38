package inventory

import (
	"database/sql"
	"strings"
	"time"

	"github.com/marktegna/netwalker/pkg/model"
)

func joinCapabilities(caps []model.Capability) string {
	parts := make([]string, len(caps))
	for i, c := range caps {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

func splitCapabilities(s string) []model.Capability {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	caps := make([]model.Capability, len(parts))
	for i, p := range parts {
		caps[i] = model.Capability(p)
	}
	return caps
}

// UpsertDevice inserts or updates d and returns its id. A device is matched
// first by (name, serial_number); if no such row exists and serial_number
// is known (not "unknown"), a placeholder row for the same name is looked
// up and promoted in place rather than duplicated, per spec §4.7 — a
// neighbor sighting that only knew the hostname, later re-visited directly
// and found to have a real serial, becomes one row, not two. An incoming
// unknown serial matches any existing row for the name, preferring one
// with a real serial, so a later neighbor sighting never adds a second row.
func (s *Store) UpsertDevice(d *model.Device) (int64, error) {
	if s.disabled {
		return 0, nil
	}

	now := d.LastSeen
	if now.IsZero() {
		now = time.Now().UTC()
	}
	firstSeen := d.FirstSeen
	if firstSeen.IsZero() {
		firstSeen = now
	}

	var id int64
	var existingSerial, existingPlatform, existingModel, existingCaps, existingStatus string
	var existingFirstSeen time.Time

	err := s.db.QueryRow(s.ph(
		`SELECT id, serial_number, platform, hardware_model, capabilities, status, first_seen
		 FROM devices WHERE name = ? AND (serial_number = ? OR serial_number = 'unknown' OR ? = 'unknown')
		 ORDER BY CASE WHEN serial_number = 'unknown' THEN 1 ELSE 0 END LIMIT 1`),
		d.Name, orUnknown(d.SerialNumber), orUnknown(d.SerialNumber),
	).Scan(&id, &existingSerial, &existingPlatform, &existingModel, &existingCaps, &existingStatus, &existingFirstSeen)

	if err == sql.ErrNoRows {
		res, insErr := s.db.Exec(s.ph(
			`INSERT INTO devices (name, serial_number, platform, hardware_model, capabilities, status, first_seen, last_seen)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			d.Name, orUnknown(d.SerialNumber), d.Platform, d.HardwareModel, joinCapabilities(d.Capabilities),
			statusOrActive(d.Status), firstSeen, now,
		)
		if insErr != nil {
			return 0, s.wrapErr("insert_device", insErr)
		}
		return res.LastInsertId()
	}
	if err != nil {
		return 0, s.wrapErr("select_device", err)
	}

	serial := promote(existingSerial, d.SerialNumber, model.UnknownSerial)
	platform := promote(existingPlatform, d.Platform, "")
	hwModel := promote(existingModel, d.HardwareModel, "")
	caps := existingCaps
	if len(d.Capabilities) > 0 {
		caps = joinCapabilities(d.Capabilities)
	}
	status := statusOrActive(d.Status)

	_, err = s.db.Exec(s.ph(
		`UPDATE devices SET serial_number = ?, platform = ?, hardware_model = ?, capabilities = ?, status = ?, last_seen = ?
		 WHERE id = ?`),
		serial, platform, hwModel, caps, status, now, id,
	)
	if err != nil {
		return 0, s.wrapErr("update_device", err)
	}
	return id, nil
}

// promote returns newVal unless it is blank or equal to placeholder, in
// which case the existing value is kept — fields only ever move from
// unknown to known, never back.
func promote(existing, newVal, placeholder string) string {
	if newVal == "" || newVal == placeholder {
		return existing
	}
	return newVal
}

func orUnknown(s string) string {
	if s == "" {
		return model.UnknownSerial
	}
	return s
}

func statusOrActive(st model.Status) string {
	if st == "" {
		return string(model.StatusActive)
	}
	return string(st)
}

// UpsertVersion records a software version sighting for deviceID, keyed by
// (device_id, version_string); first_seen is preserved across re-visits.
func (s *Store) UpsertVersion(deviceID int64, version string) error {
	if s.disabled || version == "" {
		return nil
	}
	now := time.Now().UTC()

	res, err := s.db.Exec(s.ph(
		`UPDATE device_versions SET last_seen = ? WHERE device_id = ? AND version_string = ?`),
		now, deviceID, version,
	)
	if err != nil {
		return s.wrapErr("update_version", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err = s.db.Exec(s.ph(
		`INSERT INTO device_versions (device_id, version_string, first_seen, last_seen) VALUES (?, ?, ?, ?)`),
		deviceID, version, now, now,
	)
	return s.wrapErr("insert_version", err)
}

// GetPrimaryIP returns the preferred reachability address for hostname,
// following the priority management > loopback > vlan > other, then
// alphabetic, per spec §4.7. Returns "" if the device or any address is
// unknown, or if the Store is disabled.
func (s *Store) GetPrimaryIP(hostname string) (string, error) {
	if s.disabled {
		return "", nil
	}
	var ip string
	err := s.db.QueryRow(s.ph(`
		SELECT di.ip_address
		FROM device_interfaces di
		JOIN devices d ON d.id = di.device_id
		WHERE d.name = ?
		ORDER BY
			CASE di.interface_type
				WHEN 'management' THEN 0
				WHEN 'loopback' THEN 1
				WHEN 'vlan' THEN 2
				ELSE 3
			END,
			di.ip_address ASC
		LIMIT 1`), hostname).Scan(&ip)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", s.wrapErr("get_primary_ip", err)
	}
	return ip, nil
}

// GetStaleDevices returns devices whose last_seen predates now by more
// than daysThreshold days.
func (s *Store) GetStaleDevices(daysThreshold int) ([]model.Device, error) {
	if s.disabled {
		return nil, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -daysThreshold)
	rows, err := s.db.Query(s.ph(
		`SELECT id, name, serial_number, platform, hardware_model, capabilities, status, first_seen, last_seen
		 FROM devices WHERE last_seen < ? AND status = 'active'`), cutoff)
	if err != nil {
		return nil, s.wrapErr("get_stale_devices", err)
	}
	defer rows.Close()
	return scanDevices(rows)
}

// GetUnwalkedDevices returns placeholder devices: those recorded only from
// a neighbor sighting and never visited directly (serial_number still
// "unknown").
func (s *Store) GetUnwalkedDevices() ([]model.Device, error) {
	if s.disabled {
		return nil, nil
	}
	rows, err := s.db.Query(s.ph(
		`SELECT id, name, serial_number, platform, hardware_model, capabilities, status, first_seen, last_seen
		 FROM devices WHERE serial_number = 'unknown' AND status = 'active'`))
	if err != nil {
		return nil, s.wrapErr("get_unwalked_devices", err)
	}
	defer rows.Close()
	return scanDevices(rows)
}

func scanDevices(rows *sql.Rows) ([]model.Device, error) {
	var result []model.Device
	for rows.Next() {
		var d model.Device
		var caps string
		if err := rows.Scan(&d.ID, &d.Name, &d.SerialNumber, &d.Platform, &d.HardwareModel, &caps, &d.Status, &d.FirstSeen, &d.LastSeen); err != nil {
			return nil, err
		}
		d.Capabilities = splitCapabilities(caps)
		result = append(result, d)
	}
	return result, rows.Err()
}
