package inventory

import "github.com/marktegna/netwalker/pkg/model"

// UpsertInterface is a strict insert-or-update on the full (device, name,
// ip) key: it never creates a second row for the same triple, matching
// spec §4.7's "Interface upsert" rule.
func (s *Store) UpsertInterface(deviceID int64, iface model.Interface) error {
	if s.disabled {
		return nil
	}
	res, err := s.db.Exec(s.ph(
		`UPDATE device_interfaces SET mask = ?, interface_type = ?
		 WHERE device_id = ? AND interface_name = ? AND ip_address = ?`),
		iface.Mask, string(iface.Type), deviceID, iface.Name, iface.IPAddress,
	)
	if err != nil {
		return s.wrapErr("update_interface", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err = s.db.Exec(s.ph(
		`INSERT INTO device_interfaces (device_id, interface_name, ip_address, mask, interface_type)
		 VALUES (?, ?, ?, ?, ?)`),
		deviceID, iface.Name, iface.IPAddress, iface.Mask, string(iface.Type),
	)
	return s.wrapErr("insert_interface", err)
}

// UpsertInterfaces upserts every interface in ifaces, stopping at the
// first failure — each call is one transactional unit per spec §4.7's
// failure semantics ("on failure the in-memory record is left untouched
// and the error is returned to the caller").
func (s *Store) UpsertInterfaces(deviceID int64, ifaces []model.Interface) error {
	for _, iface := range ifaces {
		if err := s.UpsertInterface(deviceID, iface); err != nil {
			return err
		}
	}
	return nil
}
