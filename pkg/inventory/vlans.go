package inventory

import (
	"database/sql"

	"github.com/marktegna/netwalker/pkg/model"
)

// upsertVLAN returns the id of the vlan row for (number, name), inserting
// it if absent.
func (s *Store) upsertVLAN(number int, name string) (int64, error) {
	var id int64
	err := s.db.QueryRow(s.ph(
		`SELECT id FROM vlans WHERE vlan_number = ? AND vlan_name = ?`), number, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, s.wrapErr("select_vlan", err)
	}
	res, err := s.db.Exec(s.ph(
		`INSERT INTO vlans (vlan_number, vlan_name) VALUES (?, ?)`), number, name)
	if err != nil {
		return 0, s.wrapErr("insert_vlan", err)
	}
	return res.LastInsertId()
}

// UpsertDeviceVLAN links deviceID to the VLAN (number, name), detecting a
// name change on a previously-linked VLAN number and replacing the link
// row rather than accumulating a duplicate, per spec §3's VLAN invariant.
func (s *Store) UpsertDeviceVLAN(deviceID int64, vlan model.DeviceVLANFact) error {
	if s.disabled {
		return nil
	}

	// Drop any existing link to a vlan row with this number under a
	// different name before linking to the current one.
	if _, err := s.db.Exec(s.ph(`
		DELETE FROM device_vlans WHERE device_id = ? AND vlan_id IN (
			SELECT id FROM vlans WHERE vlan_number = ? AND vlan_name != ?
		)`), deviceID, vlan.Number, vlan.Name); err != nil {
		return s.wrapErr("replace_device_vlan", err)
	}

	vlanID, err := s.upsertVLAN(vlan.Number, vlan.Name)
	if err != nil {
		return err
	}

	res, err := s.db.Exec(s.ph(
		`UPDATE device_vlans SET port_count = ? WHERE device_id = ? AND vlan_id = ?`),
		vlan.PortCount, deviceID, vlanID,
	)
	if err != nil {
		return s.wrapErr("update_device_vlan", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err = s.db.Exec(s.ph(
		`INSERT INTO device_vlans (device_id, vlan_id, port_count) VALUES (?, ?, ?)`),
		deviceID, vlanID, vlan.PortCount,
	)
	return s.wrapErr("insert_device_vlan", err)
}

// UpsertDeviceVLANs upserts every VLAN link in vlans for deviceID.
func (s *Store) UpsertDeviceVLANs(deviceID int64, vlans []model.DeviceVLANFact) error {
	for _, v := range vlans {
		if err := s.UpsertDeviceVLAN(deviceID, v); err != nil {
			return err
		}
	}
	return nil
}
