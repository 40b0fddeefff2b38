package inventory

import "github.com/marktegna/netwalker/pkg/model"

// UpsertStackMember upserts a single stack row keyed by (device_id,
// switch_number), per spec §3's StackMember key.
func (s *Store) UpsertStackMember(deviceID int64, m model.StackMember) error {
	if s.disabled {
		return nil
	}
	res, err := s.db.Exec(s.ph(`
		UPDATE device_stack_members
		SET role = ?, priority = ?, hardware_model = ?, serial_number = ?, mac_address = ?, version_string = ?, state = ?
		WHERE device_id = ? AND switch_number = ?`),
		string(m.Role), m.Priority, m.HardwareModel, m.SerialNumber, m.MACAddress, m.Version, m.State,
		deviceID, m.SwitchNumber,
	)
	if err != nil {
		return s.wrapErr("update_stack_member", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err = s.db.Exec(s.ph(`
		INSERT INTO device_stack_members
			(device_id, switch_number, role, priority, hardware_model, serial_number, mac_address, version_string, state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		deviceID, m.SwitchNumber, string(m.Role), m.Priority, m.HardwareModel, m.SerialNumber, m.MACAddress, m.Version, m.State,
	)
	return s.wrapErr("insert_stack_member", err)
}

// UpsertStackMembers upserts every member in members for deviceID. A prior
// stack whose membership has shrunk (a member physically removed) is left
// in place rather than deleted here — stack composition changes are rare
// enough that a maintenance pass, not every crawl visit, should reconcile
// removed members.
func (s *Store) UpsertStackMembers(deviceID int64, members []model.StackMember) error {
	for _, m := range members {
		if err := s.UpsertStackMember(deviceID, m); err != nil {
			return err
		}
	}
	return nil
}
