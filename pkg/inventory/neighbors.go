package inventory

import (
	"time"

	"github.com/marktegna/netwalker/pkg/model"
)

// UpsertNeighbor records one neighbor sighting observed from sourceDeviceID.
// The destination is resolved to a device_id, creating a placeholder
// Device (serial_number "unknown") if the neighbor has never been visited
// directly.
//
// The pair (source, dest) is canonicalized — lower device_id first, tied
// on interface name — before the write, so the same adjacency reported
// from either end always targets the same row; a UNIQUE constraint on the
// canonical tuple (schema.go) plus a single INSERT ... ON CONFLICT makes
// the upsert atomic. Two workers crawling both ends of a mutual adjacency
// concurrently (spec §8 scenario S3) race the database, not a Go-level
// check-then-act, so exactly one row survives regardless of which worker
// commits first.
func (s *Store) UpsertNeighbor(sourceDeviceID int64, sourceInterface string, sighting model.NeighborSighting) error {
	if s.disabled {
		return nil
	}

	destID, err := s.UpsertDevice(&model.Device{
		Name:         sighting.RemoteName,
		SerialNumber: model.UnknownSerial,
		Platform:     sighting.RemotePlatform,
		Capabilities: sighting.Capabilities,
	})
	if err != nil {
		return err
	}

	destInterface := sighting.RemoteInterface
	now := time.Now().UTC()

	a, aIface, b, bIface := sourceDeviceID, sourceInterface, destID, destInterface
	if b < a || (b == a && bIface < aIface) {
		a, aIface, b, bIface = b, bIface, a, aIface
	}

	_, err = s.db.Exec(s.ph(`
		INSERT INTO device_neighbors (source_device_id, source_interface, dest_device_id, dest_interface, protocol, last_seen)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_device_id, source_interface, dest_device_id, dest_interface)
		DO UPDATE SET protocol = excluded.protocol, last_seen = excluded.last_seen`),
		a, aIface, b, bIface, string(sighting.Protocol), now,
	)
	return s.wrapErr("upsert_neighbor", err)
}

// UpsertNeighbors upserts every sighting in sightings, attributed to
// sourceDeviceID.
func (s *Store) UpsertNeighbors(sourceDeviceID int64, sightings []model.NeighborSighting) error {
	for _, n := range sightings {
		if err := s.UpsertNeighbor(sourceDeviceID, n.LocalInterface, n); err != nil {
			return err
		}
	}
	return nil
}
