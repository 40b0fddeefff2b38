package crawl

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/marktegna/netwalker/pkg/inventory"
	"github.com/marktegna/netwalker/pkg/seed"
)

// LoadSeedFile opens the resumable CSV named by path as the seed source —
// source (a) of the three mutually exclusive sources in spec §4.8.
func LoadSeedFile(path string) (*seed.File, error) {
	return seed.Load(path)
}

// LoadStaleSeeds materializes a temporary CSV from the Inventory's stale-
// device query — source (b). staleCSVPath is a file under the operator's
// working directory rather than os.TempDir, so a resumed invocation of
// the same mode finds the same rows.
func LoadStaleSeeds(store *inventory.Store, daysThreshold int, staleCSVPath string) (*seed.File, error) {
	devices, err := store.GetStaleDevices(daysThreshold)
	if err != nil {
		return nil, fmt.Errorf("query stale devices: %w", err)
	}
	if existing, statErr := os.Stat(staleCSVPath); statErr == nil && !existing.IsDir() {
		return seed.Load(staleCSVPath)
	}
	if dir := filepath.Dir(staleCSVPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f := seed.FromDevices(staleCSVPath, devices)
	if err := f.Save(); err != nil {
		return nil, err
	}
	return f, nil
}

// LoadUnwalkedSeeds materializes a temporary CSV from the Inventory's
// unwalked-neighbor query — source (c): devices recorded only from a
// neighbor sighting and never themselves crawled.
func LoadUnwalkedSeeds(store *inventory.Store, unwalkedCSVPath string) (*seed.File, error) {
	devices, err := store.GetUnwalkedDevices()
	if err != nil {
		return nil, fmt.Errorf("query unwalked devices: %w", err)
	}
	if existing, statErr := os.Stat(unwalkedCSVPath); statErr == nil && !existing.IsDir() {
		return seed.Load(unwalkedCSVPath)
	}
	if dir := filepath.Dir(unwalkedCSVPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f := seed.FromDevices(unwalkedCSVPath, devices)
	if err := f.Save(); err != nil {
		return nil, err
	}
	return f, nil
}
