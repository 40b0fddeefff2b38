// Package seed implements the resumable seed file: a CSV of
// (hostname, ip_address, status, error_details) rows that the Crawl
// Scheduler consumes as its frontier's depth-0 entries and rewrites as it
// runs, so that an interrupted crawl can resume from the first blank row.
package seed

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/marktegna/netwalker/pkg/model"
)

// Status values recognized in the status column.
const (
	StatusPending = ""
	StatusDone    = "done"
	StatusError   = "error"
)

var header = []string{"hostname", "ip_address", "status", "error_details"}

// Row is one seed file entry.
type Row struct {
	Hostname     string
	IPAddress    string
	Status       string
	ErrorDetails string
}

// Pending reports whether the row still needs to be visited.
func (r Row) Pending() bool {
	return r.Status != StatusDone
}

// File is a seed CSV held in memory, rewritten to disk on every mutation so
// that the file on disk always reflects the crawl's current progress.
type File struct {
	mu   sync.Mutex
	path string
	rows []Row
	// index maps hostname to its position in rows, for O(1) lookup/update.
	index map[string]int
}

// Load reads the seed file at path. A missing file yields an empty File —
// the caller populates it with Add and Save's the result, matching how a
// stale/unwalked-devices query materializes a temporary CSV per spec §4.8.
func Load(path string) (*File, error) {
	f := &File{path: path, index: make(map[string]int)}

	data, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("seed: open %s: %w", path, err)
	}
	defer data.Close()

	reader := csv.NewReader(data)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("seed: parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return f, nil
	}

	for _, rec := range records[1:] {
		row := Row{}
		if len(rec) > 0 {
			row.Hostname = rec[0]
		}
		if len(rec) > 1 {
			row.IPAddress = rec[1]
		}
		if len(rec) > 2 {
			row.Status = rec[2]
		}
		if len(rec) > 3 {
			row.ErrorDetails = rec[3]
		}
		if row.Hostname == "" {
			continue
		}
		f.index[row.Hostname] = len(f.rows)
		f.rows = append(f.rows, row)
	}
	return f, nil
}

// FromDevices materializes a new seed File in memory from a device list —
// used for the `rewalk-stale` and `walk-unwalked` seed sources, so that
// both behave identically to a CSV-backed crawl from the Scheduler's point
// of view. The caller is responsible for calling Save to persist it.
func FromDevices(path string, devices []model.Device) *File {
	f := &File{path: path, index: make(map[string]int)}
	for _, d := range devices {
		f.addLocked(d.Name, "")
	}
	return f
}

// Rows returns a snapshot of every row currently held.
func (f *File) Rows() []Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Row, len(f.rows))
	copy(out, f.rows)
	return out
}

// Pending returns every row whose status is not "done", in file order —
// the set a resumed crawl re-enqueues.
func (f *File) Pending() []Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Row
	for _, r := range f.rows {
		if r.Pending() {
			out = append(out, r)
		}
	}
	return out
}

// Add appends a new pending row for hostname if it is not already present
// — used when the crawl discovers a new neighbor hostname, per spec
// §4.8 step 7 ("also update the CSV if it is a new hostname"). Returns
// whether a row was added.
func (f *File) Add(hostname, ip string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.index[hostname]; ok {
		return false
	}
	f.addLocked(hostname, ip)
	return true
}

func (f *File) addLocked(hostname, ip string) {
	f.index[hostname] = len(f.rows)
	f.rows = append(f.rows, Row{Hostname: hostname, IPAddress: ip})
}

// MarkDone records a successful visit for hostname.
func (f *File) MarkDone(hostname string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i, ok := f.index[hostname]; ok {
		f.rows[i].Status = StatusDone
		f.rows[i].ErrorDetails = ""
	}
}

// MarkError records a failed visit for hostname with the given error kind
// (e.g. "unreachable", "no_ip", "timeout", "database").
func (f *File) MarkError(hostname, kind string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i, ok := f.index[hostname]; ok {
		f.rows[i].Status = StatusError
		f.rows[i].ErrorDetails = kind
		return
	}
	f.addLocked(hostname, "")
	f.rows[len(f.rows)-1].Status = StatusError
	f.rows[len(f.rows)-1].ErrorDetails = kind
}

// Save rewrites the seed file at its path. The whole file is rewritten on
// every call, trading some I/O for a simple "always consistent" on-disk
// representation that survives a crash between rows.
func (f *File) Save() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saveLocked()
}

func (f *File) saveLocked() error {
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("seed: create directory for %s: %w", f.path, err)
		}
	}

	tmp := f.path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("seed: create %s: %w", tmp, err)
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(header); err != nil {
		out.Close()
		return fmt.Errorf("seed: write header: %w", err)
	}
	for _, r := range f.rows {
		if err := writer.Write([]string{r.Hostname, r.IPAddress, r.Status, r.ErrorDetails}); err != nil {
			out.Close()
			return fmt.Errorf("seed: write row %s: %w", r.Hostname, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		out.Close()
		return fmt.Errorf("seed: flush %s: %w", tmp, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("seed: close %s: %w", tmp, err)
	}
	return os.Rename(tmp, f.path)
}

// MarkDoneAndSave and MarkErrorAndSave combine the mutation with a
// synchronous Save, used by the Scheduler after each device visit so a
// crash leaves the CSV in a consistent, resumable state.
func (f *File) MarkDoneAndSave(hostname string) error {
	f.MarkDone(hostname)
	return f.Save()
}

func (f *File) MarkErrorAndSave(hostname, kind string) error {
	f.MarkError(hostname, kind)
	return f.Save()
}

func (f *File) AddAndSave(hostname, ip string) error {
	if !f.Add(hostname, ip) {
		return nil
	}
	return f.Save()
}
