package crawl

import "sync"

// visitedSet is the mutex-guarded set of normalized device identities
// (model.VisitKey) the Scheduler has already dequeued once. A device can
// be discovered as a neighbor of several others before any of them is
// actually visited; only the first dequeue wins.
type visitedSet struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newVisitedSet() *visitedSet {
	return &visitedSet{seen: make(map[string]bool)}
}

// TryVisit reports whether key was not already present, inserting it
// either way.
func (v *visitedSet) TryVisit(key string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.seen[key] {
		return false
	}
	v.seen[key] = true
	return true
}
