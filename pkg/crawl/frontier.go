package crawl

import (
	"sync"

	"github.com/marktegna/netwalker/pkg/model"
)

// frontier is the FIFO queue of pending FrontierEntry values shared by the
// worker pool. Workers block on a condition variable when the queue is
// empty but other workers are still in flight, per spec §4.8 step 1 — a
// worker only terminates once both the queue and the in-flight counter are
// empty, or the frontier has been cancelled.
type frontier struct {
	mu        sync.Mutex
	cond      *sync.Cond
	entries   []model.FrontierEntry
	inFlight  int
	cancelled bool
}

func newFrontier() *frontier {
	f := &frontier{}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Push appends entry to the queue and wakes one blocked worker.
func (f *frontier) Push(entry model.FrontierEntry) {
	f.mu.Lock()
	f.entries = append(f.entries, entry)
	f.mu.Unlock()
	f.cond.Signal()
}

// Dequeue blocks until an entry is available, the frontier has drained
// (empty queue, zero in-flight), or cancellation has been requested. A
// dequeued entry counts toward in-flight until the caller calls Done; Done
// is owed exactly once per call that returns ok == true.
func (f *frontier) Dequeue() (model.FrontierEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for {
		if f.cancelled {
			return model.FrontierEntry{}, false
		}
		if len(f.entries) > 0 {
			e := f.entries[0]
			f.entries = f.entries[1:]
			f.inFlight++
			return e, true
		}
		if f.inFlight == 0 {
			return model.FrontierEntry{}, false
		}
		f.cond.Wait()
	}
}

// Done marks one previously dequeued entry as finished, decrementing the
// in-flight counter and waking any workers blocked on an empty queue so
// they can observe drain-to-completion.
func (f *frontier) Done() {
	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
	f.cond.Broadcast()
}

// Cancel sets the cancellation flag and wakes every blocked worker so each
// can observe it on its next loop iteration rather than waiting for more
// work that will never come.
func (f *frontier) Cancel() {
	f.mu.Lock()
	f.cancelled = true
	f.mu.Unlock()
	f.cond.Broadcast()
}

func (f *frontier) Cancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}
