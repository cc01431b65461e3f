package tracker

import "sync"

// Dispatcher wakes workers that long-poll for newly assigned jobs. It is a
// notification channel only: the job table remains the source of truth, so a
// missed or dropped notification costs one poll interval, never a job.
type Dispatcher struct {
	mu   sync.Mutex
	subs map[string]map[chan JobInfo]struct{} // peerID -> subscribers
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{subs: make(map[string]map[chan JobInfo]struct{})}
}

// Notify delivers a freshly assigned job to every subscriber of the peer.
// Slow subscribers are skipped; they will see the job on their next poll.
func (d *Dispatcher) Notify(peerID string, j JobInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for ch := range d.subs[peerID] {
		select {
		case ch <- j:
		default:
		}
	}
}

// Subscribe registers interest in a peer's assignments. The caller must
// invoke the returned cancel function exactly once.
func (d *Dispatcher) Subscribe(peerID string) (chan JobInfo, func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ch := make(chan JobInfo, 8)
	if d.subs[peerID] == nil {
		d.subs[peerID] = make(map[chan JobInfo]struct{})
	}
	d.subs[peerID][ch] = struct{}{}
	return ch, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if subs := d.subs[peerID]; subs != nil {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(d.subs, peerID)
			}
		}
	}
}
