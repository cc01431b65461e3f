package tracker

import (
	"context"
	"sync"
	"time"
)

// DefaultLivenessTimeout is how long a peer may stay silent before it is
// classified offline.
const DefaultLivenessTimeout = 30 * time.Second

// Store owns every peer and job record for the tracker process. A single
// mutex guards both collections so that job creation can read peer state and
// write the assignment as one critical section; nothing outside this package
// ever holds a live record, only copies.
type Store struct {
	mu sync.Mutex

	peers     map[string]*peerRecord
	peerOrder []string

	jobs     map[string]*jobRecord
	jobOrder []string

	livenessTimeout time.Duration
	now             func() time.Time
}

// NewStore returns an empty store. A non-positive livenessTimeout selects
// DefaultLivenessTimeout.
func NewStore(livenessTimeout time.Duration) *Store {
	if livenessTimeout <= 0 {
		livenessTimeout = DefaultLivenessTimeout
	}
	return &Store{
		peers:           make(map[string]*peerRecord),
		jobs:            make(map[string]*jobRecord),
		livenessTimeout: livenessTimeout,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// onlineAt is the single definition of the liveness policy, shared by the
// lazy read path and the background sweep.
func onlineAt(now, lastHeartbeat time.Time, timeout time.Duration) bool {
	return now.Sub(lastHeartbeat) <= timeout
}

// refreshLivenessLocked re-evaluates every peer's online flag. Caller must
// hold s.mu.
func (s *Store) refreshLivenessLocked() {
	now := s.now()
	for _, p := range s.peers {
		p.Online = onlineAt(now, p.LastHeartbeat, s.livenessTimeout)
	}
}

// OnlineCount reports how many peers are currently online. Used by the
// metrics gauge.
func (s *Store) OnlineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLivenessLocked()
	n := 0
	for _, p := range s.peers {
		if p.Online {
			n++
		}
	}
	return n
}

// Sweep proactively flips stale peers offline every interval until ctx is
// cancelled. Purely a staleness bound; reads apply the same predicate lazily,
// so running the sweep changes no observable contract.
func (s *Store) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			s.refreshLivenessLocked()
			s.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}
