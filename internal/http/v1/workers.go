package v1

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// maxNextJobWait caps how long a worker may hold the long-poll open.
const maxNextJobWait = 30 * time.Second

// nextJob handles GET /workers/{peerId}/next-job[?wait=15s]
//
// Responds 200 with the oldest not-yet-picked-up assignment, or 204 when the
// peer has none. With wait set, the request blocks until an assignment lands
// or the wait elapses.
func (a *API) nextJob(w http.ResponseWriter, r *http.Request) {
	peerID := chi.URLParam(r, "peerId")

	var wait time.Duration
	if v := r.URL.Query().Get("wait"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			http.Error(w, "wait must be a non-negative duration", http.StatusBadRequest)
			return
		}
		if d > maxNextJobWait {
			d = maxNextJobWait
		}
		wait = d
	}

	// Subscribe before the first lookup so an assignment landing between the
	// two cannot be missed.
	var woken <-chan struct{}
	if wait > 0 && a.Dispatch != nil {
		ch, cancel := a.Dispatch.Subscribe(peerID)
		defer cancel()
		wakeups := make(chan struct{}, 1)
		go func() {
			for range ch {
				select {
				case wakeups <- struct{}{}:
				default:
				}
			}
		}()
		woken = wakeups
	}

	deadline := time.NewTimer(wait)
	defer deadline.Stop()

	for {
		job, ok, err := a.Engine.NextAssigned(peerID)
		if err != nil {
			writeTrackerError(w, err)
			return
		}
		if ok {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			_ = json.NewEncoder(w).Encode(job)
			return
		}
		if wait == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		select {
		case <-woken:
			// re-check the job table; the notification is only a hint
		case <-deadline.C:
			w.WriteHeader(http.StatusNoContent)
			return
		case <-r.Context().Done():
			return
		}
	}
}
