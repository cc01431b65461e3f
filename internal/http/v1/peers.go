package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/InferaIO/infera/internal/metrics"
	"github.com/InferaIO/infera/internal/tracker"
)

type registerPeerReq struct {
	Name             string             `json:"name"`
	Host             string             `json:"host"`
	Port             int                `json:"port"`
	HasGPU           bool               `json:"has_gpu"`
	GPUMemoryTotalMB *int64             `json:"gpu_memory_total_mb"`
	GPUMemoryFreeMB  *int64             `json:"gpu_memory_free_mb"`
	Models           []tracker.ModelRef `json:"models"`
}

type heartbeatReq struct {
	GPUMemoryFreeMB    *int64   `json:"gpu_memory_free_mb"`
	CurrentLoadPercent *float64 `json:"current_load_percent"`
}

// registerPeer handles POST /peers/register
func (a *API) registerPeer(w http.ResponseWriter, r *http.Request) {
	var req registerPeerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Host == "" {
		http.Error(w, "name and host are required", http.StatusBadRequest)
		return
	}
	if req.Port <= 0 || req.Port > 65535 {
		http.Error(w, "port must be in (0,65535]", http.StatusBadRequest)
		return
	}

	peer, err := a.Directory.Register(tracker.Registration{
		Name:             req.Name,
		Host:             req.Host,
		Port:             req.Port,
		HasGPU:           req.HasGPU,
		GPUMemoryTotalMB: req.GPUMemoryTotalMB,
		GPUMemoryFreeMB:  req.GPUMemoryFreeMB,
		Models:           req.Models,
	})
	if err != nil {
		writeTrackerError(w, err)
		return
	}
	metrics.PeerRegistrations.Inc()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(peer)
}

// heartbeatPeer handles POST /peers/{peerId}/heartbeat
func (a *API) heartbeatPeer(w http.ResponseWriter, r *http.Request) {
	peerID := chi.URLParam(r, "peerId")

	var req heartbeatReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	peer, err := a.Directory.Heartbeat(peerID, tracker.HeartbeatUpdate{
		GPUMemoryFreeMB: req.GPUMemoryFreeMB,
		LoadPercent:     req.CurrentLoadPercent,
	})
	if err != nil {
		writeTrackerError(w, err)
		return
	}
	metrics.Heartbeats.Inc()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(peer)
}

// listPeers handles GET /peers?only_online=
func (a *API) listPeers(w http.ResponseWriter, r *http.Request) {
	onlyOnline := true
	if v := r.URL.Query().Get("only_online"); v == "false" || v == "0" {
		onlyOnline = false
	}
	peers := a.Directory.List(onlyOnline)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(peers)
}

// writeTrackerError maps core error kinds to HTTP status codes:
// not-found -> 404, validation failures -> 400.
func writeTrackerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tracker.ErrPeerNotFound), errors.Is(err, tracker.ErrJobNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, tracker.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
