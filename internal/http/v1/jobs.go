package v1

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/InferaIO/infera/internal/metrics"
	"github.com/InferaIO/infera/internal/tracker"
)

type createJobReq struct {
	RequesterPeerID string `json:"requester_peer_id"`
	ModelName       string `json:"model_name"`
	PayloadURL      string `json:"payload_url"`
}

type updateJobStatusReq struct {
	Status       tracker.JobStatus `json:"status"`
	ResultURL    string            `json:"result_url"`
	ErrorMessage string            `json:"error_message"`
}

// createJob handles POST /jobs
func (a *API) createJob(w http.ResponseWriter, r *http.Request) {
	var req createJobReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.RequesterPeerID == "" || req.ModelName == "" {
		http.Error(w, "requester_peer_id and model_name are required", http.StatusBadRequest)
		return
	}

	job, err := a.Engine.Create(req.RequesterPeerID, req.ModelName, req.PayloadURL)
	if err != nil {
		writeTrackerError(w, err)
		return
	}
	metrics.JobsCreated.Inc()
	if job.Status == tracker.StatusAssigned {
		metrics.JobsAssigned.Inc()
	} else {
		metrics.JobsUnassigned.Inc()
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/jobs/%s", job.ID))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(job)
}

// listJobs handles GET /jobs
func (a *API) listJobs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(a.Engine.List())
}

// getJob handles GET /jobs/{jobId}
func (a *API) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := a.Engine.Get(chi.URLParam(r, "jobId"))
	if err != nil {
		writeTrackerError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(job)
}

// updateJobStatus handles POST /jobs/{jobId}/status
func (a *API) updateJobStatus(w http.ResponseWriter, r *http.Request) {
	var req updateJobStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	job, err := a.Engine.UpdateStatus(chi.URLParam(r, "jobId"), req.Status, req.ResultURL, req.ErrorMessage)
	if err != nil {
		writeTrackerError(w, err)
		return
	}
	metrics.JobStatusUpdates.WithLabelValues(string(job.Status)).Inc()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(job)
}
