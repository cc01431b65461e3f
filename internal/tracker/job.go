package tracker

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	StatusQueued    JobStatus = "QUEUED"
	StatusAssigned  JobStatus = "ASSIGNED"
	StatusRunning   JobStatus = "RUNNING"
	StatusCompleted JobStatus = "COMPLETED"
	StatusFailed    JobStatus = "FAILED"
)

// allowedTransitions is the table consulted before every external status
// update. QUEUED jobs can only move via assignment at creation, and the
// terminal states have no exits. RUNNING -> RUNNING is permitted so a worker
// may re-report progress.
var allowedTransitions = map[JobStatus]map[JobStatus]bool{
	StatusAssigned: {StatusRunning: true, StatusCompleted: true, StatusFailed: true},
	StatusRunning:  {StatusRunning: true, StatusCompleted: true, StatusFailed: true},
}

func validStatus(s JobStatus) bool {
	switch s {
	case StatusQueued, StatusAssigned, StatusRunning, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// jobRecord is the store-owned mutable state for one inference request.
type jobRecord struct {
	ID              string
	RequesterPeerID string
	AssignedPeerID  string
	ModelName       string
	Status          JobStatus
	PayloadURL      string
	ResultURL       string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// JobInfo is the immutable snapshot handed to callers.
type JobInfo struct {
	ID              string    `json:"id"`
	RequesterPeerID string    `json:"requester_peer_id"`
	AssignedPeerID  string    `json:"assigned_peer_id,omitempty"`
	ModelName       string    `json:"model_name"`
	Status          JobStatus `json:"status"`
	PayloadURL      string    `json:"payload_url,omitempty"`
	ResultURL       string    `json:"result_url,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (j *jobRecord) snapshot() JobInfo {
	return JobInfo{
		ID:              j.ID,
		RequesterPeerID: j.RequesterPeerID,
		AssignedPeerID:  j.AssignedPeerID,
		ModelName:       j.ModelName,
		Status:          j.Status,
		PayloadURL:      j.PayloadURL,
		ResultURL:       j.ResultURL,
		ErrorMessage:    j.ErrorMessage,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
	}
}

// Engine maintains job records and their lifecycle, and binds each new job
// to a peer at creation time.
type Engine struct {
	s        *Store
	dispatch *Dispatcher
}

// NewEngine builds a job engine over the shared store. dispatch may be nil
// when no one long-polls for assignments.
func NewEngine(s *Store, dispatch *Dispatcher) *Engine {
	return &Engine{s: s, dispatch: dispatch}
}

// Create registers a new job and immediately attempts assignment. Selection
// and assignment happen under one lock acquisition, so two concurrent
// creations cannot both pick the same apparently-best peer based on the same
// stale view. A job with no eligible peer stays QUEUED.
func (e *Engine) Create(requesterPeerID, modelName, payloadURL string) (JobInfo, error) {
	e.s.mu.Lock()
	if _, ok := e.s.peers[requesterPeerID]; !ok {
		e.s.mu.Unlock()
		return JobInfo{}, fmt.Errorf("%w: requester peer %s is not registered", ErrInvalidInput, requesterPeerID)
	}
	now := e.s.now()
	j := &jobRecord{
		ID:              uuid.NewString(),
		RequesterPeerID: requesterPeerID,
		ModelName:       modelName,
		Status:          StatusQueued,
		PayloadURL:      payloadURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	e.s.refreshLivenessLocked()
	if best := e.s.selectPeerLocked(modelName); best != nil {
		j.AssignedPeerID = best.ID
		j.Status = StatusAssigned
	}
	e.s.jobs[j.ID] = j
	e.s.jobOrder = append(e.s.jobOrder, j.ID)
	info := j.snapshot()
	e.s.mu.Unlock()

	if info.Status == StatusAssigned && e.dispatch != nil {
		e.dispatch.Notify(info.AssignedPeerID, info)
	}
	return info, nil
}

func (e *Engine) Get(jobID string) (JobInfo, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	j, ok := e.s.jobs[jobID]
	if !ok {
		return JobInfo{}, ErrJobNotFound
	}
	return j.snapshot(), nil
}

// List returns all job snapshots in insertion order.
func (e *Engine) List() []JobInfo {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	out := make([]JobInfo, 0, len(e.s.jobOrder))
	for _, id := range e.s.jobOrder {
		out = append(out, e.s.jobs[id].snapshot())
	}
	return out
}

// UpdateStatus moves a job along its lifecycle. The transition table is
// consulted before anything is written; an allowed update overwrites result
// and error references with exactly what was passed.
func (e *Engine) UpdateStatus(jobID string, status JobStatus, resultURL, errorMessage string) (JobInfo, error) {
	if !validStatus(status) {
		return JobInfo{}, fmt.Errorf("%w: unknown job status %q", ErrInvalidInput, status)
	}
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	j, ok := e.s.jobs[jobID]
	if !ok {
		return JobInfo{}, ErrJobNotFound
	}
	if !allowedTransitions[j.Status][status] {
		return JobInfo{}, fmt.Errorf("%w: transition %s -> %s is not allowed", ErrInvalidInput, j.Status, status)
	}
	j.Status = status
	j.ResultURL = resultURL
	j.ErrorMessage = errorMessage
	j.UpdatedAt = e.s.now()
	return j.snapshot(), nil
}

// NextAssigned returns the oldest job assigned to a peer that the peer has
// not yet picked up. Insertion order doubles as creation order, which makes
// the choice deterministic. The second return is false when nothing is
// pending.
func (e *Engine) NextAssigned(peerID string) (JobInfo, bool, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if _, ok := e.s.peers[peerID]; !ok {
		return JobInfo{}, false, ErrPeerNotFound
	}
	for _, id := range e.s.jobOrder {
		j := e.s.jobs[id]
		if j.AssignedPeerID == peerID && j.Status == StatusAssigned {
			return j.snapshot(), true, nil
		}
	}
	return JobInfo{}, false, nil
}
