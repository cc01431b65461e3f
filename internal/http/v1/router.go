package v1

import (
	"github.com/go-chi/chi/v5"

	"github.com/InferaIO/infera/internal/tracker"
)

// API bundles the core components the REST handlers operate on. One instance
// is constructed in main and injected here; there are no package-level
// singletons.
type API struct {
	Directory *tracker.Directory
	Engine    *tracker.Engine
	Dispatch  *tracker.Dispatcher
}

// Router returns the chi.Router for REST API v1.
func Router(api *API) chi.Router {
	r := chi.NewRouter()

	// Peer endpoints
	r.Post("/peers/register", api.registerPeer)
	r.Post("/peers/{peerId}/heartbeat", api.heartbeatPeer)
	r.Get("/peers", api.listPeers)

	// Job endpoints
	r.Post("/jobs", api.createJob)
	r.Get("/jobs", api.listJobs)
	r.Get("/jobs/{jobId}", api.getJob)
	r.Post("/jobs/{jobId}/status", api.updateJobStatus)

	// Worker polling endpoint
	r.Get("/workers/{peerId}/next-job", api.nextJob)

	return r
}
