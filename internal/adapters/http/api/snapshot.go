// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// SnapshotHandler serves the latest assembled dashboard document.
type SnapshotHandler struct {
	deps Dependencies
}

// NewSnapshotHandler creates a new snapshot handler.
func NewSnapshotHandler(deps Dependencies) *SnapshotHandler {
	return &SnapshotHandler{deps: deps}
}

// HandleSnapshot handles GET /api/dashboard-data requests. Before the
// first pipeline run completes there is nothing to serve and the endpoint
// answers 404; clients fall back to the statically deployed snapshot file.
func (h *SnapshotHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	doc := h.deps.LastRun()
	if doc == nil {
		writeError(w, http.StatusNotFound, "no_snapshot", ErrNoSnapshot)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
