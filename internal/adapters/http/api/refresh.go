// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/huddle/internal/adapters/mq/queue"
)

// Refresher accepts on-demand snapshot refresh requests.
type Refresher interface {
	Enqueue(ctx context.Context, req queue.Request) queue.Outcome
}

// RefreshHandler handles on-demand refresh requests.
type RefreshHandler struct {
	refresher Refresher
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(refresher Refresher) *RefreshHandler {
	return &RefreshHandler{refresher: refresher}
}

type refreshResponse struct {
	Status string `json:"status"`
}

// HandleRefresh handles POST /api/refresh requests. A request lands on the
// refresh queue and is answered immediately; the snapshot updates once the
// background run completes. Requests made while a run is pending coalesce.
func (h *RefreshHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if h.refresher == nil {
		writeError(w, http.StatusServiceUnavailable, "not_configured", ErrRefreshNotConfigured)
		return
	}

	outcome := h.refresher.Enqueue(r.Context(), queue.Request{
		Reason:      "api",
		RequestedAt: time.Now(),
	})
	switch outcome {
	case queue.Accepted:
		writeJSON(w, http.StatusAccepted, refreshResponse{Status: string(outcome)})
	case queue.Coalesced:
		writeJSON(w, http.StatusOK, refreshResponse{Status: string(outcome)})
	default:
		writeError(w, http.StatusServiceUnavailable, "refresh_unavailable", ErrRefreshUnavailable)
	}
}
