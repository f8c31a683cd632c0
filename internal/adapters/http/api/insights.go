// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/okian/huddle/internal/insights"
)

// maxInsightsBody bounds the request body relayed upstream.
const maxInsightsBody = 1 << 20

// InsightsForwarder relays a completion request upstream and returns the
// terminal answer. Nil means the proxy is not configured.
type InsightsForwarder interface {
	Forward(ctx context.Context, body []byte) (insights.Result, error)
}

// InsightsHandler handles dashboard insight generation requests.
type InsightsHandler struct {
	forwarder InsightsForwarder
}

// NewInsightsHandler creates a new insights handler.
func NewInsightsHandler(forwarder InsightsForwarder) *InsightsHandler {
	return &InsightsHandler{forwarder: forwarder}
}

// HandleGenerate handles POST /generate-insights requests. The body is
// relayed to the completion upstream verbatim and the upstream's terminal
// status and body are passed back, so the browser never needs the API key.
func (h *InsightsHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if h.forwarder == nil {
		writeError(w, http.StatusServiceUnavailable, "not_configured", ErrProxyNotConfigured)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxInsightsBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	result, err := h.forwarder.Forward(r.Context(), body)
	if err != nil {
		if errors.Is(err, insights.ErrRateLimited) {
			writeError(w, http.StatusTooManyRequests, "rate_limited", err)
			return
		}
		writeError(w, http.StatusBadGateway, "upstream_failed", err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(result.StatusCode)
	_, _ = w.Write(result.Body)
}
