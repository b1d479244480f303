package api

import (
	"net/http"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HandleHealth reports whether the store answers a ping
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.accessor.Ping(r.Context()); err != nil {
		h.logger.Warnf("health check failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:  "unhealthy",
			Message: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Message: "docpipe is running",
	})
}
