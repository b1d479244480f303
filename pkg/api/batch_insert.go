package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

// BatchCreateRequest represents the request body for batch create operations
type BatchCreateRequest struct {
	Items []domain.Document `json:"items"`
}

// BatchCreateResponse represents the response for batch create operations
type BatchCreateResponse struct {
	Success      bool              `json:"success"`
	Message      string            `json:"message"`
	CreatedCount int               `json:"created_count"`
	Collection   string            `json:"collection"`
	Documents    []domain.Document `json:"documents"`
}

// HandleBatchCreate handles POST requests creating several items at once
func (h *Handler) HandleBatchCreate(w http.ResponseWriter, r *http.Request) {
	collName := mux.Vars(r)["coll"]

	h.logger.Infof("handleBatchCreate called for collection '%s'", collName)

	var req BatchCreateRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, "batch create", collName, err)
		return
	}
	if len(req.Items) > maxBatchSize {
		WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("Maximum %d items allowed per batch", maxBatchSize))
		return
	}

	created, err := h.accessor.CreateMany(r.Context(), collName, req.Items, actorFrom(r))
	if err != nil {
		h.writeError(w, "batch create", collName, err)
		return
	}

	h.logger.Infof("Created %d items in collection '%s'", len(created), collName)
	writeJSON(w, http.StatusCreated, BatchCreateResponse{
		Success:      true,
		Message:      "Batch create completed successfully",
		CreatedCount: len(created),
		Collection:   collName,
		Documents:    created,
	})
}
