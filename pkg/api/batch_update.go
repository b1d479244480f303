package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

// BatchRequest selects items either by pid list or by attributes. Exactly
// one of Pids and Attributes must be present.
type BatchRequest struct {
	Pids       []string          `json:"pids"`
	Attributes domain.Attributes `json:"attributes"`
	Updates    domain.Document   `json:"updates"`
}

func (req BatchRequest) validate() error {
	if (req.Pids == nil) == (req.Attributes == nil) {
		return domain.InvalidArgumentf("exactly one of pids and attributes is required")
	}
	if len(req.Pids) > maxBatchSize {
		return domain.InvalidArgumentf("maximum %d pids allowed per batch", maxBatchSize)
	}
	return nil
}

// BatchUpdateResponse represents the response for batch update operations
type BatchUpdateResponse struct {
	Success      bool              `json:"success"`
	Message      string            `json:"message"`
	UpdatedCount int               `json:"updated_count"`
	Collection   string            `json:"collection"`
	Documents    []domain.Document `json:"documents"`
}

// HandleBatchUpdate handles PATCH requests to update multiple items
func (h *Handler) HandleBatchUpdate(w http.ResponseWriter, r *http.Request) {
	collName := mux.Vars(r)["coll"]

	h.logger.Infof("handleBatchUpdate called for collection '%s'", collName)

	var req BatchRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, "batch update", collName, err)
		return
	}
	if err := req.validate(); err != nil {
		h.writeError(w, "batch update", collName, err)
		return
	}

	var (
		docs []domain.Document
		err  error
	)
	if req.Pids != nil {
		docs, err = h.accessor.UpdateManyByPIDs(r.Context(), collName, req.Pids, req.Updates, actorFrom(r))
	} else {
		docs, err = h.accessor.UpdateManyByAttributes(r.Context(), collName, req.Attributes, req.Updates, actorFrom(r))
	}
	if err != nil {
		h.writeError(w, "batch update", collName, err)
		return
	}

	h.logger.Infof("Batch updated %d items in collection '%s'", len(docs), collName)
	writeJSON(w, http.StatusOK, BatchUpdateResponse{
		Success:      true,
		Message:      "Batch update completed successfully",
		UpdatedCount: len(docs),
		Collection:   collName,
		Documents:    docs,
	})
}

// HandleBatchDelete handles DELETE requests to remove multiple items
func (h *Handler) HandleBatchDelete(w http.ResponseWriter, r *http.Request) {
	collName := mux.Vars(r)["coll"]

	h.logger.Infof("handleBatchDelete called for collection '%s'", collName)

	var req BatchRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, "batch delete", collName, err)
		return
	}
	if err := req.validate(); err != nil {
		h.writeError(w, "batch delete", collName, err)
		return
	}

	var (
		n   int64
		err error
	)
	if req.Pids != nil {
		n, err = h.accessor.DeleteManyByPIDs(r.Context(), collName, req.Pids)
	} else {
		n, err = h.accessor.DeleteManyByAttributes(r.Context(), collName, req.Attributes)
	}
	if err != nil {
		h.writeError(w, "batch delete", collName, err)
		return
	}

	h.logger.Infof("Batch deleted %d items from collection '%s'", n, collName)
	writeJSON(w, http.StatusOK, DeleteResponse{Success: true, Collection: collName, DeletedCount: n})
}
