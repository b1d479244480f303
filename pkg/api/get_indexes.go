package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// HandleGetIndexes handles GET requests to retrieve all indexes for a collection
func (h *Handler) HandleGetIndexes(w http.ResponseWriter, r *http.Request) {
	collName := mux.Vars(r)["coll"]

	h.logger.Infof("handleGetIndexes called for collection '%s'", collName)

	if h.indexes == nil {
		WriteJSONError(w, http.StatusNotImplemented, "the configured store does not manage indexes")
		return
	}

	indexes, err := h.indexes.Indexes(r.Context(), collName)
	if err != nil {
		h.writeError(w, "get indexes", collName, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"collection":  collName,
		"indexes":     indexes,
		"index_count": len(indexes),
	})

	h.logger.Infof("Retrieved %d indexes for collection '%s'", len(indexes), collName)
}
