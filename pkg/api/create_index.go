package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

// HandleCreateIndex creates an index on a specific field in a collection
func (h *Handler) HandleCreateIndex(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]
	fieldName := vars["field"]

	if h.indexes == nil {
		WriteJSONError(w, http.StatusNotImplemented, "the configured store does not manage indexes")
		return
	}

	// The internal identity is always indexed by the store
	if fieldName == domain.FieldInternalID {
		WriteJSONError(w, http.StatusBadRequest, "cannot create index on _id field (automatically indexed)")
		return
	}

	if err := h.indexes.EnsureIndex(r.Context(), collName, fieldName); err != nil {
		h.writeError(w, "create index", collName, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":    true,
		"message":    "Index created successfully",
		"collection": collName,
		"field":      fieldName,
	})
}
