package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

// HandleUpdateByPID handles PATCH requests setting fields on one item
func (h *Handler) HandleUpdateByPID(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]
	pid := vars["pid"]

	h.logger.Infof("handleUpdateByPID called for collection '%s', item '%s'", collName, pid)

	var updates domain.Document
	if err := decodeBody(r, &updates); err != nil {
		h.writeError(w, "update", collName, err)
		return
	}

	doc, err := h.accessor.UpdateByPID(r.Context(), collName, pid, updates, actorFrom(r))
	if err != nil {
		h.writeError(w, "update", collName, err)
		return
	}
	if doc == nil {
		WriteJSONError(w, http.StatusNotFound, notFoundMessage(collName, pid))
		return
	}

	h.logger.Infof("Updated item '%s' in collection '%s'", pid, collName)
	writeJSON(w, http.StatusOK, doc)
}
