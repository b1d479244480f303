package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

// HandleGetByPID handles GET requests to retrieve a specific item by pid.
// Without a fields parameter only the pid is returned.
func (h *Handler) HandleGetByPID(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]
	pid := vars["pid"]

	h.logger.Infof("handleGetByPID called for collection '%s', item '%s'", collName, pid)

	doc, err := h.accessor.GetByPID(r.Context(), collName, pid, selectorFrom(r, domain.Unspecified()))
	if err != nil {
		h.writeError(w, "get", collName, err)
		return
	}
	if doc == nil {
		WriteJSONError(w, http.StatusNotFound, notFoundMessage(collName, pid))
		return
	}

	writeJSON(w, http.StatusOK, doc)
}
