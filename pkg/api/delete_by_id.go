package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// HandleDeleteByPID handles DELETE requests to remove a specific item by pid
func (h *Handler) HandleDeleteByPID(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]
	pid := vars["pid"]

	h.logger.Infof("handleDeleteByPID called for collection '%s', item '%s'", collName, pid)

	deleted, err := h.accessor.DeleteByPID(r.Context(), collName, pid)
	if err != nil {
		h.writeError(w, "delete", collName, err)
		return
	}
	if !deleted {
		WriteJSONError(w, http.StatusNotFound, notFoundMessage(collName, pid))
		return
	}

	h.logger.Infof("Deleted item '%s' from collection '%s'", pid, collName)
	w.WriteHeader(http.StatusNoContent)
}
