package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

// HandleCreate handles POST requests creating a single item
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	collName := mux.Vars(r)["coll"]

	h.logger.Infof("handleCreate called for collection '%s'", collName)

	var item domain.Document
	if err := decodeBody(r, &item); err != nil {
		h.writeError(w, "create", collName, err)
		return
	}

	created, err := h.accessor.Create(r.Context(), collName, item, actorFrom(r))
	if err != nil {
		h.writeError(w, "create", collName, err)
		return
	}

	h.logger.Infof("Created item '%s' in collection '%s'", created.PID(), collName)
	writeJSON(w, http.StatusCreated, created)
}
