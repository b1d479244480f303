package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

// FirstRequest addresses the first item in store order matching Attributes
type FirstRequest struct {
	Attributes domain.Attributes    `json:"attributes"`
	Fields     domain.FieldSelector `json:"fields"`
	Updates    domain.Document      `json:"updates"`
}

// DeleteResponse reports the outcome of delete operations
type DeleteResponse struct {
	Success      bool   `json:"success"`
	Collection   string `json:"collection"`
	DeletedCount int64  `json:"deleted_count"`
}

// HandleGetFirst handles POST requests returning the first matching item
func (h *Handler) HandleGetFirst(w http.ResponseWriter, r *http.Request) {
	collName := mux.Vars(r)["coll"]

	h.logger.Infof("handleGetFirst called for collection '%s'", collName)

	var req FirstRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, "get first", collName, err)
		return
	}

	doc, err := h.accessor.GetByAttributes(r.Context(), collName, req.Attributes, selectorFrom(r, req.Fields))
	if err != nil {
		h.writeError(w, "get first", collName, err)
		return
	}
	if doc == nil {
		WriteJSONError(w, http.StatusNotFound, notFoundMessage(collName, ""))
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// HandleUpdateFirst handles PATCH requests updating the first matching item
func (h *Handler) HandleUpdateFirst(w http.ResponseWriter, r *http.Request) {
	collName := mux.Vars(r)["coll"]

	h.logger.Infof("handleUpdateFirst called for collection '%s'", collName)

	var req FirstRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, "update first", collName, err)
		return
	}

	doc, err := h.accessor.UpdateByAttributes(r.Context(), collName, req.Attributes, req.Updates, actorFrom(r))
	if err != nil {
		h.writeError(w, "update first", collName, err)
		return
	}
	if doc == nil {
		WriteJSONError(w, http.StatusNotFound, notFoundMessage(collName, ""))
		return
	}

	h.logger.Infof("Updated item '%s' in collection '%s'", doc.PID(), collName)
	writeJSON(w, http.StatusOK, doc)
}

// HandleDeleteFirst handles DELETE requests removing the first matching item
func (h *Handler) HandleDeleteFirst(w http.ResponseWriter, r *http.Request) {
	collName := mux.Vars(r)["coll"]

	h.logger.Infof("handleDeleteFirst called for collection '%s'", collName)

	var req FirstRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, "delete first", collName, err)
		return
	}

	deleted, err := h.accessor.DeleteByAttributes(r.Context(), collName, req.Attributes)
	if err != nil {
		h.writeError(w, "delete first", collName, err)
		return
	}
	if !deleted {
		WriteJSONError(w, http.StatusNotFound, notFoundMessage(collName, ""))
		return
	}

	writeJSON(w, http.StatusOK, DeleteResponse{Success: true, Collection: collName, DeletedCount: 1})
}
