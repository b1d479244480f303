package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

// ArrayRequest carries the element to append or remove. Attributes is only
// read by the attribute-scoped endpoints.
type ArrayRequest struct {
	Attributes domain.Attributes `json:"attributes"`
	Element    json.RawMessage   `json:"element"`
}

// ArrayResponse lists the items touched by an attribute-scoped array update
type ArrayResponse struct {
	Success      bool              `json:"success"`
	Collection   string            `json:"collection"`
	UpdatedCount int               `json:"updated_count"`
	Documents    []domain.Document `json:"documents"`
}

type pidArrayFunc func(ctx context.Context, table, pid, field string, element interface{}, actor string) (domain.Document, error)

type attributesArrayFunc func(ctx context.Context, table string, attrs domain.Attributes, field string, element interface{}, actor string) ([]domain.Document, error)

// HandleArrayAppendByPID appends an element to an array field of one item
func (h *Handler) HandleArrayAppendByPID(w http.ResponseWriter, r *http.Request) {
	h.handleArrayByPID(w, r, "array append", h.accessor.ArrayAppendByPID)
}

// HandleArrayRemoveByPID removes an element from an array field of one item
func (h *Handler) HandleArrayRemoveByPID(w http.ResponseWriter, r *http.Request) {
	h.handleArrayByPID(w, r, "array remove", h.accessor.ArrayRemoveByPID)
}

// HandleArrayAppendByAttributes appends an element on every matching item
func (h *Handler) HandleArrayAppendByAttributes(w http.ResponseWriter, r *http.Request) {
	h.handleArrayByAttributes(w, r, "array append", h.accessor.ArrayAppendByAttributes)
}

// HandleArrayRemoveByAttributes removes an element from every matching item
func (h *Handler) HandleArrayRemoveByAttributes(w http.ResponseWriter, r *http.Request) {
	h.handleArrayByAttributes(w, r, "array remove", h.accessor.ArrayRemoveByAttributes)
}

func (h *Handler) handleArrayByPID(w http.ResponseWriter, r *http.Request, op string, apply pidArrayFunc) {
	vars := mux.Vars(r)
	collName := vars["coll"]
	pid := vars["pid"]
	field := vars["field"]

	h.logger.Infof("%s called for collection '%s', item '%s', field '%s'", op, collName, pid, field)

	var req ArrayRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, op, collName, err)
		return
	}
	element, err := elementFrom(req.Element)
	if err != nil {
		h.writeError(w, op, collName, err)
		return
	}

	doc, err := apply(r.Context(), collName, pid, field, element, actorFrom(r))
	if err != nil {
		h.writeError(w, op, collName, err)
		return
	}
	if doc == nil {
		WriteJSONError(w, http.StatusNotFound, notFoundMessage(collName, pid))
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleArrayByAttributes(w http.ResponseWriter, r *http.Request, op string, apply attributesArrayFunc) {
	vars := mux.Vars(r)
	collName := vars["coll"]
	field := vars["field"]

	h.logger.Infof("%s called for collection '%s', field '%s'", op, collName, field)

	var req ArrayRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, op, collName, err)
		return
	}
	element, err := elementFrom(req.Element)
	if err != nil {
		h.writeError(w, op, collName, err)
		return
	}

	docs, err := apply(r.Context(), collName, req.Attributes, field, element, actorFrom(r))
	if err != nil {
		h.writeError(w, op, collName, err)
		return
	}

	h.logger.Infof("%s touched %d items in collection '%s'", op, len(docs), collName)
	writeJSON(w, http.StatusOK, ArrayResponse{
		Success:      true,
		Collection:   collName,
		UpdatedCount: len(docs),
		Documents:    docs,
	})
}
