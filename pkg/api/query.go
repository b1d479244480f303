package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-docpipe/pkg/accessor"
	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

// QueryRequest represents the request body for list queries. Stages are
// raw pipeline stages run after the attribute filter.
type QueryRequest struct {
	Attributes domain.Attributes        `json:"attributes"`
	Fields     domain.FieldSelector     `json:"fields"`
	Sort       domain.SortSpec          `json:"sort"`
	Skip       int64                    `json:"skip"`
	Limit      int64                    `json:"limit"`
	Stats      bool                     `json:"stats"`
	Stages     []map[string]interface{} `json:"stages"`
}

// HandleQuery handles POST requests listing the items matching attributes
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	collName := mux.Vars(r)["coll"]

	h.logger.Infof("handleQuery called for collection '%s'", collName)

	var req QueryRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, "query", collName, err)
		return
	}
	stages, err := parseStages(req.Stages)
	if err != nil {
		h.writeError(w, "query", collName, err)
		return
	}

	page, err := h.accessor.List(r.Context(), collName, accessor.ListOptions{
		Attributes: req.Attributes,
		Fields:     selectorFrom(r, req.Fields),
		Sort:       req.Sort,
		Skip:       req.Skip,
		Limit:      req.Limit,
		WithStats:  req.Stats,
		Stages:     stages,
	})
	if err != nil {
		h.writeError(w, "query", collName, err)
		return
	}

	h.logger.Infof("Found %d items in collection '%s'", len(page.Items), collName)
	writeJSON(w, http.StatusOK, page)
}
