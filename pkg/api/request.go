package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

// ActorHeader carries the acting user recorded in audit fields
const ActorHeader = "X-Actor"

// maxBatchSize bounds the number of items accepted by batch endpoints
const maxBatchSize = 1000

func actorFrom(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(ActorHeader))
}

// selectorFrom reads the fields query parameter: absent means unspecified,
// empty means all fields and a comma separated list names a subset.
// fallback is used when the parameter is absent.
func selectorFrom(r *http.Request, fallback domain.FieldSelector) domain.FieldSelector {
	values, ok := r.URL.Query()["fields"]
	if !ok {
		return fallback
	}
	var names []string
	for _, v := range values {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	}
	if names == nil {
		names = []string{}
	}
	return domain.SelectorFromList(names)
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.InvalidArgumentf("invalid request body: %v", err)
	}
	return nil
}

// parseStages converts raw single-operator stage documents such as
// {"$group": {...}} into pipeline stages
func parseStages(raw []map[string]interface{}) ([]domain.Stage, error) {
	stages := make([]domain.Stage, 0, len(raw))
	for i, doc := range raw {
		if len(doc) != 1 {
			return nil, domain.InvalidArgumentf("stage %d must have exactly one operator", i)
		}
		for op, body := range doc {
			if !strings.HasPrefix(op, "$") {
				return nil, domain.InvalidArgumentf("stage %d operator %q must start with $", i, op)
			}
			if op == domain.OpMerge {
				return nil, domain.InvalidArgumentf("stage %d: %s is not allowed in reads", i, op)
			}
			stages = append(stages, domain.Custom(op, toDocuments(body)))
		}
	}
	return stages, nil
}

// toDocuments converts decoded JSON objects to documents
func toDocuments(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		doc := make(domain.Document, len(x))
		for k, item := range x {
			doc[k] = toDocuments(item)
		}
		return doc
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, item := range x {
			out[i] = toDocuments(item)
		}
		return out
	}
	return v
}

// elementFrom decodes a required element member
func elementFrom(raw json.RawMessage) (interface{}, error) {
	if raw == nil {
		return nil, domain.InvalidArgumentf("element is required")
	}
	var element interface{}
	if err := json.Unmarshal(raw, &element); err != nil {
		return nil, domain.InvalidArgumentf("invalid element: %v", err)
	}
	return toDocuments(element), nil
}

func notFoundMessage(coll, pid string) string {
	if pid == "" {
		return fmt.Sprintf("no item in collection '%s' matches the attributes", coll)
	}
	return fmt.Sprintf("item '%s' not found in collection '%s'", pid, coll)
}
