package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

// renderPipeline turns store-neutral stages into driver stages
func renderPipeline(p domain.Pipeline) mongo.Pipeline {
	stages := make(mongo.Pipeline, 0, len(p))
	for _, stage := range p {
		op, body := stage.Render()
		stages = append(stages, bson.D{{Key: op, Value: toBSON(body)}})
	}
	return stages
}

// toBSON converts rendered stage bodies and documents to driver types.
// Sort specifications become ordered documents so key priority survives.
func toBSON(v interface{}) interface{} {
	switch x := v.(type) {
	case domain.SortSpec:
		return sortDoc(x)
	case []domain.SortKey:
		return sortDoc(x)
	case domain.Document:
		return mapToBSON(x)
	case domain.Attributes:
		return mapToBSON(x)
	case map[string]interface{}:
		return mapToBSON(x)
	case []interface{}:
		out := make(bson.A, len(x))
		for i, item := range x {
			out[i] = toBSON(item)
		}
		return out
	case []domain.Document:
		out := make(bson.A, len(x))
		for i, item := range x {
			out[i] = mapToBSON(item)
		}
		return out
	case []string:
		out := make(bson.A, len(x))
		for i, item := range x {
			out[i] = item
		}
		return out
	case domain.SortOrder:
		return int32(x)
	}
	return v
}

func mapToBSON(m map[string]interface{}) bson.M {
	out := make(bson.M, len(m))
	for k, v := range m {
		out[k] = toBSON(v)
	}
	return out
}

func sortDoc(keys []domain.SortKey) bson.D {
	d := make(bson.D, len(keys))
	for i, key := range keys {
		d[i] = bson.E{Key: key.Field, Value: int32(key.Order)}
	}
	return d
}

// filterDoc renders a filter, treating nil as match-all
func filterDoc(attrs domain.Attributes) bson.M {
	if attrs == nil {
		return bson.M{}
	}
	return mapToBSON(attrs)
}

// fromBSON converts decoded driver values back to plain documents,
// slices and UTC times
func fromBSON(v interface{}) interface{} {
	switch x := v.(type) {
	case bson.M:
		return documentFromBSON(x)
	case map[string]interface{}:
		return documentFromBSON(x)
	case bson.D:
		doc := make(domain.Document, len(x))
		for _, e := range x {
			doc[e.Key] = fromBSON(e.Value)
		}
		return doc
	case bson.A:
		out := make([]interface{}, len(x))
		for i, item := range x {
			out[i] = fromBSON(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, item := range x {
			out[i] = fromBSON(item)
		}
		return out
	case primitive.DateTime:
		return x.Time().UTC()
	case time.Time:
		return x.UTC()
	case primitive.ObjectID:
		return x.Hex()
	case primitive.Decimal128:
		return x.String()
	}
	return v
}

func documentFromBSON(m map[string]interface{}) domain.Document {
	doc := make(domain.Document, len(m))
	for k, v := range m {
		doc[k] = fromBSON(v)
	}
	return doc
}
