package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type RecordId string

// Record is anything a list view can filter, search and sort. Field values
// are one of nil, string, float64, bool, []string or time.Time; anything a
// collection ingests is normalized to that set first.
type Record interface {
	GetId() RecordId
	GetField(name string) (any, bool)
	IsDeleted() bool
}

type DataRecord struct {
	Id      RecordId       `json:"id"`
	Fields  map[string]any `json:"fields"`
	Updated int64          `json:"updated,omitempty"`
	Deleted bool           `json:"deleted,omitempty"`
}

func (r *DataRecord) GetId() RecordId {
	return r.Id
}

func (r *DataRecord) GetField(name string) (any, bool) {
	if r.Fields == nil {
		return nil, false
	}
	v, ok := r.Fields[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (r *DataRecord) IsDeleted() bool {
	return r.Deleted
}

// Normalize rewrites every field value into the supported value set. JSON
// decoding hands us float64 for all numbers and []any for all arrays, CSV
// seeding hands us plain strings; after Normalize the rest of the code only
// ever sees nil, string, float64, bool, []string or time.Time.
func (r *DataRecord) Normalize() {
	for name, value := range r.Fields {
		r.Fields[name] = NormalizeFieldValue(value)
	}
}

func NormalizeFieldValue(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string, bool, float64, []string, time.Time:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, entry := range v {
			if entry == nil {
				continue
			}
			parts = append(parts, FieldString(entry))
		}
		return parts
	default:
		return FieldString(v)
	}
}

// FieldString renders a field value for search matching and display. Arrays
// join with a single space so a term can match any element.
func FieldString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case []string:
		return strings.Join(v, " ")
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}
