package content

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrUnknownCollection = errors.New("unknown collection")
	ErrEmptyPayload      = errors.New("empty payload")
)

// Store is the hosted record store the site reads lists from and writes leads to.
type Store interface {
	FetchAll(ctx context.Context, collection string) (Result, error)
	Create(ctx context.Context, collection string, payload map[string]any) (Record, error)
}

type Result struct {
	Items []Record `json:"items"`
}

// Record is one item of a collection. ID and timestamps are assigned by the store.
type Record struct {
	ID      string
	Created time.Time
	Updated time.Time
	Fields  map[string]any
}

func (r Record) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Fields)+3)
	for k, v := range r.Fields {
		m[k] = v
	}
	m["_id"] = r.ID
	if !r.Created.IsZero() {
		m["_createdDate"] = r.Created.UTC().Format(time.RFC3339Nano)
	}
	if !r.Updated.IsZero() {
		m["_updatedDate"] = r.Updated.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(m)
}

func (r *Record) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*r = Record{Fields: map[string]any{}}
	for k, v := range m {
		switch k {
		case "_id":
			r.ID, _ = v.(string)
		case "_createdDate":
			r.Created = parseTime(v)
		case "_updatedDate":
			r.Updated = parseTime(v)
		default:
			r.Fields[k] = v
		}
	}
	return nil
}

// String returns the trimmed string value of a field, or "" when absent or not a string.
func (r Record) String(key string) string {
	s, _ := r.Fields[key].(string)
	return strings.TrimSpace(s)
}

// Time returns a date field as time. Stores hand back either time.Time or a string.
func (r Record) Time(key string) time.Time {
	return parseTime(r.Fields[key])
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case *time.Time:
		if t != nil {
			return *t
		}
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts
			}
		}
	case map[string]any:
		// {"$date": "..."} as some hosted stores encode dates
		if d, ok := t["$date"]; ok {
			return parseTime(d)
		}
	}
	return time.Time{}
}

// ValidCollection rejects empty or path-like collection names.
func ValidCollection(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, "/?#% ") {
		return ErrUnknownCollection
	}
	return nil
}
