package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// ReservedPropertyKeys are entity record keys that are carried as dedicated
// fields and must never appear in a merged property bag.
var ReservedPropertyKeys = map[string]struct{}{
	"id":    {},
	"@id":   {},
	"type":  {},
	"@type": {},
	"name":  {},
}

// Properties represents a JSONB property bag stored in PostgreSQL.
// Values may be scalars or lists; keys are unique.
type Properties map[string]interface{}

// Value implements the driver.Valuer interface for database storage
func (p Properties) Value() (driver.Value, error) {
	return p.Marshal()
}

// Scan implements the sql.Scanner interface for database retrieval
func (p *Properties) Scan(value interface{}) error {
	return p.Unmarshal(value)
}

// Marshal converts Properties to JSON bytes
func (p Properties) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// Unmarshal converts JSON bytes or Properties to Properties
func (p *Properties) Unmarshal(value interface{}) error {
	if value == nil {
		*p = Properties{}
		return nil
	}

	if s, ok := value.(Properties); ok {
		*p = s
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}

	return json.Unmarshal(b, p)
}

// Copy returns a deep copy of the property bag.
// Nested maps and slices are copied one level deep, which covers the
// scalar-or-list value shapes admitted at ingestion.
func (p Properties) Copy() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		switch val := v.(type) {
		case []interface{}:
			list := make([]interface{}, len(val))
			copy(list, val)
			out[k] = list
		case []string:
			list := make([]string, len(val))
			copy(list, val)
			out[k] = list
		case map[string]interface{}:
			m := make(map[string]interface{}, len(val))
			for mk, mv := range val {
				m[mk] = mv
			}
			out[k] = m
		default:
			out[k] = v
		}
	}
	return out
}

// StringValue returns the value for key as a string if it is a non-empty string
func (p Properties) StringValue(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// IsEmptyValue reports whether a property value counts as empty for merging
func IsEmptyValue(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []interface{}:
		return len(val) == 0
	case []string:
		return len(val) == 0
	case map[string]interface{}:
		return len(val) == 0
	default:
		return false
	}
}
