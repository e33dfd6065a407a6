package resource

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Entity is one record of a managed resource, as decoded from the gateway.
// Numbers are kept as json.Number so identifiers survive a round trip untouched.
type Entity map[string]interface{}

// Collection is an ordered sequence of entities.
type Collection []Entity

// timeLayouts are tried in order when a timestamp is a string.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Clone returns a deep copy of e, nested maps and slices included.
func (e Entity) Clone() Entity {
	if e == nil {
		return nil
	}
	return cloneValue(map[string]interface{}(e)).(map[string]interface{})
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case Entity:
		return Entity(cloneValue(map[string]interface{}(val)).(map[string]interface{}))
	case map[string]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, item := range val {
			m[k] = cloneValue(item)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(val))
		for i, item := range val {
			s[i] = cloneValue(item)
		}
		return s
	default:
		return val
	}
}

// ID returns the identifier stored under field, as a string.
func (e Entity) ID(field string) (string, bool) {
	v, ok := e[field]
	if !ok || v == nil {
		return "", false
	}
	s, ok := stringify(v)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Time parses the timestamp stored under field.
// Strings are read as RFC 3339 (or close variants), numbers as Unix milliseconds.
// The zero time is returned when the field is missing or unparsable.
func (e Entity) Time(field string) time.Time {
	switch v := e[field].(type) {
	case string:
		v = strings.TrimSpace(v)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	case json.Number:
		if ms, err := v.Int64(); err == nil {
			return time.UnixMilli(ms)
		}
		if f, err := v.Float64(); err == nil {
			return time.UnixMilli(int64(f))
		}
	case float64:
		return time.UnixMilli(int64(v))
	case int64:
		return time.UnixMilli(v)
	case int:
		return time.UnixMilli(int64(v))
	case time.Time:
		return v
	}
	return time.Time{}
}

// Bool reports the boolean stored under field.
// ok is false when the field holds something that is not a boolean.
func (e Entity) Bool(field string) (value, ok bool) {
	switch v := e[field].(type) {
	case nil:
		return false, true
	case bool:
		return v, true
	default:
		return false, false
	}
}

// IndexOf returns the position of the entity whose idField equals id, or -1.
func (c Collection) IndexOf(idField, id string) int {
	for i, e := range c {
		if eid, ok := e.ID(idField); ok && eid == id {
			return i
		}
	}
	return -1
}

// Clone returns a copy of c holding deep copies of its entities.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	clone := make(Collection, len(c))
	for i, e := range c {
		clone[i] = e.Clone()
	}
	return clone
}

// stringify coerces scalar values to their string form.
// Objects, arrays and nulls are not coercible.
func stringify(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case bool:
		return strconv.FormatBool(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case int:
		return strconv.Itoa(val), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case uint:
		return strconv.FormatUint(uint64(val), 10), true
	case uint64:
		return strconv.FormatUint(val, 10), true
	case time.Time:
		return val.Format(time.RFC3339), true
	case fmt.Stringer:
		return val.String(), true
	default:
		return "", false
	}
}
