// Package record holds the flat, UI shaped record a wizard instance edits.
package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record is the union of every step's fields. List valued steps keep their
// rows under a single key as []Record.
type Record map[string]any

// Row is one element of a list valued step.
type Row = Record

const (
	IDField      = "id"
	RowKeyField  = "rowKey"
	DeletedField = "deleted"
)

// Truthy mirrors the falsy set of the browser client: nil, "", false, 0 and
// empty collections.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case bool:
		return t
	case int:
		return t != 0
	case int32:
		return t != 0
	case int64:
		return t != 0
	case float32:
		return t != 0
	case float64:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case []Record:
		return len(t) > 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	case Record:
		return len(t) > 0
	default:
		return true
	}
}

func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && Truthy(v)
}

// Text renders the value under key as a string; "" when absent.
func (r Record) Text(key string) string {
	return TextOf(r[key])
}

func TextOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func (r Record) Bool(key string) bool {
	switch t := r[key].(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return err == nil && b
	default:
		return Truthy(t)
	}
}

// Int64 reads a positive integer id from any numeric or numeric string value.
func (r Record) Int64(key string) (int64, bool) {
	return Int64Of(r[key])
}

func Int64Of(v any) (int64, bool) {
	var n int64
	switch t := v.(type) {
	case int:
		n = int64(t)
	case int32:
		n = int64(t)
	case int64:
		n = t
	case float64:
		n = int64(t)
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return 0, false
		}
		n = i
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, false
		}
		n = i
	default:
		return 0, false
	}
	return n, n > 0
}

// Rows returns the rows stored under key, converting generic JSON arrays in
// place so later edits go through the same slice.
func (r Record) Rows(key string) []Record {
	switch t := r[key].(type) {
	case []Record:
		return t
	case []map[string]any:
		rows := make([]Record, 0, len(t))
		for _, m := range t {
			rows = append(rows, Record(m))
		}
		r[key] = rows
		return rows
	case []any:
		rows := make([]Record, 0, len(t))
		for _, item := range t {
			switch m := item.(type) {
			case map[string]any:
				rows = append(rows, Record(m))
			case Record:
				rows = append(rows, m)
			}
		}
		r[key] = rows
		return rows
	default:
		return nil
	}
}

// Clone deep copies nested records, rows and plain slices.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Record:
		return t.Clone()
	case map[string]any:
		return Record(t).Clone()
	case []Record:
		rows := make([]Record, len(t))
		for i, row := range t {
			rows[i] = row.Clone()
		}
		return rows
	case []map[string]any:
		rows := make([]Record, len(t))
		for i, row := range t {
			rows[i] = Record(row).Clone()
		}
		return rows
	case []any:
		items := make([]any, len(t))
		for i, item := range t {
			items[i] = cloneValue(item)
		}
		return items
	default:
		return v
	}
}

// MergeFields overwrites the given fields of r with the values found in src.
// A field src does not carry falls back to defaults, or is removed. Fields
// outside the list are left untouched.
func (r Record) MergeFields(fields []string, src, defaults Record) {
	for _, f := range fields {
		if v, ok := src[f]; ok {
			r[f] = cloneValue(v)
			continue
		}
		if v, ok := defaults[f]; ok {
			r[f] = cloneValue(v)
			continue
		}
		delete(r, f)
	}
}

// Pick copies the listed fields that r carries.
func (r Record) Pick(fields []string) Record {
	out := make(Record, len(fields))
	for _, f := range fields {
		if v, ok := r[f]; ok {
			out[f] = cloneValue(v)
		}
	}
	return out
}
