// Package mapping holds the helpers wizard field mappers are written with.
// Outbound helpers return zero values for blank or unparsable input so the
// field is left out of the DTO; inbound helpers only set what the server sent.
package mapping

import (
	"strings"

	"github.com/iota-uz/onboarding/modules/stepper/domain/entity"
	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
	"github.com/iota-uz/onboarding/modules/stepper/domain/refdata"
)

// IDRef is the {"id": n} object a DTO uses to point at its parent entity.
type IDRef struct {
	ID int64 `json:"id"`
}

func (r *IDRef) Value() int64 {
	if r == nil {
		return 0
	}
	return r.ID
}

func String(rec record.Record, field string) string {
	if !record.Truthy(rec[field]) {
		return ""
	}
	return strings.TrimSpace(record.TextOf(rec[field]))
}

func Amount(rec record.Record, field string) *float64 {
	if !record.Truthy(rec[field]) {
		return nil
	}
	return record.ParseAmount(rec[field])
}

func Int(rec record.Record, field string) *int64 {
	f := Amount(rec, field)
	if f == nil {
		return nil
	}
	n := int64(*f)
	return &n
}

func Date(rec record.Record, field string) string {
	if !record.Truthy(rec[field]) {
		return ""
	}
	return record.FormatDate(rec[field])
}

// Bool emits only true; false is the server default.
func Bool(rec record.Record, field string) *bool {
	if !rec.Bool(field) {
		return nil
	}
	t := true
	return &t
}

func Ref(cat refdata.Catalog, c refdata.Category, rec record.Record, field string) *refdata.Ref {
	if !record.Truthy(rec[field]) {
		return nil
	}
	return cat.Ref(c, rec[field])
}

func Parent(ids entity.IDs, kind entity.Kind) *IDRef {
	id, ok := ids.Get(kind)
	if !ok {
		return nil
	}
	return &IDRef{ID: id}
}

// ID is the known id of kind, 0 before its first create.
func ID(ids entity.IDs, kind entity.Kind) int64 {
	id, _ := ids.Get(kind)
	return id
}

func SetString(out record.Record, field, v string) {
	if v != "" {
		out[field] = v
	}
}

func SetAmount(out record.Record, field string, v *float64) {
	if v != nil {
		out[field] = *v
	}
}

func SetInt(out record.Record, field string, v *int64) {
	if v != nil {
		out[field] = *v
	}
}

func SetDate(out record.Record, field, v string) {
	if day := record.DayString(v); day != "" {
		out[field] = day
	}
}

func SetBool(out record.Record, field string, v *bool) {
	if v != nil {
		out[field] = *v
	}
}

// SetRef stores the reference's stable setting value.
func SetRef(out record.Record, field string, cat refdata.Catalog, c refdata.Category, ref *refdata.Ref) {
	if ref == nil {
		return
	}
	if v := cat.SettingValue(c, ref); v != "" {
		out[field] = v
	}
}
