package record

import "time"

// Default is one entry of a wizard's inbound default table.
type Default struct {
	Field string
	// Value replaces a missing or null field.
	Value any
	// Today replaces a missing or null date field with the current day.
	Today bool
}

// Sanitizer applies a wizard's default table to records read from the server.
// It is the only place null inbound values are given a meaning.
type Sanitizer struct {
	defaults []Default
	now      func() time.Time
}

func NewSanitizer(defaults []Default, now func() time.Time) *Sanitizer {
	if now == nil {
		now = time.Now
	}
	return &Sanitizer{defaults: defaults, now: now}
}

// Apply fills the fields of r that are missing or null. Only fields listed in
// restrict are touched when restrict is non-empty.
func (s *Sanitizer) Apply(r Record, restrict []string) Record {
	if s == nil {
		return r
	}
	var allowed map[string]struct{}
	if len(restrict) > 0 {
		allowed = make(map[string]struct{}, len(restrict))
		for _, f := range restrict {
			allowed[f] = struct{}{}
		}
	}
	for _, d := range s.defaults {
		if allowed != nil {
			if _, ok := allowed[d.Field]; !ok {
				continue
			}
		}
		if v, ok := r[d.Field]; ok && v != nil {
			continue
		}
		if d.Today {
			r[d.Field] = Today(s.now())
			continue
		}
		r[d.Field] = cloneValue(d.Value)
	}
	return r
}

// Initial builds the record a fresh wizard starts from. Today entries are
// left out so a new form does not claim dates the user never picked.
func (s *Sanitizer) Initial() Record {
	r := Record{}
	if s == nil {
		return r
	}
	for _, d := range s.defaults {
		if d.Today {
			continue
		}
		r[d.Field] = cloneValue(d.Value)
	}
	return r
}
