// Package step declares wizard steps as data: what each step shows, what it
// validates and which server entities it reads and writes.
package step

import (
	"encoding/json"

	"github.com/iota-uz/onboarding/modules/stepper/domain/entity"
	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
	"github.com/iota-uz/onboarding/modules/stepper/domain/refdata"
	"github.com/iota-uz/onboarding/pkg/apiclient"
)

// Descriptor is the static metadata of one step.
type Descriptor struct {
	Index int
	Key   string
	Label string
	// RequiresValidation false marks the step validation exempt.
	RequiresValidation bool
	// Saves is false for pure navigation steps with no network effect.
	Saves bool
	Owns  []entity.Kind
	// Fields are the record keys the step owns; reconciliation overwrites
	// exactly these.
	Fields     []string
	Required   []string
	Percentage []string
	Amount     []string
	// Labels name fields in user messages; the key is used when absent.
	Labels map[string]string
}

func (d Descriptor) FieldLabel(field string) string {
	if l, ok := d.Labels[field]; ok {
		return l
	}
	return field
}

// Exempt reports whether validation always passes for the step.
func (d Descriptor) Exempt() bool {
	return !d.RequiresValidation
}

// BuildFunc maps the record to one entity's DTO. empty reports that none of
// the entity's source fields are populated, and the call is skipped.
type BuildFunc func(rec record.Record, cat refdata.Catalog, ids entity.IDs) (body any, empty bool)

// DecodeFunc maps a server DTO back to record fields and returns its id.
type DecodeFunc func(raw json.RawMessage, cat refdata.Catalog) (fields record.Record, id int64, err error)

// Entity binds a single valued server entity to a step.
type Entity struct {
	Kind     entity.Kind
	Resource apiclient.Resource
	// Parent must be saved before this entity; its id is handed to Build
	// through ids and used to find this entity when its own id is unknown.
	Parent entity.Kind
	// Filter is the query field that finds this entity by its parent id.
	Filter string
	// Optional entities that fail to save produce a warning, not a failure.
	Optional bool
	Build    BuildFunc
	Decode   DecodeFunc
}

// RowSet binds a list valued step: every row is its own server entity.
type RowSet struct {
	Field    string
	Kind     entity.Kind
	Resource apiclient.Resource
	Parent   entity.Kind
	Filter   string
	// Required fields of every live row.
	RowRequired []string
	// RowAmount fields are checked as amounts on validated steps and
	// totalled in the review.
	RowAmount []string
	// Defaults sanitizes every inbound row.
	Defaults  *record.Sanitizer
	BuildRow  func(row record.Record, cat refdata.Catalog, ids entity.IDs, rowID int64) any
	DecodeRow func(raw json.RawMessage, cat refdata.Catalog) (record.Record, error)
}

// CheckFunc adds step specific validation messages.
type CheckFunc func(rec record.Record) []string

// Step is one entry of a wizard's lookup table: descriptor, mapper bindings
// for saving and loading, and an optional extra validator.
type Step struct {
	Descriptor
	Entities []Entity
	Rows     *RowSet
	Check    CheckFunc
}

func (s *Step) Entity(kind entity.Kind) (*Entity, bool) {
	for i := range s.Entities {
		if s.Entities[i].Kind == kind {
			return &s.Entities[i], true
		}
	}
	return nil, false
}
