package step

import (
	"fmt"

	"github.com/iota-uz/onboarding/modules/stepper/domain/entity"
	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
	"github.com/iota-uz/onboarding/modules/stepper/domain/refdata"
)

// Workflow describes the final submission of a wizard.
type Workflow struct {
	ReferenceType string
	ModuleName    string
	Action        string
}

// Definition is the fixed step list of one wizard type.
type Definition struct {
	Name     string
	Label    string
	BasePath string
	RootKind entity.Kind
	Steps    []Step
	// Sanitizer holds the inbound default table; its static values also seed
	// new records.
	Sanitizer  *record.Sanitizer
	Categories []refdata.Category
	Fallbacks  refdata.Catalog
	Workflow   Workflow
}

func (d *Definition) Len() int {
	return len(d.Steps)
}

func (d *Definition) Last() int {
	return len(d.Steps) - 1
}

func (d *Definition) Step(index int) (*Step, bool) {
	if index < 0 || index >= len(d.Steps) {
		return nil, false
	}
	return &d.Steps[index], true
}

func (d *Definition) StepByKey(key string) (*Step, bool) {
	for i := range d.Steps {
		if d.Steps[i].Key == key {
			return &d.Steps[i], true
		}
	}
	return nil, false
}

// Descriptors lists the static step metadata in order.
func (d *Definition) Descriptors() []Descriptor {
	out := make([]Descriptor, len(d.Steps))
	for i := range d.Steps {
		out[i] = d.Steps[i].Descriptor
	}
	return out
}

// NewRecord returns the record a fresh wizard instance starts from.
func (d *Definition) NewRecord() record.Record {
	return d.Sanitizer.Initial()
}

// OwnerOf returns the step owning an entity kind.
func (d *Definition) OwnerOf(kind entity.Kind) (*Step, bool) {
	for i := range d.Steps {
		for _, k := range d.Steps[i].Owns {
			if k == kind {
				return &d.Steps[i], true
			}
		}
	}
	return nil, false
}

// Check verifies the table is consistent: ordinal indexes, unique keys and
// entity parents that are saved earlier.
func (d *Definition) Check() error {
	if len(d.Steps) == 0 {
		return fmt.Errorf("wizard %s: no steps", d.Name)
	}
	keys := make(map[string]struct{}, len(d.Steps))
	saved := map[entity.Kind]struct{}{}
	for i := range d.Steps {
		s := &d.Steps[i]
		if s.Index != i {
			return fmt.Errorf("wizard %s: step %q has index %d, want %d", d.Name, s.Key, s.Index, i)
		}
		if _, dup := keys[s.Key]; dup {
			return fmt.Errorf("wizard %s: duplicate step key %q", d.Name, s.Key)
		}
		keys[s.Key] = struct{}{}

		hasBindings := len(s.Entities) > 0 || s.Rows != nil
		if s.Saves != hasBindings {
			return fmt.Errorf("wizard %s: step %q save flag does not match its bindings", d.Name, s.Key)
		}
		for _, e := range s.Entities {
			if e.Build == nil || e.Decode == nil {
				return fmt.Errorf("wizard %s: entity %s lacks a mapper", d.Name, e.Kind)
			}
			if e.Parent != "" {
				if _, ok := saved[e.Parent]; !ok {
					return fmt.Errorf("wizard %s: entity %s depends on %s which is not saved before it", d.Name, e.Kind, e.Parent)
				}
			}
			saved[e.Kind] = struct{}{}
		}
		if s.Rows != nil {
			if s.Rows.BuildRow == nil || s.Rows.DecodeRow == nil {
				return fmt.Errorf("wizard %s: rows of %q lack a mapper", d.Name, s.Key)
			}
			if _, ok := saved[s.Rows.Parent]; s.Rows.Parent != "" && !ok {
				return fmt.Errorf("wizard %s: rows of %q depend on unsaved %s", d.Name, s.Key, s.Rows.Parent)
			}
		}
	}
	if d.Steps[d.Last()].Saves {
		return fmt.Errorf("wizard %s: the last step submits and must not own a save", d.Name)
	}
	return nil
}
