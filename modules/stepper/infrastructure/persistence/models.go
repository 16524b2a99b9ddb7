package persistence

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"

	"github.com/iota-uz/onboarding/modules/stepper/domain/draft"
	"github.com/iota-uz/onboarding/modules/stepper/domain/entity"
	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
)

// draftModel is the stored shape of a draft. Version guards against reading
// drafts written by an incompatible build.
type draftModel struct {
	Version  int              `json:"v"`
	Key      string           `json:"key"`
	Wizard   string           `json:"wizard"`
	RecordID int64            `json:"recordId,omitempty"`
	Step     int              `json:"step"`
	Record   map[string]any   `json:"record"`
	IDs      map[string]int64 `json:"ids,omitempty"`
	SavedAt  time.Time        `json:"savedAt"`
}

const draftVersion = 1

func toModel(d draft.Draft) draftModel {
	ids := make(map[string]int64, len(d.IDs))
	for k, v := range d.IDs {
		ids[string(k)] = v
	}
	return draftModel{
		Version:  draftVersion,
		Key:      d.Key,
		Wizard:   d.Wizard,
		RecordID: d.RecordID,
		Step:     d.Step,
		Record:   d.Record,
		IDs:      ids,
		SavedAt:  d.SavedAt,
	}
}

func decodeDraft(data []byte) (draft.Draft, error) {
	var m draftModel
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return draft.Draft{}, errors.Wrap(err, "decode draft")
	}
	if m.Version != draftVersion {
		return draft.Draft{}, errors.Errorf("draft %s: unsupported version %d", m.Key, m.Version)
	}
	ids := make(entity.IDs, len(m.IDs))
	for k, v := range m.IDs {
		ids[entity.Kind(k)] = v
	}
	rec := record.Record(m.Record)
	if rec == nil {
		rec = record.Record{}
	}
	return draft.Draft{
		Key:      m.Key,
		Wizard:   m.Wizard,
		RecordID: m.RecordID,
		Step:     m.Step,
		Record:   rec,
		IDs:      ids,
		SavedAt:  m.SavedAt,
	}, nil
}

func encodeDraft(d draft.Draft) ([]byte, error) {
	data, err := json.Marshal(toModel(d))
	if err != nil {
		return nil, errors.Wrap(err, "encode draft")
	}
	return data, nil
}
