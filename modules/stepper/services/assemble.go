package services

import (
	"github.com/shopspring/decimal"

	"github.com/iota-uz/onboarding/modules/stepper/domain/entity"
	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
	"github.com/iota-uz/onboarding/modules/stepper/domain/refdata"
	"github.com/iota-uz/onboarding/modules/stepper/domain/step"
)

// Assemble builds the full payload of a wizard from every saving step, keyed
// by entity kind. Row sets become lists of their live rows.
func Assemble(def *step.Definition, rec record.Record, cat refdata.Catalog, ids entity.IDs) map[string]any {
	payload := map[string]any{}
	if id, ok := ids.Get(def.RootKind); ok {
		payload["id"] = id
	}
	for i := range def.Steps {
		s := &def.Steps[i]
		for _, e := range s.Entities {
			body, empty := e.Build(rec, cat, ids)
			if empty {
				continue
			}
			payload[string(e.Kind)] = body
		}
		if rs := s.Rows; rs != nil {
			rows := record.LiveRows(rec.Rows(rs.Field))
			items := make([]any, 0, len(rows))
			for _, row := range rows {
				id, _ := record.RowID(row)
				items = append(items, rs.BuildRow(row, cat, ids, id))
			}
			payload[string(rs.Kind)] = items
		}
	}
	return payload
}

type SummaryField struct {
	Field string `json:"field"`
	Label string `json:"label"`
	Value string `json:"value"`
}

type StepSummary struct {
	Key    string         `json:"key"`
	Label  string         `json:"label"`
	Fields []SummaryField `json:"fields,omitempty"`
	Rows   int            `json:"rows,omitempty"`
	// Totals are the money formatted sums of the step's row amounts.
	Totals map[string]string `json:"totals,omitempty"`
}

// Summarize renders what the review step shows.
func Summarize(def *step.Definition, rec record.Record, currency string) []StepSummary {
	out := make([]StepSummary, 0, len(def.Steps))
	for i := range def.Steps {
		s := &def.Steps[i]
		if len(s.Fields) == 0 {
			continue
		}
		sum := StepSummary{Key: s.Key, Label: s.Descriptor.Label}
		for _, f := range s.Fields {
			if s.Rows != nil && f == s.Rows.Field {
				continue
			}
			if !record.Truthy(rec[f]) {
				continue
			}
			if _, isRows := rec[f].([]record.Record); isRows {
				continue
			}
			sum.Fields = append(sum.Fields, SummaryField{Field: f, Label: s.FieldLabel(f), Value: record.TextOf(rec[f])})
		}
		if rs := s.Rows; rs != nil {
			rows := record.LiveRows(rec.Rows(rs.Field))
			sum.Rows = len(rows)
			for _, f := range rs.RowAmount {
				total := decimal.Zero
				for _, row := range rows {
					if d, ok := record.ParseDecimal(row[f]); ok {
						total = total.Add(d)
					}
				}
				if sum.Totals == nil {
					sum.Totals = map[string]string{}
				}
				sum.Totals[f] = refdata.FormatMoney(total.Shift(2).Round(0).IntPart(), currency)
			}
		}
		out = append(out, sum)
	}
	return out
}
