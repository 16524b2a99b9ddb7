package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/iota-uz/onboarding/modules/stepper/domain/entity"
	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
	"github.com/iota-uz/onboarding/modules/stepper/domain/refdata"
	"github.com/iota-uz/onboarding/modules/stepper/domain/step"
	"github.com/iota-uz/onboarding/pkg/apiclient"
	"github.com/iota-uz/onboarding/pkg/routing"
)

// SaveResult is the outcome of saving one step.
type SaveResult struct {
	Success bool
	// Skipped is true for steps without a network effect.
	Skipped bool
	IDs     entity.IDs
	// RowIDs maps client row keys to the server ids of rows that now exist.
	RowIDs map[string]int64
	// Removed lists the row keys soft-deleted on the server.
	Removed  []string
	Warnings []PartialSaveWarning
	Reason   string
	Cause    error
}

// Orchestrator issues the create and update calls of a step. Ids land in the
// ledger it was built with as soon as the server returns them, and saves of
// the same step are serialized, so a repeated save takes the update path.
type Orchestrator struct {
	def     *step.Definition
	client  apiclient.Client
	ledger  *entity.Ledger
	catalog func() refdata.Catalog
	logger  *logrus.Entry

	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func NewOrchestrator(def *step.Definition, client apiclient.Client, ledger *entity.Ledger, catalog func() refdata.Catalog, logger *logrus.Entry) *Orchestrator {
	if catalog == nil {
		catalog = func() refdata.Catalog { return def.Fallbacks }
	}
	return &Orchestrator{
		def:     def,
		client:  client,
		ledger:  ledger,
		catalog: catalog,
		logger:  logger,
		locks:   map[int]*sync.Mutex{},
	}
}

func (o *Orchestrator) stepLock(i int) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.locks[i]
	if !ok {
		l = &sync.Mutex{}
		o.locks[i] = l
	}
	return l
}

// Save persists the entities stepIndex owns from rec.
func (o *Orchestrator) Save(ctx context.Context, stepIndex int, rec record.Record, mode routing.Mode) SaveResult {
	s, ok := o.def.Step(stepIndex)
	if !ok {
		return SaveResult{Reason: ErrUnknownStep.Error(), Cause: ErrUnknownStep}
	}
	if !s.Saves {
		return SaveResult{Success: true, Skipped: true, IDs: o.ledger.Snapshot()}
	}

	lock := o.stepLock(stepIndex)
	lock.Lock()
	defer lock.Unlock()

	ctx, span := tracer.Start(ctx, "stepper.save")
	defer span.End()
	span.SetAttributes(
		attribute.String("wizard", o.def.Name),
		attribute.String("step", s.Key),
		attribute.String("mode", string(mode)),
	)

	fields := logrus.Fields{"wizard": o.def.Name, "step": s.Key, "mode": string(mode)}

	if mode == routing.ModeEdit {
		if _, ok := o.ledger.Get(o.def.RootKind); !ok && !o.ownsRoot(s) {
			res := SaveResult{Reason: "The record to edit is unknown; reopen it from the list.", IDs: o.ledger.Snapshot()}
			recordSave(o.def.Name, s.Key, "error")
			return res
		}
	}

	cat := o.catalog()
	res := SaveResult{Success: true}

	for i := range s.Entities {
		e := &s.Entities[i]
		warning, err := o.saveEntity(ctx, e, rec, cat)
		if warning != nil {
			res.Warnings = append(res.Warnings, *warning)
			logWithFields(ctx, o.logger, logrus.WarnLevel, "stepper: optional entity not saved", mergeFields(fields, logrus.Fields{
				"kind":  e.Kind,
				"error": warning.Cause,
			}))
			continue
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "required entity failed")
			logWithFields(ctx, o.logger, logrus.ErrorLevel, "stepper: step save failed", mergeFields(fields, logrus.Fields{
				"kind":  e.Kind,
				"error": err,
			}))
			res.Success = false
			res.Cause = err
			res.Reason = apiclient.UserMessage(err, fmt.Sprintf("Failed to save %s.", humanKind(e.Kind)))
			res.IDs = o.ledger.Snapshot()
			recordSave(o.def.Name, s.Key, "error")
			return res
		}
	}

	if s.Rows != nil {
		o.saveRows(ctx, s.Rows, rec, cat, &res)
		if !res.Success {
			span.SetStatus(codes.Error, "row failures")
			logWithFields(ctx, o.logger, logrus.ErrorLevel, "stepper: row save failed", mergeFields(fields, logrus.Fields{
				"reason": res.Reason,
			}))
		}
	}

	res.IDs = o.ledger.Snapshot()
	switch {
	case !res.Success:
		recordSave(o.def.Name, s.Key, "error")
	case len(res.Warnings) > 0:
		recordSave(o.def.Name, s.Key, "partial")
	default:
		recordSave(o.def.Name, s.Key, "ok")
	}
	return res
}

func (o *Orchestrator) ownsRoot(s *step.Step) bool {
	_, ok := s.Entity(o.def.RootKind)
	return ok
}

// saveEntity returns a warning instead of an error for optional entities.
func (o *Orchestrator) saveEntity(ctx context.Context, e *step.Entity, rec record.Record, cat refdata.Catalog) (*PartialSaveWarning, error) {
	ids := o.ledger.Snapshot()
	body, empty := e.Build(rec, cat, ids)
	if empty {
		return nil, nil
	}

	fail := func(err error) (*PartialSaveWarning, error) {
		if e.Optional {
			return &PartialSaveWarning{
				Kind:    e.Kind,
				Message: apiclient.UserMessage(err, fmt.Sprintf("%s could not be saved.", humanKind(e.Kind))),
				Cause:   err,
			}, nil
		}
		return nil, err
	}

	if e.Parent != "" {
		if _, ok := ids.Get(e.Parent); !ok {
			return fail(fmt.Errorf("%s must be saved before %s", humanKind(e.Parent), humanKind(e.Kind)))
		}
	}

	if id, ok := ids.Get(e.Kind); ok {
		err := e.Resource.Update(ctx, o.client, id, body)
		recordEntityCall(string(e.Kind), "update", err)
		if err != nil {
			return fail(err)
		}
		return nil, nil
	}

	id, err := e.Resource.Create(ctx, o.client, body)
	recordEntityCall(string(e.Kind), "create", err)
	if err != nil {
		return fail(err)
	}
	o.ledger.Set(e.Kind, id)
	return nil, nil
}

// saveRows saves every row on its own; failures are collected, not fatal.
func (o *Orchestrator) saveRows(ctx context.Context, rs *step.RowSet, rec record.Record, cat refdata.Catalog, res *SaveResult) {
	ids := o.ledger.Snapshot()
	if _, ok := ids.Get(rs.Parent); rs.Parent != "" && !ok {
		res.Success = false
		res.Reason = fmt.Sprintf("%s must be saved before its %s rows.", humanKind(rs.Parent), humanKind(rs.Kind))
		return
	}

	rows := rec.Rows(rs.Field)
	record.EnsureRowKeys(rows)
	res.RowIDs = map[string]int64{}

	var failures []string
	position := 0
	for _, row := range rows {
		key := row.Text(record.RowKeyField)
		id, known := record.RowID(row)
		if !known {
			id, known = o.ledger.Row(key)
		}

		if record.IsDeleted(row) {
			if !known {
				res.Removed = append(res.Removed, key)
				continue
			}
			err := rs.Resource.SoftDelete(ctx, o.client, id)
			recordEntityCall(string(rs.Kind), "delete", err)
			if err != nil {
				failures = append(failures, fmt.Sprintf("removed row: %s", apiclient.UserMessage(err, "could not be deleted")))
				res.RowIDs[key] = id
				continue
			}
			res.Removed = append(res.Removed, key)
			continue
		}

		position++
		body := rs.BuildRow(row, cat, ids, id)
		if known {
			err := rs.Resource.Update(ctx, o.client, id, body)
			recordEntityCall(string(rs.Kind), "update", err)
			res.RowIDs[key] = id
			if err != nil {
				failures = append(failures, fmt.Sprintf("Row %d: %s", position, apiclient.UserMessage(err, "could not be updated")))
			}
			continue
		}
		newID, err := rs.Resource.Create(ctx, o.client, body)
		recordEntityCall(string(rs.Kind), "create", err)
		if err != nil {
			failures = append(failures, fmt.Sprintf("Row %d: %s", position, apiclient.UserMessage(err, "could not be created")))
			continue
		}
		o.ledger.SetRow(key, newID)
		res.RowIDs[key] = newID
	}

	if len(failures) > 0 {
		res.Success = false
		res.Reason = fmt.Sprintf("Some %s rows were not saved: %s", humanKind(rs.Kind), strings.Join(failures, "; "))
	}
}

func humanKind(k entity.Kind) string {
	return strings.ReplaceAll(string(k), "-", " ")
}

func mergeFields(base, extra logrus.Fields) logrus.Fields {
	out := make(logrus.Fields, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
