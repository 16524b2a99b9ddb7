package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"github.com/iota-uz/onboarding/modules/stepper/domain/entity"
	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
	"github.com/iota-uz/onboarding/modules/stepper/domain/refdata"
	"github.com/iota-uz/onboarding/modules/stepper/domain/step"
	"github.com/iota-uz/onboarding/pkg/apiclient"
)

var tracer = otel.Tracer("onboarding-stepper")

// Reconciled is the server state of one step.
type Reconciled struct {
	Step int
	// Found is false when the server has nothing for the step; the record
	// must then be left as it is.
	Found bool
	// Skipped is true when the step was already reconciled, or is being
	// reconciled by another caller, for the same identity.
	Skipped bool
	// Fields are the step's own fields, sanitized.
	Fields record.Record
	// IDs discovered while loading, so later saves take the update path.
	IDs entity.IDs
}

// Loader fetches the authoritative server state of a step. Entities load in
// dependency order; a missing parent means there is nothing to reconcile.
type Loader struct {
	def    *step.Definition
	client apiclient.Client
	logger *logrus.Entry

	group singleflight.Group
	mu    sync.Mutex
	done  map[string]struct{}
}

func NewLoader(def *step.Definition, client apiclient.Client, logger *logrus.Entry) *Loader {
	return &Loader{def: def, client: client, logger: logger, done: map[string]struct{}{}}
}

func guardKey(identity string, stepIndex int) string {
	return identity + "#" + strconv.Itoa(stepIndex)
}

// Load reconciles stepIndex for identity. A second call for the same step
// and identity, while the first is running or after it succeeded, returns
// Skipped without touching the network.
func (l *Loader) Load(ctx context.Context, stepIndex int, identity string, ids entity.IDs, cat refdata.Catalog) (Reconciled, error) {
	s, ok := l.def.Step(stepIndex)
	if !ok {
		return Reconciled{}, fmt.Errorf("%w: %d", ErrUnknownStep, stepIndex)
	}
	if len(s.Entities) == 0 && s.Rows == nil {
		return Reconciled{Step: stepIndex, Skipped: true}, nil
	}

	key := guardKey(identity, stepIndex)
	l.mu.Lock()
	_, completed := l.done[key]
	l.mu.Unlock()
	if completed {
		return Reconciled{Step: stepIndex, Skipped: true}, nil
	}

	leader := false
	v, err, _ := l.group.Do(key, func() (any, error) {
		leader = true
		l.mu.Lock()
		_, completed := l.done[key]
		l.mu.Unlock()
		if completed {
			return Reconciled{Step: stepIndex, Skipped: true}, nil
		}
		res, err := l.load(ctx, s, ids, cat)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.done[key] = struct{}{}
		l.mu.Unlock()
		return res, nil
	})
	if !leader {
		return Reconciled{Step: stepIndex, Skipped: true}, err
	}
	if err != nil {
		recordReconcile(l.def.Name, "error")
		return Reconciled{Step: stepIndex}, err
	}
	res := v.(Reconciled)
	switch {
	case res.Skipped:
	case res.Found:
		recordReconcile(l.def.Name, "found")
	default:
		recordReconcile(l.def.Name, "empty")
	}
	return res, nil
}

// Forget drops the completed set of identity, used on identity change.
func (l *Loader) Forget(identity string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.def.Steps {
		delete(l.done, guardKey(identity, i))
	}
}

func (l *Loader) load(ctx context.Context, s *step.Step, ids entity.IDs, cat refdata.Catalog) (Reconciled, error) {
	ctx, span := tracer.Start(ctx, "stepper.reconcile")
	defer span.End()
	span.SetAttributes(
		attribute.String("wizard", l.def.Name),
		attribute.String("step", s.Key),
	)

	res := Reconciled{Step: s.Index, Fields: record.Record{}, IDs: entity.IDs{}}
	known := ids.Clone()

	for i := range s.Entities {
		e := &s.Entities[i]
		raw, found, err := l.fetchEntity(ctx, e, known)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "fetch failed")
			return res, fmt.Errorf("load %s: %w", e.Kind, err)
		}
		if !found {
			continue
		}
		fields, id, err := e.Decode(raw, cat)
		if err != nil {
			return res, fmt.Errorf("decode %s: %w", e.Kind, err)
		}
		for k, v := range fields {
			res.Fields[k] = v
		}
		res.Found = true
		if id > 0 {
			known[e.Kind] = id
			res.IDs[e.Kind] = id
		}
	}

	if rs := s.Rows; rs != nil {
		rows, err := l.fetchRows(ctx, rs, known, cat)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "fetch rows failed")
			return res, fmt.Errorf("load %s rows: %w", rs.Kind, err)
		}
		if len(rows) > 0 {
			res.Fields[rs.Field] = rows
			res.Found = true
		}
	}

	if res.Found {
		l.def.Sanitizer.Apply(res.Fields, s.Fields)
	}
	span.SetAttributes(attribute.Bool("found", res.Found))
	logWithFields(ctx, l.logger, logrus.DebugLevel, "stepper: step reconciled", logrus.Fields{
		"wizard": l.def.Name,
		"step":   s.Key,
		"found":  res.Found,
	})
	return res, nil
}

func (l *Loader) fetchEntity(ctx context.Context, e *step.Entity, known entity.IDs) (json.RawMessage, bool, error) {
	if id, ok := known.Get(e.Kind); ok {
		var raw json.RawMessage
		err := e.Resource.Get(ctx, l.client, id, &raw)
		if apiclient.IsNotFound(err) {
			return nil, false, nil
		}
		return raw, err == nil, err
	}
	if e.Parent == "" || e.Filter == "" {
		return nil, false, nil
	}
	parentID, ok := known.Get(e.Parent)
	if !ok {
		return nil, false, nil
	}
	items, err := e.Resource.FindBy(ctx, l.client, e.Filter, parentID)
	if err != nil || len(items) == 0 {
		return nil, false, err
	}
	return items[0], true, nil
}

func (l *Loader) fetchRows(ctx context.Context, rs *step.RowSet, known entity.IDs, cat refdata.Catalog) ([]record.Record, error) {
	parentID, ok := known.Get(rs.Parent)
	if !ok {
		return nil, nil
	}
	items, err := rs.Resource.FindBy(ctx, l.client, rs.Filter, parentID)
	if err != nil {
		return nil, err
	}
	rows := make([]record.Record, 0, len(items))
	for _, raw := range items {
		row, err := rs.DecodeRow(raw, cat)
		if err != nil {
			return nil, err
		}
		rs.Defaults.Apply(row, nil)
		rows = append(rows, row)
	}
	record.EnsureRowKeys(rows)
	return rows, nil
}
