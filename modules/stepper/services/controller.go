package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wI2L/jsondiff"

	"github.com/iota-uz/onboarding/modules/stepper/domain/draft"
	"github.com/iota-uz/onboarding/modules/stepper/domain/entity"
	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
	"github.com/iota-uz/onboarding/modules/stepper/domain/refdata"
	"github.com/iota-uz/onboarding/modules/stepper/domain/step"
	"github.com/iota-uz/onboarding/pkg/apiclient"
	"github.com/iota-uz/onboarding/pkg/eventbus"
	"github.com/iota-uz/onboarding/pkg/logging"
	"github.com/iota-uz/onboarding/pkg/routing"
)

const reconcileBanner = "Previously saved data for this step could not be loaded. You can keep editing and save again."

type ControllerOptions struct {
	Definition *step.Definition
	Client     apiclient.Client
	Catalogs   CatalogProvider
	Submitter  Submitter
	Validator  *Validator
	Bus        eventbus.EventBus
	Routes     *routing.Synchronizer
	AutoSaver  *AutoSaver
	Logger     *logrus.Entry
	DraftKey   string
}

type StartOptions struct {
	RecordID int64
	Step     int
	Mode     routing.Mode
	// Draft is restored in create mode.
	Draft *draft.Draft
}

// Snapshot is the externally visible state of a wizard instance.
type Snapshot struct {
	InstanceID        uuid.UUID            `json:"instanceId"`
	Wizard            string               `json:"wizard"`
	RecordID          int64                `json:"recordId,omitempty"`
	Step              int                  `json:"step"`
	StepKey           string               `json:"stepKey"`
	Mode              routing.Mode         `json:"mode"`
	Submitted         bool                 `json:"submitted"`
	Cancelled         bool                 `json:"cancelled"`
	WorkflowRequestID string               `json:"workflowRequestId,omitempty"`
	URL               string               `json:"url,omitempty"`
	IDs               entity.IDs           `json:"ids"`
	Record            record.Record        `json:"record"`
	Reconciling       bool                 `json:"reconciling"`
	Banner            string               `json:"banner,omitempty"`
	Warnings          []PartialSaveWarning `json:"warnings,omitempty"`
}

// Controller is the step state machine of one wizard instance. Network calls
// run outside the state lock; results that arrive after Cancel or an
// identity switch are dropped by comparing generations.
type Controller struct {
	def       *step.Definition
	validator *Validator
	loader    *Loader
	client    apiclient.Client
	catalogs  CatalogProvider
	submitter Submitter
	bus       eventbus.EventBus
	routes    *routing.Synchronizer
	autosaver *AutoSaver
	logger    *logrus.Entry
	draftKey  string

	mu sync.Mutex
	// ledger and orch belong to one record identity and are replaced, never
	// reset, so a save still running for an old identity writes into a
	// ledger nobody reads.
	ledger     *entity.Ledger
	orch       *Orchestrator
	instance   uuid.UUID
	identity   string
	generation uint64
	rec        record.Record
	step       int
	mode       routing.Mode
	catalog    refdata.Catalog
	pending    map[int]chan struct{}
	saving     int
	submitting bool
	submitted  bool
	cancelled  bool
	workflowID string
	banner     string
	warnings   []PartialSaveWarning
}

func NewController(opts ControllerOptions) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	validator := opts.Validator
	if validator == nil {
		validator = NewValidator()
	}
	instance := uuid.New()
	c := &Controller{
		def:       opts.Definition,
		validator: validator,
		client:    opts.Client,
		catalogs:  opts.Catalogs,
		submitter: opts.Submitter,
		bus:       opts.Bus,
		routes:    opts.Routes,
		autosaver: opts.AutoSaver,
		draftKey:  opts.DraftKey,
		instance:  instance,
		identity:  uuid.NewString(),
		rec:       opts.Definition.NewRecord(),
		mode:      routing.ModeCreate,
		catalog:   opts.Definition.Fallbacks,
		pending:   map[int]chan struct{}{},
	}
	c.logger = logger.WithFields(logrus.Fields{"wizard": c.def.Name, "instance": instance.String()})
	c.loader = NewLoader(c.def, opts.Client, c.logger)
	c.bindLedgerLocked(nil)
	return c
}

func (c *Controller) bindLedgerLocked(seed entity.IDs) {
	c.ledger = entity.NewLedger(seed)
	c.orch = NewOrchestrator(c.def, c.client, c.ledger, c.currentCatalog, c.logger)
}

func (c *Controller) InstanceID() uuid.UUID {
	return c.instance
}

func (c *Controller) Definition() *step.Definition {
	return c.def
}

func (c *Controller) currentCatalog() refdata.Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.catalog
}

// Catalog returns the reference data the instance resolves against.
func (c *Controller) Catalog() refdata.Catalog {
	return c.currentCatalog()
}

func (c *Controller) loadCatalog(ctx context.Context) refdata.Catalog {
	if c.catalogs == nil {
		return c.def.Fallbacks
	}
	cat, err := c.catalogs.Catalog(ctx, c.def.Categories)
	if err != nil {
		logWithFields(ctx, c.logger, logrus.WarnLevel, "stepper: reference data unavailable, using fallbacks", logrus.Fields{
			"error": err,
		})
	}
	return cat.WithFallback(c.def.Fallbacks)
}

// Start binds the instance to a record identity, replacing the record
// entirely. With a record id the requested step is reconciled before Start
// returns.
func (c *Controller) Start(ctx context.Context, opts StartOptions) (Snapshot, error) {
	mode := opts.Mode
	switch {
	case opts.RecordID <= 0:
		mode = routing.ModeCreate
	case mode != routing.ModeView:
		mode = routing.ModeEdit
	}
	if _, ok := c.def.Step(opts.Step); !ok {
		return Snapshot{}, fmt.Errorf("%w: %d", ErrUnknownStep, opts.Step)
	}

	cat := c.loadCatalog(ctx)

	c.mu.Lock()
	oldIdentity := c.identity
	c.generation++
	c.identity = uuid.NewString()
	c.rec = c.def.NewRecord()
	c.bindLedgerLocked(nil)
	if opts.RecordID > 0 {
		c.ledger.Set(c.def.RootKind, opts.RecordID)
	}
	c.step = opts.Step
	c.mode = mode
	c.catalog = cat
	c.pending = map[int]chan struct{}{}
	c.submitted, c.cancelled, c.submitting = false, false, false
	c.workflowID, c.banner, c.warnings = "", "", nil

	if d := opts.Draft; mode == routing.ModeCreate && d != nil && d.Wizard == c.def.Name && d.RecordID == 0 {
		for k, v := range d.Record.Clone() {
			c.rec[k] = v
		}
		c.ledger.Merge(d.IDs)
		if _, ok := c.def.Step(d.Step); ok {
			c.step = d.Step
		}
	}
	c.ensureRowKeysLocked()
	target := c.step
	_, rootKnown := c.ledger.Get(c.def.RootKind)
	c.mu.Unlock()

	c.loader.Forget(oldIdentity)
	if rootKnown {
		c.reconcile(ctx, target)
	}
	return c.Snapshot(), nil
}

// Reset switches the instance to another record identity.
func (c *Controller) Reset(ctx context.Context, opts StartOptions) (Snapshot, error) {
	return c.Start(ctx, opts)
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		InstanceID:        c.instance,
		Wizard:            c.def.Name,
		Step:              c.step,
		Mode:              c.mode,
		Submitted:         c.submitted,
		Cancelled:         c.cancelled,
		WorkflowRequestID: c.workflowID,
		IDs:               c.ledger.Snapshot(),
		Record:            c.rec.Clone(),
		Banner:            c.banner,
		Warnings:          append([]PartialSaveWarning(nil), c.warnings...),
	}
	if s, ok := c.def.Step(c.step); ok {
		snap.StepKey = s.Key
	}
	if id, ok := snap.IDs.Get(c.def.RootKind); ok {
		snap.RecordID = id
	}
	_, snap.Reconciling = c.pending[c.step]
	snap.URL = c.urlLocked()
	return snap
}

func (c *Controller) urlLocked() string {
	if c.routes == nil {
		return ""
	}
	if c.cancelled {
		return c.def.BasePath
	}
	id, _ := c.ledger.Get(c.def.RootKind)
	u, err := c.routes.URL(routing.State{Wizard: c.def.Name, RecordID: id, Step: c.step, Mode: c.mode})
	if err != nil {
		return ""
	}
	return u
}

func (c *Controller) checkActiveLocked() error {
	if c.cancelled {
		return ErrCancelled
	}
	if c.submitted {
		return ErrSubmitted
	}
	return nil
}

// awaitPendingLocked waits for a running reconciliation of step i. The lock
// is released while waiting.
func (c *Controller) awaitPendingLocked(ctx context.Context, i int) error {
	for {
		ch, ok := c.pending[i]
		if !ok {
			return nil
		}
		c.mu.Unlock()
		select {
		case <-ch:
			c.mu.Lock()
		case <-ctx.Done():
			c.mu.Lock()
			return ctx.Err()
		}
	}
}

func (c *Controller) ensureRowKeysLocked() {
	for i := range c.def.Steps {
		if rs := c.def.Steps[i].Rows; rs != nil {
			record.EnsureRowKeys(c.rec.Rows(rs.Field))
		}
	}
}

func (c *Controller) publish(events ...any) {
	if c.bus == nil {
		return
	}
	for _, ev := range events {
		c.bus.Publish(ev)
	}
}

// Next validates and saves the active step, then advances. On the last step
// it submits the workflow instead. In view mode it only navigates.
func (c *Controller) Next(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	if err := c.checkActiveLocked(); err != nil {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, err
	}
	i := c.step

	if c.mode == routing.ModeView {
		if i < c.def.Last() {
			c.step++
		}
		ev := c.stepChangedLocked(i)
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.publish(ev)
		c.reconcile(ctx, snap.Step)
		return c.Snapshot(), nil
	}

	if err := c.awaitPendingLocked(ctx, i); err != nil {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, err
	}
	if err := c.checkActiveLocked(); err != nil {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, err
	}
	if c.step != i {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, ErrStepChanged
	}

	s, _ := c.def.Step(i)
	if res := c.validator.Validate(s, c.rec); !res.OK() {
		recordValidationFailure(c.def.Name, s.Key)
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, newStepError(KindValidation, http.StatusUnprocessableEntity, "STEPPER_VALIDATION", i, res.Message(), nil)
	}

	if i == c.def.Last() {
		return c.submitLocked(ctx)
	}

	var events []any
	if s.Saves {
		c.ensureRowKeysLocked()
		snapshot := c.rec.Clone()
		gen, mode, orch := c.generation, c.mode, c.orch
		c.saving++
		c.mu.Unlock()

		result := orch.Save(ctx, i, snapshot, mode)

		c.mu.Lock()
		c.saving--
		if gen != c.generation {
			snap := c.snapshotLocked()
			c.mu.Unlock()
			return snap, ErrCancelled
		}
		c.applySaveLocked(s, result)
		if !result.Success {
			snap := c.snapshotLocked()
			c.mu.Unlock()
			return snap, newStepError(KindSave, http.StatusBadGateway, "STEPPER_SAVE_FAILED", i, result.Reason, result.Cause)
		}
		c.warnings = result.Warnings
		events = append(events, StepSavedEvent{
			InstanceID: c.instance,
			Wizard:     c.def.Name,
			Step:       i,
			IDs:        result.IDs,
			Warnings:   result.Warnings,
		})
	} else {
		c.warnings = nil
	}

	c.step = i + 1
	c.banner = ""
	events = append(events, c.stepChangedLocked(i))
	target := c.step
	c.mu.Unlock()

	c.publish(events...)
	c.reconcile(ctx, target)
	c.scheduleAutosave()
	return c.Snapshot(), nil
}

func (c *Controller) applySaveLocked(s *step.Step, result SaveResult) {
	rs := s.Rows
	if rs == nil || (len(result.RowIDs) == 0 && len(result.Removed) == 0) {
		return
	}
	removed := make(map[string]struct{}, len(result.Removed))
	for _, key := range result.Removed {
		removed[key] = struct{}{}
	}
	rows := c.rec.Rows(rs.Field)
	kept := make([]record.Record, 0, len(rows))
	for _, row := range rows {
		key := row.Text(record.RowKeyField)
		if _, gone := removed[key]; gone {
			continue
		}
		if id, ok := result.RowIDs[key]; ok {
			row[record.IDField] = id
		}
		kept = append(kept, row)
	}
	c.rec[rs.Field] = kept
}

func (c *Controller) submitLocked(ctx context.Context) (Snapshot, error) {
	i := c.step
	if c.submitting {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, ErrSaveInProgress
	}
	rootID, ok := c.ledger.Get(c.def.RootKind)
	if !ok || c.submitter == nil {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, newStepError(KindSubmission, http.StatusConflict, "STEPPER_NOT_SAVED", i,
			"The record has not been saved yet and cannot be submitted.", nil)
	}
	c.submitting = true
	gen := c.generation
	rec, ids, cat := c.rec.Clone(), c.ledger.Snapshot(), c.catalog
	c.mu.Unlock()

	reqID, err := c.submitter.Submit(ctx, Submission{
		ReferenceID:   rootID,
		ReferenceType: c.def.Workflow.ReferenceType,
		ModuleName:    c.def.Workflow.ModuleName,
		Action:        c.def.Workflow.Action,
		Payload:       Assemble(c.def, rec, cat, ids),
	})
	recordSubmission(c.def.Name, err)

	c.mu.Lock()
	c.submitting = false
	if gen != c.generation {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, ErrCancelled
	}
	if err != nil {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		logWithFields(ctx, c.logger, logrus.ErrorLevel, "stepper: workflow submission failed", logrus.Fields{
			"record": rootID,
			"error":  err,
		})
		return snap, newStepError(KindSubmission, http.StatusBadGateway, "STEPPER_SUBMISSION_FAILED", i,
			apiclient.UserMessage(err, "The record could not be submitted for approval. Please try again."), err)
	}
	c.submitted = true
	c.workflowID = reqID
	ev := SubmittedEvent{
		InstanceID:        c.instance,
		Wizard:            c.def.Name,
		RecordID:          rootID,
		WorkflowRequestID: reqID,
		DraftKey:          c.draftKey,
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	logWithFields(ctx, c.logger, logrus.InfoLevel, "stepper: workflow submitted", logrus.Fields{
		"record":           rootID,
		"workflow_request": reqID,
	})
	c.publish(ev)
	return snap, nil
}

func (c *Controller) stepChangedLocked(from int) StepChangedEvent {
	return StepChangedEvent{
		InstanceID: c.instance,
		Wizard:     c.def.Name,
		From:       from,
		To:         c.step,
		URL:        c.urlLocked(),
	}
}

// Back moves to the previous step without validating or saving.
func (c *Controller) Back(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	if c.step == 0 {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, nil
	}
	target := c.step - 1
	c.mu.Unlock()
	return c.GoTo(ctx, target)
}

// GoTo jumps to step target. Jumping forward is only allowed for existing
// records, where every step has already been saved once.
func (c *Controller) GoTo(ctx context.Context, target int) (Snapshot, error) {
	if _, ok := c.def.Step(target); !ok {
		return c.Snapshot(), fmt.Errorf("%w: %d", ErrUnknownStep, target)
	}
	c.mu.Lock()
	if err := c.checkActiveLocked(); err != nil {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, err
	}
	if c.mode == routing.ModeCreate && target > c.step {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, ErrForwardJump
	}
	from := c.step
	c.step = target
	c.banner = ""
	ev := c.stepChangedLocked(from)
	c.mu.Unlock()

	c.publish(ev)
	c.reconcile(ctx, target)
	return c.Snapshot(), nil
}

// Cancel drops the record and returns immediately. Saves still in flight
// finish in the background and are ignored.
func (c *Controller) Cancel() Snapshot {
	c.mu.Lock()
	if c.cancelled {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap
	}
	c.generation++
	c.cancelled = true
	c.rec = record.Record{}
	c.bindLedgerLocked(c.ledger.Snapshot())
	c.pending = map[int]chan struct{}{}
	ev := CancelledEvent{InstanceID: c.instance, Wizard: c.def.Name, DraftKey: c.draftKey}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if c.autosaver != nil {
		c.autosaver.Stop(c.draftKey)
	}
	c.publish(ev)
	return snap
}

// Update sets record fields once the active step's reconciliation is done.
func (c *Controller) Update(ctx context.Context, fields record.Record) (Snapshot, error) {
	return c.mutate(ctx, func(rec record.Record) (record.Record, error) {
		for k, v := range fields {
			rec[k] = v
		}
		return rec, nil
	})
}

// Patch applies an RFC 6902 patch, or an RFC 7386 merge patch when merge is
// set, to the record.
func (c *Controller) Patch(ctx context.Context, doc []byte, merge bool) (Snapshot, error) {
	return c.mutate(ctx, func(rec record.Record) (record.Record, error) {
		current, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}
		var patched []byte
		if merge {
			patched, err = jsonpatch.MergePatch(current, doc)
		} else {
			var p jsonpatch.Patch
			p, err = jsonpatch.DecodePatch(doc)
			if err == nil {
				patched, err = p.Apply(current)
			}
		}
		if err != nil {
			return nil, newStepError(KindValidation, http.StatusBadRequest, "STEPPER_BAD_PATCH", c.step, "the patch could not be applied", err)
		}
		next := record.Record{}
		dec := json.NewDecoder(bytes.NewReader(patched))
		dec.UseNumber()
		if err := dec.Decode(&next); err != nil {
			return nil, err
		}
		return next, nil
	})
}

func (c *Controller) mutate(ctx context.Context, fn func(record.Record) (record.Record, error)) (Snapshot, error) {
	c.mu.Lock()
	if err := c.checkActiveLocked(); err != nil {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, err
	}
	if c.mode == routing.ModeView {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, ErrViewMode
	}
	if err := c.awaitPendingLocked(ctx, c.step); err != nil {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, err
	}
	if err := c.checkActiveLocked(); err != nil {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, err
	}
	next, err := fn(c.rec)
	if err != nil {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, err
	}
	c.rec = next
	c.ensureRowKeysLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.scheduleAutosave()
	return snap, nil
}

// Validate previews the validation of the active step.
func (c *Controller) Validate() ValidationResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, _ := c.def.Step(c.step)
	return c.validator.Validate(s, c.rec)
}

// Summary renders the review of every step in the given currency.
func (c *Controller) Summary(currency string) []StepSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Summarize(c.def, c.rec, currency)
}

// reconcile loads the server state of step i and merges it over the step's
// own fields. Failures leave the record as is and raise a banner.
func (c *Controller) reconcile(ctx context.Context, i int) {
	s, ok := c.def.Step(i)
	if !ok || (len(s.Entities) == 0 && s.Rows == nil) {
		return
	}

	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		return
	}
	if _, ok := c.ledger.Get(c.def.RootKind); !ok {
		c.mu.Unlock()
		return
	}
	if _, busy := c.pending[i]; busy {
		c.mu.Unlock()
		return
	}
	ch := make(chan struct{})
	c.pending[i] = ch
	gen, identity, ids, cat := c.generation, c.identity, c.ledger.Snapshot(), c.catalog
	c.mu.Unlock()

	res, err := c.loader.Load(ctx, i, identity, ids, cat)

	c.mu.Lock()
	if c.pending[i] == ch {
		delete(c.pending, i)
	}
	close(ch)
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	if err != nil {
		if i == c.step {
			c.banner = reconcileBanner
		}
		c.mu.Unlock()
		logWithFields(ctx, c.logger, logrus.WarnLevel, "stepper: reconciliation failed", logrus.Fields{
			"step":  s.Key,
			"error": err,
		})
		return
	}
	c.ledger.Merge(res.IDs)
	if res.Skipped || !res.Found {
		c.mu.Unlock()
		return
	}

	before := c.rec.Pick(s.Fields)
	c.rec.MergeFields(s.Fields, res.Fields, c.def.NewRecord())
	after := c.rec.Pick(s.Fields)
	if rs := s.Rows; rs != nil {
		for _, row := range c.rec.Rows(rs.Field) {
			if id, ok := record.RowID(row); ok {
				c.ledger.SetRow(row.Text(record.RowKeyField), id)
			}
		}
	}
	c.mu.Unlock()

	diff, err := jsondiff.Compare(before, after)
	if err != nil {
		logWithFields(ctx, c.logger, logrus.DebugLevel, "stepper: reconciliation diff failed", logrus.Fields{"error": err})
	}
	if len(diff) > 0 {
		logWithFields(ctx, c.logger, logrus.DebugLevel, "stepper: reconciliation changed fields", logrus.Fields{
			"step": s.Key,
			"diff": diff.String(),
		})
	}
	c.publish(ReconciledEvent{InstanceID: c.instance, Wizard: c.def.Name, Step: i, Found: true, Diff: diff})
}

// DraftSnapshot is what auto-save persists. ok is false once there is
// nothing worth keeping; busy is true while an explicit save runs.
func (c *Controller) DraftSnapshot() (d draft.Draft, busy bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelled || c.submitted || c.mode != routing.ModeCreate {
		return draft.Draft{}, false, false
	}
	return draft.Draft{
		Key:    c.draftKey,
		Wizard: c.def.Name,
		Step:   c.step,
		Record: c.rec.Clone(),
		IDs:    c.ledger.Snapshot(),
	}, c.saving > 0 || c.submitting, true
}

func (c *Controller) scheduleAutosave() {
	if c.autosaver == nil || c.draftKey == "" {
		return
	}
	c.autosaver.Schedule(c.draftKey, c)
}
