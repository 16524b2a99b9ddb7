package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/onboarding/modules/stepper/domain/draft"
	"github.com/iota-uz/onboarding/modules/stepper/domain/entity"
	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
	"github.com/iota-uz/onboarding/pkg/eventbus"
	"github.com/iota-uz/onboarding/pkg/routing"
)

type controllerFixture struct {
	api  *fakeAPI
	sub  *fakeSubmitter
	bus  eventbus.EventBus
	ctrl *Controller
}

func newControllerFixture(t *testing.T) *controllerFixture {
	t.Helper()
	def := testDefinition()
	require.NoError(t, def.Check())

	routes := routing.NewSynchronizer()
	routes.Register(def.Name, def.BasePath, def.Len())

	f := &controllerFixture{api: newFakeAPI(), sub: &fakeSubmitter{}, bus: eventbus.NewEventPublisher(nil)}
	f.ctrl = NewController(ControllerOptions{
		Definition: def,
		Client:     f.api,
		Submitter:  f.sub,
		Bus:        f.bus,
		Routes:     routes,
	})
	return f
}

func requireStepError(t *testing.T, err error, kind ErrorKind, status int) *StepError {
	t.Helper()
	var se *StepError
	require.ErrorAs(t, err, &se)
	require.Equal(t, kind, se.Kind)
	require.Equal(t, status, se.Status)
	return se
}

func TestController_CreateFlowSubmitsOnce(t *testing.T) {
	t.Parallel()
	f := newControllerFixture(t)
	ctx := context.Background()

	var submitted []SubmittedEvent
	f.bus.Subscribe(func(ev SubmittedEvent) { submitted = append(submitted, ev) })

	snap, err := f.ctrl.Start(ctx, StartOptions{})
	require.NoError(t, err)
	require.Equal(t, routing.ModeCreate, snap.Mode)
	require.Equal(t, "INDIVIDUAL", snap.Record["partnerType"])
	require.Equal(t, "/partners/new?step=0", snap.URL)

	_, err = f.ctrl.Next(ctx)
	se := requireStepError(t, err, KindValidation, http.StatusUnprocessableEntity)
	require.Equal(t, "Name is required", se.Message)
	require.Empty(t, f.api.calls)

	_, err = f.ctrl.Update(ctx, record.Record{"name": "Asha"})
	require.NoError(t, err)
	snap, err = f.ctrl.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, snap.Step)
	require.Positive(t, snap.RecordID)
	require.Equal(t, "Asha", f.api.item("/partner", snap.RecordID)["name"])

	_, err = f.ctrl.Update(ctx, record.Record{"unitNo": "A1"})
	require.NoError(t, err)
	snap, err = f.ctrl.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, snap.Step)

	// exempt step with no rows
	snap, err = f.ctrl.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, snap.Step)

	snap, err = f.ctrl.Next(ctx)
	require.NoError(t, err)
	require.True(t, snap.Submitted)
	require.Equal(t, "wf-1", snap.WorkflowRequestID)
	require.Len(t, submitted, 1)
	require.Equal(t, snap.RecordID, f.sub.calls[0].ReferenceID)
	require.Equal(t, "PARTNER", f.sub.calls[0].ReferenceType)

	_, err = f.ctrl.Next(ctx)
	require.ErrorIs(t, err, ErrSubmitted)
	require.Equal(t, 1, f.sub.count())
}

func TestController_RepeatedNextUpdates(t *testing.T) {
	t.Parallel()
	f := newControllerFixture(t)
	ctx := context.Background()

	_, err := f.ctrl.Start(ctx, StartOptions{})
	require.NoError(t, err)
	_, err = f.ctrl.Update(ctx, record.Record{"name": "Asha"})
	require.NoError(t, err)
	_, err = f.ctrl.Next(ctx)
	require.NoError(t, err)
	_, err = f.ctrl.Back(ctx)
	require.NoError(t, err)
	_, err = f.ctrl.Update(ctx, record.Record{"name": "Asha R"})
	require.NoError(t, err)
	snap, err := f.ctrl.Next(ctx)
	require.NoError(t, err)

	require.Equal(t, 1, f.api.callCount("POST /partner"))
	require.Equal(t, 1, f.api.count("/partner"))
	require.Equal(t, "Asha R", f.api.item("/partner", snap.RecordID)["name"])
}

func TestController_EditReconcilesRequestedStep(t *testing.T) {
	t.Parallel()
	f := newControllerFixture(t)
	ctx := context.Background()
	f.api.seed("/partner", 7, map[string]any{"name": "Asha"})
	f.api.seed("/unit", 42, map[string]any{"unitNo": "A1", "partnerId": 7})

	snap, err := f.ctrl.Start(ctx, StartOptions{RecordID: 7, Step: 1, Mode: routing.ModeEdit})
	require.NoError(t, err)
	require.Equal(t, "A1", snap.Record["unitNo"])
	require.Equal(t, int64(42), snap.IDs[kindUnit])
	require.Equal(t, "/partners/7?mode=edit&step=1", snap.URL)

	_, err = f.ctrl.Update(ctx, record.Record{"unitNo": "A2"})
	require.NoError(t, err)
	_, err = f.ctrl.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, f.api.callCount("PUT /unit/42"))
	require.Zero(t, f.api.callCount("POST /unit"))
}

func TestController_EmptyReconciliationKeepsDefaults(t *testing.T) {
	t.Parallel()
	f := newControllerFixture(t)

	snap, err := f.ctrl.Start(context.Background(), StartOptions{RecordID: 7, Step: 2, Mode: routing.ModeEdit})
	require.NoError(t, err)
	require.NotContains(t, snap.Record, "paymentPlan")
	require.Empty(t, snap.Banner)
	require.Equal(t, "INDIVIDUAL", snap.Record["partnerType"])
}

func TestController_ReconciliationFailureRaisesBanner(t *testing.T) {
	t.Parallel()
	f := newControllerFixture(t)
	f.api.failOn(http.MethodGet, "/partner", http.StatusBadGateway, "")

	snap, err := f.ctrl.Start(context.Background(), StartOptions{RecordID: 7, Mode: routing.ModeEdit})
	require.NoError(t, err)
	require.NotEmpty(t, snap.Banner)
	require.False(t, snap.Reconciling)
}

func TestController_ViewModeOnlyNavigates(t *testing.T) {
	t.Parallel()
	f := newControllerFixture(t)
	ctx := context.Background()
	f.api.seed("/partner", 7, map[string]any{"name": ""})

	_, err := f.ctrl.Start(ctx, StartOptions{RecordID: 7, Mode: routing.ModeView})
	require.NoError(t, err)

	_, err = f.ctrl.Update(ctx, record.Record{"name": "x"})
	require.ErrorIs(t, err, ErrViewMode)

	snap, err := f.ctrl.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, snap.Step)
	require.Zero(t, f.api.callCount("PUT"))
	require.Zero(t, f.api.callCount("POST"))

	snap, err = f.ctrl.GoTo(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, 3, snap.Step)
}

func TestController_NoForwardJumpWhenCreating(t *testing.T) {
	t.Parallel()
	f := newControllerFixture(t)
	ctx := context.Background()

	_, err := f.ctrl.Start(ctx, StartOptions{})
	require.NoError(t, err)
	_, err = f.ctrl.GoTo(ctx, 2)
	require.ErrorIs(t, err, ErrForwardJump)
	_, err = f.ctrl.GoTo(ctx, 9)
	require.ErrorIs(t, err, ErrUnknownStep)

	snap, err := f.ctrl.Back(ctx)
	require.NoError(t, err)
	require.Zero(t, snap.Step)
}

func TestController_SaveFailureKeepsStep(t *testing.T) {
	t.Parallel()
	f := newControllerFixture(t)
	ctx := context.Background()
	f.api.failOn(http.MethodPost, "/partner", http.StatusBadRequest, "name already registered")

	_, err := f.ctrl.Start(ctx, StartOptions{})
	require.NoError(t, err)
	_, err = f.ctrl.Update(ctx, record.Record{"name": "Asha"})
	require.NoError(t, err)

	snap, err := f.ctrl.Next(ctx)
	se := requireStepError(t, err, KindSave, http.StatusBadGateway)
	require.Equal(t, "name already registered", se.Message)
	require.Zero(t, snap.Step)
}

func TestController_SubmissionFailureCanBeRetried(t *testing.T) {
	t.Parallel()
	f := newControllerFixture(t)
	ctx := context.Background()
	f.api.seed("/partner", 7, map[string]any{"name": "Asha"})
	f.sub.err = errors.New("workflow engine down")

	_, err := f.ctrl.Start(ctx, StartOptions{RecordID: 7, Step: 3, Mode: routing.ModeEdit})
	require.NoError(t, err)

	snap, err := f.ctrl.Next(ctx)
	requireStepError(t, err, KindSubmission, http.StatusBadGateway)
	require.False(t, snap.Submitted)

	f.sub.mu.Lock()
	f.sub.err = nil
	f.sub.mu.Unlock()
	snap, err = f.ctrl.Next(ctx)
	require.NoError(t, err)
	require.True(t, snap.Submitted)
	require.Equal(t, 2, f.sub.count())
}

func TestController_SubmitNeedsSavedRecord(t *testing.T) {
	t.Parallel()
	f := newControllerFixture(t)

	_, err := f.ctrl.Start(context.Background(), StartOptions{Step: 3})
	require.NoError(t, err)
	_, err = f.ctrl.Next(context.Background())
	requireStepError(t, err, KindSubmission, http.StatusConflict)
	require.Zero(t, f.sub.count())
}

func TestController_CancelDiscards(t *testing.T) {
	t.Parallel()
	f := newControllerFixture(t)
	ctx := context.Background()

	var cancelled int
	f.bus.Subscribe(func(CancelledEvent) { cancelled++ })

	_, err := f.ctrl.Start(ctx, StartOptions{})
	require.NoError(t, err)
	_, err = f.ctrl.Update(ctx, record.Record{"name": "Asha"})
	require.NoError(t, err)

	snap := f.ctrl.Cancel()
	require.True(t, snap.Cancelled)
	require.Empty(t, snap.Record)
	require.Equal(t, "/partners", snap.URL)
	f.ctrl.Cancel()
	require.Equal(t, 1, cancelled)

	_, err = f.ctrl.Next(ctx)
	require.ErrorIs(t, err, ErrCancelled)
	require.Empty(t, f.api.calls)
}

type nextResult struct {
	snap Snapshot
	err  error
}

// nextWithHeldPost starts Next in the background and returns once its
// first POST is held by the fake API.
func nextWithHeldPost(t *testing.T, f *controllerFixture) (release func(), result <-chan nextResult) {
	t.Helper()
	f.api.holdPost = make(chan struct{})
	f.api.postHeld = make(chan struct{}, 1)
	done := make(chan nextResult, 1)
	go func() {
		snap, err := f.ctrl.Next(context.Background())
		done <- nextResult{snap: snap, err: err}
	}()
	select {
	case <-f.api.postHeld:
	case <-time.After(2 * time.Second):
		t.Fatal("save never reached the API")
	}
	return func() { close(f.api.holdPost) }, done
}

func TestController_CancelDuringSaveDropsLateIDs(t *testing.T) {
	t.Parallel()
	f := newControllerFixture(t)
	ctx := context.Background()

	_, err := f.ctrl.Start(ctx, StartOptions{})
	require.NoError(t, err)
	_, err = f.ctrl.Update(ctx, record.Record{"name": "Asha"})
	require.NoError(t, err)

	release, result := nextWithHeldPost(t, f)

	// Cancel returns while the POST is still held.
	snap := f.ctrl.Cancel()
	require.True(t, snap.Cancelled)
	require.Empty(t, snap.IDs)

	release()
	res := <-result
	require.ErrorIs(t, res.err, ErrCancelled)
	require.Equal(t, 1, f.api.count("/partner"))

	snap = f.ctrl.Snapshot()
	require.Empty(t, snap.IDs)
	require.Zero(t, snap.RecordID)
	require.Zero(t, snap.Step)
}

func TestController_ResetDuringSaveKeepsNewIdentity(t *testing.T) {
	t.Parallel()
	f := newControllerFixture(t)
	ctx := context.Background()
	f.api.seed("/partner", 42, map[string]any{"name": "Omar"})

	_, err := f.ctrl.Start(ctx, StartOptions{})
	require.NoError(t, err)
	_, err = f.ctrl.Update(ctx, record.Record{"name": "Asha"})
	require.NoError(t, err)

	release, result := nextWithHeldPost(t, f)

	snap, err := f.ctrl.Reset(ctx, StartOptions{RecordID: 42, Mode: routing.ModeEdit})
	require.NoError(t, err)
	require.Equal(t, int64(42), snap.RecordID)
	require.Equal(t, "Omar", snap.Record["name"])

	release()
	res := <-result
	require.ErrorIs(t, res.err, ErrCancelled)

	snap = f.ctrl.Snapshot()
	require.Equal(t, int64(42), snap.RecordID)
	require.Equal(t, entity.IDs{kindPartner: 42}, snap.IDs)

	f.api.holdPost = nil
	_, err = f.ctrl.Update(ctx, record.Record{"name": "Omar K"})
	require.NoError(t, err)
	_, err = f.ctrl.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, f.api.callCount("PUT /partner/42"))
	require.Equal(t, 1, f.api.callCount("PUT /partner"))
	require.Equal(t, "Omar K", f.api.item("/partner", 42)["name"])
}

func TestController_NextWaitsForReconciliation(t *testing.T) {
	t.Parallel()
	f := newControllerFixture(t)
	ctx := context.Background()
	f.api.seed("/partner", 7, map[string]any{"name": "Asha"})
	f.api.seed("/unit", 42, map[string]any{"unitNo": "A1", "partnerId": 7})

	_, err := f.ctrl.Start(ctx, StartOptions{RecordID: 7, Mode: routing.ModeEdit})
	require.NoError(t, err)

	f.api.block = make(chan struct{})
	moved := make(chan error, 1)
	go func() {
		_, err := f.ctrl.GoTo(ctx, 1)
		moved <- err
	}()
	require.Eventually(t, func() bool {
		snap := f.ctrl.Snapshot()
		return snap.Step == 1 && snap.Reconciling
	}, 2*time.Second, time.Millisecond)

	next := make(chan nextResult, 1)
	go func() {
		snap, err := f.ctrl.Next(ctx)
		next <- nextResult{snap: snap, err: err}
	}()
	require.Never(t, func() bool { return len(next) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	require.Zero(t, f.api.callCount("PUT /unit"))

	close(f.api.block)
	require.NoError(t, <-moved)
	res := <-next
	require.NoError(t, res.err)
	require.Equal(t, 2, res.snap.Step)
	require.Equal(t, "A1", res.snap.Record["unitNo"])
	require.Equal(t, 1, f.api.callCount("PUT /unit/42"))
	require.Zero(t, f.api.callCount("POST /unit"))
}

func TestController_Patch(t *testing.T) {
	t.Parallel()
	f := newControllerFixture(t)
	ctx := context.Background()

	_, err := f.ctrl.Start(ctx, StartOptions{})
	require.NoError(t, err)

	snap, err := f.ctrl.Patch(ctx, []byte(`[{"op":"add","path":"/name","value":"Asha"}]`), false)
	require.NoError(t, err)
	require.Equal(t, "Asha", snap.Record["name"])

	snap, err = f.ctrl.Patch(ctx, []byte(`{"share":"12.5%","partnerType":null}`), true)
	require.NoError(t, err)
	require.Equal(t, "12.5%", snap.Record["share"])
	require.NotContains(t, snap.Record, "partnerType")

	_, err = f.ctrl.Patch(ctx, []byte(`[{"op":"remove","path":"/missing"}]`), false)
	requireStepError(t, err, KindValidation, http.StatusBadRequest)
}

func TestController_RestoresDraftInCreateMode(t *testing.T) {
	t.Parallel()
	f := newControllerFixture(t)

	snap, err := f.ctrl.Start(context.Background(), StartOptions{Draft: &draft.Draft{
		Wizard: "partner",
		Step:   1,
		Record: record.Record{"name": "Asha"},
		IDs:    entity.IDs{kindPartner: 7},
	}})
	require.NoError(t, err)
	require.Equal(t, 1, snap.Step)
	require.Equal(t, "Asha", snap.Record["name"])
	require.Equal(t, int64(7), snap.RecordID)
}

func TestController_ValidateAndSummary(t *testing.T) {
	t.Parallel()
	f := newControllerFixture(t)
	ctx := context.Background()

	_, err := f.ctrl.Start(ctx, StartOptions{})
	require.NoError(t, err)
	_, err = f.ctrl.Update(ctx, record.Record{"share": "12.345"})
	require.NoError(t, err)

	res := f.ctrl.Validate()
	require.Equal(t, "Name is required, Share must be a percentage with at most two decimals", res.Message())

	summary := f.ctrl.Summary("USD")
	require.Len(t, summary, 3)
	require.Equal(t, "details", summary[0].Key)
}
