package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/onboarding/modules/stepper/domain/entity"
	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
	"github.com/iota-uz/onboarding/pkg/routing"
)

func newTestOrchestrator(api *fakeAPI, seed entity.IDs) (*Orchestrator, *entity.Ledger) {
	def := testDefinition()
	ledger := entity.NewLedger(seed)
	return NewOrchestrator(def, api, ledger, nil, nil), ledger
}

func TestOrchestrator_CreateThenUpdate(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	o, ledger := newTestOrchestrator(api, nil)
	rec := record.Record{"name": "Asha", "partnerType": "INDIVIDUAL"}

	res := o.Save(context.Background(), 0, rec, routing.ModeCreate)
	require.True(t, res.Success)
	id, ok := ledger.Get(kindPartner)
	require.True(t, ok)
	require.Equal(t, 1, api.callCount("POST /partner"))

	res = o.Save(context.Background(), 0, rec, routing.ModeCreate)
	require.True(t, res.Success)
	require.Equal(t, 1, api.callCount("POST /partner"))
	require.Equal(t, 1, api.callCount("PUT /partner/"))
	require.Equal(t, 1, api.count("/partner"))

	again, _ := ledger.Get(kindPartner)
	require.Equal(t, id, again)
}

func TestOrchestrator_EmptyChildIsSkipped(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.seed("/partner", 7, map[string]any{"name": "Asha"})
	api.seed("/unit", 42, map[string]any{"unitNo": "A1", "partnerId": 7})
	o, _ := newTestOrchestrator(api, entity.IDs{kindPartner: 7, kindUnit: 42})

	res := o.Save(context.Background(), 1, record.Record{"unitNo": "A2"}, routing.ModeEdit)
	require.True(t, res.Success)
	require.Equal(t, 1, api.callCount("PUT /unit/42"))
	require.Zero(t, api.callCount("POST /booking"))
	require.Zero(t, api.callCount("PUT /booking"))
	require.Equal(t, "A2", api.item("/unit", 42)["unitNo"])
}

func TestOrchestrator_OptionalChildFailureIsAWarning(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.failOn(http.MethodPost, "/booking", http.StatusBadRequest, "booking date is in the past")
	o, ledger := newTestOrchestrator(api, entity.IDs{kindPartner: 7})

	res := o.Save(context.Background(), 1, record.Record{"unitNo": "A1", "bookingDate": "2026-01-01"}, routing.ModeCreate)
	require.True(t, res.Success)
	require.Len(t, res.Warnings, 1)
	require.Equal(t, kindBooking, res.Warnings[0].Kind)
	require.Equal(t, "booking date is in the past", res.Warnings[0].Message)

	unitID, ok := ledger.Get(kindUnit)
	require.True(t, ok)
	require.Equal(t, float64(7), api.item("/unit", unitID)["partnerId"])
	_, ok = ledger.Get(kindBooking)
	require.False(t, ok)
}

func TestOrchestrator_RequiredFailureAbortsWithServerMessage(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.failOn(http.MethodPost, "/unit", http.StatusConflict, "unit number already taken")
	o, _ := newTestOrchestrator(api, entity.IDs{kindPartner: 7})

	res := o.Save(context.Background(), 1, record.Record{"unitNo": "A1", "bookingDate": "2026-01-01"}, routing.ModeCreate)
	require.False(t, res.Success)
	require.Equal(t, "unit number already taken", res.Reason)
	require.Zero(t, api.callCount("POST /booking"))
}

func TestOrchestrator_EditWithoutRecordFails(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	o, _ := newTestOrchestrator(api, nil)

	res := o.Save(context.Background(), 1, record.Record{"unitNo": "A1"}, routing.ModeEdit)
	require.False(t, res.Success)
	require.NotEmpty(t, res.Reason)
	require.Empty(t, api.calls)
}

func TestOrchestrator_NavigationStepIsSkipped(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	o, _ := newTestOrchestrator(api, nil)

	res := o.Save(context.Background(), 3, record.Record{}, routing.ModeCreate)
	require.True(t, res.Success)
	require.True(t, res.Skipped)
	require.Empty(t, api.calls)
}

func TestOrchestrator_Rows(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.seed("/plan", 5, map[string]any{"amount": "10", "partnerId": 7})
	api.seed("/plan", 6, map[string]any{"amount": "20", "partnerId": 7})
	o, _ := newTestOrchestrator(api, entity.IDs{kindPartner: 7})

	rec := record.Record{"paymentPlan": []any{
		map[string]any{"id": 5, "rowKey": "a", "amount": "15"},
		map[string]any{"id": 6, "rowKey": "b", "amount": "20", "deleted": true},
		map[string]any{"rowKey": "c", "amount": "30"},
		map[string]any{"rowKey": "d", "amount": "40", "deleted": true},
	}}

	res := o.Save(context.Background(), 2, rec, routing.ModeEdit)
	require.True(t, res.Success, res.Reason)
	require.Equal(t, int64(5), res.RowIDs["a"])
	require.Contains(t, res.RowIDs, "c")
	require.ElementsMatch(t, []string{"b", "d"}, res.Removed)
	require.Equal(t, 1, api.callCount("DELETE /plan/soft/6"))
	require.Equal(t, "15", api.item("/plan", 5)["amount"])
	require.Equal(t, 2, api.count("/plan"))

	// the new row is known by its key now, a repeat save updates it
	res = o.Save(context.Background(), 2, rec, routing.ModeEdit)
	require.True(t, res.Success)
	require.Equal(t, 1, api.callCount("POST /plan"))
}

func TestOrchestrator_RowFailuresAreAggregated(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.failOn(http.MethodPost, "/plan", http.StatusBadRequest, "amount exceeds unit price")
	o, _ := newTestOrchestrator(api, entity.IDs{kindPartner: 7})

	rec := record.Record{"paymentPlan": []any{
		map[string]any{"rowKey": "a", "amount": "10"},
		map[string]any{"rowKey": "b", "amount": "20"},
	}}
	res := o.Save(context.Background(), 2, rec, routing.ModeCreate)
	require.False(t, res.Success)
	require.Equal(t, "Some payment plan rows were not saved: Row 1: amount exceeds unit price; Row 2: amount exceeds unit price", res.Reason)
}

func TestOrchestrator_RowsNeedParent(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	o, _ := newTestOrchestrator(api, nil)

	res := o.Save(context.Background(), 2, record.Record{"paymentPlan": []any{map[string]any{"amount": "1"}}}, routing.ModeCreate)
	require.False(t, res.Success)
	require.Empty(t, api.calls)
}
