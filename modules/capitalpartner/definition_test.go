package capitalpartner_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/onboarding/modules/capitalpartner"
	"github.com/iota-uz/onboarding/modules/capitalpartner/mappers"
	"github.com/iota-uz/onboarding/modules/stepper/domain/entity"
	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
	"github.com/iota-uz/onboarding/modules/stepper/domain/refdata"
	"github.com/iota-uz/onboarding/modules/stepper/services"
	"github.com/iota-uz/onboarding/pkg/apiclient/apiclienttest"
	"github.com/iota-uz/onboarding/pkg/routing"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
}

func catalog() refdata.Catalog {
	return refdata.Catalog{
		refdata.InvestorType: {{ID: 11, SettingValue: "CP_INDIVIDUAL", DisplayName: "Individual"}},
		refdata.UnitStatus:   {{ID: 41, SettingValue: "BOOKED", DisplayName: "Booked"}},
	}
}

func TestDefinition_IsConsistent(t *testing.T) {
	t.Parallel()

	def := capitalpartner.Definition(fixedNow)
	require.NoError(t, def.Check())
	require.Equal(t, 6, def.Len())

	plan, ok := def.StepByKey(capitalpartner.StepPaymentPlan)
	require.True(t, ok)
	require.True(t, plan.Exempt())
	require.True(t, plan.Saves)

	for _, key := range []string{capitalpartner.StepDocuments, capitalpartner.StepReview} {
		s, ok := def.StepByKey(key)
		require.True(t, ok)
		require.False(t, s.Saves, key)
	}
	require.Equal(t, record.Record{mappers.SalePurchaseAgreement: false, mappers.WorldCheck: false}, def.NewRecord())
}

func TestBankStep_SkippedWhenEmpty(t *testing.T) {
	t.Parallel()

	def := capitalpartner.Definition(fixedNow)
	bank, ok := def.StepByKey(capitalpartner.StepBank)
	require.True(t, ok)
	require.False(t, bank.Exempt())
	v := services.NewValidator()

	require.True(t, v.Validate(bank, def.NewRecord()).OK())

	res := v.Validate(bank, record.Record{mappers.AccountNumber: "0012"})
	require.False(t, res.OK())
	require.Equal(t, "Pay mode is required", res.Message())

	require.True(t, v.Validate(bank, record.Record{mappers.AccountNumber: "0012", mappers.PayMode: "CHEQUE"}).OK())

	api := apiclienttest.New()
	o := services.NewOrchestrator(def, api, entity.NewLedger(entity.IDs{capitalpartner.KindPartner: 7}), catalog, nil)
	saved := o.Save(context.Background(), bank.Index, def.NewRecord(), routing.ModeCreate)
	require.True(t, saved.Success, saved.Reason)
	require.Empty(t, api.Calls())
}

func TestPaymentPlanStep_OnlyTotalsAmounts(t *testing.T) {
	t.Parallel()

	def := capitalpartner.Definition(fixedNow)
	plan, ok := def.StepByKey(capitalpartner.StepPaymentPlan)
	require.True(t, ok)
	require.Empty(t, plan.Percentage)
	require.Empty(t, plan.Amount)

	rec := record.Record{mappers.PaymentPlan: []record.Record{
		{mappers.BookingAmount: "12abc"},
		{mappers.BookingAmount: "250.50"},
	}}
	require.True(t, services.NewValidator().Validate(plan, rec).OK())

	for _, sum := range services.Summarize(def, rec, "USD") {
		if sum.Key == capitalpartner.StepPaymentPlan {
			require.Equal(t, 2, sum.Rows)
			require.Contains(t, sum.Totals, mappers.BookingAmount)
			return
		}
	}
	t.Fatal("payment plan missing from the summary")
}

func TestProfileStep_CreatesPartner(t *testing.T) {
	t.Parallel()

	api := apiclienttest.New()
	def := capitalpartner.Definition(fixedNow)
	ledger := entity.NewLedger(nil)
	o := services.NewOrchestrator(def, api, ledger, catalog, nil)

	res := o.Save(context.Background(), 0, record.Record{
		mappers.FirstName:    "Asha",
		mappers.LastName:     "Rao",
		mappers.InvestorType: "CP_INDIVIDUAL",
	}, routing.ModeCreate)
	require.True(t, res.Success, res.Reason)

	calls := api.Find("POST /capital-partner")
	require.Len(t, calls, 1)
	require.JSONEq(t, `{
		"capitalPartnerName": "Asha",
		"capitalPartnerLastName": "Rao",
		"investorTypeDTO": {"id": 11}
	}`, string(calls[0].Body))

	id, ok := res.IDs.Get(capitalpartner.KindPartner)
	require.True(t, ok)
	require.Positive(t, id)
}

func TestProfileStep_UpdateCarriesID(t *testing.T) {
	t.Parallel()

	api := apiclienttest.New()
	def := capitalpartner.Definition(fixedNow)
	ledger := entity.NewLedger(nil)
	o := services.NewOrchestrator(def, api, ledger, catalog, nil)
	rec := record.Record{
		mappers.FirstName:    "Asha",
		mappers.LastName:     "Rao",
		mappers.InvestorType: "CP_INDIVIDUAL",
	}

	first := o.Save(context.Background(), 0, rec, routing.ModeCreate)
	require.True(t, first.Success, first.Reason)
	id, ok := first.IDs.Get(capitalpartner.KindPartner)
	require.True(t, ok)

	rec[mappers.LastName] = "Rao-Iyer"
	second := o.Save(context.Background(), 0, rec, routing.ModeCreate)
	require.True(t, second.Success, second.Reason)

	puts := api.Find("PUT /capital-partner/")
	require.Len(t, puts, 1)
	var body map[string]any
	require.NoError(t, json.Unmarshal(puts[0].Body, &body))
	require.Equal(t, float64(id), body["id"])
	require.Equal(t, "Rao-Iyer", body["capitalPartnerLastName"])
}

func TestUnitStep_SkipsEmptyPurchase(t *testing.T) {
	t.Parallel()

	api := apiclienttest.New()
	def := capitalpartner.Definition(fixedNow)
	ledger := entity.NewLedger(entity.IDs{capitalpartner.KindPartner: 7, capitalpartner.KindUnit: 42})
	o := services.NewOrchestrator(def, api, ledger, catalog, nil)

	res := o.Save(context.Background(), 3, record.Record{
		mappers.UnitNumber:            "A-101",
		mappers.RegistrationFees:      "1500",
		mappers.SalePurchaseAgreement: false,
	}, routing.ModeEdit)
	require.True(t, res.Success, res.Reason)
	require.Empty(t, res.Warnings)

	calls := api.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, http.MethodPut, calls[0].Method)
	require.Equal(t, "/capital-partner-unit/42", calls[0].Path)

	var body map[string]any
	require.NoError(t, json.Unmarshal(calls[0].Body, &body))
	require.Equal(t, 1500.0, body["registrationFees"])
	require.Equal(t, 42.0, body["id"])
	require.Equal(t, map[string]any{"id": 7.0}, body["capitalPartnerDTO"])
}

func TestUnitStep_BookingFailureIsAWarning(t *testing.T) {
	t.Parallel()

	api := apiclienttest.New()
	api.Fail("POST /capital-partner-unit-booking", http.StatusBadRequest, "Booking reference already used")
	def := capitalpartner.Definition(fixedNow)
	ledger := entity.NewLedger(entity.IDs{capitalpartner.KindPartner: 7})
	o := services.NewOrchestrator(def, api, ledger, catalog, nil)

	res := o.Save(context.Background(), 3, record.Record{
		mappers.UnitNumber:       "A-101",
		mappers.BookingReference: "BK-1",
		mappers.AgentName:        "Omar",
	}, routing.ModeCreate)
	require.True(t, res.Success, res.Reason)
	require.Len(t, res.Warnings, 1)
	require.Equal(t, capitalpartner.KindBooking, res.Warnings[0].Kind)

	unitID, ok := res.IDs.Get(capitalpartner.KindUnit)
	require.True(t, ok)
	purchase := api.Find("POST /capital-partner-unit-purchase")
	require.Len(t, purchase, 1)

	var body map[string]any
	require.NoError(t, json.Unmarshal(purchase[0].Body, &body))
	require.Equal(t, map[string]any{"id": float64(unitID)}, body["capitalPartnerUnitDTO"])
}

func TestUnitStep_Reconciles(t *testing.T) {
	t.Parallel()

	api := apiclienttest.New()
	api.Respond("/capital-partner-unit?capitalPartnerId.equals=7", []map[string]any{{
		"id":            42,
		"unitNumber":    "A-101",
		"unitStatusDTO": map[string]any{"id": 41},
	}})
	api.Respond("/capital-partner-unit-booking?capitalPartnerUnitId.equals=42", []map[string]any{{
		"id":          9,
		"bookingDate": "2026-02-01T00:00:00Z",
	}})
	l := services.NewLoader(capitalpartner.Definition(fixedNow), api, nil)

	res, err := l.Load(context.Background(), 3, "7", entity.IDs{capitalpartner.KindPartner: 7}, catalog())
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Equal(t, "A-101", res.Fields[mappers.UnitNumber])
	require.Equal(t, "BOOKED", res.Fields[mappers.UnitStatus])
	require.Equal(t, "2026-02-01", res.Fields[mappers.BookingDate])
	require.Equal(t, false, res.Fields[mappers.WorldCheck])
	require.Equal(t, entity.IDs{capitalpartner.KindUnit: 42, capitalpartner.KindBooking: 9}, res.IDs)
}

func TestPaymentPlanStep_EmptyListKeepsDefaults(t *testing.T) {
	t.Parallel()

	api := apiclienttest.New()
	l := services.NewLoader(capitalpartner.Definition(fixedNow), api, nil)

	res, err := l.Load(context.Background(), 1, "7", entity.IDs{capitalpartner.KindPartner: 7}, catalog())
	require.NoError(t, err)
	require.False(t, res.Found)
	require.Len(t, api.Find("GET /capital-partner-payment-plan?capitalPartnerId.equals=7"), 1)
}
