// Package capitalpartner declares the six step investor onboarding wizard.
package capitalpartner

import (
	"encoding/json"
	"time"

	"github.com/iota-uz/onboarding/modules/capitalpartner/dtos"
	"github.com/iota-uz/onboarding/modules/capitalpartner/mappers"
	"github.com/iota-uz/onboarding/modules/stepper/domain/entity"
	m "github.com/iota-uz/onboarding/modules/stepper/domain/mapping"
	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
	"github.com/iota-uz/onboarding/modules/stepper/domain/refdata"
	"github.com/iota-uz/onboarding/modules/stepper/domain/step"
	"github.com/iota-uz/onboarding/pkg/apiclient"
)

const Name = "capital-partner"

const (
	KindPartner  entity.Kind = "capital-partner"
	KindPlan     entity.Kind = "capital-partner-payment-plan"
	KindBank     entity.Kind = "capital-partner-bank-info"
	KindUnit     entity.Kind = "capital-partner-unit"
	KindBooking  entity.Kind = "capital-partner-unit-booking"
	KindPurchase entity.Kind = "capital-partner-unit-purchase"
)

var (
	partnerResource  = apiclient.Resource{Path: "/capital-partner"}
	planResource     = apiclient.Resource{Path: "/capital-partner-payment-plan"}
	bankResource     = apiclient.Resource{Path: "/capital-partner-bank-info"}
	unitResource     = apiclient.Resource{Path: "/capital-partner-unit"}
	bookingResource  = apiclient.Resource{Path: "/capital-partner-unit-booking"}
	purchaseResource = apiclient.Resource{Path: "/capital-partner-unit-purchase"}
)

// Step keys in wizard order.
const (
	StepProfile     = "profile"
	StepPaymentPlan = "paymentPlan"
	StepBank        = "bankDetails"
	StepUnit        = "unitDetails"
	StepDocuments   = "documents"
	StepReview      = "review"
)

// Defaults is the inbound sanitize table. Static values also seed new
// records. Booking and purchase dates have no default so an untouched child
// stays empty.
func Defaults(now func() time.Time) *record.Sanitizer {
	return record.NewSanitizer([]record.Default{
		{Field: mappers.SalePurchaseAgreement, Value: false},
		{Field: mappers.WorldCheck, Value: false},
	}, now)
}

func rowDefaults(now func() time.Time) *record.Sanitizer {
	return record.NewSanitizer([]record.Default{
		{Field: mappers.InstallmentDate, Today: true},
	}, now)
}

// Definition returns the wizard table. now feeds the "today" defaults; nil
// means time.Now.
func Definition(now func() time.Time) *step.Definition {
	return &step.Definition{
		Name:      Name,
		Label:     "Capital partner",
		BasePath:  "/capital-partners",
		RootKind:  KindPartner,
		Sanitizer: Defaults(now),
		Categories: []refdata.Category{
			refdata.InvestorType, refdata.IDType, refdata.Country, refdata.UnitStatus,
			refdata.PaymentMode, refdata.BankName, refdata.Currency,
		},
		Fallbacks: refdata.Catalog{
			refdata.Currency: refdata.CurrencyOptions("AED", "USD", "EUR", "GBP", "SAR", "INR"),
		},
		Workflow: step.Workflow{ReferenceType: "CAPITAL_PARTNER", ModuleName: "CAPITAL_PARTNER", Action: "CREATE"},
		Steps: []step.Step{
			profileStep(),
			paymentPlanStep(now),
			bankStep(),
			unitStep(),
			{Descriptor: step.Descriptor{Index: 4, Key: StepDocuments, Label: "Documents"}},
			{Descriptor: step.Descriptor{Index: 5, Key: StepReview, Label: "Review"}},
		},
	}
}

func profileStep() step.Step {
	return step.Step{
		Descriptor: step.Descriptor{
			Index: 0, Key: StepProfile, Label: "Investor details",
			RequiresValidation: true, Saves: true,
			Owns:       []entity.Kind{KindPartner},
			Fields:     mappers.ProfileFields,
			Required:   []string{mappers.FirstName, mappers.LastName, mappers.InvestorType, mappers.IDNumber},
			Percentage: []string{mappers.Ownership},
			Labels: map[string]string{
				mappers.FirstName:    "First name",
				mappers.LastName:     "Last name",
				mappers.InvestorType: "Investor type",
				mappers.IDNumber:     "ID number",
				mappers.Ownership:    "Ownership percentage",
			},
		},
		Entities: []step.Entity{{
			Kind:     KindPartner,
			Resource: partnerResource,
			Build: func(rec record.Record, cat refdata.Catalog, ids entity.IDs) (any, bool) {
				dto := mappers.ProfileToDTO(rec, cat)
				dto.ID = m.ID(ids, KindPartner)
				return dto, false
			},
			Decode: func(raw json.RawMessage, cat refdata.Catalog) (record.Record, int64, error) {
				var dto dtos.CapitalPartnerDTO
				if err := json.Unmarshal(raw, &dto); err != nil {
					return nil, 0, err
				}
				return mappers.ProfileFromDTO(dto, cat), dto.ID, nil
			},
		}},
	}
}

func paymentPlanStep(now func() time.Time) step.Step {
	return step.Step{
		Descriptor: step.Descriptor{
			Index: 1, Key: StepPaymentPlan, Label: "Payment plan",
			Saves:  true,
			Owns:   []entity.Kind{KindPlan},
			Fields: []string{mappers.PaymentPlan},
			Labels: map[string]string{
				mappers.InstallmentPercentage: "Installment percentage",
				mappers.BookingAmount:         "Booking amount",
			},
		},
		Rows: &step.RowSet{
			Field:     mappers.PaymentPlan,
			Kind:      KindPlan,
			Resource:  planResource,
			Parent:    KindPartner,
			Filter:    "capitalPartnerId",
			RowAmount: []string{mappers.BookingAmount}, // review totals only
			Defaults:  rowDefaults(now),
			BuildRow: func(row record.Record, cat refdata.Catalog, ids entity.IDs, rowID int64) any {
				dto := mappers.InstallmentToDTO(row, cat)
				dto.ID = rowID
				dto.CapitalPartnerDTO = m.Parent(ids, KindPartner)
				return dto
			},
			DecodeRow: func(raw json.RawMessage, cat refdata.Catalog) (record.Record, error) {
				var dto dtos.PaymentPlanDTO
				if err := json.Unmarshal(raw, &dto); err != nil {
					return nil, err
				}
				return mappers.InstallmentFromDTO(dto, cat), nil
			},
		},
	}
}

func bankStep() step.Step {
	return step.Step{
		Descriptor: step.Descriptor{
			Index: 2, Key: StepBank, Label: "Bank details",
			RequiresValidation: true, Saves: true,
			Owns:   []entity.Kind{KindBank},
			Fields: mappers.BankFields,
			Labels: map[string]string{mappers.PayMode: "Pay mode"},
		},
		Entities: []step.Entity{{
			Kind:     KindBank,
			Resource: bankResource,
			Parent:   KindPartner,
			Filter:   "capitalPartnerId",
			Build: func(rec record.Record, cat refdata.Catalog, ids entity.IDs) (any, bool) {
				dto := mappers.BankToDTO(rec, cat)
				if dto.IsEmpty() {
					return nil, true
				}
				dto.ID = m.ID(ids, KindBank)
				dto.CapitalPartnerDTO = m.Parent(ids, KindPartner)
				return dto, false
			},
			Decode: func(raw json.RawMessage, cat refdata.Catalog) (record.Record, int64, error) {
				var dto dtos.BankInfoDTO
				if err := json.Unmarshal(raw, &dto); err != nil {
					return nil, 0, err
				}
				return mappers.BankFromDTO(dto, cat), dto.ID, nil
			},
		}},
		Check: payModeOnceFilled,
	}
}

// payModeOnceFilled lets untouched bank details through, so the step is
// skipped; any filled bank field makes the pay mode required.
func payModeOnceFilled(rec record.Record) []string {
	if record.Truthy(rec[mappers.PayMode]) {
		return nil
	}
	for _, f := range mappers.BankFields {
		if record.Truthy(rec[f]) {
			return []string{"Pay mode is required"}
		}
	}
	return nil
}

func unitStep() step.Step {
	return step.Step{
		Descriptor: step.Descriptor{
			Index: 3, Key: StepUnit, Label: "Unit details",
			RequiresValidation: true, Saves: true,
			Owns:     []entity.Kind{KindUnit, KindBooking, KindPurchase},
			Fields:   mappers.UnitFields,
			Required: []string{mappers.UnitNumber},
			Amount: []string{
				mappers.UnitPrice, mappers.RegistrationFees, mappers.AmountPaid,
				mappers.AmountInTransit, mappers.AgreementPrice,
			},
			Labels: map[string]string{
				mappers.UnitNumber:       "Unit number",
				mappers.UnitPrice:        "Unit price",
				mappers.RegistrationFees: "Registration fees",
				mappers.AmountPaid:       "Amount paid",
				mappers.AmountInTransit:  "Amount in transit",
				mappers.AgreementPrice:   "Agreement price",
			},
		},
		Entities: []step.Entity{
			{
				Kind:     KindUnit,
				Resource: unitResource,
				Parent:   KindPartner,
				Filter:   "capitalPartnerId",
				Build: func(rec record.Record, cat refdata.Catalog, ids entity.IDs) (any, bool) {
					dto := mappers.UnitToDTO(rec, cat)
					if dto.IsEmpty() {
						return nil, true
					}
					dto.ID = m.ID(ids, KindUnit)
					dto.CapitalPartnerDTO = m.Parent(ids, KindPartner)
					return dto, false
				},
				Decode: func(raw json.RawMessage, cat refdata.Catalog) (record.Record, int64, error) {
					var dto dtos.UnitDTO
					if err := json.Unmarshal(raw, &dto); err != nil {
						return nil, 0, err
					}
					return mappers.UnitFromDTO(dto, cat), dto.ID, nil
				},
			},
			{
				Kind:     KindBooking,
				Resource: bookingResource,
				Parent:   KindUnit,
				Filter:   "capitalPartnerUnitId",
				Optional: true,
				Build: func(rec record.Record, _ refdata.Catalog, ids entity.IDs) (any, bool) {
					dto := mappers.BookingToDTO(rec)
					if dto.IsEmpty() {
						return nil, true
					}
					dto.ID = m.ID(ids, KindBooking)
					dto.CapitalPartnerUnitDTO = m.Parent(ids, KindUnit)
					return dto, false
				},
				Decode: func(raw json.RawMessage, _ refdata.Catalog) (record.Record, int64, error) {
					var dto dtos.BookingDTO
					if err := json.Unmarshal(raw, &dto); err != nil {
						return nil, 0, err
					}
					return mappers.BookingFromDTO(dto), dto.ID, nil
				},
			},
			{
				Kind:     KindPurchase,
				Resource: purchaseResource,
				Parent:   KindUnit,
				Filter:   "capitalPartnerUnitId",
				Optional: true,
				Build: func(rec record.Record, _ refdata.Catalog, ids entity.IDs) (any, bool) {
					dto := mappers.PurchaseToDTO(rec)
					if dto.IsEmpty() {
						return nil, true
					}
					dto.ID = m.ID(ids, KindPurchase)
					dto.CapitalPartnerUnitDTO = m.Parent(ids, KindUnit)
					return dto, false
				},
				Decode: func(raw json.RawMessage, _ refdata.Catalog) (record.Record, int64, error) {
					var dto dtos.PurchaseDTO
					if err := json.Unmarshal(raw, &dto); err != nil {
						return nil, 0, err
					}
					return mappers.PurchaseFromDTO(dto), dto.ID, nil
				},
			},
		},
	}
}
