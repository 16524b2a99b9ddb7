// Package project declares the nine step real-estate project onboarding
// wizard.
package project

import (
	"encoding/json"
	"time"

	"github.com/iota-uz/onboarding/modules/project/dtos"
	"github.com/iota-uz/onboarding/modules/project/mappers"
	"github.com/iota-uz/onboarding/modules/stepper/domain/entity"
	m "github.com/iota-uz/onboarding/modules/stepper/domain/mapping"
	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
	"github.com/iota-uz/onboarding/modules/stepper/domain/refdata"
	"github.com/iota-uz/onboarding/modules/stepper/domain/step"
	"github.com/iota-uz/onboarding/pkg/apiclient"
)

const Name = "project"

const (
	KindAsset       entity.Kind = "real-estate-asset"
	KindAccount     entity.Kind = "real-estate-asset-account"
	KindFee         entity.Kind = "real-estate-asset-fee"
	KindBeneficiary entity.Kind = "real-estate-asset-beneficiary"
	KindPlan        entity.Kind = "real-estate-asset-payment-plan"
	KindFinancial   entity.Kind = "real-estate-asset-financial-summary"
	KindClosure     entity.Kind = "real-estate-asset-closure"
)

// parentFilter finds every child resource by its asset.
const parentFilter = "realEstateAssetId"

var (
	assetResource       = apiclient.Resource{Path: "/real-estate-asset"}
	accountResource     = apiclient.Resource{Path: "/real-estate-asset-account"}
	feeResource         = apiclient.Resource{Path: "/real-estate-asset-fee"}
	beneficiaryResource = apiclient.Resource{Path: "/real-estate-asset-beneficiary"}
	planResource        = apiclient.Resource{Path: "/real-estate-asset-payment-plan"}
	financialResource   = apiclient.Resource{Path: "/real-estate-asset-financial-summary"}
	closureResource     = apiclient.Resource{Path: "/real-estate-asset-closure"}
)

// Step keys in wizard order.
const (
	StepDetails       = "details"
	StepDocuments     = "documents"
	StepAccounts      = "accounts"
	StepFees          = "fees"
	StepBeneficiaries = "beneficiaries"
	StepPaymentPlan   = "paymentPlan"
	StepFinancial     = "financialSummary"
	StepClosure       = "closure"
	StepReview        = "review"
)

// Defaults is the inbound sanitize table; the guarantee checkbox starts
// unticked.
func Defaults(now func() time.Time) *record.Sanitizer {
	return record.NewSanitizer([]record.Default{
		{Field: mappers.CheckGuaranteeDoc, Value: false},
	}, now)
}

func feeDefaults(now func() time.Time) *record.Sanitizer {
	return record.NewSanitizer([]record.Default{
		{Field: mappers.CollectionDate, Today: true},
	}, now)
}

// Definition returns the wizard table. now feeds the "today" defaults; nil
// means time.Now.
func Definition(now func() time.Time) *step.Definition {
	return &step.Definition{
		Name:      Name,
		Label:     "Project",
		BasePath:  "/projects",
		RootKind:  KindAsset,
		Sanitizer: Defaults(now),
		Categories: []refdata.Category{
			refdata.ProjectType, refdata.ProjectStatus, refdata.Currency, refdata.AccountType,
			refdata.BankName, refdata.FeeCategory, refdata.FeeFrequency, refdata.BeneficiaryID,
			refdata.PaymentMode,
		},
		Fallbacks: refdata.Catalog{
			refdata.Currency: refdata.CurrencyOptions("AED", "USD", "EUR", "GBP", "SAR", "INR"),
		},
		Workflow: step.Workflow{ReferenceType: "REAL_ESTATE_ASSET", ModuleName: "BUILD_PARTNER_ASSET", Action: "CREATE"},
		Steps: []step.Step{
			detailsStep(),
			{Descriptor: step.Descriptor{Index: 1, Key: StepDocuments, Label: "Documents"}},
			accountsStep(),
			feesStep(now),
			beneficiariesStep(),
			paymentPlanStep(),
			financialStep(),
			closureStep(),
			{Descriptor: step.Descriptor{Index: 8, Key: StepReview, Label: "Review"}},
		},
	}
}

func detailsStep() step.Step {
	return step.Step{
		Descriptor: step.Descriptor{
			Index: 0, Key: StepDetails, Label: "Project details",
			RequiresValidation: true, Saves: true,
			Owns:   []entity.Kind{KindAsset},
			Fields: mappers.ProjectFields,
			Required: []string{
				mappers.ProjectCode, mappers.ProjectName, mappers.DeveloperName,
				mappers.ProjectType, mappers.ProjectStatus,
			},
			Percentage: []string{mappers.PercentComplete},
			Amount:     []string{mappers.ConstructionCost},
			Labels: map[string]string{
				mappers.ProjectCode:      "Project ID",
				mappers.ProjectName:      "Project name",
				mappers.DeveloperName:    "Developer name",
				mappers.ProjectType:      "Project type",
				mappers.ProjectStatus:    "Project status",
				mappers.PercentComplete:  "Percent complete",
				mappers.ConstructionCost: "Construction cost",
			},
		},
		Entities: []step.Entity{{
			Kind:     KindAsset,
			Resource: assetResource,
			Build: func(rec record.Record, cat refdata.Catalog, ids entity.IDs) (any, bool) {
				dto := mappers.ProjectToDTO(rec, cat)
				dto.ID = m.ID(ids, KindAsset)
				return dto, false
			},
			Decode: func(raw json.RawMessage, cat refdata.Catalog) (record.Record, int64, error) {
				var dto dtos.RealEstateAssetDTO
				if err := json.Unmarshal(raw, &dto); err != nil {
					return nil, 0, err
				}
				return mappers.ProjectFromDTO(dto, cat), dto.ID, nil
			},
		}},
	}
}

func accountsStep() step.Step {
	return step.Step{
		Descriptor: step.Descriptor{
			Index: 2, Key: StepAccounts, Label: "Accounts",
			RequiresValidation: true, Saves: true,
			Owns:   []entity.Kind{KindAccount},
			Fields: []string{mappers.Accounts},
			Labels: map[string]string{
				mappers.AccountType:   "Account type",
				mappers.AccountNumber: "Account number",
			},
		},
		Rows: &step.RowSet{
			Field:       mappers.Accounts,
			Kind:        KindAccount,
			Resource:    accountResource,
			Parent:      KindAsset,
			Filter:      parentFilter,
			RowRequired: []string{mappers.AccountType, mappers.AccountNumber},
			BuildRow: func(row record.Record, cat refdata.Catalog, ids entity.IDs, rowID int64) any {
				dto := mappers.AccountToDTO(row, cat)
				dto.ID = rowID
				dto.RealEstateAssetDTO = m.Parent(ids, KindAsset)
				return dto
			},
			DecodeRow: func(raw json.RawMessage, cat refdata.Catalog) (record.Record, error) {
				var dto dtos.AccountDTO
				if err := json.Unmarshal(raw, &dto); err != nil {
					return nil, err
				}
				return mappers.AccountFromDTO(dto, cat), nil
			},
		},
	}
}

func feesStep(now func() time.Time) step.Step {
	return step.Step{
		Descriptor: step.Descriptor{
			Index: 3, Key: StepFees, Label: "Fees",
			Saves:  true,
			Owns:   []entity.Kind{KindFee},
			Fields: []string{mappers.Fees},
			Labels: map[string]string{
				mappers.FeeAmount: "Fee amount",
				mappers.FeeTotal:  "Total amount",
				mappers.FeeVAT:    "VAT percentage",
			},
		},
		Rows: &step.RowSet{
			Field:     mappers.Fees,
			Kind:      KindFee,
			Resource:  feeResource,
			Parent:    KindAsset,
			Filter:    parentFilter,
			RowAmount: []string{mappers.FeeAmount, mappers.FeeTotal},
			Defaults:  feeDefaults(now),
			BuildRow: func(row record.Record, cat refdata.Catalog, ids entity.IDs, rowID int64) any {
				dto := mappers.FeeToDTO(row, cat)
				dto.ID = rowID
				dto.RealEstateAssetDTO = m.Parent(ids, KindAsset)
				return dto
			},
			DecodeRow: func(raw json.RawMessage, cat refdata.Catalog) (record.Record, error) {
				var dto dtos.FeeDTO
				if err := json.Unmarshal(raw, &dto); err != nil {
					return nil, err
				}
				return mappers.FeeFromDTO(dto, cat), nil
			},
		},
	}
}

func beneficiariesStep() step.Step {
	return step.Step{
		Descriptor: step.Descriptor{
			Index: 4, Key: StepBeneficiaries, Label: "Beneficiaries",
			Saves:  true,
			Owns:   []entity.Kind{KindBeneficiary},
			Fields: []string{mappers.Beneficiaries},
		},
		Rows: &step.RowSet{
			Field:    mappers.Beneficiaries,
			Kind:     KindBeneficiary,
			Resource: beneficiaryResource,
			Parent:   KindAsset,
			Filter:   parentFilter,
			BuildRow: func(row record.Record, cat refdata.Catalog, ids entity.IDs, rowID int64) any {
				dto := mappers.BeneficiaryToDTO(row, cat)
				dto.ID = rowID
				dto.RealEstateAssetDTO = m.Parent(ids, KindAsset)
				return dto
			},
			DecodeRow: func(raw json.RawMessage, cat refdata.Catalog) (record.Record, error) {
				var dto dtos.BeneficiaryDTO
				if err := json.Unmarshal(raw, &dto); err != nil {
					return nil, err
				}
				return mappers.BeneficiaryFromDTO(dto, cat), nil
			},
		},
	}
}

func paymentPlanStep() step.Step {
	return step.Step{
		Descriptor: step.Descriptor{
			Index: 5, Key: StepPaymentPlan, Label: "Payment plan",
			Saves:  true,
			Owns:   []entity.Kind{KindPlan},
			Fields: []string{mappers.PaymentPlan},
		},
		Rows: &step.RowSet{
			Field:    mappers.PaymentPlan,
			Kind:     KindPlan,
			Resource: planResource,
			Parent:   KindAsset,
			Filter:   parentFilter,
			BuildRow: func(row record.Record, _ refdata.Catalog, ids entity.IDs, rowID int64) any {
				dto := mappers.InstallmentToDTO(row)
				dto.ID = rowID
				dto.RealEstateAssetDTO = m.Parent(ids, KindAsset)
				return dto
			},
			DecodeRow: func(raw json.RawMessage, _ refdata.Catalog) (record.Record, error) {
				var dto dtos.PaymentPlanDTO
				if err := json.Unmarshal(raw, &dto); err != nil {
					return nil, err
				}
				return mappers.InstallmentFromDTO(dto), nil
			},
		},
	}
}

func financialStep() step.Step {
	return step.Step{
		Descriptor: step.Descriptor{
			Index: 6, Key: StepFinancial, Label: "Financial summary",
			RequiresValidation: true, Saves: true,
			Owns:   []entity.Kind{KindFinancial},
			Fields: mappers.FinancialFields,
			Amount: mappers.FinancialFields,
			Labels: map[string]string{
				mappers.EstimatedRevenue:   "Estimated revenue",
				mappers.EstimatedCost:      "Estimated construction cost",
				mappers.EstimatedLandCost:  "Estimated land cost",
				mappers.EstimatedMarketing: "Estimated marketing expenses",
				mappers.ActualSoldValue:    "Actual sold value",
				mappers.ActualCost:         "Actual construction cost",
				mappers.EscrowBalance:      "Escrow balance",
				mappers.RetentionBalance:   "Retention balance",
			},
		},
		Entities: []step.Entity{{
			Kind:     KindFinancial,
			Resource: financialResource,
			Parent:   KindAsset,
			Filter:   parentFilter,
			Build: func(rec record.Record, _ refdata.Catalog, ids entity.IDs) (any, bool) {
				dto := mappers.FinancialToDTO(rec)
				if dto.IsEmpty() {
					return nil, true
				}
				dto.ID = m.ID(ids, KindFinancial)
				dto.RealEstateAssetDTO = m.Parent(ids, KindAsset)
				return dto, false
			},
			Decode: func(raw json.RawMessage, _ refdata.Catalog) (record.Record, int64, error) {
				var dto dtos.FinancialSummaryDTO
				if err := json.Unmarshal(raw, &dto); err != nil {
					return nil, 0, err
				}
				return mappers.FinancialFromDTO(dto), dto.ID, nil
			},
		}},
	}
}

func closureStep() step.Step {
	return step.Step{
		Descriptor: step.Descriptor{
			Index: 7, Key: StepClosure, Label: "Project closure",
			RequiresValidation: true, Saves: true,
			Owns:   []entity.Kind{KindClosure},
			Fields: mappers.ClosureFields,
			Amount: []string{mappers.TotalIncomeFund, mappers.TotalPayment},
			Labels: map[string]string{
				mappers.TotalIncomeFund: "Total income fund",
				mappers.TotalPayment:    "Total payment",
			},
		},
		Entities: []step.Entity{{
			Kind:     KindClosure,
			Resource: closureResource,
			Parent:   KindAsset,
			Filter:   parentFilter,
			Build: func(rec record.Record, _ refdata.Catalog, ids entity.IDs) (any, bool) {
				dto := mappers.ClosureToDTO(rec)
				if dto.IsEmpty() {
					return nil, true
				}
				dto.ID = m.ID(ids, KindClosure)
				dto.RealEstateAssetDTO = m.Parent(ids, KindAsset)
				return dto, false
			},
			Decode: func(raw json.RawMessage, _ refdata.Catalog) (record.Record, int64, error) {
				var dto dtos.ClosureDTO
				if err := json.Unmarshal(raw, &dto); err != nil {
					return nil, 0, err
				}
				return mappers.ClosureFromDTO(dto), dto.ID, nil
			},
		}},
	}
}
