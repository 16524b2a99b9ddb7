// Package dtos holds the server shapes of the real-estate asset resources.
package dtos

import (
	"github.com/iota-uz/onboarding/modules/stepper/domain/mapping"
	"github.com/iota-uz/onboarding/modules/stepper/domain/refdata"
)

type RealEstateAssetDTO struct {
	ID               int64        `json:"id,omitempty"`
	Code             string       `json:"reaId,omitempty"`
	Name             string       `json:"reaName,omitempty"`
	LocaleName       string       `json:"reaNameLocale,omitempty"`
	DeveloperName    string       `json:"reaDeveloperName,omitempty"`
	Location         string       `json:"reaLocation,omitempty"`
	City             string       `json:"reaCity,omitempty"`
	Cif              string       `json:"reaCif,omitempty"`
	StartDate        string       `json:"reaStartDate,omitempty"`
	CompletionDate   string       `json:"reaCompletionDate,omitempty"`
	PercentComplete  *float64     `json:"reaPercentComplete,omitempty"`
	NoOfUnits        *int64       `json:"reaNoOfUnits,omitempty"`
	ConstructionCost *float64     `json:"reaConstructionCost,omitempty"`
	Remarks          string       `json:"reaRemarks,omitempty"`
	TypeDTO          *refdata.Ref `json:"reaTypeDTO,omitempty"`
	StatusDTO        *refdata.Ref `json:"reaStatusDTO,omitempty"`
	CostCurrencyDTO  *refdata.Ref `json:"reaConstructionCostCurrencyDTO,omitempty"`
}

type AccountDTO struct {
	ID                 int64          `json:"id,omitempty"`
	AccountNumber      string         `json:"accountNumber,omitempty"`
	IBAN               string         `json:"ibanNumber,omitempty"`
	Title              string         `json:"accountTitle,omitempty"`
	DateOpened         string         `json:"dateOpened,omitempty"`
	AccountTypeDTO     *refdata.Ref   `json:"accountTypeDTO,omitempty"`
	BankNameDTO        *refdata.Ref   `json:"bankNameDTO,omitempty"`
	CurrencyDTO        *refdata.Ref   `json:"currencyDTO,omitempty"`
	RealEstateAssetDTO *mapping.IDRef `json:"realEstateAssetDTO,omitempty"`
}

type FeeDTO struct {
	ID                 int64          `json:"id,omitempty"`
	Amount             *float64       `json:"reafAmount,omitempty"`
	TotalAmount        *float64       `json:"reafTotalAmount,omitempty"`
	VATPercentage      *float64       `json:"reafVatPercentage,omitempty"`
	CollectionDate     string         `json:"reafCollectionDate,omitempty"`
	DebitAccount       string         `json:"reafDebitAccount,omitempty"`
	CategoryDTO        *refdata.Ref   `json:"reafCategoryDTO,omitempty"`
	FrequencyDTO       *refdata.Ref   `json:"reafFrequencyDTO,omitempty"`
	CurrencyDTO        *refdata.Ref   `json:"reafCurrencyDTO,omitempty"`
	RealEstateAssetDTO *mapping.IDRef `json:"realEstateAssetDTO,omitempty"`
}

type BeneficiaryDTO struct {
	ID                 int64          `json:"id,omitempty"`
	Name               string         `json:"reabName,omitempty"`
	IDNumber           string         `json:"reabBeneId,omitempty"`
	AccountNumber      string         `json:"reabBeneAccount,omitempty"`
	SwiftCode          string         `json:"reabBeneBic,omitempty"`
	BankAddress        string         `json:"reabBankAddress,omitempty"`
	IDTypeDTO          *refdata.Ref   `json:"reabIdTypeDTO,omitempty"`
	BankNameDTO        *refdata.Ref   `json:"reabBeneBankDTO,omitempty"`
	TransferTypeDTO    *refdata.Ref   `json:"reabTransferTypeDTO,omitempty"`
	RealEstateAssetDTO *mapping.IDRef `json:"realEstateAssetDTO,omitempty"`
}

type PaymentPlanDTO struct {
	ID                    int64          `json:"id,omitempty"`
	InstallmentNumber     *int64         `json:"reappInstallmentNumber,omitempty"`
	InstallmentPercentage *float64       `json:"reappInstallmentPercentage,omitempty"`
	CompletionPercentage  *float64       `json:"reappProjectCompletionPercentage,omitempty"`
	RealEstateAssetDTO    *mapping.IDRef `json:"realEstateAssetDTO,omitempty"`
}

type FinancialSummaryDTO struct {
	ID                 int64          `json:"id,omitempty"`
	EstimatedRevenue   *float64       `json:"reafsEstRevenue,omitempty"`
	EstimatedCost      *float64       `json:"reafsEstConstructionCost,omitempty"`
	EstimatedLandCost  *float64       `json:"reafsEstLandCost,omitempty"`
	EstimatedMarketing *float64       `json:"reafsEstMarketingExpenses,omitempty"`
	ActualSoldValue    *float64       `json:"reafsActualSoldValue,omitempty"`
	ActualCost         *float64       `json:"reafsActualConstructionCost,omitempty"`
	EscrowBalance      *float64       `json:"reafsCurrentBalanceInEscrowAcc,omitempty"`
	RetentionBalance   *float64       `json:"reafsCurrentBalanceInRetentionAcc,omitempty"`
	RealEstateAssetDTO *mapping.IDRef `json:"realEstateAssetDTO,omitempty"`
}

// IsEmpty reports that no source field is set; the id and the parent
// reference are ignored.
func (d FinancialSummaryDTO) IsEmpty() bool {
	d.ID, d.RealEstateAssetDTO = 0, nil
	return d == FinancialSummaryDTO{}
}

type ClosureDTO struct {
	ID                 int64          `json:"id,omitempty"`
	TotalIncomeFund    *float64       `json:"reacTotalIncomeFund,omitempty"`
	TotalPayment       *float64       `json:"reacTotalPayment,omitempty"`
	CheckGuaranteeDoc  *bool          `json:"reacCheckGuranteeDoc,omitempty"`
	ClosureDate        string         `json:"reacClosureDate,omitempty"`
	Remarks            string         `json:"reacRemarks,omitempty"`
	RealEstateAssetDTO *mapping.IDRef `json:"realEstateAssetDTO,omitempty"`
}

func (d ClosureDTO) IsEmpty() bool {
	d.ID, d.RealEstateAssetDTO = 0, nil
	return d == ClosureDTO{}
}
