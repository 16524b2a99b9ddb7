// Package dtos holds the server shapes of the capital partner resources.
package dtos

import (
	"github.com/iota-uz/onboarding/modules/stepper/domain/mapping"
	"github.com/iota-uz/onboarding/modules/stepper/domain/refdata"
)

type CapitalPartnerDTO struct {
	ID                                int64        `json:"id,omitempty"`
	CapitalPartnerName                string       `json:"capitalPartnerName,omitempty"`
	CapitalPartnerMiddleName          string       `json:"capitalPartnerMiddleName,omitempty"`
	CapitalPartnerLastName            string       `json:"capitalPartnerLastName,omitempty"`
	CapitalPartnerLocaleName          string       `json:"capitalPartnerLocaleName,omitempty"`
	CapitalPartnerIDNo                string       `json:"capitalPartnerIdNo,omitempty"`
	IDExpiryDate                      string       `json:"idExpiaryDate,omitempty"`
	CapitalPartnerTelephoneNo         string       `json:"capitalPartnerTelephoneNo,omitempty"`
	CapitalPartnerMobileNo            string       `json:"capitalPartnerMobileNo,omitempty"`
	CapitalPartnerEmail               string       `json:"capitalPartnerEmail,omitempty"`
	CapitalPartnerOwnershipPercentage *float64     `json:"capitalPartnerOwnershipPercentage,omitempty"`
	InvestorTypeDTO                   *refdata.Ref `json:"investorTypeDTO,omitempty"`
	DocumentTypeDTO                   *refdata.Ref `json:"documentTypeDTO,omitempty"`
	CountryOptionDTO                  *refdata.Ref `json:"countryOptionDTO,omitempty"`
	Remarks                           string       `json:"remarks,omitempty"`
}

type UnitDTO struct {
	ID                int64          `json:"id,omitempty"`
	UnitRefID         string         `json:"unitRefId,omitempty"`
	TowerName         string         `json:"towerName,omitempty"`
	UnitNumber        string         `json:"unitNumber,omitempty"`
	Floor             string         `json:"floor,omitempty"`
	UnitPlotSize      *float64       `json:"unitPlotSize,omitempty"`
	UnitSellingPrice  *float64       `json:"unitSellingPrice,omitempty"`
	RegistrationFees  *float64       `json:"registrationFees,omitempty"`
	UnitStatusDTO     *refdata.Ref   `json:"unitStatusDTO,omitempty"`
	CapitalPartnerDTO *mapping.IDRef `json:"capitalPartnerDTO,omitempty"`
}

// IsEmpty reports that no source field is set; the id and the parent
// reference are ignored.
func (d UnitDTO) IsEmpty() bool {
	d.ID, d.CapitalPartnerDTO = 0, nil
	return d == UnitDTO{}
}

type BookingDTO struct {
	ID                    int64          `json:"id,omitempty"`
	BookingDate           string         `json:"bookingDate,omitempty"`
	AmountPaid            *float64       `json:"cpubAmountPaid,omitempty"`
	AmountInTransit       *float64       `json:"cpubAmountInTransit,omitempty"`
	BookingReference      string         `json:"cpubBookingReference,omitempty"`
	CapitalPartnerUnitDTO *mapping.IDRef `json:"capitalPartnerUnitDTO,omitempty"`
}

func (d BookingDTO) IsEmpty() bool {
	d.ID, d.CapitalPartnerUnitDTO = 0, nil
	return d == BookingDTO{}
}

type PurchaseDTO struct {
	ID                    int64          `json:"id,omitempty"`
	PurchaseDate          string         `json:"cpuPurchaseDate,omitempty"`
	AgreementPrice        *float64       `json:"cpupAgreementPrice,omitempty"`
	AgentName             string         `json:"cpupAgentName,omitempty"`
	AgentNationalID       string         `json:"cpupAgentNationalId,omitempty"`
	SalePurchaseAgreement *bool          `json:"cpupSalePurchaseAgreement,omitempty"`
	WorldCheck            *bool          `json:"cpupWorldCheck,omitempty"`
	CapitalPartnerUnitDTO *mapping.IDRef `json:"capitalPartnerUnitDTO,omitempty"`
}

func (d PurchaseDTO) IsEmpty() bool {
	d.ID, d.CapitalPartnerUnitDTO = 0, nil
	return d == PurchaseDTO{}
}

type BankInfoDTO struct {
	ID                int64          `json:"id,omitempty"`
	PayeeName         string         `json:"cpbiPayeeName,omitempty"`
	PayeeAddress      string         `json:"cpbiPayeeAddress,omitempty"`
	BankAddress       string         `json:"cpbiBankAddress,omitempty"`
	AccountNumber     string         `json:"cpbiAccountNumber,omitempty"`
	BICCode           string         `json:"cpbiBicCode,omitempty"`
	BeneRoutingCode   string         `json:"cpbiBeneRoutingCode,omitempty"`
	BankNameDTO       *refdata.Ref   `json:"bankNameDTO,omitempty"`
	PayModeDTO        *refdata.Ref   `json:"payModeDTO,omitempty"`
	CurrencyDTO       *refdata.Ref   `json:"currencyDTO,omitempty"`
	CapitalPartnerDTO *mapping.IDRef `json:"capitalPartnerDTO,omitempty"`
}

func (d BankInfoDTO) IsEmpty() bool {
	d.ID, d.CapitalPartnerDTO = 0, nil
	return d == BankInfoDTO{}
}

type PaymentPlanDTO struct {
	ID                    int64          `json:"id,omitempty"`
	InstallmentNumber     *int64         `json:"cpppInstallmentNumber,omitempty"`
	InstallmentDate       string         `json:"cpppInstallmentDate,omitempty"`
	InstallmentPercentage *float64       `json:"cpppInstallmentPercentage,omitempty"`
	BookingAmount         *float64       `json:"cpppBookingAmount,omitempty"`
	PaymentModeDTO        *refdata.Ref   `json:"paymentModeDTO,omitempty"`
	CapitalPartnerDTO     *mapping.IDRef `json:"capitalPartnerDTO,omitempty"`
}
