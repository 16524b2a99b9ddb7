// Package mappers translates the flat wizard record to the capital partner
// DTOs and back.
package mappers

import (
	"github.com/iota-uz/onboarding/modules/capitalpartner/dtos"
	m "github.com/iota-uz/onboarding/modules/stepper/domain/mapping"
	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
	"github.com/iota-uz/onboarding/modules/stepper/domain/refdata"
)

// Profile step fields.
const (
	FirstName      = "investorFirstName"
	MiddleName     = "investorMiddleName"
	LastName       = "investorLastName"
	LocaleName     = "investorLocaleName"
	IDNumber       = "investorIdNumber"
	IDExpiry       = "idExpiryDate"
	Telephone      = "investorTelephone"
	Mobile         = "investorMobile"
	Email          = "investorEmail"
	Ownership      = "ownershipPercentage"
	InvestorType   = "investorType"
	InvestorIDType = "investorIdType"
	Nationality    = "nationality"
	Remarks        = "remarks"
)

var ProfileFields = []string{
	FirstName, MiddleName, LastName, LocaleName, IDNumber, IDExpiry, Telephone, Mobile,
	Email, Ownership, InvestorType, InvestorIDType, Nationality, Remarks,
}

func ProfileToDTO(rec record.Record, cat refdata.Catalog) dtos.CapitalPartnerDTO {
	return dtos.CapitalPartnerDTO{
		CapitalPartnerName:                m.String(rec, FirstName),
		CapitalPartnerMiddleName:          m.String(rec, MiddleName),
		CapitalPartnerLastName:            m.String(rec, LastName),
		CapitalPartnerLocaleName:          m.String(rec, LocaleName),
		CapitalPartnerIDNo:                m.String(rec, IDNumber),
		IDExpiryDate:                      m.Date(rec, IDExpiry),
		CapitalPartnerTelephoneNo:         m.String(rec, Telephone),
		CapitalPartnerMobileNo:            m.String(rec, Mobile),
		CapitalPartnerEmail:               m.String(rec, Email),
		CapitalPartnerOwnershipPercentage: m.Amount(rec, Ownership),
		InvestorTypeDTO:                   m.Ref(cat, refdata.InvestorType, rec, InvestorType),
		DocumentTypeDTO:                   m.Ref(cat, refdata.IDType, rec, InvestorIDType),
		CountryOptionDTO:                  m.Ref(cat, refdata.Country, rec, Nationality),
		Remarks:                           m.String(rec, Remarks),
	}
}

func ProfileFromDTO(dto dtos.CapitalPartnerDTO, cat refdata.Catalog) record.Record {
	out := record.Record{}
	m.SetString(out, FirstName, dto.CapitalPartnerName)
	m.SetString(out, MiddleName, dto.CapitalPartnerMiddleName)
	m.SetString(out, LastName, dto.CapitalPartnerLastName)
	m.SetString(out, LocaleName, dto.CapitalPartnerLocaleName)
	m.SetString(out, IDNumber, dto.CapitalPartnerIDNo)
	m.SetDate(out, IDExpiry, dto.IDExpiryDate)
	m.SetString(out, Telephone, dto.CapitalPartnerTelephoneNo)
	m.SetString(out, Mobile, dto.CapitalPartnerMobileNo)
	m.SetString(out, Email, dto.CapitalPartnerEmail)
	m.SetAmount(out, Ownership, dto.CapitalPartnerOwnershipPercentage)
	m.SetRef(out, InvestorType, cat, refdata.InvestorType, dto.InvestorTypeDTO)
	m.SetRef(out, InvestorIDType, cat, refdata.IDType, dto.DocumentTypeDTO)
	m.SetRef(out, Nationality, cat, refdata.Country, dto.CountryOptionDTO)
	m.SetString(out, Remarks, dto.Remarks)
	return out
}
