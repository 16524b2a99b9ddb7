package mappers

import (
	"github.com/iota-uz/onboarding/modules/capitalpartner/dtos"
	m "github.com/iota-uz/onboarding/modules/stepper/domain/mapping"
	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
	"github.com/iota-uz/onboarding/modules/stepper/domain/refdata"
)

// Unit step fields. One step feeds three DTOs: the unit, its booking and its
// purchase.
const (
	UnitReference    = "unitReferenceNumber"
	TowerName        = "towerName"
	UnitNumber       = "unitNumber"
	Floor            = "floor"
	PlotSize         = "plotSize"
	UnitPrice        = "unitPrice"
	RegistrationFees = "registrationFees"
	UnitStatus       = "unitStatus"

	BookingDate      = "bookingDate"
	AmountPaid       = "amountPaid"
	AmountInTransit  = "amountInTransit"
	BookingReference = "bookingReference"

	PurchaseDate          = "purchaseDate"
	AgreementPrice        = "agreementPrice"
	AgentName             = "agentName"
	AgentNationalID       = "agentNationalId"
	SalePurchaseAgreement = "salePurchaseAgreement"
	WorldCheck            = "worldCheck"
)

var UnitFields = []string{
	UnitReference, TowerName, UnitNumber, Floor, PlotSize, UnitPrice, RegistrationFees, UnitStatus,
	BookingDate, AmountPaid, AmountInTransit, BookingReference,
	PurchaseDate, AgreementPrice, AgentName, AgentNationalID, SalePurchaseAgreement, WorldCheck,
}

func UnitToDTO(rec record.Record, cat refdata.Catalog) dtos.UnitDTO {
	return dtos.UnitDTO{
		UnitRefID:        m.String(rec, UnitReference),
		TowerName:        m.String(rec, TowerName),
		UnitNumber:       m.String(rec, UnitNumber),
		Floor:            m.String(rec, Floor),
		UnitPlotSize:     m.Amount(rec, PlotSize),
		UnitSellingPrice: m.Amount(rec, UnitPrice),
		RegistrationFees: m.Amount(rec, RegistrationFees),
		UnitStatusDTO:    m.Ref(cat, refdata.UnitStatus, rec, UnitStatus),
	}
}

func UnitFromDTO(dto dtos.UnitDTO, cat refdata.Catalog) record.Record {
	out := record.Record{}
	m.SetString(out, UnitReference, dto.UnitRefID)
	m.SetString(out, TowerName, dto.TowerName)
	m.SetString(out, UnitNumber, dto.UnitNumber)
	m.SetString(out, Floor, dto.Floor)
	m.SetAmount(out, PlotSize, dto.UnitPlotSize)
	m.SetAmount(out, UnitPrice, dto.UnitSellingPrice)
	m.SetAmount(out, RegistrationFees, dto.RegistrationFees)
	m.SetRef(out, UnitStatus, cat, refdata.UnitStatus, dto.UnitStatusDTO)
	return out
}

func BookingToDTO(rec record.Record) dtos.BookingDTO {
	return dtos.BookingDTO{
		BookingDate:      m.Date(rec, BookingDate),
		AmountPaid:       m.Amount(rec, AmountPaid),
		AmountInTransit:  m.Amount(rec, AmountInTransit),
		BookingReference: m.String(rec, BookingReference),
	}
}

func BookingFromDTO(dto dtos.BookingDTO) record.Record {
	out := record.Record{}
	m.SetDate(out, BookingDate, dto.BookingDate)
	m.SetAmount(out, AmountPaid, dto.AmountPaid)
	m.SetAmount(out, AmountInTransit, dto.AmountInTransit)
	m.SetString(out, BookingReference, dto.BookingReference)
	return out
}

func PurchaseToDTO(rec record.Record) dtos.PurchaseDTO {
	return dtos.PurchaseDTO{
		PurchaseDate:          m.Date(rec, PurchaseDate),
		AgreementPrice:        m.Amount(rec, AgreementPrice),
		AgentName:             m.String(rec, AgentName),
		AgentNationalID:       m.String(rec, AgentNationalID),
		SalePurchaseAgreement: m.Bool(rec, SalePurchaseAgreement),
		WorldCheck:            m.Bool(rec, WorldCheck),
	}
}

func PurchaseFromDTO(dto dtos.PurchaseDTO) record.Record {
	out := record.Record{}
	m.SetDate(out, PurchaseDate, dto.PurchaseDate)
	m.SetAmount(out, AgreementPrice, dto.AgreementPrice)
	m.SetString(out, AgentName, dto.AgentName)
	m.SetString(out, AgentNationalID, dto.AgentNationalID)
	m.SetBool(out, SalePurchaseAgreement, dto.SalePurchaseAgreement)
	m.SetBool(out, WorldCheck, dto.WorldCheck)
	return out
}
