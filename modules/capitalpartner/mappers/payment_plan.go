package mappers

import (
	"github.com/iota-uz/onboarding/modules/capitalpartner/dtos"
	m "github.com/iota-uz/onboarding/modules/stepper/domain/mapping"
	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
	"github.com/iota-uz/onboarding/modules/stepper/domain/refdata"
)

// PaymentPlan is the record field holding the installment rows.
const PaymentPlan = "paymentPlan"

// Installment row fields.
const (
	InstallmentNumber     = "installmentNumber"
	InstallmentDate       = "installmentDate"
	InstallmentPercentage = "installmentPercentage"
	BookingAmount         = "bookingAmount"
	PaymentMode           = "paymentMode"
)

func InstallmentToDTO(row record.Record, cat refdata.Catalog) dtos.PaymentPlanDTO {
	return dtos.PaymentPlanDTO{
		InstallmentNumber:     m.Int(row, InstallmentNumber),
		InstallmentDate:       m.Date(row, InstallmentDate),
		InstallmentPercentage: m.Amount(row, InstallmentPercentage),
		BookingAmount:         m.Amount(row, BookingAmount),
		PaymentModeDTO:        m.Ref(cat, refdata.PaymentMode, row, PaymentMode),
	}
}

func InstallmentFromDTO(dto dtos.PaymentPlanDTO, cat refdata.Catalog) record.Record {
	out := record.Record{}
	if dto.ID > 0 {
		out[record.IDField] = dto.ID
	}
	m.SetInt(out, InstallmentNumber, dto.InstallmentNumber)
	m.SetDate(out, InstallmentDate, dto.InstallmentDate)
	m.SetAmount(out, InstallmentPercentage, dto.InstallmentPercentage)
	m.SetAmount(out, BookingAmount, dto.BookingAmount)
	m.SetRef(out, PaymentMode, cat, refdata.PaymentMode, dto.PaymentModeDTO)
	return out
}
