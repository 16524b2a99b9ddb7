package mappers

import (
	"github.com/iota-uz/onboarding/modules/project/dtos"
	m "github.com/iota-uz/onboarding/modules/stepper/domain/mapping"
	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
)

// Financial summary fields.
const (
	EstimatedRevenue   = "estimatedRevenue"
	EstimatedCost      = "estimatedConstructionCost"
	EstimatedLandCost  = "estimatedLandCost"
	EstimatedMarketing = "estimatedMarketingExpenses"
	ActualSoldValue    = "actualSoldValue"
	ActualCost         = "actualConstructionCost"
	EscrowBalance      = "escrowBalance"
	RetentionBalance   = "retentionBalance"
)

var FinancialFields = []string{
	EstimatedRevenue, EstimatedCost, EstimatedLandCost, EstimatedMarketing,
	ActualSoldValue, ActualCost, EscrowBalance, RetentionBalance,
}

func FinancialToDTO(rec record.Record) dtos.FinancialSummaryDTO {
	return dtos.FinancialSummaryDTO{
		EstimatedRevenue:   m.Amount(rec, EstimatedRevenue),
		EstimatedCost:      m.Amount(rec, EstimatedCost),
		EstimatedLandCost:  m.Amount(rec, EstimatedLandCost),
		EstimatedMarketing: m.Amount(rec, EstimatedMarketing),
		ActualSoldValue:    m.Amount(rec, ActualSoldValue),
		ActualCost:         m.Amount(rec, ActualCost),
		EscrowBalance:      m.Amount(rec, EscrowBalance),
		RetentionBalance:   m.Amount(rec, RetentionBalance),
	}
}

func FinancialFromDTO(dto dtos.FinancialSummaryDTO) record.Record {
	out := record.Record{}
	m.SetAmount(out, EstimatedRevenue, dto.EstimatedRevenue)
	m.SetAmount(out, EstimatedCost, dto.EstimatedCost)
	m.SetAmount(out, EstimatedLandCost, dto.EstimatedLandCost)
	m.SetAmount(out, EstimatedMarketing, dto.EstimatedMarketing)
	m.SetAmount(out, ActualSoldValue, dto.ActualSoldValue)
	m.SetAmount(out, ActualCost, dto.ActualCost)
	m.SetAmount(out, EscrowBalance, dto.EscrowBalance)
	m.SetAmount(out, RetentionBalance, dto.RetentionBalance)
	return out
}

// Closure fields.
const (
	TotalIncomeFund   = "totalIncomeFund"
	TotalPayment      = "totalPayment"
	CheckGuaranteeDoc = "checkGuaranteeDoc"
	ClosureDate       = "closureDate"
	ClosureRemarks    = "closureRemarks"
)

var ClosureFields = []string{TotalIncomeFund, TotalPayment, CheckGuaranteeDoc, ClosureDate, ClosureRemarks}

func ClosureToDTO(rec record.Record) dtos.ClosureDTO {
	return dtos.ClosureDTO{
		TotalIncomeFund:   m.Amount(rec, TotalIncomeFund),
		TotalPayment:      m.Amount(rec, TotalPayment),
		CheckGuaranteeDoc: m.Bool(rec, CheckGuaranteeDoc),
		ClosureDate:       m.Date(rec, ClosureDate),
		Remarks:           m.String(rec, ClosureRemarks),
	}
}

func ClosureFromDTO(dto dtos.ClosureDTO) record.Record {
	out := record.Record{}
	m.SetAmount(out, TotalIncomeFund, dto.TotalIncomeFund)
	m.SetAmount(out, TotalPayment, dto.TotalPayment)
	m.SetBool(out, CheckGuaranteeDoc, dto.CheckGuaranteeDoc)
	m.SetDate(out, ClosureDate, dto.ClosureDate)
	m.SetString(out, ClosureRemarks, dto.Remarks)
	return out
}
