package mappers

import (
	"github.com/iota-uz/onboarding/modules/capitalpartner/dtos"
	m "github.com/iota-uz/onboarding/modules/stepper/domain/mapping"
	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
	"github.com/iota-uz/onboarding/modules/stepper/domain/refdata"
)

const (
	PayMode         = "payMode"
	AccountNumber   = "accountNumber"
	PayeeName       = "payeeName"
	PayeeAddress    = "payeeAddress"
	BankName        = "bankName"
	BankAddress     = "bankAddress"
	BICCode         = "bicCode"
	BeneRoutingCode = "beneRoutingCode"
	Currency        = "currency"
)

var BankFields = []string{
	PayMode, AccountNumber, PayeeName, PayeeAddress, BankName, BankAddress, BICCode, BeneRoutingCode, Currency,
}

func BankToDTO(rec record.Record, cat refdata.Catalog) dtos.BankInfoDTO {
	return dtos.BankInfoDTO{
		PayeeName:       m.String(rec, PayeeName),
		PayeeAddress:    m.String(rec, PayeeAddress),
		BankAddress:     m.String(rec, BankAddress),
		AccountNumber:   m.String(rec, AccountNumber),
		BICCode:         m.String(rec, BICCode),
		BeneRoutingCode: m.String(rec, BeneRoutingCode),
		BankNameDTO:     m.Ref(cat, refdata.BankName, rec, BankName),
		PayModeDTO:      m.Ref(cat, refdata.PaymentMode, rec, PayMode),
		CurrencyDTO:     m.Ref(cat, refdata.Currency, rec, Currency),
	}
}

func BankFromDTO(dto dtos.BankInfoDTO, cat refdata.Catalog) record.Record {
	out := record.Record{}
	m.SetString(out, PayeeName, dto.PayeeName)
	m.SetString(out, PayeeAddress, dto.PayeeAddress)
	m.SetString(out, BankAddress, dto.BankAddress)
	m.SetString(out, AccountNumber, dto.AccountNumber)
	m.SetString(out, BICCode, dto.BICCode)
	m.SetString(out, BeneRoutingCode, dto.BeneRoutingCode)
	m.SetRef(out, BankName, cat, refdata.BankName, dto.BankNameDTO)
	m.SetRef(out, PayMode, cat, refdata.PaymentMode, dto.PayModeDTO)
	m.SetRef(out, Currency, cat, refdata.Currency, dto.CurrencyDTO)
	return out
}
