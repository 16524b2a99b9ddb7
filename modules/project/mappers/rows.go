package mappers

import (
	"github.com/iota-uz/onboarding/modules/project/dtos"
	m "github.com/iota-uz/onboarding/modules/stepper/domain/mapping"
	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
	"github.com/iota-uz/onboarding/modules/stepper/domain/refdata"
)

// Row list fields of the record.
const (
	Accounts      = "accounts"
	Fees          = "fees"
	Beneficiaries = "beneficiaries"
	PaymentPlan   = "paymentPlan"
)

// Account row fields.
const (
	AccountType   = "accountType"
	AccountNumber = "accountNumber"
	IBAN          = "ibanNumber"
	AccountTitle  = "accountTitle"
	DateOpened    = "dateOpened"
	BankName      = "bankName"
	Currency      = "currency"
)

func AccountToDTO(row record.Record, cat refdata.Catalog) dtos.AccountDTO {
	return dtos.AccountDTO{
		AccountNumber:  m.String(row, AccountNumber),
		IBAN:           m.String(row, IBAN),
		Title:          m.String(row, AccountTitle),
		DateOpened:     m.Date(row, DateOpened),
		AccountTypeDTO: m.Ref(cat, refdata.AccountType, row, AccountType),
		BankNameDTO:    m.Ref(cat, refdata.BankName, row, BankName),
		CurrencyDTO:    m.Ref(cat, refdata.Currency, row, Currency),
	}
}

func AccountFromDTO(dto dtos.AccountDTO, cat refdata.Catalog) record.Record {
	out := rowHeader(dto.ID, dto.RealEstateAssetDTO)
	m.SetString(out, AccountNumber, dto.AccountNumber)
	m.SetString(out, IBAN, dto.IBAN)
	m.SetString(out, AccountTitle, dto.Title)
	m.SetDate(out, DateOpened, dto.DateOpened)
	m.SetRef(out, AccountType, cat, refdata.AccountType, dto.AccountTypeDTO)
	m.SetRef(out, BankName, cat, refdata.BankName, dto.BankNameDTO)
	m.SetRef(out, Currency, cat, refdata.Currency, dto.CurrencyDTO)
	return out
}

// Fee row fields.
const (
	FeeCategory    = "feeCategory"
	FeeFrequency   = "feeFrequency"
	FeeAmount      = "feeAmount"
	FeeTotal       = "feeTotalAmount"
	FeeVAT         = "feeVatPercentage"
	CollectionDate = "collectionDate"
	DebitAccount   = "debitAccount"
	FeeCurrency    = "feeCurrency"
)

func FeeToDTO(row record.Record, cat refdata.Catalog) dtos.FeeDTO {
	return dtos.FeeDTO{
		Amount:         m.Amount(row, FeeAmount),
		TotalAmount:    m.Amount(row, FeeTotal),
		VATPercentage:  m.Amount(row, FeeVAT),
		CollectionDate: m.Date(row, CollectionDate),
		DebitAccount:   m.String(row, DebitAccount),
		CategoryDTO:    m.Ref(cat, refdata.FeeCategory, row, FeeCategory),
		FrequencyDTO:   m.Ref(cat, refdata.FeeFrequency, row, FeeFrequency),
		CurrencyDTO:    m.Ref(cat, refdata.Currency, row, FeeCurrency),
	}
}

func FeeFromDTO(dto dtos.FeeDTO, cat refdata.Catalog) record.Record {
	out := rowHeader(dto.ID, dto.RealEstateAssetDTO)
	m.SetAmount(out, FeeAmount, dto.Amount)
	m.SetAmount(out, FeeTotal, dto.TotalAmount)
	m.SetAmount(out, FeeVAT, dto.VATPercentage)
	m.SetDate(out, CollectionDate, dto.CollectionDate)
	m.SetString(out, DebitAccount, dto.DebitAccount)
	m.SetRef(out, FeeCategory, cat, refdata.FeeCategory, dto.CategoryDTO)
	m.SetRef(out, FeeFrequency, cat, refdata.FeeFrequency, dto.FrequencyDTO)
	m.SetRef(out, FeeCurrency, cat, refdata.Currency, dto.CurrencyDTO)
	return out
}

// Beneficiary row fields.
const (
	BeneficiaryName    = "beneficiaryName"
	BeneficiaryIDType  = "beneficiaryIdType"
	BeneficiaryID      = "beneficiaryId"
	BeneficiaryAccount = "beneficiaryAccount"
	BeneficiarySwift   = "beneficiarySwift"
	BeneficiaryBank    = "beneficiaryBank"
	BeneficiaryAddress = "beneficiaryBankAddress"
	TransferType       = "transferType"
)

func BeneficiaryToDTO(row record.Record, cat refdata.Catalog) dtos.BeneficiaryDTO {
	return dtos.BeneficiaryDTO{
		Name:            m.String(row, BeneficiaryName),
		IDNumber:        m.String(row, BeneficiaryID),
		AccountNumber:   m.String(row, BeneficiaryAccount),
		SwiftCode:       m.String(row, BeneficiarySwift),
		BankAddress:     m.String(row, BeneficiaryAddress),
		IDTypeDTO:       m.Ref(cat, refdata.BeneficiaryID, row, BeneficiaryIDType),
		BankNameDTO:     m.Ref(cat, refdata.BankName, row, BeneficiaryBank),
		TransferTypeDTO: m.Ref(cat, refdata.PaymentMode, row, TransferType),
	}
}

func BeneficiaryFromDTO(dto dtos.BeneficiaryDTO, cat refdata.Catalog) record.Record {
	out := rowHeader(dto.ID, dto.RealEstateAssetDTO)
	m.SetString(out, BeneficiaryName, dto.Name)
	m.SetString(out, BeneficiaryID, dto.IDNumber)
	m.SetString(out, BeneficiaryAccount, dto.AccountNumber)
	m.SetString(out, BeneficiarySwift, dto.SwiftCode)
	m.SetString(out, BeneficiaryAddress, dto.BankAddress)
	m.SetRef(out, BeneficiaryIDType, cat, refdata.BeneficiaryID, dto.IDTypeDTO)
	m.SetRef(out, BeneficiaryBank, cat, refdata.BankName, dto.BankNameDTO)
	m.SetRef(out, TransferType, cat, refdata.PaymentMode, dto.TransferTypeDTO)
	return out
}

// Payment plan row fields.
const (
	InstallmentNumber     = "installmentNumber"
	InstallmentPercentage = "installmentPercentage"
	CompletionPercentage  = "completionPercentage"
)

func InstallmentToDTO(row record.Record) dtos.PaymentPlanDTO {
	return dtos.PaymentPlanDTO{
		InstallmentNumber:     m.Int(row, InstallmentNumber),
		InstallmentPercentage: m.Amount(row, InstallmentPercentage),
		CompletionPercentage:  m.Amount(row, CompletionPercentage),
	}
}

func InstallmentFromDTO(dto dtos.PaymentPlanDTO) record.Record {
	out := rowHeader(dto.ID, dto.RealEstateAssetDTO)
	m.SetInt(out, InstallmentNumber, dto.InstallmentNumber)
	m.SetAmount(out, InstallmentPercentage, dto.InstallmentPercentage)
	m.SetAmount(out, CompletionPercentage, dto.CompletionPercentage)
	return out
}
