package mappers_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/onboarding/modules/project/dtos"
	"github.com/iota-uz/onboarding/modules/project/mappers"
	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
	"github.com/iota-uz/onboarding/modules/stepper/domain/refdata"
)

func catalog() refdata.Catalog {
	return refdata.Catalog{
		refdata.ProjectType:   {{ID: 21, SettingValue: "RESIDENTIAL", DisplayName: "Residential"}},
		refdata.ProjectStatus: {{ID: 22, SettingValue: "ACTIVE", DisplayName: "Active"}},
		refdata.Currency:      {{ID: 61, SettingValue: "AED", DisplayName: "Dirham"}},
		refdata.AccountType:   {{ID: 71, SettingValue: "ESCROW", DisplayName: "Escrow"}},
		refdata.BankName:      {{ID: 81, SettingValue: "ENBD", DisplayName: "Emirates NBD"}},
		refdata.FeeCategory:   {{ID: 91, SettingValue: "REGISTRATION", DisplayName: "Registration"}},
		refdata.BeneficiaryID: {{ID: 95, SettingValue: "TRADE_LICENSE", DisplayName: "Trade license"}},
	}
}

func TestProjectToDTO(t *testing.T) {
	t.Parallel()

	dto := mappers.ProjectToDTO(record.Record{
		mappers.ProjectCode:      "PRJ-9",
		mappers.ProjectName:      "Marina Heights",
		mappers.ProjectType:      "RESIDENTIAL",
		mappers.ProjectStatus:    "UNKNOWN",
		mappers.PercentComplete:  "42.5",
		mappers.TotalUnits:       "120",
		mappers.ConstructionCost: "1,250,000",
		mappers.CostCurrency:     "AED",
		mappers.StartDate:        "2026-01-05T00:00:00Z",
	}, catalog())

	raw, err := json.Marshal(dto)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"reaId": "PRJ-9",
		"reaName": "Marina Heights",
		"reaTypeDTO": {"id": 21},
		"reaPercentComplete": 42.5,
		"reaNoOfUnits": 120,
		"reaConstructionCost": 1250000,
		"reaConstructionCostCurrencyDTO": {"id": 61},
		"reaStartDate": "2026-01-05T00:00:00Z"
	}`, string(raw))
}

func TestProjectFromDTO_RoundTrip(t *testing.T) {
	t.Parallel()

	in := record.Record{
		mappers.ProjectCode:   "PRJ-9",
		mappers.ProjectName:   "Marina Heights",
		mappers.DeveloperName: "Emaar",
		mappers.ProjectType:   "RESIDENTIAL",
		mappers.ProjectStatus: "ACTIVE",
	}
	dto := mappers.ProjectToDTO(in, catalog())
	dto.ID = 55

	raw, err := json.Marshal(dto)
	require.NoError(t, err)
	var back dtos.RealEstateAssetDTO
	require.NoError(t, json.Unmarshal(raw, &back))

	out := mappers.ProjectFromDTO(back, catalog())
	require.Equal(t, int64(55), out[mappers.ProjectID])
	delete(out, mappers.ProjectID)
	require.Equal(t, in, out)
}

func TestRowsUnwrapAssetReference(t *testing.T) {
	t.Parallel()

	var account dtos.AccountDTO
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 301,
		"accountNumber": "0012",
		"accountTypeDTO": {"id": 71, "settingValue": "ESCROW"},
		"realEstateAssetDTO": {"id": 55, "reaName": "Marina Heights"}
	}`), &account))

	row := mappers.AccountFromDTO(account, catalog())
	require.Equal(t, record.Record{
		record.IDField:        int64(301),
		mappers.ProjectID:     int64(55),
		mappers.AccountNumber: "0012",
		mappers.AccountType:   "ESCROW",
	}, row)

	var plan dtos.PaymentPlanDTO
	require.NoError(t, json.Unmarshal([]byte(`{
		"reappInstallmentNumber": 2,
		"reappInstallmentPercentage": 25
	}`), &plan))
	require.Equal(t, record.Record{
		mappers.InstallmentNumber:     int64(2),
		mappers.InstallmentPercentage: 25.0,
	}, mappers.InstallmentFromDTO(plan))
}

func TestFeeAndBeneficiaryRefs(t *testing.T) {
	t.Parallel()

	fee := mappers.FeeToDTO(record.Record{
		mappers.FeeCategory: "REGISTRATION",
		mappers.FeeAmount:   "500",
		mappers.FeeCurrency: "AED",
	}, catalog())
	require.Equal(t, int64(91), fee.CategoryDTO.ID)
	require.Equal(t, int64(61), fee.CurrencyDTO.ID)
	require.Nil(t, fee.FrequencyDTO)

	bene := mappers.BeneficiaryToDTO(record.Record{
		mappers.BeneficiaryName:   "Emaar LLC",
		mappers.BeneficiaryIDType: "TRADE_LICENSE",
		mappers.BeneficiaryBank:   "ENBD",
	}, catalog())
	require.Equal(t, int64(95), bene.IDTypeDTO.ID)
	require.Equal(t, int64(81), bene.BankNameDTO.ID)
	require.Equal(t, "Emaar LLC", bene.Name)
}

func TestSummariesSkipWhenEmpty(t *testing.T) {
	t.Parallel()

	require.True(t, mappers.FinancialToDTO(record.Record{mappers.EscrowBalance: ""}).IsEmpty())
	require.True(t, mappers.ClosureToDTO(record.Record{mappers.CheckGuaranteeDoc: false}).IsEmpty())

	closure := mappers.ClosureToDTO(record.Record{
		mappers.CheckGuaranteeDoc: true,
		mappers.ClosureDate:       "2026-09-30",
	})
	require.False(t, closure.IsEmpty())
	require.Equal(t, record.Record{
		mappers.CheckGuaranteeDoc: true,
		mappers.ClosureDate:       "2026-09-30",
	}, mappers.ClosureFromDTO(closure))
}
