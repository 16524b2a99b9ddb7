package refdata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

var testCatalog = Catalog{
	InvestorType: {
		{ID: 11, SettingValue: "CP_INDIVIDUAL", DisplayName: "Individual"},
		{ID: 12, SettingValue: "CP_COMPANY", DisplayName: "Company"},
	},
}

func TestCatalog_Resolve(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   any
		want int64
	}{
		{name: "setting value", in: "CP_INDIVIDUAL", want: 11},
		{name: "case insensitive key", in: "cp_company", want: 12},
		{name: "numeric id", in: 12, want: 12},
		{name: "numeric string", in: "11", want: 11},
		{name: "json number", in: json.Number("12"), want: 12},
		{name: "ref object", in: map[string]any{"id": 11.0}, want: 11},
		{name: "display text is not a key", in: "Individual"},
		{name: "unknown", in: "CP_TRUST"},
		{name: "nil", in: nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ref := testCatalog.Ref(InvestorType, tc.in)
			if tc.want == 0 {
				require.Nil(t, ref)
				return
			}
			require.Equal(t, &Ref{ID: tc.want}, ref)
		})
	}
}

func TestCatalog_SettingValue(t *testing.T) {
	t.Parallel()

	require.Equal(t, "CP_COMPANY", testCatalog.SettingValue(InvestorType, map[string]any{"id": json.Number("12")}))
	require.Equal(t, "CP_TRUST", testCatalog.SettingValue(InvestorType, map[string]any{"id": 99.0, "settingValue": "CP_TRUST"}))
	require.Equal(t, "", testCatalog.SettingValue(InvestorType, map[string]any{"id": 99.0}))
	require.Equal(t, "", testCatalog.SettingValue(Currency, "AED"))
}

func TestCatalog_WithFallback(t *testing.T) {
	t.Parallel()

	loaded := Catalog{InvestorType: testCatalog[InvestorType], Currency: nil}
	static := Catalog{
		Currency:     CurrencyOptions("AED", "USD", "XXX_UNKNOWN"),
		InvestorType: {{SettingValue: "CP_INDIVIDUAL"}},
	}
	merged := loaded.WithFallback(static)

	require.Len(t, merged.Options(Currency), 2)
	require.Equal(t, "USD", merged.Options(Currency)[1].SettingValue)
	require.Len(t, merged.Options(InvestorType), 2)

	// static currencies render but never produce a reference object
	_, ok := merged.Resolve(Currency, "AED")
	require.True(t, ok)
	require.Nil(t, merged.Ref(Currency, "AED"))
}

func TestFormatMoney(t *testing.T) {
	t.Parallel()

	require.Equal(t, "$1,500.25", FormatMoney(150025, "USD"))
	require.Equal(t, "10.00 ZZZ", FormatMoney(1000, "ZZZ"))
}
