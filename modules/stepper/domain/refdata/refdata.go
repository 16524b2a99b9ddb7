// Package refdata models the server enumerations behind dropdowns and the
// {id} reference objects DTOs carry for them.
package refdata

import (
	"encoding/json"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

type Category string

const (
	Currency      Category = "CURRENCY"
	Country       Category = "COUNTRY"
	InvestorType  Category = "INVESTOR_TYPE"
	IDType        Category = "INVESTOR_ID_TYPE"
	UnitStatus    Category = "UNIT_STATUS"
	PaymentMode   Category = "PAYMENT_MODE"
	ProjectType   Category = "BUILD_ASSEST_TYPE"
	ProjectStatus Category = "BUILD_ASSET_STATUS"
	AccountType   Category = "ACCOUNT_TYPE"
	FeeCategory   Category = "FEE_CATEGORY"
	FeeFrequency  Category = "FEE_FREQUENCY"
	BankName      Category = "BANK_NAME"
	BeneficiaryID Category = "BENEFICIARY_ID_TYPE"
)

// Option is one reference-data entry. SettingValue is the stable key the
// form stores; DisplayName is only for rendering.
type Option struct {
	ID           int64  `json:"id"`
	SettingValue string `json:"settingValue"`
	DisplayName  string `json:"displayName"`
}

// Ref is the {"id": n} object a DTO uses for a reference-data foreign key.
type Ref struct {
	ID           int64  `json:"id"`
	SettingValue string `json:"settingValue,omitempty"`
}

// Catalog maps categories to their loaded options. A missing or empty
// category means "not loaded".
type Catalog map[Category][]Option

func (c Catalog) Options(cat Category) []Option {
	return c[cat]
}

// WithFallback returns a catalog where every category c lacks is taken from
// static.
func (c Catalog) WithFallback(static Catalog) Catalog {
	out := make(Catalog, len(c)+len(static))
	for cat, opts := range static {
		out[cat] = opts
	}
	for cat, opts := range c {
		if len(opts) > 0 {
			out[cat] = opts
		}
	}
	return out
}

// Resolve finds the option a form value refers to. Values are matched on the
// setting value first and then on the numeric id; display text is never used.
func (c Catalog) Resolve(cat Category, v any) (Option, bool) {
	opts := c[cat]
	if len(opts) == 0 {
		return Option{}, false
	}
	key, id := keyOf(v)
	if key != "" {
		for _, o := range opts {
			if strings.EqualFold(o.SettingValue, key) {
				return o, true
			}
		}
	}
	if id > 0 {
		for _, o := range opts {
			if o.ID == id {
				return o, true
			}
		}
	}
	return Option{}, false
}

// Ref resolves v into a reference object, nil when it cannot be resolved to
// a real id.
func (c Catalog) Ref(cat Category, v any) *Ref {
	o, ok := c.Resolve(cat, v)
	if !ok || o.ID <= 0 {
		return nil
	}
	return &Ref{ID: o.ID}
}

// SettingValue turns an inbound reference back into the form's stable key.
// A reference carrying its own setting value is trusted when the catalog
// does not know the id.
func (c Catalog) SettingValue(cat Category, ref any) string {
	if o, ok := c.Resolve(cat, ref); ok {
		return o.SettingValue
	}
	if m, ok := ref.(map[string]any); ok {
		if s, ok := m["settingValue"].(string); ok {
			return s
		}
	}
	if r, ok := ref.(*Ref); ok && r != nil {
		return r.SettingValue
	}
	return ""
}

func (c Catalog) DisplayName(cat Category, v any) string {
	if o, ok := c.Resolve(cat, v); ok {
		return o.DisplayName
	}
	return ""
}

func keyOf(v any) (string, int64) {
	switch t := v.(type) {
	case nil:
		return "", 0
	case string:
		s := strings.TrimSpace(t)
		return s, parseID(s)
	case int:
		return "", int64(t)
	case int64:
		return "", t
	case float64:
		return "", int64(t)
	case json.Number:
		i, _ := t.Int64()
		return "", i
	case Ref:
		return t.SettingValue, t.ID
	case *Ref:
		if t == nil {
			return "", 0
		}
		return t.SettingValue, t.ID
	case Option:
		return t.SettingValue, t.ID
	case map[string]any:
		s, _ := t["settingValue"].(string)
		_, id := keyOf(t["id"])
		return s, id
	default:
		return "", 0
	}
}

func parseID(s string) int64 {
	var n int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int64(r-'0')
	}
	return n
}

// CurrencyOptions builds a static currency list from ISO codes. The options
// carry no server id, so they render but never resolve to a reference.
func CurrencyOptions(codes ...string) []Option {
	out := make([]Option, 0, len(codes))
	for _, code := range codes {
		cur := money.GetCurrency(code)
		if cur == nil {
			continue
		}
		out = append(out, Option{
			SettingValue: cur.Code,
			DisplayName:  cur.Code + " (" + cur.Grapheme + ")",
		})
	}
	return out
}

// FormatMoney renders amount in the currency's own template, e.g. "$1,500.00".
// Unknown currencies render the plain amount with the code appended.
func FormatMoney(minorUnits int64, code string) string {
	if money.GetCurrency(code) == nil {
		return decimal.New(minorUnits, -2).StringFixed(2) + " " + code
	}
	return money.New(minorUnits, code).Display()
}
