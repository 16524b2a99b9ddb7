package record

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
)

var amountReplacer = strings.NewReplacer("%", "", ",", "", " ", "", "\u00a0", "")

// ParseDecimal reads monetary or percentage input. Percent signs and
// thousands separators are ignored.
func ParseDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case nil:
		return decimal.Decimal{}, false
	case decimal.Decimal:
		return t, true
	case float64:
		return decimal.NewFromFloat(t), true
	case float32:
		return decimal.NewFromFloat32(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return d, err == nil
	case string:
		s := amountReplacer.Replace(strings.TrimSpace(t))
		if s == "" {
			return decimal.Decimal{}, false
		}
		d, err := decimal.NewFromString(s)
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}

// ParseAmount is ParseDecimal as a float pointer; nil means omit the field.
func ParseAmount(v any) *float64 {
	d, ok := ParseDecimal(v)
	if !ok {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"02/01/2006",
	"02-01-2006",
}

// NormalizeDate reduces any date-like value to its calendar day, read in the
// value's own zone, at midnight UTC.
func NormalizeDate(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return civil.DateOf(t).In(time.UTC), true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return NormalizeDate(*t)
	case civil.Date:
		if !t.IsValid() {
			return time.Time{}, false
		}
		return t.In(time.UTC), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return civil.DateOf(parsed).In(time.UTC), true
			}
		}
		return time.Time{}, false
	case map[string]any:
		return dateFromParts(Record(t))
	case Record:
		return dateFromParts(t)
	default:
		return time.Time{}, false
	}
}

// dateFromParts accepts {year, month, day} with a 1-based month, and the
// {$y, $M, $D} shape of serialized picker values with a 0-based month.
func dateFromParts(r Record) (time.Time, bool) {
	if y, ok := r.Int64("year"); ok {
		m, okM := r.Int64("month")
		d, okD := r.Int64("day")
		if !okM || !okD {
			return time.Time{}, false
		}
		return validDate(civil.Date{Year: int(y), Month: time.Month(m), Day: int(d)})
	}
	if y, ok := r.Int64("$y"); ok {
		m, okM := wholeNumber(r["$M"])
		d, okD := r.Int64("$D")
		if !okM || !okD {
			return time.Time{}, false
		}
		return validDate(civil.Date{Year: int(y), Month: time.Month(m + 1), Day: int(d)})
	}
	return time.Time{}, false
}

func wholeNumber(v any) (int64, bool) {
	if isZeroNumber(v) {
		return 0, true
	}
	return Int64Of(v)
}

func isZeroNumber(v any) bool {
	switch t := v.(type) {
	case int:
		return t == 0
	case int64:
		return t == 0
	case float64:
		return t == 0
	case json.Number:
		return t.String() == "0"
	case string:
		return strings.TrimSpace(t) == "0"
	}
	return false
}

func validDate(d civil.Date) (time.Time, bool) {
	if !d.IsValid() {
		return time.Time{}, false
	}
	return d.In(time.UTC), true
}

// FormatDate serializes a date-like value for the server, "" when it does
// not parse.
func FormatDate(v any) string {
	t, ok := NormalizeDate(v)
	if !ok {
		return ""
	}
	return t.Format(time.RFC3339)
}

// DayString renders a server date as YYYY-MM-DD for the form.
func DayString(v any) string {
	t, ok := NormalizeDate(v)
	if !ok {
		return ""
	}
	return civil.DateOf(t).String()
}

func Today(now time.Time) string {
	return civil.DateOf(now).String()
}
