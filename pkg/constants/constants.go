package constants

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

type contextKey string

const (
	LoggerKey    contextKey = "logger"
	RequestIDKey contextKey = "request_id"
)

var (
	PercentagePattern = regexp.MustCompile(`^\d+(\.\d{1,2})?%?$`)
	AmountPattern     = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
)

// Validate is the shared validator instance. It knows the "percentage" and
// "amount" tags on top of the library defaults.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	mustRegister(v, "percentage", PercentagePattern)
	mustRegister(v, "amount", AmountPattern)
	return v
}

func mustRegister(v *validator.Validate, tag string, pattern *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return pattern.MatchString(fmt.Sprint(fl.Field().Interface()))
	})
	if err != nil {
		panic(err)
	}
}
