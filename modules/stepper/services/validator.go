package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
	"github.com/iota-uz/onboarding/modules/stepper/domain/step"
	"github.com/iota-uz/onboarding/pkg/constants"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is empty when the step may advance.
type ValidationResult struct {
	Errors []FieldError `json:"errors"`
}

func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

func (r ValidationResult) Messages() []string {
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Message
	}
	return out
}

// Message is the single comma joined text shown to the user.
func (r ValidationResult) Message() string {
	return strings.Join(r.Messages(), ", ")
}

func (r *ValidationResult) add(field, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: message})
}

var validationMessages = map[string]string{
	"required":   "{0} is required",
	"percentage": "{0} must be a percentage with at most two decimals",
	"amount":     "{0} must be an amount with at most two decimals",
}

type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func NewValidator() *Validator {
	locale := en.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("en")
	for tag, text := range validationMessages {
		if err := trans.Add(tag, text, false); err != nil {
			panic(err)
		}
	}
	return &Validator{validate: constants.Validate, trans: trans}
}

// Validate checks the step's declared rules against rec. Exempt steps always
// pass.
func (v *Validator) Validate(s *step.Step, rec record.Record) ValidationResult {
	var res ValidationResult
	if s == nil || s.Exempt() {
		return res
	}

	for _, f := range s.Required {
		if !record.Truthy(rec[f]) {
			res.add(f, v.message("required", s.FieldLabel(f)))
		}
	}
	for _, f := range s.Percentage {
		v.checkPattern(&res, f, s.FieldLabel(f), rec[f], "percentage")
	}
	for _, f := range s.Amount {
		v.checkPattern(&res, f, s.FieldLabel(f), rec[f], "amount")
	}

	if rs := s.Rows; rs != nil {
		for i, row := range record.LiveRows(rec.Rows(rs.Field)) {
			prefix := fmt.Sprintf("Row %d: ", i+1)
			for _, f := range rs.RowRequired {
				if !record.Truthy(row[f]) {
					res.add(rs.Field+"."+f, v.message("required", prefix+s.FieldLabel(f)))
				}
			}
			for _, f := range rs.RowAmount {
				v.checkPattern(&res, rs.Field+"."+f, prefix+s.FieldLabel(f), row[f], "amount")
			}
		}
	}

	if s.Check != nil {
		for _, msg := range s.Check(rec) {
			res.add("", msg)
		}
	}
	return res
}

// checkPattern only applies to present values; emptiness is the job of the
// required list.
func (v *Validator) checkPattern(res *ValidationResult, field, label string, value any, tag string) {
	if !record.Truthy(value) {
		return
	}
	err := v.validate.Var(record.TextOf(value), tag)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		res.add(field, v.message(verrs[0].Tag(), label))
		return
	}
	res.add(field, v.message(tag, label))
}

func (v *Validator) message(tag, label string) string {
	msg, err := v.trans.T(tag, label)
	if err != nil {
		return label + " is invalid"
	}
	return msg
}
