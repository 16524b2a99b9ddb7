package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/iota-uz/onboarding/modules/stepper/domain/entity"
	"github.com/iota-uz/onboarding/pkg/serrors"
)

type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindReconciliation ErrorKind = "reconciliation"
	KindSave           ErrorKind = "save"
	KindSubmission     ErrorKind = "submission"
	KindState          ErrorKind = "state"
)

// StepError is the user facing failure of a controller transition. Message
// is safe to show; Cause is logged only.
type StepError struct {
	Kind    ErrorKind
	Status  int
	Code    string
	Step    int
	Message string
	Cause   error
}

func (e *StepError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *StepError) Unwrap() error { return e.Cause }

func newStepError(kind ErrorKind, status int, code string, step int, message string, cause error) *StepError {
	return &StepError{Kind: kind, Status: status, Code: code, Step: step, Message: message, Cause: cause}
}

// PartialSaveWarning reports an optional child entity that could not be
// saved while its parent was.
type PartialSaveWarning struct {
	Kind    entity.Kind `json:"kind"`
	Message string      `json:"message"`
	Cause   error       `json:"-"`
}

func (w PartialSaveWarning) Error() string {
	return fmt.Sprintf("%s not saved: %s", w.Kind, w.Message)
}

var (
	ErrSubmitted       = serrors.NewError("STEPPER_SUBMITTED", "the wizard has already been submitted", "")
	ErrCancelled       = serrors.NewError("STEPPER_CANCELLED", "the wizard has been cancelled", "")
	ErrViewMode        = serrors.NewError("STEPPER_VIEW_MODE", "the wizard is read only", "")
	ErrUnknownStep     = serrors.NewError("STEPPER_UNKNOWN_STEP", "unknown step", "")
	ErrUnknownWizard   = serrors.NewError("STEPPER_UNKNOWN_WIZARD", "unknown wizard", "")
	ErrSessionNotFound = serrors.NewError("STEPPER_SESSION_NOT_FOUND", "wizard session not found", "")
	ErrSaveInProgress  = serrors.NewError("STEPPER_SAVE_IN_PROGRESS", "a save is already running for this step", "")
)

// AsStepError maps any controller error to a StepError.
func AsStepError(err error) *StepError {
	if err == nil {
		return nil
	}
	var se *StepError
	if errors.As(err, &se) {
		return se
	}
	switch {
	case errors.Is(err, ErrUnknownStep), errors.Is(err, ErrUnknownWizard):
		return newStepError(KindState, http.StatusBadRequest, codeOf(err), -1, err.Error(), nil)
	case errors.Is(err, ErrSessionNotFound):
		return newStepError(KindState, http.StatusNotFound, codeOf(err), -1, err.Error(), nil)
	case errors.Is(err, ErrSubmitted), errors.Is(err, ErrCancelled), errors.Is(err, ErrViewMode),
		errors.Is(err, ErrSaveInProgress), errors.Is(err, ErrStepChanged), errors.Is(err, ErrForwardJump):
		return newStepError(KindState, http.StatusConflict, codeOf(err), -1, err.Error(), nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return newStepError(KindState, http.StatusGatewayTimeout, "STEPPER_TIMEOUT", -1, "the request timed out", err)
	default:
		return newStepError(KindState, http.StatusInternalServerError, "STEPPER_INTERNAL", -1, "unexpected error", err)
	}
}

func codeOf(err error) string {
	var be *serrors.BaseError
	if errors.As(err, &be) {
		return be.Code
	}
	return "STEPPER_ERROR"
}

var (
	ErrStepChanged = serrors.NewError("STEPPER_STEP_CHANGED", "the active step changed while the request was waiting", "")
	ErrForwardJump = serrors.NewError("STEPPER_FORWARD_JUMP", "steps can only be skipped forward when editing an existing record", "")
)
