package services

import (
	"github.com/google/uuid"
	"github.com/wI2L/jsondiff"

	"github.com/iota-uz/onboarding/modules/stepper/domain/entity"
)

type StepChangedEvent struct {
	InstanceID uuid.UUID
	Wizard     string
	From       int
	To         int
	URL        string
}

type StepSavedEvent struct {
	InstanceID uuid.UUID
	Wizard     string
	Step       int
	IDs        entity.IDs
	Warnings   []PartialSaveWarning
}

type ReconciledEvent struct {
	InstanceID uuid.UUID
	Wizard     string
	Step       int
	Found      bool
	Diff       jsondiff.Patch
}

type SubmittedEvent struct {
	InstanceID        uuid.UUID
	Wizard            string
	RecordID          int64
	WorkflowRequestID string
	DraftKey          string
}

type CancelledEvent struct {
	InstanceID uuid.UUID
	Wizard     string
	DraftKey   string
}
