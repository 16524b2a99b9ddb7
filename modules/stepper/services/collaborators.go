package services

import (
	"context"

	"github.com/iota-uz/onboarding/modules/stepper/domain/refdata"
)

// CatalogProvider loads reference data for the given categories. A category
// that fails to load is returned empty.
type CatalogProvider interface {
	Catalog(ctx context.Context, categories []refdata.Category) (refdata.Catalog, error)
}

// Submission is the final workflow request of a wizard.
type Submission struct {
	ReferenceID   int64
	ReferenceType string
	ModuleName    string
	Action        string
	Payload       any
}

// Submitter starts the approval workflow and returns the workflow request id.
type Submitter interface {
	Submit(ctx context.Context, s Submission) (string, error)
}
