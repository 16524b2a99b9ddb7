// Package draft is the local, non-authoritative copy of an unfinished wizard.
package draft

import (
	"context"
	"time"

	"github.com/iota-uz/onboarding/modules/stepper/domain/entity"
	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
)

type Draft struct {
	Key      string        `json:"key"`
	Wizard   string        `json:"wizard"`
	RecordID int64         `json:"recordId,omitempty"`
	Step     int           `json:"step"`
	Record   record.Record `json:"record"`
	IDs      entity.IDs    `json:"ids,omitempty"`
	SavedAt  time.Time     `json:"savedAt"`
}

// Repository stores drafts by key. Writes are last-writer-wins.
type Repository interface {
	Get(ctx context.Context, key string) (Draft, bool, error)
	Save(ctx context.Context, d Draft) error
	Delete(ctx context.Context, key string) error
}

// Key is the draft key of a wizard for an owner, e.g. a user id or "anonymous".
func Key(wizard, owner string) string {
	if owner == "" {
		owner = "anonymous"
	}
	return wizard + ":" + owner
}
