// Package workflow starts approval workflows for finished wizards.
package workflow

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iota-uz/onboarding/modules/stepper/services"
	"github.com/iota-uz/onboarding/pkg/apiclient"
)

const requestPath = "/workflow/request"

var idempotencyNamespace = uuid.MustParse("6f1b0c3e-5a7d-4d52-9a55-3f0c2c7e1b40")

type request struct {
	ReferenceID   int64  `json:"referenceId"`
	ReferenceType string `json:"referenceType"`
	ModuleName    string `json:"moduleName"`
	Action        string `json:"action"`
	Payload       any    `json:"payload"`
}

type response struct {
	ID                json.Number `json:"id"`
	WorkflowRequestID json.Number `json:"workflowRequestId"`
}

type Submitter struct {
	client apiclient.Client
}

func NewSubmitter(client apiclient.Client) *Submitter {
	return &Submitter{client: client}
}

// IdempotencyKey is stable per record and action, so a resubmission after a
// lost response cannot start a second workflow.
func IdempotencyKey(s services.Submission) string {
	name := s.ReferenceType + ":" + strconv.FormatInt(s.ReferenceID, 10) + ":" + s.Action
	return uuid.NewSHA1(idempotencyNamespace, []byte(name)).String()
}

func (w *Submitter) Submit(ctx context.Context, s services.Submission) (string, error) {
	if s.ReferenceID <= 0 {
		return "", errors.New("workflow: submission without a reference id")
	}
	ctx = apiclient.WithHeader(ctx, "Idempotency-Key", IdempotencyKey(s))

	var resp response
	err := w.client.Post(ctx, requestPath, request{
		ReferenceID:   s.ReferenceID,
		ReferenceType: s.ReferenceType,
		ModuleName:    s.ModuleName,
		Action:        s.Action,
		Payload:       s.Payload,
	}, &resp)
	if err != nil {
		return "", errors.Wrap(err, "submit workflow request")
	}
	id := resp.WorkflowRequestID.String()
	if id == "" {
		id = resp.ID.String()
	}
	if id == "" {
		return "", errors.New("workflow: response carries no request id")
	}
	return id, nil
}
