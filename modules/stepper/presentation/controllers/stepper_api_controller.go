package controllers

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
	"github.com/iota-uz/onboarding/modules/stepper/domain/refdata"
	refdatainfra "github.com/iota-uz/onboarding/modules/stepper/infrastructure/refdata"
	"github.com/iota-uz/onboarding/modules/stepper/presentation/mappers"
	"github.com/iota-uz/onboarding/modules/stepper/presentation/viewmodels"
	"github.com/iota-uz/onboarding/modules/stepper/services"
	"github.com/iota-uz/onboarding/pkg/application"
	"github.com/iota-uz/onboarding/pkg/composables"
	"github.com/iota-uz/onboarding/pkg/httpapi"
	"github.com/iota-uz/onboarding/pkg/routing"
)

const (
	maxBodyBytes       = 1 << 20
	defaultSaveTimeout = 2 * time.Minute
)

// OptionSource serves reference-data lists for the search endpoint.
type OptionSource interface {
	Options(ctx context.Context, c refdata.Category) ([]refdata.Option, error)
}

type StepperAPIController struct {
	stepper     *services.StepperService
	options     OptionSource
	apiPrefix   string
	saveTimeout time.Duration
}

type ControllerOption func(*StepperAPIController)

// WithSaveTimeout bounds a save or submission once it no longer follows the
// request context. Non-positive values keep the default.
func WithSaveTimeout(d time.Duration) ControllerOption {
	return func(c *StepperAPIController) {
		if d > 0 {
			c.saveTimeout = d
		}
	}
}

func NewStepperAPIController(app application.Application, opts ...ControllerOption) application.Controller {
	c := &StepperAPIController{
		stepper:     app.Service(services.StepperService{}).(*services.StepperService),
		options:     app.Service(refdatainfra.Provider{}).(*refdatainfra.Provider),
		apiPrefix:   "/api/v1",
		saveTimeout: defaultSaveTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *StepperAPIController) Key() string {
	return c.apiPrefix + "/wizards"
}

func (c *StepperAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("/wizards", c.ListWizards).Methods(http.MethodGet)
	api.HandleFunc("/wizards/open", c.Open).Methods(http.MethodPost)
	api.HandleFunc("/wizards/{wizard}", c.GetWizard).Methods(http.MethodGet)
	api.HandleFunc("/wizards/{wizard}/instances", c.Start).Methods(http.MethodPost)
	api.HandleFunc("/wizards/{wizard}/draft", c.DiscardDraft).Methods(http.MethodDelete)
	api.HandleFunc("/wizards/{wizard}/refdata/{category}", c.SearchOptions).Methods(http.MethodGet)

	api.HandleFunc("/instances/{id}", c.GetInstance).Methods(http.MethodGet)
	api.HandleFunc("/instances/{id}", c.Close).Methods(http.MethodDelete)
	api.HandleFunc("/instances/{id}/record", c.UpdateRecord).Methods(http.MethodPatch)
	api.HandleFunc("/instances/{id}/next", c.Next).Methods(http.MethodPost)
	api.HandleFunc("/instances/{id}/back", c.Back).Methods(http.MethodPost)
	api.HandleFunc("/instances/{id}/goto", c.GoTo).Methods(http.MethodPost)
	api.HandleFunc("/instances/{id}/cancel", c.Cancel).Methods(http.MethodPost)
	api.HandleFunc("/instances/{id}/reset", c.Reset).Methods(http.MethodPost)
	api.HandleFunc("/instances/{id}/validate", c.Validate).Methods(http.MethodGet)
	api.HandleFunc("/instances/{id}/summary", c.Summary).Methods(http.MethodGet)
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	se := services.AsStepError(err)
	var meta map[string]string
	if se.Step >= 0 {
		meta = map[string]string{"step": strconv.Itoa(se.Step)}
	}
	if se.Status >= http.StatusInternalServerError {
		composables.UseLogger(r.Context()).WithFields(logrus.Fields{
			"code":  se.Code,
			"error": se.Error(),
		}).Error("stepper: request failed")
	}
	_ = httpapi.WriteRequestError(w, r, se.Status, se.Code, se.Message, meta)
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, code, message string) {
	_ = httpapi.WriteRequestError(w, r, http.StatusBadRequest, code, message, nil)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := httpapi.DecodeJSON(r, dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (c *StepperAPIController) instance(w http.ResponseWriter, r *http.Request) (*services.Controller, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, services.ErrSessionNotFound)
		return nil, false
	}
	ctrl, err := c.stepper.Get(id)
	if err != nil {
		writeServiceError(w, r, err)
		return nil, false
	}
	return ctrl, true
}

func (c *StepperAPIController) ListWizards(w http.ResponseWriter, r *http.Request) {
	defs := c.stepper.Registry().List()
	out := make([]viewmodels.Wizard, len(defs))
	for i, def := range defs {
		out[i] = mappers.WizardToViewModel(def)
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *StepperAPIController) GetWizard(w http.ResponseWriter, r *http.Request) {
	def, err := c.stepper.Registry().Get(mux.Vars(r)["wizard"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, mappers.WizardToViewModel(def))
}

type startRequest struct {
	RecordID int64        `json:"recordId"`
	Step     int          `json:"step"`
	Mode     routing.Mode `json:"mode"`
}

func (c *StepperAPIController) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, r, "STEPPER_INVALID_BODY", "invalid json body")
		return
	}
	if req.Mode != "" && !req.Mode.Valid() {
		writeBadRequest(w, r, "STEPPER_INVALID_BODY", "mode must be create, edit or view")
		return
	}
	_, snap, err := c.stepper.Start(r.Context(), services.StartRequest{
		Wizard:   mux.Vars(r)["wizard"],
		RecordID: req.RecordID,
		Step:     req.Step,
		Mode:     req.Mode,
		Owner:    composables.UseOwner(r),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, snap)
}

type openRequest struct {
	URL string `json:"url"`
}

// Open starts an instance from a deep link.
func (c *StepperAPIController) Open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := decodeBody(w, r, &req); err != nil || req.URL == "" {
		writeBadRequest(w, r, "STEPPER_INVALID_BODY", "url is required")
		return
	}
	_, snap, err := c.stepper.StartFromURL(r.Context(), req.URL, composables.UseOwner(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, snap)
}

func (c *StepperAPIController) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	if err := c.stepper.DiscardDraft(r.Context(), mux.Vars(r)["wizard"], composables.UseOwner(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type searchQuery struct {
	Q     string `form:"q"`
	Limit int    `form:"limit"`
}

func (c *StepperAPIController) SearchOptions(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	def, err := c.stepper.Registry().Get(vars["wizard"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	category := refdata.Category(vars["category"])
	var q searchQuery
	if err := composables.UseQuery(&q, r); err != nil {
		writeBadRequest(w, r, "STEPPER_INVALID_QUERY", "invalid query")
		return
	}

	opts, err := c.options.Options(r.Context(), category)
	if err != nil || len(opts) == 0 {
		opts = def.Fallbacks.Options(category)
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, mappers.OptionsToViewModels(refdatainfra.Search(opts, q.Q, q.Limit)))
}

func (c *StepperAPIController) GetInstance(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := c.instance(w, r)
	if !ok {
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, ctrl.Snapshot())
}

func (c *StepperAPIController) Close(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, services.ErrSessionNotFound)
		return
	}
	snap, err := c.stepper.Close(id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, snap)
}

const (
	jsonPatchType  = "application/json-patch+json"
	mergePatchType = "application/merge-patch+json"
)

// UpdateRecord accepts a JSON Patch, a JSON Merge Patch or a plain object of
// fields to set.
func (c *StepperAPIController) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := c.instance(w, r)
	if !ok {
		return
	}
	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		snap services.Snapshot
		err  error
	)
	switch contentType {
	case jsonPatchType, mergePatchType:
		doc, readErr := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if readErr != nil {
			writeBadRequest(w, r, "STEPPER_INVALID_BODY", "body could not be read")
			return
		}
		snap, err = ctrl.Patch(r.Context(), doc, contentType == mergePatchType)
	default:
		var fields record.Record
		if decodeErr := decodeBody(w, r, &fields); decodeErr != nil {
			writeBadRequest(w, r, "STEPPER_INVALID_BODY", "invalid json body")
			return
		}
		snap, err = ctrl.Update(r.Context(), fields)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, snap)
}

func (c *StepperAPIController) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, *services.Controller) (services.Snapshot, error)) {
	ctrl, ok := c.instance(w, r)
	if !ok {
		return
	}
	snap, err := fn(r.Context(), ctrl)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, snap)
}

// Next saves or submits on a context detached from the request, so a client
// that goes away cannot cut a multi-entity save in half.
func (c *StepperAPIController) Next(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, func(ctx context.Context, ctrl *services.Controller) (services.Snapshot, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.saveTimeout)
		defer cancel()
		return ctrl.Next(ctx)
	})
}

func (c *StepperAPIController) Back(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, func(ctx context.Context, ctrl *services.Controller) (services.Snapshot, error) {
		return ctrl.Back(ctx)
	})
}

type gotoRequest struct {
	Step int `json:"step"`
}

func (c *StepperAPIController) GoTo(w http.ResponseWriter, r *http.Request) {
	var req gotoRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, r, "STEPPER_INVALID_BODY", "invalid json body")
		return
	}
	c.transition(w, r, func(ctx context.Context, ctrl *services.Controller) (services.Snapshot, error) {
		return ctrl.GoTo(ctx, req.Step)
	})
}

func (c *StepperAPIController) Cancel(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, func(_ context.Context, ctrl *services.Controller) (services.Snapshot, error) {
		return ctrl.Cancel(), nil
	})
}

// Reset switches the instance to another record.
func (c *StepperAPIController) Reset(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, r, "STEPPER_INVALID_BODY", "invalid json body")
		return
	}
	c.transition(w, r, func(ctx context.Context, ctrl *services.Controller) (services.Snapshot, error) {
		return ctrl.Reset(ctx, services.StartOptions{RecordID: req.RecordID, Step: req.Step, Mode: req.Mode})
	})
}

func (c *StepperAPIController) Validate(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := c.instance(w, r)
	if !ok {
		return
	}
	res := ctrl.Validate()
	type validateResponse struct {
		OK      bool                  `json:"ok"`
		Message string                `json:"message,omitempty"`
		Errors  []services.FieldError `json:"errors"`
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, validateResponse{OK: res.OK(), Message: res.Message(), Errors: res.Errors})
}

type summaryQuery struct {
	Currency string `form:"currency"`
}

func (c *StepperAPIController) Summary(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := c.instance(w, r)
	if !ok {
		return
	}
	q := summaryQuery{Currency: "AED"}
	if err := composables.UseQuery(&q, r); err != nil {
		writeBadRequest(w, r, "STEPPER_INVALID_QUERY", "invalid query")
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, ctrl.Summary(q.Currency))
}
