package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/onboarding/modules/stepper/domain/draft"
	"github.com/iota-uz/onboarding/pkg/apiclient"
	"github.com/iota-uz/onboarding/pkg/eventbus"
	"github.com/iota-uz/onboarding/pkg/logging"
	"github.com/iota-uz/onboarding/pkg/routing"
)

type StepperServiceOptions struct {
	Registry  *Registry
	Client    apiclient.Client
	Catalogs  CatalogProvider
	Submitter Submitter
	Drafts    draft.Repository
	AutoSaver *AutoSaver
	Sessions  *SessionStore
	Bus       eventbus.EventBus
	Logger    *logrus.Entry
}

// StartRequest opens a wizard instance. Owner scopes the local draft; an
// empty owner shares the anonymous draft.
type StartRequest struct {
	Wizard   string
	RecordID int64
	Step     int
	Mode     routing.Mode
	Owner    string
}

// StepperService creates wizard instances and keeps them in the session
// store between requests.
type StepperService struct {
	registry  *Registry
	client    apiclient.Client
	catalogs  CatalogProvider
	submitter Submitter
	drafts    draft.Repository
	autosaver *AutoSaver
	sessions  *SessionStore
	bus       eventbus.EventBus
	logger    *logrus.Entry
	validator *Validator
}

func NewStepperService(opts StepperServiceOptions) *StepperService {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = NewSessionStore(0, nil)
	}
	return &StepperService{
		registry:  opts.Registry,
		client:    opts.Client,
		catalogs:  opts.Catalogs,
		submitter: opts.Submitter,
		drafts:    opts.Drafts,
		autosaver: opts.AutoSaver,
		sessions:  sessions,
		bus:       opts.Bus,
		logger:    logger,
		validator: NewValidator(),
	}
}

func (s *StepperService) Registry() *Registry {
	return s.registry
}

func (s *StepperService) Sessions() *SessionStore {
	return s.sessions
}

// Start creates an instance. In create mode the owner's draft, if any, is
// restored.
func (s *StepperService) Start(ctx context.Context, req StartRequest) (*Controller, Snapshot, error) {
	def, err := s.registry.Get(req.Wizard)
	if err != nil {
		return nil, Snapshot{}, err
	}
	key := draft.Key(def.Name, req.Owner)
	ctrl := NewController(ControllerOptions{
		Definition: def,
		Client:     s.client,
		Catalogs:   s.catalogs,
		Submitter:  s.submitter,
		Validator:  s.validator,
		Bus:        s.bus,
		Routes:     s.registry.Routes(),
		AutoSaver:  s.autosaver,
		Logger:     s.logger,
		DraftKey:   key,
	})

	opts := StartOptions{RecordID: req.RecordID, Step: req.Step, Mode: req.Mode}
	if req.RecordID <= 0 && s.drafts != nil {
		d, ok, err := s.drafts.Get(ctx, key)
		switch {
		case err != nil:
			logWithFields(ctx, s.logger, logrus.WarnLevel, "stepper: draft not readable", logrus.Fields{
				"wizard": def.Name,
				"error":  err,
			})
		case ok:
			opts.Draft = &d
		}
	}

	snap, err := ctrl.Start(ctx, opts)
	if err != nil {
		return nil, Snapshot{}, err
	}
	s.sessions.Put(ctrl)
	return ctrl, snap, nil
}

// StartFromURL opens the instance a deep link points at.
func (s *StepperService) StartFromURL(ctx context.Context, rawURL, owner string) (*Controller, Snapshot, error) {
	st, err := s.registry.Routes().Parse(rawURL)
	if err != nil {
		return nil, Snapshot{}, fmt.Errorf("%w: %v", ErrUnknownWizard, err)
	}
	return s.Start(ctx, StartRequest{
		Wizard:   st.Wizard,
		RecordID: st.RecordID,
		Step:     st.Step,
		Mode:     st.Mode,
		Owner:    owner,
	})
}

func (s *StepperService) Get(id uuid.UUID) (*Controller, error) {
	return s.sessions.Get(id)
}

// Close cancels the instance and forgets it. The draft is kept.
func (s *StepperService) Close(id uuid.UUID) (Snapshot, error) {
	ctrl, err := s.sessions.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	snap := ctrl.Cancel()
	s.sessions.Delete(id)
	return snap, nil
}

// DiscardDraft drops the owner's draft of a wizard.
func (s *StepperService) DiscardDraft(ctx context.Context, wizard, owner string) error {
	if s.drafts == nil {
		return nil
	}
	def, err := s.registry.Get(wizard)
	if err != nil {
		return err
	}
	return s.drafts.Delete(ctx, draft.Key(def.Name, owner))
}
