package stepper

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iota-uz/onboarding/modules/stepper/domain/draft"
	"github.com/iota-uz/onboarding/modules/stepper/infrastructure/persistence"
	"github.com/iota-uz/onboarding/modules/stepper/infrastructure/refdata"
	"github.com/iota-uz/onboarding/modules/stepper/infrastructure/workflow"
	"github.com/iota-uz/onboarding/modules/stepper/presentation/controllers"
	"github.com/iota-uz/onboarding/modules/stepper/services"
	"github.com/iota-uz/onboarding/pkg/apiclient"
	"github.com/iota-uz/onboarding/pkg/application"
	"github.com/iota-uz/onboarding/pkg/configuration"
)

// ModuleOptions overrides the collaborators built from configuration.
type ModuleOptions struct {
	Configuration *configuration.Configuration
	Client        apiclient.Client
	Drafts        draft.Repository
	// SweepInterval is how often idle sessions are dropped; zero means a
	// minute.
	SweepInterval time.Duration
}

func NewModule(opts *ModuleOptions) application.Module {
	if opts == nil {
		opts = &ModuleOptions{}
	}
	return &Module{options: opts}
}

type Module struct {
	options *ModuleOptions
}

func (m *Module) Register(app application.Application) error {
	conf := m.options.Configuration
	if conf == nil {
		conf = configuration.Use()
	}
	logger := app.Logger().WithField("module", m.Name())

	client := m.options.Client
	if client == nil {
		client = apiclient.New(apiclient.Options{
			BaseURL:    conf.API.BaseURL,
			Token:      conf.API.Token,
			Timeout:    conf.API.Timeout,
			GetRetries: conf.API.GetRetries,
			MaxBackoff: conf.API.MaxBackoff,
			Logger:     logger.WithField("component", "apiclient"),
		})
	}

	drafts := m.options.Drafts
	if drafts == nil {
		var err error
		if drafts, err = newDraftRepository(conf.Drafts); err != nil {
			return err
		}
	}

	provider := refdata.NewProvider(client, refdata.Options{
		TTL:    conf.RefData.CacheTTL,
		Logger: logger.WithField("component", "refdata"),
	})
	autosaver := services.NewAutoSaver(services.AutoSaverOptions{
		Repo:     drafts,
		Debounce: conf.Drafts.Debounce,
		Bus:      app.EventPublisher(),
		Logger:   logger,
	})
	sessions := services.NewSessionStore(conf.Sessions.IdleTTL, nil)
	go sessions.Run(m.options.SweepInterval, nil)

	app.RegisterServices(
		services.NewRegistry(nil),
		provider,
		autosaver,
	)
	app.RegisterServices(
		services.NewStepperService(services.StepperServiceOptions{
			Registry:  app.Service(services.Registry{}).(*services.Registry),
			Client:    client,
			Catalogs:  provider,
			Submitter: workflow.NewSubmitter(client),
			Drafts:    drafts,
			AutoSaver: autosaver,
			Sessions:  sessions,
			Bus:       app.EventPublisher(),
			Logger:    logger,
		}),
	)
	app.RegisterControllers(
		controllers.NewStepperAPIController(app, controllers.WithSaveTimeout(conf.API.SaveTimeout)),
	)
	return nil
}

func newDraftRepository(opts configuration.DraftOptions) (draft.Repository, error) {
	switch opts.Store {
	case "redis":
		redisOpts, err := redis.ParseURL(opts.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("stepper: invalid DRAFT_REDIS_URL: %w", err)
		}
		return persistence.NewDraftRepository(redis.NewClient(redisOpts), opts.TTL).WithPrefix(opts.Prefix), nil
	default:
		return persistence.NewInmemDraftRepository(opts.TTL, nil), nil
	}
}

func (m *Module) Name() string {
	return "stepper"
}
