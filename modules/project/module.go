package project

import (
	"github.com/iota-uz/onboarding/modules/stepper/services"
	"github.com/iota-uz/onboarding/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

// Register adds the wizard to the stepper registry; the stepper module must
// be loaded first.
func (m *Module) Register(app application.Application) error {
	registry := app.Service(services.Registry{}).(*services.Registry)
	return registry.Register(Definition(nil))
}

func (m *Module) Name() string {
	return "project"
}
