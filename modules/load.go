package modules

import (
	"github.com/iota-uz/onboarding/modules/capitalpartner"
	"github.com/iota-uz/onboarding/modules/project"
	"github.com/iota-uz/onboarding/modules/stepper"
	"github.com/iota-uz/onboarding/pkg/application"
)

// BuiltInModules lists the engine first; the wizard modules register into
// its registry.
var BuiltInModules = []application.Module{
	stepper.NewModule(nil),
	capitalpartner.NewModule(),
	project.NewModule(),
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
