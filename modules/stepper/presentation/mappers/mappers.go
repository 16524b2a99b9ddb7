package mappers

import (
	"github.com/iota-uz/onboarding/modules/stepper/domain/refdata"
	"github.com/iota-uz/onboarding/modules/stepper/domain/step"
	"github.com/iota-uz/onboarding/modules/stepper/presentation/viewmodels"
)

func StepToViewModel(s *step.Step) viewmodels.Step {
	vm := viewmodels.Step{
		Index:              s.Index,
		Key:                s.Key,
		Label:              s.Label,
		RequiresValidation: s.RequiresValidation,
		Saves:              s.Saves,
		Fields:             append([]string{}, s.Fields...),
		Required:           s.Required,
		Labels:             s.Labels,
	}
	if s.Rows != nil {
		vm.RowField = s.Rows.Field
	}
	return vm
}

func WizardToViewModel(def *step.Definition) viewmodels.Wizard {
	steps := make([]viewmodels.Step, len(def.Steps))
	for i := range def.Steps {
		steps[i] = StepToViewModel(&def.Steps[i])
	}
	return viewmodels.Wizard{
		Name:       def.Name,
		Label:      def.Label,
		BasePath:   def.BasePath,
		Categories: def.Categories,
		Steps:      steps,
	}
}

func OptionsToViewModels(opts []refdata.Option) []viewmodels.Option {
	out := make([]viewmodels.Option, len(opts))
	for i, o := range opts {
		out[i] = viewmodels.Option{ID: o.ID, Value: o.SettingValue, Label: o.DisplayName}
	}
	return out
}
