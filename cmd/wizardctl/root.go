package main

import (
	"github.com/spf13/cobra"

	"github.com/iota-uz/onboarding/modules/capitalpartner"
	"github.com/iota-uz/onboarding/modules/project"
	"github.com/iota-uz/onboarding/modules/stepper/services"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "wizardctl",
		Short:         "Inspect and drive the onboarding wizards",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.AddCommand(newStepsCmd(), newURLCmd(), newReplayCmd())
	return cmd
}

// newRegistry holds the built-in wizards with real clock defaults.
func newRegistry() (*services.Registry, error) {
	registry := services.NewRegistry(nil)
	if err := registry.Register(capitalpartner.Definition(nil), project.Definition(nil)); err != nil {
		return nil, err
	}
	return registry, nil
}
